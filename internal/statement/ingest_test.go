package statement

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"spese-backend/internal/dedup"
	"spese-backend/internal/ledger"
	"spese-backend/internal/models"
	"spese-backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var header = []any{ColDate, ColDescription, ColAccount, ColCategory, ColCurrency, ColAmount}

// workbook builds a bank export: a preamble, the header on DefaultHeaderRow,
// then one row per entry.
func workbook(t *testing.T, rows ...[]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetCellValue(sheet, "A1", "Estratto conto"))
	require.NoError(t, f.SetCellValue(sheet, "A2", "Periodo: 01/01/2025 - 31/03/2025"))
	require.NoError(t, f.SetSheetRow(sheet, fmt.Sprintf("A%d", DefaultHeaderRow), &header))
	for i, r := range rows {
		r := r
		require.NoError(t, f.SetSheetRow(sheet, fmt.Sprintf("A%d", DefaultHeaderRow+1+i), &r))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func tenRows() [][]any {
	rows := make([][]any, 0, 10)
	for i := 1; i <= 10; i++ {
		rows = append(rows, []any{day(2025, 1, i*2), fmt.Sprintf("Spesa %d", i), "Carta", "Varie", "EUR", -10.5 * float64(i)})
	}
	return rows
}

func TestIngest_SameFileTwice(t *testing.T) {
	db := testutil.OpenDB(t)
	in := NewIngestor(db, DefaultHeaderRow)
	ctx := context.Background()
	rows := tenRows()

	first, err := in.Ingest(ctx, workbook(t, rows...))
	require.NoError(t, err)
	assert.Equal(t, 10, first.New)
	assert.Zero(t, first.Duplicates)
	assert.Zero(t, first.Errors)

	second, err := in.Ingest(ctx, workbook(t, rows...))
	require.NoError(t, err)
	assert.Zero(t, second.New)
	assert.Equal(t, 10, second.Duplicates)
	assert.Empty(t, second.FuzzyMatches)

	var count int64
	require.NoError(t, db.Model(&models.Expense{}).Count(&count).Error)
	assert.EqualValues(t, 10, count)
}

func TestIngest_BadDateDoesNotAbortBatch(t *testing.T) {
	db := testutil.OpenDB(t)
	rows := tenRows()
	rows[4][0] = "31/31/2025"

	stats, err := NewIngestor(db, DefaultHeaderRow).Ingest(context.Background(), workbook(t, rows...))
	require.NoError(t, err)
	assert.Equal(t, 9, stats.New)
	assert.Equal(t, 1, stats.Errors)

	require.Len(t, stats.Rows, 10)
	assert.Equal(t, Failed, stats.Rows[4].Outcome)
	assert.Equal(t, DefaultHeaderRow+5, stats.Rows[4].Row)
}

func TestIngest_TextDatesAndAmounts(t *testing.T) {
	db := testutil.OpenDB(t)
	stats, err := NewIngestor(db, DefaultHeaderRow).Ingest(context.Background(), workbook(t,
		[]any{"10/01/2025", "Supermercato", "Carta", "Spesa", "EUR", "-1.200,50"},
		[]any{"11-01-2025", "Farmacia", "Carta", "Salute", "EUR", "-10,3"},
		[]any{"2025-01-12", "Stipendio", "Conto", "Entrate", "EUR", "2500"},
		[]any{"13.01.2025", "Bar", "Carta", "Svago", "EUR", "-3.20"},
	))
	require.NoError(t, err)
	assert.Equal(t, 4, stats.New)

	var got []models.Expense
	require.NoError(t, db.Order("value_date asc").Find(&got).Error)
	require.Len(t, got, 4)

	want := []struct {
		date   string
		amount string
	}{
		{"2025-01-10", "-1200.5"},
		{"2025-01-11", "-10.3"},
		{"2025-01-12", "2500"},
		{"2025-01-13", "-3.2"},
	}
	for i, w := range want {
		assert.Equal(t, w.date, got[i].ValueDate.Format(ledger.DateLayout))
		assert.Equal(t, w.amount, got[i].Amount.String(), "row %d", i)
	}
}

func TestIngest_NumericAmountsAreNotReparsed(t *testing.T) {
	db := testutil.OpenDB(t)
	stats, err := NewIngestor(db, DefaultHeaderRow).Ingest(context.Background(), workbook(t,
		[]any{day(2025, 2, 1), "Rimborso", "Conto", "", "EUR", 1.234},
	))
	require.NoError(t, err)
	require.Equal(t, 1, stats.New)

	var e models.Expense
	require.NoError(t, db.First(&e).Error)
	assert.Equal(t, "1.23", e.Amount.StringFixed(2))
}

func TestIngest_SkipsAndNormalizes(t *testing.T) {
	db := testutil.OpenDB(t)
	stats, err := NewIngestor(db, DefaultHeaderRow).Ingest(context.Background(), workbook(t,
		[]any{"", "Senza data", "Carta", "", "EUR", -1},
		[]any{day(2025, 3, 1), "   ", "Carta", "", "EUR", -1},
		[]any{day(2025, 3, 2), "nan", "Carta", "", "EUR", -1},
		[]any{day(2025, 3, 3), "Edicola", "nan", "nan", "nan", -2},
		[]any{day(2025, 3, 4), "Panificio", "Carta", "Spesa", "", -4},
	))
	require.NoError(t, err)
	assert.Equal(t, 2, stats.New)
	assert.Zero(t, stats.Errors)

	var got []models.Expense
	require.NoError(t, db.Order("value_date asc").Find(&got).Error)
	require.Len(t, got, 2)
	assert.Equal(t, "", got[0].Account)
	assert.Equal(t, "", got[0].Category)
	assert.Equal(t, "EUR", got[0].CurrencyCode)
	assert.Equal(t, "EUR", got[1].CurrencyCode)
}

func TestIngest_FuzzyDuplicateReported(t *testing.T) {
	db := testutil.OpenDB(t)
	testutil.AddExpense(t, db, "2025-04-10", "-20.00", "Farmacia", testutil.WithAccount("Carta"))

	stats, err := NewIngestor(db, DefaultHeaderRow).Ingest(context.Background(), workbook(t,
		[]any{day(2025, 4, 11), "Farmacia", "Carta", "", "EUR", -20},
		[]any{day(2025, 4, 13), "Farmacia", "Carta", "", "EUR", -20},
	))
	require.NoError(t, err)
	assert.Equal(t, 1, stats.New)
	assert.Equal(t, 1, stats.Duplicates)
	require.Len(t, stats.FuzzyMatches, 1)
	assert.Equal(t, FuzzyMatch{Date: "2025-04-11", Description: "Farmacia", Amount: -20}, stats.FuzzyMatches[0])
	assert.Equal(t, dedup.FuzzyDuplicate, stats.Rows[0].Kind)
}

func TestIngest_ClassifiesNeutralRows(t *testing.T) {
	db := testutil.OpenDB(t)
	require.NoError(t, db.Create(&models.NeutralKeyword{Keyword: "Giroconto", KeywordKey: "giroconto"}).Error)

	_, err := NewIngestor(db, DefaultHeaderRow).Ingest(context.Background(), workbook(t,
		[]any{day(2025, 5, 1), "GIROCONTO", "Conto", "", "EUR", -500},
		[]any{day(2025, 5, 2), "Giroconto mensile", "Conto", "", "EUR", -50},
	))
	require.NoError(t, err)

	var got []models.Expense
	require.NoError(t, db.Order("value_date asc").Find(&got).Error)
	require.Len(t, got, 2)
	assert.True(t, got[0].Neutral)
	assert.False(t, got[1].Neutral)
}

func TestIngest_WritesImportAuditLog(t *testing.T) {
	db := testutil.OpenDB(t)
	_, err := NewIngestor(db, DefaultHeaderRow).Ingest(context.Background(), workbook(t, tenRows()[:2]...))
	require.NoError(t, err)

	var logs []models.AuditLog
	require.NoError(t, db.Where("entity_type = ?", "statement").Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, models.AuditActionImport, logs[0].Action)
	assert.Contains(t, logs[0].AfterData, `"new":2`)
}

func TestIngest_RejectsMissingColumns(t *testing.T) {
	db := testutil.OpenDB(t)
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, fmt.Sprintf("A%d", DefaultHeaderRow), &[]any{"Foo", "Bar"}))
	require.NoError(t, f.SetSheetRow(sheet, fmt.Sprintf("A%d", DefaultHeaderRow+1), &[]any{"x", "y"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	_, err = NewIngestor(db, DefaultHeaderRow).Ingest(context.Background(), buf)
	assert.ErrorIs(t, err, ledger.ErrValidation)
}

func TestIngest_RejectsNonWorkbook(t *testing.T) {
	db := testutil.OpenDB(t)
	_, err := NewIngestor(db, DefaultHeaderRow).Ingest(context.Background(), bytes.NewBufferString("not a workbook"))
	assert.ErrorIs(t, err, ledger.ErrValidation)
}

func TestIngest_EmptySheet(t *testing.T) {
	db := testutil.OpenDB(t)
	stats, err := NewIngestor(db, DefaultHeaderRow).Ingest(context.Background(), workbook(t))
	require.NoError(t, err)
	assert.Zero(t, stats.New)
	assert.NotNil(t, stats.FuzzyMatches)
}
