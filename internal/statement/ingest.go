package statement

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"spese-backend/internal/audit"
	"spese-backend/internal/database"
	"spese-backend/internal/dedup"
	"spese-backend/internal/ledger"
	"spese-backend/internal/models"
	"spese-backend/internal/rules"

	"github.com/gofiber/fiber/v2/log"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

const defaultCurrency = "EUR"

// textDateLayouts are tried in order on text date cells.
var textDateLayouts = []string{
	"2/1/2006",
	"2-1-2006",
	"2006-1-2",
	"2.1.2006",
}

var errBadDate = errors.New("unrecognized date")

type Outcome int

const (
	Inserted Outcome = iota
	Duplicate
	Skipped
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Inserted:
		return "inserted"
	case Duplicate:
		return "duplicate"
	case Skipped:
		return "skipped"
	default:
		return "failed"
	}
}

// RowResult is what happened to one sheet row.
type RowResult struct {
	Row     int
	Outcome Outcome
	Kind    dedup.Verdict // set when Outcome is Duplicate
	Reason  string        // set when Outcome is Failed or Skipped
	Expense *models.Expense
}

type FuzzyMatch struct {
	Date        string  `json:"date"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
}

// Stats summarizes one ingestion.
type Stats struct {
	New          int          `json:"new"`
	Duplicates   int          `json:"duplicates"`
	FuzzyMatches []FuzzyMatch `json:"fuzzy_matches"`
	Errors       int          `json:"errors"`
	Rows         []RowResult  `json:"-"`
}

func (s *Stats) add(r RowResult) {
	s.Rows = append(s.Rows, r)
	switch r.Outcome {
	case Inserted:
		s.New++
	case Duplicate:
		s.Duplicates++
		if r.Kind == dedup.FuzzyDuplicate {
			s.FuzzyMatches = append(s.FuzzyMatches, FuzzyMatch{
				Date:        r.Expense.ValueDate.Format(ledger.DateLayout),
				Description: r.Expense.Description,
				Amount:      r.Expense.Amount.InexactFloat64(),
			})
		}
	case Failed:
		s.Errors++
	}
}

// Ingestor loads bank statement workbooks into the ledger.
type Ingestor struct {
	db        *gorm.DB
	headerRow int
}

func NewIngestor(db *gorm.DB, headerRow int) *Ingestor {
	if headerRow < 1 {
		headerRow = DefaultHeaderRow
	}
	return &Ingestor{db: db, headerRow: headerRow}
}

// Ingest decodes a workbook and stores every new row in one transaction. Bad
// rows are counted and skipped; only an unreadable workbook, a missing date or
// description column, or a failed commit returns an error.
func (in *Ingestor) Ingest(ctx context.Context, r io.Reader) (Stats, error) {
	stats := Stats{FuzzyMatches: []FuzzyMatch{}}

	table, err := ReadWorkbook(r, in.headerRow)
	if err != nil {
		return stats, fmt.Errorf("%w: %v", ledger.ErrValidation, err)
	}
	if len(table.Rows) == 0 {
		return stats, nil
	}
	for _, col := range []string{ColDate, ColDescription} {
		if !table.HasColumn(col) {
			return stats, fmt.Errorf("%w: column %q not found in header row %d", ledger.ErrValidation, col, in.headerRow)
		}
	}

	err = in.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		keywords, err := rules.LoadKeywordSet(ctx, tx)
		if err != nil {
			return err
		}
		detector := dedup.New(tx)

		for _, row := range table.Rows {
			stats.add(in.ingestRow(ctx, tx, detector, keywords, table.Date1904, row))
		}

		return audit.WriteLog(ctx, tx, audit.LogOptions{
			EntityType:  "statement",
			Action:      models.AuditActionImport,
			Description: fmt.Sprintf("statement imported: %d new, %d duplicates, %d errors", stats.New, stats.Duplicates, stats.Errors),
			After:       stats,
		})
	})
	if err != nil {
		return Stats{FuzzyMatches: []FuzzyMatch{}}, fmt.Errorf("ingesting statement: %w", err)
	}

	log.Infof("statement ingested: %d new, %d duplicates (%d fuzzy), %d errors",
		stats.New, stats.Duplicates, len(stats.FuzzyMatches), stats.Errors)
	return stats, nil
}

func (in *Ingestor) ingestRow(ctx context.Context, tx *gorm.DB, detector *dedup.Detector, keywords ledger.KeywordSet, date1904 bool, row Row) RowResult {
	res := RowResult{Row: row.Number}

	dateCell := row.Get(ColDate)
	if dateCell.Blank() {
		res.Outcome, res.Reason = Skipped, "missing date"
		return res
	}
	valueDate, err := parseDateCell(dateCell, date1904)
	if err != nil {
		res.Outcome, res.Reason = Failed, err.Error()
		return res
	}

	exp := &models.Expense{
		ValueDate:    valueDate,
		Description:  cleanText(row.Get(ColDescription).Value),
		Account:      cleanText(row.Get(ColAccount).Value),
		Category:     cleanText(row.Get(ColCategory).Value),
		CurrencyCode: cleanText(row.Get(ColCurrency).Value),
		Amount:       ledger.Round2(parseAmountCell(row.Get(ColAmount))),
	}
	if exp.Description == "" {
		res.Outcome, res.Reason = Skipped, "missing description"
		return res
	}
	if exp.CurrencyCode == "" {
		exp.CurrencyCode = defaultCurrency
	}
	exp.Fingerprint = ledger.Fingerprint(exp.ValueDate, exp.Amount, exp.Description, exp.Account)
	res.Expense = exp

	verdict, err := detector.Check(ctx, exp)
	if err != nil {
		res.Outcome, res.Reason = Failed, err.Error()
		return res
	}
	if verdict != dedup.Unique {
		res.Outcome, res.Kind = Duplicate, verdict
		return res
	}

	exp.Neutral = ledger.IsNeutral(exp.Description, keywords)

	if err := tx.SavePoint("ingest_row").Error; err != nil {
		res.Outcome, res.Reason = Failed, err.Error()
		return res
	}
	if err := tx.Create(exp).Error; err != nil {
		if rbErr := tx.RollbackTo("ingest_row").Error; rbErr != nil {
			log.Warnf("statement row %d: rollback to savepoint: %v", row.Number, rbErr)
		}
		if database.IsUniqueViolation(err) {
			res.Outcome, res.Kind = Duplicate, dedup.ExactDuplicate
			return res
		}
		res.Outcome, res.Reason = Failed, err.Error()
		return res
	}

	res.Outcome = Inserted
	return res
}

// cleanText trims a cell and drops the "nan" placeholder some exporters
// write into empty cells.
func cleanText(s string) string {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "nan") {
		return ""
	}
	return s
}

// parseDateCell reads a date from a native date cell, an Excel serial number
// or one of textDateLayouts. The result is a calendar date at UTC midnight.
func parseDateCell(c Cell, date1904 bool) (time.Time, error) {
	raw := strings.TrimSpace(c.Value)

	switch {
	case c.Date:
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", ledger.DateLayout} {
			if t, err := time.Parse(layout, raw); err == nil {
				return calendarDate(t), nil
			}
		}
		return time.Time{}, fmt.Errorf("%w: %q", errBadDate, raw)

	case c.Numeric:
		serial, err := decimal.NewFromString(raw)
		if err != nil || !serial.IsPositive() {
			return time.Time{}, fmt.Errorf("%w: %q", errBadDate, raw)
		}
		t, err := excelize.ExcelDateToTime(serial.InexactFloat64(), date1904)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %v", errBadDate, err)
		}
		return calendarDate(t), nil
	}

	for _, layout := range textDateLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", errBadDate, raw)
}

func calendarDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// parseAmountCell keeps stored numbers as they are; text goes through the
// bank-format parser.
func parseAmountCell(c Cell) decimal.Decimal {
	raw := strings.TrimSpace(c.Value)
	if c.Numeric {
		if d, err := decimal.NewFromString(raw); err == nil {
			return d
		}
	}
	return ledger.ParseAmount(cleanText(raw))
}
