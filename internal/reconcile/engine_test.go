package reconcile

import (
	"context"
	"testing"
	"time"

	"spese-backend/internal/ledger"
	"spese-backend/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	senders   []models.ReimbursementSender
	paid      map[ledger.Period]bool
	expenses  []models.Expense
	transfers map[string][]models.Expense
}

func (f *fakeStore) ActiveSenders(context.Context) ([]models.ReimbursementSender, error) {
	return f.senders, nil
}

func (f *fakeStore) PaidPeriods(context.Context) (map[ledger.Period]bool, error) {
	return f.paid, nil
}

func (f *fakeStore) NonNeutralExpenses(context.Context) ([]models.Expense, error) {
	return f.expenses, nil
}

func (f *fakeStore) IncomingTransfers(_ context.Context, pattern string) ([]models.Expense, error) {
	return f.transfers[pattern], nil
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func row(id uint, d time.Time, amount string) models.Expense {
	return models.Expense{ID: id, ValueDate: d, Amount: decimal.RequireFromString(amount)}
}

func sender(id uint, pattern, tolerance string) models.ReimbursementSender {
	return models.ReimbursementSender{ID: id, Pattern: pattern, Tolerance: decimal.RequireFromString(tolerance), Active: true}
}

func periods(c Candidate) []ledger.Period {
	res := make([]ledger.Period, 0, len(c.Months))
	for _, m := range c.Months {
		res = append(res, m.Period())
	}
	return res
}

func TestDetect_PicksClosestContiguousRun(t *testing.T) {
	store := &fakeStore{
		senders: []models.ReimbursementSender{sender(1, "Mario", "5")},
		expenses: []models.Expense{
			row(1, date(2025, 1, 10), "-100"),
			row(2, date(2025, 2, 10), "-150"),
			row(3, date(2025, 3, 10), "-80"),
		},
		transfers: map[string][]models.Expense{
			"Mario": {{ID: 10, ValueDate: date(2025, 4, 5), Description: "Bonifico da Mario", Amount: decimal.RequireFromString("250")}},
		},
	}

	got, err := NewEngine(store).Detect(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)

	c := got[0]
	assert.Equal(t, []ledger.Period{{Year: 2025, Month: 1}, {Year: 2025, Month: 2}}, periods(c))
	assert.Equal(t, -250.0, c.MonthsTotal)
	assert.Equal(t, 0.0, c.Diff)
	assert.Equal(t, uint(1), c.SenderID)
	assert.Equal(t, Transfer{ID: 10, Date: "2025-04-05", Description: "Bonifico da Mario", Amount: 250}, c.Transaction)
	assert.Equal(t, "Gennaio", c.Months[0].MonthName)
	assert.Equal(t, -100.0, c.Months[0].Amount)
}

func TestDetect_OnlyMonthsClosedBeforeTransfer(t *testing.T) {
	store := &fakeStore{
		senders: []models.ReimbursementSender{sender(1, "Mario", "1")},
		expenses: []models.Expense{
			row(1, date(2025, 1, 10), "-100"),
			row(2, date(2025, 2, 10), "-100"),
		},
		transfers: map[string][]models.Expense{
			"Mario": {
				{ID: 10, ValueDate: date(2025, 2, 28), Amount: decimal.RequireFromString("200")},
				{ID: 11, ValueDate: date(2025, 1, 28), Amount: decimal.RequireFromString("100")},
			},
		},
	}

	got, err := NewEngine(store).Detect(context.Background())
	require.NoError(t, err)
	// Feb 28 is not strictly after February's cutoff, so only January is
	// eligible for transfer 10 and 200 is out of tolerance. Transfer 11
	// arrives on January's cutoff day and has nothing eligible.
	assert.Empty(t, got)

	store.transfers["Mario"][0].ValueDate = date(2025, 3, 1)
	got, err = NewEngine(store).Detect(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, uint(10), got[0].Transaction.ID)
	assert.Len(t, got[0].Months, 2)
}

func TestDetect_ExcludesPaidNeutralAndNegligibleMonths(t *testing.T) {
	store := &fakeStore{
		senders: []models.ReimbursementSender{sender(1, "Mario", "0")},
		paid:    map[ledger.Period]bool{{Year: 2025, Month: 2}: true},
		expenses: []models.Expense{
			row(1, date(2025, 1, 10), "-50"),
			row(2, date(2025, 2, 10), "-70"),
			row(3, date(2025, 3, 10), "-20"),
			row(4, date(2025, 3, 11), "20.005"),
			{ID: 5, ValueDate: date(2025, 4, 2), Amount: decimal.RequireFromString("-999"), Excluded: true},
			row(6, date(2025, 4, 3), "-30"),
		},
		transfers: map[string][]models.Expense{
			"Mario": {{ID: 10, ValueDate: date(2025, 6, 1), Amount: decimal.RequireFromString("80")}},
		},
	}

	got, err := NewEngine(store).Detect(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	// Feb is paid and March nets to ~0, so Jan and Apr are adjacent in the
	// eligible list and form a run.
	assert.Equal(t, []ledger.Period{{Year: 2025, Month: 1}, {Year: 2025, Month: 4}}, periods(got[0]))
	assert.Equal(t, -80.0, got[0].MonthsTotal)
}

func TestDetect_RunLengthCapped(t *testing.T) {
	var expenses []models.Expense
	for m := time.January; m <= time.May; m++ {
		expenses = append(expenses, row(uint(m), date(2025, m, 5), "-10"))
	}
	store := &fakeStore{
		senders:  []models.ReimbursementSender{sender(1, "Mario", "0")},
		expenses: expenses,
		transfers: map[string][]models.Expense{
			"Mario": {{ID: 10, ValueDate: date(2025, 7, 1), Amount: decimal.RequireFromString("50")}},
		},
	}

	got, err := NewEngine(store).Detect(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)

	store.transfers["Mario"][0].Amount = decimal.RequireFromString("40")
	got, err = NewEngine(store).Detect(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Len(t, got[0].Months, MaxWindowMonths)
	assert.Equal(t, 1, got[0].Months[0].Month)
}

func TestDetect_TransferClaimedOnce(t *testing.T) {
	shared := models.Expense{ID: 10, ValueDate: date(2025, 3, 1), Description: "Mario Rossi", Amount: decimal.RequireFromString("100")}
	store := &fakeStore{
		senders: []models.ReimbursementSender{sender(1, "Mario", "1"), sender(2, "Rossi", "1")},
		expenses: []models.Expense{
			row(1, date(2025, 1, 10), "-100"),
		},
		transfers: map[string][]models.Expense{
			"Mario": {shared},
			"Rossi": {shared},
		},
	}

	got, err := NewEngine(store).Detect(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, uint(1), got[0].SenderID)
}

func TestDetect_EmptyInputs(t *testing.T) {
	got, err := NewEngine(&fakeStore{}).Detect(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	got, err = NewEngine(&fakeStore{senders: []models.ReimbursementSender{sender(1, "Mario", "5")}}).Detect(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}
