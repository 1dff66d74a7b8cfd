package dedup

import (
	"context"
	"testing"

	"spese-backend/internal/ledger"
	"spese-backend/internal/models"
	"spese-backend/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidate(t *testing.T, date, amount, desc, account string) *models.Expense {
	exp := &models.Expense{
		ValueDate:   testutil.Date(t, date),
		Amount:      decimal.RequireFromString(amount),
		Description: desc,
		Account:     account,
	}
	exp.Fingerprint = ledger.Fingerprint(exp.ValueDate, exp.Amount, exp.Description, exp.Account)
	return exp
}

func TestCheck_Exact(t *testing.T) {
	db := testutil.OpenDB(t)
	testutil.AddExpense(t, db, "2025-01-10", "-20.00", "Farmacia", testutil.WithAccount("Carta"))

	v, err := New(db).Check(context.Background(), candidate(t, "2025-01-10", "-20", " FARMACIA ", "carta"))
	require.NoError(t, err)
	assert.Equal(t, ExactDuplicate, v)
}

func TestCheck_FuzzyWithinWindow(t *testing.T) {
	db := testutil.OpenDB(t)
	testutil.AddExpense(t, db, "2025-01-10", "-20.00", "Farmacia", testutil.WithAccount("Carta"))
	d := New(db)

	for _, date := range []string{"2025-01-08", "2025-01-09", "2025-01-11", "2025-01-12"} {
		// a different account changes the fingerprint but not the fuzzy match
		v, err := d.Check(context.Background(), candidate(t, date, "-20.00", "farmacia", "Conto"))
		require.NoError(t, err)
		assert.Equal(t, FuzzyDuplicate, v, date)
	}
}

func TestCheck_OutsideWindowIsUnique(t *testing.T) {
	db := testutil.OpenDB(t)
	testutil.AddExpense(t, db, "2025-01-10", "-20.00", "Farmacia")
	d := New(db)

	for _, date := range []string{"2025-01-07", "2025-01-13"} {
		v, err := d.Check(context.Background(), candidate(t, date, "-20.00", "Farmacia", ""))
		require.NoError(t, err)
		assert.Equal(t, Unique, v, date)
	}
}

func TestCheck_DifferentAmountOrDescriptionIsUnique(t *testing.T) {
	db := testutil.OpenDB(t)
	testutil.AddExpense(t, db, "2025-01-10", "-20.00", "Farmacia")
	d := New(db)

	v, err := d.Check(context.Background(), candidate(t, "2025-01-11", "-20.01", "Farmacia", ""))
	require.NoError(t, err)
	assert.Equal(t, Unique, v)

	v, err = d.Check(context.Background(), candidate(t, "2025-01-11", "-20.00", "Farmacia Centrale", ""))
	require.NoError(t, err)
	assert.Equal(t, Unique, v)
}

func TestCheck_EmptyLedger(t *testing.T) {
	db := testutil.OpenDB(t)
	v, err := New(db).Check(context.Background(), candidate(t, "2025-01-10", "-1", "x", ""))
	require.NoError(t, err)
	assert.Equal(t, Unique, v)
	assert.Equal(t, "unique", v.String())
	assert.Equal(t, "fuzzy", FuzzyDuplicate.String())
	assert.Equal(t, "exact", ExactDuplicate.String())
}
