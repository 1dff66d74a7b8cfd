// Package testutil provides database fixtures shared by package tests.
package testutil

import (
	"path/filepath"
	"testing"
	"time"

	"spese-backend/internal/config"
	"spese-backend/internal/database"
	"spese-backend/internal/ledger"
	"spese-backend/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// OpenDB returns a migrated SQLite database living in the test's temp dir.
func OpenDB(t *testing.T) *gorm.DB {
	t.Helper()
	cfg := &config.Config{
		DatabaseDriver: config.DriverSQLite,
		DatabaseDSN:    filepath.Join(t.TempDir(), "ledger.db"),
	}
	db, err := database.Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// Date parses YYYY-MM-DD or fails the test.
func Date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ledger.ParseDate(s)
	require.NoError(t, err)
	return d
}

// ExpenseOpt tweaks a fixture row before insert.
type ExpenseOpt func(*models.Expense)

func WithAccount(a string) ExpenseOpt  { return func(e *models.Expense) { e.Account = a } }
func WithCategory(c string) ExpenseOpt { return func(e *models.Expense) { e.Category = c } }
func Excluded() ExpenseOpt             { return func(e *models.Expense) { e.Excluded = true } }
func Neutral() ExpenseOpt              { return func(e *models.Expense) { e.Neutral = true } }

// AddExpense inserts a ledger row with a correct fingerprint.
func AddExpense(t *testing.T, db *gorm.DB, date, amount, description string, opts ...ExpenseOpt) models.Expense {
	t.Helper()
	exp := models.Expense{
		ValueDate:    Date(t, date),
		Description:  description,
		CurrencyCode: "EUR",
		Amount:       decimal.RequireFromString(amount),
	}
	for _, o := range opts {
		o(&exp)
	}
	exp.Fingerprint = ledger.Fingerprint(exp.ValueDate, exp.Amount, exp.Description, exp.Account)
	require.NoError(t, db.Create(&exp).Error)
	return exp
}

// AddSender inserts a reimbursement sender without a keyword link.
func AddSender(t *testing.T, db *gorm.DB, pattern, tolerance string, active bool) models.ReimbursementSender {
	t.Helper()
	s := models.ReimbursementSender{
		Pattern:   pattern,
		Tolerance: decimal.RequireFromString(tolerance),
		Active:    active,
	}
	require.NoError(t, db.Create(&s).Error)
	return s
}

// MarkPaid upserts a paid monthly status.
func MarkPaid(t *testing.T, db *gorm.DB, year, month int) {
	t.Helper()
	require.NoError(t, db.Save(&models.MonthlyStatus{Year: year, Month: month, Paid: true}).Error)
}
