// Package dedup classifies incoming ledger rows as new, exact duplicates
// (same fingerprint) or fuzzy duplicates (same amount and description a few
// days apart, as when a bank shifts a pending movement's settlement date).
package dedup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"spese-backend/internal/ledger"
	"spese-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// FuzzyWindowDays is the inclusive distance, in days, within which a row with
// equal amount and description counts as the same transaction.
const FuzzyWindowDays = 2

type Verdict int

const (
	Unique Verdict = iota
	ExactDuplicate
	FuzzyDuplicate
)

func (v Verdict) String() string {
	switch v {
	case ExactDuplicate:
		return "exact"
	case FuzzyDuplicate:
		return "fuzzy"
	default:
		return "unique"
	}
}

// Detector runs duplicate checks against the ledger. Bind it to a transaction
// so rows inserted earlier in the same batch are seen.
type Detector struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Detector {
	return &Detector{db: db}
}

// Check applies the exact check first, then the fuzzy one.
func (d *Detector) Check(ctx context.Context, exp *models.Expense) (Verdict, error) {
	exact, err := d.ExactExists(ctx, exp.Fingerprint)
	if err != nil {
		return Unique, err
	}
	if exact {
		return ExactDuplicate, nil
	}

	fuzzy, err := d.FuzzyExists(ctx, exp.ValueDate, exp.Amount, exp.Description)
	if err != nil {
		return Unique, err
	}
	if fuzzy {
		return FuzzyDuplicate, nil
	}
	return Unique, nil
}

func (d *Detector) ExactExists(ctx context.Context, fingerprint string) (bool, error) {
	var existing models.Expense
	err := d.db.WithContext(ctx).
		Select("id").
		Where("fingerprint = ?", fingerprint).
		Take(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("looking up fingerprint: %w", err)
	}
	return true, nil
}

// FuzzyExists reports whether any ledger row, whatever its fingerprint, has the
// same amount and normalized description within FuzzyWindowDays of valueDate.
func (d *Detector) FuzzyExists(ctx context.Context, valueDate time.Time, amount decimal.Decimal, description string) (bool, error) {
	from := valueDate.AddDate(0, 0, -FuzzyWindowDays)
	to := valueDate.AddDate(0, 0, FuzzyWindowDays)

	var rows []models.Expense
	err := d.db.WithContext(ctx).
		Select("id", "description", "amount").
		Where("value_date >= ? AND value_date <= ?", from, to).
		Find(&rows).Error
	if err != nil {
		return false, fmt.Errorf("scanning fuzzy window: %w", err)
	}

	key := ledger.NormalizeKey(description)
	for _, r := range rows {
		if r.Amount.Equal(amount) && ledger.NormalizeKey(r.Description) == key {
			return true, nil
		}
	}
	return false, nil
}
