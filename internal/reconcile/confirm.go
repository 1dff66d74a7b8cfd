package reconcile

import (
	"context"
	"fmt"

	"spese-backend/internal/ledger"
	"spese-backend/internal/monthly"

	"gorm.io/gorm"
)

// Confirm applies an accepted candidate by marking its months paid, all in
// one transaction.
func Confirm(ctx context.Context, db *gorm.DB, periods []ledger.Period) error {
	if len(periods) == 0 {
		return fmt.Errorf("%w: no months to confirm", ledger.ErrValidation)
	}
	for _, p := range periods {
		if !p.Valid() {
			return fmt.Errorf("%w: invalid period %d-%d", ledger.ErrValidation, p.Year, p.Month)
		}
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, p := range periods {
			if err := monthly.SetPaid(ctx, tx, p, true); err != nil {
				return err
			}
		}
		return nil
	})
}
