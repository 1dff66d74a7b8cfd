package rules

import (
	"context"
	"fmt"

	"spese-backend/internal/ledger"
	"spese-backend/internal/models"

	"gorm.io/gorm"
)

// Reflag re-derives the neutral flag of ledger rows from the current keyword
// set. With keys, only rows whose normalized description is one of them are
// examined; without, the whole ledger is. Rows are evaluated against every
// remaining keyword, so removing one keyword never un-flags a row another
// keyword still matches. Returns the number of rows changed.
func Reflag(ctx context.Context, tx *gorm.DB, keys ...string) (int, error) {
	keywords, err := LoadKeywordSet(ctx, tx)
	if err != nil {
		return 0, err
	}

	scope := make(map[string]bool, len(keys))
	for _, k := range keys {
		scope[ledger.NormalizeKey(k)] = true
	}

	var rows []models.Expense
	if err := tx.WithContext(ctx).Select("id", "description", "neutral").Find(&rows).Error; err != nil {
		return 0, fmt.Errorf("scanning ledger: %w", err)
	}

	var setOn, setOff []uint
	for _, r := range rows {
		if len(scope) > 0 && !scope[ledger.NormalizeKey(r.Description)] {
			continue
		}
		want := ledger.IsNeutral(r.Description, keywords)
		switch {
		case want && !r.Neutral:
			setOn = append(setOn, r.ID)
		case !want && r.Neutral:
			setOff = append(setOff, r.ID)
		}
	}

	if err := setNeutral(ctx, tx, setOn, true); err != nil {
		return 0, err
	}
	if err := setNeutral(ctx, tx, setOff, false); err != nil {
		return 0, err
	}
	return len(setOn) + len(setOff), nil
}

func setNeutral(ctx context.Context, tx *gorm.DB, ids []uint, neutral bool) error {
	if len(ids) == 0 {
		return nil
	}
	err := tx.WithContext(ctx).Model(&models.Expense{}).
		Where("id IN ?", ids).
		Update("neutral", neutral).Error
	if err != nil {
		return fmt.Errorf("updating neutral flag: %w", err)
	}
	return nil
}
