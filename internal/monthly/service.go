// Package monthly tracks which calendar months have been settled.
package monthly

import (
	"context"
	"fmt"

	"spese-backend/internal/audit"
	"spese-backend/internal/ledger"
	"spese-backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Statuses returns every recorded month keyed "YYYY-MM".
func Statuses(ctx context.Context, db *gorm.DB) (map[string]bool, error) {
	var rows []models.MonthlyStatus
	if err := db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing monthly status: %w", err)
	}
	res := make(map[string]bool, len(rows))
	for _, r := range rows {
		res[ledger.Period{Year: r.Year, Month: r.Month}.String()] = r.Paid
	}
	return res, nil
}

// PaidPeriods returns the months marked paid.
func PaidPeriods(ctx context.Context, db *gorm.DB) (map[ledger.Period]bool, error) {
	var rows []models.MonthlyStatus
	if err := db.WithContext(ctx).Where("paid = ?", true).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing paid months: %w", err)
	}
	res := make(map[ledger.Period]bool, len(rows))
	for _, r := range rows {
		res[ledger.Period{Year: r.Year, Month: r.Month}] = true
	}
	return res, nil
}

// SetPaid upserts the status of one month inside tx and records it in the
// audit log.
func SetPaid(ctx context.Context, tx *gorm.DB, p ledger.Period, paid bool) error {
	if !p.Valid() {
		return fmt.Errorf("%w: invalid period %d-%d", ledger.ErrValidation, p.Year, p.Month)
	}

	status := models.MonthlyStatus{Year: p.Year, Month: p.Month, Paid: paid}
	err := tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "year"}, {Name: "month"}},
		DoUpdates: clause.AssignmentColumns([]string{"paid", "updated_at"}),
	}).Create(&status).Error
	if err != nil {
		return fmt.Errorf("saving monthly status: %w", err)
	}

	state := "unpaid"
	if paid {
		state = "paid"
	}
	return audit.WriteLog(ctx, tx, audit.LogOptions{
		EntityType:  "monthly_status",
		Action:      models.AuditActionUpdate,
		Description: fmt.Sprintf("%s marked %s", p, state),
		After:       status,
	})
}

// Clear forgets the status of the given months, leaving them unpaid.
func Clear(ctx context.Context, tx *gorm.DB, periods ...ledger.Period) error {
	for _, p := range periods {
		err := tx.WithContext(ctx).
			Where("year = ? AND month = ?", p.Year, p.Month).
			Delete(&models.MonthlyStatus{}).Error
		if err != nil {
			return fmt.Errorf("clearing monthly status %s: %w", p, err)
		}
	}
	return nil
}
