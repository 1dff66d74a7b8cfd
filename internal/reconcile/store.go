package reconcile

import (
	"context"
	"fmt"
	"strings"

	"spese-backend/internal/ledger"
	"spese-backend/internal/models"
	"spese-backend/internal/monthly"

	"gorm.io/gorm"
)

// GormStore reads reconciliation inputs from the ledger database.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) ActiveSenders(ctx context.Context) ([]models.ReimbursementSender, error) {
	var senders []models.ReimbursementSender
	err := s.db.WithContext(ctx).
		Where("active = ?", true).
		Order("id asc").
		Find(&senders).Error
	if err != nil {
		return nil, fmt.Errorf("loading active senders: %w", err)
	}
	return senders, nil
}

func (s *GormStore) PaidPeriods(ctx context.Context) (map[ledger.Period]bool, error) {
	return monthly.PaidPeriods(ctx, s.db)
}

func (s *GormStore) NonNeutralExpenses(ctx context.Context) ([]models.Expense, error) {
	var rows []models.Expense
	err := s.db.WithContext(ctx).
		Select("id", "value_date", "amount", "excluded").
		Where("neutral = ?", false).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("loading ledger rows: %w", err)
	}
	return rows, nil
}

// IncomingTransfers matches the pattern in Go so case folding is Unicode-aware
// on every driver.
func (s *GormStore) IncomingTransfers(ctx context.Context, pattern string) ([]models.Expense, error) {
	var rows []models.Expense
	err := s.db.WithContext(ctx).
		Select("id", "value_date", "description", "amount").
		Where("amount > ?", 0).
		Order("value_date desc, id desc").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("loading incoming transfers: %w", err)
	}

	needle := strings.ToLower(strings.TrimSpace(pattern))
	if needle == "" {
		return nil, nil
	}
	res := rows[:0]
	for _, r := range rows {
		if strings.Contains(strings.ToLower(r.Description), needle) {
			res = append(res, r)
		}
	}
	return res, nil
}
