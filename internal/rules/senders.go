package rules

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"spese-backend/internal/audit"
	"spese-backend/internal/database"
	"spese-backend/internal/ledger"
	"spese-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SenderInput struct {
	Pattern   string
	Tolerance *decimal.Decimal // nil uses the configured default
	Active    *bool            // nil means active
}

type SenderUpdate struct {
	Tolerance *decimal.Decimal
	Active    *bool
}

func (s *Service) ListSenders(ctx context.Context) ([]models.ReimbursementSender, error) {
	var senders []models.ReimbursementSender
	if err := s.db.WithContext(ctx).Order("pattern asc").Find(&senders).Error; err != nil {
		return nil, fmt.Errorf("listing senders: %w", err)
	}
	return senders, nil
}

// CreateSender stores a sender and links it to the neutral keyword sharing
// its pattern, creating that keyword when missing so the sender's own
// transfers stay out of spending totals.
func (s *Service) CreateSender(ctx context.Context, in SenderInput) (*models.ReimbursementSender, error) {
	pattern := strings.TrimSpace(in.Pattern)
	if pattern == "" {
		return nil, fmt.Errorf("%w: pattern is required", ledger.ErrValidation)
	}
	tolerance := s.defaultTolerance
	if in.Tolerance != nil {
		tolerance = *in.Tolerance
	}
	if tolerance.IsNegative() {
		return nil, fmt.Errorf("%w: tolerance must not be negative", ledger.ErrValidation)
	}
	active := true
	if in.Active != nil {
		active = *in.Active
	}

	sender := &models.ReimbursementSender{
		Pattern:   pattern,
		Tolerance: tolerance,
		Active:    active,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.ReimbursementSender{}).Where("pattern = ?", pattern).Count(&count).Error; err != nil {
			return fmt.Errorf("checking sender: %w", err)
		}
		if count > 0 {
			return fmt.Errorf("%w: sender %q already exists", ledger.ErrConflict, pattern)
		}

		var kw models.NeutralKeyword
		err := tx.Where("keyword_key = ?", ledger.NormalizeKey(pattern)).Take(&kw).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			created, err := insertKeyword(ctx, tx, pattern)
			if err != nil {
				return err
			}
			if _, err := Reflag(ctx, tx, created.KeywordKey); err != nil {
				return err
			}
			kw = *created
		case err != nil:
			return fmt.Errorf("looking up keyword: %w", err)
		}
		sender.KeywordID = &kw.ID

		if err := tx.Create(sender).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return fmt.Errorf("%w: sender %q already exists", ledger.ErrConflict, pattern)
			}
			return fmt.Errorf("creating sender: %w", err)
		}
		return audit.WriteLog(ctx, tx, audit.LogOptions{
			EntityType:  "reimbursement_sender",
			EntityID:    sender.ID,
			Action:      models.AuditActionCreate,
			Description: "reimbursement sender added: " + pattern,
			After:       sender,
		})
	})
	if err != nil {
		return nil, err
	}
	return sender, nil
}

func (s *Service) UpdateSender(ctx context.Context, id uint, up SenderUpdate) (*models.ReimbursementSender, error) {
	if up.Tolerance != nil && up.Tolerance.IsNegative() {
		return nil, fmt.Errorf("%w: tolerance must not be negative", ledger.ErrValidation)
	}

	var sender models.ReimbursementSender
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&sender, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: sender %d", ledger.ErrNotFound, id)
			}
			return fmt.Errorf("loading sender: %w", err)
		}
		before := sender

		changes := map[string]any{}
		if up.Tolerance != nil {
			changes["tolerance"] = *up.Tolerance
			sender.Tolerance = *up.Tolerance
		}
		if up.Active != nil {
			changes["active"] = *up.Active
			sender.Active = *up.Active
		}
		if len(changes) == 0 {
			return nil
		}
		if err := tx.Model(&models.ReimbursementSender{ID: id}).Updates(changes).Error; err != nil {
			return fmt.Errorf("updating sender: %w", err)
		}
		return audit.WriteLog(ctx, tx, audit.LogOptions{
			EntityType:  "reimbursement_sender",
			EntityID:    id,
			Action:      models.AuditActionUpdate,
			Description: "reimbursement sender updated: " + sender.Pattern,
			Before:      before,
			After:       sender,
		})
	})
	if err != nil {
		return nil, err
	}
	return &sender, nil
}

// DeleteSender removes a sender together with its linked keyword and
// re-derives the neutral flag of the rows that keyword matched.
func (s *Service) DeleteSender(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sender models.ReimbursementSender
		if err := tx.First(&sender, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: sender %d", ledger.ErrNotFound, id)
			}
			return fmt.Errorf("loading sender: %w", err)
		}

		if err := tx.Delete(&sender).Error; err != nil {
			return fmt.Errorf("deleting sender: %w", err)
		}

		if sender.KeywordID != nil {
			var kw models.NeutralKeyword
			err := tx.First(&kw, *sender.KeywordID).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
			case err != nil:
				return fmt.Errorf("loading linked keyword: %w", err)
			default:
				if err := tx.Delete(&kw).Error; err != nil {
					return fmt.Errorf("deleting linked keyword: %w", err)
				}
				if _, err := Reflag(ctx, tx, kw.KeywordKey); err != nil {
					return err
				}
			}
		}

		return audit.WriteLog(ctx, tx, audit.LogOptions{
			EntityType:  "reimbursement_sender",
			EntityID:    sender.ID,
			Action:      models.AuditActionDelete,
			Description: "reimbursement sender removed: " + sender.Pattern,
			Before:      sender,
		})
	})
}
