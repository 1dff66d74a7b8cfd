// Package rules maintains neutral keywords and reimbursement senders, and
// keeps the derived neutral flag of ledger rows in sync with them.
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

// KeywordView is a keyword plus whether a reimbursement sender owns it.
type KeywordView struct {
	ID            uint   `json:"id"`
	Keyword       string `json:"keyword"`
	Reimbursement bool   `json:"is_reimbursement"`
}

type Service struct {
	db               *gorm.DB
	defaultTolerance decimal.Decimal
}

func NewService(db *gorm.DB, defaultTolerance decimal.Decimal) *Service {
	return &Service{db: db, defaultTolerance: defaultTolerance}
}

// LoadKeywordSet reads every neutral keyword into a classifier set.
func LoadKeywordSet(ctx context.Context, db *gorm.DB) (ledger.KeywordSet, error) {
	var keys []string
	if err := db.WithContext(ctx).Model(&models.NeutralKeyword{}).Pluck("keyword_key", &keys).Error; err != nil {
		return nil, fmt.Errorf("loading neutral keywords: %w", err)
	}
	return ledger.NewKeywordSet(keys...), nil
}

func (s *Service) ListKeywords(ctx context.Context) ([]KeywordView, error) {
	var kws []models.NeutralKeyword
	if err := s.db.WithContext(ctx).Order("keyword_key asc").Find(&kws).Error; err != nil {
		return nil, fmt.Errorf("listing keywords: %w", err)
	}

	var linked []uint
	err := s.db.WithContext(ctx).Model(&models.ReimbursementSender{}).
		Where("keyword_id IS NOT NULL").
		Pluck("keyword_id", &linked).Error
	if err != nil {
		return nil, fmt.Errorf("listing sender links: %w", err)
	}
	owned := make(map[uint]bool, len(linked))
	for _, id := range linked {
		owned[id] = true
	}

	res := make([]KeywordView, 0, len(kws))
	for _, k := range kws {
		res = append(res, KeywordView{ID: k.ID, Keyword: k.Keyword, Reimbursement: owned[k.ID]})
	}
	return res, nil
}

// AddKeyword stores a keyword and flags the rows it now matches.
func (s *Service) AddKeyword(ctx context.Context, keyword string) (*models.NeutralKeyword, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, fmt.Errorf("%w: keyword is empty", ledger.ErrValidation)
	}

	var kw *models.NeutralKeyword
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		kw, err = insertKeyword(ctx, tx, keyword)
		if err != nil {
			return err
		}
		if _, err := Reflag(ctx, tx, kw.KeywordKey); err != nil {
			return err
		}
		return audit.WriteLog(ctx, tx, audit.LogOptions{
			EntityType:  "neutral_keyword",
			EntityID:    kw.ID,
			Action:      models.AuditActionCreate,
			Description: "neutral keyword added: " + kw.Keyword,
			After:       kw,
		})
	})
	if err != nil {
		return nil, err
	}
	return kw, nil
}

func insertKeyword(ctx context.Context, tx *gorm.DB, keyword string) (*models.NeutralKeyword, error) {
	kw := &models.NeutralKeyword{Keyword: keyword, KeywordKey: ledger.NormalizeKey(keyword)}

	var count int64
	if err := tx.Model(&models.NeutralKeyword{}).Where("keyword_key = ?", kw.KeywordKey).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("checking keyword: %w", err)
	}
	if count > 0 {
		return nil, fmt.Errorf("%w: keyword %q already exists", ledger.ErrConflict, keyword)
	}

	if err := tx.WithContext(ctx).Create(kw).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: keyword %q already exists", ledger.ErrConflict, keyword)
		}
		return nil, fmt.Errorf("creating keyword: %w", err)
	}
	return kw, nil
}

// DeleteKeyword removes a keyword, severs any sender link to it and
// re-derives the neutral flag of the rows it matched.
func (s *Service) DeleteKeyword(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var kw models.NeutralKeyword
		if err := tx.First(&kw, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: keyword %d", ledger.ErrNotFound, id)
			}
			return fmt.Errorf("loading keyword: %w", err)
		}

		err := tx.Model(&models.ReimbursementSender{}).
			Where("keyword_id = ?", kw.ID).
			Update("keyword_id", nil).Error
		if err != nil {
			return fmt.Errorf("severing sender link: %w", err)
		}
		if err := tx.Delete(&kw).Error; err != nil {
			return fmt.Errorf("deleting keyword: %w", err)
		}
		if _, err := Reflag(ctx, tx, kw.KeywordKey); err != nil {
			return err
		}
		return audit.WriteLog(ctx, tx, audit.LogOptions{
			EntityType:  "neutral_keyword",
			EntityID:    kw.ID,
			Action:      models.AuditActionDelete,
			Description: "neutral keyword removed: " + kw.Keyword,
			Before:      kw,
		})
	})
}
