package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReimbursementSender: counterparty whose incoming transfers settle past months.
// Pattern is matched as a case-insensitive substring of expense descriptions.
type ReimbursementSender struct {
	ID        uint            `gorm:"primaryKey"`
	Pattern   string          `gorm:"size:512;uniqueIndex;not null"`
	KeywordID *uint           `gorm:"index"` // linked neutral keyword, nil once severed
	Keyword   *NeutralKeyword `gorm:"constraint:OnDelete:SET NULL"`
	Tolerance decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	Active    bool            `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
