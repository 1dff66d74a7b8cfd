package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense: one ledger row (bank/card movement). Positive amount = inflow, negative = outflow.
type Expense struct {
	ID           uint            `gorm:"primaryKey"`
	ValueDate    time.Time       `gorm:"type:date;index;not null"`
	Description  string          `gorm:"size:512;not null"`
	Account      string          `gorm:"size:255;default:''"`
	Category     string          `gorm:"size:255;default:''"`
	CurrencyCode string          `gorm:"size:3;default:'EUR'"`
	Amount       decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	Excluded     bool            `gorm:"default:false;not null"` // user override, omitted from totals
	Neutral      bool            `gorm:"default:false;not null"` // derived from neutral keywords
	Fingerprint  string          `gorm:"size:64;uniqueIndex;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
