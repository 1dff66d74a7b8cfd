package models

import "time"

// NeutralKeyword: an operation label that marks matching expenses as internal transfers.
// KeywordKey is the lower-cased, trimmed form and carries the uniqueness constraint.
type NeutralKeyword struct {
	ID         uint   `gorm:"primaryKey"`
	Keyword    string `gorm:"size:512;not null"`
	KeywordKey string `gorm:"size:512;uniqueIndex;not null"`
	CreatedAt  time.Time
}
