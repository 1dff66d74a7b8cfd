package models

import "time"

// MonthlyStatus: settlement flag for a calendar month, keyed by (year, month).
type MonthlyStatus struct {
	Year      int  `gorm:"primaryKey;autoIncrement:false"`
	Month     int  `gorm:"primaryKey;autoIncrement:false"` // 1-12
	Paid      bool `gorm:"not null"`
	UpdatedAt time.Time
}
