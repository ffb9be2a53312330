package models

import "time"

// BidPeriod defines the calendar span over which schedules repeat.
// Exactly one period is active at a time; activation recomputes metrics
// for every bid line in the period.
type BidPeriod struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	Name      string    `gorm:"size:64"`
	StartDate time.Time `gorm:"type:date;not null"`
	NumCycles int       `gorm:"not null;default:1"`
	IsActive  bool      `gorm:"default:false;index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
