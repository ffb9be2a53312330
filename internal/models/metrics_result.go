package models

import "time"

// MetricsResult caches the pattern statistics computed for one bid line
// in one bid period. Rows are recomputed wholesale whenever the linked
// schedule, the holiday set, or the period changes; they are never
// patched in place.
type MetricsResult struct {
	ID          uint `gorm:"primaryKey;autoIncrement"`
	BidLineID   uint `gorm:"not null;uniqueIndex:idx_line_period"`
	BidPeriodID uint `gorm:"not null;uniqueIndex:idx_line_period"`

	WorkingDays int
	OffDays     int
	TotalHours  float64

	SaturdaysOn int
	SundaysOn   int
	WeekendsOn  int

	Blocks2Day     int
	Blocks3Day     int
	Blocks4Day     int
	Blocks5Day     int
	Blocks6Day     int
	Blocks7DayPlus int
	LongestStretch int

	LongestOffStretch  int
	ShortestOffStretch int

	HolidaysWorking int
	HolidaysOff     int

	// CategoryCounts is a JSON object of configured category name to the
	// number of working days bucketed under it.
	CategoryCounts string `gorm:"type:json"`

	Score       float64
	Explanation string `gorm:"type:text"`

	// Estimated marks results computed from schedules whose shift codes
	// lack hour details. Estimated results are labeled, never blended
	// with exact ones.
	Estimated bool `gorm:"default:false"`

	ComputedAt time.Time
}
