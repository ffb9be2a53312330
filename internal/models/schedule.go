package models

import "time"

// ShiftCode describes one kind of shift, e.g. "D1" 07:00-15:00.
// Begin/end are local times of day in HH:MM; an end earlier than the
// begin denotes an overnight shift. Category is assigned from the
// configured boundary table, not hard-coded.
type ShiftCode struct {
	Code        string  `gorm:"primaryKey;size:16"`
	BeginTime   string  `gorm:"size:5;not null"`
	EndTime     string  `gorm:"size:5;not null"`
	Category    string  `gorm:"size:32;index"`
	HoursLength float64 `gorm:"not null"`
}

// Schedule is a repeating day template linked to a bid line, scoped to
// one bid period. It is immutable once its period starts.
type Schedule struct {
	ID          uint `gorm:"primaryKey;autoIncrement"`
	BidPeriodID uint `gorm:"not null;index"`
	Name        string
	CreatedAt   time.Time

	Days []ScheduleDay `gorm:"foreignKey:ScheduleID"`
}

// ScheduleDay is one entry of the day template. DayIndex is 1-based
// within the cycle; a nil ShiftCodeID is the "off" marker.
type ScheduleDay struct {
	ScheduleID  uint    `gorm:"primaryKey"`
	DayIndex    int     `gorm:"primaryKey"`
	ShiftCodeID *string `gorm:"size:16"`

	ShiftCode *ShiftCode `gorm:"foreignKey:ShiftCodeID"`
}

// Working reports whether the day is a shift day rather than an off day.
func (d ScheduleDay) Working() bool { return d.ShiftCodeID != nil }
