package models

import "time"

// Holiday is one observed holiday date. Dates are civil calendar dates;
// no timezone conversion is ever applied to them.
type Holiday struct {
	ID   uint      `gorm:"primaryKey;autoIncrement"`
	Date time.Time `gorm:"type:date;not null;index"`
	Name string    `gorm:"size:128;not null"`
}
