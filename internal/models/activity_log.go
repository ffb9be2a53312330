package models

import "time"

// ActivityLog is the immutable record of a bid line state transition.
// Rows are append-only; nothing updates or deletes them.
type ActivityLog struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	ActorID   string `gorm:"size:64;not null;index"`
	Action    string `gorm:"size:16;not null"`
	BidLineID uint   `gorm:"not null;index"`
	Details   string `gorm:"type:text"`
	CreatedAt time.Time `gorm:"index"`

	BidLine BidLine `gorm:"foreignKey:BidLineID"`
}
