package models

import "time"

// Notification is an informational record for a user, e.g. "the line
// you favorited is already taken". Appended fire-and-forget, outside
// any rank transaction.
type Notification struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	UserID    string `gorm:"size:64;not null;index"`
	Message   string `gorm:"type:text;not null"`
	BidLineID *uint
	ReadAt    *time.Time
	CreatedAt time.Time
}
