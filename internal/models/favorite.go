package models

import "time"

// FavoriteLine is one entry in a user's ordered favorites. Rank is a
// dense 1-based position: for a fixed user the set of ranks is always
// exactly {1..count} after a completed ledger operation.
type FavoriteLine struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	UserID    string `gorm:"size:64;not null;uniqueIndex:idx_user_line;index:idx_user_rank"`
	BidLineID uint   `gorm:"not null;uniqueIndex:idx_user_line"`
	Rank      int    `gorm:"not null;index:idx_user_rank"`
	Notes     string `gorm:"type:text"`
	Tags      string `gorm:"size:255"`
	CreatedAt time.Time

	BidLine BidLine `gorm:"foreignKey:BidLineID"`
}
