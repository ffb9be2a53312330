package models

import "time"

// Operation groups bid lines, e.g. a terminal or sector.
type Operation struct {
	ID   uint   `gorm:"primaryKey;autoIncrement"`
	Name string `gorm:"size:64;not null;uniqueIndex"`
}

// User is a bidder. Authentication and session issuance live outside
// this system; only identity and seniority are kept here.
type User struct {
	ID            string `gorm:"primaryKey;size:64"`
	DisplayName   string `gorm:"size:128"`
	SeniorityRank int    `gorm:"index"`
	CreatedAt     time.Time
}
