// Package notify appends informational notification records for users.
// Delivery transport (email, SMS) lives outside this system; rows here
// are read by the UI layer.
package notify

import (
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/linebid/linebid/internal/errs"
	"github.com/linebid/linebid/internal/models"
	"gorm.io/gorm"
)

// Append creates a notification record for a user.
func Append(db *gorm.DB, userID, message string, bidLineID *uint) error {
	if userID == "" {
		return fmt.Errorf("notify: userID is required")
	}
	if message == "" {
		return fmt.Errorf("notify: message is required")
	}

	n := models.Notification{
		UserID:    userID,
		Message:   message,
		BidLineID: bidLineID,
		CreatedAt: time.Now(),
	}
	if err := db.Create(&n).Error; err != nil {
		return fmt.Errorf("notify: append for %s: %w", userID, err)
	}
	return nil
}

// LineTaken records that a line the user just favorited is already
// taken. Best-effort: failures are logged, never returned, so they
// cannot affect the ledger transaction that triggered them.
func LineTaken(db *gorm.DB, userID string, line *models.BidLine) {
	by := "another bidder"
	if line.TakenBy != nil {
		by = *line.TakenBy
	}
	msg := fmt.Sprintf("Line %d is already taken by %s", line.LineNumber, by)
	if err := Append(db, userID, msg, &line.ID); err != nil {
		log.Printf("notify: line-taken notice for %s: %v", userID, err)
	}
}

// Unread returns a user's unread notifications, newest first.
func Unread(db *gorm.DB, userID string) ([]models.Notification, error) {
	var notices []models.Notification
	err := db.Where("user_id = ? AND read_at IS NULL", userID).
		Order("created_at DESC").Find(&notices).Error
	if err != nil {
		return nil, fmt.Errorf("notify: unread for %s: %w", userID, err)
	}
	return notices, nil
}

// MarkRead stamps a notification as read.
func MarkRead(db *gorm.DB, id uint) error {
	result := db.Model(&models.Notification{}).Where("id = ? AND read_at IS NULL", id).
		Update("read_at", time.Now())
	if result.Error != nil {
		return fmt.Errorf("notify: mark read %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return &errs.NotFoundError{Kind: "unread notification", ID: strconv.FormatUint(uint64(id), 10)}
	}
	return nil
}
