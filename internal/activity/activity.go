// Package activity exposes the read model over the activity log: who
// did what to which line, newest first.
package activity

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// defaultLimit caps the feed when the caller passes no limit.
const defaultLimit = 50

// Entry is one feed row, ready for display.
type Entry struct {
	Timestamp     time.Time `json:"timestamp"`
	ActorName     string    `json:"actorName"`
	Action        string    `json:"action"`
	LineNumber    int       `json:"lineNumber"`
	OperationName string    `json:"operationName"`
}

// Feed returns activity entries newest first, bounded by limit and an
// optional time window. A zero since means no window; actors without a
// user row (administrators, system jobs) fall back to their raw ID.
func Feed(db *gorm.DB, limit int, since time.Time) ([]Entry, error) {
	if limit <= 0 {
		limit = defaultLimit
	}

	query := db.Table("activity_logs").
		Select("activity_logs.created_at AS timestamp, " +
			"COALESCE(users.display_name, activity_logs.actor_id) AS actor_name, " +
			"activity_logs.action, " +
			"bid_lines.line_number, " +
			"operations.name AS operation_name").
		Joins("JOIN bid_lines ON bid_lines.id = activity_logs.bid_line_id").
		Joins("JOIN operations ON operations.id = bid_lines.operation_id").
		Joins("LEFT JOIN users ON users.id = activity_logs.actor_id").
		Order("activity_logs.created_at DESC, activity_logs.id DESC").
		Limit(limit)

	if !since.IsZero() {
		query = query.Where("activity_logs.created_at >= ?", since)
	}

	var entries []Entry
	if err := query.Scan(&entries).Error; err != nil {
		return nil, fmt.Errorf("activity: feed: %w", err)
	}
	return entries, nil
}
