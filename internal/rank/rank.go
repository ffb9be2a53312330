// Package rank maintains each user's dense favorite ordering. For a
// fixed user the rank multiset is always exactly {1..count} after a
// completed operation: additions append at max+1, removals close the
// gap. Correctness rests on database-transaction serialization only —
// never on an in-process lock, which would not hold across server
// processes.
package rank

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/linebid/linebid/internal/errs"
	"github.com/linebid/linebid/internal/models"
	"github.com/linebid/linebid/internal/notify"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	// maxRetries bounds internal retries of a toggle that lost a
	// serialization race. The whole transaction re-runs, so a retry
	// never re-applies side effects.
	maxRetries = 3
	retryDelay = 25 * time.Millisecond
)

// ToggleResult reports the outcome of a toggle.
type ToggleResult struct {
	Favorited bool `json:"favorited"`
	// Rank is the assigned position when Favorited is true.
	Rank int `json:"rank,omitempty"`
}

// Toggle adds the line to the user's favorites, or removes it if
// already present. Each attempt runs in one transaction; the next rank
// is computed from a locked MAX(rank) read inside that transaction so
// two concurrent additions cannot compute the same value.
func Toggle(db *gorm.DB, userID string, bidLineID uint) (*ToggleResult, error) {
	if userID == "" {
		return nil, errs.Validationf("userID is required")
	}

	var result *ToggleResult
	var line models.BidLine

	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(retryDelay)
		}
		result, line, err = toggleOnce(db, userID, bidLineID)
		if err == nil || !retryable(err) {
			break
		}
	}
	if err != nil {
		if retryable(err) {
			return nil, &errs.ConflictError{
				BidLineID: bidLineID,
				Msg:       fmt.Sprintf("favorite toggle for %s could not be serialized", userID),
			}
		}
		return nil, err
	}

	// Informational notice when favoriting a line someone already
	// holds. Fire-and-forget, outside the ledger transaction.
	if result.Favorited && line.Status == models.StatusTaken {
		notify.LineTaken(db, userID, &line)
	}
	return result, nil
}

// toggleOnce is a single transactional attempt.
func toggleOnce(db *gorm.DB, userID string, bidLineID uint) (*ToggleResult, models.BidLine, error) {
	var result ToggleResult
	var line models.BidLine

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", bidLineID).First(&line).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &errs.NotFoundError{Kind: "bid line", ID: fmt.Sprint(bidLineID)}
			}
			return fmt.Errorf("rank: load line %d: %w", bidLineID, err)
		}

		var existing models.FavoriteLine
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND bid_line_id = ?", userID, bidLineID).
			First(&existing).Error
		switch {
		case err == nil:
			return remove(tx, userID, &existing)
		case errors.Is(err, gorm.ErrRecordNotFound):
			return add(tx, userID, bidLineID, &result)
		default:
			return fmt.Errorf("rank: load favorite: %w", err)
		}
	})
	if err != nil {
		return nil, line, err
	}
	return &result, line, nil
}

// add inserts a favorite at the next rank. The MAX(rank) read locks the
// user's rows so a concurrent add for the same user blocks until this
// transaction finishes.
func add(tx *gorm.DB, userID string, bidLineID uint, result *ToggleResult) error {
	var maxRank int
	err := tx.Model(&models.FavoriteLine{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		Select("COALESCE(MAX(`rank`), 0)").
		Scan(&maxRank).Error
	if err != nil {
		return fmt.Errorf("rank: read max rank for %s: %w", userID, err)
	}

	favorite := models.FavoriteLine{
		UserID:    userID,
		BidLineID: bidLineID,
		Rank:      maxRank + 1,
		CreatedAt: time.Now(),
	}
	if err := tx.Create(&favorite).Error; err != nil {
		return fmt.Errorf("rank: create favorite: %w", err)
	}

	result.Favorited = true
	result.Rank = favorite.Rank
	return nil
}

// remove deletes a favorite and closes the rank gap with one ranged
// decrement over the same user's remaining rows.
func remove(tx *gorm.DB, userID string, existing *models.FavoriteLine) error {
	if err := tx.Delete(&models.FavoriteLine{}, existing.ID).Error; err != nil {
		return fmt.Errorf("rank: delete favorite %d: %w", existing.ID, err)
	}
	err := tx.Model(&models.FavoriteLine{}).
		Where("user_id = ? AND `rank` > ?", userID, existing.Rank).
		UpdateColumn("rank", gorm.Expr("`rank` - 1")).Error
	if err != nil {
		return fmt.Errorf("rank: close gap for %s: %w", userID, err)
	}
	return nil
}

// retryable reports whether an error is a serialization loss worth
// re-running the transaction for: a deadlock, a lock wait timeout, or
// a duplicate-key insert from a racing toggle.
func retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case 1213, 1205, 1062: // deadlock, lock wait timeout, duplicate entry
			return true
		}
	}
	return false
}

// List returns a user's favorites in rank order with line data loaded.
func List(db *gorm.DB, userID string) ([]models.FavoriteLine, error) {
	var favorites []models.FavoriteLine
	err := db.Preload("BidLine").Preload("BidLine.Operation").
		Where("user_id = ?", userID).
		Order("`rank` ASC").Find(&favorites).Error
	if err != nil {
		return nil, fmt.Errorf("rank: list favorites for %s: %w", userID, err)
	}
	return favorites, nil
}

// UpdateNotes sets the notes and tags on an existing favorite.
func UpdateNotes(db *gorm.DB, userID string, bidLineID uint, notes, tags string) error {
	result := db.Model(&models.FavoriteLine{}).
		Where("user_id = ? AND bid_line_id = ?", userID, bidLineID).
		Updates(map[string]interface{}{"notes": notes, "tags": tags})
	if result.Error != nil {
		return fmt.Errorf("rank: update notes: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return &errs.NotFoundError{Kind: "favorite", ID: fmt.Sprint(bidLineID)}
	}
	return nil
}
