// Package period manages bid periods and the metrics cache keyed to
// them. Activation is the trigger point: it flips the active period,
// invalidates the holiday cache, and recomputes metrics for every line
// in the period.
package period

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/linebid/linebid/internal/errs"
	"github.com/linebid/linebid/internal/holiday"
	"github.com/linebid/linebid/internal/metrics"
	"github.com/linebid/linebid/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Invalidator is the hook run when a period change makes cached
// holiday data stale.
type Invalidator interface {
	Invalidate()
}

// Opts carries the collaborators and defaults for recomputation.
type Opts struct {
	Resolver   holiday.Resolver
	Weights    metrics.Weights
	Categories []metrics.CategoryBoundary
}

// Activate makes the named period the single active one and rebuilds
// the metrics cache for its lines. The flip is transactional; the
// recompute runs after commit and reports how many lines were updated.
func Activate(db *gorm.DB, periodID uint, cache Invalidator, opts Opts) (int, error) {
	var target models.BidPeriod

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", periodID).First(&target).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &errs.NotFoundError{Kind: "bid period", ID: fmt.Sprint(periodID)}
			}
			return fmt.Errorf("period: load %d: %w", periodID, err)
		}

		if err := tx.Model(&models.BidPeriod{}).Where("is_active = ?", true).
			Update("is_active", false).Error; err != nil {
			return fmt.Errorf("period: deactivate current: %w", err)
		}
		if err := tx.Model(&models.BidPeriod{}).Where("id = ?", periodID).
			Update("is_active", true).Error; err != nil {
			return fmt.Errorf("period: activate %d: %w", periodID, err)
		}
		target.IsActive = true
		return nil
	})
	if err != nil {
		return 0, err
	}

	if cache != nil {
		cache.Invalidate()
	}
	return RecomputeAll(db, target, opts)
}

// Active returns the currently active period.
func Active(db *gorm.DB) (*models.BidPeriod, error) {
	var active models.BidPeriod
	if err := db.Where("is_active = ?", true).First(&active).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &errs.NotFoundError{Kind: "bid period", ID: "active"}
		}
		return nil, fmt.Errorf("period: load active: %w", err)
	}
	return &active, nil
}

// RecomputeAll rebuilds the metrics cache for every line in a period
// that has a linked schedule. Lines without schedules are skipped, not
// errors; a line whose computation fails is logged and skipped so one
// bad template cannot stall the rest of the period.
func RecomputeAll(db *gorm.DB, bidPeriod models.BidPeriod, opts Opts) (int, error) {
	var lines []models.BidLine
	err := db.Preload("Schedule.Days.ShiftCode").
		Joins("JOIN schedules ON schedules.id = bid_lines.schedule_id").
		Where("schedules.bid_period_id = ?", bidPeriod.ID).
		Find(&lines).Error
	if err != nil {
		return 0, fmt.Errorf("period: load lines for period %d: %w", bidPeriod.ID, err)
	}

	updated := 0
	for i := range lines {
		if err := RecomputeLine(db, &lines[i], bidPeriod, opts); err != nil {
			var serr *errs.ExternalServiceError
			if errors.As(err, &serr) {
				// Holiday data is unavailable; metrics would silently
				// undercount, so stop rather than continue.
				return updated, err
			}
			log.Printf("period: recompute line %d: %v", lines[i].ID, err)
			continue
		}
		updated++
	}
	return updated, nil
}

// RecomputeLine recomputes and upserts the cached metrics row for one
// line. The line's schedule must be preloaded with days and shift
// codes.
func RecomputeLine(db *gorm.DB, line *models.BidLine, bidPeriod models.BidPeriod, opts Opts) error {
	if line.Schedule == nil {
		return errs.Validationf("line %d has no linked schedule", line.ID)
	}

	holidays, err := fetchHolidays(opts.Resolver, line.Schedule, bidPeriod)
	if err != nil {
		return err
	}

	result, err := metrics.Compute(line.Schedule, bidPeriod, holidays,
		metrics.SelectionFilters{}, opts.Weights, opts.Categories)
	if err != nil {
		return err
	}

	result.BidLineID = line.ID
	result.ComputedAt = time.Now()

	// Replace the cached row wholesale; metrics rows are never
	// patched in place.
	err = db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "bid_line_id"}, {Name: "bid_period_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"working_days", "off_days", "total_hours",
			"saturdays_on", "sundays_on", "weekends_on",
			"blocks2_day", "blocks3_day", "blocks4_day", "blocks5_day",
			"blocks6_day", "blocks7_day_plus", "longest_stretch",
			"longest_off_stretch", "shortest_off_stretch",
			"holidays_working", "holidays_off",
			"category_counts", "score", "explanation", "estimated", "computed_at",
		}),
	}).Create(result).Error
	if err != nil {
		return fmt.Errorf("period: store metrics for line %d: %w", line.ID, err)
	}
	return nil
}

// fetchHolidays resolves the holiday set covering the expanded range.
func fetchHolidays(resolver holiday.Resolver, schedule *models.Schedule, bidPeriod models.BidPeriod) ([]models.Holiday, error) {
	if resolver == nil || len(schedule.Days) == 0 {
		return nil, nil
	}
	end := bidPeriod.StartDate.AddDate(0, 0, len(schedule.Days)*bidPeriod.NumCycles-1)
	return resolver.GetHolidays(bidPeriod.StartDate, end)
}
