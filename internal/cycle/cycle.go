// Package cycle projects a fixed-length day template onto the absolute
// calendar. It is the single home of the day-of-cycle arithmetic; every
// consumer (metrics, holiday alignment, calendar export) goes through
// it rather than repeating the mod math.
package cycle

import (
	"time"

	"github.com/linebid/linebid/internal/errs"
	"github.com/linebid/linebid/internal/models"
)

// StandardLength is the organization-standard day-template length.
// Administrative import enforces it via ValidateTemplate; the expander
// itself works with whatever length the template carries.
const StandardLength = 56

// ExpandedDay is one absolute calendar day of an expanded schedule.
type ExpandedDay struct {
	// Date is a civil calendar date. It is never shifted by local time.
	Date time.Time
	// TemplateDay is the 1-based index into the day template.
	TemplateDay int
	// Entry is the template entry for this day; Entry.Working() is
	// false for off days.
	Entry models.ScheduleDay
}

// TemplateDayIndex maps an absolute day offset to its 1-based template
// day: (offset mod cycleLength) + 1.
func TemplateDayIndex(offset, cycleLength int) int {
	return (offset % cycleLength) + 1
}

// ValidateTemplate checks a day template against a required cycle
// length and verifies its day indexes form exactly 1..cycleLength.
func ValidateTemplate(days []models.ScheduleDay, cycleLength int) error {
	if len(days) != cycleLength {
		return errs.Validationf("template must have %d days, got %d", cycleLength, len(days))
	}
	_, err := indexTemplate(days)
	return err
}

// indexTemplate arranges template days by DayIndex, rejecting gaps,
// duplicates, and out-of-range indexes.
func indexTemplate(days []models.ScheduleDay) ([]*models.ScheduleDay, error) {
	byIndex := make([]*models.ScheduleDay, len(days)+1)
	for i := range days {
		idx := days[i].DayIndex
		if idx < 1 || idx > len(days) {
			return nil, errs.Validationf("template day index %d out of range [1,%d]", idx, len(days))
		}
		if byIndex[idx] != nil {
			return nil, errs.Validationf("duplicate template day index %d", idx)
		}
		byIndex[idx] = &days[i]
	}
	return byIndex, nil
}

// Expand replicates a day template across numCycles cycles starting at
// startDate. The cycle length is the template's length; the result has
// exactly len(days)*numCycles entries in absolute-day order.
func Expand(days []models.ScheduleDay, startDate time.Time, numCycles int) ([]ExpandedDay, error) {
	if numCycles < 1 {
		return nil, errs.Validationf("numCycles must be at least 1, got %d", numCycles)
	}
	if len(days) == 0 {
		return nil, errs.Validationf("template has no days")
	}

	byIndex, err := indexTemplate(days)
	if err != nil {
		return nil, err
	}

	cycleLength := len(days)
	total := cycleLength * numCycles
	expanded := make([]ExpandedDay, 0, total)
	for d := 0; d < total; d++ {
		templateDay := TemplateDayIndex(d, cycleLength)
		expanded = append(expanded, ExpandedDay{
			Date:        startDate.AddDate(0, 0, d),
			TemplateDay: templateDay,
			Entry:       *byIndex[templateDay],
		})
	}
	return expanded, nil
}
