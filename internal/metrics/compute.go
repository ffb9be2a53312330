package metrics

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/linebid/linebid/internal/cycle"
	"github.com/linebid/linebid/internal/errs"
	"github.com/linebid/linebid/internal/models"
)

const dateLayout = "2006-01-02"

// Compute derives a MetricsResult from a schedule, its bid period, and
// a pre-fetched holiday set. It performs no I/O and sets no timestamps,
// so identical inputs always produce identical results; the caller
// stamps ComputedAt when persisting.
//
// The schedule's Days must be loaded with their ShiftCode rows. Filters
// affect only the score, never the counted metrics.
func Compute(schedule *models.Schedule, period models.BidPeriod, holidays []models.Holiday,
	filters SelectionFilters, weights Weights, categories []CategoryBoundary) (*models.MetricsResult, error) {

	if schedule == nil || len(schedule.Days) == 0 {
		return nil, errs.Validationf("schedule has no linked template")
	}

	expanded, err := cycle.Expand(schedule.Days, period.StartDate, period.NumCycles)
	if err != nil {
		return nil, err
	}

	result := &models.MetricsResult{
		BidPeriodID: period.ID,
	}

	working := make([]bool, len(expanded))
	byDate := make(map[string]int, len(expanded))
	categoryCounts := make(map[string]int)

	for i, day := range expanded {
		working[i] = day.Entry.Working()
		byDate[day.Date.Format(dateLayout)] = i

		if !working[i] {
			result.OffDays++
			continue
		}
		result.WorkingDays++

		code := day.Entry.ShiftCode
		if code == nil || code.HoursLength <= 0 {
			// Shift details are missing. Label the whole result as an
			// estimate rather than blending a guessed ratio in.
			result.Estimated = true
		} else {
			result.TotalHours += code.HoursLength
			categoryCounts[Categorize(code.BeginTime, categories)]++
		}
	}

	countWeekends(expanded, working, result)
	countBlocks(working, result)
	countHolidays(holidays, byDate, working, result)

	counts, err := json.Marshal(categoryCounts)
	if err != nil {
		return nil, fmt.Errorf("metrics: encode category counts: %w", err)
	}
	result.CategoryCounts = string(counts)

	result.Score, result.Explanation = score(result, expanded, working, byDate, filters, weights, categories)
	return result, nil
}

// countWeekends tallies worked Saturdays and Sundays, and the number of
// distinct calendar weekends touched. A weekend is identified by its
// Saturday date; a weekend counts as "on" if either of its days is
// worked.
func countWeekends(expanded []cycle.ExpandedDay, working []bool, result *models.MetricsResult) {
	weekendsOn := make(map[string]bool)
	for i, day := range expanded {
		if !working[i] {
			continue
		}
		switch day.Date.Weekday() {
		case time.Saturday:
			result.SaturdaysOn++
			weekendsOn[day.Date.Format(dateLayout)] = true
		case time.Sunday:
			result.SundaysOn++
			weekendsOn[day.Date.AddDate(0, 0, -1).Format(dateLayout)] = true
		}
	}
	result.WeekendsOn = len(weekendsOn)
}

// countBlocks scans the working flags in absolute-day order for maximal
// runs. The scan covers the full expanded sequence, so a run crossing a
// cycle boundary is one block, not two.
func countBlocks(working []bool, result *models.MetricsResult) {
	run := 0
	offRun := 0

	closeRun := func() {
		if run == 0 {
			return
		}
		if run > result.LongestStretch {
			result.LongestStretch = run
		}
		switch {
		case run >= 7:
			result.Blocks7DayPlus++
		case run == 6:
			result.Blocks6Day++
		case run == 5:
			result.Blocks5Day++
		case run == 4:
			result.Blocks4Day++
		case run == 3:
			result.Blocks3Day++
		case run == 2:
			result.Blocks2Day++
		}
		run = 0
	}
	closeOffRun := func() {
		if offRun == 0 {
			return
		}
		if offRun > result.LongestOffStretch {
			result.LongestOffStretch = offRun
		}
		if result.ShortestOffStretch == 0 || offRun < result.ShortestOffStretch {
			result.ShortestOffStretch = offRun
		}
		offRun = 0
	}

	for _, w := range working {
		if w {
			closeOffRun()
			run++
		} else {
			closeRun()
			offRun++
		}
	}
	closeRun()
	closeOffRun()
}

// countHolidays checks each holiday date against the expanded range.
// Dates outside the range are silently ignored.
func countHolidays(holidays []models.Holiday, byDate map[string]int, working []bool, result *models.MetricsResult) {
	for _, h := range holidays {
		i, ok := byDate[h.Date.Format(dateLayout)]
		if !ok {
			continue
		}
		if working[i] {
			result.HolidaysWorking++
		} else {
			result.HolidaysOff++
		}
	}
}

// scoreTerm is one weighted contribution to the score.
type scoreTerm struct {
	label  string
	count  int
	weight float64
}

// score combines the counted metrics with the caller's weights and
// selection filters into a single number plus a human-readable
// explanation of which terms contributed.
func score(result *models.MetricsResult, expanded []cycle.ExpandedDay, working []bool,
	byDate map[string]int, filters SelectionFilters, weights Weights, categories []CategoryBoundary) (float64, string) {

	terms := []scoreTerm{
		{"weekends on", result.WeekendsOn, weights.Weekend},
		{"saturdays on", result.SaturdaysOn, weights.Saturday},
		{"sundays on", result.SundaysOn, weights.Sunday},
		{"2-day blocks", result.Blocks2Day, weights.Blocks2Day},
		{"3-day blocks", result.Blocks3Day, weights.Blocks3Day},
		{"4-day blocks", result.Blocks4Day, weights.Blocks4Day},
		{"5-day blocks", result.Blocks5Day, weights.Blocks5Day},
		{"6-day blocks", result.Blocks6Day, weights.Blocks6Day},
		{"7-day-plus blocks", result.Blocks7DayPlus, weights.Blocks7DayPlus},
		{"longest stretch", result.LongestStretch, weights.LongestStretch},
		{"holidays working", result.HolidaysWorking, weights.HolidayWorking},
		{"holidays off", result.HolidaysOff, weights.HolidayOff},
		{"matched days off", matchedDaysOff(filters, byDate, working), weights.DayOffMatch},
		{"matched shifts", matchedShifts(filters, expanded, working, categories), weights.ShiftMatch},
	}

	total := 0.0
	var parts []string
	for _, term := range terms {
		if term.count == 0 || term.weight == 0 {
			continue
		}
		contribution := float64(term.count) * term.weight
		total += contribution
		parts = append(parts, fmt.Sprintf("%s: %d × %g = %g", term.label, term.count, term.weight, contribution))
	}

	if len(parts) == 0 {
		return 0, "no weighted terms contributed"
	}
	return total, strings.Join(parts, "; ")
}

// matchedDaysOff counts selected day-off dates that the schedule
// actually has off. Unparseable or out-of-range dates are ignored.
func matchedDaysOff(filters SelectionFilters, byDate map[string]int, working []bool) int {
	matched := 0
	for _, raw := range filters.DaysOff {
		d, err := time.Parse(dateLayout, raw)
		if err != nil {
			continue
		}
		if i, ok := byDate[d.Format(dateLayout)]; ok && !working[i] {
			matched++
		}
	}
	return matched
}

// matchedShifts counts working days whose shift satisfies every
// non-empty selector. Returns 0 when no selector is set.
func matchedShifts(filters SelectionFilters, expanded []cycle.ExpandedDay, working []bool, categories []CategoryBoundary) int {
	if len(filters.Codes) == 0 && len(filters.Categories) == 0 && len(filters.HourLengths) == 0 {
		return 0
	}

	matched := 0
	for i, day := range expanded {
		if !working[i] || day.Entry.ShiftCode == nil {
			continue
		}
		code := day.Entry.ShiftCode
		if len(filters.Codes) > 0 && !containsString(filters.Codes, code.Code) {
			continue
		}
		if len(filters.Categories) > 0 && !containsString(filters.Categories, Categorize(code.BeginTime, categories)) {
			continue
		}
		if len(filters.HourLengths) > 0 && !containsFloat(filters.HourLengths, code.HoursLength) {
			continue
		}
		matched++
	}
	return matched
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func containsFloat(list []float64, f float64) bool {
	for _, v := range list {
		if v == f {
			return true
		}
	}
	return false
}
