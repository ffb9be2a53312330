// Package metrics derives pattern statistics from an expanded schedule:
// weekend exposure, consecutive-day blocks, holiday overlap, and a
// weighted preference score. Compute is a pure function; all inputs are
// pre-fetched by the caller.
package metrics

// Weights are the caller-supplied coefficients for the preference
// score. A zero value scores everything 0.
type Weights struct {
	Weekend        float64 `yaml:"weekend" json:"weekend"`
	Saturday       float64 `yaml:"saturday" json:"saturday"`
	Sunday         float64 `yaml:"sunday" json:"sunday"`
	Blocks2Day     float64 `yaml:"blocks_2day" json:"blocks2day"`
	Blocks3Day     float64 `yaml:"blocks_3day" json:"blocks3day"`
	Blocks4Day     float64 `yaml:"blocks_4day" json:"blocks4day"`
	Blocks5Day     float64 `yaml:"blocks_5day" json:"blocks5day"`
	Blocks6Day     float64 `yaml:"blocks_6day" json:"blocks6day"`
	Blocks7DayPlus float64 `yaml:"blocks_7day_plus" json:"blocks7dayPlus"`
	LongestStretch float64 `yaml:"longest_stretch" json:"longestStretch"`
	HolidayWorking float64 `yaml:"holiday_working" json:"holidayWorking"`
	HolidayOff     float64 `yaml:"holiday_off" json:"holidayOff"`

	// DayOffMatch scores each selected day-off date that the schedule
	// actually has off; ShiftMatch scores each working day whose shift
	// matches the selection filters.
	DayOffMatch float64 `yaml:"day_off_match" json:"dayOffMatch"`
	ShiftMatch  float64 `yaml:"shift_match" json:"shiftMatch"`
}

// SelectionFilters narrow which schedule features a bidder cares about.
// They only influence score weighting; counted metrics are never
// mutated by a filter.
type SelectionFilters struct {
	// DaysOff are absolute dates the bidder wants off, in YYYY-MM-DD.
	DaysOff []string `json:"daysOff"`
	// Codes, Categories, and HourLengths select preferred shifts; a
	// working day matches if it satisfies every non-empty selector.
	Codes       []string  `json:"codes"`
	Categories  []string  `json:"categories"`
	HourLengths []float64 `json:"hourLengths"`
}
