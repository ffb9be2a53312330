package metrics

import (
	"fmt"
	"strconv"
	"strings"
)

// CategoryBoundary assigns shift begin times to a named bucket over the
// half-open interval [Start, End). Half-open intervals mean a begin
// time can never land in two buckets; the bucket table comes from
// configuration, not code.
type CategoryBoundary struct {
	Name  string `yaml:"name"`
	Start string `yaml:"start"` // HH:MM inclusive
	End   string `yaml:"end"`   // HH:MM exclusive; End <= Start wraps midnight
}

// Uncategorized is returned when no configured bucket covers a time.
const Uncategorized = "Uncategorized"

// parseMinutes converts HH:MM to minutes since midnight.
func parseMinutes(hhmm string) (int, error) {
	parts := strings.SplitN(hhmm, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("metrics: bad time %q", hhmm)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("metrics: bad hour in %q", hhmm)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("metrics: bad minute in %q", hhmm)
	}
	return h*60 + m, nil
}

// Categorize buckets a shift begin time using the configured boundary
// table. The first matching bucket wins; Uncategorized if none match
// or the time is unparseable.
func Categorize(beginTime string, boundaries []CategoryBoundary) string {
	t, err := parseMinutes(beginTime)
	if err != nil {
		return Uncategorized
	}
	for _, b := range boundaries {
		start, err := parseMinutes(b.Start)
		if err != nil {
			continue
		}
		end, err := parseMinutes(b.End)
		if err != nil {
			continue
		}
		if start < end {
			if t >= start && t < end {
				return b.Name
			}
		} else {
			// Wraps midnight, e.g. 22:00-04:00.
			if t >= start || t < end {
				return b.Name
			}
		}
	}
	return Uncategorized
}
