// Package timeparse turns attendance-sheet date and clock strings into values
// the payroll engine can compare. Parsing never panics; callers get a bool.
package timeparse

import (
	"strconv"
	"strings"
	"time"
)

// DateStrategy is one attempt at reading a date string.
type DateStrategy struct {
	Name  string
	Parse func(string) (time.Time, bool)
}

var dateStrategies = []DateStrategy{
	layoutStrategy("MM/DD/YYYY", "01/02/2006"),
	layoutStrategy("M/D/YYYY", "1/2/2006"),
	layoutStrategy("M/DD/YYYY", "1/02/2006"),
	layoutStrategy("MM/D/YYYY", "01/2/2006"),
	{Name: "positional", Parse: parsePositional},
}

// DateStrategies returns the strategies ParseDate tries, in order.
func DateStrategies() []DateStrategy {
	out := make([]DateStrategy, len(dateStrategies))
	copy(out, dateStrategies)
	return out
}

// ParseDate reads a month/day/year date. The first strategy that succeeds
// wins; the result is midnight UTC.
func ParseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, strategy := range dateStrategies {
		if parsed, ok := strategy.Parse(value); ok {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// DateOnly drops the clock part of t and moves it to UTC.
func DateOnly(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func layoutStrategy(name, layout string) DateStrategy {
	return DateStrategy{
		Name: name,
		Parse: func(value string) (time.Time, bool) {
			parsed, err := time.Parse(layout, value)
			if err != nil {
				return time.Time{}, false
			}
			return parsed, true
		},
	}
}

func parsePositional(value string) (time.Time, bool) {
	parts := strings.Split(value, "/")
	if len(parts) != 3 {
		return time.Time{}, false
	}
	nums := make([]int, 3)
	for i, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return time.Time{}, false
		}
		nums[i] = n
	}
	month, day, year := nums[0], nums[1], nums[2]
	if month < 1 || month > 12 || day < 1 || year < 1 {
		return time.Time{}, false
	}
	parsed := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalises overflow, so 2/30 would silently become 3/1.
	if parsed.Day() != day || int(parsed.Month()) != month {
		return time.Time{}, false
	}
	return parsed, true
}
