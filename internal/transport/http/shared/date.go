package shared

import (
	"fmt"
	"time"

	"paycalc/internal/timeparse"
)

// ParseDate accepts RFC3339, YYYY-MM-DD or the month/day/year forms used in
// attendance sheets. An empty value yields the zero time.
func ParseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return timeparse.DateOnly(parsed), nil
	}
	if parsed, err := time.Parse("2006-01-02", value); err == nil {
		return parsed, nil
	}
	if parsed, ok := timeparse.ParseDate(value); ok {
		return parsed, nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q", value)
}
