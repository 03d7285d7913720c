package timeparse

import (
	"fmt"
	"strconv"
	"strings"
)

// Clock is a time of day in minutes since midnight.
type Clock int

// NewClock builds a Clock from an hour and minute.
func NewClock(hour, minute int) Clock {
	return Clock(hour*60 + minute)
}

// ParseClock reads a 24-hour "H:MM" value such as "8:05" or "17:30".
func ParseClock(value string) (Clock, bool) {
	value = strings.TrimSpace(value)
	hourPart, minutePart, found := strings.Cut(value, ":")
	if !found || len(hourPart) < 1 || len(hourPart) > 2 || len(minutePart) != 2 {
		return 0, false
	}
	hour, err := strconv.Atoi(hourPart)
	if err != nil || hour < 0 || hour > 23 {
		return 0, false
	}
	minute, err := strconv.Atoi(minutePart)
	if err != nil || minute < 0 || minute > 59 {
		return 0, false
	}
	return NewClock(hour, minute), true
}

// Sub returns c minus other in minutes.
func (c Clock) Sub(other Clock) int {
	return int(c) - int(other)
}

func (c Clock) Hour() int   { return int(c) / 60 }
func (c Clock) Minute() int { return int(c) % 60 }

func (c Clock) String() string {
	return fmt.Sprintf("%d:%02d", c.Hour(), c.Minute())
}
