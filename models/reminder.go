package models

import (
	"fmt"
	"strings"
	"time"
)

// ReminderPreference is a user's digest cadence. A user holds at most one;
// setting a new one replaces the prior row by user ID.
type ReminderPreference struct {
	UserID    string
	Weekday   time.Weekday
	Hour      int
	Minute    int
	ItemCount int
	UpdatedAt time.Time
}

var weekdaysByName = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseWeekday maps a weekday name like "monday" to its time.Weekday.
// Matching is case-insensitive and ignores surrounding whitespace.
func ParseWeekday(name string) (time.Weekday, error) {
	wd, ok := weekdaysByName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("unrecognized weekday %q", name)
	}
	return wd, nil
}

// WeekdayName returns the lowercase English weekday name used on the wire.
func WeekdayName(wd time.Weekday) string {
	return strings.ToLower(wd.String())
}

// ParseTimeOfDay parses a wall-clock time into hour and minute components.
func ParseTimeOfDay(value string) (hour, minute int, err error) {
	// Try HH:MM first
	t, err := time.Parse("15:04", value)
	if err == nil {
		return t.Hour(), t.Minute(), nil
	}

	// Tolerate HH:MM:SS from clients that send seconds
	t, err = time.Parse("15:04:05", value)
	if err == nil {
		return t.Hour(), t.Minute(), nil
	}

	return 0, 0, fmt.Errorf("failed to parse time of day %q", value)
}
