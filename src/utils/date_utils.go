package utils

import (
	"fmt"
	"strings"
	"time"
)

const (
	// GermanDateFormat is used by ZERO Kontoumsätze exports (DD.MM.YYYY).
	GermanDateFormat = "02.01.2006"
	// DashDateFormat is used by DEGIRO account exports (DD-MM-YYYY).
	DashDateFormat = "02-01-2006"
	// ISODateFormat is the write format for dates in reports.
	ISODateFormat = "2006-01-02"
)

// ParseCalendarDate parses a date string with the given layout into a calendar
// date (midnight UTC). The engine never needs time-of-day granularity.
func ParseCalendarDate(value, layout string) (time.Time, error) {
	t, err := time.Parse(layout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", value, err)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// DaysBetween returns the whole days from a to b (b after a yields a positive
// count). Both are assumed to be calendar dates at midnight UTC.
func DaysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
