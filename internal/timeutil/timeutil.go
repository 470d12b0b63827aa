package timeutil

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

const defaultBusinessTimezone = "Asia/Seoul"

var (
	locOnce     sync.Once
	businessLoc *time.Location
)

// BusinessLocation returns the business timezone, loaded once from
// BUSINESS_TIMEZONE. An unresolvable name falls back to UTC.
func BusinessLocation() *time.Location {
	locOnce.Do(func() {
		name := os.Getenv("BUSINESS_TIMEZONE")
		if name == "" {
			name = defaultBusinessTimezone
		}
		loc, err := time.LoadLocation(name)
		if err != nil {
			log.Printf("Invalid BUSINESS_TIMEZONE %q, falling back to UTC: %v", name, err)
			loc = time.UTC
		}
		businessLoc = loc
	})
	return businessLoc
}

// EnsureUTC coerces an instant into UTC. Idempotent: an already-UTC instant
// is returned unchanged and the absolute moment never shifts.
func EnsureUTC(t time.Time) time.Time {
	return t.UTC()
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return d, nil
}

// ParseClock parses an HH:MM wall-clock value. "24:00" is accepted and maps
// to 00:00; the midnight rollover rule in the service layer decides which
// calendar day that lands on.
func ParseClock(s string) (hour, minute int, err error) {
	s = strings.TrimSpace(s)
	if s == "24:00" {
		return 0, 0, nil
	}
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid time %q: %w", s, err)
	}
	return t.Hour(), t.Minute(), nil
}

// Combine returns the instant at the given wall clock on date's calendar day
// in loc, expressed in UTC.
func Combine(date time.Time, hour, minute int, loc *time.Location) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, loc).UTC()
}

// DayBoundsUTC returns the [start, end) UTC bounds of one calendar day in
// loc: local midnight inclusive to the next local midnight exclusive. The
// window straddles the zone's UTC offset rather than boxing a UTC day.
func DayBoundsUTC(date time.Time, loc *time.Location) (time.Time, time.Time) {
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1)
	return start.UTC(), end.UTC()
}
