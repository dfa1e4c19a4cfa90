package helpers

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// ParseDuration parses a duration string, returns default duration on error.
func ParseDuration(durationStr string, defaultDuration time.Duration) time.Duration {
	duration, err := time.ParseDuration(durationStr)
	if err != nil {
		log.Warn().Err(err).Str("durationStr", durationStr).Dur("defaultDuration", defaultDuration).Msg("Failed to parse duration string, using default")
		return defaultDuration
	}
	return duration
}

// Clock strings are the canonical time-of-day representation across the
// schedule tables ("HH:MM:SS"); occurrence matching is exact equality on
// them, so they are normalized once at the edges and compared as strings
// everywhere else.

// ParseClock parses a clock string ("15:04:05" or "15:04") into an offset
// from midnight.
func ParseClock(s string) (time.Duration, error) {
	t, err := time.Parse("15:04:05", s)
	if err != nil {
		t, err = time.Parse("15:04", s)
		if err != nil {
			return 0, fmt.Errorf("invalid time of day %q: expected HH:MM:SS", s)
		}
	}
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second, nil
}

// NormalizeClock validates a clock string and returns it in canonical
// HH:MM:SS form.
func NormalizeClock(s string) (string, error) {
	d, err := ParseClock(s)
	if err != nil {
		return "", err
	}
	return FormatClock(d), nil
}

// FormatClock renders an offset from midnight as HH:MM:SS.
func FormatClock(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// ClockOf extracts the HH:MM:SS clock string from a timestamp.
func ClockOf(t time.Time) string {
	return t.Format("15:04:05")
}

// ClockOfAsOffset extracts the time-of-day of a timestamp as an offset
// from midnight.
func ClockOfAsOffset(t time.Time) time.Duration {
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second
}

// DateOnly truncates a timestamp to its calendar date (midnight UTC).
// All DATE columns round-trip through this form.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SameDate reports whether two timestamps fall on the same calendar date.
func SameDate(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// ParseDate parses a YYYY-MM-DD date string.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return t, nil
}

// FormatDate renders a date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// ISOWeekday returns the ISO-8601 day of week (1 = Monday .. 7 = Sunday),
// the numbering the class slot table uses.
func ISOWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}
