package utils

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// SnapshotLayout is the timestamp layout encoded in snapshot file names.
const SnapshotLayout = "20060102150405"

// DateLayout is the calendar date layout used in price tables and output.
const DateLayout = "2006-01-02"

// ErrBadSnapshotName is returned for files whose name is not a
// fourteen-digit timestamp followed by the expected extension.
var ErrBadSnapshotName = errors.New("snapshot name is not YYYYMMDDHHMMSS")

// ErrBadDate is returned when a price-table date cannot be parsed.
var ErrBadDate = errors.New("unrecognized date")

// Accepted price-table date layouts, tried in order.
var dateLayouts = []string{
	DateLayout,
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"01/02/2006",
}

// ParseSnapshotName parses a snapshot file name such as "20100104093000.html"
// as a wall-clock time in loc.
func ParseSnapshotName(name, ext string, loc *time.Location) (time.Time, error) {
	stem, ok := strings.CutSuffix(name, ext)
	if !ok || len(stem) != len(SnapshotLayout) || !isDigits(stem) {
		return time.Time{}, fmt.Errorf("%q: %w", name, ErrBadSnapshotName)
	}
	t, err := time.ParseInLocation(SnapshotLayout, stem, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q: %w", name, ErrBadSnapshotName)
	}
	return t, nil
}

// DateOf truncates t to its calendar date, expressed as midnight UTC.
// The wall-clock fields of t are used as-is; convert with In first.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// CalendarDate returns the calendar date of t as observed in loc.
func CalendarDate(t time.Time, loc *time.Location) time.Time {
	return DateOf(t.In(loc))
}

// DaysBetween returns the whole number of days from a to b. Both must be
// values returned by DateOf.
func DaysBetween(a, b time.Time) int {
	return int(b.Sub(a) / (24 * time.Hour))
}

// ParseDate parses a price-table date cell into a calendar date.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("%q: %w", s, ErrBadDate)
}

// FormatDate formats a calendar date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// LoadLocation resolves a configured timezone name. Empty and "Local" mean
// the process local zone.
func LoadLocation(name string) (*time.Location, error) {
	switch name {
	case "", "Local":
		return time.Local, nil
	case "UTC":
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", name, err)
	}
	return loc, nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
