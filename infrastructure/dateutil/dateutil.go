// Package dateutil converts between calendar dates and the string forms used
// in query strings, file names and on screen.
package dateutil

import (
	"strings"
	"time"
)

const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04:05"
	TimeLayout     = "15:04:05"
	StampLayout    = "20060102_150405"
)

// FormatDate renders t as YYYY-MM-DD. The zero time renders as "".
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

// FormatDateTime renders t as YYYY-MM-DD HH:MM:SS. The zero time renders as "".
func FormatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateTimeLayout)
}

// FormatTime renders the clock part of t.
func FormatTime(t time.Time) string {
	return t.Format(TimeLayout)
}

// ParseDate parses YYYY-MM-DD as midnight in loc. Blank input yields the zero time.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(DateLayout, s, loc)
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Today returns the calendar date of now.
func Today(now time.Time) time.Time {
	return StartOfDay(now)
}

// Yesterday returns the calendar date before now.
func Yesterday(now time.Time) time.Time {
	return StartOfDay(now).AddDate(0, 0, -1)
}

// OneWeekAgo returns the calendar date seven days before now.
func OneWeekAgo(now time.Time) time.Time {
	return StartOfDay(now).AddDate(0, 0, -7)
}

// OneMonthAgo returns the calendar date one month before now.
func OneMonthAgo(now time.Time) time.Time {
	return StartOfDay(now).AddDate(0, -1, 0)
}

// Range is an inclusive pair of calendar dates.
type Range struct {
	Start time.Time
	End   time.Time
}

// Preset names accepted by RangeFor.
const (
	PresetToday     = "today"
	PresetYesterday = "yesterday"
	PresetLastWeek  = "week"
	PresetLastMonth = "month"
)

// RangeFor resolves a quick-pick preset relative to now.
func RangeFor(preset string, now time.Time) (Range, bool) {
	switch strings.ToLower(strings.TrimSpace(preset)) {
	case PresetToday:
		return Range{Start: Today(now), End: Today(now)}, true
	case PresetYesterday:
		return Range{Start: Yesterday(now), End: Yesterday(now)}, true
	case PresetLastWeek:
		return Range{Start: OneWeekAgo(now), End: Today(now)}, true
	case PresetLastMonth:
		return Range{Start: OneMonthAgo(now), End: Today(now)}, true
	}
	return Range{}, false
}
