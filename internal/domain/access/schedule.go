package access

import (
	"fmt"
	"slices"
	"time"
)

// Schedule is a recurring weekly window in branch wall-clock time.
// StartMinute and EndMinute count minutes since midnight; both ends are
// inclusive. Windows never wrap past midnight.
type Schedule struct {
	StartMinute int
	EndMinute   int
	Weekdays    []time.Weekday
}

// NewSchedule parses "HH:MM" bounds.
func NewSchedule(start, end string, weekdays []time.Weekday) (*Schedule, error) {
	s, err := ParseClock(start)
	if err != nil {
		return nil, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return nil, err
	}
	if e < s {
		return nil, fmt.Errorf("schedule end %s is before start %s", end, start)
	}
	if len(weekdays) == 0 {
		return nil, fmt.Errorf("schedule needs at least one weekday")
	}
	return &Schedule{StartMinute: s, EndMinute: e, Weekdays: weekdays}, nil
}

// Allows reports whether the wall-clock time t falls inside the window.
// t is read as-is; no timezone conversion is applied.
func (s *Schedule) Allows(t time.Time) bool {
	if s == nil {
		return false
	}
	if !slices.Contains(s.Weekdays, t.Weekday()) {
		return false
	}
	m := t.Hour()*60 + t.Minute()
	return m >= s.StartMinute && m <= s.EndMinute
}

// ParseClock converts "HH:MM" to minutes since midnight.
func ParseClock(v string) (int, error) {
	t, err := time.Parse("15:04", v)
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q: %w", v, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// FormatClock is the inverse of ParseClock.
func FormatClock(minute int) string {
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}
