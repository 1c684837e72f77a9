// Package biztime separates storage time (always UTC) from the wall-clock
// time of the gym branches. Door schedules are written in branch-local
// wall-clock terms, so schedule checks read Now() rather than NowUTC().
package biztime

import (
	"fmt"
	"sync"
	"time"
)

const DefaultTimezone = "UTC"

var (
	bizLocation *time.Location
	locMu       sync.RWMutex
)

// Init sets the business timezone. An empty name selects DefaultTimezone.
func Init(tz string) error {
	if tz == "" {
		tz = DefaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return fmt.Errorf("load business timezone %q: %w", tz, err)
	}
	locMu.Lock()
	bizLocation = loc
	locMu.Unlock()
	return nil
}

func MustInit(tz string) {
	if err := Init(tz); err != nil {
		panic(err)
	}
}

// Location returns the business timezone, UTC until Init is called.
func Location() *time.Location {
	locMu.RLock()
	defer locMu.RUnlock()
	if bizLocation == nil {
		return time.UTC
	}
	return bizLocation
}

func NowUTC() time.Time {
	return time.Now().UTC()
}

// Now returns the current branch wall-clock time.
func Now() time.Time {
	return time.Now().In(Location())
}

// MinuteOfDay is the wall-clock minute since midnight of t, in t's own zone.
func MinuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// StartOfDay returns midnight of t's calendar day in the business timezone.
func StartOfDay(t time.Time) time.Time {
	b := t.In(Location())
	return time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, Location())
}

// FormatMetadataTime renders timestamps written into sync log details.
func FormatMetadataTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// Clock is injected wherever tests need to pin "now".
type Clock func() time.Time

func (c Clock) Now() time.Time {
	if c == nil {
		return NowUTC()
	}
	return c()
}

// Fixed returns a Clock frozen at t.
func Fixed(t time.Time) Clock {
	return func() time.Time { return t }
}
