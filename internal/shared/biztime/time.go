// Package biztime provides business-timezone time handling. All storage and
// transport use UTC; the business timezone is used only for calendar
// decisions (day boundaries, day-of-month matching for traffic resets).
package biztime

import (
	"fmt"
	"sync"
	"time"
)

// DefaultTimezone is used when no timezone is configured.
const DefaultTimezone = "Asia/Shanghai"

var (
	bizLocation *time.Location
	bizOnce     sync.Once
	initErr     error
)

// Init sets the business timezone. Call once at startup.
func Init(tz string) error {
	bizOnce.Do(func() {
		if tz == "" {
			tz = DefaultTimezone
		}
		bizLocation, initErr = time.LoadLocation(tz)
	})
	return initErr
}

// MustInit is Init but panics on error.
func MustInit(tz string) {
	if err := Init(tz); err != nil {
		panic(fmt.Sprintf("biztime: failed to initialize timezone %q: %v", tz, err))
	}
}

// Location returns the business timezone, auto-initializing with the default
// if Init was never called.
func Location() *time.Location {
	if bizLocation == nil {
		if err := Init(""); err != nil {
			panic(fmt.Sprintf("biztime: failed to auto-initialize: %v", err))
		}
	}
	return bizLocation
}

// NowUTC returns the current time in UTC.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// Now returns the current time in the business timezone.
func Now() time.Time {
	return time.Now().In(Location())
}

// In converts a time to the business timezone.
func In(t time.Time) time.Time {
	return t.In(Location())
}

// StartOfDayUTC returns midnight of t's business-timezone day, in UTC.
// Used for daily statistics queries against UTC-stored records.
func StartOfDayUTC(t time.Time) time.Time {
	bt := t.In(Location())
	return time.Date(bt.Year(), bt.Month(), bt.Day(), 0, 0, 0, 0, Location()).UTC()
}

// EndOfDayUTC returns the last instant of t's business-timezone day, in UTC.
func EndOfDayUTC(t time.Time) time.Time {
	bt := t.In(Location())
	return time.Date(bt.Year(), bt.Month(), bt.Day(), 23, 59, 59, 999999999, Location()).UTC()
}

// DayKey formats t's business-timezone date as YYYY-MM-DD, used for per-day
// cache keys.
func DayKey(t time.Time) string {
	return t.In(Location()).Format("2006-01-02")
}

// Format formats t in the business timezone.
func Format(t time.Time, layout string) string {
	return t.In(Location()).Format(layout)
}
