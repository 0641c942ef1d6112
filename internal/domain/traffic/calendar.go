package traffic

import "time"

// IsFirstOfMonth reports whether t falls on the 1st day of its month.
func IsFirstOfMonth(t time.Time) bool {
	return t.Day() == 1
}

// IsJanuaryFirst reports whether t is January 1st.
func IsJanuaryFirst(t time.Time) bool {
	return t.Month() == time.January && t.Day() == 1
}

// DaysInMonth returns the number of days in t's month.
func DaysInMonth(t time.Time) int {
	// Day 0 of the next month normalizes to the last day of this month.
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}

// SameMonthDay reports whether a and b share the same month and day.
func SameMonthDay(a, b time.Time) bool {
	return a.Month() == b.Month() && a.Day() == b.Day()
}

// WrapMonth subtracts offset from a 1-12 month number, wrapping into the
// previous year by adding 12 when the result drops to zero or below.
func WrapMonth(month, offset int) int {
	m := month - offset
	if m <= 0 {
		m += 12
	}
	return m
}
