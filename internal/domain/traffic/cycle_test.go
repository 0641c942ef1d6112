package traffic

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func TestIsResetDue_MonthFirstDay(t *testing.T) {
	anchor := date(2026, time.March, 15)

	for day := 1; day <= 31; day++ {
		now := date(2026, time.January, day)
		assert.Equal(t, day == 1, IsResetDue(PolicyMonthFirstDay, anchor, now),
			"day %d", day)
	}

	// Anchor is irrelevant for the monthly policy.
	assert.True(t, IsResetDue(PolicyMonthFirstDay, time.Time{}, date(2026, time.June, 1)))
}

func TestIsResetDue_Never(t *testing.T) {
	anchor := date(2026, time.January, 1)
	for month := time.January; month <= time.December; month++ {
		for day := 1; day <= 28; day++ {
			assert.False(t, IsResetDue(PolicyNever, anchor, date(2026, month, day)))
		}
	}
}

func TestIsResetDue_ExpireDay(t *testing.T) {
	tests := []struct {
		name   string
		anchor time.Time
		now    time.Time
		due    bool
	}{
		{
			name:   "anniversary day with plenty of time left",
			anchor: date(2026, time.December, 15),
			now:    date(2026, time.March, 15),
			due:    true,
		},
		{
			name:   "non-anniversary day",
			anchor: date(2026, time.December, 15),
			now:    date(2026, time.March, 14),
			due:    false,
		},
		{
			name:   "anchor day 31 clamps to the 30th in a 30-day month",
			anchor: date(2026, time.December, 31),
			now:    date(2026, time.April, 30),
			due:    true,
		},
		{
			name:   "anchor day 31 clamps to Feb 28 in a non-leap year",
			anchor: date(2026, time.December, 31),
			now:    date(2026, time.February, 28),
			due:    true,
		},
		{
			name:   "anchor day 31 clamps to Feb 29 in a leap year",
			anchor: date(2028, time.December, 31),
			now:    date(2028, time.February, 29),
			due:    true,
		},
		{
			name:   "no clamped trigger before the last day of a short month",
			anchor: date(2026, time.December, 31),
			now:    date(2026, time.April, 29),
			due:    false,
		},
		{
			// The anniversary day matches but the account lapses later
			// today, well inside the 25-day window.
			name:   "suppressed when expiry is imminent",
			anchor: time.Date(2026, time.April, 10, 18, 0, 0, 0, time.UTC),
			now:    time.Date(2026, time.April, 10, 6, 0, 0, 0, time.UTC),
			due:    false,
		},
		{
			// One month out: the shortest possible same-day distance
			// (28 days) still clears the 25-day window.
			name:   "due one month before expiry",
			anchor: date(2026, time.March, 1),
			now:    date(2026, time.February, 1),
			due:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.due, IsResetDue(PolicyExpireDay, tt.anchor, tt.now))
		})
	}
}

func TestIsResetDue_YearFirstDay(t *testing.T) {
	anchor := date(2026, time.August, 20)

	assert.True(t, IsResetDue(PolicyYearFirstDay, anchor, date(2026, time.January, 1)))
	assert.False(t, IsResetDue(PolicyYearFirstDay, anchor, date(2026, time.January, 2)))
	assert.False(t, IsResetDue(PolicyYearFirstDay, anchor, date(2026, time.February, 1)))
	// Anchor month/day never matters for the fixed yearly policy.
	assert.True(t, IsResetDue(PolicyYearFirstDay, date(2026, time.June, 6), date(2027, time.January, 1)))
}

func TestIsResetDue_ExpireYear(t *testing.T) {
	anchor := date(2027, time.September, 23)

	assert.True(t, IsResetDue(PolicyExpireYear, anchor, date(2026, time.September, 23)))
	assert.False(t, IsResetDue(PolicyExpireYear, anchor, date(2026, time.September, 22)))
	assert.False(t, IsResetDue(PolicyExpireYear, anchor, date(2026, time.October, 23)))
}

func TestIsResetDue_QuarterCycle(t *testing.T) {
	dueMonths := func(anchor time.Time) []time.Month {
		var months []time.Month
		for m := time.January; m <= time.December; m++ {
			if IsResetDue(PolicyQuarterCycle, anchor, date(2026, m, anchor.Day())) {
				months = append(months, m)
			}
		}
		return months
	}

	assert.Equal(t,
		[]time.Month{time.January, time.April, time.July, time.October},
		dueMonths(date(2027, time.January, 10)))

	// Wrap-around: anchor month 11 walks back to 8, 5, 2.
	assert.Equal(t,
		[]time.Month{time.February, time.May, time.August, time.November},
		dueMonths(date(2026, time.November, 10)))

	// Wrong day of month never fires.
	assert.False(t, IsResetDue(PolicyQuarterCycle,
		date(2027, time.January, 10), date(2026, time.April, 11)))
}

func TestIsResetDue_HalfYearCycle(t *testing.T) {
	anchor := date(2026, time.March, 5)

	assert.True(t, IsResetDue(PolicyHalfYearCycle, anchor, date(2026, time.March, 5)))
	assert.True(t, IsResetDue(PolicyHalfYearCycle, anchor, date(2026, time.September, 5)))
	assert.False(t, IsResetDue(PolicyHalfYearCycle, anchor, date(2026, time.June, 5)))
	assert.False(t, IsResetDue(PolicyHalfYearCycle, anchor, date(2026, time.December, 5)))

	// Wrap-around: anchor month 2 reaches month 8.
	wrapped := date(2026, time.February, 5)
	assert.True(t, IsResetDue(PolicyHalfYearCycle, wrapped, date(2026, time.August, 5)))
}

func TestIsResetDue_CycleDayMatchIsExact(t *testing.T) {
	// Anchor day 31 never matches a 30-day month under the cyclic policies;
	// unlike PolicyExpireDay there is no clamping here.
	anchor := date(2026, time.January, 31)
	assert.False(t, IsResetDue(PolicyQuarterCycle, anchor, date(2026, time.April, 30)))
	assert.True(t, IsResetDue(PolicyQuarterCycle, anchor, date(2026, time.July, 31)))
}

func TestIsResetDue_UnknownPolicyNeverDue(t *testing.T) {
	anchor := date(2026, time.January, 1)
	assert.False(t, IsResetDue(ResetPolicy(7), anchor, date(2026, time.January, 1)))
	assert.False(t, IsResetDue(ResetPolicy(-1), anchor, date(2026, time.January, 1)))
}
