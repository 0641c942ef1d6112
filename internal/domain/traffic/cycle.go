package traffic

import "time"

// expireDaySafetyWindow suppresses expire-day resets once the account is
// within 25 days of lapsing (2,160,000 seconds). Fixed design value, not
// configurable.
const expireDaySafetyWindow = 25 * 24 * time.Hour

// IsResetDue reports whether an account whose expiry anchor is anchor should
// have its traffic reset at now, under policy p.
//
// Pure and total: an unrecognized policy code is never due. Calendar
// comparisons use the wall-clock fields of the supplied times, so callers
// must pass both times in the business timezone.
func IsResetDue(p ResetPolicy, anchor, now time.Time) bool {
	switch p {
	case PolicyMonthFirstDay:
		return IsFirstOfMonth(now)
	case PolicyExpireDay:
		return dueOnExpireDay(anchor, now)
	case PolicyNever:
		return false
	case PolicyYearFirstDay:
		return IsJanuaryFirst(now)
	case PolicyExpireYear:
		return SameMonthDay(now, anchor)
	case PolicyQuarterCycle:
		return dueOnCycle(anchor, now, 3, 4)
	case PolicyHalfYearCycle:
		return dueOnCycle(anchor, now, 6, 2)
	default:
		return false
	}
}

// dueOnExpireDay matches the anchor's day-of-month, treating anchor days
// beyond the current month's length as its last day. Resets stop inside the
// safety window so an account is not refreshed right before it lapses.
func dueOnExpireDay(anchor, now time.Time) bool {
	lastDay := DaysInMonth(now)
	today := now.Day()
	expireDay := anchor.Day()

	dayMatches := expireDay == today || (today == lastDay && expireDay >= lastDay)
	if !dayMatches {
		return false
	}
	return now.Before(anchor.Add(-expireDaySafetyWindow))
}

// dueOnCycle matches months stepMonths apart walking back from the anchor
// month, wrapping across year boundaries. The day comparison is exact: an
// anchor day of 31 never fires in a shorter month.
func dueOnCycle(anchor, now time.Time, stepMonths, cycles int) bool {
	if now.Day() != anchor.Day() {
		return false
	}

	anchorMonth := int(anchor.Month())
	nowMonth := int(now.Month())
	for i := 0; i < cycles; i++ {
		if nowMonth == WrapMonth(anchorMonth, i*stepMonths) {
			return true
		}
	}
	return false
}
