// Package traffic contains the billing-cycle policy model and the pure
// decision logic for periodic traffic resets.
package traffic

import "fmt"

// ResetPolicy is the closed enumeration of billing-cycle reset rules. The
// numeric values are stored on plans and must stay stable.
type ResetPolicy int

const (
	// PolicyMonthFirstDay resets on the 1st calendar day of every month.
	PolicyMonthFirstDay ResetPolicy = 0
	// PolicyExpireDay resets on the day-of-month anniversary of the
	// account's expiry date, clamped to short months, but only while more
	// than 25 days remain before expiry.
	PolicyExpireDay ResetPolicy = 1
	// PolicyNever disables periodic resets.
	PolicyNever ResetPolicy = 2
	// PolicyYearFirstDay resets on January 1st only.
	PolicyYearFirstDay ResetPolicy = 3
	// PolicyExpireYear resets on the annual month/day anniversary of the
	// account's expiry date.
	PolicyExpireYear ResetPolicy = 4
	// PolicyQuarterCycle resets every 3 calendar months from the expiry
	// anchor month, matching the anchor day-of-month exactly.
	PolicyQuarterCycle ResetPolicy = 5
	// PolicyHalfYearCycle resets every 6 calendar months from the expiry
	// anchor month, matching the anchor day-of-month exactly.
	PolicyHalfYearCycle ResetPolicy = 6
)

// Valid reports whether p is a recognized policy code.
func (p ResetPolicy) Valid() bool {
	return p >= PolicyMonthFirstDay && p <= PolicyHalfYearCycle
}

func (p ResetPolicy) String() string {
	switch p {
	case PolicyMonthFirstDay:
		return "month_first_day"
	case PolicyExpireDay:
		return "expire_day"
	case PolicyNever:
		return "never"
	case PolicyYearFirstDay:
		return "year_first_day"
	case PolicyExpireYear:
		return "expire_year"
	case PolicyQuarterCycle:
		return "quarter_cycle"
	case PolicyHalfYearCycle:
		return "half_year_cycle"
	default:
		return fmt.Sprintf("unknown(%d)", int(p))
	}
}

// ParsePolicy converts a stored integer into a ResetPolicy.
func ParsePolicy(v int) (ResetPolicy, error) {
	p := ResetPolicy(v)
	if !p.Valid() {
		return 0, fmt.Errorf("invalid reset policy %d", v)
	}
	return p, nil
}

// EffectivePolicy resolves the policy applied to a plan: the plan's own
// policy when declared, else the process-wide default. Accounts without a
// plan never reach this resolution; the executor excludes them entirely
// because they have no quota source.
func EffectivePolicy(planPolicy *ResetPolicy, globalDefault ResetPolicy) ResetPolicy {
	if planPolicy != nil {
		return *planPolicy
	}
	return globalDefault
}
