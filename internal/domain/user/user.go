// Package user defines the account entity as seen by the traffic engine.
package user

import "time"

// User is the engine-facing view of a panel account. Accounts are created
// and mutated by the surrounding panel; the engine only reads them and, when
// a reset is due, zeroes the counters and refreshes the allowance.
type User struct {
	ID    uint
	Email string

	// PlanID references the account's plan. Nil means no active plan; such
	// accounts have no quota source and are excluded from resets.
	PlanID *uint

	// ExpiredAt is the paid-through instant and the anchor date for
	// anniversary-based reset cycles. Nil means the account never expires
	// and is excluded from reset consideration entirely.
	ExpiredAt *time.Time

	// Upload and Download are the accumulated usage counters in bytes.
	Upload   uint64
	Download uint64

	// TransferEnable is the current allowance in bytes, nil if not yet
	// provisioned.
	TransferEnable *uint64

	// SpeedLimit is a bandwidth cap in Mbps, nil when unlimited.
	SpeedLimit *uint
}

// IsResetCandidate reports whether the account is eligible for reset
// evaluation at now: it must have a plan and a present, future expiry.
// Already-expired accounts are frozen, not reset.
func (u *User) IsResetCandidate(now time.Time) bool {
	return u.PlanID != nil && u.ExpiredAt != nil && u.ExpiredAt.After(now)
}
