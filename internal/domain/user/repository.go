package user

import (
	"context"
	"time"
)

// Repository is the account store contract. Mutating methods are
// transaction-aware: when called under the transaction manager they join the
// active transaction.
type Repository interface {
	// ListActiveByPlanIDs returns accounts whose expiry is present and after
	// now, restricted to the given plans.
	ListActiveByPlanIDs(ctx context.Context, now time.Time, planIDs []uint) ([]*User, error)

	// ListByPlanID returns all accounts on a plan regardless of expiry.
	ListByPlanID(ctx context.Context, planID uint) ([]*User, error)

	// ResetTraffic zeroes the usage counters and sets the allowance for one
	// account.
	ResetTraffic(ctx context.Context, userID uint, transferEnable uint64) error

	// SetSpeedLimit applies a bandwidth cap in Mbps to one account.
	SetSpeedLimit(ctx context.Context, userID uint, mbps uint) error
}

// TrafficStatRepository reads the append-only usage samples recorded by the
// node agents.
type TrafficStatRepository interface {
	// SumBetween returns the account's total upload and download recorded in
	// [from, to).
	SumBetween(ctx context.Context, userID uint, from, to time.Time) (upload, download uint64, err error)
}
