// Package constants defines shared constant values used across the application.
package constants

// Database table names.
const (
	TableUsers       = "verge_users"
	TablePlans       = "verge_plans"
	TableUserTraffic = "verge_user_traffic"
)

// Byte units.
const (
	Gigabyte = uint64(1) << 30
)

// Trial traffic limiting.
const (
	// TrialSpeedLimitMbps is the speed limit applied to trial users that
	// exceed their daily traffic threshold.
	TrialSpeedLimitMbps = 30

	// TrialTrafficDivisor divides the trial user's total allowance to obtain
	// the daily threshold (allowance / 3).
	TrialTrafficDivisor = 3
)
