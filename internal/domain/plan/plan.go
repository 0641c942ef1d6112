// Package plan defines the subscription plan entity as seen by the traffic
// engine: a quota source with an optional reset policy.
package plan

import (
	"verge/internal/domain/traffic"
	"verge/internal/shared/constants"
)

// Plan is the engine-facing view of a subscription plan. Plans are owned by
// the surrounding panel; this subsystem only reads them.
type Plan struct {
	ID   uint
	Name string

	// TransferEnableGB is the traffic allowance granted on reset, in whole
	// gigabytes. Nil means the plan is not provisioned for quota resets and
	// its accounts are skipped.
	TransferEnableGB *uint64

	// ResetPolicy is the plan-level billing-cycle override. Nil defers to
	// the process-wide default policy.
	ResetPolicy *traffic.ResetPolicy
}

// HasQuota reports whether the plan grants a traffic allowance on reset.
func (p *Plan) HasQuota() bool {
	return p != nil && p.TransferEnableGB != nil
}

// QuotaBytes returns the allowance in bytes. Only valid when HasQuota.
func (p *Plan) QuotaBytes() uint64 {
	return *p.TransferEnableGB * constants.Gigabyte
}
