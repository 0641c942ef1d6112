package plan

import (
	"context"

	"verge/internal/domain/traffic"
)

// PolicyGroup is a set of plan IDs sharing the same declared reset policy.
// Policy is nil for plans that defer to the process-wide default.
type PolicyGroup struct {
	Policy  *traffic.ResetPolicy
	PlanIDs []uint
}

// Repository is the plan store contract.
type Repository interface {
	// GetByID returns the plan or nil when it does not exist.
	GetByID(ctx context.Context, id uint) (*Plan, error)

	// ListAll returns every plan.
	ListAll(ctx context.Context) ([]*Plan, error)

	// GroupByResetPolicy returns all plan IDs partitioned by their declared
	// reset policy, with null-policy plans collected in a single group.
	GroupByResetPolicy(ctx context.Context) ([]PolicyGroup, error)

	// Create stores a new plan and assigns its ID.
	Create(ctx context.Context, p *Plan) error
}
