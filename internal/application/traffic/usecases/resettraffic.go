// Package usecases implements the traffic maintenance batch jobs: the
// periodic traffic reset and the trial traffic check.
package usecases

import (
	"context"
	"fmt"
	"time"

	"verge/internal/domain/plan"
	"verge/internal/domain/traffic"
	"verge/internal/domain/user"
	"verge/internal/shared/biztime"
	apperrors "verge/internal/shared/errors"
	"verge/internal/shared/logger"
)

const (
	// maxTxnAttempts bounds the retry budget for one policy group,
	// counting the first attempt.
	maxTxnAttempts = 3

	// txnRetryDelay is the fixed pause between attempts.
	txnRetryDelay = 5 * time.Second
)

// RunReport summarizes one reset run.
type RunReport struct {
	Groups    int `json:"groups"`
	Evaluated int `json:"evaluated"`
	Due       int `json:"due"`
	Reset     int `json:"reset"`
	Skipped   int `json:"skipped"`
}

// ResetTrafficUseCase is the periodic traffic-reset batch: it partitions
// active accounts by their plans' effective reset policy, decides per
// account whether a reset is due today, and applies each due group's
// mutation in a single retried transaction.
type ResetTrafficUseCase struct {
	userRepo      user.Repository
	planRepo      plan.Repository
	tm            TransactionRunner
	alerter       OperatorAlerter
	defaultPolicy traffic.ResetPolicy
	logger        logger.Interface

	// sleep is the pause between retry attempts, replaceable in tests.
	sleep func(time.Duration)
}

// NewResetTrafficUseCase creates a ResetTrafficUseCase. defaultPolicy is the
// process-wide policy applied to plans without their own; it is fixed at
// construction and therefore read once per run.
func NewResetTrafficUseCase(
	userRepo user.Repository,
	planRepo plan.Repository,
	tm TransactionRunner,
	alerter OperatorAlerter,
	defaultPolicy traffic.ResetPolicy,
	log logger.Interface,
) *ResetTrafficUseCase {
	return &ResetTrafficUseCase{
		userRepo:      userRepo,
		planRepo:      planRepo,
		tm:            tm,
		alerter:       alerter,
		defaultPolicy: defaultPolicy,
		logger:        log,
		sleep:         time.Sleep,
	}
}

// Execute runs one reset pass at the current business time. Implements the
// scheduler's BatchJob contract.
func (uc *ResetTrafficUseCase) Execute(ctx context.Context) (int, error) {
	report, err := uc.ExecuteAt(ctx, biztime.Now())
	if report == nil {
		return 0, err
	}
	return report.Reset, err
}

// ExecuteAt runs one reset pass evaluated at now. now must be in the
// business timezone; anchors are converted to it before evaluation.
//
// Groups are processed sequentially. A fatal failure aborts the run, but
// groups already committed stay committed.
func (uc *ResetTrafficUseCase) ExecuteAt(ctx context.Context, now time.Time) (*RunReport, error) {
	report := &RunReport{}

	groups, err := uc.planRepo.GroupByResetPolicy(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to load plan policy groups: %w", err)
	}

	planIndex, err := uc.loadPlanIndex(ctx)
	if err != nil {
		return report, err
	}

	for _, group := range groups {
		policy := traffic.EffectivePolicy(group.Policy, uc.defaultPolicy)
		if policy == traffic.PolicyNever {
			continue
		}
		report.Groups++

		users, err := uc.userRepo.ListActiveByPlanIDs(ctx, now, group.PlanIDs)
		if err != nil {
			return report, fmt.Errorf("failed to load accounts for policy %s: %w", policy, err)
		}
		report.Evaluated += len(users)

		due := make([]*user.User, 0, len(users))
		for _, u := range users {
			if u.ExpiredAt == nil {
				continue
			}
			anchor := biztime.In(*u.ExpiredAt)
			if traffic.IsResetDue(policy, anchor, now) {
				due = append(due, u)
			}
		}
		if len(due) == 0 {
			continue
		}
		report.Due += len(due)

		resetCount, skipped, err := uc.applyGroup(ctx, now, policy, due, planIndex)
		report.Reset += resetCount
		report.Skipped += skipped
		if err != nil {
			return report, err
		}

		uc.logger.Infow("policy group reset committed",
			"policy", policy.String(),
			"due", len(due),
			"reset", resetCount,
			"skipped", skipped,
		)
	}

	return report, nil
}

func (uc *ResetTrafficUseCase) loadPlanIndex(ctx context.Context) (map[uint]*plan.Plan, error) {
	plans, err := uc.planRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load plans: %w", err)
	}
	index := make(map[uint]*plan.Plan, len(plans))
	for _, p := range plans {
		index[p.ID] = p
	}
	return index, nil
}

// applyGroup commits the counter reset for one due group inside a retried
// transaction. The mutation only writes absolute values computed from
// committed state, so replaying it on retry is safe.
func (uc *ResetTrafficUseCase) applyGroup(
	ctx context.Context,
	now time.Time,
	policy traffic.ResetPolicy,
	due []*user.User,
	planIndex map[uint]*plan.Plan,
) (int, int, error) {
	var resetCount, skipped int

	mutation := func(txCtx context.Context) error {
		resetCount, skipped = 0, 0
		for _, u := range due {
			if u.PlanID == nil {
				skipped++
				continue
			}
			p := planIndex[*u.PlanID]
			if !p.HasQuota() {
				skipped++
				continue
			}
			if err := uc.userRepo.ResetTraffic(txCtx, u.ID, p.QuotaBytes()); err != nil {
				return err
			}
			resetCount++
		}
		return nil
	}

	err := uc.runTransactional(ctx, now, policy, mutation)
	if err != nil {
		return 0, 0, err
	}
	return resetCount, skipped, nil
}

// runTransactional attempts the mutation up to maxTxnAttempts times,
// sleeping txnRetryDelay between attempts on transient contention. On
// exhaustion or a non-transient failure it pages the operator once and
// returns the failure as fatal.
func (uc *ResetTrafficUseCase) runTransactional(
	ctx context.Context,
	now time.Time,
	policy traffic.ResetPolicy,
	mutation func(ctx context.Context) error,
) error {
	var err error
	for attempt := 1; attempt <= maxTxnAttempts; attempt++ {
		err = uc.tm.RunInTransaction(ctx, mutation)
		if err == nil {
			return nil
		}
		if attempt >= maxTxnAttempts || !apperrors.IsSerializationFailure(err) {
			break
		}
		uc.logger.Warnw("traffic reset transaction hit contention, retrying",
			"policy", policy.String(),
			"attempt", attempt,
			"error", err,
		)
		uc.sleep(txnRetryDelay)
	}

	message := fmt.Sprintf("%s traffic reset failed: %v",
		biztime.Format(now, "2006/01/02 15:04:05"), err)
	uc.alerter.Alert(ctx, message)

	uc.logger.Errorw("traffic reset transaction failed",
		"policy", policy.String(),
		"error", err,
	)
	return fmt.Errorf("traffic reset failed for policy %s: %w", policy, err)
}
