package usecases

import (
	"context"
	"fmt"

	"verge/internal/domain/user"
	"verge/internal/shared/biztime"
	"verge/internal/shared/constants"
	"verge/internal/shared/logger"
)

// CheckTrialTrafficUseCase limits trial accounts that burn through their
// allowance too quickly: when the traffic consumed since the start of the
// business day exceeds a third of the account's allowance, the account gets
// a fixed speed cap, a per-day flag prevents repeat handling, and the
// operator is notified.
type CheckTrialTrafficUseCase struct {
	userRepo    user.Repository
	statRepo    user.TrafficStatRepository
	flags       TrialLimitFlags
	alerter     OperatorAlerter
	trialPlanID uint
	logger      logger.Interface
}

// NewCheckTrialTrafficUseCase creates a CheckTrialTrafficUseCase.
// trialPlanID zero disables the check.
func NewCheckTrialTrafficUseCase(
	userRepo user.Repository,
	statRepo user.TrafficStatRepository,
	flags TrialLimitFlags,
	alerter OperatorAlerter,
	trialPlanID uint,
	log logger.Interface,
) *CheckTrialTrafficUseCase {
	return &CheckTrialTrafficUseCase{
		userRepo:    userRepo,
		statRepo:    statRepo,
		flags:       flags,
		alerter:     alerter,
		trialPlanID: trialPlanID,
		logger:      log,
	}
}

// Execute runs one check pass. Returns the number of accounts limited.
func (uc *CheckTrialTrafficUseCase) Execute(ctx context.Context) (int, error) {
	if uc.trialPlanID == 0 {
		return 0, nil
	}

	now := biztime.NowUTC()
	dayStart := biztime.StartOfDayUTC(now)
	day := biztime.DayKey(now)

	users, err := uc.userRepo.ListByPlanID(ctx, uc.trialPlanID)
	if err != nil {
		return 0, fmt.Errorf("failed to load trial users: %w", err)
	}

	limited := 0
	for _, u := range users {
		if u.TransferEnable == nil || *u.TransferEnable == 0 {
			continue
		}
		if uc.flags.IsLimited(ctx, u.ID, day) {
			continue
		}

		upload, download, err := uc.statRepo.SumBetween(ctx, u.ID, dayStart, now)
		if err != nil {
			uc.logger.Errorw("failed to read trial user traffic", "user_id", u.ID, "error", err)
			continue
		}
		total := upload + download
		threshold := *u.TransferEnable / constants.TrialTrafficDivisor
		if total <= threshold {
			continue
		}

		if err := uc.userRepo.SetSpeedLimit(ctx, u.ID, constants.TrialSpeedLimitMbps); err != nil {
			uc.logger.Errorw("failed to limit trial user", "user_id", u.ID, "error", err)
			continue
		}
		if err := uc.flags.MarkLimited(ctx, u.ID, day); err != nil {
			uc.logger.Warnw("failed to record trial limit flag", "user_id", u.ID, "error", err)
		}
		limited++

		uc.alerter.Alert(ctx, fmt.Sprintf(
			"trial user %d exceeded daily traffic: used %.2f GB of %.2f GB threshold, limited to %d Mbps",
			u.ID, bytesToGB(total), bytesToGB(threshold), constants.TrialSpeedLimitMbps,
		))

		uc.logger.Infow("trial user speed limited",
			"user_id", u.ID,
			"used_bytes", total,
			"threshold_bytes", threshold,
			"limit_mbps", constants.TrialSpeedLimitMbps,
		)
	}

	return limited, nil
}

func bytesToGB(b uint64) float64 {
	return float64(b) / float64(constants.Gigabyte)
}
