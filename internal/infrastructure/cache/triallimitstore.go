// Package cache provides Redis-backed caches and flags shared across the
// panel processes.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"verge/internal/shared/logger"
)

// trialFlagTTL keeps a flag alive for one day; the key itself is date-scoped
// so the TTL only bounds memory.
const trialFlagTTL = 24 * time.Hour

// TrialLimitStore records which trial users have already been speed-limited
// on a given business day, so the hourly check does not re-limit or re-alert.
type TrialLimitStore struct {
	client *redis.Client
	logger logger.Interface
}

// NewTrialLimitStore creates a TrialLimitStore.
func NewTrialLimitStore(client *redis.Client, log logger.Interface) *TrialLimitStore {
	return &TrialLimitStore{client: client, logger: log}
}

func trialFlagKey(userID uint, day string) string {
	return fmt.Sprintf("trial_speed_limited:%d:%s", userID, day)
}

// IsLimited reports whether the user was already limited on the given day.
// Redis errors are treated as "not limited" so a cache outage degrades to
// duplicate alerts rather than missed enforcement.
func (s *TrialLimitStore) IsLimited(ctx context.Context, userID uint, day string) bool {
	val, err := s.client.Get(ctx, trialFlagKey(userID, day)).Result()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warnw("failed to read trial limit flag", "user_id", userID, "error", err)
		}
		return false
	}
	return val != ""
}

// MarkLimited flags the user as limited for the given day.
func (s *TrialLimitStore) MarkLimited(ctx context.Context, userID uint, day string) error {
	if err := s.client.Set(ctx, trialFlagKey(userID, day), "1", trialFlagTTL).Err(); err != nil {
		s.logger.Errorw("failed to set trial limit flag", "user_id", userID, "error", err)
		return fmt.Errorf("failed to set trial limit flag: %w", err)
	}
	return nil
}
