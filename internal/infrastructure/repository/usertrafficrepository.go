package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"verge/internal/domain/user"
	"verge/internal/infrastructure/persistence/models"
	"verge/internal/shared/logger"
)

// UserTrafficRepositoryImpl implements user.TrafficStatRepository over the
// append-only usage sample table.
type UserTrafficRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

// NewUserTrafficRepository creates a traffic stat repository instance.
func NewUserTrafficRepository(db *gorm.DB, log logger.Interface) user.TrafficStatRepository {
	return &UserTrafficRepositoryImpl{db: db, logger: log}
}

func (r *UserTrafficRepositoryImpl) SumBetween(ctx context.Context, userID uint, from, to time.Time) (uint64, uint64, error) {
	var result struct {
		Upload   uint64
		Download uint64
	}
	err := r.db.WithContext(ctx).
		Model(&models.UserTrafficModel{}).
		Select("COALESCE(SUM(upload), 0) AS upload, COALESCE(SUM(download), 0) AS download").
		Where("user_id = ? AND recorded_at >= ? AND recorded_at < ?", userID, from, to).
		Scan(&result).Error
	if err != nil {
		r.logger.Errorw("failed to sum user traffic",
			"user_id", userID,
			"from", from,
			"to", to,
			"error", err,
		)
		return 0, 0, fmt.Errorf("failed to sum traffic for user %d: %w", userID, err)
	}
	return result.Upload, result.Download, nil
}
