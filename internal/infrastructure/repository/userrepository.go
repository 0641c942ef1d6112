package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"verge/internal/domain/user"
	"verge/internal/infrastructure/persistence/models"
	"verge/internal/shared/db"
	"verge/internal/shared/logger"
)

// UserRepositoryImpl implements the user.Repository interface over gorm.
type UserRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

// NewUserRepository creates a user repository instance.
func NewUserRepository(database *gorm.DB, log logger.Interface) user.Repository {
	return &UserRepositoryImpl{db: database, logger: log}
}

func (r *UserRepositoryImpl) ListActiveByPlanIDs(ctx context.Context, now time.Time, planIDs []uint) ([]*user.User, error) {
	if len(planIDs) == 0 {
		return nil, nil
	}

	var userModels []*models.UserModel
	err := r.db.WithContext(ctx).
		Where("expired_at IS NOT NULL AND expired_at > ?", now).
		Where("plan_id IN ?", planIDs).
		Find(&userModels).Error
	if err != nil {
		r.logger.Errorw("failed to list active users by plans",
			"plan_count", len(planIDs),
			"error", err,
		)
		return nil, fmt.Errorf("failed to list active users: %w", err)
	}
	return usersToEntities(userModels), nil
}

func (r *UserRepositoryImpl) ListByPlanID(ctx context.Context, planID uint) ([]*user.User, error) {
	var userModels []*models.UserModel
	err := r.db.WithContext(ctx).
		Where("plan_id = ?", planID).
		Find(&userModels).Error
	if err != nil {
		r.logger.Errorw("failed to list users by plan", "plan_id", planID, "error", err)
		return nil, fmt.Errorf("failed to list users by plan %d: %w", planID, err)
	}
	return usersToEntities(userModels), nil
}

// ResetTraffic joins the active transaction when called under the
// transaction manager, so a whole policy group commits atomically.
func (r *UserRepositoryImpl) ResetTraffic(ctx context.Context, userID uint, transferEnable uint64) error {
	tx := db.GetTxFromContext(ctx, r.db)
	err := tx.Model(&models.UserModel{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"upload":          0,
			"download":        0,
			"transfer_enable": transferEnable,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to reset traffic for user %d: %w", userID, err)
	}
	return nil
}

func (r *UserRepositoryImpl) SetSpeedLimit(ctx context.Context, userID uint, mbps uint) error {
	tx := db.GetTxFromContext(ctx, r.db)
	err := tx.Model(&models.UserModel{}).
		Where("id = ?", userID).
		Update("speed_limit", mbps).Error
	if err != nil {
		r.logger.Errorw("failed to set speed limit", "user_id", userID, "mbps", mbps, "error", err)
		return fmt.Errorf("failed to set speed limit for user %d: %w", userID, err)
	}
	return nil
}

func usersToEntities(userModels []*models.UserModel) []*user.User {
	entities := make([]*user.User, 0, len(userModels))
	for _, m := range userModels {
		entities = append(entities, &user.User{
			ID:             m.ID,
			Email:          m.Email,
			PlanID:         m.PlanID,
			ExpiredAt:      m.ExpiredAt,
			Upload:         m.Upload,
			Download:       m.Download,
			TransferEnable: m.TransferEnable,
			SpeedLimit:     m.SpeedLimit,
		})
	}
	return entities
}
