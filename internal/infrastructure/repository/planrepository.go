package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"gorm.io/gorm"

	"verge/internal/domain/plan"
	"verge/internal/domain/traffic"
	"verge/internal/infrastructure/persistence/models"
	"verge/internal/shared/logger"
)

// PlanRepositoryImpl implements the plan.Repository interface over gorm.
type PlanRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

// NewPlanRepository creates a plan repository instance.
func NewPlanRepository(db *gorm.DB, log logger.Interface) plan.Repository {
	return &PlanRepositoryImpl{db: db, logger: log}
}

func (r *PlanRepositoryImpl) GetByID(ctx context.Context, id uint) (*plan.Plan, error) {
	var model models.PlanModel
	err := r.db.WithContext(ctx).First(&model, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		r.logger.Errorw("failed to get plan", "plan_id", id, "error", err)
		return nil, fmt.Errorf("failed to get plan %d: %w", id, err)
	}
	return planToEntity(&model)
}

func (r *PlanRepositoryImpl) ListAll(ctx context.Context) ([]*plan.Plan, error) {
	var planModels []*models.PlanModel
	if err := r.db.WithContext(ctx).Find(&planModels).Error; err != nil {
		r.logger.Errorw("failed to list plans", "error", err)
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	return plansToEntities(planModels)
}

// GroupByResetPolicy loads all plan IDs with their declared policies and
// partitions them in memory. Groups are ordered by policy value with the
// null-policy group last, so runs process policies deterministically.
func (r *PlanRepositoryImpl) GroupByResetPolicy(ctx context.Context) ([]plan.PolicyGroup, error) {
	var rows []struct {
		ID          uint
		ResetPolicy *int
	}
	err := r.db.WithContext(ctx).
		Model(&models.PlanModel{}).
		Select("id", "reset_policy").
		Find(&rows).Error
	if err != nil {
		r.logger.Errorw("failed to group plans by reset policy", "error", err)
		return nil, fmt.Errorf("failed to group plans by reset policy: %w", err)
	}

	byPolicy := make(map[int][]uint)
	var defaulted []uint
	for _, row := range rows {
		if row.ResetPolicy == nil {
			defaulted = append(defaulted, row.ID)
			continue
		}
		byPolicy[*row.ResetPolicy] = append(byPolicy[*row.ResetPolicy], row.ID)
	}

	codes := make([]int, 0, len(byPolicy))
	for code := range byPolicy {
		codes = append(codes, code)
	}
	sort.Ints(codes)

	groups := make([]plan.PolicyGroup, 0, len(codes)+1)
	for _, code := range codes {
		p := traffic.ResetPolicy(code)
		groups = append(groups, plan.PolicyGroup{Policy: &p, PlanIDs: byPolicy[code]})
	}
	if len(defaulted) > 0 {
		groups = append(groups, plan.PolicyGroup{Policy: nil, PlanIDs: defaulted})
	}
	return groups, nil
}

func (r *PlanRepositoryImpl) Create(ctx context.Context, p *plan.Plan) error {
	model := planToModel(p)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		r.logger.Errorw("failed to create plan", "name", p.Name, "error", err)
		return fmt.Errorf("failed to create plan: %w", err)
	}
	p.ID = model.ID
	return nil
}

func planToEntity(m *models.PlanModel) (*plan.Plan, error) {
	entity := &plan.Plan{
		ID:               m.ID,
		Name:             m.Name,
		TransferEnableGB: m.TransferEnableGB,
	}
	if m.ResetPolicy != nil {
		p, err := traffic.ParsePolicy(*m.ResetPolicy)
		if err != nil {
			return nil, fmt.Errorf("plan %d: %w", m.ID, err)
		}
		entity.ResetPolicy = &p
	}
	return entity, nil
}

func plansToEntities(planModels []*models.PlanModel) ([]*plan.Plan, error) {
	entities := make([]*plan.Plan, 0, len(planModels))
	for _, m := range planModels {
		entity, err := planToEntity(m)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	return entities, nil
}

func planToModel(p *plan.Plan) *models.PlanModel {
	model := &models.PlanModel{
		ID:               p.ID,
		Name:             p.Name,
		TransferEnableGB: p.TransferEnableGB,
	}
	if p.ResetPolicy != nil {
		code := int(*p.ResetPolicy)
		model.ResetPolicy = &code
	}
	return model
}
