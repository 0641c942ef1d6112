package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"verge/internal/domain/plan"
	"verge/internal/domain/traffic"
	"verge/internal/shared/errors"
	"verge/internal/shared/logger"
	"verge/internal/shared/utils"
)

// PlanHandler manages the plan records consumed by the traffic engine.
type PlanHandler struct {
	planRepo plan.Repository
	logger   logger.Interface
}

func NewPlanHandler(planRepo plan.Repository) *PlanHandler {
	return &PlanHandler{
		planRepo: planRepo,
		logger:   logger.NewLogger(),
	}
}

type CreatePlanRequest struct {
	Name             string  `json:"name" validate:"required,max=191"`
	TransferEnableGB *uint64 `json:"transfer_enable_gb" validate:"omitempty,gte=1"`
	ResetPolicy      *int    `json:"reset_policy" validate:"omitempty,gte=0,lte=6"`
}

type PlanResponse struct {
	ID               uint    `json:"id"`
	Name             string  `json:"name"`
	TransferEnableGB *uint64 `json:"transfer_enable_gb,omitempty"`
	ResetPolicy      *int    `json:"reset_policy,omitempty"`
	ResetPolicyName  string  `json:"reset_policy_name,omitempty"`
}

func (h *PlanHandler) CreatePlan(c *gin.Context) {
	var req CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for create plan", "error", err)
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	p := &plan.Plan{
		Name:             req.Name,
		TransferEnableGB: req.TransferEnableGB,
	}
	if req.ResetPolicy != nil {
		policy, err := traffic.ParsePolicy(*req.ResetPolicy)
		if err != nil {
			utils.ErrorResponseWithError(c, errors.NewValidationError("invalid reset policy", err.Error()))
			return
		}
		p.ResetPolicy = &policy
	}

	if err := h.planRepo.Create(c.Request.Context(), p); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, planToResponse(p), "Plan created successfully")
}

func (h *PlanHandler) ListPlans(c *gin.Context) {
	plans, err := h.planRepo.ListAll(c.Request.Context())
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	items := make([]PlanResponse, 0, len(plans))
	for _, p := range plans {
		items = append(items, planToResponse(p))
	}

	utils.SuccessResponse(c, http.StatusOK, "", gin.H{"items": items, "total": len(items)})
}

func (h *PlanHandler) GetPlan(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.ErrorResponseWithError(c, errors.NewValidationError("invalid plan id"))
		return
	}

	p, err := h.planRepo.GetByID(c.Request.Context(), uint(id))
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	if p == nil {
		utils.ErrorResponseWithError(c, errors.NewNotFoundError("plan not found"))
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", planToResponse(p))
}

func planToResponse(p *plan.Plan) PlanResponse {
	resp := PlanResponse{
		ID:               p.ID,
		Name:             p.Name,
		TransferEnableGB: p.TransferEnableGB,
	}
	if p.ResetPolicy != nil {
		code := int(*p.ResetPolicy)
		resp.ResetPolicy = &code
		resp.ResetPolicyName = p.ResetPolicy.String()
	}
	return resp
}
