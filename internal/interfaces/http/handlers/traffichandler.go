// Package handlers contains the gin request handlers for the admin API.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"verge/internal/application/traffic/usecases"
	"verge/internal/shared/biztime"
	"verge/internal/shared/logger"
	"verge/internal/shared/utils"
)

// TrafficHandler exposes manual triggers for the traffic batch jobs, used
// for operational intervention and smoke testing.
type TrafficHandler struct {
	resetUC *usecases.ResetTrafficUseCase
	trialUC *usecases.CheckTrialTrafficUseCase
	logger  logger.Interface
}

func NewTrafficHandler(
	resetUC *usecases.ResetTrafficUseCase,
	trialUC *usecases.CheckTrialTrafficUseCase,
) *TrafficHandler {
	return &TrafficHandler{
		resetUC: resetUC,
		trialUC: trialUC,
		logger:  logger.NewLogger(),
	}
}

// TriggerReset runs one traffic reset pass immediately.
func (h *TrafficHandler) TriggerReset(c *gin.Context) {
	h.logger.Infow("manual traffic reset triggered", "client_ip", c.ClientIP())

	report, err := h.resetUC.ExecuteAt(c.Request.Context(), biztime.Now())
	if err != nil {
		h.logger.Errorw("manual traffic reset failed", "error", err)
		utils.ErrorResponse(c, http.StatusInternalServerError, "traffic reset failed")
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "traffic reset completed", report)
}

// TriggerTrialCheck runs one trial traffic check pass immediately.
func (h *TrafficHandler) TriggerTrialCheck(c *gin.Context) {
	h.logger.Infow("manual trial traffic check triggered", "client_ip", c.ClientIP())

	limited, err := h.trialUC.Execute(c.Request.Context())
	if err != nil {
		h.logger.Errorw("manual trial traffic check failed", "error", err)
		utils.ErrorResponse(c, http.StatusInternalServerError, "trial traffic check failed")
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "trial traffic check completed", gin.H{
		"limited": limited,
	})
}
