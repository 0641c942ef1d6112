// Package http wires the gin engine, middleware, and admin routes.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"verge/internal/application/traffic/usecases"
	"verge/internal/domain/plan"
	"verge/internal/infrastructure/config"
	"verge/internal/interfaces/http/handlers"
	"verge/internal/interfaces/http/middleware"
	"verge/internal/shared/logger"
)

// Router assembles the HTTP surface of the service.
type Router struct {
	engine *gin.Engine
	cfg    *config.Config
	logger logger.Interface

	trafficHandler *handlers.TrafficHandler
	planHandler    *handlers.PlanHandler
}

func NewRouter(
	cfg *config.Config,
	resetUC *usecases.ResetTrafficUseCase,
	trialUC *usecases.CheckTrialTrafficUseCase,
	planRepo plan.Repository,
	log logger.Interface,
) *Router {
	engine := gin.New()
	engine.Use(middleware.Recovery())
	engine.Use(middleware.Logger(log))

	return &Router{
		engine:         engine,
		cfg:            cfg,
		logger:         log,
		trafficHandler: handlers.NewTrafficHandler(resetUC, trialUC),
		planHandler:    handlers.NewPlanHandler(planRepo),
	}
}

// SetupRoutes registers all routes on the engine.
func (r *Router) SetupRoutes() {
	r.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	admin := r.engine.Group("/api/admin")
	admin.Use(middleware.AdminAuth(r.cfg.Server.AdminToken))
	{
		admin.POST("/traffic/reset", r.trafficHandler.TriggerReset)
		admin.POST("/traffic/trial-check", r.trafficHandler.TriggerTrialCheck)

		admin.GET("/plans", r.planHandler.ListPlans)
		admin.GET("/plans/:id", r.planHandler.GetPlan)
		admin.POST("/plans", r.planHandler.CreatePlan)
	}
}

// GetEngine returns the underlying gin engine.
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
