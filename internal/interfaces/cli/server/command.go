// Package server implements the server CLI command: the admin HTTP API plus
// the job scheduler in one process.
package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"verge/internal/infrastructure/scheduler"
	"verge/internal/interfaces/cli/bootstrap"
	httpRouter "verge/internal/interfaces/http"
	"verge/internal/shared/goroutine"
	"verge/internal/shared/logger"
)

var env string

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Start the HTTP server and job scheduler",
		Long:  `Start the verge admin HTTP server together with the traffic reset and trial check schedulers.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	if envVar := os.Getenv("ENV"); envVar != "" {
		env = envVar
	}

	app, cleanup, err := bootstrap.Setup(env)
	if err != nil {
		return err
	}
	defer cleanup()

	app.Log.Infow("starting server", "environment", env)

	gin.SetMode(mapEnvToGinMode(env))
	gin.DefaultWriter = io.Discard

	router := httpRouter.NewRouter(app.Cfg, app.Reset, app.Trial, app.Plans, app.Log)
	router.SetupRoutes()

	sched, err := scheduler.NewSchedulerManager(app.Log)
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	if err := sched.RegisterTrafficResetJob(app.Reset); err != nil {
		return fmt.Errorf("failed to register traffic reset job: %w", err)
	}
	if err := sched.RegisterTrialCheckJob(app.Trial); err != nil {
		return fmt.Errorf("failed to register trial check job: %w", err)
	}
	sched.Start()
	defer func() {
		if err := sched.Stop(); err != nil {
			app.Log.Errorw("failed to stop scheduler", "error", err)
		}
	}()

	srv := &http.Server{
		Addr:         app.Cfg.Server.GetAddr(),
		Handler:      router.GetEngine(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	goroutine.SafeGo(app.Log, "http-server", func() {
		app.Log.Infow("server starting", "address", app.Cfg.Server.GetAddr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", "error", err)
		}
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	app.Log.Infow("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		app.Log.Errorw("server forced to shutdown", "error", err)
		return err
	}

	app.Log.Infow("server exited gracefully")
	return nil
}

func mapEnvToGinMode(environment string) string {
	switch environment {
	case "production", "prod", "release":
		return "release"
	case "test", "testing":
		return "test"
	default:
		return "debug"
	}
}
