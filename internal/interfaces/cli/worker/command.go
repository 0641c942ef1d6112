// Package worker implements the worker CLI command: the job scheduler
// without the HTTP surface, plus a run-once mode for cron driven setups.
package worker

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"verge/internal/infrastructure/scheduler"
	"verge/internal/interfaces/cli/bootstrap"
)

var (
	env  string
	once bool
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run the traffic maintenance jobs",
		Long:  `Run the traffic reset and trial check jobs as a daemon, or once with --once for external cron.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")
	cmd.Flags().BoolVar(&once, "once", false, "Run one reset and trial check pass immediately, then exit")

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

	if once {
		return runOnce(app)
	}

	app.Log.Infow("starting traffic worker", "environment", env)

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

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	app.Log.Infow("shutting down traffic worker")
	if err := sched.Stop(); err != nil {
		return err
	}
	app.Log.Infow("traffic worker stopped")
	return nil
}

func runOnce(app *bootstrap.App) error {
	ctx := context.Background()

	resetCount, err := app.Reset.Execute(ctx)
	if err != nil {
		return fmt.Errorf("traffic reset failed: %w", err)
	}
	app.Log.Infow("traffic reset pass completed", "reset", resetCount)

	limited, err := app.Trial.Execute(ctx)
	if err != nil {
		return fmt.Errorf("trial traffic check failed: %w", err)
	}
	app.Log.Infow("trial traffic check completed", "limited", limited)

	return nil
}
