// Package scheduler provides unified scheduler management using gocron v2.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"verge/internal/shared/biztime"
	"verge/internal/shared/logger"
)

// BatchJob defines the interface for a scheduled batch processing job.
// Each Execute call processes a batch and returns the number of items processed.
type BatchJob interface {
	Execute(ctx context.Context) (int, error)
}

// SchedulerManager manages all scheduled jobs using gocron v2. Cron
// expressions are evaluated in the business timezone so the daily reset
// fires at local midnight.
type SchedulerManager struct {
	scheduler gocron.Scheduler
	logger    logger.Interface

	started   bool
	startedMu sync.RWMutex
}

// NewSchedulerManager creates a new SchedulerManager instance.
func NewSchedulerManager(log logger.Interface) (*SchedulerManager, error) {
	scheduler, err := gocron.NewScheduler(
		gocron.WithLocation(biztime.Location()),
	)
	if err != nil {
		return nil, err
	}

	return &SchedulerManager{
		scheduler: scheduler,
		logger:    log,
	}, nil
}

// RegisterTrafficResetJob registers the daily traffic reset at 00:00
// business timezone. Runs are serialized; a run that overlaps the next
// trigger causes the overlapping trigger to be rescheduled, not stacked.
func (m *SchedulerManager) RegisterTrafficResetJob(resetJob BatchJob) error {
	_, err := m.scheduler.NewJob(
		gocron.CronJob("0 0 * * *", false),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
			defer cancel()
			m.runTrafficReset(ctx, resetJob)
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("traffic", "reset"),
		gocron.WithName("traffic-reset"),
	)
	if err != nil {
		return err
	}

	m.logger.Infow("registered traffic reset job", "schedule", "00:00 daily")
	return nil
}

func (m *SchedulerManager) runTrafficReset(ctx context.Context, resetJob BatchJob) {
	m.logger.Debugw("traffic reset run started")

	startTime := biztime.NowUTC()

	resetCount, err := resetJob.Execute(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		m.logger.Errorw("traffic reset run failed",
			"error", err,
			"reset", resetCount,
			"duration", time.Since(startTime),
		)
		return
	}

	if resetCount > 0 {
		m.logger.Infow("traffic reset run completed",
			"reset", resetCount,
			"duration", time.Since(startTime),
		)
	} else {
		m.logger.Debugw("no accounts due for reset",
			"duration", time.Since(startTime),
		)
	}
}

// RegisterTrialCheckJob registers the hourly trial traffic check.
func (m *SchedulerManager) RegisterTrialCheckJob(checkJob BatchJob) error {
	_, err := m.scheduler.NewJob(
		gocron.CronJob("0 * * * *", false),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			defer cancel()
			m.runTrialCheck(ctx, checkJob)
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("traffic", "trial-check"),
		gocron.WithName("trial-traffic-check"),
	)
	if err != nil {
		return err
	}

	m.logger.Infow("registered trial traffic check job", "schedule", "hourly")
	return nil
}

func (m *SchedulerManager) runTrialCheck(ctx context.Context, checkJob BatchJob) {
	m.logger.Debugw("trial traffic check started")

	limitedCount, err := checkJob.Execute(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		m.logger.Errorw("trial traffic check failed", "error", err)
		return
	}

	if limitedCount > 0 {
		m.logger.Infow("trial users speed limited", "count", limitedCount)
	} else {
		m.logger.Debugw("no trial users over threshold")
	}
}

// Start starts the scheduler and all registered jobs.
func (m *SchedulerManager) Start() {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if m.started {
		return
	}

	m.scheduler.Start()
	m.started = true
	m.logger.Infow("scheduler manager started", "job_count", len(m.scheduler.Jobs()))
}

// Stop gracefully stops the scheduler.
// It waits for all running jobs to complete before returning.
func (m *SchedulerManager) Stop() error {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if !m.started {
		return nil
	}

	m.logger.Infow("stopping scheduler manager")

	err := m.scheduler.Shutdown()
	m.started = false

	if err != nil {
		m.logger.Errorw("scheduler manager shutdown with error", "error", err)
		return err
	}

	m.logger.Infow("scheduler manager stopped")
	return nil
}

// IsStarted returns whether the scheduler is running.
func (m *SchedulerManager) IsStarted() bool {
	m.startedMu.RLock()
	defer m.startedMu.RUnlock()
	return m.started
}

// Jobs returns all registered jobs for inspection.
func (m *SchedulerManager) Jobs() []gocron.Job {
	return m.scheduler.Jobs()
}
