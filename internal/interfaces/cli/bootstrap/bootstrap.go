// Package bootstrap assembles the shared process dependencies for the CLI
// commands: configuration, logging, business timezone, database, Redis, and
// the traffic use cases.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"verge/internal/application/notification"
	"verge/internal/application/traffic/usecases"
	"verge/internal/domain/plan"
	"verge/internal/domain/traffic"
	"verge/internal/infrastructure/cache"
	"verge/internal/infrastructure/config"
	"verge/internal/infrastructure/database"
	"verge/internal/infrastructure/email"
	"verge/internal/infrastructure/repository"
	"verge/internal/infrastructure/telegram"
	"verge/internal/shared/biztime"
	"verge/internal/shared/db"
	"verge/internal/shared/logger"
)

// App holds the wired process dependencies.
type App struct {
	Cfg   *config.Config
	Log   logger.Interface
	Redis *redis.Client
	Plans plan.Repository
	Reset *usecases.ResetTrafficUseCase
	Trial *usecases.CheckTrialTrafficUseCase
}

// Setup initializes all shared infrastructure and returns the wired app
// along with a cleanup function releasing connections.
func Setup(env string) (*App, func(), error) {
	cfg, err := config.Load(env)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&cfg.Logger); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.NewLogger()

	if err := biztime.Init(cfg.Traffic.Timezone); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize business timezone: %w", err)
	}

	if err := database.Init(&cfg.Database); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		database.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	cleanup := func() {
		if err := redisClient.Close(); err != nil {
			log.Warnw("failed to close redis client", "error", err)
		}
		database.Close()
	}

	userRepo := repository.NewUserRepository(database.Get(), log)
	planRepo := repository.NewPlanRepository(database.Get(), log)
	statRepo := repository.NewUserTrafficRepository(database.Get(), log)
	tm := db.NewTransactionManager(database.Get())

	bot := telegram.NewBotService(cfg.Telegram, log)
	mailer := email.NewMailer(cfg.Email, log)
	alerter := notification.NewCompositeAlerter(bot, mailer, log)

	// Range is validated at config load time.
	defaultPolicy, err := traffic.ParsePolicy(cfg.Traffic.DefaultResetPolicy)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	resetUC := usecases.NewResetTrafficUseCase(userRepo, planRepo, tm, alerter, defaultPolicy, log)

	flags := cache.NewTrialLimitStore(redisClient, log)
	trialUC := usecases.NewCheckTrialTrafficUseCase(userRepo, statRepo, flags, alerter, cfg.Traffic.TrialPlanID, log)

	return &App{
		Cfg:   cfg,
		Log:   log,
		Redis: redisClient,
		Plans: planRepo,
		Reset: resetUC,
		Trial: trialUC,
	}, cleanup, nil
}
