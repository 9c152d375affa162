package main

import (
	"fmt"

	"questcycle/internal/notify"
	"questcycle/internal/recurrence"
	"questcycle/internal/repository"
	"questcycle/internal/service"
	"questcycle/pkg/logger"

	"go.uber.org/zap"

	_ "time/tzdata"
)

// app holds the wiring shared by every command.
type app struct {
	cfg  *Config
	log  *zap.Logger
	repo *repository.Repository
	jobs *service.JobService
}

func newApp() (*app, error) {
	cfg, err := LoadConfig(configDir, configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Initialize(cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.Logger()

	repo, err := repository.New(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize repository: %w", err)
	}

	alerter, err := notify.New(cfg.Alerts)
	if err != nil {
		log.Warn("alerts disabled", zap.Error(err))
		alerter = notify.NopAlerter{}
	}

	if cfg.Recurrence.TestIntervalMinutes > 0 {
		log.Warn("recurrence uses fixed test intervals",
			zap.Int("minutes", cfg.Recurrence.TestIntervalMinutes))
	}
	clock := recurrence.NewClock(cfg.Recurrence.TestIntervalMinutes)

	generator := service.NewGeneratorService(repo, clock, log)
	expiration := service.NewExpirationService(repo, log)

	return &app{
		cfg:  cfg,
		log:  log,
		repo: repo,
		jobs: service.NewJobService(generator, expiration, alerter, log),
	}, nil
}

func (a *app) Close() {
	if err := a.repo.Close(); err != nil {
		a.log.Warn("failed to close repository", zap.Error(err))
	}
	_ = logger.Sync()
}
