package scheduler

import (
	"context"
	"time"

	"questcycle/internal/model"
	"questcycle/pkg/logger"

	"go.uber.org/zap"
)

type Config struct {
	Enabled    bool          `mapstructure:"enabled"`
	Interval   time.Duration `mapstructure:"interval"`
	RunTimeout time.Duration `mapstructure:"runTimeout"`
	RunOnStart bool          `mapstructure:"runOnStart"`
}

// Job is one scheduled pass over the recurring quests.
type Job interface {
	RunAll(ctx context.Context) *model.JobReport
}

// Scheduler runs Job on a fixed interval. Runs are sequential; ticks missed
// during a long run collapse into one.
type Scheduler struct {
	job      Job
	interval time.Duration
	timeout  time.Duration
	onStart  bool
	log      *zap.Logger
}

func New(job Job, cfg Config, log *zap.Logger) *Scheduler {
	if log == nil {
		log = logger.Logger()
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Scheduler{
		job:      job,
		interval: interval,
		timeout:  cfg.RunTimeout,
		onStart:  cfg.RunOnStart,
		log:      log.Named("scheduler"),
	}
}

// Run blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info("scheduler started",
		zap.Duration("interval", s.interval),
		zap.Duration("run_timeout", s.timeout),
	)

	if s.onStart {
		s.tick(ctx)
	}

	for {
		select {
		case <-ticker.C:
			s.tick(ctx)
		case <-ctx.Done():
			s.log.Info("scheduler stopped")
			return nil
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	runCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	report := s.job.RunAll(runCtx)
	if report == nil {
		return
	}

	s.log.Debug("scheduled run finished",
		zap.Bool("success", report.Success),
		zap.Int("errors", report.ErrorCount()),
	)
}
