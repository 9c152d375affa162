package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"questcycle/internal/model"
	"questcycle/pkg/logger"

	"go.uber.org/zap"
)

const (
	JobRecurringQuests = "recurring-quests"
	JobGenerate        = "generate"
	JobExpire          = "expire"
)

type nopAlerter struct{}

func (nopAlerter) Alert(context.Context, string, *model.JobReport) error { return nil }

// JobService runs the engines one at a time and reports failed runs.
type JobService struct {
	generator  GeneratorServiceI
	expiration ExpirationServiceI
	alerter    Alerter
	now        func() time.Time
	log        *zap.Logger

	mu sync.Mutex
}

func NewJobService(generator GeneratorServiceI, expiration ExpirationServiceI, alerter Alerter, log *zap.Logger) *JobService {
	if alerter == nil {
		alerter = nopAlerter{}
	}
	if log == nil {
		log = logger.Logger()
	}
	return &JobService{
		generator:  generator,
		expiration: expiration,
		alerter:    alerter,
		now:        time.Now,
		log:        log.Named("jobs"),
	}
}

// RunAll expires the previous cycle before generating the current one.
func (s *JobService) RunAll(ctx context.Context) *model.JobReport {
	return s.run(ctx, JobRecurringQuests, func(report *model.JobReport) {
		report.Expiration = s.expire(ctx)
		report.Generation = s.generate(ctx)
	})
}

func (s *JobService) RunGeneration(ctx context.Context) *model.JobReport {
	return s.run(ctx, JobGenerate, func(report *model.JobReport) {
		report.Generation = s.generate(ctx)
	})
}

func (s *JobService) RunExpiration(ctx context.Context) *model.JobReport {
	return s.run(ctx, JobExpire, func(report *model.JobReport) {
		report.Expiration = s.expire(ctx)
	})
}

// Run dispatches by job name.
func (s *JobService) Run(ctx context.Context, job string) (*model.JobReport, error) {
	switch job {
	case JobRecurringQuests, "all":
		return s.RunAll(ctx), nil
	case JobGenerate:
		return s.RunGeneration(ctx), nil
	case JobExpire:
		return s.RunExpiration(ctx), nil
	default:
		return nil, fmt.Errorf("unknown job %q", job)
	}
}

func (s *JobService) run(ctx context.Context, job string, body func(report *model.JobReport)) *model.JobReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	report := &model.JobReport{StartedAt: s.now()}
	body(report)
	report.FinishedAt = s.now()
	report.Success = report.ErrorCount() == 0 &&
		(report.Expiration == nil || report.Expiration.Success) &&
		(report.Generation == nil || report.Generation.Success)

	fields := []zap.Field{
		zap.String("job", job),
		zap.Bool("success", report.Success),
		zap.Int("errors", report.ErrorCount()),
		zap.Duration("took", report.FinishedAt.Sub(report.StartedAt)),
	}
	if report.Success {
		s.log.Info("job finished", fields...)
		return report
	}

	s.log.Error("job finished with errors", fields...)
	if err := s.alerter.Alert(ctx, job, report); err != nil {
		s.log.Warn("failed to send job alert", zap.String("job", job), zap.Error(err))
	}

	return report
}

// generate and expire turn a panicking engine into a failed result.
func (s *JobService) generate(ctx context.Context) (result *model.GenerationResult) {
	defer func() {
		if r := recover(); r != nil {
			result = &model.GenerationResult{
				Aborted: true,
				Errors:  []string{fmt.Sprintf("Unexpected error during quest generation: %v", r)},
			}
		}
	}()
	return s.generator.Generate(ctx)
}

func (s *JobService) expire(ctx context.Context) (result *model.ExpirationResult) {
	defer func() {
		if r := recover(); r != nil {
			result = &model.ExpirationResult{
				Aborted: true,
				Errors:  []string{fmt.Sprintf("Unexpected error during quest expiration: %v", r)},
			}
		}
	}()
	return s.expiration.Expire(ctx)
}
