package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"questcycle/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordingJob struct {
	mu        sync.Mutex
	calls     int
	deadlines []bool
}

func (j *recordingJob) RunAll(ctx context.Context) *model.JobReport {
	j.mu.Lock()
	defer j.mu.Unlock()
	_, ok := ctx.Deadline()
	j.calls++
	j.deadlines = append(j.deadlines, ok)
	return &model.JobReport{Success: true}
}

func (j *recordingJob) Calls() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.calls
}

func runInBackground(ctx context.Context, s *Scheduler) <-chan error {
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	return done
}

func TestScheduler_RunsOnInterval(t *testing.T) {
	job := &recordingJob{}
	s := New(job, Config{Interval: 10 * time.Millisecond, RunTimeout: time.Second}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := runInBackground(ctx, s)

	assert.Eventually(t, func() bool { return job.Calls() >= 3 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}

	job.mu.Lock()
	defer job.mu.Unlock()
	for _, hasDeadline := range job.deadlines {
		assert.True(t, hasDeadline)
	}
}

func TestScheduler_RunOnStart(t *testing.T) {
	job := &recordingJob{}
	s := New(job, Config{Interval: time.Hour, RunOnStart: true}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := runInBackground(ctx, s)

	assert.Eventually(t, func() bool { return job.Calls() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	assert.Equal(t, 1, job.Calls())
	assert.Equal(t, []bool{false}, job.deadlines)
}

func TestScheduler_StopsWithoutRunning(t *testing.T) {
	job := &recordingJob{}
	s := New(job, Config{Interval: time.Hour}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, s.Run(ctx))
	assert.Equal(t, 0, job.Calls())
}

func TestNew_DefaultInterval(t *testing.T) {
	s := New(&recordingJob{}, Config{}, nil)
	assert.Equal(t, 5*time.Minute, s.interval)
}
