package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	name string
	runs atomic.Int32
	err  error
}

func (j *countingJob) Name() string        { return j.name }
func (j *countingJob) Description() string { return "counts runs" }
func (j *countingJob) Run(context.Context) error {
	j.runs.Add(1)
	return j.err
}

func quietScheduler(runOnStart bool) *Scheduler {
	return NewScheduler(SchedulerConfig{
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		RunOnStart: runOnStart,
	})
}

func TestRegister(t *testing.T) {
	s := quietScheduler(true)
	job := &countingJob{name: "a"}

	require.NoError(t, s.Register(job, Every(time.Second)))
	assert.ErrorIs(t, s.Register(job, Every(time.Second)), ErrJobAlreadyExists)
	assert.ErrorIs(t, s.Register(nil, Every(time.Second)), ErrNilJob)
	assert.ErrorIs(t, s.Register(&countingJob{name: "b"}, nil), ErrNilSchedule)
}

func TestRunsOnStartAndOnInterval(t *testing.T) {
	s := quietScheduler(true)
	job := &countingJob{name: "tick"}
	require.NoError(t, s.Register(job, Every(20*time.Millisecond)))

	require.NoError(t, s.Start(context.Background()))
	assert.ErrorIs(t, s.Start(context.Background()), ErrSchedulerAlreadyRunning)

	assert.Eventually(t, func() bool { return job.runs.Load() >= 3 }, time.Second, 5*time.Millisecond)

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
	assert.ErrorIs(t, s.Stop(), ErrSchedulerNotRunning)

	stats, err := s.Stats("tick")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, stats.RunCount, int64(3))
	assert.Equal(t, "@every 20ms", stats.Schedule)
	require.NotNil(t, stats.LastRun)
	assert.True(t, stats.LastRun.Success)
}

func TestWaitsForFirstIntervalWithoutRunOnStart(t *testing.T) {
	s := quietScheduler(false)
	job := &countingJob{name: "late"}
	require.NoError(t, s.Register(job, Every(time.Hour)))

	require.NoError(t, s.Start(context.Background()))
	time.Sleep(30 * time.Millisecond)
	require.NoError(t, s.Stop())

	assert.Equal(t, int32(0), job.runs.Load())
}

func TestFailedRunKeepsLooping(t *testing.T) {
	s := quietScheduler(true)
	job := &countingJob{name: "failing", err: errors.New("boom")}
	require.NoError(t, s.Register(job, Every(10*time.Millisecond)))

	var reported atomic.Int32
	s.OnJobError(func(name string, err error) {
		assert.Equal(t, "failing", name)
		reported.Add(1)
	})

	require.NoError(t, s.Start(context.Background()))
	assert.Eventually(t, func() bool { return reported.Load() >= 2 }, time.Second, 5*time.Millisecond)
	require.NoError(t, s.Stop())

	stats, err := s.Stats("failing")
	require.NoError(t, err)
	assert.Equal(t, stats.RunCount, stats.FailCount)

	_, err = s.Stats("missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
}
