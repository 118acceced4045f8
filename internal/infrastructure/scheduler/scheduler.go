// Package scheduler runs background jobs on fixed schedules. Each job has its
// own loop, so a slow run delays only that job and runs never overlap.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// JOB INTERFACE
// ══════════════════════════════════════════════════════════════════════════════

// Job defines the interface that all scheduled jobs must implement.
type Job interface {
	// Name returns the unique name of the job.
	Name() string

	// Run executes the job once.
	// The context is cancelled when the scheduler is stopping.
	Run(ctx context.Context) error

	// Description returns a human-readable description of the job.
	Description() string
}

// Schedule defines when a job should run.
type Schedule interface {
	// Next returns the next run time after a run that started at t.
	Next(t time.Time) time.Time

	// String returns a human-readable representation of the schedule.
	String() string
}

// JobResult contains the result of a job execution.
type JobResult struct {
	JobName     string
	StartedAt   time.Time
	CompletedAt time.Time
	Duration    time.Duration
	Success     bool
	Error       error
}

var (
	ErrNilJob                  = errors.New("job cannot be nil")
	ErrNilSchedule             = errors.New("schedule cannot be nil")
	ErrJobAlreadyExists        = errors.New("job already exists")
	ErrJobNotFound             = errors.New("job not found")
	ErrSchedulerAlreadyRunning = errors.New("scheduler is already running")
	ErrSchedulerNotRunning     = errors.New("scheduler is not running")
)

// ══════════════════════════════════════════════════════════════════════════════
// SCHEDULER
// ══════════════════════════════════════════════════════════════════════════════

// scheduledJob wraps a Job with scheduling information.
type scheduledJob struct {
	job       Job
	schedule  Schedule
	runCount  int64
	failCount int64
	last      *JobResult
}

// SchedulerConfig contains configuration for the Scheduler.
type SchedulerConfig struct {
	Logger *slog.Logger

	// RunOnStart runs every job once as soon as the scheduler starts
	// instead of waiting for the first interval.
	RunOnStart bool
}

// DefaultSchedulerConfig returns sensible defaults.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Logger:     slog.Default(),
		RunOnStart: true,
	}
}

// Scheduler manages and executes scheduled jobs.
type Scheduler struct {
	mu sync.RWMutex

	logger     *slog.Logger
	runOnStart bool

	jobs      map[string]*scheduledJob
	running   bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	startedAt time.Time

	onJobError func(jobName string, err error)
}

// NewScheduler creates a new Scheduler with the given configuration.
func NewScheduler(config SchedulerConfig) *Scheduler {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return &Scheduler{
		logger:     config.Logger,
		runOnStart: config.RunOnStart,
		jobs:       make(map[string]*scheduledJob),
	}
}

// OnJobError sets a hook called after every failed run.
func (s *Scheduler) OnJobError(fn func(jobName string, err error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onJobError = fn
}

// Register adds a job. Jobs must be registered before Start.
func (s *Scheduler) Register(job Job, schedule Schedule) error {
	if job == nil {
		return ErrNilJob
	}
	if schedule == nil {
		return ErrNilSchedule
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrSchedulerAlreadyRunning
	}

	name := job.Name()
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("%w: %s", ErrJobAlreadyExists, name)
	}

	s.jobs[name] = &scheduledJob{job: job, schedule: schedule}

	s.logger.Info("job registered",
		"job", name,
		"description", job.Description(),
		"schedule", schedule.String(),
	)
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// LIFECYCLE
// ══════════════════════════════════════════════════════════════════════════════

// Start launches one loop per registered job.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrSchedulerAlreadyRunning
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.running = true
	s.startedAt = time.Now()

	for _, sj := range s.jobs {
		s.wg.Add(1)
		go s.loop(ctx, sj)
	}

	s.logger.Info("scheduler started", "jobs_count", len(s.jobs))
	return nil
}

// Stop cancels every loop and waits for in-flight runs to return.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.running = false
	s.cancel()
	s.mu.Unlock()

	s.wg.Wait()

	s.logger.Info("scheduler stopped", "uptime", time.Since(s.startedAt).String())
	return nil
}

// IsRunning returns true if the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// loop runs one job until ctx is done.
func (s *Scheduler) loop(ctx context.Context, sj *scheduledJob) {
	defer s.wg.Done()

	next := time.Now()
	if !s.runOnStart {
		next = sj.schedule.Next(next)
	}

	timer := time.NewTimer(time.Until(next))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		started := time.Now()
		s.runJob(ctx, sj)

		wait := time.Until(sj.schedule.Next(started))
		if wait < 0 {
			wait = 0
		}
		timer.Reset(wait)
	}
}

// runJob executes a single job and records the result.
func (s *Scheduler) runJob(ctx context.Context, sj *scheduledJob) {
	jobName := sj.job.Name()
	startedAt := time.Now()

	err := sj.job.Run(ctx)
	completedAt := time.Now()

	result := &JobResult{
		JobName:     jobName,
		StartedAt:   startedAt,
		CompletedAt: completedAt,
		Duration:    completedAt.Sub(startedAt),
		Success:     err == nil,
		Error:       err,
	}

	s.mu.Lock()
	sj.runCount++
	if err != nil {
		sj.failCount++
	}
	sj.last = result
	onJobError := s.onJobError
	s.mu.Unlock()

	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger.Error("job failed",
			"job", jobName,
			"duration", result.Duration.String(),
			"error", err,
		)
		if onJobError != nil {
			onJobError(jobName, err)
		}
		return
	}

	s.logger.Debug("job completed", "job", jobName, "duration", result.Duration.String())
}

// ══════════════════════════════════════════════════════════════════════════════
// INTROSPECTION
// ══════════════════════════════════════════════════════════════════════════════

// JobStats summarizes one job.
type JobStats struct {
	Name      string
	Schedule  string
	RunCount  int64
	FailCount int64
	LastRun   *JobResult
}

// Stats returns stats for a job by name.
func (s *Scheduler) Stats(jobName string) (JobStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sj, ok := s.jobs[jobName]
	if !ok {
		return JobStats{}, fmt.Errorf("%w: %s", ErrJobNotFound, jobName)
	}

	stats := JobStats{
		Name:      jobName,
		Schedule:  sj.schedule.String(),
		RunCount:  sj.runCount,
		FailCount: sj.failCount,
	}
	if sj.last != nil {
		last := *sj.last
		stats.LastRun = &last
	}
	return stats, nil
}
