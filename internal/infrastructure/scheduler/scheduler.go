// Package scheduler runs Synk Hub background jobs: periodic recommendation
// refresh and cleanup of expired recommendation batches.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/quickksynkk/synk-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// JOB INTERFACE
// ══════════════════════════════════════════════════════════════════════════════

// Job defines the interface that all scheduled jobs must implement.
type Job interface {
	// Name returns the unique name of the job.
	Name() string

	// Run executes the job.
	// The context is cancelled when the scheduler is stopping or the job times out.
	Run(ctx context.Context) error

	// Description returns a human-readable description of the job.
	Description() string
}

// Schedule defines when a job should run.
type Schedule interface {
	// Next returns the next time the job should run after the given time.
	Next(t time.Time) time.Time

	// String returns a human-readable representation of the schedule.
	String() string
}

// Observer receives the outcome of every job run, e.g. Prometheus metrics.
type Observer interface {
	ObserveJob(job string, err error, d time.Duration)
}

// JobResult contains the result of a job execution.
type JobResult struct {
	JobName     string
	StartedAt   time.Time
	CompletedAt time.Time
	Duration    time.Duration
	Success     bool
	Error       error
	Manual      bool
}

// ══════════════════════════════════════════════════════════════════════════════
// SCHEDULER
// ══════════════════════════════════════════════════════════════════════════════

// Config contains configuration for the Scheduler.
type Config struct {
	Logger *logger.Logger

	// Observer is notified after each run. Optional.
	Observer Observer

	// JobTimeout bounds a single run. Zero means no timeout.
	JobTimeout time.Duration

	// RunOnStart runs every enabled job once right after Start.
	RunOnStart bool

	// TickInterval is how often due jobs are checked. Default: 1s.
	TickInterval time.Duration

	// MaxHistorySize is the maximum number of job results to keep.
	MaxHistorySize int
}

// Scheduler manages and executes scheduled jobs. A job never overlaps with
// itself: a due job that is still running is skipped until the next tick.
type Scheduler struct {
	mu sync.RWMutex

	log      *logger.Logger
	observer Observer
	config   Config

	jobs      map[string]*scheduledJob
	running   bool
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	startedAt time.Time

	history []JobResult
}

type scheduledJob struct {
	job       Job
	schedule  Schedule
	enabled   bool
	inFlight  bool
	lastRun   time.Time
	nextRun   time.Time
	runCount  int64
	failCount int64
	last      *JobResult
}

// New creates a new Scheduler.
func New(config Config) *Scheduler {
	if config.Logger == nil {
		config.Logger = logger.Nop()
	}
	if config.TickInterval <= 0 {
		config.TickInterval = time.Second
	}
	if config.MaxHistorySize <= 0 {
		config.MaxHistorySize = 500
	}

	return &Scheduler{
		log:      config.Logger.With(logger.Component("scheduler")),
		observer: config.Observer,
		config:   config,
		jobs:     make(map[string]*scheduledJob),
		history:  make([]JobResult, 0, config.MaxHistorySize),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// JOB REGISTRATION
// ══════════════════════════════════════════════════════════════════════════════

// Register adds a job with the given schedule.
func (s *Scheduler) Register(job Job, schedule Schedule) error {
	if job == nil {
		return ErrNilJob
	}
	if schedule == nil {
		return ErrNilSchedule
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	name := job.Name()
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("%w: %s", ErrJobAlreadyExists, name)
	}

	sj := &scheduledJob{
		job:      job,
		schedule: schedule,
		enabled:  true,
		nextRun:  schedule.Next(time.Now()),
	}
	s.jobs[name] = sj

	s.log.Info("job registered",
		logger.String("job", name),
		logger.String("schedule", schedule.String()),
		logger.Time("next_run", sj.nextRun),
	)
	return nil
}

// SetEnabled enables or disables a job by name.
func (s *Scheduler) SetEnabled(jobName string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sj, exists := s.jobs[jobName]
	if !exists {
		return fmt.Errorf("%w: %s", ErrJobNotFound, jobName)
	}

	sj.enabled = enabled
	if enabled {
		sj.nextRun = sj.schedule.Next(time.Now())
	}
	s.log.Info("job toggled", logger.String("job", jobName), logger.Bool("enabled", enabled))
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// LIFECYCLE
// ══════════════════════════════════════════════════════════════════════════════

// Start begins the scheduler loop. The loop stops when ctx is cancelled or
// Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrSchedulerAlreadyRunning
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.running = true
	s.startedAt = time.Now()
	jobCount := len(s.jobs)
	s.mu.Unlock()

	s.log.Info("scheduler started", logger.Count(jobCount))

	if s.config.RunOnStart {
		s.dispatch(func(*scheduledJob) bool { return true })
	}

	s.wg.Add(1)
	go s.runLoop()

	return nil
}

// Stop cancels running jobs and waits for them to return.
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

	s.log.Info("scheduler stopped", logger.Duration("uptime", time.Since(s.startedAt)))
	return nil
}

// IsRunning returns true if the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// ══════════════════════════════════════════════════════════════════════════════
// SCHEDULER LOOP
// ══════════════════════════════════════════════════════════════════════════════

func (s *Scheduler) runLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			now := time.Now()
			s.dispatch(func(sj *scheduledJob) bool {
				return !sj.nextRun.IsZero() && !now.Before(sj.nextRun)
			})
		}
	}
}

// dispatch starts every enabled, idle job accepted by due.
func (s *Scheduler) dispatch(due func(*scheduledJob) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sj := range s.jobs {
		if !sj.enabled || sj.inFlight || !due(sj) {
			continue
		}
		sj.inFlight = true
		sj.lastRun = time.Now()
		sj.nextRun = sj.schedule.Next(sj.lastRun)
		sj.runCount++

		s.wg.Add(1)
		go func(sj *scheduledJob) {
			defer s.wg.Done()
			s.execute(s.ctx, sj, false)
		}(sj)
	}
}

// execute runs a job once and records the result.
func (s *Scheduler) execute(ctx context.Context, sj *scheduledJob, manual bool) JobResult {
	name := sj.job.Name()
	log := s.log.With(logger.String("job", name))

	if s.config.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.JobTimeout)
		defer cancel()
	}

	log.Info("job started", logger.Bool("manual", manual))

	startedAt := time.Now()
	err := s.safeRun(ctx, sj.job)
	completedAt := time.Now()

	result := JobResult{
		JobName:     name,
		StartedAt:   startedAt,
		CompletedAt: completedAt,
		Duration:    completedAt.Sub(startedAt),
		Success:     err == nil,
		Error:       err,
		Manual:      manual,
	}

	if s.observer != nil {
		s.observer.ObserveJob(name, err, result.Duration)
	}

	s.mu.Lock()
	if !manual {
		sj.inFlight = false
	}
	if err != nil {
		sj.failCount++
	}
	sj.last = &result
	s.history = append(s.history, result)
	if len(s.history) > s.config.MaxHistorySize {
		s.history = s.history[len(s.history)-s.config.MaxHistorySize:]
	}
	s.mu.Unlock()

	if err != nil {
		log.Error("job failed", logger.Latency(result.Duration), logger.Err(err))
	} else {
		log.Info("job completed", logger.Latency(result.Duration))
	}
	return result
}

// safeRun converts a job panic into an error so one job cannot take the
// worker down.
func (s *Scheduler) safeRun(ctx context.Context, job Job) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", ErrJobPanicked, p)
		}
	}()
	return job.Run(ctx)
}

// ══════════════════════════════════════════════════════════════════════════════
// MANUAL EXECUTION & STATUS
// ══════════════════════════════════════════════════════════════════════════════

// RunNow executes a job immediately, ignoring its schedule.
func (s *Scheduler) RunNow(ctx context.Context, jobName string) (JobResult, error) {
	s.mu.RLock()
	sj, exists := s.jobs[jobName]
	s.mu.RUnlock()

	if !exists {
		return JobResult{}, fmt.Errorf("%w: %s", ErrJobNotFound, jobName)
	}

	result := s.execute(ctx, sj, true)
	return result, result.Error
}

// JobInfo describes a registered job.
type JobInfo struct {
	Name        string
	Description string
	Enabled     bool
	Schedule    string
	LastRun     time.Time
	NextRun     time.Time
	RunCount    int64
	FailCount   int64
	LastResult  *JobResult
}

// ListJobs returns all registered jobs sorted by name.
func (s *Scheduler) ListJobs() []JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]JobInfo, 0, len(s.jobs))
	for name, sj := range s.jobs {
		infos = append(infos, JobInfo{
			Name:        name,
			Description: sj.job.Description(),
			Enabled:     sj.enabled,
			Schedule:    sj.schedule.String(),
			LastRun:     sj.lastRun,
			NextRun:     sj.nextRun,
			RunCount:    sj.runCount,
			FailCount:   sj.failCount,
			LastResult:  sj.last,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// History returns up to limit most recent results, oldest first.
func (s *Scheduler) History(limit int) []JobResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.history) {
		limit = len(s.history)
	}
	result := make([]JobResult, limit)
	copy(result, s.history[len(s.history)-limit:])
	return result
}

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	ErrNilJob                  = errors.New("job cannot be nil")
	ErrNilSchedule             = errors.New("schedule cannot be nil")
	ErrJobAlreadyExists        = errors.New("job already exists")
	ErrJobNotFound             = errors.New("job not found")
	ErrJobPanicked             = errors.New("job panicked")
	ErrSchedulerAlreadyRunning = errors.New("scheduler is already running")
	ErrSchedulerNotRunning     = errors.New("scheduler is not running")
)
