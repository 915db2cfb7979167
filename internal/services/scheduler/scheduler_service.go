package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketpulse/internal/common"
)

var (
	// ErrJobRunning is returned when a job is triggered while already running.
	ErrJobRunning = errors.New("job is already running")

	// ErrJobNotFound is returned for an unregistered job name.
	ErrJobNotFound = errors.New("job not found")
)

// Handler runs one scheduled job.
type Handler func(ctx context.Context) error

// JobStatus describes a registered job.
type JobStatus struct {
	Name        string     `json:"name"`
	Schedule    string     `json:"schedule"`
	Description string     `json:"description"`
	Enabled     bool       `json:"enabled"`
	IsRunning   bool       `json:"is_running"`
	LastRun     *time.Time `json:"last_run,omitempty"`
	NextRun     *time.Time `json:"next_run,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
}

// jobEntry represents a registered job with metadata
type jobEntry struct {
	name        string
	schedule    string
	description string
	handler     Handler
	enabled     bool
	cronID      cron.EntryID
	lastRun     *time.Time
	isRunning   bool
	lastError   string
}

// Service runs registered jobs on cron schedules. A job is never run twice
// concurrently; a tick that arrives while the job is still running is skipped.
type Service struct {
	cron    *cron.Cron
	logger  arbor.ILogger
	jobMu   sync.Mutex // Protects jobs map and entry state
	jobs    map[string]*jobEntry
	running bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewService creates a scheduler evaluating schedules in loc (UTC when nil)
func NewService(loc *time.Location, logger arbor.ILogger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Service{
		cron:   cron.New(cron.WithLocation(loc)),
		logger: logger,
		jobs:   make(map[string]*jobEntry),
		ctx:    ctx,
		cancel: cancel,
	}
}

// RegisterJob adds a job. An empty schedule registers the job for manual
// triggering only.
func (s *Service) RegisterJob(name, schedule, description string, handler Handler) error {
	if schedule != "" {
		if err := common.ValidateSchedule(schedule); err != nil {
			return fmt.Errorf("invalid schedule for %s: %w", name, err)
		}
	}

	s.jobMu.Lock()
	defer s.jobMu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %s already registered", name)
	}

	entry := &jobEntry{
		name:        name,
		schedule:    schedule,
		description: description,
		handler:     handler,
		enabled:     schedule != "",
	}

	if entry.enabled {
		cronID, err := s.cron.AddFunc(schedule, func() {
			s.executeJob(name)
		})
		if err != nil {
			return fmt.Errorf("failed to add job to cron: %w", err)
		}
		entry.cronID = cronID
	}

	s.jobs[name] = entry

	s.logger.Info().
		Str("job_name", name).
		Str("schedule", schedule).
		Bool("enabled", entry.enabled).
		Msg("Job registered")

	return nil
}

// Start begins firing scheduled jobs
func (s *Service) Start() error {
	s.jobMu.Lock()
	defer s.jobMu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	s.cron.Start()
	s.running = true

	s.logger.Info().Int("jobs", len(s.jobs)).Msg("Scheduler started")
	return nil
}

// Stop halts the schedule, cancels running jobs and waits for them to return
func (s *Service) Stop() error {
	s.jobMu.Lock()
	if !s.running {
		s.jobMu.Unlock()
		s.cancel()
		s.wg.Wait()
		return nil
	}
	s.running = false
	s.jobMu.Unlock()

	stopCtx := s.cron.Stop()
	s.cancel()
	<-stopCtx.Done()
	s.wg.Wait()

	s.logger.Info().Msg("Scheduler stopped")
	return nil
}

// IsRunning reports whether the schedule is active
func (s *Service) IsRunning() bool {
	s.jobMu.Lock()
	defer s.jobMu.Unlock()
	return s.running
}

// TriggerJob runs a job immediately in the background
func (s *Service) TriggerJob(name string) error {
	s.jobMu.Lock()
	entry, exists := s.jobs[name]
	if !exists {
		s.jobMu.Unlock()
		return fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	if entry.isRunning {
		s.jobMu.Unlock()
		return fmt.Errorf("%w: %s", ErrJobRunning, name)
	}
	s.jobMu.Unlock()

	s.logger.Info().
		Str("job_name", name).
		Msg("Manually triggering job execution")

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.executeJob(name)
	}()

	return nil
}

// GetJobStatus returns the state of one job
func (s *Service) GetJobStatus(name string) (*JobStatus, error) {
	s.jobMu.Lock()
	defer s.jobMu.Unlock()

	entry, exists := s.jobs[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	return s.statusLocked(entry), nil
}

// GetAllJobStatuses returns every job's state ordered by name
func (s *Service) GetAllJobStatuses() []*JobStatus {
	s.jobMu.Lock()
	defer s.jobMu.Unlock()

	statuses := make([]*JobStatus, 0, len(s.jobs))
	for _, entry := range s.jobs {
		statuses = append(statuses, s.statusLocked(entry))
	}
	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].Name < statuses[j].Name
	})
	return statuses
}

func (s *Service) statusLocked(entry *jobEntry) *JobStatus {
	var nextRun *time.Time
	if entry.enabled {
		next := s.cron.Entry(entry.cronID).Next
		if !next.IsZero() {
			nextRun = &next
		}
	}

	return &JobStatus{
		Name:        entry.name,
		Schedule:    entry.schedule,
		Description: entry.description,
		Enabled:     entry.enabled,
		IsRunning:   entry.isRunning,
		LastRun:     entry.lastRun,
		NextRun:     nextRun,
		LastError:   entry.lastError,
	}
}

// executeJob runs the handler unless the job is already running
func (s *Service) executeJob(name string) {
	s.jobMu.Lock()
	entry, exists := s.jobs[name]
	if !exists {
		s.jobMu.Unlock()
		s.logger.Warn().Str("job_name", name).Msg("Job not found")
		return
	}
	if entry.isRunning {
		s.jobMu.Unlock()
		s.logger.Warn().
			Str("job_name", name).
			Msg("Job still running from previous trigger, skipping")
		return
	}
	entry.isRunning = true
	handler := entry.handler
	s.jobMu.Unlock()

	started := time.Now()
	s.logger.Info().Str("job_name", name).Msg("Job execution started")

	err := common.SafeCall(s.logger, name, func() error {
		return handler(s.ctx)
	})

	completed := time.Now()
	s.jobMu.Lock()
	entry.isRunning = false
	entry.lastRun = &completed
	if err != nil {
		entry.lastError = err.Error()
	} else {
		entry.lastError = ""
	}
	s.jobMu.Unlock()

	if err != nil {
		s.logger.Error().
			Str("job_name", name).
			Err(err).
			Str("duration", completed.Sub(started).String()).
			Msg("Job execution failed")
		return
	}

	s.logger.Info().
		Str("job_name", name).
		Str("duration", completed.Sub(started).String()).
		Msg("Job execution completed")
}
