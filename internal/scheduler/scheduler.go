// Package scheduler runs the periodic background jobs (report dispatch,
// notification cleanup) as an explicit long-lived service. It is
// constructed and started from main, never as an import side effect.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/classtrack/classtrack-api/internal/observability"
)

// Handler is one job's unit of work. Handlers must be idempotent: a tick
// may fire again before operators notice a failure.
type Handler func(ctx context.Context) error

// JobStatus is the admin-visible state of one registered job.
type JobStatus struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Spec      string     `json:"spec"`
	IsRunning bool       `json:"is_running"`
	LastRun   *time.Time `json:"last_run,omitempty"`
	NextRun   *time.Time `json:"next_run,omitempty"`
	LastError string     `json:"last_error,omitempty"`
}

type job struct {
	id      string
	name    string
	spec    string
	handler Handler
	entryID cron.EntryID

	mu        sync.Mutex
	running   bool
	lastRun   *time.Time
	lastError string
}

// Scheduler wraps a cron runner with a typed job table. Job execution is
// isolated: a panic or error in one job never affects another's schedule,
// and a job still running when its next tick fires skips that tick.
type Scheduler struct {
	cron   *cron.Cron
	mu     sync.RWMutex
	jobs   map[string]*job
	order  []string
	logger zerolog.Logger
}

// New constructs an empty scheduler.
func New(logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		jobs:   make(map[string]*job),
		logger: logger.With().Str("component", "scheduler").Logger(),
	}
}

// Register adds a job under a standard five-field cron spec.
func (s *Scheduler) Register(id, name, spec string, handler Handler) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[id]; exists {
		return fmt.Errorf("job %q already registered", id)
	}

	j := &job{id: id, name: name, spec: spec, handler: handler}
	entryID, err := s.cron.AddFunc(spec, func() { s.run(j) })
	if err != nil {
		return fmt.Errorf("invalid cron spec %q for job %q: %w", spec, id, err)
	}
	j.entryID = entryID

	s.jobs[id] = j
	s.order = append(s.order, id)

	return nil
}

func (s *Scheduler) run(j *job) {
	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		s.logger.Warn().Str("job", j.id).Msg("previous run still in progress, skipping tick")
		observability.ScheduledJobRuns().WithLabelValues(j.id, "skipped").Inc()
		return
	}
	j.running = true
	j.mu.Unlock()

	started := time.Now()
	err := s.execute(j)

	j.mu.Lock()
	j.running = false
	j.lastRun = &started
	if err != nil {
		j.lastError = err.Error()
	} else {
		j.lastError = ""
	}
	j.mu.Unlock()

	if err != nil {
		observability.ScheduledJobRuns().WithLabelValues(j.id, "error").Inc()
		s.logger.Error().Err(err).Str("job", j.id).Dur("took", time.Since(started)).Msg("job failed")
		return
	}

	observability.ScheduledJobRuns().WithLabelValues(j.id, "ok").Inc()
	s.logger.Info().Str("job", j.id).Dur("took", time.Since(started)).Msg("job completed")
}

// execute runs the handler with panic isolation.
func (s *Scheduler) execute(j *job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return j.handler(context.Background())
}

// Start begins ticking. Safe to call once after all jobs are registered.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info().Int("jobs", len(s.jobs)).Msg("scheduler started")
}

// Stop halts future ticks; in-flight runs finish.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.logger.Info().Msg("scheduler stopped")
}

// RunNow triggers one job immediately, outside its schedule.
func (s *Scheduler) RunNow(id string) error {
	s.mu.RLock()
	j, ok := s.jobs[id]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("unknown job %q", id)
	}

	s.run(j)

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.lastError != "" {
		return fmt.Errorf("job %q failed: %s", id, j.lastError)
	}
	return nil
}

// Status reports every job in registration order.
func (s *Scheduler) Status() []JobStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	statuses := make([]JobStatus, 0, len(s.order))
	for _, id := range s.order {
		j := s.jobs[id]

		j.mu.Lock()
		status := JobStatus{
			ID:        j.id,
			Name:      j.name,
			Spec:      j.spec,
			IsRunning: j.running,
			LastRun:   j.lastRun,
			LastError: j.lastError,
		}
		j.mu.Unlock()

		if next := s.cron.Entry(j.entryID).Next; !next.IsZero() {
			status.NextRun = &next
		}
		statuses = append(statuses, status)
	}

	return statuses
}
