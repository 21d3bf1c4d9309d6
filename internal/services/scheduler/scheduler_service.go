package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/equitydb/internal/common"
)

// Task is one scheduled unit of work
type Task func(ctx context.Context) error

// jobEntry tracks a registered task
type jobEntry struct {
	name      string
	schedule  string
	task      Task
	cronID    cron.EntryID
	lastRun   *time.Time
	isRunning bool
	lastError string
}

// Service runs registered tasks on cron schedules. A task never overlaps
// with itself: a tick that arrives while the previous run is still going
// is skipped.
type Service struct {
	cron    *cron.Cron
	logger  arbor.ILogger
	ctx     context.Context
	cancel  context.CancelFunc
	mu      sync.Mutex
	jobs    map[string]*jobEntry
	running bool
}

// NewService creates a scheduler using standard 5-field cron expressions
func NewService(logger arbor.ILogger) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		cron:   cron.New(),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
		jobs:   make(map[string]*jobEntry),
	}
}

// Register adds a task under name on schedule
func (s *Service) Register(name, schedule string, task Task) error {
	if err := common.ValidateSchedule(schedule); err != nil {
		return fmt.Errorf("job %s: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %s already registered", name)
	}

	entry := &jobEntry{name: name, schedule: schedule, task: task}
	id, err := s.cron.AddFunc(schedule, func() { s.execute(entry) })
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}
	entry.cronID = id
	s.jobs[name] = entry

	s.logger.Info().Str("job", name).Str("schedule", schedule).Msg("Job registered")
	return nil
}

// Start begins firing registered jobs
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}
	s.cron.Start()
	s.running = true

	for _, entry := range s.jobs {
		s.logger.Info().
			Str("job", entry.name).
			Str("next_run", s.cron.Entry(entry.cronID).Next.Format(time.RFC3339)).
			Msg("Job scheduled")
	}
	s.logger.Info().Msg("Scheduler started")
	return nil
}

// Stop cancels in-flight tasks, including a RunNow issued before Start,
// and waits for cron-fired tasks to return
func (s *Service) Stop() error {
	s.mu.Lock()
	wasRunning := s.running
	s.running = false
	s.mu.Unlock()

	s.cancel()
	if !wasRunning {
		return nil
	}
	<-s.cron.Stop().Done()

	s.logger.Info().Msg("Scheduler stopped")
	return nil
}

// RunNow executes a registered job immediately on the caller's goroutine
func (s *Service) RunNow(name string) error {
	s.mu.Lock()
	entry, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("job %s not registered", name)
	}
	s.execute(entry)

	s.mu.Lock()
	defer s.mu.Unlock()
	if entry.lastError != "" {
		return fmt.Errorf("job %s: %s", name, entry.lastError)
	}
	return nil
}

// NextRun returns when the job fires next, zero if unknown or not started
func (s *Service) NextRun(name string) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.jobs[name]
	if !ok {
		return time.Time{}
	}
	return s.cron.Entry(entry.cronID).Next
}

func (s *Service) execute(entry *jobEntry) {
	s.mu.Lock()
	if entry.isRunning {
		s.mu.Unlock()
		s.logger.Warn().Str("job", entry.name).Msg("Previous run still in progress - skipping")
		return
	}
	entry.isRunning = true
	s.mu.Unlock()

	started := time.Now()
	var err error
	defer func() {
		s.mu.Lock()
		entry.isRunning = false
		entry.lastRun = &started
		entry.lastError = ""
		if err != nil {
			entry.lastError = err.Error()
		}
		s.mu.Unlock()
	}()
	defer common.RecoverAndLog(s.logger, entry.name)

	s.logger.Info().Str("job", entry.name).Msg("Scheduled job started")
	err = entry.task(s.ctx)
	if err != nil {
		s.logger.Error().Err(err).Str("job", entry.name).Msg("Scheduled job failed")
		return
	}
	s.logger.Info().
		Str("job", entry.name).
		Str("duration", time.Since(started).Round(time.Millisecond).String()).
		Msg("Scheduled job completed")
}
