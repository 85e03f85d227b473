package sync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/parlwatch/hemicycle/pkg/models"
)

// SchedulerConfig holds the daily trigger settings
type SchedulerConfig struct {
	// TriggerAt is the daily wall-clock trigger time, "15:04" format
	TriggerAt string
	// Timezone is the IANA zone the trigger time is interpreted in
	Timezone string
	// RetryAfter is how long to wait before the single retry of a failed run
	RetryAfter time.Duration
}

// Runner is the slice of the orchestrator the scheduler drives
type Runner interface {
	Run(ctx context.Context, runType string) (*models.SyncRun, error)
}

// Scheduler fires one scheduled sync run per day. A failed run gets exactly
// one retry after a fixed interval, then waits for the next day.
type Scheduler struct {
	runner     Runner
	logger     ectologger.Logger
	triggerAt  string
	location   *time.Location
	retryAfter time.Duration

	mu      sync.Mutex
	running bool
	nextRun time.Time
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewScheduler creates a new Scheduler
func NewScheduler(runner Runner, cfg SchedulerConfig, logger ectologger.Logger) (*Scheduler, error) {
	if _, err := time.Parse("15:04", cfg.TriggerAt); err != nil {
		return nil, fmt.Errorf("invalid trigger time %q: %w", cfg.TriggerAt, err)
	}

	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}

	retryAfter := cfg.RetryAfter
	if retryAfter <= 0 {
		retryAfter = 30 * time.Minute
	}

	return &Scheduler{
		runner:     runner,
		logger:     logger,
		triggerAt:  cfg.TriggerAt,
		location:   location,
		retryAfter: retryAfter,
	}, nil
}

// Start launches the scheduling loop
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.nextRun = s.nextTrigger(time.Now())

	s.wg.Add(1)
	go s.loop()

	s.logger.Infof("Sync scheduler started, next run at %s", s.nextRun.Format(time.RFC3339))
}

// Stop halts the scheduling loop and waits for it to exit. A run already in
// flight finishes on its own.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("Sync scheduler stopped")
}

// Running reports whether the scheduling loop is active
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRunAt returns the next scheduled trigger time
func (s *Scheduler) NextRunAt() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return nil
	}
	next := s.nextRun
	return &next
}

func (s *Scheduler) loop() {
	defer s.wg.Done()

	for {
		s.mu.Lock()
		next := s.nextRun
		stopCh := s.stopCh
		s.mu.Unlock()

		timer := time.NewTimer(time.Until(next))
		select {
		case <-stopCh:
			timer.Stop()
			return
		case <-timer.C:
		}

		s.runOnce()

		s.mu.Lock()
		s.nextRun = s.nextTrigger(time.Now())
		s.mu.Unlock()
		s.logger.Infof("Next scheduled sync at %s", s.nextRun.Format(time.RFC3339))
	}
}

// runOnce executes the scheduled run with a single fixed-delay retry
func (s *Scheduler) runOnce() {
	ctx := context.Background()

	_, err := s.runner.Run(ctx, models.SyncTypeScheduled)
	if err == nil || errors.Is(err, ErrRunInProgress) {
		return
	}

	s.logger.WithError(err).Warnf("Scheduled sync failed, retrying in %s", s.retryAfter)

	timer := time.NewTimer(s.retryAfter)
	select {
	case <-s.stopCh:
		timer.Stop()
		return
	case <-timer.C:
	}

	if _, err := s.runner.Run(ctx, models.SyncTypeScheduled); err != nil {
		s.logger.WithError(err).Error("Scheduled sync retry failed, waiting for next scheduled run")
	}
}

// nextTrigger computes the next daily wall-clock trigger after now
func (s *Scheduler) nextTrigger(now time.Time) time.Time {
	parsed, _ := time.Parse("15:04", s.triggerAt)

	local := now.In(s.location)
	next := time.Date(local.Year(), local.Month(), local.Day(), parsed.Hour(), parsed.Minute(), 0, 0, s.location)
	if !next.After(local) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
