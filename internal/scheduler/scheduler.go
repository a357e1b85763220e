// Package scheduler drives the periodic pipeline: sweeps at a fixed
// interval, processing after each sweep, and a daily retention pass.
package scheduler

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"newsdesk/internal/database"
	"newsdesk/internal/ingest"
)

// ErrBusy is returned when a sweep is requested while another sweep is
// already executing.
var ErrBusy = errors.New("a sweep is already running")

// stopTimeout bounds how long Stop waits for the worker to drain.
const stopTimeout = 30 * time.Second

// Pipeline is the work the scheduler drives. *ingest.Coordinator is the
// production implementation.
type Pipeline interface {
	Sweep(ctx context.Context) *ingest.Result
	ProcessPending(ctx context.Context) int
}

// Scheduler runs the pipeline on a timer and serves manual triggers.
// sweepMu is held for the full duration of any sweep, scheduled or
// manual, which is what guarantees that sweeps never overlap.
type Scheduler struct {
	pipeline      Pipeline
	db            *database.DB
	interval      time.Duration
	retentionDays int
	retentionHour int

	sweepMu sync.Mutex

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// New creates a stopped scheduler. retentionDays <= 0 disables the
// retention pass.
func New(pipeline Pipeline, db *database.DB, interval time.Duration, retentionDays, retentionHour int) *Scheduler {
	return &Scheduler{
		pipeline:      pipeline,
		db:            db,
		interval:      interval,
		retentionDays: retentionDays,
		retentionHour: retentionHour,
	}
}

// Start launches the worker goroutine. Starting a running scheduler is a
// no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	s.running = true

	go s.run(ctx)
	log.Printf("scheduler started, sweep interval %s", s.interval)
}

// Stop signals the worker and waits for it to drain, bounded by
// stopTimeout so a hung fetch cannot block shutdown forever. Stopping a
// stopped scheduler is a no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}

	s.cancel()
	select {
	case <-s.done:
	case <-time.After(stopTimeout):
		log.Printf("scheduler stop timed out after %s", stopTimeout)
	}
	s.running = false
}

// TriggerSweep runs a sweep and the processing pass synchronously. It
// returns ErrBusy without blocking when a sweep is already executing.
// Triggering does not require the scheduler to be started.
func (s *Scheduler) TriggerSweep(ctx context.Context) (*ingest.Result, error) {
	if !s.sweepMu.TryLock() {
		return nil, ErrBusy
	}
	defer s.sweepMu.Unlock()

	result := s.pipeline.Sweep(ctx)
	s.pipeline.ProcessPending(ctx)
	return result, nil
}

// run is the worker loop. It exits when ctx is canceled.
func (s *Scheduler) run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	retention := s.retentionTimer()
	if retention != nil {
		defer retention.Stop()
	}

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			s.runScheduled(ctx)

		case <-retentionChan(retention):
			s.runRetention()
			retention.Reset(time.Until(nextRetention(time.Now(), s.retentionHour)))
		}
	}
}

// runScheduled executes one scheduled sweep followed by the processing
// pass. A sweep still running from the previous tick is not stacked on;
// the tick is skipped.
func (s *Scheduler) runScheduled(ctx context.Context) {
	if !s.sweepMu.TryLock() {
		log.Printf("previous sweep still running, skipping this tick")
		return
	}
	defer s.sweepMu.Unlock()

	s.pipeline.Sweep(ctx)
	if processed := s.pipeline.ProcessPending(ctx); processed > 0 {
		log.Printf("processed %d pending articles", processed)
	}
}

// runRetention removes articles older than the retention window,
// regardless of their status.
func (s *Scheduler) runRetention() {
	removed, err := s.db.DeleteOlderThan(s.retentionDays)
	if err != nil {
		log.Printf("retention pass failed: %v", err)
		return
	}
	log.Printf("retention pass removed %d articles older than %d days", removed, s.retentionDays)
}

// retentionTimer returns a timer for the next retention run, or nil when
// retention is disabled.
func (s *Scheduler) retentionTimer() *time.Timer {
	if s.retentionDays <= 0 {
		return nil
	}
	return time.NewTimer(time.Until(nextRetention(time.Now(), s.retentionHour)))
}

// retentionChan adapts a possibly-nil timer for use in select; a nil
// timer yields a channel that never fires.
func retentionChan(t *time.Timer) <-chan time.Time {
	if t == nil {
		return nil
	}
	return t.C
}

// nextRetention returns the next occurrence of hour o'clock after now.
func nextRetention(now time.Time, hour int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next
}
