package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Task is one unit of recurring work.
type Task func(ctx context.Context) error

// Scheduler runs a task on a fixed interval on a single goroutine, so runs
// are strictly serialized. Ticks that fire while a run is still in flight
// are not queued: the ticker holds at most one pending tick, so a long run
// is followed by at most one coalesced catch-up run.
type Scheduler struct {
	interval time.Duration
	log      zerolog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func New(interval time.Duration, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		interval: interval,
		log:      log.With().Str("component", "scheduler").Logger(),
	}
}

// Start launches the run loop: one run immediately, then one per interval
// tick until Stop is called or ctx is cancelled. Starting an already-running
// scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context, task Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.loop(runCtx, task)
}

// Stop cancels the run loop and waits for an in-flight run to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (s *Scheduler) loop(ctx context.Context, task Task) {
	defer close(s.done)

	s.runOnce(ctx, task)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("scheduler stopping")
			return
		case <-ticker.C:
			s.runOnce(ctx, task)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, task Task) {
	if ctx.Err() != nil {
		return
	}

	start := time.Now()
	if err := task(ctx); err != nil {
		s.log.Error().Err(err).Dur("elapsed", time.Since(start)).Msg("scheduled run failed")
		return
	}
	s.log.Debug().Dur("elapsed", time.Since(start)).Msg("scheduled run complete")
}
