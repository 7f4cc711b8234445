/*
sweep.go - Scheduled reconciliation sweep

PURPOSE:
  A recurring background task that re-verifies every statement of every
  currently active term through the recomputation unit, compensating for
  missed or out-of-band mutations. Single global loop: a second Start
  while running is a no-op, not an error.

DESIGN:
  - Runs a background goroutine with a configurable interval (minutes,
    bounded to [1, 1440])
  - Runs one full sweep immediately on Start, then on every tick
  - Per-statement failures are recorded in the report, never fatal
  - Each statement's recomputation is bounded by a timeout so one stalled
    store call cannot block the remainder of the sweep

USAGE:
  sweeper := ledger.NewSweeper(engine)
  sweeper.Start(5)
  // ... later
  sweeper.Stop()

SEE ALSO:
  - recompute.go: The per-statement primitive this drives
*/
package ledger

import (
	"context"
	"log"
	"sync"
	"time"
)

const (
	MinSweepIntervalMinutes = 1
	MaxSweepIntervalMinutes = 1440

	// defaultItemTimeout bounds one statement's recomputation inside a sweep.
	defaultItemTimeout = 10 * time.Second
)

// Sweeper owns the sweep loop's lifecycle: stopped -> running on Start,
// running -> stopped on Stop.
type Sweeper struct {
	engine      *Engine
	itemTimeout time.Duration

	mu       sync.Mutex
	running  bool
	interval time.Duration
	ticker   *time.Ticker
	stop     chan struct{}
	wg       sync.WaitGroup
}

func NewSweeper(engine *Engine) *Sweeper {
	return &Sweeper{
		engine:      engine,
		itemTimeout: defaultItemTimeout,
	}
}

// SweepStatus reports whether the loop is active.
type SweepStatus struct {
	Running         bool
	IntervalMinutes int
	Message         string
}

// Start launches the sweep loop at the given interval. Starting an already
// running sweeper is a no-op.
func (s *Sweeper) Start(intervalMinutes int) error {
	if intervalMinutes < MinSweepIntervalMinutes || intervalMinutes > MaxSweepIntervalMinutes {
		return ErrInvalidInterval
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		log.Printf("[SWEEP] already running, ignoring start")
		return nil
	}

	s.interval = time.Duration(intervalMinutes) * time.Minute
	s.ticker = time.NewTicker(s.interval)
	s.stop = make(chan struct{})
	s.running = true
	s.wg.Add(1)

	go s.run()

	log.Printf("[SWEEP] started, interval %v", s.interval)
	return nil
}

// Stop halts the sweep loop. Stopping a stopped sweeper is a no-op.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.ticker.Stop()
	close(s.stop)
	s.wg.Wait()
	s.running = false
	log.Printf("[SWEEP] stopped")
}

// Status returns whether the loop is active and a human-readable message.
// It does not expose the last sweep's report.
func (s *Sweeper) Status() SweepStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := SweepStatus{Running: s.running}
	if s.running {
		st.IntervalMinutes = int(s.interval / time.Minute)
		st.Message = "Scheduled balance updates are running"
	} else {
		st.Message = "Scheduled balance updates are not running"
	}
	return st
}

func (s *Sweeper) run() {
	defer s.wg.Done()

	// Run immediately on start.
	s.sweep()

	for {
		select {
		case <-s.ticker.C:
			s.sweep()
		case <-s.stop:
			return
		}
	}
}

// sweep runs one full pass over the active terms. Errors never escape to
// the scheduler; they are logged and accumulated per term.
func (s *Sweeper) sweep() {
	report, err := s.engine.recomputeActiveTerms(context.Background(), s.itemTimeout)
	if err != nil {
		log.Printf("[SWEEP] sweep failed: %v", err)
		return
	}

	failed := 0
	for _, r := range report.Results {
		failed += len(r.Failures)
		if r.Err != "" {
			log.Printf("[SWEEP] term %s %s failed: %s", r.AcademicYear, r.Term, r.Err)
		}
	}
	log.Printf("[SWEEP] completed: %d statements updated across %d terms, %d failures", report.TotalUpdated, len(report.Results), failed)
}

// RunOnce triggers an immediate sweep outside the schedule and returns its
// report (for admin endpoints and tests).
func (s *Sweeper) RunOnce(ctx context.Context) (*RecalcReport, error) {
	return s.engine.recomputeActiveTerms(ctx, s.itemTimeout)
}
