/*
sweeper.go - Stale draft cleanup

PURPOSE:
  Drafts hold the wizard's override map while a contract is being
  configured. When the wizard is abandoned the draft goes stale; the
  sweeper periodically deletes drafts not touched within the TTL.
  Confirmed schedules are never swept.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Runs once immediately on start
  - Stop waits for an in-flight sweep to finish

CONFIGURATION:
  - Interval: How often to sweep (default: 1 hour)
  - TTL: Maximum draft age since last update (default: 24 hours)
  - Enabled: Whether the sweeper is active (default: true)

USAGE:
  sweeper := NewDraftSweeper(store, logger, metrics)
  sweeper.Start()
  // ... later
  sweeper.Stop()

SEE ALSO:
  - contract/store.go: DraftStore.DeleteDraftsBefore
*/
package api

import (
	"context"
	"sync"
	"time"

	"github.com/warp/contract-engine/contract"
	"go.uber.org/zap"
)

// DraftSweeper deletes stale drafts on a ticker.
type DraftSweeper struct {
	Store    contract.DraftStore
	Interval time.Duration
	TTL      time.Duration
	Enabled  bool

	// Now is the clock used to compute the cutoff.
	Now func() time.Time

	log     *zap.Logger
	metrics *Metrics

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex

	// runMu guards lastRun; Stop holds mu while waiting on the goroutine.
	runMu   sync.Mutex
	lastRun time.Time
}

// NewDraftSweeper creates a sweeper with default interval and TTL.
func NewDraftSweeper(store contract.DraftStore, log *zap.Logger, metrics *Metrics) *DraftSweeper {
	if log == nil {
		log = zap.NewNop()
	}
	return &DraftSweeper{
		Store:    store,
		Interval: time.Hour,
		TTL:      24 * time.Hour,
		Enabled:  true,
		Now:      time.Now,
		log:      log.Named("sweeper"),
		metrics:  metrics,
	}
}

// Start begins the sweeper.
func (s *DraftSweeper) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.Enabled {
		s.log.Info("disabled, not starting")
		return
	}
	if s.ticker != nil {
		return
	}

	s.ticker = time.NewTicker(s.Interval)
	s.stop = make(chan struct{})
	s.wg.Add(1)

	go s.run(s.ticker, s.stop)

	s.log.Info("started", zap.Duration("interval", s.Interval), zap.Duration("ttl", s.TTL))
}

// Stop stops the sweeper.
func (s *DraftSweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticker != nil {
		s.ticker.Stop()
		close(s.stop)
		s.wg.Wait()
		s.ticker = nil
		s.log.Info("stopped")
	}
}

func (s *DraftSweeper) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer s.wg.Done()

	// Run immediately on start
	s.sweep()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-stop:
			return
		}
	}
}

// RunNow triggers an immediate sweep and returns how many drafts were
// removed.
func (s *DraftSweeper) RunNow() (int, error) {
	return s.sweepOnce(context.Background())
}

// LastRun returns when the sweeper last completed a sweep.
func (s *DraftSweeper) LastRun() time.Time {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	return s.lastRun
}

func (s *DraftSweeper) sweep() {
	if _, err := s.sweepOnce(context.Background()); err != nil {
		s.log.Error("sweep failed", zap.Error(err))
	}
}

func (s *DraftSweeper) sweepOnce(ctx context.Context) (int, error) {
	now := s.Now()
	cutoff := now.Add(-s.TTL)

	removed, err := s.Store.DeleteDraftsBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	if s.metrics != nil && removed > 0 {
		s.metrics.DraftsSwept.Add(float64(removed))
	}
	if removed > 0 {
		s.log.Info("swept stale drafts", zap.Int("removed", removed), zap.Time("cutoff", cutoff))
	} else {
		s.log.Debug("no stale drafts", zap.Time("cutoff", cutoff))
	}

	s.runMu.Lock()
	s.lastRun = now
	s.runMu.Unlock()
	return removed, nil
}
