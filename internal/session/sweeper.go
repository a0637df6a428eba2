package session

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const defaultSweepInterval = 1 * time.Minute

// Sweeper periodically evicts expired sessions. Advisory only: every read
// path re-checks expiry, so the service stays correct if this never runs.
type Sweeper struct {
	store    *Store
	logger   *slog.Logger
	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

func NewSweeper(store *Store, interval time.Duration, logger *slog.Logger) *Sweeper {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	return &Sweeper{
		store:    store,
		logger:   logger.With("component", "session_sweeper"),
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

func (s *Sweeper) Start(ctx context.Context) {
	s.logger.Info("Starting session sweeper", "interval", s.interval)

	s.wg.Add(1)
	go s.run(ctx)
}

func (s *Sweeper) Stop() {
	close(s.stopCh)
	s.wg.Wait()
	s.logger.Info("Session sweeper stopped")
}

func (s *Sweeper) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			if evicted := s.store.Sweep(); evicted > 0 {
				s.logger.Debug("Evicted expired sessions", "count", evicted)
			}
		}
	}
}
