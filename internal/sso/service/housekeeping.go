package service

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Pruner drops expired entries from an in-process cache and reports how
// many were removed.
type Pruner interface {
	Prune() int
}

// HousekeepingService periodically drops expired grant redemptions so the
// in-memory ledger doesn't grow without bound.
type HousekeepingService struct {
	Pruners  map[string]Pruner
	Logger   *slog.Logger
	Interval time.Duration

	started  atomic.Bool
	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewHousekeepingService creates a housekeeping service. A non-positive
// interval defaults to one minute.
func NewHousekeepingService(pruners map[string]Pruner, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = time.Minute
	}

	return &HousekeepingService{
		Pruners:  pruners,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start runs cleanup in the background until Stop is called.
func (s *HousekeepingService) Start() {
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop blocks until any in-progress cleanup has finished. It is a no-op
// if the service was never started.
func (s *HousekeepingService) Stop() {
	if !s.started.Load() {
		return
	}
	s.stopOnce.Do(func() {
		close(s.stopCh)
		<-s.doneCh
		s.Logger.Info("housekeeping service stopped")
	})
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.cleanup()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCh:
			return
		}
	}
}

func (s *HousekeepingService) cleanup() {
	var total int
	for name, p := range s.Pruners {
		n := p.Prune()
		total += n
		if n > 0 {
			s.Logger.Debug("pruned expired entries", "cache", name, "count", n)
		}
	}
	s.Logger.Debug("housekeeping cleanup completed", "pruned", total)
}
