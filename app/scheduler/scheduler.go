package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/tubetab/tubetab/app/aggregator"
)

// Loader runs an aggregation pass.
type Loader interface {
	Load(ctx context.Context, req aggregator.Request) (*aggregator.Result, error)
}

// CacheChecker reports whether the stored result is still fresh.
type CacheChecker interface {
	IsValid() bool
}

// Scheduler keeps the cache warm: it checks staleness on a fixed interval and
// triggers a refresh whenever the TTL has lapsed. An in-flight refresh is
// never doubled up.
type Scheduler struct {
	loader   Loader
	cache    CacheChecker
	interval time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

func NewScheduler(loader Loader, cache CacheChecker, interval time.Duration) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		loader:   loader,
		cache:    cache,
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (s *Scheduler) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		// Populate the cache on startup instead of waiting a full interval
		s.refreshIfStale()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.refreshIfStale()
			}
		}
	}()

	slog.Debug("Scheduler started", "interval", s.interval)
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) refreshIfStale() {
	if s.cache.IsValid() {
		return
	}

	slog.Debug("Cache stale, triggering refresh")

	_, err := s.loader.Load(s.ctx, aggregator.Request{})
	switch {
	case errors.Is(err, aggregator.ErrRefreshInProgress):
		slog.Debug("Refresh already running, skipping scheduled pass")
	case err != nil:
		slog.Warn("Scheduled refresh failed", "error", err)
	}
}
