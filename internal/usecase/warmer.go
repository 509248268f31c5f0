package usecase

import (
	"context"
	"time"

	"StockResearch/internal/service/budget"
	"StockResearch/internal/store"
	"StockResearch/pkg/logger"
)

// Warmer opportunistically refreshes stale cache entries for keys the
// resolver has seen before, but only while the provider budget has headroom
// to spare. Interactive traffic always wins: the warmer skips providers
// whose remaining budget has dropped below the configured fraction.
type Warmer struct {
	resolver *Resolver
	store    *store.Store
	budget   *budget.Tracker
	interval time.Duration
	workers  int
	headroom float64
	logger   *logger.Logger
}

// NewWarmer creates a Warmer.
func NewWarmer(resolver *Resolver, st *store.Store, bt *budget.Tracker, interval time.Duration, workers int, headroom float64, log *logger.Logger) *Warmer {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if workers <= 0 {
		workers = 2
	}
	if headroom <= 0 || headroom >= 1 {
		headroom = 0.5
	}
	return &Warmer{
		resolver: resolver,
		store:    st,
		budget:   bt,
		interval: interval,
		workers:  workers,
		headroom: headroom,
		logger:   log,
	}
}

// Run sweeps on a ticker until ctx is done.
func (w *Warmer) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

// sweep refreshes stale tracked entries through the resolver, bounded by the
// worker count.
func (w *Warmer) sweep(ctx context.Context) {
	requests := w.resolver.KnownRequests()
	if len(requests) == 0 {
		return
	}

	jobs := make(chan Request)
	done := make(chan struct{})

	for i := 0; i < w.workers; i++ {
		go func() {
			for req := range jobs {
				if _, err := w.resolver.Resolve(ctx, req); err != nil {
					w.logger.Debug("warm refresh failed",
						logger.String("key", req.Key), logger.Error(err))
				}
			}
			done <- struct{}{}
		}()
	}

	refreshed := 0
	for _, req := range requests {
		if ctx.Err() != nil {
			break
		}
		if !w.shouldRefresh(ctx, req) {
			continue
		}
		select {
		case jobs <- req:
			refreshed++
		case <-ctx.Done():
		}
	}
	close(jobs)
	for i := 0; i < w.workers; i++ {
		<-done
	}

	if refreshed > 0 {
		w.logger.Info("cache warm sweep", logger.Int("refreshed", refreshed))
	}
}

// shouldRefresh picks stale entries whose provider still has budget headroom.
// Keys that were never cached are left to interactive traffic.
func (w *Warmer) shouldRefresh(ctx context.Context, req Request) bool {
	entry, err := w.store.Get(ctx, req.Key)
	if err != nil || entry == nil {
		return false
	}
	if entry.FreshAt(time.Now()) {
		return false
	}

	remaining, tracked := w.budget.Remaining(req.Provider)
	if !tracked {
		return true
	}
	limit, _ := w.budget.Limit(req.Provider)
	return float64(remaining) > w.headroom*float64(limit)
}
