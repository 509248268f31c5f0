package usecase

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"StockResearch/internal/domain/models"
	"StockResearch/internal/service/budget"
	"StockResearch/internal/service/coalesce"
	"StockResearch/internal/store"
	"StockResearch/pkg/cache"
	"StockResearch/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepRefreshesOnlyStaleTrackedEntries(t *testing.T) {
	backend := cache.NewMemoryBackend()
	t.Cleanup(func() { _ = backend.Close() })

	st := store.New(backend, store.TTLPolicy{
		store.ClassQuote:   time.Millisecond,
		store.ClassProfile: time.Hour,
	})
	bt := budget.New(map[string]budget.Window{
		"alphavantage": {Limit: 100, Dur: time.Hour},
	})
	resolver := NewResolver(st, bt, coalesce.New(time.Second), nil, testMetrics, logger.Nop())
	ctx := context.Background()

	var staleCalls, freshCalls atomic.Int64
	staleReq := Request{
		Key: "quote:W1", Class: store.ClassQuote, Provider: "alphavantage",
		Fetch: staticFetch(`{"price":1}`, &staleCalls),
	}
	freshReq := Request{
		Key: "profile:W2", Class: store.ClassProfile, Provider: "alphavantage",
		Fetch: staticFetch(`{"name":"x"}`, &freshCalls),
	}

	// Seed both through the resolver so they get tracked, then let the
	// quote entry go stale.
	_, err := resolver.Resolve(ctx, staleReq)
	require.NoError(t, err)
	_, err = resolver.Resolve(ctx, freshReq)
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)

	w := NewWarmer(resolver, st, bt, time.Minute, 2, 0.2, logger.Nop())
	w.sweep(ctx)

	assert.Equal(t, int64(2), staleCalls.Load(), "stale entry must be refreshed")
	assert.Equal(t, int64(1), freshCalls.Load(), "fresh entry must be left alone")

	// The refreshed value is fresh again.
	res, err := resolver.Resolve(ctx, staleReq)
	require.NoError(t, err)
	assert.Equal(t, models.Fresh, res.Freshness)
}

func TestSweepRespectsBudgetHeadroom(t *testing.T) {
	backend := cache.NewMemoryBackend()
	t.Cleanup(func() { _ = backend.Close() })

	st := store.New(backend, store.TTLPolicy{store.ClassQuote: time.Millisecond})
	bt := budget.New(map[string]budget.Window{
		"alphavantage": {Limit: 10, Dur: time.Hour},
	})
	resolver := NewResolver(st, bt, coalesce.New(time.Second), nil, testMetrics, logger.Nop())
	ctx := context.Background()

	var calls atomic.Int64
	req := Request{
		Key: "quote:HR", Class: store.ClassQuote, Provider: "alphavantage",
		Fetch: staticFetch(`{"price":1}`, &calls),
	}
	_, err := resolver.Resolve(ctx, req)
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)

	// Drain the budget below the 50% headroom floor.
	for i := 0; i < 5; i++ {
		require.True(t, bt.TryReserve("alphavantage"))
	}

	w := NewWarmer(resolver, st, bt, time.Minute, 1, 0.5, logger.Nop())
	w.sweep(ctx)

	assert.Equal(t, int64(1), calls.Load(),
		"warmer must not spend budget below the headroom floor")
}
