package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"StockResearch/internal/domain/models"
	"StockResearch/internal/service/budget"
	"StockResearch/internal/service/coalesce"
	"StockResearch/internal/store"
	"StockResearch/pkg/cache"
	"StockResearch/pkg/logger"
	"StockResearch/pkg/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Promauto registers against the default registry, so one recorder is
// shared across all tests in this package.
var testMetrics = metrics.New()

type recordingAudit struct {
	mu      sync.Mutex
	records []models.CallRecord
}

func (a *recordingAudit) Record(_ context.Context, rec models.CallRecord) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = append(a.records, rec)
}

func (a *recordingAudit) outcomes() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.records))
	for _, r := range a.records {
		out = append(out, r.Outcome)
	}
	return out
}

type resolverFixture struct {
	store    *store.Store
	budget   *budget.Tracker
	audit    *recordingAudit
	resolver *Resolver
}

func newResolverFixture(t *testing.T, policy store.TTLPolicy, windows map[string]budget.Window) *resolverFixture {
	t.Helper()
	backend := cache.NewMemoryBackend()
	t.Cleanup(func() { _ = backend.Close() })

	st := store.New(backend, policy)
	bt := budget.New(windows)
	audit := &recordingAudit{}
	resolver := NewResolver(st, bt, coalesce.New(time.Second), audit, testMetrics, logger.Nop())
	return &resolverFixture{store: st, budget: bt, audit: audit, resolver: resolver}
}

func staticFetch(value string, calls *atomic.Int64) FetchFunc {
	return func(ctx context.Context) ([]byte, error) {
		if calls != nil {
			calls.Add(1)
		}
		return []byte(value), nil
	}
}

func TestResolveFreshHitSkipsBudget(t *testing.T) {
	f := newResolverFixture(t,
		store.TTLPolicy{store.ClassQuote: time.Minute},
		map[string]budget.Window{"alphavantage": {Limit: 1, Dur: time.Hour}},
	)
	ctx := context.Background()
	require.NoError(t, f.store.Put(ctx, "quote:AAPL", []byte(`{"price":190}`), store.ClassQuote))

	var calls atomic.Int64
	res, err := f.resolver.Resolve(ctx, Request{
		Key:      "quote:AAPL",
		Class:    store.ClassQuote,
		Provider: "alphavantage",
		Fetch:    staticFetch(`{"price":191}`, &calls),
	})
	require.NoError(t, err)
	assert.Equal(t, models.Fresh, res.Freshness)
	assert.JSONEq(t, `{"price":190}`, string(res.Value))
	assert.Equal(t, int64(0), calls.Load(), "fresh hit must not fetch")

	remaining, _ := f.budget.Remaining("alphavantage")
	assert.Equal(t, 1, remaining, "fresh hit must not consume budget")
}

func TestResolveMissFetchesAndCaches(t *testing.T) {
	f := newResolverFixture(t,
		store.TTLPolicy{store.ClassQuote: time.Minute},
		map[string]budget.Window{"alphavantage": {Limit: 5, Dur: time.Hour}},
	)
	ctx := context.Background()

	var calls atomic.Int64
	req := Request{
		Key:      "quote:MSFT",
		Class:    store.ClassQuote,
		Provider: "alphavantage",
		Fetch:    staticFetch(`{"price":410}`, &calls),
	}

	res, err := f.resolver.Resolve(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, models.Refreshed, res.Freshness)
	assert.JSONEq(t, `{"price":410}`, string(res.Value))

	// Second resolve hits the freshly written cache.
	res, err = f.resolver.Resolve(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, models.Fresh, res.Freshness)
	assert.Equal(t, int64(1), calls.Load())
	assert.Equal(t, []string{"ok"}, f.audit.outcomes())
}

func TestResolveStaleFallbackOnExhaustedBudget(t *testing.T) {
	f := newResolverFixture(t,
		store.TTLPolicy{store.ClassQuote: time.Millisecond},
		map[string]budget.Window{"alphavantage": {Limit: 1, Dur: time.Hour}},
	)
	ctx := context.Background()
	require.NoError(t, f.store.Put(ctx, "quote:SPY", []byte(`{"price":500}`), store.ClassQuote))
	time.Sleep(5 * time.Millisecond)

	// Consume the whole window out of band.
	require.True(t, f.budget.TryReserve("alphavantage"))

	res, err := f.resolver.Resolve(ctx, Request{
		Key:      "quote:SPY",
		Class:    store.ClassQuote,
		Provider: "alphavantage",
		Fetch:    staticFetch(`{"price":501}`, nil),
	})
	require.NoError(t, err)
	assert.Equal(t, models.StaleDueToBudget, res.Freshness)
	assert.JSONEq(t, `{"price":500}`, string(res.Value))
	assert.Equal(t, []string{"denied"}, f.audit.outcomes())
}

func TestResolveStaleFallbackOnProviderError(t *testing.T) {
	f := newResolverFixture(t,
		store.TTLPolicy{store.ClassQuote: time.Millisecond},
		map[string]budget.Window{"alphavantage": {Limit: 5, Dur: time.Hour}},
	)
	ctx := context.Background()
	require.NoError(t, f.store.Put(ctx, "quote:QQQ", []byte(`{"price":480}`), store.ClassQuote))
	time.Sleep(5 * time.Millisecond)

	res, err := f.resolver.Resolve(ctx, Request{
		Key:      "quote:QQQ",
		Class:    store.ClassQuote,
		Provider: "alphavantage",
		Fetch: func(ctx context.Context) ([]byte, error) {
			return nil, errors.New("upstream 503")
		},
	})
	require.NoError(t, err)
	assert.Equal(t, models.StaleFallbackAfterError, res.Freshness)
	assert.JSONEq(t, `{"price":480}`, string(res.Value))
	assert.Equal(t, []string{"error"}, f.audit.outcomes())
}

func TestResolveMissWithNoFallbackReturnsError(t *testing.T) {
	f := newResolverFixture(t, nil,
		map[string]budget.Window{"alphavantage": {Limit: 1, Dur: time.Hour}},
	)
	ctx := context.Background()
	require.True(t, f.budget.TryReserve("alphavantage"))

	_, err := f.resolver.Resolve(ctx, Request{
		Key:      "quote:NEW",
		Class:    store.ClassQuote,
		Provider: "alphavantage",
		Fetch:    staticFetch(`{}`, nil),
	})
	assert.ErrorIs(t, err, ErrBudgetExhausted)

	_, err = f.resolver.Resolve(ctx, Request{
		Key:      "quote:NEW2",
		Class:    store.ClassQuote,
		Provider: "finnhub",
		Fetch: func(ctx context.Context) ([]byte, error) {
			return nil, errors.New("connection reset")
		},
	})
	assert.ErrorIs(t, err, ErrProviderUnavailable)
}

func TestResolveCoalescesBurst(t *testing.T) {
	f := newResolverFixture(t,
		store.TTLPolicy{store.ClassQuote: time.Minute},
		map[string]budget.Window{"alphavantage": {Limit: 10, Dur: time.Hour}},
	)
	ctx := context.Background()

	var calls atomic.Int64
	req := Request{
		Key:      "quote:BURST",
		Class:    store.ClassQuote,
		Provider: "alphavantage",
		Fetch: func(ctx context.Context) ([]byte, error) {
			calls.Add(1)
			time.Sleep(30 * time.Millisecond)
			return []byte(`{"price":1}`), nil
		},
	}

	const waiters = 16
	var wg sync.WaitGroup
	errs := make([]error, waiters)
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.resolver.Resolve(ctx, req)
		}(i)
	}
	wg.Wait()

	for i := 0; i < waiters; i++ {
		require.NoError(t, errs[i])
	}
	assert.Equal(t, int64(1), calls.Load(), "burst must coalesce into one fetch")

	remaining, _ := f.budget.Remaining("alphavantage")
	assert.Equal(t, 9, remaining, "burst must consume exactly one reservation")
}

func TestKnownRequestsBounded(t *testing.T) {
	f := newResolverFixture(t, nil, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := f.resolver.Resolve(ctx, Request{
			Key:      "quote:K" + string(rune('A'+i)),
			Class:    store.ClassQuote,
			Provider: "alphavantage",
			Fetch:    staticFetch(`{}`, nil),
		})
		require.NoError(t, err)
	}
	assert.Len(t, f.resolver.KnownRequests(), 3)
}
