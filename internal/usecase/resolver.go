package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"StockResearch/internal/domain/models"
	"StockResearch/internal/service/budget"
	"StockResearch/internal/service/coalesce"
	"StockResearch/internal/store"
	"StockResearch/pkg/logger"
	"StockResearch/pkg/metrics"
)

var (
	// ErrBudgetExhausted means no reservation was available and no stale
	// cache entry existed to fall back on.
	ErrBudgetExhausted = errors.New("provider budget exhausted")
	// ErrProviderUnavailable means the upstream call failed and no stale
	// cache entry existed to fall back on.
	ErrProviderUnavailable = errors.New("provider unavailable")
)

// FetchFunc performs one upstream call and returns a normalized payload.
// The coalescer guarantees it is never invoked twice concurrently for the
// same key.
type FetchFunc func(ctx context.Context) ([]byte, error)

// Request describes one resolvable data point.
type Request struct {
	Key      string
	Class    store.Class
	Provider string
	Endpoint string
	Ticker   string
	Fetch    FetchFunc
}

// Result is a resolved value tagged with how it was obtained.
type Result struct {
	Value     json.RawMessage
	Freshness models.Freshness
}

// AuditSink receives one record per upstream call attempt or budget denial.
// Implementations must never fail the serving path.
type AuditSink interface {
	Record(ctx context.Context, rec models.CallRecord)
}

// Resolver is the facade every tool calls: it serves from cache when fresh,
// and otherwise performs a coordinated, budget-checked, coalesced fetch with
// stale fallback. It never exceeds a provider's budget to refresh data it
// could legally serve stale.
type Resolver struct {
	store     *store.Store
	budget    *budget.Tracker
	coalescer *coalesce.Coalescer
	audit     AuditSink
	metrics   *metrics.Recorder
	logger    *logger.Logger

	mu       sync.Mutex
	known    map[string]Request
	knownCap int
}

// NewResolver creates a Resolver.
func NewResolver(st *store.Store, bt *budget.Tracker, co *coalesce.Coalescer, audit AuditSink, rec *metrics.Recorder, log *logger.Logger) *Resolver {
	return &Resolver{
		store:     st,
		budget:    bt,
		coalescer: co,
		audit:     audit,
		metrics:   rec,
		logger:    log,
		known:     make(map[string]Request),
		knownCap:  512,
	}
}

// Resolve returns the value for req, preferring cache over network:
//
//  1. fresh cache hit: returned immediately, no budget consumed;
//  2. miss or stale: one coalesced, budget-reserved upstream fetch;
//  3. fetch denied or failed with a stale entry present: the stale value,
//     tagged so the caller can tell;
//  4. otherwise the error.
func (r *Resolver) Resolve(ctx context.Context, req Request) (Result, error) {
	entry, err := r.store.Get(ctx, req.Key)
	if err != nil {
		// Unreadable cache is a miss, never fatal.
		r.logger.Warn("cache read failed", logger.String("key", req.Key), logger.Error(err))
		r.metrics.RecordCacheLookup(string(req.Class), "unreadable")
		entry = nil
	}

	now := time.Now()
	if entry != nil && entry.FreshAt(now) {
		r.metrics.RecordCacheLookup(string(req.Class), "fresh")
		return Result{Value: entry.Value, Freshness: models.Fresh}, nil
	}
	if entry != nil {
		r.metrics.RecordCacheLookup(string(req.Class), "stale")
	} else {
		r.metrics.RecordCacheLookup(string(req.Class), "miss")
	}

	r.remember(req)

	value, shared, err := r.coalescer.Do(ctx, req.Key, func(fctx context.Context) ([]byte, error) {
		return r.fetchAndStore(fctx, req)
	})
	if shared {
		r.metrics.RecordCoalesced(string(req.Class))
	}
	if err == nil {
		return Result{Value: value, Freshness: models.Refreshed}, nil
	}

	// Degrade to the stale entry when the failure is recoverable.
	if entry != nil {
		switch {
		case errors.Is(err, ErrBudgetExhausted):
			return Result{Value: entry.Value, Freshness: models.StaleDueToBudget}, nil
		case errors.Is(err, ErrProviderUnavailable):
			return Result{Value: entry.Value, Freshness: models.StaleFallbackAfterError}, nil
		}
	}

	return Result{}, err
}

// fetchAndStore runs as the coalescing leader: it reserves budget, calls the
// provider, and persists the result. Reserving inside the leader means a
// burst of identical requests consumes exactly one reservation.
func (r *Resolver) fetchAndStore(ctx context.Context, req Request) ([]byte, error) {
	if !r.budget.TryReserve(req.Provider) {
		r.metrics.RecordBudgetDecision(req.Provider, false)
		r.recordBudgetGauge(req.Provider)
		r.auditRecord(ctx, req, "denied", 0)
		return nil, fmt.Errorf("%w: %s", ErrBudgetExhausted, req.Provider)
	}
	r.metrics.RecordBudgetDecision(req.Provider, true)
	r.recordBudgetGauge(req.Provider)

	start := time.Now()
	value, err := req.Fetch(ctx)
	elapsed := time.Since(start)
	r.metrics.RecordProviderCall(req.Provider, err == nil, elapsed.Seconds())

	if err != nil {
		r.auditRecord(ctx, req, "error", elapsed)
		return nil, fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
	}
	r.auditRecord(ctx, req, "ok", elapsed)

	if perr := r.store.Put(ctx, req.Key, value, req.Class); perr != nil {
		// The caller still gets the value; only future calls lose the cache.
		r.logger.Warn("cache write failed", logger.String("key", req.Key), logger.Error(perr))
	}
	return value, nil
}

func (r *Resolver) auditRecord(ctx context.Context, req Request, outcome string, latency time.Duration) {
	if r.audit == nil {
		return
	}
	r.audit.Record(ctx, models.CallRecord{
		Provider:  req.Provider,
		Endpoint:  req.Endpoint,
		Key:       req.Key,
		Ticker:    req.Ticker,
		Outcome:   outcome,
		LatencyMS: latency.Milliseconds(),
		At:        time.Now().UTC(),
	})
}

func (r *Resolver) recordBudgetGauge(provider string) {
	if remaining, ok := r.budget.Remaining(provider); ok {
		r.metrics.RecordBudgetRemaining(provider, remaining)
	}
}

// remember tracks recently resolved requests so the warmer can refresh them.
// Bounded; once full, new keys are not tracked.
func (r *Resolver) remember(req Request) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.known[req.Key]; ok {
		return
	}
	if len(r.known) >= r.knownCap {
		return
	}
	r.known[req.Key] = req
}

// KnownRequests returns a snapshot of tracked requests.
func (r *Resolver) KnownRequests() []Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Request, 0, len(r.known))
	for _, req := range r.known {
		out = append(out, req)
	}
	return out
}
