package budget

import (
	"sort"
	"sync"
	"time"

	"StockResearch/internal/domain/models"
)

// Window declares a provider's budget: at most Limit reservations per Dur.
type Window struct {
	Limit int
	Dur   time.Duration
}

type state struct {
	limit       int
	dur         time.Duration
	windowStart time.Time
	consumed    int
}

// rollover advances the window by whole durations until it contains now.
// Advancing (rather than re-anchoring at now) prevents burst-at-boundary
// abuse. Consumed resets only when the window actually moves.
func (s *state) rollover(now time.Time) {
	if now.Before(s.windowStart.Add(s.dur)) {
		return
	}
	elapsed := now.Sub(s.windowStart)
	steps := elapsed / s.dur
	s.windowStart = s.windowStart.Add(steps * s.dur)
	s.consumed = 0
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		t.now = now
	}
}

// Tracker enforces per-provider rate budgets with a reservation protocol.
// A granted reservation authorizes exactly one upstream call and is not
// refundable: a failed call still consumed the provider's quota.
type Tracker struct {
	mu  sync.Mutex
	m   map[string]*state
	now func() time.Time
}

// New creates a Tracker for the configured providers. Providers without a
// configured window are unconstrained.
func New(windows map[string]Window, opts ...Option) *Tracker {
	t := &Tracker{
		m:   make(map[string]*state, len(windows)),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	start := t.now()
	for provider, w := range windows {
		if w.Limit <= 0 || w.Dur <= 0 {
			continue
		}
		t.m[provider] = &state{
			limit:       w.Limit,
			dur:         w.Dur,
			windowStart: start,
		}
	}
	return t
}

// TryReserve atomically checks and consumes one unit of the provider's
// budget. Two reservations that individually would exceed the limit can
// never both succeed.
func (t *Tracker) TryReserve(provider string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.m[provider]
	if !ok {
		return true
	}

	s.rollover(t.now())
	if s.consumed >= s.limit {
		return false
	}
	s.consumed++
	return true
}

// Remaining returns the unconsumed budget in the current window. The second
// return is false for providers without a configured budget.
func (t *Tracker) Remaining(provider string) (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.m[provider]
	if !ok {
		return 0, false
	}
	s.rollover(t.now())
	return s.limit - s.consumed, true
}

// Limit returns the configured limit for a provider.
func (t *Tracker) Limit(provider string) (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.m[provider]
	if !ok {
		return 0, false
	}
	return s.limit, true
}

// Snapshot reports the current window state of every tracked provider,
// sorted by provider name.
func (t *Tracker) Snapshot() []models.BudgetSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	out := make([]models.BudgetSnapshot, 0, len(t.m))
	for provider, s := range t.m {
		s.rollover(now)
		out = append(out, models.BudgetSnapshot{
			Provider:    provider,
			Limit:       s.limit,
			Consumed:    s.consumed,
			Remaining:   s.limit - s.consumed,
			WindowStart: s.windowStart,
			WindowEnd:   s.windowStart.Add(s.dur),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Provider < out[j].Provider })
	return out
}
