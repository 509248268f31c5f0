package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"StockResearch/pkg/cache"
)

// ErrUnreadable reports a persistence backend failure. Callers treat it as a
// cache miss; it is never fatal to the request being served.
var ErrUnreadable = errors.New("cache store: backend unreadable")

// Class is a named cache-duration policy bucket.
type Class string

const (
	ClassQuote        Class = "quote"
	ClassNews         Class = "news"
	ClassFundamentals Class = "fundamentals"
	ClassProfile      Class = "profile"
	ClassMacro        Class = "macro"
	ClassTechnicals   Class = "technicals"
	ClassAnalysts     Class = "analysts"
)

// TTLPolicy maps each class to its freshness duration.
type TTLPolicy map[Class]time.Duration

// DefaultTTLPolicy matches the free-tier refresh cadence of each category.
func DefaultTTLPolicy() TTLPolicy {
	return TTLPolicy{
		ClassQuote:        time.Minute,
		ClassNews:         15 * time.Minute,
		ClassFundamentals: 24 * time.Hour,
		ClassProfile:      24 * time.Hour,
		ClassMacro:        24 * time.Hour,
		ClassTechnicals:   5 * time.Minute,
		ClassAnalysts:     6 * time.Hour,
	}
}

// Entry is one cached payload with its freshness window. Entries are
// immutable once written; a refresh overwrites the key with a new entry.
type Entry struct {
	Key       string          `json:"key"`
	Value     json.RawMessage `json:"value"`
	FetchedAt time.Time       `json:"fetched_at"`
	ExpiresAt time.Time       `json:"expires_at"`
	Class     Class           `json:"class"`
}

// FreshAt reports whether the entry is within its TTL at the given time.
func (e *Entry) FreshAt(now time.Time) bool {
	return now.Before(e.ExpiresAt)
}

// Option configures a Store.
type Option func(*Store)

// WithRetention sets the physical retention policy: entries are kept for
// factor*TTL (at least min) so stale entries remain available as fallback.
func WithRetention(factor int, min time.Duration) Option {
	return func(s *Store) {
		if factor > 0 {
			s.retentionFactor = factor
		}
		if min > 0 {
			s.minRetention = min
		}
	}
}

// Store is the durable TTL cache. Stale entries are logically ignored, not
// purged: the backend keeps them past their TTL so the orchestrator can fall
// back to them when the provider budget is exhausted.
type Store struct {
	backend         cache.Backend
	policy          TTLPolicy
	retentionFactor int
	minRetention    time.Duration
}

// New creates a Store over a durable backend.
func New(backend cache.Backend, policy TTLPolicy, opts ...Option) *Store {
	if policy == nil {
		policy = DefaultTTLPolicy()
	}
	s := &Store{
		backend:         backend,
		policy:          policy,
		retentionFactor: 14,
		minRetention:    24 * time.Hour,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the entry for key, fresh or stale, or (nil, nil) when the key
// was never cached. Backend failures come back wrapped in ErrUnreadable.
func (s *Store) Get(ctx context.Context, key string) (*Entry, error) {
	raw, err := s.backend.Get(ctx, key)
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %w", ErrUnreadable, err)
	}

	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, fmt.Errorf("%w: corrupt entry: %w", ErrUnreadable, err)
	}
	return &e, nil
}

// Put overwrites key with a freshly fetched value. It is the sole mutator.
func (s *Store) Put(ctx context.Context, key string, value []byte, class Class) error {
	now := time.Now().UTC()
	e := Entry{
		Key:       key,
		Value:     value,
		FetchedAt: now,
		ExpiresAt: now.Add(s.TTL(class)),
		Class:     class,
	}

	raw, err := json.Marshal(&e)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}
	if err := s.backend.Set(ctx, key, raw, s.retention(class)); err != nil {
		return fmt.Errorf("store put: %w", err)
	}
	return nil
}

// TTL returns the freshness duration for a class.
func (s *Store) TTL(class Class) time.Duration {
	if d, ok := s.policy[class]; ok {
		return d
	}
	return time.Minute
}

// retention is how long the backend physically keeps an entry. A multiple of
// the TTL, bounded below, so stale fallback survives quiet periods.
func (s *Store) retention(class Class) time.Duration {
	r := s.TTL(class) * time.Duration(s.retentionFactor)
	if r < s.minRetention {
		r = s.minRetention
	}
	return r
}
