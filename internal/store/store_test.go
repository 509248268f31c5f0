package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"StockResearch/pkg/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, policy TTLPolicy) *Store {
	t.Helper()
	backend := cache.NewMemoryBackend()
	t.Cleanup(func() { _ = backend.Close() })
	return New(backend, policy)
}

func TestPutThenGetFresh(t *testing.T) {
	st := newTestStore(t, TTLPolicy{ClassQuote: time.Minute})
	ctx := context.Background()

	require.NoError(t, st.Put(ctx, "quote:AAPL", []byte(`{"price":190.5}`), ClassQuote))

	entry, err := st.Get(ctx, "quote:AAPL")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.True(t, entry.FreshAt(time.Now()))
	assert.Equal(t, ClassQuote, entry.Class)
	assert.JSONEq(t, `{"price":190.5}`, string(entry.Value))
}

func TestGetAbsentKey(t *testing.T) {
	st := newTestStore(t, nil)

	entry, err := st.Get(context.Background(), "quote:NOPE")
	require.NoError(t, err)
	assert.Nil(t, entry, "absent key must be (nil, nil), not an error")
}

func TestStaleEntrySurvivesPastTTL(t *testing.T) {
	st := newTestStore(t, TTLPolicy{ClassQuote: 20 * time.Millisecond})
	ctx := context.Background()

	require.NoError(t, st.Put(ctx, "quote:MSFT", []byte(`{"price":410}`), ClassQuote))
	time.Sleep(40 * time.Millisecond)

	entry, err := st.Get(ctx, "quote:MSFT")
	require.NoError(t, err)
	require.NotNil(t, entry, "entry must remain retrievable after its TTL for stale fallback")
	assert.False(t, entry.FreshAt(time.Now()))
	assert.JSONEq(t, `{"price":410}`, string(entry.Value))
}

func TestPutOverwritesAndRefreshes(t *testing.T) {
	st := newTestStore(t, TTLPolicy{ClassQuote: 20 * time.Millisecond})
	ctx := context.Background()

	require.NoError(t, st.Put(ctx, "quote:SPY", []byte(`{"price":500}`), ClassQuote))
	time.Sleep(40 * time.Millisecond)
	require.NoError(t, st.Put(ctx, "quote:SPY", []byte(`{"price":501}`), ClassQuote))

	entry, err := st.Get(ctx, "quote:SPY")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.True(t, entry.FreshAt(time.Now()))
	assert.JSONEq(t, `{"price":501}`, string(entry.Value))
}

type brokenBackend struct{}

func (brokenBackend) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("connection refused")
}
func (brokenBackend) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("connection refused")
}
func (brokenBackend) Delete(context.Context, ...string) error { return nil }
func (brokenBackend) Close() error                            { return nil }

func TestBackendFailureWrapsErrUnreadable(t *testing.T) {
	st := New(brokenBackend{}, nil)

	_, err := st.Get(context.Background(), "quote:AAPL")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnreadable)
}

func TestDefaultTTLPolicyCadence(t *testing.T) {
	policy := DefaultTTLPolicy()
	assert.Equal(t, time.Minute, policy[ClassQuote])
	assert.Equal(t, 15*time.Minute, policy[ClassNews])
	assert.Equal(t, 24*time.Hour, policy[ClassFundamentals])
	assert.Equal(t, 6*time.Hour, policy[ClassAnalysts])
}
