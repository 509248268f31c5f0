package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBackendSetGetDelete(t *testing.T) {
	mc := NewMemoryBackend()
	t.Cleanup(func() { _ = mc.Close() })
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "k1", []byte("v1"), time.Minute))

	got, err := mc.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), got)

	require.NoError(t, mc.Delete(ctx, "k1"))
	_, err = mc.Get(ctx, "k1")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryBackendRetentionExpiry(t *testing.T) {
	mc := NewMemoryBackend()
	t.Cleanup(func() { _ = mc.Close() })
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "short", []byte("v"), 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)

	_, err := mc.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryBackendLRUEviction(t *testing.T) {
	mc := NewMemoryBackend(WithMemoryMaxSize(2))
	t.Cleanup(func() { _ = mc.Close() })
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "a", []byte("1"), time.Minute))
	time.Sleep(2 * time.Millisecond)
	require.NoError(t, mc.Set(ctx, "b", []byte("2"), time.Minute))
	time.Sleep(2 * time.Millisecond)

	// Touch "a" so "b" becomes the eviction candidate.
	_, err := mc.Get(ctx, "a")
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)

	require.NoError(t, mc.Set(ctx, "c", []byte("3"), time.Minute))

	_, err = mc.Get(ctx, "b")
	assert.ErrorIs(t, err, ErrCacheMiss)
	_, err = mc.Get(ctx, "a")
	assert.NoError(t, err)
}

func TestKeyBuilding(t *testing.T) {
	assert.Equal(t, "macro", Key("macro"))
	assert.Equal(t, "macro:cpi", Key("macro", "cpi"))
	assert.Equal(t, "quote:AAPL", TickerKey("quote", "aapl"))
	assert.Equal(t, "historical:AAPL:3M:1day", TickerKey("historical", " aapl ", "3M", "1day"))
}
