package cache

import (
	"context"
	"time"
)

// LayeredBackend is a two-level backend (L1: memory, L2: Redis) with
// write-through semantics. Reads fall back to Redis and re-populate L1.
type LayeredBackend struct {
	mem   *MemoryBackend
	redis *RedisBackend
}

// NewLayeredBackend wraps a Redis backend with an in-process L1.
func NewLayeredBackend(redis *RedisBackend, opts ...MemoryOption) *LayeredBackend {
	return &LayeredBackend{
		mem:   NewMemoryBackend(opts...),
		redis: redis,
	}
}

func (lc *LayeredBackend) Set(ctx context.Context, key string, value []byte, retention time.Duration) error {
	// Write-through: Redis first, then memory
	if err := lc.redis.Set(ctx, key, value, retention); err != nil {
		return err
	}
	_ = lc.mem.Set(ctx, key, value, retention)
	return nil
}

func (lc *LayeredBackend) Get(ctx context.Context, key string) ([]byte, error) {
	if v, err := lc.mem.Get(ctx, key); err == nil {
		return v, nil
	}

	v, err := lc.redis.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	_ = lc.mem.Set(ctx, key, v, 0)
	return v, nil
}

func (lc *LayeredBackend) Delete(ctx context.Context, keys ...string) error {
	_ = lc.mem.Delete(ctx, keys...)
	return lc.redis.Delete(ctx, keys...)
}

func (lc *LayeredBackend) Close() error {
	_ = lc.mem.Close()
	return lc.redis.Close()
}
