package cache

import (
	"context"
	"errors"
	"time"
)

var (
	ErrCacheMiss = errors.New("cache: key not found")
)

// Backend is a durable key-value store for opaque payloads. Retention is the
// physical lifetime of a key; logical freshness is the caller's concern.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, retention time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}
