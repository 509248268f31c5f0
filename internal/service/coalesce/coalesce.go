package coalesce

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"
)

// Coalescer collapses concurrent identical fetches into one upstream call.
// All callers for the same key share the leader's outcome, success or
// failure. The in-flight table entry is removed on completion either way.
type Coalescer struct {
	group        singleflight.Group
	fetchTimeout time.Duration
}

// New creates a Coalescer. fetchTimeout bounds the detached fetch itself,
// independent of any individual caller's deadline.
func New(fetchTimeout time.Duration) *Coalescer {
	if fetchTimeout <= 0 {
		fetchTimeout = 30 * time.Second
	}
	return &Coalescer{fetchTimeout: fetchTimeout}
}

// Do runs fn at most once per key across concurrent callers. The returned
// bool reports whether this caller shared a flight started by another.
//
// The flight is detached from the caller's cancellation: a caller whose ctx
// expires stops waiting and gets ctx.Err(), but the fetch continues for the
// remaining waiters and still populates the cache.
func (c *Coalescer) Do(ctx context.Context, key string, fn func(context.Context) ([]byte, error)) ([]byte, bool, error) {
	ch := c.group.DoChan(key, func() (interface{}, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.fetchTimeout)
		defer cancel()
		return fn(fctx)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Shared, res.Err
		}
		v, _ := res.Val.([]byte)
		return v, res.Shared, nil
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}
