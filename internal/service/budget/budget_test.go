package budget

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a mutable time source safe for use with WithClock.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func TestTryReserveConsumesBudget(t *testing.T) {
	tracker := New(map[string]Window{
		"alphavantage": {Limit: 3, Dur: 24 * time.Hour},
	})

	for i := 0; i < 3; i++ {
		assert.True(t, tracker.TryReserve("alphavantage"), "reservation %d", i)
	}
	assert.False(t, tracker.TryReserve("alphavantage"), "budget must deny past the limit")

	remaining, ok := tracker.Remaining("alphavantage")
	require.True(t, ok)
	assert.Equal(t, 0, remaining)
}

func TestUnregisteredProviderIsUnconstrained(t *testing.T) {
	tracker := New(nil)

	for i := 0; i < 1000; i++ {
		require.True(t, tracker.TryReserve("whatever"))
	}
	_, ok := tracker.Remaining("whatever")
	assert.False(t, ok)
}

func TestConcurrentReservationsNeverExceedLimit(t *testing.T) {
	const limit = 25
	const goroutines = 200

	tracker := New(map[string]Window{
		"alphavantage": {Limit: limit, Dur: 24 * time.Hour},
	})

	var granted atomic.Int64
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if tracker.TryReserve("alphavantage") {
				granted.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int64(limit), granted.Load(),
		"exactly the limit must be granted under contention")
}

func TestWindowRolloverResetsBudget(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 10, 10, 0, 0, 0, 0, time.UTC)}
	tracker := New(map[string]Window{
		"alphavantage": {Limit: 2, Dur: 24 * time.Hour},
	}, WithClock(clock.Now))

	require.True(t, tracker.TryReserve("alphavantage"))
	require.True(t, tracker.TryReserve("alphavantage"))
	require.False(t, tracker.TryReserve("alphavantage"))

	// Just before the boundary: still denied.
	clock.Advance(24*time.Hour - time.Second)
	assert.False(t, tracker.TryReserve("alphavantage"))

	// Past the boundary: a fresh window.
	clock.Advance(2 * time.Second)
	assert.True(t, tracker.TryReserve("alphavantage"))

	remaining, ok := tracker.Remaining("alphavantage")
	require.True(t, ok)
	assert.Equal(t, 1, remaining)
}

func TestWindowAdvancesByWholeIncrements(t *testing.T) {
	base := time.Date(2024, 10, 10, 0, 0, 0, 0, time.UTC)
	clock := &fakeClock{t: base}
	tracker := New(map[string]Window{
		"finnhub": {Limit: 1, Dur: time.Minute},
	}, WithClock(clock.Now))

	require.True(t, tracker.TryReserve("finnhub"))

	// 2.5 windows later the consumed count resets once, anchored at a whole
	// multiple of the window, not at the time of this call.
	clock.Advance(150 * time.Second)
	require.True(t, tracker.TryReserve("finnhub"))
	require.False(t, tracker.TryReserve("finnhub"))

	// 20s more is still inside the same (third) window.
	clock.Advance(20 * time.Second)
	assert.False(t, tracker.TryReserve("finnhub"))

	// Crossing into the fourth window resets again.
	clock.Advance(10 * time.Second)
	assert.True(t, tracker.TryReserve("finnhub"))
}

func TestSnapshotSortedByProvider(t *testing.T) {
	tracker := New(map[string]Window{
		"finnhub":      {Limit: 60, Dur: time.Minute},
		"alphavantage": {Limit: 25, Dur: 24 * time.Hour},
		"alpaca":       {Limit: 200, Dur: time.Minute},
	})
	require.True(t, tracker.TryReserve("finnhub"))

	snaps := tracker.Snapshot()
	require.Len(t, snaps, 3)
	assert.Equal(t, "alpaca", snaps[0].Provider)
	assert.Equal(t, "alphavantage", snaps[1].Provider)
	assert.Equal(t, "finnhub", snaps[2].Provider)
	assert.Equal(t, 1, snaps[2].Consumed)
	assert.Equal(t, 59, snaps[2].Remaining)
}
