package usecase

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"StockResearch/internal/domain/models"
	"StockResearch/internal/store"
	"StockResearch/pkg/cache"
	"StockResearch/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWarmQuoteWritesMinimalQuoteOnMiss(t *testing.T) {
	backend := cache.NewMemoryBackend()
	t.Cleanup(func() { _ = backend.Close() })
	st := store.New(backend, nil)
	qw := NewQuoteWarmer(st, logger.Nop())
	ctx := context.Background()

	qw.WarmQuote(ctx, models.StreamTrade{Symbol: "AAPL", Price: 190.5, Volume: 100})

	entry, err := st.Get(ctx, cache.TickerKey("quote", "AAPL"))
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.True(t, entry.FreshAt(time.Now()))

	var quote models.Quote
	require.NoError(t, json.Unmarshal(entry.Value, &quote))
	assert.InDelta(t, 190.5, quote.Price, 0.001)
	assert.InDelta(t, 190.5, quote.High, 0.001)
	assert.InDelta(t, 190.5, quote.Low, 0.001)
	assert.Equal(t, int64(100), quote.Volume)
}

func TestWarmQuoteMergesIntoCachedQuote(t *testing.T) {
	backend := cache.NewMemoryBackend()
	t.Cleanup(func() { _ = backend.Close() })
	st := store.New(backend, nil)
	qw := NewQuoteWarmer(st, logger.Nop())
	ctx := context.Background()

	seed := models.Quote{
		Ticker: "AAPL", Price: 189.0, Open: 188.0, High: 191.0, Low: 187.5,
		PrevClose: 188.5, Volume: 1000, LatestTradingDay: "2024-10-10",
	}
	raw, _ := json.Marshal(seed)
	require.NoError(t, st.Put(ctx, cache.TickerKey("quote", "AAPL"), raw, store.ClassQuote))

	qw.WarmQuote(ctx, models.StreamTrade{Symbol: "AAPL", Price: 192.25, Volume: 50})

	entry, err := st.Get(ctx, cache.TickerKey("quote", "AAPL"))
	require.NoError(t, err)
	require.NotNil(t, entry)

	var quote models.Quote
	require.NoError(t, json.Unmarshal(entry.Value, &quote))
	assert.InDelta(t, 192.25, quote.Price, 0.001)
	assert.InDelta(t, 192.25, quote.High, 0.001, "new session high")
	assert.InDelta(t, 187.5, quote.Low, 0.001, "low unchanged")
	assert.InDelta(t, 188.0, quote.Open, 0.001, "open preserved")
	assert.InDelta(t, 192.25-188.5, quote.Change, 0.001)
	assert.Equal(t, int64(1050), quote.Volume)
	assert.Equal(t, "2024-10-10", quote.LatestTradingDay, "static fields preserved")
}
