package usecase

import (
	"context"
	"encoding/json"

	"StockResearch/internal/domain/models"
	"StockResearch/internal/store"
	"StockResearch/pkg/cache"
	"StockResearch/pkg/logger"
)

// QuoteWarmer feeds live trade ticks into the quote cache. While the stream
// is connected, interactive quote calls hit fresh cache and consume no
// provider budget.
type QuoteWarmer struct {
	store  *store.Store
	logger *logger.Logger
}

// NewQuoteWarmer creates a QuoteWarmer.
func NewQuoteWarmer(st *store.Store, log *logger.Logger) *QuoteWarmer {
	return &QuoteWarmer{store: st, logger: log}
}

// WarmQuote merges a live tick into the cached quote for the symbol. When a
// cached quote exists its shape is preserved and only the moving fields
// update; otherwise a minimal quote is written.
func (q *QuoteWarmer) WarmQuote(ctx context.Context, trade models.StreamTrade) {
	key := cache.TickerKey("quote", trade.Symbol)

	quote := models.Quote{Ticker: trade.Symbol}
	if entry, err := q.store.Get(ctx, key); err == nil && entry != nil {
		if err := json.Unmarshal(entry.Value, &quote); err != nil {
			quote = models.Quote{Ticker: trade.Symbol}
		}
	}

	quote.Price = trade.Price
	if trade.Price > quote.High {
		quote.High = trade.Price
	}
	if quote.Low == 0 || trade.Price < quote.Low {
		quote.Low = trade.Price
	}
	quote.Change = quote.Price - quote.PrevClose
	quote.Volume += int64(trade.Volume)

	value, err := json.Marshal(quote)
	if err != nil {
		return
	}
	if err := q.store.Put(ctx, key, value, store.ClassQuote); err != nil {
		q.logger.Debug("quote warm failed", logger.String("symbol", trade.Symbol), logger.Error(err))
	}
}
