package api

import (
	"context"
	"encoding/json"
	"strings"

	"StockResearch/internal/domain/models"
	"StockResearch/internal/store"
	"StockResearch/internal/usecase"
	"StockResearch/pkg/cache"
	xhttp "StockResearch/pkg/http"

	"github.com/labstack/echo/v4"
)

// toolResponse wraps a resolved payload with its freshness tag so callers can
// tell served-from-cache data apart from a live refresh.
type toolResponse struct {
	Ticker    string          `json:"ticker,omitempty"`
	Data      json.RawMessage `json:"data"`
	Freshness string          `json:"freshness"`
}

func pathTicker(c echo.Context) string {
	return strings.ToUpper(strings.TrimSpace(c.Param("ticker")))
}

// Quote serves the real-time quote for a ticker.
func (h *Handler) Quote(c echo.Context) error {
	ticker := pathTicker(c)
	if ticker == "" {
		return xhttp.BadRequestResponse(c, "ticker is required")
	}
	return h.resolve(c, h.catalog[usecase.SectionQuote](ticker))
}

// Historical serves OHLCV history for a ticker.
func (h *Handler) Historical(c echo.Context) error {
	ticker := pathTicker(c)
	if ticker == "" {
		return xhttp.BadRequestResponse(c, "ticker is required")
	}
	q := &models.HistoricalQuery{}
	if verr := xhttp.ReadAndValidateRequest(c, q); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	req := usecase.Request{
		Key:      cache.TickerKey("historical", ticker, q.Timeframe, q.Interval),
		Class:    store.ClassQuote,
		Provider: "alphavantage",
		Endpoint: "historical",
		Ticker:   ticker,
		Fetch: func(ctx context.Context) ([]byte, error) {
			return h.av.HistoricalPrices(ctx, ticker, q.Timeframe, q.Interval)
		},
	}
	return h.resolve(c, req)
}
