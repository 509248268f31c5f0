package api

import (
	"context"
	"strconv"

	"StockResearch/internal/domain/models"
	"StockResearch/internal/store"
	"StockResearch/internal/usecase"
	"StockResearch/pkg/cache"
	xhttp "StockResearch/pkg/http"

	"github.com/labstack/echo/v4"
)

// Company serves the company profile and key ratios.
func (h *Handler) Company(c echo.Context) error {
	ticker := pathTicker(c)
	if ticker == "" {
		return xhttp.BadRequestResponse(c, "ticker is required")
	}
	return h.resolve(c, h.catalog[usecase.SectionProfile](ticker))
}

// Financials serves one financial statement for a ticker.
func (h *Handler) Financials(c echo.Context) error {
	ticker := pathTicker(c)
	if ticker == "" {
		return xhttp.BadRequestResponse(c, "ticker is required")
	}
	q := &models.FinancialsQuery{}
	if verr := xhttp.ReadAndValidateRequest(c, q); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	return h.resolve(c, usecase.Request{
		Key:      cache.TickerKey("financials", ticker, q.Statement),
		Class:    store.ClassFundamentals,
		Provider: "alphavantage",
		Endpoint: "financials",
		Ticker:   ticker,
		Fetch: func(ctx context.Context) ([]byte, error) {
			return h.av.Financials(ctx, ticker, q.Statement)
		},
	})
}

// Sentiment serves recent news with sentiment scores.
func (h *Handler) Sentiment(c echo.Context) error {
	ticker := pathTicker(c)
	if ticker == "" {
		return xhttp.BadRequestResponse(c, "ticker is required")
	}
	q := &models.SentimentQuery{}
	if verr := xhttp.ReadAndValidateRequest(c, q); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	return h.resolve(c, usecase.Request{
		Key:      cache.TickerKey("news_sentiment", ticker, strconv.Itoa(q.Limit)),
		Class:    store.ClassNews,
		Provider: "alphavantage",
		Endpoint: "news_sentiment",
		Ticker:   ticker,
		Fetch: func(ctx context.Context) ([]byte, error) {
			return h.av.NewsSentiment(ctx, ticker, q.Limit)
		},
	})
}

// Insiders serves recent insider trading activity.
func (h *Handler) Insiders(c echo.Context) error {
	ticker := pathTicker(c)
	if ticker == "" {
		return xhttp.BadRequestResponse(c, "ticker is required")
	}
	return h.resolve(c, h.catalog[usecase.SectionInsiders](ticker))
}

// Technicals serves one technical indicator series.
func (h *Handler) Technicals(c echo.Context) error {
	ticker := pathTicker(c)
	if ticker == "" {
		return xhttp.BadRequestResponse(c, "ticker is required")
	}
	q := &models.TechnicalsQuery{}
	if verr := xhttp.ReadAndValidateRequest(c, q); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	return h.resolve(c, usecase.Request{
		Key:      cache.TickerKey("technicals", ticker, q.Indicator, q.Interval, strconv.Itoa(q.Period)),
		Class:    store.ClassTechnicals,
		Provider: "alphavantage",
		Endpoint: "technicals",
		Ticker:   ticker,
		Fetch: func(ctx context.Context) ([]byte, error) {
			return h.av.Technicals(ctx, ticker, q.Indicator, q.Interval, q.Period)
		},
	})
}

// Analysts serves the bundled analyst data from Finnhub.
func (h *Handler) Analysts(c echo.Context) error {
	ticker := pathTicker(c)
	if ticker == "" {
		return xhttp.BadRequestResponse(c, "ticker is required")
	}
	return h.resolve(c, h.catalog[usecase.SectionAnalysts](ticker))
}

// Macro serves one macroeconomic series. The result is not tied to a ticker.
func (h *Handler) Macro(c echo.Context) error {
	q := &models.MacroQuery{}
	if verr := xhttp.ReadAndValidateRequest(c, q); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	return h.resolve(c, usecase.Request{
		Key:      cache.Key("macro", q.Series),
		Class:    store.ClassMacro,
		Provider: "alphavantage",
		Endpoint: "macro",
		Fetch: func(ctx context.Context) ([]byte, error) {
			return h.av.Macro(ctx, q.Series)
		},
	})
}
