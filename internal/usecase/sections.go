package usecase

import (
	"context"

	"StockResearch/internal/service/alphavantage"
	"StockResearch/internal/service/finnhub"
	"StockResearch/internal/store"
	"StockResearch/pkg/cache"
)

// Section names accepted by the research report.
const (
	SectionQuote         = "quote"
	SectionHistorical    = "historical"
	SectionProfile       = "profile"
	SectionFinancials    = "financials"
	SectionNewsSentiment = "news_sentiment"
	SectionInsiders      = "insiders"
	SectionTechnicals    = "technicals"
	SectionAnalysts      = "analysts"
	SectionMacro         = "macro"
)

// SectionBuilder turns a ticker into a resolvable Request.
type SectionBuilder func(ticker string) Request

// Catalog maps section names to their builders. The research coordinator
// fans out over it; the tool handlers use the same builders so interactive
// calls and report sections share cache keys.
type Catalog map[string]SectionBuilder

// NewCatalog wires the default sections from the provider clients.
func NewCatalog(av *alphavantage.Client, fh *finnhub.Client) Catalog {
	return Catalog{
		SectionQuote: func(ticker string) Request {
			return Request{
				Key:      cache.TickerKey("quote", ticker),
				Class:    store.ClassQuote,
				Provider: "alphavantage",
				Endpoint: "quote",
				Ticker:   ticker,
				Fetch: func(ctx context.Context) ([]byte, error) {
					return av.Quote(ctx, ticker)
				},
			}
		},
		SectionHistorical: func(ticker string) Request {
			return Request{
				Key:      cache.TickerKey("historical", ticker, "3M", "1day"),
				Class:    store.ClassQuote,
				Provider: "alphavantage",
				Endpoint: "historical",
				Ticker:   ticker,
				Fetch: func(ctx context.Context) ([]byte, error) {
					return av.HistoricalPrices(ctx, ticker, "3M", "1day")
				},
			}
		},
		SectionProfile: func(ticker string) Request {
			return Request{
				Key:      cache.TickerKey("profile", ticker),
				Class:    store.ClassProfile,
				Provider: "alphavantage",
				Endpoint: "profile",
				Ticker:   ticker,
				Fetch: func(ctx context.Context) ([]byte, error) {
					return av.CompanyOverview(ctx, ticker)
				},
			}
		},
		SectionFinancials: func(ticker string) Request {
			return Request{
				Key:      cache.TickerKey("financials", ticker, "income"),
				Class:    store.ClassFundamentals,
				Provider: "alphavantage",
				Endpoint: "financials",
				Ticker:   ticker,
				Fetch: func(ctx context.Context) ([]byte, error) {
					return av.Financials(ctx, ticker, "income")
				},
			}
		},
		SectionNewsSentiment: func(ticker string) Request {
			return Request{
				// The limit is part of the key so the interactive handler,
				// which accepts it as a parameter, lands on the same entry.
				Key:      cache.TickerKey("news_sentiment", ticker, "50"),
				Class:    store.ClassNews,
				Provider: "alphavantage",
				Endpoint: "news_sentiment",
				Ticker:   ticker,
				Fetch: func(ctx context.Context) ([]byte, error) {
					return av.NewsSentiment(ctx, ticker, 50)
				},
			}
		},
		SectionInsiders: func(ticker string) Request {
			return Request{
				Key:      cache.TickerKey("insiders", ticker),
				Class:    store.ClassNews,
				Provider: "alphavantage",
				Endpoint: "insiders",
				Ticker:   ticker,
				Fetch: func(ctx context.Context) ([]byte, error) {
					return av.InsiderTransactions(ctx, ticker)
				},
			}
		},
		SectionTechnicals: func(ticker string) Request {
			return Request{
				Key:      cache.TickerKey("technicals", ticker, "RSI", "daily", "14"),
				Class:    store.ClassTechnicals,
				Provider: "alphavantage",
				Endpoint: "technicals",
				Ticker:   ticker,
				Fetch: func(ctx context.Context) ([]byte, error) {
					return av.Technicals(ctx, ticker, "RSI", "daily", 14)
				},
			}
		},
		SectionAnalysts: func(ticker string) Request {
			return Request{
				Key:      cache.TickerKey("analysts", ticker),
				Class:    store.ClassAnalysts,
				Provider: "finnhub",
				Endpoint: "analysts",
				Ticker:   ticker,
				Fetch: func(ctx context.Context) ([]byte, error) {
					return fh.AnalystSummary(ctx, ticker)
				},
			}
		},
		SectionMacro: func(ticker string) Request {
			return Request{
				Key:      cache.Key("macro", "fed_funds_rate"),
				Class:    store.ClassMacro,
				Provider: "alphavantage",
				Endpoint: "macro",
				Ticker:   ticker,
				Fetch: func(ctx context.Context) ([]byte, error) {
					return av.Macro(ctx, "fed_funds_rate")
				},
			}
		},
	}
}

// Names returns the section names in the catalog.
func (c Catalog) Names() []string {
	out := make([]string, 0, len(c))
	for name := range c {
		out = append(out, name)
	}
	return out
}
