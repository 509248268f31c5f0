package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"StockResearch/internal/domain/models"
	"StockResearch/internal/service/budget"
	"StockResearch/internal/service/coalesce"
	"StockResearch/internal/store"
	"StockResearch/pkg/cache"
	"StockResearch/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sectionCatalog(sections map[string]FetchFunc) Catalog {
	catalog := make(Catalog, len(sections))
	for name, fetch := range sections {
		name, fetch := name, fetch
		catalog[name] = func(ticker string) Request {
			return Request{
				Key:      cache.TickerKey(name, ticker),
				Class:    store.ClassQuote,
				Provider: "alphavantage",
				Endpoint: name,
				Ticker:   ticker,
				Fetch:    fetch,
			}
		}
	}
	return catalog
}

func newResearchFixture(t *testing.T, windows map[string]budget.Window, sections map[string]FetchFunc) *ResearchBuilder {
	t.Helper()
	backend := cache.NewMemoryBackend()
	t.Cleanup(func() { _ = backend.Close() })

	st := store.New(backend, nil)
	resolver := NewResolver(st, budget.New(windows), coalesce.New(time.Second), nil, testMetrics, logger.Nop())
	return NewResearchBuilder(resolver, sectionCatalog(sections), 5*time.Second, testMetrics, logger.Nop())
}

func okFetch(value string) FetchFunc {
	return func(ctx context.Context) ([]byte, error) { return []byte(value), nil }
}

func failFetch(msg string) FetchFunc {
	return func(ctx context.Context) ([]byte, error) { return nil, errors.New(msg) }
}

func TestBuildReportBestEffort(t *testing.T) {
	rb := newResearchFixture(t, nil, map[string]FetchFunc{
		"quote":      okFetch(`{"price":190}`),
		"profile":    okFetch(`{"name":"Apple"}`),
		"financials": okFetch(`{"revenue":1}`),
		"news":       failFetch("feed down"),
	})

	report, err := rb.BuildReport(context.Background(), "AAPL", nil, 0)
	require.NoError(t, err)
	assert.Equal(t, "AAPL", report.Ticker)
	assert.False(t, report.Complete)
	require.Len(t, report.Sections, 4)

	assert.True(t, report.Sections["quote"].OK())
	assert.Equal(t, models.Refreshed, report.Sections["quote"].Freshness)

	news := report.Sections["news"]
	assert.False(t, news.OK())
	assert.Equal(t, CodeProviderUnavailable, news.ErrorCode)
	assert.Contains(t, news.Error, "feed down")
}

func TestBuildReportCompleteWhenAllSucceed(t *testing.T) {
	rb := newResearchFixture(t, nil, map[string]FetchFunc{
		"quote":   okFetch(`{"price":1}`),
		"profile": okFetch(`{"name":"x"}`),
	})

	report, err := rb.BuildReport(context.Background(), "MSFT", nil, 0)
	require.NoError(t, err)
	assert.True(t, report.Complete)
}

func TestBuildReportRejectsInvalidTicker(t *testing.T) {
	rb := newResearchFixture(t, nil, map[string]FetchFunc{"quote": okFetch(`{}`)})

	for _, ticker := range []string{"", "AAPL;DROP", "0XYZ", "WAYTOOLONGTICKER"} {
		_, err := rb.BuildReport(context.Background(), ticker, nil, 0)
		assert.ErrorIs(t, err, ErrInvalidTicker, "ticker %q", ticker)
	}

	// Dots and dashes are valid in real symbols.
	_, err := rb.BuildReport(context.Background(), "BRK.B", nil, 0)
	assert.NoError(t, err)
}

func TestBuildReportAllSectionsFailed(t *testing.T) {
	rb := newResearchFixture(t, nil, map[string]FetchFunc{
		"quote":   failFetch("down"),
		"profile": failFetch("down"),
	})

	_, err := rb.BuildReport(context.Background(), "AAPL", nil, 0)
	assert.ErrorIs(t, err, ErrNoSectionsSucceeded)
}

func TestBuildReportBudgetExhaustedCode(t *testing.T) {
	windows := map[string]budget.Window{"alphavantage": {Limit: 1, Dur: time.Hour}}
	rb := newResearchFixture(t, windows, map[string]FetchFunc{
		"quote":   okFetch(`{"price":1}`),
		"profile": okFetch(`{"name":"x"}`),
	})

	report, err := rb.BuildReport(context.Background(), "AAPL", nil, 0)
	require.NoError(t, err)

	succeeded, denied := 0, 0
	for _, section := range report.Sections {
		if section.OK() {
			succeeded++
		} else if section.ErrorCode == CodeBudgetExhausted {
			denied++
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, denied)
}

func TestBuildReportUnknownSection(t *testing.T) {
	rb := newResearchFixture(t, nil, map[string]FetchFunc{"quote": okFetch(`{}`)})

	report, err := rb.BuildReport(context.Background(), "AAPL", []string{"quote", "astrology"}, 0)
	require.NoError(t, err)
	assert.False(t, report.Complete)
	assert.Equal(t, CodeUnknownSection, report.Sections["astrology"].ErrorCode)
}

func TestBuildReportSectionTimeout(t *testing.T) {
	rb := newResearchFixture(t, nil, map[string]FetchFunc{
		"quote": okFetch(`{}`),
		"slow": func(ctx context.Context) ([]byte, error) {
			select {
			case <-time.After(500 * time.Millisecond):
				return []byte(`{}`), nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		},
	})

	report, err := rb.BuildReport(context.Background(), "AAPL", nil, 30*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, CodeSectionTimeout, report.Sections["slow"].ErrorCode)
	assert.True(t, report.Sections["quote"].OK())
}

func TestBuildReportStaleSectionsStillSucceed(t *testing.T) {
	backend := cache.NewMemoryBackend()
	t.Cleanup(func() { _ = backend.Close() })

	st := store.New(backend, store.TTLPolicy{store.ClassQuote: time.Millisecond})
	windows := map[string]budget.Window{"alphavantage": {Limit: 1, Dur: time.Hour}}
	bt := budget.New(windows)
	resolver := NewResolver(st, bt, coalesce.New(time.Second), nil, testMetrics, logger.Nop())

	require.NoError(t, st.Put(context.Background(), cache.TickerKey("quote", "AAPL"), []byte(`{"price":190}`), store.ClassQuote))
	time.Sleep(5 * time.Millisecond)
	require.True(t, bt.TryReserve("alphavantage"))

	rb := NewResearchBuilder(resolver, sectionCatalog(map[string]FetchFunc{
		"quote": okFetch(`{"price":191}`),
	}), 5*time.Second, testMetrics, logger.Nop())

	report, err := rb.BuildReport(context.Background(), "AAPL", nil, 0)
	require.NoError(t, err)
	quote := report.Sections["quote"]
	assert.True(t, quote.OK())
	assert.Equal(t, models.StaleDueToBudget, quote.Freshness)
	assert.True(t, report.Complete, "a stale section is still a succeeded section")
}
