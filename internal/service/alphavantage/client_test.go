package alphavantage

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"StockResearch/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler func(function string, r *http.Request) interface{}) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		function := r.URL.Query().Get("function")
		require.NotEmpty(t, r.URL.Query().Get("apikey"))
		_ = json.NewEncoder(w).Encode(handler(function, r))
	}))
	t.Cleanup(srv.Close)
	return New("test-key", srv.URL, nil)
}

func TestQuoteNormalizesFieldNumbering(t *testing.T) {
	client := newTestServer(t, func(function string, r *http.Request) interface{} {
		require.Equal(t, "GLOBAL_QUOTE", function)
		require.Equal(t, "AAPL", r.URL.Query().Get("symbol"))
		return map[string]interface{}{
			"Global Quote": map[string]string{
				"01. symbol":             "AAPL",
				"02. open":               "189.50",
				"03. high":               "192.00",
				"04. low":                "188.75",
				"05. price":              "190.54",
				"06. volume":             "48087681",
				"07. latest trading day": "2024-10-10",
				"08. previous close":     "189.00",
				"09. change":             "1.54",
				"10. change percent":     "0.8148%",
			},
		}
	})

	raw, err := client.Quote(context.Background(), "aapl")
	require.NoError(t, err)

	var quote models.Quote
	require.NoError(t, json.Unmarshal(raw, &quote))
	assert.Equal(t, "AAPL", quote.Ticker)
	assert.InDelta(t, 190.54, quote.Price, 0.001)
	assert.InDelta(t, 1.54, quote.Change, 0.001)
	assert.Equal(t, "0.8148", quote.ChangePercent)
	assert.Equal(t, int64(48087681), quote.Volume)
	assert.Equal(t, "2024-10-10", quote.LatestTradingDay)
}

func TestInBandErrorsSurfaceAsErrors(t *testing.T) {
	for _, field := range []string{"Error Message", "Note", "Information"} {
		field := field
		t.Run(field, func(t *testing.T) {
			client := newTestServer(t, func(string, *http.Request) interface{} {
				return map[string]string{field: "rate limit is 25 requests per day"}
			})
			_, err := client.Quote(context.Background(), "AAPL")
			require.Error(t, err)
			assert.Contains(t, err.Error(), "rate limit")
		})
	}
}

func TestQuoteEmptyResponseIsError(t *testing.T) {
	client := newTestServer(t, func(string, *http.Request) interface{} {
		return map[string]interface{}{"Global Quote": map[string]string{}}
	})
	_, err := client.Quote(context.Background(), "ZZZZ")
	assert.Error(t, err)
}

func TestHistoricalPricesCapsAndOrders(t *testing.T) {
	series := map[string]map[string]string{}
	days := []string{"2024-10-07", "2024-10-08", "2024-10-09", "2024-10-10"}
	for _, d := range days {
		series[d] = map[string]string{
			"1. open":   "100",
			"2. high":   "101",
			"3. low":    "99",
			"4. close":  "100.5",
			"5. volume": "1000",
		}
	}

	client := newTestServer(t, func(function string, r *http.Request) interface{} {
		require.Equal(t, "TIME_SERIES_DAILY", function)
		require.Equal(t, "compact", r.URL.Query().Get("outputsize"))
		return map[string]interface{}{"Time Series (Daily)": series}
	})

	raw, err := client.HistoricalPrices(context.Background(), "AAPL", "1D", "1day")
	require.NoError(t, err)

	var hist models.HistoricalPrices
	require.NoError(t, json.Unmarshal(raw, &hist))
	require.Len(t, hist.Candles, 1, "1D keeps only the latest bar")
	assert.Equal(t, "2024-10-10", hist.Candles[0].Date, "newest first")
	assert.InDelta(t, 100.5, hist.Candles[0].Close, 0.001)
}

func TestInsiderTransactionsSummarizesNetActivity(t *testing.T) {
	client := newTestServer(t, func(function string, r *http.Request) interface{} {
		require.Equal(t, "INSIDER_TRANSACTIONS", function)
		require.Equal(t, "AAPL", r.URL.Query().Get("symbol"))
		return map[string]interface{}{
			"data": []map[string]interface{}{
				{
					"transaction_date": "2024-10-09", "executive": "Jane Roe",
					"executive_title": "CFO", "security_type": "Common Stock",
					"acquisition_or_disposition": "A", "shares": "1000",
					"share_price": "190.54",
				},
				{
					"transaction_date": "2024-10-08", "executive": "John Doe",
					"executive_title": "Director", "security_type": "Common Stock",
					"acquisition_or_disposition": "D", "shares": 250.0,
					"share_price": "None",
				},
			},
		}
	})

	raw, err := client.InsiderTransactions(context.Background(), "aapl")
	require.NoError(t, err)

	var activity models.InsiderActivity
	require.NoError(t, json.Unmarshal(raw, &activity))
	assert.Equal(t, "AAPL", activity.Ticker)
	assert.Equal(t, "buying", activity.Sentiment)
	assert.Equal(t, int64(1000), activity.TotalBought)
	assert.Equal(t, int64(250), activity.TotalSold)
	assert.Equal(t, int64(750), activity.NetShares)
	assert.Equal(t, 2, activity.TransactionCount)
	require.Len(t, activity.Transactions, 2)
	assert.Equal(t, "Jane Roe", activity.Transactions[0].Name)
	assert.Equal(t, "buy", activity.Transactions[0].TransactionType)
	assert.Equal(t, "sell", activity.Transactions[1].TransactionType)
	assert.Equal(t, int64(250), activity.Transactions[1].Shares)
}

func TestInsiderTransactionsEmptyFeed(t *testing.T) {
	client := newTestServer(t, func(string, *http.Request) interface{} {
		return map[string]interface{}{"data": []map[string]interface{}{}}
	})

	raw, err := client.InsiderTransactions(context.Background(), "AAPL")
	require.NoError(t, err)

	var activity models.InsiderActivity
	require.NoError(t, json.Unmarshal(raw, &activity))
	assert.Equal(t, "neutral", activity.Sentiment)
	assert.Zero(t, activity.TransactionCount)
}

func TestFinancialsUnknownStatement(t *testing.T) {
	client := New("k", "http://unused.invalid", nil)
	_, err := client.Financials(context.Background(), "AAPL", "astrology")
	assert.Error(t, err)
}

func TestMacroUnknownSeries(t *testing.T) {
	client := New("k", "http://unused.invalid", nil)
	_, err := client.Macro(context.Background(), "vibes")
	assert.Error(t, err)
}

func TestMacroSeriesSorted(t *testing.T) {
	names := MacroSeries()
	assert.Equal(t, []string{
		"cpi", "fed_funds_rate", "inflation", "real_gdp", "treasury_yield", "unemployment",
	}, names)
}
