package finnhub

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/stock/recommendation", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "test-token", r.URL.Query().Get("token"))
		require.Equal(t, "AAPL", r.URL.Query().Get("symbol"))
		_ = json.NewEncoder(w).Encode([]map[string]interface{}{
			{"period": "2024-10-01", "strongBuy": 20, "buy": 15, "hold": 8, "sell": 1, "strongSell": 0, "symbol": "AAPL"},
		})
	})
	mux.HandleFunc("/stock/price-target", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"symbol": "AAPL", "targetHigh": 250, "targetLow": 160, "targetMean": 210, "targetMedian": 212,
		})
	})
	mux.HandleFunc("/stock/upgrade-downgrade", func(w http.ResponseWriter, r *http.Request) {
		require.NotEmpty(t, r.URL.Query().Get("from"), "default range must be filled in")
		require.NotEmpty(t, r.URL.Query().Get("to"))
		_ = json.NewEncoder(w).Encode([]map[string]interface{}{
			{"symbol": "AAPL", "company": "BigBank", "fromGrade": "Hold", "toGrade": "Buy", "action": "up"},
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return New("test-token", srv.URL, nil)
}

func TestAnalystSummaryBundlesAllViews(t *testing.T) {
	client := newTestClient(t)

	raw, err := client.AnalystSummary(context.Background(), "aapl")
	require.NoError(t, err)

	var summary map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &summary))
	assert.Contains(t, summary, "recommendations")
	assert.Contains(t, summary, "price_target")
	assert.Contains(t, summary, "grade_changes")

	var target map[string]interface{}
	require.NoError(t, json.Unmarshal(summary["price_target"], &target))
	assert.Equal(t, "AAPL", target["symbol"])
}

func TestRecommendationTrendsUppercasesSymbol(t *testing.T) {
	client := newTestClient(t)

	raw, err := client.RecommendationTrends(context.Background(), "aapl")
	require.NoError(t, err)

	var trends []map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &trends))
	require.Len(t, trends, 1)
	assert.Equal(t, "AAPL", trends[0]["symbol"])
}
