package finnhub

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"StockResearch/internal/domain/models"
	xhttp "StockResearch/pkg/http"
	"StockResearch/pkg/util"
)

// Client calls the Finnhub REST API. Analyst data is the one category not
// covered by Alpha Vantage.
type Client struct {
	apiKey  string
	baseURL string
	http    *xhttp.Client
}

// New creates a Finnhub REST client.
func New(apiKey, baseURL string, httpClient *xhttp.Client) *Client {
	if httpClient == nil {
		httpClient = xhttp.NewClient()
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		http:    httpClient,
	}
}

func (c *Client) get(ctx context.Context, endpoint string, params map[string]string, dest interface{}) error {
	query := map[string][]string{"token": {c.apiKey}}
	for k, v := range params {
		query[k] = []string{v}
	}

	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         fmt.Sprintf("%s/%s", c.baseURL, endpoint),
		QueryParams: query,
	}, dest)
	if err != nil {
		return fmt.Errorf("finnhub %s: %w", endpoint, err)
	}
	return nil
}

// RecommendationTrends fetches analyst buy/hold/sell counts over time.
func (c *Client) RecommendationTrends(ctx context.Context, symbol string) (json.RawMessage, error) {
	var trends []models.RecommendationTrend
	if err := c.get(ctx, "stock/recommendation", map[string]string{
		"symbol": strings.ToUpper(symbol),
	}, &trends); err != nil {
		return nil, err
	}
	return json.Marshal(trends)
}

// PriceTarget fetches the analyst consensus price target.
func (c *Client) PriceTarget(ctx context.Context, symbol string) (json.RawMessage, error) {
	var target models.PriceTarget
	if err := c.get(ctx, "stock/price-target", map[string]string{
		"symbol": strings.ToUpper(symbol),
	}, &target); err != nil {
		return nil, err
	}
	return json.Marshal(target)
}

// GradeChanges fetches analyst upgrades/downgrades over the last 90 days
// unless an explicit range is given (YYYY-MM-DD).
func (c *Client) GradeChanges(ctx context.Context, symbol, from, to string) (json.RawMessage, error) {
	if from == "" || to == "" {
		defFrom, defTo := util.DayRange(time.Now(), 90)
		if from == "" {
			from = defFrom
		}
		if to == "" {
			to = defTo
		}
	}

	var changes []models.GradeChange
	if err := c.get(ctx, "stock/upgrade-downgrade", map[string]string{
		"symbol": strings.ToUpper(symbol),
		"from":   from,
		"to":     to,
	}, &changes); err != nil {
		return nil, err
	}
	return json.Marshal(changes)
}

// AnalystSummary bundles all three analyst views into one payload for the
// research report's analysts section.
func (c *Client) AnalystSummary(ctx context.Context, symbol string) (json.RawMessage, error) {
	trends, err := c.RecommendationTrends(ctx, symbol)
	if err != nil {
		return nil, err
	}
	target, err := c.PriceTarget(ctx, symbol)
	if err != nil {
		return nil, err
	}
	changes, err := c.GradeChanges(ctx, symbol, "", "")
	if err != nil {
		return nil, err
	}

	return json.Marshal(map[string]json.RawMessage{
		"recommendations": trends,
		"price_target":    target,
		"grade_changes":   changes,
	})
}
