package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"StockResearch/internal/domain/models"
	xhttp "StockResearch/pkg/http"
)

// Client calls the Alpha Vantage REST API and normalizes its payloads.
type Client struct {
	apiKey  string
	baseURL string
	http    *xhttp.Client
}

// New creates an Alpha Vantage client.
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

// call performs one API request and surfaces Alpha Vantage's in-band errors.
func (c *Client) call(ctx context.Context, function string, params map[string]string) (map[string]json.RawMessage, error) {
	query := map[string][]string{
		"function": {function},
		"apikey":   {c.apiKey},
	}
	for k, v := range params {
		query[k] = []string{v}
	}

	var payload map[string]json.RawMessage
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         c.baseURL,
		QueryParams: query,
	}, &payload)
	if err != nil {
		return nil, fmt.Errorf("alphavantage %s: %w", function, err)
	}

	// The API reports errors in-band with a 200 status.
	for _, field := range []string{"Error Message", "Note", "Information"} {
		if raw, ok := payload[field]; ok {
			var msg string
			_ = json.Unmarshal(raw, &msg)
			return nil, fmt.Errorf("alphavantage %s: %s", function, msg)
		}
	}

	return payload, nil
}

// passthrough re-serializes a whole payload unchanged.
func passthrough(payload map[string]json.RawMessage) (json.RawMessage, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return b, nil
}

// Quote fetches and normalizes a real-time quote.
func (c *Client) Quote(ctx context.Context, ticker string) (json.RawMessage, error) {
	ticker = strings.ToUpper(ticker)
	payload, err := c.call(ctx, "GLOBAL_QUOTE", map[string]string{"symbol": ticker})
	if err != nil {
		return nil, err
	}

	var g map[string]string
	if raw, ok := payload["Global Quote"]; ok {
		if err := json.Unmarshal(raw, &g); err != nil {
			return nil, fmt.Errorf("alphavantage quote: decode: %w", err)
		}
	}
	if len(g) == 0 {
		return nil, fmt.Errorf("alphavantage quote: empty response for %s", ticker)
	}

	q := models.Quote{
		Ticker:           ticker,
		Price:            parseFloat(g["05. price"]),
		Change:           parseFloat(g["09. change"]),
		ChangePercent:    strings.TrimSuffix(g["10. change percent"], "%"),
		Open:             parseFloat(g["02. open"]),
		High:             parseFloat(g["03. high"]),
		Low:              parseFloat(g["04. low"]),
		PrevClose:        parseFloat(g["08. previous close"]),
		Volume:           parseInt(g["06. volume"]),
		LatestTradingDay: g["07. latest trading day"],
	}
	return json.Marshal(q)
}

// timeframeBars caps how many daily bars each timeframe keeps.
var timeframeBars = map[string]int{
	"1D": 1,
	"1W": 5,
	"1M": 22,
	"3M": 66,
	"1Y": 252,
	"5Y": 1260,
}

// HistoricalPrices fetches daily or intraday OHLCV bars, newest first.
func (c *Client) HistoricalPrices(ctx context.Context, ticker, timeframe, interval string) (json.RawMessage, error) {
	ticker = strings.ToUpper(ticker)

	outputsize := "compact"
	if timeframe == "1Y" || timeframe == "5Y" {
		outputsize = "full"
	}

	var payload map[string]json.RawMessage
	var seriesKey string
	var err error
	if interval == "1day" {
		payload, err = c.call(ctx, "TIME_SERIES_DAILY", map[string]string{
			"symbol":     ticker,
			"outputsize": outputsize,
		})
		seriesKey = "Time Series (Daily)"
	} else {
		payload, err = c.call(ctx, "TIME_SERIES_INTRADAY", map[string]string{
			"symbol":     ticker,
			"interval":   interval,
			"outputsize": outputsize,
		})
		seriesKey = fmt.Sprintf("Time Series (%s)", interval)
	}
	if err != nil {
		return nil, err
	}

	var series map[string]map[string]string
	if raw, ok := payload[seriesKey]; ok {
		if err := json.Unmarshal(raw, &series); err != nil {
			return nil, fmt.Errorf("alphavantage historical: decode: %w", err)
		}
	}

	dates := make([]string, 0, len(series))
	for d := range series {
		dates = append(dates, d)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))

	if interval == "1day" {
		if max, ok := timeframeBars[timeframe]; ok && len(dates) > max {
			dates = dates[:max]
		}
	}

	candles := make([]models.Candle, 0, len(dates))
	for _, d := range dates {
		v := series[d]
		candles = append(candles, models.Candle{
			Date:   d,
			Open:   parseFloat(v["1. open"]),
			High:   parseFloat(v["2. high"]),
			Low:    parseFloat(v["3. low"]),
			Close:  parseFloat(v["4. close"]),
			Volume: parseInt(v["5. volume"]),
		})
	}

	return json.Marshal(models.HistoricalPrices{
		Ticker:    ticker,
		Timeframe: timeframe,
		Interval:  interval,
		Candles:   candles,
	})
}

// CompanyOverview fetches company profile and fundamentals.
func (c *Client) CompanyOverview(ctx context.Context, ticker string) (json.RawMessage, error) {
	payload, err := c.call(ctx, "OVERVIEW", map[string]string{"symbol": strings.ToUpper(ticker)})
	if err != nil {
		return nil, err
	}
	return passthrough(payload)
}

// Financials fetches one financial statement by name.
func (c *Client) Financials(ctx context.Context, ticker, statement string) (json.RawMessage, error) {
	function, ok := map[string]string{
		"overview": "OVERVIEW",
		"income":   "INCOME_STATEMENT",
		"balance":  "BALANCE_SHEET",
		"cashflow": "CASH_FLOW",
		"earnings": "EARNINGS",
	}[statement]
	if !ok {
		return nil, fmt.Errorf("alphavantage financials: unknown statement %q", statement)
	}

	payload, err := c.call(ctx, function, map[string]string{"symbol": strings.ToUpper(ticker)})
	if err != nil {
		return nil, err
	}
	return passthrough(payload)
}

// NewsSentiment fetches recent news with sentiment scores for a ticker.
func (c *Client) NewsSentiment(ctx context.Context, ticker string, limit int) (json.RawMessage, error) {
	if limit <= 0 {
		limit = 50
	}
	payload, err := c.call(ctx, "NEWS_SENTIMENT", map[string]string{
		"tickers": strings.ToUpper(ticker),
		"limit":   strconv.Itoa(limit),
	})
	if err != nil {
		return nil, err
	}
	return passthrough(payload)
}

// InsiderTransactions fetches recent insider trades and summarizes the net
// buying or selling. The feed mixes string and numeric encodings per field,
// including the literal "None", so values go through tolerant converters.
func (c *Client) InsiderTransactions(ctx context.Context, ticker string) (json.RawMessage, error) {
	ticker = strings.ToUpper(ticker)
	payload, err := c.call(ctx, "INSIDER_TRANSACTIONS", map[string]string{"symbol": ticker})
	if err != nil {
		return nil, err
	}

	var rows []map[string]interface{}
	if raw, ok := payload["data"]; ok {
		if err := json.Unmarshal(raw, &rows); err != nil {
			return nil, fmt.Errorf("alphavantage insiders: decode: %w", err)
		}
	}
	if len(rows) > 50 {
		rows = rows[:50]
	}

	var bought, sold int64
	txs := make([]models.InsiderTransaction, 0, len(rows))
	for _, row := range rows {
		shares := anyInt(row["shares"])
		kind := "sell"
		switch anyString(row["acquisition_or_disposition"]) {
		case "A":
			kind = "buy"
			bought += shares
		case "D":
			sold += shares
		}

		txs = append(txs, models.InsiderTransaction{
			Name:            firstOf(row, "executive", "executive_name", "name"),
			Title:           firstOf(row, "executive_title", "title"),
			TransactionDate: anyString(row["transaction_date"]),
			TransactionType: kind,
			Shares:          shares,
			Value:           anyFloat(row["value"]),
			SecurityType:    anyString(row["security_type"]),
		})
	}

	net := bought - sold
	sentiment := "neutral"
	if net > 0 {
		sentiment = "buying"
	} else if net < 0 {
		sentiment = "selling"
	}

	if len(txs) > 20 {
		txs = txs[:20]
	}
	return json.Marshal(models.InsiderActivity{
		Ticker:           ticker,
		Sentiment:        sentiment,
		TotalBought:      bought,
		TotalSold:        sold,
		NetShares:        net,
		TransactionCount: len(rows),
		Transactions:     txs,
	})
}

// Technicals fetches one technical indicator series.
func (c *Client) Technicals(ctx context.Context, ticker, indicator, interval string, period int) (json.RawMessage, error) {
	payload, err := c.call(ctx, strings.ToUpper(indicator), map[string]string{
		"symbol":      strings.ToUpper(ticker),
		"interval":    interval,
		"time_period": strconv.Itoa(period),
		"series_type": "close",
	})
	if err != nil {
		return nil, err
	}
	return passthrough(payload)
}

// macroFunctions maps series names to API functions.
var macroFunctions = map[string]string{
	"real_gdp":       "REAL_GDP",
	"cpi":            "CPI",
	"inflation":      "INFLATION",
	"fed_funds_rate": "FEDERAL_FUNDS_RATE",
	"unemployment":   "UNEMPLOYMENT",
	"treasury_yield": "TREASURY_YIELD",
}

// MacroSeries returns the supported macro series names, sorted.
func MacroSeries() []string {
	out := make([]string, 0, len(macroFunctions))
	for name := range macroFunctions {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Macro fetches one macroeconomic series.
func (c *Client) Macro(ctx context.Context, series string) (json.RawMessage, error) {
	function, ok := macroFunctions[series]
	if !ok {
		return nil, fmt.Errorf("alphavantage macro: unknown series %q", series)
	}

	params := map[string]string{}
	if series == "treasury_yield" {
		params["maturity"] = "10year"
		params["interval"] = "monthly"
	}

	payload, err := c.call(ctx, function, params)
	if err != nil {
		return nil, err
	}
	return passthrough(payload)
}

func anyString(v interface{}) string {
	s, _ := v.(string)
	if s == "None" {
		return ""
	}
	return s
}

func firstOf(row map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if s := anyString(row[k]); s != "" {
			return s
		}
	}
	return ""
}

func anyFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case string:
		return parseFloat(n)
	}
	return 0
}

func anyInt(v interface{}) int64 {
	return int64(anyFloat(v))
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f
}

func parseInt(s string) int64 {
	n, _ := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return n
}
