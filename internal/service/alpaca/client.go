package alpaca

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"StockResearch/internal/domain/models"
	xhttp "StockResearch/pkg/http"
)

// Client calls the Alpaca trading API. All numeric fields arrive as strings
// on the wire and are normalized here.
type Client struct {
	apiKey    string
	secretKey string
	baseURL   string
	paper     bool
	http      *xhttp.Client
}

// New creates an Alpaca client.
func New(apiKey, secretKey, baseURL string, paper bool, httpClient *xhttp.Client) *Client {
	if httpClient == nil {
		httpClient = xhttp.NewClient()
	}
	return &Client{
		apiKey:    apiKey,
		secretKey: secretKey,
		baseURL:   baseURL,
		paper:     paper,
		http:      httpClient,
	}
}

// Paper reports whether this client trades against the paper endpoint.
func (c *Client) Paper() bool { return c.paper }

func (c *Client) headers() map[string]string {
	return map[string]string{
		"APCA-API-KEY-ID":     c.apiKey,
		"APCA-API-SECRET-KEY": c.secretKey,
	}
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, dest interface{}) error {
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:  method,
		URL:     c.baseURL + path,
		Headers: c.headers(),
		Body:    body,
	}, dest)
	if err != nil {
		return fmt.Errorf("alpaca %s %s: %w", method, path, err)
	}
	return nil
}

type wireAccount struct {
	ID             string `json:"id"`
	Status         string `json:"status"`
	Currency       string `json:"currency"`
	Cash           string `json:"cash"`
	BuyingPower    string `json:"buying_power"`
	Equity         string `json:"equity"`
	PortfolioValue string `json:"portfolio_value"`
	TradingBlocked bool   `json:"trading_blocked"`
}

// Account fetches the trading account summary.
func (c *Client) Account(ctx context.Context) (*models.Account, error) {
	var w wireAccount
	if err := c.do(ctx, xhttp.MethodGet, "/v2/account", nil, &w); err != nil {
		return nil, err
	}
	return &models.Account{
		ID:             w.ID,
		Status:         w.Status,
		Currency:       w.Currency,
		Cash:           atof(w.Cash),
		BuyingPower:    atof(w.BuyingPower),
		Equity:         atof(w.Equity),
		PortfolioValue: atof(w.PortfolioValue),
		TradingBlocked: w.TradingBlocked,
		Paper:          c.paper,
	}, nil
}

type wirePosition struct {
	Symbol         string `json:"symbol"`
	Qty            string `json:"qty"`
	AvgEntryPrice  string `json:"avg_entry_price"`
	CurrentPrice   string `json:"current_price"`
	MarketValue    string `json:"market_value"`
	CostBasis      string `json:"cost_basis"`
	UnrealizedPL   string `json:"unrealized_pl"`
	UnrealizedPLPC string `json:"unrealized_plpc"`
	Side           string `json:"side"`
}

func (w wirePosition) normalize() models.Position {
	return models.Position{
		Symbol:         w.Symbol,
		Qty:            atof(w.Qty),
		AvgEntryPrice:  atof(w.AvgEntryPrice),
		CurrentPrice:   atof(w.CurrentPrice),
		MarketValue:    atof(w.MarketValue),
		CostBasis:      atof(w.CostBasis),
		UnrealizedPL:   atof(w.UnrealizedPL),
		UnrealizedPLPC: atof(w.UnrealizedPLPC),
		Side:           w.Side,
	}
}

// Positions fetches all open positions.
func (c *Client) Positions(ctx context.Context) ([]models.Position, error) {
	var wires []wirePosition
	if err := c.do(ctx, xhttp.MethodGet, "/v2/positions", nil, &wires); err != nil {
		return nil, err
	}
	out := make([]models.Position, 0, len(wires))
	for _, w := range wires {
		out = append(out, w.normalize())
	}
	return out, nil
}

// Position fetches the position for one symbol. Returns (nil, nil) when no
// position exists.
func (c *Client) Position(ctx context.Context, symbol string) (*models.Position, error) {
	var w wirePosition
	err := c.do(ctx, xhttp.MethodGet, "/v2/positions/"+strings.ToUpper(symbol), nil, &w)
	if err != nil {
		if strings.Contains(err.Error(), "404") {
			return nil, nil
		}
		return nil, err
	}
	p := w.normalize()
	return &p, nil
}

type wireOrder struct {
	ID          string `json:"id"`
	Symbol      string `json:"symbol"`
	Qty         string `json:"qty"`
	Side        string `json:"side"`
	Type        string `json:"type"`
	TimeInForce string `json:"time_in_force"`
	LimitPrice  string `json:"limit_price"`
	StopPrice   string `json:"stop_price"`
	Status      string `json:"status"`
	SubmittedAt string `json:"submitted_at"`
}

func (w wireOrder) normalize() models.Order {
	return models.Order{
		ID:          w.ID,
		Symbol:      w.Symbol,
		Qty:         atof(w.Qty),
		Side:        w.Side,
		Type:        w.Type,
		TimeInForce: w.TimeInForce,
		LimitPrice:  atof(w.LimitPrice),
		StopPrice:   atof(w.StopPrice),
		Status:      w.Status,
		SubmittedAt: w.SubmittedAt,
	}
}

// PlaceOrder submits an order. Risk checks belong to the caller.
func (c *Client) PlaceOrder(ctx context.Context, req models.OrderRequest) (*models.Order, error) {
	body := map[string]interface{}{
		"symbol":        strings.ToUpper(req.Symbol),
		"qty":           strconv.FormatFloat(req.Qty, 'f', -1, 64),
		"side":          req.Side,
		"type":          req.Type,
		"time_in_force": req.TimeInForce,
	}
	if req.Type == "limit" {
		body["limit_price"] = strconv.FormatFloat(req.LimitPrice, 'f', -1, 64)
	}
	if req.Type == "stop" {
		body["stop_price"] = strconv.FormatFloat(req.StopPrice, 'f', -1, 64)
	}

	var w wireOrder
	if err := c.do(ctx, xhttp.MethodPost, "/v2/orders", body, &w); err != nil {
		return nil, err
	}
	o := w.normalize()
	return &o, nil
}

// Orders lists orders filtered by status (open, closed, all).
func (c *Client) Orders(ctx context.Context, status string) ([]models.Order, error) {
	if status == "" {
		status = "open"
	}
	var wires []wireOrder
	if err := c.do(ctx, xhttp.MethodGet, "/v2/orders?status="+status, nil, &wires); err != nil {
		return nil, err
	}
	out := make([]models.Order, 0, len(wires))
	for _, w := range wires {
		out = append(out, w.normalize())
	}
	return out, nil
}

// CancelOrder cancels one order by ID.
func (c *Client) CancelOrder(ctx context.Context, orderID string) error {
	return c.do(ctx, xhttp.MethodDelete, "/v2/orders/"+orderID, nil, nil)
}

func atof(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}
