package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"StockResearch/internal/domain/models"
	"StockResearch/internal/service/alpaca"
	"StockResearch/internal/service/budget"
	"StockResearch/pkg/logger"
)

var (
	// ErrRiskLimit rejects orders that violate a configured risk control.
	ErrRiskLimit = errors.New("risk limit violated")
)

// RiskConfig holds the order risk controls.
type RiskConfig struct {
	MaxOrderValue   float64
	MaxPositionSize float64
	AllowedSymbols  []string
}

// Trading wraps the broker client with risk controls and budget accounting.
// Orders never touch the cache, but broker calls still count against the
// alpaca budget window.
type Trading struct {
	client  *alpaca.Client
	budget  *budget.Tracker
	risk    RiskConfig
	allowed map[string]struct{}
	logger  *logger.Logger
}

// NewTrading creates the trading use case.
func NewTrading(client *alpaca.Client, bt *budget.Tracker, risk RiskConfig, log *logger.Logger) *Trading {
	var allowed map[string]struct{}
	if len(risk.AllowedSymbols) > 0 {
		allowed = make(map[string]struct{}, len(risk.AllowedSymbols))
		for _, s := range risk.AllowedSymbols {
			allowed[strings.ToUpper(strings.TrimSpace(s))] = struct{}{}
		}
	}
	return &Trading{
		client:  client,
		budget:  bt,
		risk:    risk,
		allowed: allowed,
		logger:  log,
	}
}

// Paper reports whether orders go to the paper endpoint.
func (t *Trading) Paper() bool { return t.client.Paper() }

func (t *Trading) reserve() error {
	if !t.budget.TryReserve("alpaca") {
		return fmt.Errorf("%w: alpaca", ErrBudgetExhausted)
	}
	return nil
}

// Account fetches the account summary.
func (t *Trading) Account(ctx context.Context) (*models.Account, error) {
	if err := t.reserve(); err != nil {
		return nil, err
	}
	return t.client.Account(ctx)
}

// Positions fetches all open positions.
func (t *Trading) Positions(ctx context.Context) ([]models.Position, error) {
	if err := t.reserve(); err != nil {
		return nil, err
	}
	return t.client.Positions(ctx)
}

// Position fetches one position, nil when none exists.
func (t *Trading) Position(ctx context.Context, symbol string) (*models.Position, error) {
	if err := t.reserve(); err != nil {
		return nil, err
	}
	return t.client.Position(ctx, symbol)
}

// PlaceOrder validates risk controls, then submits the order.
func (t *Trading) PlaceOrder(ctx context.Context, req models.OrderRequest) (*models.Order, error) {
	if err := t.checkRisk(ctx, req); err != nil {
		return nil, err
	}
	if err := t.reserve(); err != nil {
		return nil, err
	}

	order, err := t.client.PlaceOrder(ctx, req)
	if err != nil {
		return nil, err
	}
	t.logger.Info("order placed",
		logger.String("symbol", order.Symbol),
		logger.String("side", order.Side),
		logger.String("type", order.Type),
		logger.Float64("qty", order.Qty),
		logger.Bool("paper", t.Paper()),
	)
	return order, nil
}

// Orders lists orders by status.
func (t *Trading) Orders(ctx context.Context, status string) ([]models.Order, error) {
	if err := t.reserve(); err != nil {
		return nil, err
	}
	return t.client.Orders(ctx, status)
}

// CancelOrder cancels one order.
func (t *Trading) CancelOrder(ctx context.Context, orderID string) error {
	if err := t.reserve(); err != nil {
		return err
	}
	return t.client.CancelOrder(ctx, orderID)
}

// checkRisk enforces the allow-list, max order value, and max resulting
// position size for buys.
func (t *Trading) checkRisk(ctx context.Context, req models.OrderRequest) error {
	symbol := strings.ToUpper(req.Symbol)

	if t.allowed != nil {
		if _, ok := t.allowed[symbol]; !ok {
			return fmt.Errorf("%w: symbol %s not in allow-list", ErrRiskLimit, symbol)
		}
	}

	// Estimate order value from the limit price when present; market and
	// stop orders fall back to the current position price when known.
	price := req.LimitPrice
	if price == 0 {
		price = req.StopPrice
	}

	if price > 0 && t.risk.MaxOrderValue > 0 {
		if value := price * req.Qty; value > t.risk.MaxOrderValue {
			return fmt.Errorf("%w: order value %.2f exceeds max %.2f",
				ErrRiskLimit, value, t.risk.MaxOrderValue)
		}
	}

	if req.Side == "buy" && t.risk.MaxPositionSize > 0 && price > 0 {
		// The lookup is a broker call in its own right, so it reserves
		// budget like any other. A failed lookup fails the order rather
		// than skipping the check.
		pos, err := t.Position(ctx, symbol)
		if err != nil {
			return fmt.Errorf("position lookup for risk check: %w", err)
		}
		existing := 0.0
		if pos != nil {
			existing = pos.MarketValue
		}
		if projected := existing + price*req.Qty; projected > t.risk.MaxPositionSize {
			return fmt.Errorf("%w: projected position %.2f exceeds max %.2f",
				ErrRiskLimit, projected, t.risk.MaxPositionSize)
		}
	}

	return nil
}
