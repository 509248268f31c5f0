package models

// Account is a normalized trading account summary.
type Account struct {
	ID             string  `json:"id"`
	Status         string  `json:"status"`
	Currency       string  `json:"currency"`
	Cash           float64 `json:"cash"`
	BuyingPower    float64 `json:"buying_power"`
	Equity         float64 `json:"equity"`
	PortfolioValue float64 `json:"portfolio_value"`
	TradingBlocked bool    `json:"trading_blocked"`
	Paper          bool    `json:"paper"`
}

// Position is one open position.
type Position struct {
	Symbol         string  `json:"symbol"`
	Qty            float64 `json:"qty"`
	AvgEntryPrice  float64 `json:"avg_entry_price"`
	CurrentPrice   float64 `json:"current_price"`
	MarketValue    float64 `json:"market_value"`
	CostBasis      float64 `json:"cost_basis"`
	UnrealizedPL   float64 `json:"unrealized_pl"`
	UnrealizedPLPC float64 `json:"unrealized_plpc"`
	Side           string  `json:"side"`
}

// Order is a normalized broker order.
type Order struct {
	ID          string  `json:"id"`
	Symbol      string  `json:"symbol"`
	Qty         float64 `json:"qty"`
	Side        string  `json:"side"`
	Type        string  `json:"type"`
	TimeInForce string  `json:"time_in_force"`
	LimitPrice  float64 `json:"limit_price,omitempty"`
	StopPrice   float64 `json:"stop_price,omitempty"`
	Status      string  `json:"status"`
	SubmittedAt string  `json:"submitted_at"`
}
