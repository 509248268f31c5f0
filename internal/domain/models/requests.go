package models

// HTTP request models, bound and validated by pkg/http.ReadAndValidateRequest.

// ResearchRequest asks for a deep research report.
type ResearchRequest struct {
	Ticker   string   `json:"ticker" validate:"required,min=1,max=10"`
	Sections []string `json:"sections" validate:"omitempty,dive,oneof=quote historical profile financials news_sentiment insiders technicals analysts macro"`
	// TimeoutMS bounds each section independently; 0 uses the server default.
	TimeoutMS int `json:"timeout_ms" validate:"omitempty,gte=100,lte=60000"`
}

// HistoricalQuery parameterizes a historical prices request.
type HistoricalQuery struct {
	Timeframe string `query:"timeframe" default:"1M" validate:"oneof=1D 1W 1M 3M 1Y 5Y"`
	Interval  string `query:"interval" default:"1day" validate:"oneof=1min 5min 15min 30min 60min 1day"`
}

// TechnicalsQuery parameterizes a technical indicator request.
type TechnicalsQuery struct {
	Indicator string `query:"indicator" default:"RSI" validate:"oneof=RSI MACD SMA EMA BBANDS"`
	Interval  string `query:"interval" default:"daily" validate:"oneof=daily weekly monthly"`
	Period    int    `query:"period" default:"14" validate:"gte=2,lte=200"`
}

// MacroQuery selects a macroeconomic series.
type MacroQuery struct {
	Series string `query:"series" default:"fed_funds_rate" validate:"oneof=real_gdp cpi inflation fed_funds_rate unemployment treasury_yield"`
}

// SentimentQuery bounds how many news items to fetch.
type SentimentQuery struct {
	Limit int `query:"limit" default:"50" validate:"gte=1,lte=200"`
}

// FinancialsQuery selects which statement to fetch.
type FinancialsQuery struct {
	Statement string `query:"statement" default:"overview" validate:"oneof=overview income balance cashflow earnings"`
}

// OrderRequest places a broker order.
type OrderRequest struct {
	Symbol      string  `json:"symbol" validate:"required,alphanum,min=1,max=10"`
	Qty         float64 `json:"qty" validate:"required,gt=0"`
	Side        string  `json:"side" validate:"required,oneof=buy sell"`
	Type        string  `json:"type" default:"market" validate:"oneof=market limit stop"`
	TimeInForce string  `json:"time_in_force" default:"day" validate:"oneof=day gtc ioc fok"`
	LimitPrice  float64 `json:"limit_price" validate:"required_if=Type limit,omitempty,gt=0"`
	StopPrice   float64 `json:"stop_price" validate:"required_if=Type stop,omitempty,gt=0"`
}
