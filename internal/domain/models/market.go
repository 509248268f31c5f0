package models

// Quote is a normalized real-time quote.
type Quote struct {
	Ticker           string  `json:"ticker"`
	Price            float64 `json:"price"`
	Change           float64 `json:"change"`
	ChangePercent    string  `json:"change_percent"`
	Open             float64 `json:"open"`
	High             float64 `json:"high"`
	Low              float64 `json:"low"`
	PrevClose        float64 `json:"prev_close"`
	Volume           int64   `json:"volume"`
	LatestTradingDay string  `json:"latest_trading_day"`
}

// Candle is one OHLCV bar.
type Candle struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

// HistoricalPrices is a normalized time series response.
type HistoricalPrices struct {
	Ticker    string   `json:"ticker"`
	Timeframe string   `json:"timeframe"`
	Interval  string   `json:"interval"`
	Candles   []Candle `json:"candles"`
}

// RecommendationTrend is one period of analyst buy/hold/sell counts.
type RecommendationTrend struct {
	Period     string `json:"period"`
	StrongBuy  int    `json:"strongBuy"`
	Buy        int    `json:"buy"`
	Hold       int    `json:"hold"`
	Sell       int    `json:"sell"`
	StrongSell int    `json:"strongSell"`
	Symbol     string `json:"symbol"`
}

// PriceTarget is the analyst consensus price target for a symbol.
type PriceTarget struct {
	Symbol       string  `json:"symbol"`
	TargetHigh   float64 `json:"targetHigh"`
	TargetLow    float64 `json:"targetLow"`
	TargetMean   float64 `json:"targetMean"`
	TargetMedian float64 `json:"targetMedian"`
	LastUpdated  string  `json:"lastUpdated"`
}

// GradeChange is one analyst upgrade/downgrade event.
type GradeChange struct {
	Symbol    string `json:"symbol"`
	Company   string `json:"company"`
	Action    string `json:"action"`
	FromGrade string `json:"fromGrade"`
	ToGrade   string `json:"toGrade"`
	GradeTime int64  `json:"gradeTime"`
}

// InsiderTransaction is one normalized insider trade.
type InsiderTransaction struct {
	Name            string  `json:"name"`
	Title           string  `json:"title"`
	TransactionDate string  `json:"transaction_date"`
	TransactionType string  `json:"transaction_type"`
	Shares          int64   `json:"shares"`
	Value           float64 `json:"value,omitempty"`
	SecurityType    string  `json:"security_type"`
}

// InsiderActivity summarizes recent insider trading for a ticker.
type InsiderActivity struct {
	Ticker           string               `json:"ticker"`
	Sentiment        string               `json:"net_insider_sentiment"`
	TotalBought      int64                `json:"total_bought"`
	TotalSold        int64                `json:"total_sold"`
	NetShares        int64                `json:"net_shares"`
	TransactionCount int                  `json:"transaction_count"`
	Transactions     []InsiderTransaction `json:"transactions"`
}

// StreamTrade is a live trade tick from the quote stream.
type StreamTrade struct {
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	Volume    float64 `json:"volume"`
	Timestamp int64   `json:"timestamp"`
}
