package cache

import (
	"strings"
)

// Key builds a cache key from an endpoint and parameters. Parameters are
// joined in the order given, so callers must normalize them first.
func Key(endpoint string, params ...string) string {
	if len(params) == 0 {
		return endpoint
	}
	return endpoint + ":" + strings.Join(params, ":")
}

// TickerKey builds a key for a ticker-scoped endpoint with optional extra
// parameters. The ticker is upper-cased so "aapl" and "AAPL" coalesce.
func TickerKey(endpoint, ticker string, params ...string) string {
	parts := append([]string{strings.ToUpper(strings.TrimSpace(ticker))}, params...)
	return Key(endpoint, parts...)
}
