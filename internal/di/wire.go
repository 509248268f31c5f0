//go:build wireinject
// +build wireinject

package di

import (
	"StockResearch/pkg/config"
	"StockResearch/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Cache
		ProvideCacheBackend,
		ProvideTTLPolicy,
		ProvideStore,

		// Coordination
		ProvideBudget,
		ProvideCoalescer,

		// Providers
		ProvideHTTPClient,
		ProvideAlphaVantage,
		ProvideFinnhub,
		ProvideAlpaca,

		// Audit
		ProvideAuditSink,

		// Use cases
		ProvideResolver,
		ProvideCatalog,
		ProvideResearch,
		ProvideTrading,
		ProvideQuoteStream,
		ProvideWarmer,

		// HTTP
		ProvideHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
