package di

import (
	"context"
	"fmt"
	"time"

	"StockResearch/internal/handler/api"
	"StockResearch/internal/repository"
	"StockResearch/internal/service/alpaca"
	"StockResearch/internal/service/alphavantage"
	"StockResearch/internal/service/budget"
	"StockResearch/internal/service/coalesce"
	"StockResearch/internal/service/finnhub"
	"StockResearch/internal/store"
	"StockResearch/internal/usecase"
	"StockResearch/pkg/cache"
	pkgch "StockResearch/pkg/clickhouse"
	"StockResearch/pkg/config"
	xhttp "StockResearch/pkg/http"
	pkgkafka "StockResearch/pkg/kafka"
	xlogger "StockResearch/pkg/logger"
	"StockResearch/pkg/metrics"
	"StockResearch/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*xlogger.Logger, error) {
	return xlogger.New(&xlogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
}

// ProvideMetrics creates the Prometheus metrics recorder.
func ProvideMetrics() *metrics.Recorder {
	return metrics.New()
}

// ProvideCacheBackend selects the persistence backend from config.
func ProvideCacheBackend(cfg *config.Config) (cache.Backend, error) {
	switch cfg.Cache.Backend {
	case "redis", "layered":
		rb, err := cache.NewRedisBackend(
			cache.WithRedisHost(cfg.Cache.Redis.Host),
			cache.WithRedisPort(cfg.Cache.Redis.Port),
			cache.WithRedisPassword(cfg.Cache.Redis.Password),
			cache.WithRedisDB(cfg.Cache.Redis.DB),
			cache.WithRedisPrefix(cfg.Cache.Redis.Prefix),
		)
		if err != nil {
			return nil, fmt.Errorf("redis backend: %w", err)
		}
		if cfg.Cache.Backend == "layered" {
			return cache.NewLayeredBackend(rb), nil
		}
		return rb, nil
	default:
		return cache.NewMemoryBackend(), nil
	}
}

// ProvideTTLPolicy builds the per-class freshness policy, with config
// overrides on top of the defaults.
func ProvideTTLPolicy(cfg *config.Config) store.TTLPolicy {
	policy := store.DefaultTTLPolicy()
	overrides := map[store.Class]time.Duration{
		store.ClassQuote:        cfg.Cache.TTL.Quote,
		store.ClassNews:         cfg.Cache.TTL.News,
		store.ClassFundamentals: cfg.Cache.TTL.Fundamentals,
		store.ClassProfile:      cfg.Cache.TTL.Profile,
		store.ClassMacro:        cfg.Cache.TTL.Macro,
		store.ClassTechnicals:   cfg.Cache.TTL.Technicals,
		store.ClassAnalysts:     cfg.Cache.TTL.Analysts,
	}
	for class, ttl := range overrides {
		if ttl > 0 {
			policy[class] = ttl
		}
	}
	return policy
}

// ProvideStore creates the durable TTL cache store.
func ProvideStore(backend cache.Backend, policy store.TTLPolicy, cfg *config.Config) *store.Store {
	return store.New(backend, policy,
		store.WithRetention(cfg.Cache.RetentionFactor, cfg.Cache.MinRetention))
}

// ProvideBudget creates the per-provider rate budget tracker.
func ProvideBudget(cfg *config.Config) *budget.Tracker {
	return budget.New(map[string]budget.Window{
		"alphavantage": {Limit: cfg.Providers.AlphaVantage.Limit, Dur: cfg.Providers.AlphaVantage.WindowDur},
		"finnhub":      {Limit: cfg.Providers.Finnhub.Limit, Dur: cfg.Providers.Finnhub.WindowDur},
		"alpaca":       {Limit: cfg.Providers.Alpaca.Limit, Dur: cfg.Providers.Alpaca.WindowDur},
	})
}

// ProvideCoalescer creates the request coalescer.
func ProvideCoalescer(cfg *config.Config) *coalesce.Coalescer {
	return coalesce.New(cfg.Providers.FetchTimeout)
}

// ProvideHTTPClient creates the shared outbound HTTP client.
func ProvideHTTPClient(cfg *config.Config) *xhttp.Client {
	return xhttp.NewClient(xhttp.WithTimeout(cfg.Providers.FetchTimeout))
}

// ProvideAlphaVantage creates the Alpha Vantage REST client.
func ProvideAlphaVantage(cfg *config.Config, hc *xhttp.Client) *alphavantage.Client {
	return alphavantage.New(cfg.Providers.AlphaVantage.APIKey, cfg.Providers.AlphaVantage.BaseURL, hc)
}

// ProvideFinnhub creates the Finnhub REST client.
func ProvideFinnhub(cfg *config.Config, hc *xhttp.Client) *finnhub.Client {
	return finnhub.New(cfg.Providers.Finnhub.APIKey, cfg.Providers.Finnhub.BaseURL, hc)
}

// ProvideAlpaca creates the Alpaca broker client, nil when unconfigured.
func ProvideAlpaca(cfg *config.Config, hc *xhttp.Client) *alpaca.Client {
	if cfg.Providers.Alpaca.APIKey == "" {
		return nil
	}
	return alpaca.New(
		cfg.Providers.Alpaca.APIKey,
		cfg.Providers.Alpaca.SecretKey,
		cfg.Providers.Alpaca.BaseURL,
		cfg.Providers.Alpaca.Paper,
		hc,
	)
}

// ProvideAuditSink creates the call audit trail selected by config.
func ProvideAuditSink(cfg *config.Config, log *xlogger.Logger) (usecase.AuditSink, error) {
	switch cfg.Audit.Backend {
	case "clickhouse":
		client, err := pkgch.NewClient(
			pkgch.WithHost(cfg.Audit.ClickHouse.Host),
			pkgch.WithPort(cfg.Audit.ClickHouse.Port),
			pkgch.WithDatabase(cfg.Audit.ClickHouse.Database),
			pkgch.WithCredentials(cfg.Audit.ClickHouse.User, cfg.Audit.ClickHouse.Password),
			pkgch.WithHTTP(cfg.Audit.ClickHouse.UseHTTP),
			pkgch.WithAsyncInsert(cfg.Audit.ClickHouse.AsyncInsert, false),
			pkgch.WithTimeouts(cfg.Audit.ClickHouse.DialTimeout, cfg.Audit.ClickHouse.ReadTimeout, cfg.Audit.ClickHouse.WriteTimeout),
		)
		if err != nil {
			return nil, fmt.Errorf("audit clickhouse: %w", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := client.InitSchema(ctx, repository.AuditSchema); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("audit schema: %w", err)
		}
		return repository.NewClickHouseAudit(client,
			cfg.Audit.ClickHouse.BatchSize, cfg.Audit.ClickHouse.FlushEvery, log), nil

	case "kafka":
		producer, err := pkgkafka.NewProducer(
			pkgkafka.WithBrokers(cfg.Audit.Kafka.Brokers),
			pkgkafka.WithCompression(cfg.Audit.Kafka.Compression),
			pkgkafka.WithRequiredAcks(cfg.Audit.Kafka.RequiredAcks),
			pkgkafka.WithMaxAttempts(cfg.Audit.Kafka.MaxAttempts),
			pkgkafka.WithTimeouts(cfg.Audit.Kafka.WriteTimeout, cfg.Audit.Kafka.WriteTimeout),
			pkgkafka.WithAsync(cfg.Audit.Kafka.Async),
			pkgkafka.WithHashByKey(true),
		)
		if err != nil {
			return nil, fmt.Errorf("audit kafka: %w", err)
		}
		return repository.NewKafkaAudit(producer, cfg.Audit.Kafka.Topic, log), nil

	default:
		return repository.NopAudit{}, nil
	}
}

// ProvideResolver creates the cache-first fetch orchestrator.
func ProvideResolver(st *store.Store, bt *budget.Tracker, co *coalesce.Coalescer, audit usecase.AuditSink, rec *metrics.Recorder, log *xlogger.Logger) *usecase.Resolver {
	return usecase.NewResolver(st, bt, co, audit, rec, log)
}

// ProvideCatalog wires the default report sections.
func ProvideCatalog(av *alphavantage.Client, fh *finnhub.Client) usecase.Catalog {
	return usecase.NewCatalog(av, fh)
}

// ProvideResearch creates the report coordinator.
func ProvideResearch(resolver *usecase.Resolver, catalog usecase.Catalog, cfg *config.Config, rec *metrics.Recorder, log *xlogger.Logger) *usecase.ResearchBuilder {
	return usecase.NewResearchBuilder(resolver, catalog, cfg.Research.SectionTimeout, rec, log)
}

// ProvideTrading creates the trading use case, nil when the broker client is
// not configured.
func ProvideTrading(client *alpaca.Client, bt *budget.Tracker, cfg *config.Config, log *xlogger.Logger) *usecase.Trading {
	if client == nil {
		return nil
	}
	return usecase.NewTrading(client, bt, usecase.RiskConfig{
		MaxOrderValue:   cfg.Trading.MaxOrderValue,
		MaxPositionSize: cfg.Trading.MaxPositionSize,
		AllowedSymbols:  cfg.Trading.AllowedSymbols,
	}, log)
}

// ProvideQuoteStream creates the live quote stream, nil when disabled.
func ProvideQuoteStream(cfg *config.Config, st *store.Store, log *xlogger.Logger) *finnhub.Stream {
	if !cfg.Stream.Enabled || cfg.Providers.Finnhub.APIKey == "" {
		return nil
	}
	sink := usecase.NewQuoteWarmer(st, log)
	return finnhub.NewStream(
		cfg.Providers.Finnhub.APIKey,
		cfg.Stream.WebSocketURL,
		cfg.Stream.Symbols,
		cfg.Stream.ReconnectDelay,
		cfg.Stream.PingInterval,
		sink,
		log,
	)
}

// ProvideWarmer creates the background cache warmer, nil when disabled.
func ProvideWarmer(resolver *usecase.Resolver, st *store.Store, bt *budget.Tracker, cfg *config.Config, log *xlogger.Logger) *usecase.Warmer {
	if !cfg.Warmer.Enabled {
		return nil
	}
	return usecase.NewWarmer(resolver, st, bt,
		cfg.Warmer.Interval, cfg.Warmer.Workers, cfg.Warmer.BudgetHeadroom, log)
}

// ProvideHandler creates the HTTP handler.
func ProvideHandler(log *xlogger.Logger, resolver *usecase.Resolver, catalog usecase.Catalog, research *usecase.ResearchBuilder, trading *usecase.Trading, bt *budget.Tracker, av *alphavantage.Client, fh *finnhub.Client) *api.Handler {
	return api.NewHandler(log, resolver, catalog, research, trading, bt, av, fh)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *xlogger.Logger,
	handler *api.Handler,
	stream *finnhub.Stream,
	warmer *usecase.Warmer,
	audit usecase.AuditSink,
	backend cache.Backend,
) *server.App {
	return server.New(cfg, log, handler, stream, warmer, audit, backend)
}
