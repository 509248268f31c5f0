package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"log"`
	Cache struct {
		Backend         string        `yaml:"backend"` // redis or memory
		RetentionFactor int           `yaml:"retention_factor"`
		MinRetention    time.Duration `yaml:"min_retention"`
		Redis           struct {
			Host     string `yaml:"host"`
			Port     int    `yaml:"port"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
		TTL struct {
			Quote        time.Duration `yaml:"quote"`
			News         time.Duration `yaml:"news"`
			Fundamentals time.Duration `yaml:"fundamentals"`
			Profile      time.Duration `yaml:"profile"`
			Macro        time.Duration `yaml:"macro"`
			Technicals   time.Duration `yaml:"technicals"`
			Analysts     time.Duration `yaml:"analysts"`
		} `yaml:"ttl"`
	} `yaml:"cache"`
	Providers struct {
		AlphaVantage ProviderConfig `yaml:"alphavantage"`
		Finnhub      ProviderConfig `yaml:"finnhub"`
		Alpaca       AlpacaConfig   `yaml:"alpaca"`
		FetchTimeout time.Duration  `yaml:"fetch_timeout"`
	} `yaml:"providers"`
	Stream struct {
		Enabled        bool          `yaml:"enabled"`
		WebSocketURL   string        `yaml:"websocket_url"`
		Symbols        []string      `yaml:"symbols"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		PingInterval   time.Duration `yaml:"ping_interval"`
	} `yaml:"stream"`
	Research struct {
		SectionTimeout time.Duration `yaml:"section_timeout"`
	} `yaml:"research"`
	Audit struct {
		Backend    string `yaml:"backend"` // clickhouse, kafka, or none
		ClickHouse struct {
			Host         string        `yaml:"host"`
			Port         int           `yaml:"port"`
			Database     string        `yaml:"database"`
			User         string        `yaml:"user"`
			Password     string        `yaml:"password"`
			UseHTTP      bool          `yaml:"use_http"`
			AsyncInsert  bool          `yaml:"async_insert"`
			DialTimeout  time.Duration `yaml:"dial_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			BatchSize    int           `yaml:"batch_size"`
			FlushEvery   time.Duration `yaml:"flush_every"`
		} `yaml:"clickhouse"`
		Kafka struct {
			Brokers      []string      `yaml:"brokers"`
			Topic        string        `yaml:"topic"`
			RequiredAcks int           `yaml:"required_acks"`
			Compression  string        `yaml:"compression"`
			MaxAttempts  int           `yaml:"max_attempts"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"kafka"`
	} `yaml:"audit"`
	Warmer struct {
		Enabled        bool          `yaml:"enabled"`
		Interval       time.Duration `yaml:"interval"`
		Workers        int           `yaml:"workers"`
		BudgetHeadroom float64       `yaml:"budget_headroom"`
	} `yaml:"warmer"`
	Trading struct {
		MaxOrderValue   float64  `yaml:"max_order_value"`
		MaxPositionSize float64  `yaml:"max_position_size"`
		AllowedSymbols  []string `yaml:"allowed_symbols"`
	} `yaml:"trading"`
}

// ProviderConfig holds the access and budget settings for one upstream API.
type ProviderConfig struct {
	APIKey    string        `yaml:"api_key"`
	BaseURL   string        `yaml:"base_url"`
	Limit     int           `yaml:"limit"`
	WindowDur time.Duration `yaml:"window"`
}

// AlpacaConfig extends ProviderConfig with the second key and paper flag.
type AlpacaConfig struct {
	APIKey    string        `yaml:"api_key"`
	SecretKey string        `yaml:"secret_key"`
	BaseURL   string        `yaml:"base_url"`
	Paper     bool          `yaml:"paper"`
	Limit     int           `yaml:"limit"`
	WindowDur time.Duration `yaml:"window"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("ALPHA_VANTAGE_API_KEY"); v != "" {
		c.Providers.AlphaVantage.APIKey = v
	}
	if v := os.Getenv("FINNHUB_API_KEY"); v != "" {
		c.Providers.Finnhub.APIKey = v
	}
	if v := os.Getenv("ALPACA_API_KEY"); v != "" {
		c.Providers.Alpaca.APIKey = v
	}
	if v := os.Getenv("ALPACA_SECRET_KEY"); v != "" {
		c.Providers.Alpaca.SecretKey = v
	}
	if v := os.Getenv("ALPACA_PAPER"); v != "" {
		c.Providers.Alpaca.Paper = strings.EqualFold(v, "true")
	}
	if v := os.Getenv("CACHE_BACKEND"); v != "" {
		c.Cache.Backend = v
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Cache.Redis.Host = v
	}
	if v := os.Getenv("REDIS_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Cache.Redis.Port = p
		}
	}
	if v := os.Getenv("AUDIT_BACKEND"); v != "" {
		c.Audit.Backend = v
	}
	if v := os.Getenv("TRADING_ALLOWED_SYMBOLS"); v != "" {
		c.Trading.AllowedSymbols = strings.Split(v, ",")
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if c.Log.Output == "" {
		c.Log.Output = "stdout"
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = "memory"
	}
	if c.Cache.RetentionFactor == 0 {
		c.Cache.RetentionFactor = 14
	}
	if c.Cache.MinRetention == 0 {
		c.Cache.MinRetention = 24 * time.Hour
	}

	// TTL defaults mirror the free-tier refresh cadence of each category.
	ttl := &c.Cache.TTL
	if ttl.Quote == 0 {
		ttl.Quote = time.Minute
	}
	if ttl.News == 0 {
		ttl.News = 15 * time.Minute
	}
	if ttl.Fundamentals == 0 {
		ttl.Fundamentals = 24 * time.Hour
	}
	if ttl.Profile == 0 {
		ttl.Profile = 24 * time.Hour
	}
	if ttl.Macro == 0 {
		ttl.Macro = 24 * time.Hour
	}
	if ttl.Technicals == 0 {
		ttl.Technicals = 5 * time.Minute
	}
	if ttl.Analysts == 0 {
		ttl.Analysts = 6 * time.Hour
	}

	av := &c.Providers.AlphaVantage
	if av.BaseURL == "" {
		av.BaseURL = "https://www.alphavantage.co/query"
	}
	if av.Limit == 0 {
		av.Limit = 25
	}
	if av.WindowDur == 0 {
		av.WindowDur = 24 * time.Hour
	}

	fh := &c.Providers.Finnhub
	if fh.BaseURL == "" {
		fh.BaseURL = "https://finnhub.io/api/v1"
	}
	if fh.Limit == 0 {
		fh.Limit = 60
	}
	if fh.WindowDur == 0 {
		fh.WindowDur = time.Minute
	}

	ap := &c.Providers.Alpaca
	if ap.BaseURL == "" {
		if ap.Paper {
			ap.BaseURL = "https://paper-api.alpaca.markets"
		} else {
			ap.BaseURL = "https://api.alpaca.markets"
		}
	}
	if ap.Limit == 0 {
		ap.Limit = 200
	}
	if ap.WindowDur == 0 {
		ap.WindowDur = time.Minute
	}

	if c.Providers.FetchTimeout == 0 {
		c.Providers.FetchTimeout = 30 * time.Second
	}
	if c.Research.SectionTimeout == 0 {
		c.Research.SectionTimeout = 20 * time.Second
	}
	if c.Stream.WebSocketURL == "" {
		c.Stream.WebSocketURL = "wss://ws.finnhub.io"
	}
	if c.Stream.ReconnectDelay == 0 {
		c.Stream.ReconnectDelay = 5 * time.Second
	}
	if c.Stream.PingInterval == 0 {
		c.Stream.PingInterval = 15 * time.Second
	}
	if c.Audit.Backend == "" {
		c.Audit.Backend = "none"
	}
	if c.Audit.ClickHouse.BatchSize == 0 {
		c.Audit.ClickHouse.BatchSize = 100
	}
	if c.Audit.ClickHouse.FlushEvery == 0 {
		c.Audit.ClickHouse.FlushEvery = 5 * time.Second
	}
	if c.Warmer.Interval == 0 {
		c.Warmer.Interval = 5 * time.Minute
	}
	if c.Warmer.Workers == 0 {
		c.Warmer.Workers = 2
	}
	if c.Warmer.BudgetHeadroom == 0 {
		c.Warmer.BudgetHeadroom = 0.5
	}
	if c.Trading.MaxOrderValue == 0 {
		c.Trading.MaxOrderValue = 5000
	}
	if c.Trading.MaxPositionSize == 0 {
		c.Trading.MaxPositionSize = 10000
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	switch c.Cache.Backend {
	case "redis", "memory", "layered":
	default:
		return fmt.Errorf("cache.backend must be 'redis', 'memory' or 'layered', got '%s'", c.Cache.Backend)
	}
	switch c.Audit.Backend {
	case "clickhouse", "kafka", "none":
	default:
		return fmt.Errorf("audit.backend must be 'clickhouse', 'kafka' or 'none', got '%s'", c.Audit.Backend)
	}
	if c.Audit.Backend == "kafka" && len(c.Audit.Kafka.Brokers) == 0 {
		return fmt.Errorf("audit.kafka.brokers cannot be empty")
	}
	if c.Audit.Backend == "clickhouse" && c.Audit.ClickHouse.Host == "" {
		return fmt.Errorf("audit.clickhouse.host is required")
	}
	if c.Stream.Enabled && len(c.Stream.Symbols) == 0 {
		return fmt.Errorf("stream.symbols cannot be empty when stream is enabled")
	}
	return nil
}
