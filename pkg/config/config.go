package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"SignalDesk/internal/domain/models"
	"SignalDesk/internal/repository"
	"SignalDesk/internal/service/cache"
	"SignalDesk/internal/service/stream"
	pkgch "SignalDesk/pkg/clickhouse"
	xhttp "SignalDesk/pkg/http"
	pkgkafka "SignalDesk/pkg/kafka"
	applogger "SignalDesk/pkg/logger"

	"github.com/caarlos0/env/v11"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string             `yaml:"environment" default:"development" env:"ENVIRONMENT" validate:"oneof=development staging production"`
	Server      xhttp.ServerConfig `yaml:"server"`
	Logging     LoggingConfig      `yaml:"logging"`
	Refresh     RefreshConfig      `yaml:"refresh"`
	Analysis    AnalysisConfig     `yaml:"analysis"`
	Assets      []models.Asset     `yaml:"assets" validate:"dive"`
	Providers   ProvidersConfig    `yaml:"providers"`
	Cache       cache.Config       `yaml:"cache"`
	RateLimit   RateLimitConfig    `yaml:"rate_limit"`
	Kafka       pkgkafka.Config    `yaml:"kafka"`
	WebSocket   stream.Config      `yaml:"websocket"`
}

type LoggingConfig struct {
	applogger.Config `yaml:",inline"`
	// Collect aggregates repeated warnings/errors and ships them to kafka.logs_topic.
	Collect          bool          `yaml:"collect" env:"LOG_COLLECT"`
	CollectInterval  time.Duration `yaml:"collect_interval" default:"30s"`
	CollectThreshold int           `yaml:"collect_threshold" default:"100"`
}

type RefreshConfig struct {
	Interval          time.Duration `yaml:"interval" default:"60s" env:"REFRESH_INTERVAL" validate:"gte=1s"`
	FetchTimeout      time.Duration `yaml:"fetch_timeout" default:"10s" env:"REFRESH_FETCH_TIMEOUT" validate:"gt=0"`
	SymbolTimeout     time.Duration `yaml:"symbol_timeout" default:"30s" validate:"gt=0"`
	SyntheticFallback bool          `yaml:"synthetic_fallback" default:"true" env:"REFRESH_SYNTHETIC_FALLBACK"`
	Bars              int           `yaml:"bars" default:"100" validate:"gte=56,lte=5000"`
	Timeframe         string        `yaml:"timeframe" default:"1m" env:"REFRESH_TIMEFRAME" validate:"oneof=1m 5m 15m"`
	RunOnStart        bool          `yaml:"run_on_start" default:"true"`
}

type AnalysisConfig struct {
	AccountBalance float64       `yaml:"account_balance" default:"10000" validate:"gt=0"`
	RiskPercent    float64       `yaml:"risk_percent" default:"2" validate:"gt=0,lte=100"`
	StaleAfter     time.Duration `yaml:"stale_after" default:"3m"`
}

type ProvidersConfig struct {
	// Order lists the live providers tried before the synthetic fallback.
	Order      []string           `yaml:"order" default:"[\"twelvedata\",\"yahoo\"]" env:"PROVIDERS" validate:"dive,oneof=twelvedata yahoo polygon clickhouse"`
	TwelveData TwelveDataConfig   `yaml:"twelvedata"`
	Yahoo      YahooConfig        `yaml:"yahoo"`
	Polygon    PolygonConfig      `yaml:"polygon"`
	ClickHouse ClickHouseProvider `yaml:"clickhouse"`
}

type TwelveDataConfig struct {
	APIKey  string        `yaml:"api_key" env:"TWELVE_DATA_API_KEY"`
	BaseURL string        `yaml:"base_url" default:"https://api.twelvedata.com" validate:"url"`
	Timeout time.Duration `yaml:"timeout" default:"10s"`
}

type YahooConfig struct {
	BaseURL string        `yaml:"base_url" default:"https://query1.finance.yahoo.com" validate:"url"`
	Timeout time.Duration `yaml:"timeout" default:"10s"`
}

type PolygonConfig struct {
	APIKey  string        `yaml:"api_key" env:"POLYGON_API_KEY"`
	Timeout time.Duration `yaml:"timeout" default:"10s"`
}

type ClickHouseProvider struct {
	pkgch.Config `yaml:",inline"`
	Tables       repository.CHBarTables `yaml:"tables"`
}

type RateLimitConfig struct {
	Enabled   bool          `yaml:"enabled" default:"true" env:"RATE_LIMIT_ENABLED"`
	Burst     float64       `yaml:"burst" default:"30" validate:"gte=1"`
	PerSecond float64       `yaml:"per_second" default:"10" validate:"gt=0"`
	IdleAfter time.Duration `yaml:"idle_after" default:"10m"`
}

// DefaultAssets is used when the file lists no assets.
func DefaultAssets() []models.Asset {
	return []models.Asset{
		{Key: "EUR/USD", TwelveData: "EUR/USD", Yahoo: "EURUSD=X", Polygon: "C:EURUSD", ClickHouse: "EURUSD", BasePrice: 1.08},
		{Key: "XAU/USD", TwelveData: "XAU/USD", Yahoo: "GC=F", Polygon: "C:XAUUSD", ClickHouse: "XAUUSD", BasePrice: 2300},
		{Key: "BTC/USD", TwelveData: "BTC/USD", Yahoo: "BTC-USD", Polygon: "X:BTCUSD", ClickHouse: "BTCUSD", BasePrice: 60000},
	}
}

var validate = validator.New()

// Load applies defaults, then the YAML file at path (skipped when path is
// empty), then environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := env.Parse(&c); err != nil {
		return nil, fmt.Errorf("env overrides: %w", err)
	}

	if len(c.Assets) == 0 {
		c.Assets = DefaultAssets()
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// Validate checks struct tags and cross-field rules.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}

	seen := make(map[string]bool, len(c.Assets))
	for _, a := range c.Assets {
		if strings.TrimSpace(a.Key) == "" {
			return errors.New("assets: key is required")
		}
		if seen[a.Key] {
			return fmt.Errorf("assets: duplicate key %q", a.Key)
		}
		seen[a.Key] = true
	}

	for _, p := range c.Providers.Order {
		switch p {
		case "polygon":
			if c.Providers.Polygon.APIKey == "" {
				return errors.New("providers.polygon.api_key is required when polygon is enabled")
			}
		case "clickhouse":
			if c.Providers.ClickHouse.Host == "" {
				return errors.New("providers.clickhouse.host is required when clickhouse is enabled")
			}
		}
	}

	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return errors.New("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.Logging.Collect && !c.Kafka.Enabled {
		return errors.New("logging.collect requires kafka.enabled")
	}
	if (c.Cache.Backend == "redis" || c.Cache.Backend == "layered") && c.Cache.Redis.Addr == "" {
		return fmt.Errorf("cache.redis.addr is required for the %s backend", c.Cache.Backend)
	}
	return nil
}
