package di

import (
	"context"
	"fmt"
	"io"
	"slices"
	"time"

	"SignalDesk/internal/domain/repository"
	"SignalDesk/internal/handler/api"
	mid "SignalDesk/internal/middleware"
	internalrepo "SignalDesk/internal/repository"
	"SignalDesk/internal/scheduler"
	"SignalDesk/internal/service/cache"
	"SignalDesk/internal/service/marketdata"
	"SignalDesk/internal/service/ratelimit"
	"SignalDesk/internal/service/stream"
	"SignalDesk/internal/services/forecast"
	"SignalDesk/internal/services/indicators"
	"SignalDesk/internal/services/signal"
	"SignalDesk/internal/usecase"
	pkgch "SignalDesk/pkg/clickhouse"
	"SignalDesk/pkg/config"
	xhttp "SignalDesk/pkg/http"
	pkgkafka "SignalDesk/pkg/kafka"
	applogger "SignalDesk/pkg/logger"
	"SignalDesk/pkg/metrics"
	"SignalDesk/pkg/server"
)

const serviceName = "signaldesk"

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	lc := cfg.Logging.Config
	l, err := applogger.New(&lc)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("service", serviceName), applogger.String("env", cfg.Environment)), nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is
// disabled. With logging.collect on, aggregated errors are shipped through it.
func ProvideKafkaProducer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(cfg.Kafka.Options()...)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	if cfg.Logging.Collect {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   cfg.Logging.CollectInterval,
			CountThreshold: cfg.Logging.CollectThreshold,
			Topic:          cfg.Kafka.LogsTopic,
			Service:        serviceName,
			Publisher:      producer,
		})
	}
	return producer, nil
}

// ProvideClickHouseClient connects to ClickHouse when it is one of the
// configured providers, and returns nil otherwise.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !slices.Contains(cfg.Providers.Order, "clickhouse") {
		return nil, nil
	}
	client, err := pkgch.NewClient(cfg.Providers.ClickHouse.Options()...)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideMarketDataSource builds the provider chain in configured order.
func ProvideMarketDataSource(
	cfg *config.Config,
	ch *pkgch.Client,
	l *applogger.Logger,
	m repository.Metrics,
) (repository.MarketDataSource, error) {
	p := cfg.Providers
	providers := make([]repository.MarketDataProvider, 0, len(p.Order))
	for _, name := range p.Order {
		switch name {
		case "twelvedata":
			providers = append(providers, marketdata.NewTwelveData(p.TwelveData.BaseURL, p.TwelveData.APIKey, p.TwelveData.Timeout))
		case "yahoo":
			providers = append(providers, marketdata.NewYahoo(p.Yahoo.BaseURL, p.Yahoo.Timeout))
		case "polygon":
			providers = append(providers, marketdata.NewPolygon(p.Polygon.APIKey, p.Polygon.Timeout))
		case "clickhouse":
			chp, err := internalrepo.NewCHBarProvider(ch, p.ClickHouse.Tables)
			if err != nil {
				return nil, err
			}
			chp.SetLogger(l)
			providers = append(providers, chp)
		default:
			return nil, fmt.Errorf("unknown market data provider %q", name)
		}
	}

	opts := []marketdata.ChainOption{
		marketdata.WithFetchTimeout(cfg.Refresh.FetchTimeout),
		marketdata.WithMinBars(indicators.MinBars),
		marketdata.WithNormalizer(marketdata.NewNormalizer(cfg.Refresh.Bars)),
		marketdata.WithLogger(l),
		marketdata.WithMetrics(m),
	}
	if cfg.Refresh.SyntheticFallback {
		opts = append(opts, marketdata.WithFallback(marketdata.NewSynthetic()))
	}
	chain := marketdata.NewChain(providers, opts...)
	l.Info("market data chain ready",
		applogger.Strings("providers", chain.Providers()),
		applogger.Bool("synthetic_fallback", cfg.Refresh.SyntheticFallback),
	)
	return chain, nil
}

// ProvideEntryStore creates the per-instrument entry store.
func ProvideEntryStore(cfg *config.Config) *internalrepo.CacheStore {
	keys := make([]string, 0, len(cfg.Assets))
	for _, a := range cfg.Assets {
		keys = append(keys, a.Key)
	}
	return internalrepo.NewCacheStore(keys)
}

func ProvideSymbolResolver(cfg *config.Config) *usecase.SymbolResolver {
	return usecase.NewSymbolResolver(cfg.Assets)
}

// ProvideStreamHub creates the WebSocket hub, or nil when disabled.
func ProvideStreamHub(cfg *config.Config, l *applogger.Logger) *stream.Hub {
	if !cfg.WebSocket.Enabled {
		return nil
	}
	return stream.NewHub(cfg.WebSocket, l)
}

// ProvideSignalPipeline wraps the Kafka publisher with validation,
// throttling and retry buffering. It is nil without a producer.
func ProvideSignalPipeline(cfg *config.Config, producer *pkgkafka.Producer, m repository.Metrics) *mid.SignalPipeline {
	if producer == nil {
		return nil
	}
	return mid.NewSignalPipeline(
		internalrepo.NewKafkaSignalPublisher(producer, cfg.Kafka.SignalsTopic),
		m,
		mid.WithBufferSize(512),
	)
}

// ProvideSignalPublisher fans signal events out to every enabled sink.
func ProvideSignalPublisher(hub *stream.Hub, pipeline *mid.SignalPipeline, m repository.Metrics) *internalrepo.MultiPublisher {
	pub := internalrepo.NewMultiPublisher(m)
	if pipeline != nil {
		pub.Add("kafka", pipeline)
	}
	if hub != nil {
		pub.Add("websocket", hub)
	}
	return pub
}

// ProvideRefresher creates the refresh use case.
func ProvideRefresher(
	cfg *config.Config,
	source repository.MarketDataSource,
	store *internalrepo.CacheStore,
	pub *internalrepo.MultiPublisher,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.Refresher {
	opts := []usecase.RefresherOption{
		usecase.WithRefreshMetrics(m),
		usecase.WithRefreshLogger(l),
	}
	if pub.Len() > 0 {
		opts = append(opts, usecase.WithPublisher(pub))
	}
	return usecase.NewRefresher(
		usecase.RefresherConfig{
			Timeframe:     repository.NormalizeTimeframe(cfg.Refresh.Timeframe),
			Bars:          cfg.Refresh.Bars,
			SymbolTimeout: cfg.Refresh.SymbolTimeout,
		},
		cfg.Assets,
		source,
		indicators.NewEngine(),
		forecast.NewTrainer(),
		signal.NewScorer(),
		store,
		opts...,
	)
}

// ProvideQueryUseCase creates the read-side use case.
func ProvideQueryUseCase(
	cfg *config.Config,
	store *internalrepo.CacheStore,
	symbols *usecase.SymbolResolver,
	refresher *usecase.Refresher,
) *usecase.QueryUseCase {
	return usecase.NewQueryUseCase(store, symbols, usecase.QueryConfig{
		AccountBalance: cfg.Analysis.AccountBalance,
		RiskPercent:    cfg.Analysis.RiskPercent,
		Timeframe:      repository.NormalizeTimeframe(cfg.Refresh.Timeframe),
		StaleAfter:     cfg.Analysis.StaleAfter,
	}, refresher.Running)
}

// ProvideResponseCache creates the analysis response cache. An unreachable
// Redis degrades to the in-memory backend.
func ProvideResponseCache(cfg *config.Config, l *applogger.Logger) cache.BytesCache {
	c, err := cache.New(cfg.Cache)
	if err != nil {
		l.Warn("response cache disabled", applogger.Error(err))
		return nil
	}
	if p, ok := c.(interface{ Ping(context.Context) error }); ok {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := p.Ping(ctx); err != nil {
			l.Warn("redis unreachable, using in-memory response cache",
				applogger.String("backend", cfg.Cache.Backend), applogger.Error(err))
			if cl, ok := c.(io.Closer); ok {
				_ = cl.Close()
			}
			return cache.NewTTLCache()
		}
	}
	return c
}

// ProvideRateLimiter creates the per-IP limiter, or nil when disabled.
func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	if !cfg.RateLimit.Enabled {
		return nil
	}
	return ratelimit.New(cfg.RateLimit.Burst, cfg.RateLimit.PerSecond)
}

// ProvideHandler creates the HTTP handler.
func ProvideHandler(
	cfg *config.Config,
	l *applogger.Logger,
	query *usecase.QueryUseCase,
	respCache cache.BytesCache,
	limiter *ratelimit.Limiter,
	hub *stream.Hub,
) *api.Handler {
	opts := []api.Option{api.WithResponseCache(respCache, cfg.Cache.TTL)}
	if limiter != nil {
		opts = append(opts, api.WithRateLimit(limiter))
	}
	if hub != nil {
		opts = append(opts, api.WithStream(hub))
	}
	return api.NewHandler(l, query, opts...)
}

// ProvideHTTPServer creates the Echo server.
func ProvideHTTPServer(cfg *config.Config, h *api.Handler, l *applogger.Logger) *xhttp.Server {
	return xhttp.NewServer(h, xhttp.WithConfig(cfg.Server), xhttp.WithLogger(l))
}

// ProvideScheduler registers the refresh cycle and housekeeping jobs.
func ProvideScheduler(
	cfg *config.Config,
	refresher *usecase.Refresher,
	limiter *ratelimit.Limiter,
	respCache cache.BytesCache,
	l *applogger.Logger,
) (*scheduler.Runner, error) {
	r := scheduler.New(l)
	if _, err := r.Every("refresh", cfg.Refresh.Interval, cfg.Refresh.RunOnStart, func(ctx context.Context) {
		refresher.RefreshAll(ctx)
	}); err != nil {
		return nil, err
	}
	if limiter != nil {
		idle := cfg.RateLimit.IdleAfter
		if _, err := r.Every("rate-limit-prune", 5*time.Minute, false, func(context.Context) {
			if n := limiter.Prune(idle); n > 0 {
				l.Debug("pruned idle rate limit buckets", applogger.Int("count", n))
			}
		}); err != nil {
			return nil, err
		}
	}
	if sw, ok := respCache.(interface{ Sweep() int }); ok {
		if _, err := r.Every("cache-sweep", time.Minute, false, func(context.Context) {
			sw.Sweep()
		}); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// ProvideApp assembles the application lifecycle.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	runner *scheduler.Runner,
	httpServer *xhttp.Server,
	pipeline *mid.SignalPipeline,
	pub *internalrepo.MultiPublisher,
	producer *pkgkafka.Producer,
	ch *pkgch.Client,
	respCache cache.BytesCache,
) *server.App {
	app := server.New(l, runner, httpServer, cfg.Server.ShutdownTimeout)
	if pipeline != nil {
		app.AddService(pipeline)
	}
	// closed in reverse: publishers first, the producer after them
	if producer != nil {
		app.AddCloser("kafka producer", producer)
		if cfg.Logging.Collect {
			app.AddCloser("log collector", collectorCloser{l})
		}
	}
	if ch != nil {
		app.AddCloser("clickhouse", ch)
	}
	if cl, ok := respCache.(io.Closer); ok {
		app.AddCloser("response cache", cl)
	}
	app.AddCloser("signal publishers", pub)
	return app
}

// collectorCloser flushes the log collector before the producer closes.
type collectorCloser struct{ l *applogger.Logger }

func (c collectorCloser) Close() error {
	c.l.RemoveCollector()
	return nil
}
