package marketdata

import (
	"context"
	"errors"
	"fmt"
	"time"

	"SignalDesk/internal/domain/models"
	domrepo "SignalDesk/internal/domain/repository"
	applogger "SignalDesk/pkg/logger"
)

// Chain asks each provider in order and returns the first series that is
// long enough after normalization. When every provider fails it falls
// back to the synthetic provider, if one is set.
type Chain struct {
	providers  []domrepo.MarketDataProvider
	fallback   domrepo.MarketDataProvider
	normalizer *Normalizer
	timeout    time.Duration
	minBars    int

	l *applogger.Logger
	m domrepo.Metrics
}

var _ domrepo.MarketDataSource = (*Chain)(nil)

type ChainOption func(*Chain)

// WithFallback sets the provider used once the chain is exhausted.
func WithFallback(p domrepo.MarketDataProvider) ChainOption {
	return func(c *Chain) { c.fallback = p }
}

func WithFetchTimeout(d time.Duration) ChainOption {
	return func(c *Chain) { c.timeout = d }
}

// WithMinBars rejects provider results shorter than n after normalization.
func WithMinBars(n int) ChainOption {
	return func(c *Chain) { c.minBars = n }
}

func WithNormalizer(n *Normalizer) ChainOption {
	return func(c *Chain) { c.normalizer = n }
}

func WithLogger(l *applogger.Logger) ChainOption {
	return func(c *Chain) { c.l = l }
}

func WithMetrics(m domrepo.Metrics) ChainOption {
	return func(c *Chain) { c.m = m }
}

func NewChain(providers []domrepo.MarketDataProvider, opts ...ChainOption) *Chain {
	c := &Chain{
		providers:  providers,
		normalizer: NewNormalizer(DefaultMaxBars),
		timeout:    10 * time.Second,
		minBars:    1,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Providers lists the live provider names in query order.
func (c *Chain) Providers() []string {
	names := make([]string, 0, len(c.providers))
	for _, p := range c.providers {
		names = append(names, p.Name())
	}
	return names
}

func (c *Chain) Fetch(ctx context.Context, asset models.Asset, tf domrepo.Timeframe, n int) (models.Series, error) {
	var errs []error
	for _, p := range c.providers {
		bars, err := c.try(ctx, p, asset, tf, n)
		if err == nil {
			return models.Series{Symbol: asset.Key, Source: p.Name(), Bars: bars}, nil
		}
		if ctx.Err() != nil {
			return models.Series{}, ctx.Err()
		}
		errs = append(errs, err)
		if c.m != nil {
			c.m.RecordError("provider_" + p.Name())
		}
		if c.l != nil {
			c.l.Warn("market data provider failed",
				applogger.String("provider", p.Name()),
				applogger.String("symbol", asset.Key),
				applogger.String("tf", tf.String()),
				applogger.Error(err),
			)
		}
	}

	if len(errs) == 0 {
		errs = append(errs, errors.New("no providers configured"))
	}
	if c.fallback == nil {
		return models.Series{}, fmt.Errorf("%s: %w: %w", asset.Key, models.ErrProviderUnavailable, errors.Join(errs...))
	}

	bars, err := c.try(ctx, c.fallback, asset, tf, n)
	if err != nil {
		errs = append(errs, err)
		return models.Series{}, fmt.Errorf("%s: %w: %w", asset.Key, models.ErrProviderUnavailable, errors.Join(errs...))
	}
	if c.l != nil {
		c.l.Warn("serving placeholder series",
			applogger.String("provider", c.fallback.Name()),
			applogger.String("symbol", asset.Key),
		)
	}
	return models.Series{Symbol: asset.Key, Source: c.fallback.Name(), Degraded: true, Bars: bars}, nil
}

func (c *Chain) try(ctx context.Context, p domrepo.MarketDataProvider, asset models.Asset, tf domrepo.Timeframe, n int) ([]models.Bar, error) {
	start := time.Now()
	fctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	raw, err := p.LatestBars(fctx, asset, tf, n)
	if c.m != nil {
		c.m.RecordLatency("fetch_"+p.Name(), time.Since(start).Seconds())
	}
	if err != nil {
		return nil, err
	}
	bars := c.normalizer.Normalize(raw)
	if len(bars) < c.minBars {
		return nil, fmt.Errorf("%s: %d usable bars, need %d: %w", p.Name(), len(bars), c.minBars, models.ErrInsufficientHistory)
	}
	return bars, nil
}
