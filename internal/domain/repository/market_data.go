package repository

import (
	"context"
	"time"

	"SignalDesk/internal/domain/models"
)

// Timeframe represents bar resolution buckets.
type Timeframe string

const (
	TF1m  Timeframe = "1m"
	TF5m  Timeframe = "5m"
	TF15m Timeframe = "15m"
)

// MarketDataProvider fetches raw bars for one asset from an external source.
// Implementations return an error instead of partial data.
type MarketDataProvider interface {
	Name() string
	LatestBars(ctx context.Context, asset models.Asset, tf Timeframe, n int) ([]models.Bar, error)
}

// MarketDataSource resolves a normalized series, applying provider fallback.
type MarketDataSource interface {
	Fetch(ctx context.Context, asset models.Asset, tf Timeframe, n int) (models.Series, error)
}

// BarWindow is a helper for providers that query by time range.
func BarWindow(now time.Time, tf Timeframe, n int) (from, to time.Time) {
	to = now
	// twice the span leaves room for closed sessions and gaps
	from = now.Add(-2 * time.Duration(n) * tf.Duration())
	return from, to
}
