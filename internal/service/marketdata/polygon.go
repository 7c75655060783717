package marketdata

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"SignalDesk/internal/domain/models"
	domrepo "SignalDesk/internal/domain/repository"

	polygon "github.com/polygon-io/client-go/rest"
	pmodels "github.com/polygon-io/client-go/rest/models"
)

// Polygon reads minute aggregates through the Polygon.io REST client.
type Polygon struct {
	client *polygon.Client
	now    func() time.Time
}

var _ domrepo.MarketDataProvider = (*Polygon)(nil)

func NewPolygon(apiKey string, timeout time.Duration) *Polygon {
	return NewPolygonWithClient(apiKey, &http.Client{Timeout: timeout})
}

func NewPolygonWithClient(apiKey string, hc *http.Client) *Polygon {
	return &Polygon{client: polygon.NewWithClient(apiKey, hc), now: time.Now}
}

func (p *Polygon) Name() string { return "polygon" }

func (p *Polygon) LatestBars(ctx context.Context, asset models.Asset, tf domrepo.Timeframe, n int) ([]models.Bar, error) {
	if asset.Polygon == "" {
		return nil, errors.New("polygon: no ticker mapped for " + asset.Key)
	}
	from, to := domrepo.BarWindow(p.now(), tf, n)

	params := pmodels.ListAggsParams{
		Ticker:     asset.Polygon,
		Multiplier: tf.Minutes(),
		Timespan:   pmodels.Timespan("minute"),
		From:       pmodels.Millis(from),
		To:         pmodels.Millis(to),
	}.
		WithAdjusted(true).
		WithOrder(pmodels.Order("desc")).
		WithLimit(n)

	it := p.client.ListAggs(ctx, params)
	bars := make([]models.Bar, 0, n)
	for it.Next() && len(bars) < n {
		agg := it.Item()
		bars = append(bars, models.Bar{
			Timestamp: time.Time(agg.Timestamp).UTC(),
			Open:      agg.Open,
			High:      agg.High,
			Low:       agg.Low,
			Close:     agg.Close,
			Volume:    agg.Volume,
		})
	}
	if err := it.Err(); err != nil {
		return nil, fmt.Errorf("polygon %s: %w", asset.Polygon, err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("polygon %s: no aggregates", asset.Polygon)
	}
	return bars, nil
}
