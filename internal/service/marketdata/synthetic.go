package marketdata

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand"
	"time"

	"SignalDesk/internal/domain/models"
	domrepo "SignalDesk/internal/domain/repository"
)

const (
	SyntheticName      = "synthetic"
	defaultBasePrice   = 100.0
	syntheticBarVolPct = 0.0005
)

// Synthetic produces a placeholder random walk so that the service keeps
// answering when every live provider is down. Series built from it are
// always flagged as degraded by the Chain.
type Synthetic struct {
	now func() time.Time
}

var _ domrepo.MarketDataProvider = (*Synthetic)(nil)

func NewSynthetic() *Synthetic { return &Synthetic{now: time.Now} }

func (s *Synthetic) Name() string { return SyntheticName }

// LatestBars is deterministic for a given asset and bar bucket.
func (s *Synthetic) LatestBars(_ context.Context, asset models.Asset, tf domrepo.Timeframe, n int) ([]models.Bar, error) {
	step := tf.Duration()
	end := s.now().UTC().Truncate(step)

	h := fnv.New64a()
	_, _ = h.Write([]byte(asset.Key))
	rng := rand.New(rand.NewSource(int64(h.Sum64() ^ uint64(end.Unix()))))

	price := asset.BasePrice
	if price <= 0 {
		price = defaultBasePrice
	}

	bars := make([]models.Bar, n)
	for i := 0; i < n; i++ {
		open := price
		price *= 1 + rng.NormFloat64()*syntheticBarVolPct
		wick := math.Abs(rng.NormFloat64()) * syntheticBarVolPct * price
		bars[i] = models.Bar{
			Timestamp: end.Add(-time.Duration(n-1-i) * step),
			Open:      open,
			High:      max(open, price) + wick,
			Low:       min(open, price) - wick,
			Close:     price,
		}
	}
	return bars, nil
}
