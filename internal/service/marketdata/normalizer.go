package marketdata

import (
	"math"
	"slices"

	"SignalDesk/internal/domain/models"
)

// DefaultMaxBars is the tail kept after normalization.
const DefaultMaxBars = 100

// Normalizer turns raw provider bars into the canonical series:
// ascending, unique timestamps in UTC, positive finite closes and
// consistent high/low bounds.
type Normalizer struct {
	maxBars int
}

func NewNormalizer(maxBars int) *Normalizer {
	if maxBars <= 0 {
		maxBars = DefaultMaxBars
	}
	return &Normalizer{maxBars: maxBars}
}

func (n *Normalizer) Normalize(raw []models.Bar) []models.Bar {
	out := make([]models.Bar, 0, len(raw))
	for _, b := range raw {
		if b.Timestamp.IsZero() || !finite(b.Close) || b.Close <= 0 {
			continue
		}
		out = append(out, repair(b))
	}

	slices.SortStableFunc(out, func(a, b models.Bar) int {
		return a.Timestamp.Compare(b.Timestamp)
	})

	// duplicates keep the last occurrence
	dedup := out[:0]
	for i, b := range out {
		if i+1 < len(out) && out[i+1].Timestamp.Equal(b.Timestamp) {
			continue
		}
		dedup = append(dedup, b)
	}

	if len(dedup) > n.maxBars {
		dedup = dedup[len(dedup)-n.maxBars:]
	}
	return slices.Clip(dedup)
}

func repair(b models.Bar) models.Bar {
	b.Timestamp = b.Timestamp.UTC()
	if !finite(b.Open) || b.Open <= 0 {
		b.Open = b.Close
	}
	if !finite(b.High) {
		b.High = b.Close
	}
	if !finite(b.Low) || b.Low <= 0 {
		b.Low = b.Close
	}
	b.High = max(b.High, b.Open, b.Close)
	b.Low = min(b.Low, b.Open, b.Close)
	if !finite(b.Volume) || b.Volume < 0 {
		b.Volume = 0
	}
	return b
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
