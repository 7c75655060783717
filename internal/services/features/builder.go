package features

import (
	"fmt"
	"math"

	"SignalDesk/internal/domain/models"
)

const (
	// WindowMin is the first bar index eligible for a feature row.
	WindowMin = 50
	// Lookahead is the longest target horizon in bars.
	Lookahead = 5
	// MinBars is the shortest series that yields at least one row.
	MinBars = WindowMin + Lookahead + 1

	Width = 9
)

// Names lists the feature columns in row order.
var Names = [Width]string{
	"rsi", "macd", "macd_signal", "sma_20", "sma_50", "atr", "close", "return_1", "return_5",
}

// Dataset holds index-aligned feature rows and forward-return targets.
type Dataset struct {
	X       [][]float64
	Target1 []float64
	Target5 []float64
	// Index is the bar index each row was built at.
	Index []int
}

func (d *Dataset) Len() int { return len(d.X) }

// Builder turns an indicator-augmented series into supervised rows.
type Builder struct{}

func NewBuilder() *Builder { return &Builder{} }

// Build produces one row for every i in [WindowMin, len-Lookahead-1].
// Unavailable indicator values are carried as NaN.
func (b *Builder) Build(bars []models.Bar, snaps []models.IndicatorSnapshot) (*Dataset, error) {
	if len(snaps) != len(bars) {
		return nil, fmt.Errorf("features: %d bars but %d snapshots", len(bars), len(snaps))
	}
	if len(bars) < MinBars {
		return nil, fmt.Errorf("features: have %d bars, need %d: %w", len(bars), MinBars, models.ErrInsufficientHistory)
	}

	rows := len(bars) - MinBars + 1
	ds := &Dataset{
		X:       make([][]float64, 0, rows),
		Target1: make([]float64, 0, rows),
		Target5: make([]float64, 0, rows),
		Index:   make([]int, 0, rows),
	}
	for i := WindowMin; i <= len(bars)-Lookahead-1; i++ {
		ds.X = append(ds.X, vectorAt(bars, snaps, i))
		ds.Target1 = append(ds.Target1, pctChange(bars[i].Close, bars[i+1].Close))
		ds.Target5 = append(ds.Target5, pctChange(bars[i].Close, bars[i+Lookahead].Close))
		ds.Index = append(ds.Index, i)
	}
	return ds, nil
}

// Latest returns the feature vector at the final bar. It needs no targets,
// so it is available even though that bar never becomes a training row.
func (b *Builder) Latest(bars []models.Bar, snaps []models.IndicatorSnapshot) ([]float64, error) {
	if len(snaps) != len(bars) {
		return nil, fmt.Errorf("features: %d bars but %d snapshots", len(bars), len(snaps))
	}
	if len(bars) <= WindowMin {
		return nil, fmt.Errorf("features: have %d bars, need %d: %w", len(bars), WindowMin+1, models.ErrInsufficientHistory)
	}
	return vectorAt(bars, snaps, len(bars)-1), nil
}

func vectorAt(bars []models.Bar, snaps []models.IndicatorSnapshot, i int) []float64 {
	s := snaps[i]
	c := bars[i].Close
	return []float64{
		s.RSI.Float(),
		s.MACD.Float(),
		s.MACDSignal.Float(),
		s.SMA20.Float(),
		s.SMA50.Float(),
		s.ATR.Float(),
		c,
		pctChange(bars[i-1].Close, c),
		pctChange(bars[i-5].Close, c),
	}
}

func pctChange(from, to float64) float64 {
	if from == 0 {
		return math.NaN()
	}
	return (to - from) / from * 100
}

// Finite reports whether every value of v is a real number.
func Finite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
