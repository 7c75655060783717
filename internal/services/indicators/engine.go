package indicators

import (
	"fmt"

	"SignalDesk/internal/domain/models"
)

const (
	RSIPeriod      = 14
	MACDFast       = 12
	MACDSlow       = 26
	MACDSignalSpan = 9
	SMAShort       = 20
	SMALong        = 50
	ATRPeriod      = 14
	BBPeriod       = 20
	BBWidth        = 2.0

	// MinBars is the longest lookback window.
	MinBars = SMALong
)

// Engine computes indicator snapshots for every bar of a series.
// Every value at index i depends only on bars[0..i].
type Engine struct {
	minBars int
}

type Option func(*Engine)

// WithMinBars overrides the minimum series length accepted by Compute.
func WithMinBars(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.minBars = n
		}
	}
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{minBars: MinBars}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Compute returns one snapshot per bar, or ErrInsufficientHistory.
func (e *Engine) Compute(bars []models.Bar) ([]models.IndicatorSnapshot, error) {
	if len(bars) < e.minBars {
		return nil, fmt.Errorf("indicators: have %d bars, need %d: %w", len(bars), e.minBars, models.ErrInsufficientHistory)
	}

	n := len(bars)
	closes := make([]float64, n)
	highs := make([]float64, n)
	lows := make([]float64, n)
	for i, b := range bars {
		closes[i], highs[i], lows[i] = b.Close, b.High, b.Low
	}

	rsi := RSI(closes, RSIPeriod)
	ema12 := EMA(closes, MACDFast)
	ema26 := EMA(closes, MACDSlow)
	macd := sub(ema12, ema26)
	signal := EMA(macd, MACDSignalSpan)
	hist := sub(macd, signal)
	sma20 := SMA(closes, SMAShort)
	sma50 := SMA(closes, SMALong)
	atr := ATR(highs, lows, closes, ATRPeriod)
	bbUp, bbLow := Bollinger(closes, sma20, BBPeriod, BBWidth)

	out := make([]models.IndicatorSnapshot, n)
	for i := range out {
		out[i] = models.IndicatorSnapshot{
			RSI:           models.Available(rsi[i]),
			MACD:          models.Available(macd[i]),
			MACDSignal:    models.Available(signal[i]),
			MACDHistogram: models.Available(hist[i]),
			SMA20:         models.Available(sma20[i]),
			SMA50:         models.Available(sma50[i]),
			EMA12:         models.Available(ema12[i]),
			EMA26:         models.Available(ema26[i]),
			ATR:           models.Available(atr[i]),
			BBUpper:       models.Available(bbUp[i]),
			BBMiddle:      models.Available(sma20[i]),
			BBLower:       models.Available(bbLow[i]),
		}
	}
	return out, nil
}
