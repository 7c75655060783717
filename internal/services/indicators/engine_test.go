package indicators

import (
	"errors"
	"math"
	"testing"
	"time"

	"SignalDesk/internal/domain/models"
)

func makeBars(n int, closeAt func(i int) float64) []models.Bar {
	start := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)
	out := make([]models.Bar, n)
	for i := range out {
		c := closeAt(i)
		out[i] = models.Bar{
			Timestamp: start.Add(time.Duration(i) * time.Minute),
			Open:      c,
			High:      c * 1.0005,
			Low:       c * 0.9995,
			Close:     c,
			Volume:    1000,
		}
	}
	return out
}

func wavy(i int) float64 {
	return 100 + 3*math.Sin(float64(i)/4) + 0.05*float64(i) + 0.7*math.Cos(float64(i)*1.7)
}

func TestComputeInsufficientHistory(t *testing.T) {
	_, err := NewEngine().Compute(makeBars(MinBars-1, wavy))
	if !errors.Is(err, models.ErrInsufficientHistory) {
		t.Fatalf("expected ErrInsufficientHistory, got %v", err)
	}
}

func TestComputeConstantSeries(t *testing.T) {
	bars := makeBars(60, func(int) float64 { return 1.1 })
	for i := range bars {
		bars[i].High, bars[i].Low = 1.1, 1.1
	}
	snaps, err := NewEngine().Compute(bars)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	last := snaps[len(snaps)-1]
	if !last.RSI.Valid || last.RSI.Value != 50 {
		t.Fatalf("expected rsi 50, got %+v", last.RSI)
	}
	if !last.ATR.Valid || last.ATR.Value != 0 {
		t.Fatalf("expected atr 0, got %+v", last.ATR)
	}
	for name, m := range map[string]models.Metric{"upper": last.BBUpper, "middle": last.BBMiddle, "lower": last.BBLower} {
		if !m.Valid || math.Abs(m.Value-1.1) > 1e-9 {
			t.Fatalf("expected bb %s at 1.1, got %+v", name, m)
		}
	}
}

func TestComputeIncreasingSeries(t *testing.T) {
	bars := makeBars(80, func(i int) float64 { return 100 * math.Pow(1.001, float64(i)) })
	snaps, err := NewEngine().Compute(bars)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	last := snaps[len(snaps)-1]
	if last.RSI.Value != 100 {
		t.Fatalf("expected rsi 100, got %v", last.RSI.Value)
	}
	if !last.MACD.Valid || last.MACD.Value <= 0 {
		t.Fatalf("expected positive macd, got %+v", last.MACD)
	}
	if !(last.SMA20.Value > last.SMA50.Value) {
		t.Fatalf("expected sma20 above sma50")
	}
}

func TestComputeWarmup(t *testing.T) {
	snaps, err := NewEngine().Compute(makeBars(60, wavy))
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	cases := []struct {
		name  string
		get   func(models.IndicatorSnapshot) models.Metric
		first int
	}{
		{"rsi", func(s models.IndicatorSnapshot) models.Metric { return s.RSI }, 14},
		{"ema12", func(s models.IndicatorSnapshot) models.Metric { return s.EMA12 }, 11},
		{"ema26", func(s models.IndicatorSnapshot) models.Metric { return s.EMA26 }, 25},
		{"macd", func(s models.IndicatorSnapshot) models.Metric { return s.MACD }, 25},
		{"macd_signal", func(s models.IndicatorSnapshot) models.Metric { return s.MACDSignal }, 33},
		{"sma20", func(s models.IndicatorSnapshot) models.Metric { return s.SMA20 }, 19},
		{"sma50", func(s models.IndicatorSnapshot) models.Metric { return s.SMA50 }, 49},
		{"atr", func(s models.IndicatorSnapshot) models.Metric { return s.ATR }, 13},
		{"bb_upper", func(s models.IndicatorSnapshot) models.Metric { return s.BBUpper }, 19},
	}
	for _, tc := range cases {
		if tc.get(snaps[tc.first-1]).Valid {
			t.Fatalf("%s should be unavailable at %d", tc.name, tc.first-1)
		}
		if !tc.get(snaps[tc.first]).Valid {
			t.Fatalf("%s should be available at %d", tc.name, tc.first)
		}
	}
}

func TestComputePrefixCausality(t *testing.T) {
	bars := makeBars(100, wavy)
	full, err := NewEngine().Compute(bars)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	for _, i := range []int{49, 55, 70, 99} {
		prefix, err := NewEngine().Compute(bars[:i+1])
		if err != nil {
			t.Fatalf("compute prefix %d: %v", i, err)
		}
		if prefix[i] != full[i] {
			t.Fatalf("index %d differs:\nprefix %+v\nfull   %+v", i, prefix[i], full[i])
		}
	}
}

func TestSMAAndEMA(t *testing.T) {
	sma := SMA([]float64{1, 2, 3, 4}, 2)
	if !math.IsNaN(sma[0]) || sma[1] != 1.5 || sma[3] != 3.5 {
		t.Fatalf("unexpected sma %v", sma)
	}
	ema := EMA([]float64{1, 2, 3}, 2)
	if !math.IsNaN(ema[0]) {
		t.Fatalf("ema should warm up, got %v", ema[0])
	}
	want := 2.0/3.0*2 + 1.0/3.0*1
	if math.Abs(ema[1]-want) > 1e-12 {
		t.Fatalf("ema[1] = %v, want %v", ema[1], want)
	}
}

func TestRSIAllLosses(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 50 - float64(i)
	}
	rsi := RSI(closes, 14)
	if rsi[19] != 0 {
		t.Fatalf("expected rsi 0 on a falling run, got %v", rsi[19])
	}
}
