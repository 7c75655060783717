package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"SignalDesk/internal/domain/models"
	domrepo "SignalDesk/internal/domain/repository"
	"SignalDesk/internal/repository"
	"SignalDesk/pkg/util"
)

var testAssets = []models.Asset{{Key: "EUR/USD"}, {Key: "XAU/USD"}, {Key: "BTC/USD"}}

func TestSymbolResolver(t *testing.T) {
	r := NewSymbolResolver(testAssets)
	for _, raw := range []string{"EUR/USD", "EUR%2FUSD", "eurusd", "EUR-USD"} {
		a, err := r.Resolve(raw)
		if err != nil || a.Key != "EUR/USD" {
			t.Fatalf("Resolve(%q) = %v, %v", raw, a.Key, err)
		}
	}
	if _, err := r.Resolve("DOGE/USD"); !errors.Is(err, models.ErrUnknownSymbol) {
		t.Fatalf("expected ErrUnknownSymbol, got %v", err)
	}
	if keys := r.Keys(); len(keys) != 3 || keys[2] != "BTC/USD" {
		t.Fatalf("unexpected keys %v", keys)
	}
}

func populated(t *testing.T) (*repository.CacheStore, *QueryUseCase) {
	t.Helper()
	store := repository.NewCacheStore([]string{"EUR/USD", "XAU/USD", "BTC/USD"})
	src := &stubSource{series: models.Series{Source: "twelvedata", Bars: wave(100)}}
	r := NewRefresher(RefresherConfig{}, testAssets[:1], src,
		newEngine(), newTrainer(), newScorer(), store)
	r.RefreshAll(context.Background())
	uc := NewQueryUseCase(store, NewSymbolResolver(testAssets), QueryConfig{}, r.Running)
	return store, uc
}

func TestQueryErrors(t *testing.T) {
	_, uc := populated(t)
	if _, err := uc.Data("DOGE", 50); !errors.Is(err, models.ErrUnknownSymbol) {
		t.Fatalf("expected unknown symbol, got %v", err)
	}
	if _, err := uc.Analysis("XAU/USD", domrepo.TF1m); !errors.Is(err, models.ErrNotReady) {
		t.Fatalf("expected not ready, got %v", err)
	}
}

func TestQueryData(t *testing.T) {
	_, uc := populated(t)
	v, err := uc.Data("eurusd", 50)
	if err != nil {
		t.Fatalf("data: %v", err)
	}
	if v.Count != 50 || len(v.Data) != 50 || v.Symbol != "EUR/USD" {
		t.Fatalf("unexpected view count=%d symbol=%s", v.Count, v.Symbol)
	}
	if v.Data[49].RSI == nil || v.Data[49].SMA50 == nil {
		t.Fatalf("latest row should carry indicators")
	}
	if v.Data[49].Close != v.CurrentPrice {
		t.Fatalf("current price should be the last close")
	}
}

func TestQueryAnalysis(t *testing.T) {
	_, uc := populated(t)
	v, err := uc.Analysis("EUR/USD", domrepo.TF5m)
	if err != nil {
		t.Fatalf("analysis: %v", err)
	}
	for _, k := range []string{"1m", "5m", "15m"} {
		p, ok := v.Predictions[k]
		if !ok || p == nil {
			t.Fatalf("missing prediction %s", k)
		}
	}
	if p := v.Predictions["15m"]; !p.Extrapolated || p.Confidence != models.LevelLow {
		t.Fatalf("15m prediction should be a low confidence extrapolation, got %+v", p)
	}
	if v.Timeframe != "5m" || v.BarTimeframe != "1m" {
		t.Fatalf("unexpected timeframes %s/%s", v.Timeframe, v.BarTimeframe)
	}
	if v.RiskManagement.RiskAmount != 200 || v.RiskManagement.RiskPercent != 2 {
		t.Fatalf("unexpected risk block %+v", v.RiskManagement)
	}
	if v.Signal.RiskReward != 1.5 {
		t.Fatalf("unexpected signal %+v", v.Signal)
	}
	if v.ForecastBasis == nil || *v.ForecastBasis != v.CurrentPrice || v.ForecastMadeAt == "" {
		t.Fatalf("fresh forecast should be based on the current price, got %v at %q", v.ForecastBasis, v.ForecastMadeAt)
	}
}

func TestQueryAnalysisStaleForecastBasis(t *testing.T) {
	store, uc := populated(t)
	prev, ok := store.Get("EUR/USD")
	if !ok || prev.Forecast == nil {
		t.Fatalf("expected a populated entry with a forecast")
	}
	stale := *prev
	stale.Bars = append([]models.Bar(nil), prev.Bars...)
	stale.Bars[len(stale.Bars)-1].Close *= 1.01
	stale.ModelStale = true
	if err := store.Replace("EUR/USD", &stale); err != nil {
		t.Fatalf("replace: %v", err)
	}

	v, err := uc.Analysis("EUR/USD", domrepo.TF1m)
	if err != nil {
		t.Fatalf("analysis: %v", err)
	}
	if !v.ModelStale || v.ForecastBasis == nil {
		t.Fatalf("expected a stale entry with a forecast basis, got %+v", v)
	}
	if *v.ForecastBasis != util.Round(prev.Forecast.Basis, 5) || *v.ForecastBasis == v.CurrentPrice {
		t.Fatalf("basis %v should be the previous close, current %v", *v.ForecastBasis, v.CurrentPrice)
	}
	if v.ForecastMadeAt != util.ISOTime(prev.Forecast.MadeAt) {
		t.Fatalf("made at %q, want %q", v.ForecastMadeAt, util.ISOTime(prev.Forecast.MadeAt))
	}
}

func TestQueryAnalysisWithoutForecast(t *testing.T) {
	store := repository.NewCacheStore([]string{"EUR/USD"})
	src := &stubSource{series: models.Series{Source: "synthetic", Degraded: true, Bars: wave(60)}}
	NewRefresher(RefresherConfig{}, testAssets[:1], src, newEngine(), newTrainer(), newScorer(), store).
		RefreshAll(context.Background())
	uc := NewQueryUseCase(store, NewSymbolResolver(testAssets[:1]), QueryConfig{}, nil)

	v, err := uc.Analysis("EUR/USD", domrepo.TF1m)
	if err != nil {
		t.Fatalf("analysis: %v", err)
	}
	if v.Predictions["1m"] != nil || v.ForecastBasis != nil || !v.Degraded || !v.ModelStale {
		t.Fatalf("expected null predictions on degraded entry, got %+v", v)
	}
}

func TestQueryRisk(t *testing.T) {
	_, uc := populated(t)
	v := uc.Risk(models.RiskRequest{Balance: 10000, RiskPercent: 2, EntryPrice: 1.0, StopLoss: 0.98})
	if v.Calculations.RiskAmount != 200 || v.Calculations.PositionSize != 10000 || v.Calculations.MaxLoss != 200 {
		t.Fatalf("unexpected calculations %+v", v.Calculations)
	}
	if len(v.Scenarios) != 5 {
		t.Fatalf("expected 5 scenarios, got %v", v.Scenarios)
	}
	rr := v.Scenarios["RR_1.5"]
	if rr.TPPrice != 1.03 || rr.ProfitPotential != 300 || rr.RiskReward != 1.5 {
		t.Fatalf("unexpected RR_1.5 %+v", rr)
	}
}

func TestQueryRiskOverflow(t *testing.T) {
	_, uc := populated(t)
	v := uc.Risk(models.RiskRequest{Balance: 1e308, RiskPercent: 100, EntryPrice: 1.1, StopLoss: 1.08})
	if v.Calculations.RiskAmount != 0 || v.Calculations.PositionSize != 0 {
		t.Fatalf("overflowing amounts should degrade to 0, got %+v", v.Calculations)
	}

	v = uc.Risk(models.RiskRequest{Balance: 10000, RiskPercent: 2, EntryPrice: 5e-324, StopLoss: 0})
	if v.Calculations.PositionSize != 0 || v.Calculations.RiskAmount != 200 {
		t.Fatalf("unexpected calculations %+v", v.Calculations)
	}
}

func TestQueryHealth(t *testing.T) {
	_, uc := populated(t)
	h := uc.Health()
	if h.Status != "starting" || len(h.Instruments) != 3 {
		t.Fatalf("unexpected health %+v", h)
	}
	if !h.Instruments[0].Ready || h.Instruments[1].Ready {
		t.Fatalf("only EUR/USD should be ready")
	}

	uc.now = func() time.Time { return time.Now().Add(time.Hour) }
	if h := uc.Health(); h.Instruments[0].Stale != true {
		t.Fatalf("entry should be stale an hour later")
	}
}

func TestQueryChart(t *testing.T) {
	_, uc := populated(t)
	d, err := uc.Chart("EUR-USD", 30)
	if err != nil {
		t.Fatalf("chart: %v", err)
	}
	if len(d.Bars) != 30 || len(d.Indicators) != 30 {
		t.Fatalf("expected 30 aligned rows, got %d/%d", len(d.Bars), len(d.Indicators))
	}
	if !d.Indicators[29].SMA20.Valid {
		t.Fatalf("last snapshot should carry sma20")
	}
}
