package usecase

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"SignalDesk/internal/domain/models"
	domrepo "SignalDesk/internal/domain/repository"
	"SignalDesk/internal/services/risk"
	"SignalDesk/pkg/util"
)

// QueryConfig holds the read-side settings.
type QueryConfig struct {
	AccountBalance float64
	RiskPercent    float64
	Timeframe      domrepo.Timeframe // bar resolution the refresher runs at
	StaleAfter     time.Duration
}

// QueryUseCase answers read requests from the entry store. It never
// triggers a refresh.
type QueryUseCase struct {
	store   domrepo.EntryStore
	symbols *SymbolResolver
	cfg     QueryConfig
	running func() bool
	now     func() time.Time
}

func NewQueryUseCase(store domrepo.EntryStore, symbols *SymbolResolver, cfg QueryConfig, running func() bool) *QueryUseCase {
	if cfg.AccountBalance <= 0 {
		cfg.AccountBalance = 10000
	}
	if cfg.RiskPercent <= 0 {
		cfg.RiskPercent = 2
	}
	if !domrepo.IsValidTimeframe(cfg.Timeframe) {
		cfg.Timeframe = domrepo.DefaultTimeframe()
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = 3 * time.Minute
	}
	if running == nil {
		running = func() bool { return false }
	}
	return &QueryUseCase{store: store, symbols: symbols, cfg: cfg, running: running, now: time.Now}
}

func (uc *QueryUseCase) Assets() []string { return uc.symbols.Keys() }

// Entry resolves raw and returns its current entry.
// Errors wrap models.ErrUnknownSymbol or models.ErrNotReady.
func (uc *QueryUseCase) Entry(raw string) (*models.CacheEntry, error) {
	a, err := uc.symbols.Resolve(raw)
	if err != nil {
		return nil, err
	}
	e, ok := uc.store.Get(a.Key)
	if !ok {
		return nil, fmt.Errorf("%s: %w", a.Key, models.ErrNotReady)
	}
	return e, nil
}

// Data returns the last limit bars with their indicators.
func (uc *QueryUseCase) Data(raw string, limit int) (*DataView, error) {
	e, err := uc.Entry(raw)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	bars := e.Tail(limit)
	offset := len(e.Bars) - len(bars)

	rows := make([]BarView, 0, len(bars))
	for i, b := range bars {
		rows = append(rows, BarView{
			Datetime:      util.ISOTime(b.Timestamp),
			Open:          util.Round(b.Open, pricePlaces),
			High:          util.Round(b.High, pricePlaces),
			Low:           util.Round(b.Low, pricePlaces),
			Close:         util.Round(b.Close, pricePlaces),
			Volume:        b.Volume,
			IndicatorView: indicatorView(e.Indicators[offset+i]),
		})
	}
	last, _, _ := e.Latest()
	return &DataView{
		Symbol:       e.Symbol,
		CurrentPrice: util.Round(last.Close, pricePlaces),
		Count:        len(rows),
		Data:         rows,
		Source:       e.Source,
		Degraded:     e.Degraded,
		LastUpdate:   util.ISOTime(e.UpdatedAt),
	}, nil
}

// Analysis assembles indicators, signal, forecasts and risk guidance for
// the latest bar. Forecast keys are labelled in bar-time, e.g. 1m/5m/15m.
func (uc *QueryUseCase) Analysis(raw string, tf domrepo.Timeframe) (*AnalysisView, error) {
	e, err := uc.Entry(raw)
	if err != nil {
		return nil, err
	}
	last, snap, ok := e.Latest()
	if !ok {
		return nil, fmt.Errorf("%s: empty entry: %w", e.Symbol, models.ErrNotReady)
	}

	preds := make(map[string]*PredictionView, 3)
	for _, steps := range []int{1, 5, 15} {
		var pv *PredictionView
		if h, ok := e.Forecast.Horizon(steps); ok {
			pv = predictionView(h)
		}
		preds[uc.cfg.Timeframe.HorizonLabel(steps)] = pv
	}
	// A stale model carries the previous cycle's forecast, priced off its own basis.
	var basis *float64
	var madeAt string
	if e.Forecast != nil {
		basis = util.RoundPtr(e.Forecast.Basis, true, pricePlaces)
		madeAt = util.ISOTime(e.Forecast.MadeAt)
	}

	return &AnalysisView{
		Symbol:         e.Symbol,
		Timeframe:      tf.String(),
		BarTimeframe:   uc.cfg.Timeframe.String(),
		CurrentPrice:   util.Round(last.Close, pricePlaces),
		Timestamp:      util.ISOTime(last.Timestamp),
		Indicators:     indicatorView(snap),
		Signal:         signalView(e.Signal),
		Predictions:    preds,
		ForecastBasis:  basis,
		ForecastMadeAt: madeAt,
		RiskManagement: uc.riskBlock(last.Close, e.Signal),
		Source:         e.Source,
		Degraded:       e.Degraded,
		ModelStale:     e.ModelStale,
		CycleID:        e.CycleID,
		UpdatedAt:      util.ISOTime(e.UpdatedAt),
	}, nil
}

func (uc *QueryUseCase) riskBlock(price float64, sig models.Signal) RiskManagementView {
	r := risk.Calculate(uc.cfg.AccountBalance, uc.cfg.RiskPercent, price, sig.StopLoss)
	tpDist := 0.0
	if price != 0 {
		tpDist = math.Abs(sig.TakeProfit-price) / price * 100
	}
	return RiskManagementView{
		PositionSize:      util.Round(r.PositionSize, moneyPlaces),
		RiskAmount:        util.Round(r.RiskAmount, moneyPlaces),
		RiskPercent:       uc.cfg.RiskPercent,
		SLDistancePercent: util.Round(r.SLDistancePct, pctPlaces),
		TPDistancePercent: util.Round(tpDist, pctPlaces),
	}
}

// Risk runs the position calculator for arbitrary inputs.
func (uc *QueryUseCase) Risk(req models.RiskRequest) *RiskView {
	r := risk.Calculate(req.Balance, req.RiskPercent, req.EntryPrice, req.StopLoss)
	dir := "short"
	if r.Long {
		dir = "long"
	}
	scenarios := make(map[string]RiskScenarioView, len(r.Scenarios))
	for _, s := range r.Scenarios {
		scenarios["RR_"+strconv.FormatFloat(s.Ratio, 'f', -1, 64)] = RiskScenarioView{
			TPPrice:         util.Round(s.TargetPrice, pricePlaces),
			ProfitPotential: util.Round(s.ProfitPotential, moneyPlaces),
			RiskReward:      s.Ratio,
		}
	}
	return &RiskView{
		Input: RiskInputView{
			Balance:     req.Balance,
			RiskPercent: req.RiskPercent,
			EntryPrice:  req.EntryPrice,
			StopLoss:    req.StopLoss,
		},
		Calculations: RiskCalculationsView{
			RiskAmount:        util.Round(r.RiskAmount, moneyPlaces),
			PositionSize:      util.Round(r.PositionSize, moneyPlaces),
			SLDistancePercent: util.Round(r.SLDistancePct, pctPlaces),
			MaxLoss:           util.Round(r.MaxLoss, moneyPlaces),
			Direction:         dir,
		},
		Scenarios: scenarios,
	}
}

// Health reports per-instrument freshness. Status is "starting" until every
// instrument has an entry, "degraded" when any is stale or synthetic.
func (uc *QueryUseCase) Health() *HealthView {
	now := uc.now()
	out := &HealthView{Status: "ok", Refreshing: uc.running()}
	for _, sym := range uc.store.Symbols() {
		h := InstrumentHealth{Symbol: sym, Stale: true}
		e, ok := uc.store.Get(sym)
		if !ok {
			out.Status = "starting"
			out.Instruments = append(out.Instruments, h)
			continue
		}
		h.Ready = true
		h.Stale = util.Stale(e.UpdatedAt, now, uc.cfg.StaleAfter)
		h.Source = e.Source
		h.Degraded = e.Degraded
		h.ModelStale = e.ModelStale
		h.Signal = e.Signal.Label
		h.CycleID = e.CycleID
		h.UpdatedAt = util.ISOTime(e.UpdatedAt)
		h.AgeSeconds = util.Round(now.Sub(e.UpdatedAt).Seconds(), 1)
		if (h.Stale || h.Degraded) && out.Status == "ok" {
			out.Status = "degraded"
		}
		out.Instruments = append(out.Instruments, h)
	}
	return out
}

// ChartData is the aligned bar and indicator tail used for rendering.
type ChartData struct {
	Symbol     string
	CycleID    string
	Bars       []models.Bar
	Indicators []models.IndicatorSnapshot
}

// Chart returns the last n bars of raw with their indicator snapshots.
func (uc *QueryUseCase) Chart(raw string, n int) (*ChartData, error) {
	e, err := uc.Entry(raw)
	if err != nil {
		return nil, err
	}
	bars := e.Tail(n)
	offset := len(e.Bars) - len(bars)
	return &ChartData{
		Symbol:     e.Symbol,
		CycleID:    e.CycleID,
		Bars:       bars,
		Indicators: e.Indicators[offset:],
	}, nil
}
