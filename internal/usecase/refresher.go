package usecase

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync/atomic"
	"time"

	"SignalDesk/internal/domain/models"
	domrepo "SignalDesk/internal/domain/repository"
	domsvc "SignalDesk/internal/domain/service"
	applogger "SignalDesk/pkg/logger"

	"github.com/google/uuid"
)

// Refresh outcome labels, also used as metric label values.
const (
	StatusOK      = "ok"
	StatusPartial = "partial"
	StatusFailed  = "failed"
)

// Refresher runs the refresh cycle: fetch, indicators, training, scoring,
// then a whole-entry swap in the store. It is the store's only writer.
type Refresher struct {
	assets    []models.Asset
	source    domrepo.MarketDataSource
	engine    domsvc.IndicatorEngine
	trainer   domsvc.ForecastTrainer
	scorer    domsvc.SignalScorer
	store     domrepo.EntryStore
	publisher domrepo.SignalPublisher
	metrics   domrepo.Metrics
	l         *applogger.Logger

	tf            domrepo.Timeframe
	bars          int
	symbolTimeout time.Duration

	running atomic.Bool
	now     func() time.Time
	newID   func() string
}

type RefresherConfig struct {
	Timeframe     domrepo.Timeframe
	Bars          int
	SymbolTimeout time.Duration
}

type RefresherOption func(*Refresher)

func WithPublisher(p domrepo.SignalPublisher) RefresherOption {
	return func(r *Refresher) { r.publisher = p }
}

func WithRefreshMetrics(m domrepo.Metrics) RefresherOption {
	return func(r *Refresher) { r.metrics = m }
}

func WithRefreshLogger(l *applogger.Logger) RefresherOption {
	return func(r *Refresher) { r.l = l }
}

func NewRefresher(
	cfg RefresherConfig,
	assets []models.Asset,
	source domrepo.MarketDataSource,
	engine domsvc.IndicatorEngine,
	trainer domsvc.ForecastTrainer,
	scorer domsvc.SignalScorer,
	store domrepo.EntryStore,
	opts ...RefresherOption,
) *Refresher {
	if !domrepo.IsValidTimeframe(cfg.Timeframe) {
		cfg.Timeframe = domrepo.DefaultTimeframe()
	}
	if cfg.Bars <= 0 {
		cfg.Bars = 100
	}
	if cfg.SymbolTimeout <= 0 {
		cfg.SymbolTimeout = 30 * time.Second
	}
	r := &Refresher{
		assets:        assets,
		source:        source,
		engine:        engine,
		trainer:       trainer,
		scorer:        scorer,
		store:         store,
		l:             applogger.Nop(),
		tf:            cfg.Timeframe,
		bars:          cfg.Bars,
		symbolTimeout: cfg.SymbolTimeout,
		now:           time.Now,
		newID:         uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// CycleReport summarizes one RefreshAll call.
type CycleReport struct {
	CycleID  string
	Started  time.Time
	Duration time.Duration
	Skipped  bool
	Status   map[string]string
}

// RefreshAll refreshes every asset in configuration order. A call that
// overlaps a running cycle returns immediately with Skipped set.
func (r *Refresher) RefreshAll(ctx context.Context) CycleReport {
	rep := CycleReport{Started: r.now()}
	if !r.running.CompareAndSwap(false, true) {
		r.l.Warn("refresh cycle still running, skipping")
		rep.Skipped = true
		return rep
	}
	defer r.running.Store(false)

	rep.CycleID = r.newID()
	rep.Status = make(map[string]string, len(r.assets))
	for _, a := range r.assets {
		if ctx.Err() != nil {
			break
		}
		status, err := r.RefreshSymbol(ctx, a, rep.CycleID)
		rep.Status[a.Key] = status
		if err != nil {
			r.l.Error("refresh failed",
				applogger.String("symbol", a.Key),
				applogger.String("status", status),
				applogger.String("cycle_id", rep.CycleID),
				applogger.Error(err),
			)
		}
	}
	rep.Duration = time.Since(rep.Started)
	if r.metrics != nil {
		r.metrics.RecordLatency("refresh_cycle", rep.Duration.Seconds())
	}
	r.l.Info("refresh cycle done",
		applogger.String("cycle_id", rep.CycleID),
		applogger.Duration("duration_ms", rep.Duration),
		applogger.Any("status", rep.Status),
	)
	return rep
}

// Running reports whether a cycle is in progress.
func (r *Refresher) Running() bool { return r.running.Load() }

// RefreshSymbol refreshes one asset. On failure the stored entry is left
// as it was. A training failure is partial: the new entry keeps the
// previous model and forecast and is marked stale.
func (r *Refresher) RefreshSymbol(ctx context.Context, asset models.Asset, cycleID string) (status string, err error) {
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			status = StatusFailed
			err = fmt.Errorf("refresh %s: panic: %v", asset.Key, rec)
			r.l.Error("refresh panic recovered",
				applogger.String("symbol", asset.Key),
				applogger.String("stack", string(debug.Stack())),
			)
		}
		if r.metrics != nil {
			r.metrics.RecordRefresh(asset.Key, status)
			r.metrics.RecordLatency("refresh_symbol", time.Since(start).Seconds())
			if status == StatusFailed {
				r.metrics.RecordError("refresh")
			}
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, r.symbolTimeout)
	defer cancel()

	series, err := r.source.Fetch(ctx, asset, r.tf, r.bars)
	if err != nil {
		return StatusFailed, fmt.Errorf("refresh %s: fetch: %w", asset.Key, err)
	}
	snaps, err := r.engine.Compute(series.Bars)
	if err != nil {
		return StatusFailed, fmt.Errorf("refresh %s: indicators: %w", asset.Key, err)
	}
	last, _ := series.Last()
	n := len(snaps)

	prev, _ := r.store.Get(asset.Key)
	status = StatusOK
	model, fc, trainErr := r.train(series.Bars, snaps, last.Close)
	if trainErr != nil {
		status = StatusPartial
		model, fc = nil, nil
		if prev != nil {
			model, fc = prev.Model, prev.Forecast
		}
		r.l.Warn("model training failed, keeping previous model",
			applogger.String("symbol", asset.Key),
			applogger.Bool("has_previous", model != nil),
			applogger.Error(trainErr),
		)
	}

	sig := r.scorer.Score(last.Close, snaps[n-2], snaps[n-1], fc)
	entry := &models.CacheEntry{
		Symbol:     asset.Key,
		Bars:       series.Bars,
		Indicators: snaps,
		Model:      model,
		Forecast:   fc,
		Signal:     sig,
		Source:     series.Source,
		Degraded:   series.Degraded,
		ModelStale: trainErr != nil,
		CycleID:    cycleID,
		UpdatedAt:  r.now(),
	}
	if err := r.store.Replace(asset.Key, entry); err != nil {
		return StatusFailed, fmt.Errorf("refresh %s: store: %w", asset.Key, err)
	}

	if r.metrics != nil {
		r.metrics.RecordLastPrice(asset.Key, last.Close)
		r.metrics.RecordSignal(asset.Key, sig.Score)
		r.metrics.RecordDegraded(asset.Key, series.Degraded)
	}
	r.publish(ctx, entry, last)

	r.l.Debug("refreshed",
		applogger.String("symbol", asset.Key),
		applogger.String("source", series.Source),
		applogger.String("signal", string(sig.Label)),
		applogger.Float64("score", sig.Score),
		applogger.Int("bars", len(series.Bars)),
	)
	return status, nil
}

func (r *Refresher) train(bars []models.Bar, snaps []models.IndicatorSnapshot, basis float64) (*models.TrainedModel, *models.Forecast, error) {
	model, err := r.trainer.Train(bars, snaps)
	if err != nil {
		return nil, nil, err
	}
	fc, err := r.trainer.Predict(model, basis)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", models.ErrModelTraining, err)
	}
	return model, fc, nil
}

func (r *Refresher) publish(ctx context.Context, e *models.CacheEntry, last models.Bar) {
	if r.publisher == nil {
		return
	}
	ev := models.SignalEvent{
		Symbol:     e.Symbol,
		CycleID:    e.CycleID,
		Label:      e.Signal.Label,
		Confidence: e.Signal.Confidence,
		Score:      e.Signal.Score,
		Price:      last.Close,
		StopLoss:   e.Signal.StopLoss,
		TakeProfit: e.Signal.TakeProfit,
		Source:     e.Source,
		Degraded:   e.Degraded,
		Timestamp:  e.UpdatedAt,
	}
	if err := r.publisher.Publish(ctx, ev); err != nil && !errors.Is(err, context.Canceled) {
		r.l.Warn("signal publish failed",
			applogger.String("symbol", e.Symbol),
			applogger.Error(err),
		)
	}
}
