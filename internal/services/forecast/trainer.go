package forecast

import (
	"fmt"
	"time"

	"SignalDesk/internal/domain/models"
	"SignalDesk/internal/services/features"
)

const (
	// MinRows is the smallest dataset a model is trained on.
	MinRows = 10
	// ExtrapolationFactor scales the 5-step forecast into the 15-step one.
	// The 15-step horizon is not modeled.
	ExtrapolationFactor = 2.5
)

// Trainer fits the 1-step and 5-step forests for one instrument.
// Nothing is kept between calls.
type Trainer struct {
	cfg     ForestConfig
	minRows int
	builder *features.Builder
	now     func() time.Time
}

type Option func(*Trainer)

func WithForestConfig(cfg ForestConfig) Option {
	return func(t *Trainer) { t.cfg = cfg }
}

func WithMinRows(n int) Option {
	return func(t *Trainer) {
		if n > 0 {
			t.minRows = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(t *Trainer) { t.now = now }
}

func NewTrainer(opts ...Option) *Trainer {
	t := &Trainer{
		cfg:     DefaultForestConfig(),
		minRows: MinRows,
		builder: features.NewBuilder(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Train builds the dataset, fits a fresh scaler and both forests.
// Errors wrap models.ErrModelTraining.
func (t *Trainer) Train(bars []models.Bar, snaps []models.IndicatorSnapshot) (*models.TrainedModel, error) {
	ds, err := t.builder.Build(bars, snaps)
	if err != nil {
		return nil, fmt.Errorf("forecast: %w: %w", models.ErrModelTraining, err)
	}
	if ds.Len() < t.minRows {
		return nil, fmt.Errorf("forecast: %d rows, need %d: %w", ds.Len(), t.minRows, models.ErrModelTraining)
	}
	for i, row := range ds.X {
		if !features.Finite(row) || !features.Finite([]float64{ds.Target1[i], ds.Target5[i]}) {
			return nil, fmt.Errorf("forecast: non-finite value in row at bar %d: %w", ds.Index[i], models.ErrModelTraining)
		}
	}
	latest, err := t.builder.Latest(bars, snaps)
	if err != nil {
		return nil, fmt.Errorf("forecast: %w: %w", models.ErrModelTraining, err)
	}
	if !features.Finite(latest) {
		return nil, fmt.Errorf("forecast: non-finite latest features: %w", models.ErrModelTraining)
	}

	scaler := FitScaler(ds.X)
	xs := scaler.TransformAll(ds.X)
	return &models.TrainedModel{
		Model1:       FitForest(xs, ds.Target1, t.cfg),
		Model5:       FitForest(xs, ds.Target5, t.cfg),
		Scaler:       scaler,
		LastFeatures: latest,
		Rows:         ds.Len(),
		TrainedAt:    t.now(),
	}, nil
}

// Predict produces the 1, 5 and 15 step horizons from the model's latest
// feature vector. basis is the close the percentages are applied to.
func (t *Trainer) Predict(m *models.TrainedModel, basis float64) (*models.Forecast, error) {
	if m == nil || m.Model1 == nil || m.Model5 == nil || m.Scaler == nil {
		return nil, fmt.Errorf("forecast: no trained model")
	}
	x := m.Scaler.Transform(m.LastFeatures)

	p1, c1 := m.Model1.Predict(x), m.Model1.Agreement(x)
	p5, c5 := m.Model5.Predict(x), m.Model5.Agreement(x)
	p15 := p5 * ExtrapolationFactor

	return &models.Forecast{
		Basis:  basis,
		MadeAt: t.now(),
		Horizons: []models.HorizonForecast{
			horizon(1, p1, basis, c1, models.LevelModerate, false),
			horizon(5, p5, basis, c5, models.LevelModerate, false),
			horizon(15, p15, basis, c5/2, models.LevelLow, true),
		},
	}, nil
}

func horizon(steps int, pct, basis, confidence float64, level string, extrapolated bool) models.HorizonForecast {
	return models.HorizonForecast{
		Steps:          steps,
		ChangePct:      pct,
		PredictedPrice: basis * (1 + pct/100),
		Confidence:     confidence,
		Level:          level,
		Extrapolated:   extrapolated,
	}
}
