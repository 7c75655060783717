package service

import (
	"SignalDesk/internal/domain/models"
)

// IndicatorEngine computes per-bar indicator snapshots over a canonical series.
type IndicatorEngine interface {
	Compute(bars []models.Bar) ([]models.IndicatorSnapshot, error)
}

// ForecastTrainer fits per-instrument regressors and predicts from them.
type ForecastTrainer interface {
	Train(bars []models.Bar, snaps []models.IndicatorSnapshot) (*models.TrainedModel, error)
	Predict(m *models.TrainedModel, basis float64) (*models.Forecast, error)
}

// SignalScorer fuses the latest indicators and forecast into a signal.
type SignalScorer interface {
	Score(price float64, prev, cur models.IndicatorSnapshot, fc *models.Forecast) models.Signal
}
