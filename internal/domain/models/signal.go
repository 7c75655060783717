package models

import "time"

type SignalLabel string

const (
	SignalBuy     SignalLabel = "BUY"
	SignalSell    SignalLabel = "SELL"
	SignalNeutral SignalLabel = "NEUTRAL"
)

// Signal is the scored trading decision for the latest bar.
type Signal struct {
	Label      SignalLabel `json:"signal"`
	Confidence float64     `json:"confidence"`
	Score      float64     `json:"score"`
	StopLoss   float64     `json:"sl"`
	TakeProfit float64     `json:"tp"`
	RiskReward float64     `json:"risk_reward_ratio"`
	Reasons    []string    `json:"reasons"`
}

// Confidence levels attached to forecast horizons.
const (
	LevelModerate = "moderate"
	LevelLow      = "low"
)

// HorizonForecast is the predicted percent change Steps bars ahead.
type HorizonForecast struct {
	Steps          int     `json:"steps"`
	ChangePct      float64 `json:"variation_percent"`
	PredictedPrice float64 `json:"predicted_price"`
	Confidence     float64 `json:"confidence_score"`
	Level          string  `json:"confidence"`
	Extrapolated   bool    `json:"extrapolated"`
}

// Forecast groups the horizons produced in one cycle.
type Forecast struct {
	Horizons []HorizonForecast
	Basis    float64 // close the percentages apply to
	MadeAt   time.Time
}

// Horizon returns the forecast for the given number of steps.
func (f *Forecast) Horizon(steps int) (HorizonForecast, bool) {
	if f == nil {
		return HorizonForecast{}, false
	}
	for _, h := range f.Horizons {
		if h.Steps == steps {
			return h, true
		}
	}
	return HorizonForecast{}, false
}

// Regressor is a fitted model over standardized feature vectors.
type Regressor interface {
	Predict(x []float64) float64
	// Agreement is the share (0-100) of ensemble members whose prediction
	// has the same sign as the ensemble mean.
	Agreement(x []float64) float64
}

// FeatureScaler standardizes a raw feature vector.
type FeatureScaler interface {
	Transform(x []float64) []float64
}

// TrainedModel is rebuilt from scratch every refresh cycle.
type TrainedModel struct {
	Model1       Regressor
	Model5       Regressor
	Scaler       FeatureScaler
	LastFeatures []float64
	Rows         int
	TrainedAt    time.Time
}
