package usecase

import (
	"SignalDesk/internal/domain/models"
	"SignalDesk/pkg/util"
)

// Decimal places used in responses.
const (
	pricePlaces   = 5
	rsiPlaces     = 2
	pctPlaces     = 2
	forecastPlace = 3
	moneyPlaces   = 2
	confPlaces    = 1
)

// IndicatorView is an indicator snapshot with unavailable readings as null.
type IndicatorView struct {
	RSI           *float64 `json:"rsi"`
	MACD          *float64 `json:"macd"`
	MACDSignal    *float64 `json:"macd_signal"`
	MACDHistogram *float64 `json:"macd_histogram"`
	SMA20         *float64 `json:"sma_20"`
	SMA50         *float64 `json:"sma_50"`
	EMA12         *float64 `json:"ema_12"`
	EMA26         *float64 `json:"ema_26"`
	ATR           *float64 `json:"atr"`
	BBUpper       *float64 `json:"bb_upper"`
	BBMiddle      *float64 `json:"bb_middle"`
	BBLower       *float64 `json:"bb_lower"`
}

func metric(m models.Metric, places int32) *float64 {
	return util.RoundPtr(m.Value, m.Valid, places)
}

func indicatorView(s models.IndicatorSnapshot) IndicatorView {
	return IndicatorView{
		RSI:           metric(s.RSI, rsiPlaces),
		MACD:          metric(s.MACD, pricePlaces),
		MACDSignal:    metric(s.MACDSignal, pricePlaces),
		MACDHistogram: metric(s.MACDHistogram, pricePlaces),
		SMA20:         metric(s.SMA20, pricePlaces),
		SMA50:         metric(s.SMA50, pricePlaces),
		EMA12:         metric(s.EMA12, pricePlaces),
		EMA26:         metric(s.EMA26, pricePlaces),
		ATR:           metric(s.ATR, pricePlaces),
		BBUpper:       metric(s.BBUpper, pricePlaces),
		BBMiddle:      metric(s.BBMiddle, pricePlaces),
		BBLower:       metric(s.BBLower, pricePlaces),
	}
}

// BarView is one row of /api/data: the bar plus its indicators.
type BarView struct {
	Datetime string  `json:"datetime"`
	Open     float64 `json:"open"`
	High     float64 `json:"high"`
	Low      float64 `json:"low"`
	Close    float64 `json:"close"`
	Volume   float64 `json:"volume"`
	IndicatorView
}

type DataView struct {
	Symbol       string    `json:"symbol"`
	CurrentPrice float64   `json:"current_price"`
	Count        int       `json:"count"`
	Data         []BarView `json:"data"`
	Source       string    `json:"source"`
	Degraded     bool      `json:"degraded"`
	LastUpdate   string    `json:"last_update"`
}

type SignalView struct {
	Signal     models.SignalLabel `json:"signal"`
	Confidence float64            `json:"confidence"`
	Score      float64            `json:"score"`
	StopLoss   float64            `json:"sl"`
	TakeProfit float64            `json:"tp"`
	RiskReward float64            `json:"risk_reward_ratio"`
	Reasons    []string           `json:"reasons"`
}

func signalView(s models.Signal) SignalView {
	reasons := s.Reasons
	if reasons == nil {
		reasons = []string{}
	}
	return SignalView{
		Signal:     s.Label,
		Confidence: util.Round(s.Confidence, confPlaces),
		Score:      s.Score,
		StopLoss:   util.Round(s.StopLoss, pricePlaces),
		TakeProfit: util.Round(s.TakeProfit, pricePlaces),
		RiskReward: util.Round(s.RiskReward, 2),
		Reasons:    reasons,
	}
}

type PredictionView struct {
	Steps            int     `json:"steps"`
	VariationPercent float64 `json:"variation_percent"`
	PredictedPrice   float64 `json:"predicted_price"`
	Confidence       string  `json:"confidence"`
	ConfidenceScore  float64 `json:"confidence_score"`
	Extrapolated     bool    `json:"extrapolated"`
}

func predictionView(h models.HorizonForecast) *PredictionView {
	return &PredictionView{
		Steps:            h.Steps,
		VariationPercent: util.Round(h.ChangePct, forecastPlace),
		PredictedPrice:   util.Round(h.PredictedPrice, pricePlaces),
		Confidence:       h.Level,
		ConfidenceScore:  util.Round(h.Confidence, confPlaces),
		Extrapolated:     h.Extrapolated,
	}
}

type RiskManagementView struct {
	PositionSize      float64 `json:"position_size"`
	RiskAmount        float64 `json:"risk_amount"`
	RiskPercent       float64 `json:"risk_percent"`
	SLDistancePercent float64 `json:"sl_distance_percent"`
	TPDistancePercent float64 `json:"tp_distance_percent"`
}

type AnalysisView struct {
	Symbol         string                     `json:"symbol"`
	Timeframe      string                     `json:"timeframe"`
	BarTimeframe   string                     `json:"bar_timeframe"`
	CurrentPrice   float64                    `json:"current_price"`
	Timestamp      string                     `json:"timestamp"`
	Indicators     IndicatorView              `json:"indicators"`
	Signal         SignalView                 `json:"signal"`
	Predictions    map[string]*PredictionView `json:"predictions"`
	ForecastBasis  *float64                   `json:"forecast_basis"`
	ForecastMadeAt string                     `json:"forecast_made_at,omitempty"`
	RiskManagement RiskManagementView         `json:"risk_management"`
	Source         string                     `json:"source"`
	Degraded       bool                       `json:"degraded"`
	ModelStale     bool                       `json:"model_stale"`
	CycleID        string                     `json:"cycle_id"`
	UpdatedAt      string                     `json:"updated_at"`
}

type RiskInputView struct {
	Balance     float64 `json:"balance"`
	RiskPercent float64 `json:"risk_percent"`
	EntryPrice  float64 `json:"entry_price"`
	StopLoss    float64 `json:"stop_loss"`
}

type RiskCalculationsView struct {
	RiskAmount        float64 `json:"risk_amount"`
	PositionSize      float64 `json:"position_size"`
	SLDistancePercent float64 `json:"sl_distance_percent"`
	MaxLoss           float64 `json:"max_loss"`
	Direction         string  `json:"direction"`
}

type RiskScenarioView struct {
	TPPrice         float64 `json:"tp_price"`
	ProfitPotential float64 `json:"profit_potential"`
	RiskReward      float64 `json:"risk_reward_ratio"`
}

type RiskView struct {
	Input        RiskInputView               `json:"input"`
	Calculations RiskCalculationsView        `json:"calculations"`
	Scenarios    map[string]RiskScenarioView `json:"scenarios"`
}

type InstrumentHealth struct {
	Symbol     string             `json:"symbol"`
	Ready      bool               `json:"ready"`
	Stale      bool               `json:"stale"`
	Source     string             `json:"source,omitempty"`
	Degraded   bool               `json:"degraded"`
	ModelStale bool               `json:"model_stale"`
	Signal     models.SignalLabel `json:"signal,omitempty"`
	CycleID    string             `json:"cycle_id,omitempty"`
	UpdatedAt  string             `json:"updated_at,omitempty"`
	AgeSeconds float64            `json:"age_seconds"`
}

type HealthView struct {
	Status      string             `json:"status"`
	Refreshing  bool               `json:"refreshing"`
	Instruments []InstrumentHealth `json:"instruments"`
}
