package signal

import (
	"math"

	"SignalDesk/internal/domain/models"
)

// Thresholds for the scoring rules.
const (
	RSIOversold   = 30.0
	RSIOverbought = 70.0
	RSINeutralLo  = 40.0
	RSINeutralHi  = 60.0

	ForecastMinConfidence = 60.0
	Forecast1Threshold    = 0.05
	Forecast5Threshold    = 0.10

	BuyScore  = 3.0
	SellScore = -3.0
	FullScore = 5.0

	StopATR       = 2.0
	TakeProfitATR = 3.0
)

// Scorer turns the latest two indicator snapshots and the forecast into a
// signal. It is a pure function of its inputs.
type Scorer struct{}

func NewScorer() *Scorer { return &Scorer{} }

type tally struct {
	score   float64
	reasons []string
}

func (t *tally) add(delta float64, reason string) {
	t.score += delta
	t.reasons = append(t.reasons, reason)
}

// Score evaluates every rule independently. A rule whose inputs are
// unavailable contributes nothing. fc may be nil.
func (s *Scorer) Score(price float64, prev, cur models.IndicatorSnapshot, fc *models.Forecast) models.Signal {
	t := &tally{reasons: []string{}}

	if cur.RSI.Valid {
		switch rsi := cur.RSI.Value; {
		case rsi < RSIOversold:
			t.add(2, "rsi_oversold")
		case rsi > RSIOverbought:
			t.add(-2, "rsi_overbought")
		case rsi > RSINeutralLo && rsi < RSINeutralHi:
			t.add(0.5, "rsi_neutral")
		}
	}

	if cur.MACD.Valid && cur.MACDSignal.Valid && prev.MACD.Valid && prev.MACDSignal.Valid {
		m, sg, pm, psg := cur.MACD.Value, cur.MACDSignal.Value, prev.MACD.Value, prev.MACDSignal.Value
		switch {
		case m > sg && pm <= psg:
			t.add(2, "macd_bullish_cross")
		case m < sg && pm >= psg:
			t.add(-2, "macd_bearish_cross")
		}
	}

	if cur.SMA20.Valid && cur.SMA50.Valid {
		s20, s50 := cur.SMA20.Value, cur.SMA50.Value
		switch {
		case price > s20 && s20 > s50:
			t.add(1, "trend_up")
		case price < s20 && s20 < s50:
			t.add(-1, "trend_down")
		}
	}

	if cur.BBLower.Valid && price < cur.BBLower.Value {
		t.add(1, "below_lower_band")
	} else if cur.BBUpper.Valid && price > cur.BBUpper.Value {
		t.add(-1, "above_upper_band")
	}

	if h, ok := fc.Horizon(1); ok && h.Confidence > ForecastMinConfidence {
		switch {
		case h.ChangePct > Forecast1Threshold:
			t.add(2, "forecast_1_up")
		case h.ChangePct < -Forecast1Threshold:
			t.add(-2, "forecast_1_down")
		}
	}
	if h, ok := fc.Horizon(5); ok && h.Confidence > ForecastMinConfidence {
		switch {
		case h.ChangePct > Forecast5Threshold:
			t.add(1, "forecast_5_up")
		case h.ChangePct < -Forecast5Threshold:
			t.add(-1, "forecast_5_down")
		}
	}

	return decide(price, cur.ATR.Or(0), t)
}

func decide(price, atr float64, t *tally) models.Signal {
	label := models.SignalNeutral
	switch {
	case t.score >= BuyScore:
		label = models.SignalBuy
	case t.score <= SellScore:
		label = models.SignalSell
	}

	confidence := 0.0
	if label != models.SignalNeutral {
		confidence = math.Min(math.Abs(t.score)/FullScore*100, 100)
	}

	// NEUTRAL uses the long layout.
	sl, tp := price-StopATR*atr, price+TakeProfitATR*atr
	if label == models.SignalSell {
		sl, tp = price+StopATR*atr, price-TakeProfitATR*atr
	}

	return models.Signal{
		Label:      label,
		Confidence: confidence,
		Score:      t.score,
		StopLoss:   sl,
		TakeProfit: tp,
		RiskReward: TakeProfitATR / StopATR,
		Reasons:    t.reasons,
	}
}
