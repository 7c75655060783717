package models

import (
	"encoding/json"
	"math"
)

// Metric is an indicator reading. A zero Metric is unavailable.
type Metric struct {
	Value float64
	Valid bool
}

// Available wraps v, treating NaN and Inf as unavailable.
func Available(v float64) Metric {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Metric{}
	}
	return Metric{Value: v, Valid: true}
}

// Or returns the value, or def when unavailable.
func (m Metric) Or(def float64) float64 {
	if !m.Valid {
		return def
	}
	return m.Value
}

// Float returns the value, or NaN when unavailable.
func (m Metric) Float() float64 {
	return m.Or(math.NaN())
}

func (m Metric) MarshalJSON() ([]byte, error) {
	if !m.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(m.Value)
}

func (m *Metric) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*m = Metric{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*m = Available(v)
	return nil
}

// IndicatorSnapshot holds the indicator values attached to one bar.
type IndicatorSnapshot struct {
	RSI           Metric `json:"rsi"`
	MACD          Metric `json:"macd"`
	MACDSignal    Metric `json:"macd_signal"`
	MACDHistogram Metric `json:"macd_histogram"`
	SMA20         Metric `json:"sma_20"`
	SMA50         Metric `json:"sma_50"`
	EMA12         Metric `json:"ema_12"`
	EMA26         Metric `json:"ema_26"`
	ATR           Metric `json:"atr"`
	BBUpper       Metric `json:"bb_upper"`
	BBMiddle      Metric `json:"bb_middle"`
	BBLower       Metric `json:"bb_lower"`
}
