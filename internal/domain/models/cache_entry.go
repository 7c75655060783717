package models

import "time"

// CacheEntry is the per-instrument state published by the refresher.
// It is immutable once stored; the refresher swaps whole entries.
type CacheEntry struct {
	Symbol     string
	Bars       []Bar
	Indicators []IndicatorSnapshot
	Model      *TrainedModel
	Forecast   *Forecast
	Signal     Signal
	Source     string
	Degraded   bool
	ModelStale bool
	CycleID    string
	UpdatedAt  time.Time
}

// Latest returns the last bar and its indicator snapshot.
func (e *CacheEntry) Latest() (Bar, IndicatorSnapshot, bool) {
	if e == nil || len(e.Bars) == 0 || len(e.Indicators) != len(e.Bars) {
		return Bar{}, IndicatorSnapshot{}, false
	}
	n := len(e.Bars) - 1
	return e.Bars[n], e.Indicators[n], true
}

// Tail returns at most n of the most recent bars.
func (e *CacheEntry) Tail(n int) []Bar {
	if n <= 0 || len(e.Bars) <= n {
		return e.Bars
	}
	return e.Bars[len(e.Bars)-n:]
}

// SignalEvent is emitted after an instrument's entry has been replaced.
type SignalEvent struct {
	Symbol     string      `json:"symbol"`
	CycleID    string      `json:"cycle_id"`
	Label      SignalLabel `json:"signal"`
	Confidence float64     `json:"confidence"`
	Score      float64     `json:"score"`
	Price      float64     `json:"price"`
	StopLoss   float64     `json:"sl"`
	TakeProfit float64     `json:"tp"`
	Source     string      `json:"source"`
	Degraded   bool        `json:"degraded"`
	Timestamp  time.Time   `json:"timestamp"`
}
