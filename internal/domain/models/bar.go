package models

import "time"

// Bar is one OHLCV record of the canonical series.
type Bar struct {
	Timestamp time.Time `json:"datetime"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// Series is a provider result after normalization.
// Degraded is set when the bars do not come from a live source.
type Series struct {
	Symbol   string
	Source   string
	Degraded bool
	Bars     []Bar
}

// Last returns the most recent bar.
func (s Series) Last() (Bar, bool) {
	if len(s.Bars) == 0 {
		return Bar{}, false
	}
	return s.Bars[len(s.Bars)-1], true
}

// Asset maps an instrument key to the symbol each provider understands.
type Asset struct {
	Key        string  `yaml:"key" json:"key"`
	TwelveData string  `yaml:"twelve_data" json:"-"`
	Yahoo      string  `yaml:"yahoo" json:"-"`
	Polygon    string  `yaml:"polygon" json:"-"`
	ClickHouse string  `yaml:"clickhouse" json:"-"`
	BasePrice  float64 `yaml:"base_price" json:"-"`
}
