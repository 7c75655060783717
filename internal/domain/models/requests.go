package models

// Requests for the query endpoints. Bound from path/query and validated at the edge.
// Symbol is resolved by the handler, which also accepts unescaped BASE/QUOTE paths.

type AnalysisRequest struct {
	Symbol    string `param:"symbol"`
	Timeframe string `query:"timeframe" default:"1m" validate:"oneof=1m 5m 15m"`
}

type DataRequest struct {
	Symbol string `param:"symbol"`
	Limit  int    `query:"limit" default:"50" validate:"gte=1,lte=100"`
}

type RiskRequest struct {
	Balance     float64 `query:"balance" default:"10000" validate:"gt=0,lte=1e12"`
	RiskPercent float64 `query:"risk_percent" default:"2" validate:"gt=0,lte=100"`
	EntryPrice  float64 `query:"entry_price" default:"1.0" validate:"gte=1e-8,lte=1e9"`
	StopLoss    float64 `query:"stop_loss" default:"0.98" validate:"gte=0,lte=1e9"`
}

type ChartRequest struct {
	Symbol string `param:"symbol"`
	Bars   int    `query:"bars" default:"100" validate:"gte=10,lte=100"`
	Width  int    `query:"width" default:"1024" validate:"gte=200,lte=4096"`
	Height int    `query:"height" default:"512" validate:"gte=100,lte=2048"`
}
