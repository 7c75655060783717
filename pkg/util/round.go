package util

import (
	"math"

	"github.com/shopspring/decimal"
)

// Round rounds half away from zero to places decimals. NaN and ±Inf
// round to 0.
func Round(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

// RoundPtr rounds v, or returns nil when ok is false or v is not finite so
// the value encodes as JSON null.
func RoundPtr(v float64, ok bool, places int32) *float64 {
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	r := Round(v, places)
	return &r
}
