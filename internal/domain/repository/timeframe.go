package repository

import (
	"strconv"
	"time"
)

// IsValidTimeframe returns true if tf is a supported timeframe.
func IsValidTimeframe(tf Timeframe) bool {
	switch tf {
	case TF1m, TF5m, TF15m:
		return true
	default:
		return false
	}
}

// DefaultTimeframe returns the default timeframe.
func DefaultTimeframe() Timeframe { return TF1m }

// NormalizeTimeframe converts raw string to a valid timeframe (or default).
func NormalizeTimeframe(s string) Timeframe {
	if s == "" {
		return DefaultTimeframe()
	}
	tf := Timeframe(s)
	if IsValidTimeframe(tf) {
		return tf
	}
	return DefaultTimeframe()
}

// Duration is the length of one bar.
func (tf Timeframe) Duration() time.Duration {
	switch tf {
	case TF5m:
		return 5 * time.Minute
	case TF15m:
		return 15 * time.Minute
	default:
		return time.Minute
	}
}

// Minutes is the bar length in whole minutes.
func (tf Timeframe) Minutes() int {
	return int(tf.Duration() / time.Minute)
}

// TwelveDataInterval is the interval name used by the Twelve Data API.
func (tf Timeframe) TwelveDataInterval() string {
	switch tf {
	case TF5m:
		return "5min"
	case TF15m:
		return "15min"
	default:
		return "1min"
	}
}

// HorizonLabel names a forecast horizon of steps bars, e.g. 5 steps of 1m is "5m".
func (tf Timeframe) HorizonLabel(steps int) string {
	d := time.Duration(steps) * tf.Duration()
	if d%time.Hour == 0 {
		return strconv.Itoa(int(d/time.Hour)) + "h"
	}
	return strconv.Itoa(int(d/time.Minute)) + "m"
}

func (tf Timeframe) String() string { return string(tf) }
