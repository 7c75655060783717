package indicators

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Series helpers work on float slices aligned with the bar index.
// NaN marks a value whose lookback window is not yet satisfied.

func nans(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// SMA is the simple moving average over period values, valid from period-1.
func SMA(src []float64, period int) []float64 {
	out := nans(len(src))
	if period <= 0 {
		return out
	}
	for i := period - 1; i < len(src); i++ {
		sum := 0.0
		for _, v := range src[i-period+1 : i+1] {
			sum += v
		}
		out[i] = sum / float64(period)
	}
	return out
}

// EMA is the recursive exponential average with alpha = 2/(period+1).
// It is seeded with the first available input and reported once period
// inputs have been observed, so leading NaNs shift the warm-up.
func EMA(src []float64, period int) []float64 {
	return ewm(src, 2/float64(period+1), period)
}

func ewm(src []float64, alpha float64, minObs int) []float64 {
	out := nans(len(src))
	var (
		acc  float64
		seen int
	)
	for i, v := range src {
		if math.IsNaN(v) {
			continue
		}
		if seen == 0 {
			acc = v
		} else {
			acc = alpha*v + (1-alpha)*acc
		}
		seen++
		if seen >= minObs {
			out[i] = acc
		}
	}
	return out
}

// RSI is the Wilder relative strength index. The first value, at index
// period, is seeded with simple averages of the first period changes.
func RSI(closes []float64, period int) []float64 {
	out := nans(len(closes))
	if period <= 0 || len(closes) <= period {
		return out
	}
	p := float64(period)
	var gain, loss float64
	for i := 1; i <= period; i++ {
		g, l := change(closes[i-1], closes[i])
		gain += g
		loss += l
	}
	gain /= p
	loss /= p
	out[period] = rsiValue(gain, loss)
	for i := period + 1; i < len(closes); i++ {
		g, l := change(closes[i-1], closes[i])
		gain = (gain*(p-1) + g) / p
		loss = (loss*(p-1) + l) / p
		out[i] = rsiValue(gain, loss)
	}
	return out
}

func change(prev, cur float64) (gain, loss float64) {
	d := cur - prev
	if d > 0 {
		return d, 0
	}
	return 0, -d
}

func rsiValue(gain, loss float64) float64 {
	if loss == 0 {
		if gain == 0 {
			return 50
		}
		return 100
	}
	return 100 - 100/(1+gain/loss)
}

// TrueRange uses high-low for the first bar, which has no previous close.
func TrueRange(highs, lows, closes []float64) []float64 {
	out := make([]float64, len(closes))
	for i := range closes {
		hl := highs[i] - lows[i]
		if i == 0 {
			out[i] = hl
			continue
		}
		pc := closes[i-1]
		out[i] = math.Max(hl, math.Max(math.Abs(highs[i]-pc), math.Abs(lows[i]-pc)))
	}
	return out
}

// ATR is Wilder-smoothed true range, seeded with the mean of the first period ranges.
func ATR(highs, lows, closes []float64, period int) []float64 {
	out := nans(len(closes))
	if period <= 0 || len(closes) < period {
		return out
	}
	tr := TrueRange(highs, lows, closes)
	p := float64(period)
	sum := 0.0
	for _, v := range tr[:period] {
		sum += v
	}
	atr := sum / p
	out[period-1] = atr
	for i := period; i < len(tr); i++ {
		atr = (atr*(p-1) + tr[i]) / p
		out[i] = atr
	}
	return out
}

// Bollinger returns the bands around mid using the population standard
// deviation of the same window.
func Bollinger(closes, mid []float64, period int, width float64) (upper, lower []float64) {
	upper, lower = nans(len(closes)), nans(len(closes))
	for i := period - 1; i < len(closes); i++ {
		if math.IsNaN(mid[i]) {
			continue
		}
		variance := stat.PopVariance(closes[i-period+1:i+1], nil)
		if variance < 0 {
			variance = 0
		}
		sd := math.Sqrt(variance)
		upper[i] = mid[i] + width*sd
		lower[i] = mid[i] - width*sd
	}
	return upper, lower
}

func sub(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] - b[i]
	}
	return out
}
