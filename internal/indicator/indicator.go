// Package indicator computes derived series from a validated price history.
// All functions are pure; per-bar results carry an explicit Defined flag so
// that "insufficient lookback" is a first-class state instead of a NaN.
package indicator

import (
	"math"

	"equity-backtest/internal/model"
)

// AnnualizationFactor is the trading-day count used to annualize daily stats.
const AnnualizationFactor = 252

// Value is one per-bar indicator result. Defined is false while the window
// is shorter than its lookback; consumers treat undefined as no-signal.
type Value struct {
	Val     float64
	Defined bool
}

func defined(v float64) Value { return Value{Val: v, Defined: true} }

// SMA computes a simple moving average with a full-window requirement.
func SMA(values []float64, window int) []Value {
	out := make([]Value, len(values))
	if window <= 0 || window > len(values) {
		return out
	}
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		if i >= window-1 {
			out[i] = defined(sum / float64(window))
		}
	}
	return out
}

// EMA computes an exponential moving average (span convention,
// alpha = 2/(span+1)), seeded at the first value.
func EMA(values []float64, span int) []Value {
	out := make([]Value, len(values))
	if span <= 0 || len(values) == 0 {
		return out
	}
	alpha := 2.0 / (float64(span) + 1.0)
	ema := values[0]
	out[0] = defined(ema)
	for i := 1; i < len(values); i++ {
		ema += alpha * (values[i] - ema)
		out[i] = defined(ema)
	}
	return out
}

// RollingVol annualizes the population standard deviation of returns over a
// trailing window. Bars before the window fills are undefined.
func RollingVol(returns []float64, window int) []Value {
	out := make([]Value, len(returns))
	if window <= 1 || window > len(returns) {
		return out
	}
	for i := window - 1; i < len(returns); i++ {
		sd := stddev(returns[i-window+1 : i+1])
		out[i] = defined(sd * math.Sqrt(AnnualizationFactor))
	}
	return out
}

// RSI computes the Relative Strength Index over closes using a full-window
// rolling mean of gains/losses. Undefined bars report the 50 neutral level,
// marked Defined so momentum filters stay inert rather than blocked.
func RSI(closes []float64, window int) []Value {
	out := make([]Value, len(closes))
	for i := range out {
		out[i] = defined(50)
	}
	if window <= 0 || len(closes) < window+1 {
		return out
	}
	gains := make([]float64, len(closes))
	losses := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			gains[i] = d
		} else {
			losses[i] = -d
		}
	}
	for i := window; i < len(closes); i++ {
		var g, l float64
		for j := i - window + 1; j <= i; j++ {
			g += gains[j]
			l += losses[j]
		}
		avgGain := g / float64(window)
		avgLoss := l / float64(window)
		if avgLoss == 0 {
			continue // keep neutral 50
		}
		rs := avgGain / avgLoss
		out[i] = defined(100 - 100/(1+rs))
	}
	return out
}

// HighestHigh is the rolling maximum of highs (Donchian upper channel).
func HighestHigh(bars []model.Bar, window int) []Value {
	return rollingExtreme(bars, window, func(b model.Bar) float64 { return b.High }, math.Max)
}

// LowestLow is the rolling minimum of lows (Donchian lower channel).
func LowestLow(bars []model.Bar, window int) []Value {
	return rollingExtreme(bars, window, func(b model.Bar) float64 { return b.Low }, math.Min)
}

// HighestClose / LowestClose are the close-based channel bounds used by the
// turtle-style breakout rules.
func HighestClose(bars []model.Bar, window int) []Value {
	return rollingExtreme(bars, window, func(b model.Bar) float64 { return b.Close }, math.Max)
}

func LowestClose(bars []model.Bar, window int) []Value {
	return rollingExtreme(bars, window, func(b model.Bar) float64 { return b.Close }, math.Min)
}

func rollingExtreme(bars []model.Bar, window int, pick func(model.Bar) float64, bestOf func(float64, float64) float64) []Value {
	out := make([]Value, len(bars))
	if window <= 0 || window > len(bars) {
		return out
	}
	for i := window - 1; i < len(bars); i++ {
		best := pick(bars[i])
		for j := i - window + 1; j < i; j++ {
			best = bestOf(best, pick(bars[j]))
		}
		out[i] = defined(best)
	}
	return out
}

// ATR computes the Wilder-smoothed average true range
// (exponential smoothing with alpha = 1/period, seeded at the first TR).
func ATR(bars []model.Bar, period int) []Value {
	out := make([]Value, len(bars))
	if period <= 0 || len(bars) == 0 {
		return out
	}
	alpha := 1.0 / float64(period)
	atr := bars[0].High - bars[0].Low
	out[0] = defined(atr)
	for i := 1; i < len(bars); i++ {
		tr := trueRange(bars[i], bars[i-1].Close)
		atr += alpha * (tr - atr)
		out[i] = defined(atr)
	}
	return out
}

func trueRange(b model.Bar, prevClose float64) float64 {
	tr := b.High - b.Low
	tr = math.Max(tr, math.Abs(b.High-prevClose))
	return math.Max(tr, math.Abs(b.Low-prevClose))
}

func stddev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	mean := 0.0
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	var ss float64
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)))
}
