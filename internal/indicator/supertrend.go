package indicator

import "equity-backtest/internal/model"

// SupertrendResult carries the per-bar Supertrend level and its direction
// (+1 bullish, -1 bearish), along with the ATR series it was built from.
type SupertrendResult struct {
	Line      []Value
	Direction []int
	ATR       []Value
}

// Supertrend computes the classic band-following trend indicator over
// (high+low)/2 with an ATR(period) envelope scaled by multiplier.
// Bands only tighten: a new band replaces the carried one when it moves
// toward price or when the prior close crossed the carried band.
func Supertrend(bars []model.Bar, atrPeriod int, multiplier float64) SupertrendResult {
	n := len(bars)
	res := SupertrendResult{
		Line:      make([]Value, n),
		Direction: make([]int, n),
		ATR:       ATR(bars, atrPeriod),
	}
	if n == 0 {
		return res
	}

	finalUpper := make([]float64, n)
	finalLower := make([]float64, n)
	for i, b := range bars {
		hl2 := (b.High + b.Low) / 2.0
		band := multiplier * res.ATR[i].Val
		finalUpper[i] = hl2 + band
		finalLower[i] = hl2 - band
	}
	for i := 1; i < n; i++ {
		if !(finalUpper[i] < finalUpper[i-1] || bars[i-1].Close > finalUpper[i-1]) {
			finalUpper[i] = finalUpper[i-1]
		}
		if !(finalLower[i] > finalLower[i-1] || bars[i-1].Close < finalLower[i-1]) {
			finalLower[i] = finalLower[i-1]
		}
	}

	res.Line[0] = defined(finalUpper[0])
	res.Direction[0] = -1
	for i := 1; i < n; i++ {
		c := bars[i].Close
		if res.Direction[i-1] == -1 {
			if c > finalUpper[i] {
				res.Direction[i] = 1
				res.Line[i] = defined(finalLower[i])
			} else {
				res.Direction[i] = -1
				res.Line[i] = defined(finalUpper[i])
			}
		} else {
			if c < finalLower[i] {
				res.Direction[i] = -1
				res.Line[i] = defined(finalUpper[i])
			} else {
				res.Direction[i] = 1
				res.Line[i] = defined(finalLower[i])
			}
		}
	}
	return res
}

// ChandelierExitLong is the long-side chandelier stop: highest high over
// lookback minus k*ATR, ratcheted so the level never declines once defined.
func ChandelierExitLong(bars []model.Bar, atr []Value, lookback int, k float64) []Value {
	out := make([]Value, len(bars))
	hh := HighestHigh(bars, lookback)
	prev := Value{}
	for i := range bars {
		if !hh[i].Defined || !atr[i].Defined {
			continue
		}
		raw := hh[i].Val - k*atr[i].Val
		if prev.Defined && prev.Val > raw {
			raw = prev.Val
		}
		out[i] = defined(raw)
		prev = out[i]
	}
	return out
}
