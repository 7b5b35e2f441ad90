// Package sizing converts a desired exposure into a bounded leverage
// multiple: volatility targeting with a floor against degenerate estimates,
// hard [min, max] clamping, and optional rebalancing hysteresis.
package sizing

import (
	"math"

	"equity-backtest/internal/indicator"
)

// DefaultVolFloor guards the vol-target division when realized volatility
// collapses toward zero (a flat series would otherwise demand unbounded
// leverage).
const DefaultVolFloor = 0.05

// Sizer holds the immutable sizing policy for one run.
type Sizer struct {
	TargetVol          float64
	MinLeverage        float64
	MaxLeverage        float64
	VolFloor           float64
	RebalanceThreshold float64
}

func (s Sizer) floor() float64 {
	if s.VolFloor > 0 {
		return s.VolFloor
	}
	return DefaultVolFloor
}

// Leverage computes clip(TargetVol / max(realizedVol, VolFloor), min, max).
func (s Sizer) Leverage(realizedVol float64) float64 {
	v := math.Max(realizedVol, s.floor())
	L := s.TargetVol / v
	return math.Min(math.Max(L, s.MinLeverage), s.MaxLeverage)
}

// Target turns a raw desired exposure into a bounded leverage target.
// An undefined volatility estimate (insufficient lookback) yields zero.
func (s Sizer) Target(realizedVol indicator.Value, rawSignal float64) float64 {
	if !realizedVol.Defined {
		return 0
	}
	return s.Leverage(realizedVol.Val) * rawSignal
}

// Execute applies rebalancing hysteresis: the executed exposure holds when
// the target moved by no more than RebalanceThreshold. Transitions to or
// from zero exposure always execute immediately.
func (s Sizer) Execute(target, current float64) float64 {
	if target == 0 || current == 0 {
		return target
	}
	if math.Abs(target-current) > s.RebalanceThreshold {
		return target
	}
	return current
}
