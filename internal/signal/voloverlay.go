package signal

import (
	"fmt"
	"math"

	"equity-backtest/internal/indicator"
	"equity-backtest/internal/model"
)

// VolOverlayParams configures the continuous-leverage generator.
type VolOverlayParams struct {
	VolWindow  int     // realized-vol lookback
	TargetVol  float64 // annualized vol target
	MaxLev     float64 // leverage ceiling
	SMAWindow  int     // trend filter
	ExitBuffer float64 // fraction below SMA that forces a full exit
	RSIWindow  int
	RSIHigh    float64 // overbought trim threshold
	RSITrimCap float64 // cap applied while overbought
}

// VolOverlayStrategy produces a per-bar target leverage:
// vol targeting against realized volatility, capped by a stepped trend
// filter (below SMA: defensive 1.0x; deep below SMA: full exit) and an
// RSI overbought trim. Consumed by the overlay engine; bars with an
// undefined vol estimate carry zero exposure.
type VolOverlayStrategy struct {
	Params VolOverlayParams

	exposure []indicator.Value
	n        int
}

func NewVolOverlayStrategy(p Params) *VolOverlayStrategy {
	return &VolOverlayStrategy{Params: VolOverlayParams{
		VolWindow:  p.Int("vol_window", 20),
		TargetVol:  p.Num("target_vol", 0.25),
		MaxLev:     p.Num("max_leverage", 1.5),
		SMAWindow:  p.Int("sma_window", 200),
		ExitBuffer: p.Num("exit_buffer", 0.10),
		RSIWindow:  p.Int("rsi_window", 14),
		RSIHigh:    p.Num("rsi_high", 80),
		RSITrimCap: p.Num("rsi_trim_cap", 0.8),
	}}
}

func (s *VolOverlayStrategy) Name() string { return "voloverlay" }

func (s *VolOverlayStrategy) Prepare(series *model.Series) error {
	p := s.Params
	if p.VolWindow <= 1 || p.SMAWindow <= 0 || p.RSIWindow <= 0 {
		return fmt.Errorf("voloverlay: non-positive window")
	}
	if p.TargetVol <= 0 {
		return fmt.Errorf("voloverlay: target_vol must be > 0")
	}

	closes := series.Closes()
	vol := indicator.RollingVol(series.Returns(), p.VolWindow)
	sma := indicator.SMA(closes, p.SMAWindow)
	rsi := indicator.RSI(closes, p.RSIWindow)

	s.n = series.Len()
	s.exposure = make([]indicator.Value, s.n)
	for i := 0; i < s.n; i++ {
		if !vol[i].Defined || vol[i].Val == 0 {
			continue // insufficient history: zero exposure, stays undefined
		}
		raw := p.TargetVol / vol[i].Val

		cap := p.MaxLev
		if sma[i].Defined {
			switch {
			case closes[i] < sma[i].Val*(1-p.ExitBuffer):
				cap = 0 // trend broken outright
			case closes[i] < sma[i].Val:
				cap = 1.0 // defensive: ride the correction unlevered
			}
		}
		if rsi[i].Defined && rsi[i].Val > p.RSIHigh && cap > p.RSITrimCap {
			cap = p.RSITrimCap
		}

		s.exposure[i] = indicator.Value{Val: math.Max(0, math.Min(raw, cap)), Defined: true}
	}
	return nil
}

func (s *VolOverlayStrategy) Advise(i int) Advice {
	if i < 0 || i >= s.n {
		return Advice{}
	}
	exp := s.exposure[i]
	return Advice{
		Enter:    exp.Defined && exp.Val > 0,
		Exit:     exp.Defined && exp.Val == 0,
		Regime:   true,
		Exposure: exp,
	}
}

// Exposures returns the full target-leverage series for the overlay engine.
func (s *VolOverlayStrategy) Exposures() []indicator.Value { return s.exposure }
