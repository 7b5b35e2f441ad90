package signal

import (
	"fmt"

	"equity-backtest/internal/indicator"
	"equity-backtest/internal/model"
)

// TurtleParams configures the breakout generator.
type TurtleParams struct {
	SMAWindow   int // long-term regime filter
	EntryWindow int // breakout channel (highest close)
	ExitWindow  int // breakdown channel (lowest close)
	ATRPeriod   int // sizing volatility unit
}

// TurtleStrategy is the classic channel system: enter on a close above the
// entry-window high while price holds above the regime SMA; exit on a close
// below the exit-window low, or on a regime break (tagged as such).
type TurtleStrategy struct {
	Params TurtleParams

	upper  []indicator.Value
	lower  []indicator.Value
	sma    []indicator.Value
	atr    []indicator.Value
	closes []float64
}

func NewTurtleStrategy(p Params) *TurtleStrategy {
	return &TurtleStrategy{Params: TurtleParams{
		SMAWindow:   p.Int("sma_window", 200),
		EntryWindow: p.Int("entry_window", 20),
		ExitWindow:  p.Int("exit_window", 10),
		ATRPeriod:   p.Int("atr_period", 14),
	}}
}

func (s *TurtleStrategy) Name() string { return "turtle" }

func (s *TurtleStrategy) Prepare(series *model.Series) error {
	if s.Params.EntryWindow <= 0 || s.Params.ExitWindow <= 0 || s.Params.SMAWindow <= 0 {
		return fmt.Errorf("turtle: non-positive window")
	}
	s.closes = series.Closes()
	s.upper = indicator.HighestClose(series.Bars, s.Params.EntryWindow)
	s.lower = indicator.LowestClose(series.Bars, s.Params.ExitWindow)
	s.sma = indicator.SMA(s.closes, s.Params.SMAWindow)
	s.atr = indicator.ATR(series.Bars, s.Params.ATRPeriod)
	return nil
}

func (s *TurtleStrategy) Advise(i int) Advice {
	if i < 0 || i >= len(s.closes) {
		return Advice{}
	}
	c := s.closes[i]

	// Channels are shifted one bar: a breakout compares today's close against
	// the channel that existed before today.
	var upperPrev, lowerPrev indicator.Value
	if i > 0 {
		upperPrev = s.upper[i-1]
		lowerPrev = s.lower[i-1]
	}

	bullRegime := s.sma[i].Defined && c > s.sma[i].Val
	breakout := upperPrev.Defined && c > upperPrev.Val
	breakdown := lowerPrev.Defined && c < lowerPrev.Val
	regimeBreak := s.sma[i].Defined && c < s.sma[i].Val

	return Advice{
		Enter:  breakout && bullRegime,
		Exit:   breakdown || regimeBreak,
		Regime: regimeBreak && !breakdown,
		ATR:    s.atr[i],
	}
}
