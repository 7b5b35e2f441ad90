package signal

import (
	"fmt"

	"equity-backtest/internal/indicator"
	"equity-backtest/internal/model"
)

// SupertrendParams configures the trend-following generator.
type SupertrendParams struct {
	ATRPeriod           int     // Supertrend ATR lookback
	SupertrendMult      float64 // band width in ATR multiples
	ChandelierLookback  int     // highest-high window for the trailing stop
	ChandelierK         float64 // stop distance in ATR multiples
	ReentryWhileBullish bool    // enter whenever bullish, not only on a flip
}

// SupertrendStrategy enters when the Supertrend direction is bullish and
// exits when price closes below the chandelier stop or the trend flips
// bearish. The chandelier level doubles as the engine's trailing-stop source.
type SupertrendStrategy struct {
	Params SupertrendParams

	st         indicator.SupertrendResult
	chandelier []indicator.Value
	closes     []float64
}

func NewSupertrendStrategy(p Params) *SupertrendStrategy {
	return &SupertrendStrategy{Params: SupertrendParams{
		ATRPeriod:           p.Int("atr_period", 10),
		SupertrendMult:      p.Num("supertrend_multiplier", 3.0),
		ChandelierLookback:  p.Int("chandelier_lookback", 22),
		ChandelierK:         p.Num("chandelier_k", 3.0),
		ReentryWhileBullish: p.Bool("enable_reentry", true),
	}}
}

func (s *SupertrendStrategy) Name() string { return "supertrend" }

func (s *SupertrendStrategy) Prepare(series *model.Series) error {
	if s.Params.ATRPeriod <= 0 || s.Params.ChandelierLookback <= 0 {
		return fmt.Errorf("supertrend: non-positive lookback")
	}
	s.st = indicator.Supertrend(series.Bars, s.Params.ATRPeriod, s.Params.SupertrendMult)
	s.chandelier = indicator.ChandelierExitLong(series.Bars, s.st.ATR, s.Params.ChandelierLookback, s.Params.ChandelierK)
	s.closes = series.Closes()
	return nil
}

func (s *SupertrendStrategy) Advise(i int) Advice {
	if i < 0 || i >= len(s.closes) {
		return Advice{}
	}
	bullish := s.st.Direction[i] == 1
	flip := i > 0 && bullish && s.st.Direction[i-1] == -1

	enter := flip
	if s.Params.ReentryWhileBullish {
		enter = bullish
	}

	exit := !bullish
	if s.chandelier[i].Defined && s.closes[i] < s.chandelier[i].Val {
		exit = true
	}

	return Advice{
		Enter: enter,
		Exit:  exit,
		Stop:  s.chandelier[i],
		ATR:   s.st.ATR[i],
	}
}
