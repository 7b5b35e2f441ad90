package signal

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"equity-backtest/internal/model"
)

func mkSeries(t *testing.T, closes []float64) *model.Series {
	t.Helper()
	bars := make([]model.Bar, len(closes))
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		o := c
		if i > 0 {
			o = closes[i-1]
		}
		bars[i] = model.Bar{
			Date:  start.AddDate(0, 0, i),
			Open:  o,
			High:  math.Max(o, c) + 0.5,
			Low:   math.Min(o, c) - 0.5,
			Close: c,
		}
	}
	s, err := model.NewSeries(bars)
	require.NoError(t, err)
	return s
}

func rising(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

func TestParams_Defaulting(t *testing.T) {
	p := Params{"a": 2.5, "b": 7, "c": true, "d": nil}
	require.Equal(t, 2.5, p.Num("a", 0))
	require.Equal(t, 7, p.Int("b", 0))
	require.Equal(t, 7.0, p.Num("b", 0))
	require.True(t, p.Bool("c", false))
	require.Equal(t, 1.5, p.Num("d", 1.5), "nil falls back to the default")
	require.Equal(t, 9, p.Int("missing", 9))
}

func TestRegistry(t *testing.T) {
	for _, name := range Names() {
		s, err := New(name, nil)
		require.NoError(t, err, name)
		require.Equal(t, name, s.Name())
	}
	_, err := New("martingale", nil)
	require.ErrorContains(t, err, `unsupported strategy: "martingale"`)
}

func TestSupertrendStrategy_Uptrend(t *testing.T) {
	series := mkSeries(t, rising(80, 100, 1.5))
	s := NewSupertrendStrategy(Params{"atr_period": 5, "chandelier_lookback": 5})
	require.NoError(t, s.Prepare(series))

	// The trend flips bullish somewhere; from then on advice wants exposure
	// and carries a defined trailing stop below the close.
	entered := false
	for i := 10; i < series.Len(); i++ {
		adv := s.Advise(i)
		if adv.Enter && !adv.Exit {
			entered = true
			require.True(t, adv.ATR.Defined)
			if adv.Stop.Defined {
				require.Less(t, adv.Stop.Val, series.Bars[i].Close)
			}
		}
	}
	require.True(t, entered, "steady uptrend never produced an entry")
}

func TestSupertrendStrategy_DowntrendNeverEnters(t *testing.T) {
	series := mkSeries(t, rising(80, 220, -1.5))
	s := NewSupertrendStrategy(nil)
	require.NoError(t, s.Prepare(series))

	for i := 0; i < series.Len(); i++ {
		adv := s.Advise(i)
		require.False(t, adv.Enter, "bar %d", i)
		require.True(t, adv.Exit, "bearish direction always advises exit")
	}
}

func TestSupertrendStrategy_BadParams(t *testing.T) {
	s := NewSupertrendStrategy(Params{"atr_period": 0})
	err := s.Prepare(mkSeries(t, rising(10, 100, 1)))
	require.Error(t, err)
}

func TestTurtleStrategy_BreakoutAndRegime(t *testing.T) {
	// 30 flat bars to fill the windows, then a sharp breakout.
	closes := append(rising(30, 100, 0), 100, 100, 120)
	series := mkSeries(t, closes)

	s := NewTurtleStrategy(Params{"sma_window": 10, "entry_window": 5, "exit_window": 3})
	require.NoError(t, s.Prepare(series))

	last := series.Len() - 1
	adv := s.Advise(last)
	require.True(t, adv.Enter, "close above the prior 5-bar high and the regime average")
	require.False(t, adv.Exit)
	require.True(t, adv.ATR.Defined)
}

func TestTurtleStrategy_BreakdownExit(t *testing.T) {
	closes := append(rising(30, 100, 1), 80)
	series := mkSeries(t, closes)

	s := NewTurtleStrategy(Params{"sma_window": 10, "entry_window": 5, "exit_window": 3})
	require.NoError(t, s.Prepare(series))

	adv := s.Advise(series.Len() - 1)
	require.True(t, adv.Exit)
	require.False(t, adv.Enter)
	require.False(t, adv.Regime, "a channel breakdown is not tagged as a regime exit")
}

func TestTurtleStrategy_RegimeExitTag(t *testing.T) {
	// A crash followed by a weak bounce: the close sits under the regime
	// average but above the 3-bar low, so only the regime rule fires.
	closes := append(rising(30, 130, 0), 100, 101, 102, 101.5)
	series := mkSeries(t, closes)

	s := NewTurtleStrategy(Params{"sma_window": 10, "entry_window": 5, "exit_window": 3})
	require.NoError(t, s.Prepare(series))

	adv := s.Advise(series.Len() - 1)
	require.True(t, adv.Exit)
	require.True(t, adv.Regime)
}

func TestVolOverlay_ExposureBounds(t *testing.T) {
	// Gentle uptrend with small noise keeps realized vol positive.
	closes := make([]float64, 120)
	for i := range closes {
		closes[i] = 100 + 0.3*float64(i) + 2*math.Sin(float64(i)/5)
	}
	series := mkSeries(t, closes)

	s := NewVolOverlayStrategy(Params{"vol_window": 20, "sma_window": 30, "max_leverage": 1.5})
	require.NoError(t, s.Prepare(series))

	exps := s.Exposures()
	require.Len(t, exps, series.Len())
	for i, e := range exps {
		if i < 19 {
			require.False(t, e.Defined, "before the vol window fills")
			continue
		}
		require.True(t, e.Defined, "bar %d", i)
		require.GreaterOrEqual(t, e.Val, 0.0)
		require.LessOrEqual(t, e.Val, 1.5)
	}
}

func TestVolOverlay_DeepTrendBreakZeroesExposure(t *testing.T) {
	// Long flat stretch, then a crash far below the moving average.
	closes := append(rising(60, 100, 0.5), 60, 58, 57, 56, 55)
	series := mkSeries(t, closes)

	s := NewVolOverlayStrategy(Params{"vol_window": 10, "sma_window": 20, "exit_buffer": 0.10})
	require.NoError(t, s.Prepare(series))

	last := series.Len() - 1
	adv := s.Advise(last)
	require.True(t, adv.Exposure.Defined)
	require.Equal(t, 0.0, adv.Exposure.Val)
	require.True(t, adv.Exit)
}

func TestVolOverlay_AdviceMapsExposure(t *testing.T) {
	closes := make([]float64, 80)
	for i := range closes {
		closes[i] = 100 + 0.4*float64(i) + math.Sin(float64(i)/3)
	}
	series := mkSeries(t, closes)

	s := NewVolOverlayStrategy(Params{"vol_window": 15, "sma_window": 20})
	require.NoError(t, s.Prepare(series))

	for i := 0; i < series.Len(); i++ {
		adv := s.Advise(i)
		if !adv.Exposure.Defined {
			require.False(t, adv.Enter)
			continue
		}
		require.Equal(t, adv.Exposure.Val > 0, adv.Enter)
		require.Equal(t, adv.Exposure.Val == 0, adv.Exit)
	}
}
