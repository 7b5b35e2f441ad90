package backtest

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"equity-backtest/internal/indicator"
	"equity-backtest/internal/model"
	"equity-backtest/internal/signal"
)

// scriptStrategy replays a fixed advice sequence; bars past the script are
// all-zero advice.
type scriptStrategy struct {
	advices []signal.Advice
}

func (s *scriptStrategy) Name() string                  { return "script" }
func (s *scriptStrategy) Prepare(_ *model.Series) error { return nil }
func (s *scriptStrategy) Advise(i int) signal.Advice {
	if i < len(s.advices) {
		return s.advices[i]
	}
	return signal.Advice{}
}

func day(i int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i)
}

// flatBars builds n bars where open=high=low=close=px.
func flatBars(t *testing.T, n int, px float64) *model.Series {
	t.Helper()
	bars := make([]model.Bar, n)
	for i := range bars {
		bars[i] = model.Bar{Date: day(i), Open: px, High: px, Low: px, Close: px}
	}
	s, err := model.NewSeries(bars)
	require.NoError(t, err)
	return s
}

// seriesFrom builds bars where each bar trades flat at the given price,
// except the low may be pulled down via lows[i].
func seriesFrom(t *testing.T, prices []float64, lows map[int]float64) *model.Series {
	t.Helper()
	bars := make([]model.Bar, len(prices))
	for i, p := range prices {
		lo := p
		if v, ok := lows[i]; ok {
			lo = v
		}
		bars[i] = model.Bar{Date: day(i), Open: p, High: p, Low: lo, Close: p}
	}
	s, err := model.NewSeries(bars)
	require.NoError(t, err)
	return s
}

// frictionless keeps the default risk parameters but removes costs and carry
// so cash arithmetic in expectations stays exact.
func frictionless() Config {
	cfg := DefaultConfig()
	cfg.CommissionBps = 0
	cfg.SlippageBps = 0
	cfg.RiskFreeRate = 0
	return cfg
}

func TestRun_FlatSeriesNoSignals(t *testing.T) {
	series := flatBars(t, 300, 100)
	res, err := New().Run(series, &scriptStrategy{}, frictionless())
	require.NoError(t, err)

	require.Empty(t, res.Trades)
	require.Nil(t, res.Open)
	require.Len(t, res.Curve, 300)
	for _, p := range res.Curve {
		require.Equal(t, 100_000.0, p.Equity)
		require.Equal(t, 0.0, p.DailyReturn)
	}
}

func TestRun_HardStopExit(t *testing.T) {
	// Entry at bar 1 open=100 with 2*ATR stop distance 4 -> stop at 96.
	// Bar 2 trades down through 96; exit fills at the stop.
	series := seriesFrom(t, []float64{100, 100, 95}, map[int]float64{2: 90})
	strat := &scriptStrategy{advices: []signal.Advice{
		{Enter: true, ATR: indicator.Value{Val: 2, Defined: true}},
	}}

	res, err := New().Run(series, strat, frictionless())
	require.NoError(t, err)

	require.Len(t, res.Trades, 1)
	tr := res.Trades[0]
	require.Equal(t, ExitHardStop, tr.ExitReason)
	require.Equal(t, 100.0, tr.EntryPrice)
	require.Equal(t, 96.0, tr.ExitPrice)
	// risk 1% of 100k over a 4.0 stop distance at 1x leverage
	require.Equal(t, 250.0, tr.Shares)
	require.Equal(t, -1000.0, tr.PnL)
	require.Equal(t, 99_000.0, res.FinalEquity)
	require.Nil(t, res.Open)
}

func TestRun_TrailingStopTagging(t *testing.T) {
	// The ratcheted stop climbs above the entry hard stop (96) before the
	// touch, so the exit is tagged as a trailing stop.
	series := seriesFrom(t,
		[]float64{100, 100, 101, 99.5},
		map[int]float64{3: 97},
	)
	strat := &scriptStrategy{advices: []signal.Advice{
		{Enter: true, ATR: indicator.Value{Val: 2, Defined: true}},
		{Stop: indicator.Value{Val: 98, Defined: true}},
		{Stop: indicator.Value{Val: 99, Defined: true}},
	}}

	res, err := New().Run(series, strat, frictionless())
	require.NoError(t, err)

	require.Len(t, res.Trades, 1)
	tr := res.Trades[0]
	require.Equal(t, ExitTrailingStop, tr.ExitReason)
	require.Equal(t, 99.0, tr.ExitPrice)
	require.Equal(t, 250.0*(99.0-100.0), tr.PnL)
}

func TestRun_TrailingStopNeverLoosens(t *testing.T) {
	// A later, lower stop level must not pull the carried stop back down.
	series := seriesFrom(t,
		[]float64{100, 100, 101, 102, 99.5},
		map[int]float64{4: 97},
	)
	strat := &scriptStrategy{advices: []signal.Advice{
		{Enter: true, ATR: indicator.Value{Val: 2, Defined: true}},
		{Stop: indicator.Value{Val: 99, Defined: true}},
		{Stop: indicator.Value{Val: 97.5, Defined: true}}, // ignored: ratchet
		{Stop: indicator.Value{Val: 97.5, Defined: true}},
	}}

	res, err := New().Run(series, strat, frictionless())
	require.NoError(t, err)

	require.Len(t, res.Trades, 1)
	require.Equal(t, 99.0, res.Trades[0].ExitPrice)
	require.Equal(t, ExitTrailingStop, res.Trades[0].ExitReason)
}

func TestRun_TrailingDisabledReplacesStop(t *testing.T) {
	// With trailing off the strategy level stands alone, so a replacement
	// below the entry hard stop (96) loosens the exit to 90.
	series := seriesFrom(t,
		[]float64{100, 100, 99, 98},
		map[int]float64{2: 95, 3: 89},
	)
	strat := &scriptStrategy{advices: []signal.Advice{
		{Enter: true, ATR: indicator.Value{Val: 2, Defined: true}},
		{Stop: indicator.Value{Val: 90, Defined: true}},
		{Stop: indicator.Value{Val: 90, Defined: true}},
	}}

	cfg := frictionless()
	cfg.TrailingEnabled = false

	res, err := New().Run(series, strat, cfg)
	require.NoError(t, err)

	require.Len(t, res.Trades, 1)
	tr := res.Trades[0]
	require.Equal(t, day(3), tr.ExitDate, "the 95 low must not touch the replaced 90 stop")
	require.Equal(t, 90.0, tr.ExitPrice)
	require.Equal(t, ExitHardStop, tr.ExitReason)
	require.Equal(t, -2500.0, tr.PnL)
}

func TestRun_SignalExitAndAccountingIdentity(t *testing.T) {
	// Two full round trips through signal exits; with zero costs and zero
	// carry, final equity must equal initial plus realized PnL.
	series := seriesFrom(t, []float64{100, 100, 105, 110, 108, 112}, nil)
	strat := &scriptStrategy{advices: []signal.Advice{
		{Enter: true, ATR: indicator.Value{Val: 2, Defined: true}},
		{},
		{Exit: true},
		{Enter: true, ATR: indicator.Value{Val: 2, Defined: true}},
		{Exit: true},
	}}

	res, err := New().Run(series, strat, frictionless())
	require.NoError(t, err)

	require.Len(t, res.Trades, 2)
	require.Nil(t, res.Open)
	for _, tr := range res.Trades {
		require.Equal(t, ExitSignal, tr.ExitReason)
	}

	// First trade: 250 shares, 100 -> 110.
	require.Equal(t, 2500.0, res.Trades[0].PnL)
	// Second trade sized off the grown equity: floor(102500*0.01/4) = 256.
	require.Equal(t, 256.0, res.Trades[1].Shares)
	require.Equal(t, 108.0, res.Trades[1].EntryPrice)
	require.Equal(t, 112.0, res.Trades[1].ExitPrice)

	var realized float64
	for _, tr := range res.Trades {
		realized += tr.PnL
	}
	require.InDelta(t, 100_000+realized, res.FinalEquity, 1e-9)

	// Trades never overlap.
	require.False(t, res.Trades[1].EntryDate.Before(res.Trades[0].ExitDate))
}

func TestRun_RegimeExitTagging(t *testing.T) {
	series := seriesFrom(t, []float64{100, 100, 102, 101}, nil)
	strat := &scriptStrategy{advices: []signal.Advice{
		{Enter: true, ATR: indicator.Value{Val: 2, Defined: true}},
		{},
		{Exit: true, Regime: true},
	}}

	res, err := New().Run(series, strat, frictionless())
	require.NoError(t, err)
	require.Len(t, res.Trades, 1)
	require.Equal(t, ExitRegimeFilter, res.Trades[0].ExitReason)
}

func TestRun_SameDayReentryPolicy(t *testing.T) {
	series := seriesFrom(t, []float64{100, 100, 102, 103, 104}, nil)
	advices := []signal.Advice{
		{Enter: true, ATR: indicator.Value{Val: 2, Defined: true}},
		{Exit: true, Enter: true, ATR: indicator.Value{Val: 2, Defined: true}},
	}

	cfg := frictionless()
	cfg.AllowSameDayReentry = false
	res, err := New().Run(series, &scriptStrategy{advices: advices}, cfg)
	require.NoError(t, err)
	require.Len(t, res.Trades, 1)
	require.Nil(t, res.Open, "re-entry on the exit bar must be suppressed")

	cfg.AllowSameDayReentry = true
	res, err = New().Run(series, &scriptStrategy{advices: advices}, cfg)
	require.NoError(t, err)
	require.Len(t, res.Trades, 1)
	require.NotNil(t, res.Open, "re-entry on the exit bar is allowed")
	require.Equal(t, day(2), res.Open.EntryDate)
}

func TestRun_CarryOnIdleCashOnly(t *testing.T) {
	// The invested basis earns no interest; only the cash left over does.
	cfg := frictionless()
	cfg.RiskFreeRate = 0.0252 // 1bp per trading day

	series := flatBars(t, 4, 100)
	strat := &scriptStrategy{advices: []signal.Advice{
		{Enter: true, ATR: indicator.Value{Val: 2, Defined: true}},
	}}

	res, err := New().Run(series, strat, cfg)
	require.NoError(t, err)
	require.NotNil(t, res.Open)
	require.Equal(t, 250.0, res.Open.Shares)

	// Bar 1 accrues on the full 100k before the fill; bars 2 and 3 accrue
	// only on the cash not tied up in the 250*100 entry basis.
	cash := 100_000.0 * (1 + 0.0001)
	for i := 0; i < 2; i++ {
		cash += (cash - 25_000) * 0.0001
	}
	require.InDelta(t, cash, res.FinalEquity, 1e-9)

	flat, err := New().Run(flatBars(t, 4, 100), &scriptStrategy{}, cfg)
	require.NoError(t, err)
	require.Greater(t, flat.FinalEquity, res.FinalEquity, "an all-cash run out-earns the invested run")
}

func TestRun_LeverageClampedAtVolFloor(t *testing.T) {
	// Ten flat bars fill the vol lookback with zero returns; the vol floor
	// then caps demanded leverage at max_leverage.
	cfg := frictionless()
	cfg.VolTarget = 0.10
	cfg.VolLookback = 5
	cfg.MinLeverage = 1.0
	cfg.MaxLeverage = 1.5

	series := flatBars(t, 10, 100)
	strat := &scriptStrategy{advices: make([]signal.Advice, 9)}
	strat.advices[8] = signal.Advice{Enter: true, ATR: indicator.Value{Val: 2, Defined: true}}

	res, err := New().Run(series, strat, cfg)
	require.NoError(t, err)
	require.NotNil(t, res.Open)
	require.Equal(t, 1.5, res.Open.LeverageAtEntry)
	// floor(floor(1000/4) * 1.5) = 375 shares
	require.Equal(t, 375.0, res.Open.Shares)
	require.Equal(t, 1.5, res.FinalLeverage)
}

func TestRun_OpenPositionSnapshot(t *testing.T) {
	series := seriesFrom(t, []float64{100, 100, 104}, nil)
	strat := &scriptStrategy{advices: []signal.Advice{
		{Enter: true, ATR: indicator.Value{Val: 2, Defined: true}},
	}}

	res, err := New().Run(series, strat, frictionless())
	require.NoError(t, err)

	require.Empty(t, res.Trades)
	require.NotNil(t, res.Open)
	require.Equal(t, day(1), res.Open.EntryDate)
	require.Equal(t, 100.0, res.Open.EntryPrice)
	require.Equal(t, 96.0, res.Open.StopPrice)
	require.Equal(t, 250.0*4.0, res.Open.UnrealizedPnL)
	require.Equal(t, 101_000.0, res.FinalEquity)
}

func TestRun_NoLookAhead(t *testing.T) {
	// Perturbing bars after the cut must not change the curve before it.
	const cut = 100
	base := trendPrices(140)
	altered := trendPrices(140)
	for i := cut; i < len(altered); i++ {
		altered[i] *= 1.35
	}

	mk := func(prices []float64) *model.Series {
		bars := make([]model.Bar, len(prices))
		for i, p := range prices {
			o := p
			if i > 0 {
				o = prices[i-1]
			}
			bars[i] = model.Bar{
				Date:  day(i),
				Open:  o,
				High:  math.Max(o, p) + 0.5,
				Low:   math.Min(o, p) - 0.5,
				Close: p,
			}
		}
		s, err := model.NewSeries(bars)
		require.NoError(t, err)
		return s
	}

	cfg := frictionless()
	stratA, err := signal.New("supertrend", nil)
	require.NoError(t, err)
	stratB, err := signal.New("supertrend", nil)
	require.NoError(t, err)

	resA, err := New().Run(mk(base), stratA, cfg)
	require.NoError(t, err)
	resB, err := New().Run(mk(altered), stratB, cfg)
	require.NoError(t, err)

	for i := 0; i < cut; i++ {
		require.Equal(t, resA.Curve[i].Equity, resB.Curve[i].Equity, "bar %d", i)
	}
}

func TestRun_Deterministic(t *testing.T) {
	series1 := seriesFrom(t, trendPrices(120), nil)
	series2 := seriesFrom(t, trendPrices(120), nil)

	cfg := DefaultConfig()
	s1, err := signal.New("supertrend", nil)
	require.NoError(t, err)
	s2, err := signal.New("supertrend", nil)
	require.NoError(t, err)

	r1, err := New().Run(series1, s1, cfg)
	require.NoError(t, err)
	r2, err := New().Run(series2, s2, cfg)
	require.NoError(t, err)

	require.Equal(t, r1.Curve, r2.Curve)
	require.Equal(t, r1.Trades, r2.Trades)
	require.Equal(t, r1.FinalEquity, r2.FinalEquity)
}

func TestRun_RejectsBadInput(t *testing.T) {
	cfg := DefaultConfig()
	_, err := New().Run(nil, &scriptStrategy{}, cfg)
	var derr *model.DataError
	require.ErrorAs(t, err, &derr)

	bad := DefaultConfig()
	bad.InitialEquity = 0
	_, err = New().Run(flatBars(t, 10, 100), &scriptStrategy{}, bad)
	var cerr *ConfigError
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, "initial_equity", cerr.Field)

	bad = DefaultConfig()
	bad.MinATR = -1
	_, err = New().Run(flatBars(t, 10, 100), &scriptStrategy{}, bad)
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, "min_atr", cerr.Field)
}

// trendPrices is a deterministic wandering uptrend.
func trendPrices(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 100 + 0.15*float64(i) + 6*math.Sin(float64(i)/9)
	}
	return out
}
