package backtest

import (
	"math"

	"equity-backtest/internal/indicator"
	"equity-backtest/internal/model"
	"equity-backtest/internal/signal"
	"equity-backtest/internal/sizing"
)

// Engine replays a price series bar-by-bar through one strategy.
// A run is single-threaded and deterministic; independent runs may execute
// concurrently, each with its own Engine state.
type Engine struct{}

func New() *Engine { return &Engine{} }

// Run executes the discrete trade simulation: long/flat state machine with
// ATR-risk position sizing, volatility-targeted leverage, stop-loss and
// trailing-stop checks, commission/slippage on every fill, and a daily
// risk-free carry on idle (or borrowed) cash.
//
// Decisions executed at bar i only use information through bar i-1: entry
// and exit signals are the strategy's advice for the prior bar, stops derive
// from prior-bar indicators, and the stop touch is tested against the
// current bar's low before signal exits are considered.
func (e *Engine) Run(series *model.Series, strat signal.Strategy, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if series == nil || series.Len() == 0 {
		return nil, &model.DataError{Index: -1, Msg: "empty price series"}
	}
	if strat == nil {
		return nil, &ConfigError{Field: "strategy", Msg: "strategy is nil"}
	}
	if err := strat.Prepare(series); err != nil {
		return nil, err
	}

	bars := series.Bars
	comm := bpsToFrac(cfg.CommissionBps)
	slip := bpsToFrac(cfg.SlippageBps)
	dailyRF := cfg.RiskFreeRate / indicator.AnnualizationFactor
	sizer := sizing.Sizer{
		TargetVol:          cfg.VolTarget,
		MinLeverage:        cfg.MinLeverage,
		MaxLeverage:        cfg.MaxLeverage,
		VolFloor:           cfg.VolFloor,
		RebalanceThreshold: cfg.RebalanceThreshold,
	}

	cash := cfg.InitialEquity
	var pos *Position
	lastExitBar := -1

	curve := make([]EquityPoint, 0, len(bars))
	curve = append(curve, EquityPoint{Date: bars[0].Date, Equity: cfg.InitialEquity})
	rets := make([]float64, 1, len(bars)) // seeded with bar-0 return of 0
	trades := []Trade{}
	lastLeverage := 0.0

	for i := 1; i < len(bars); i++ {
		bar := bars[i]
		adv := strat.Advise(i - 1)

		// Carry accrues on idle cash only: the invested basis earns nothing,
		// and leverage beyond it pays on the borrowed amount. Every bar,
		// trade or no trade.
		idle := cash
		if pos != nil {
			idle -= pos.Shares * pos.EntryPrice
		}
		cash += idle * dailyRF

		atr := math.Max(adv.ATR.Val, cfg.MinATR)

		// Realized vol of the strategy's own returns; until the lookback
		// fills, fall back to the target (leverage settles near 1x).
		vol := cfg.VolTarget
		if len(rets) >= cfg.VolLookback {
			vol = stddevPop(rets[len(rets)-cfg.VolLookback:]) * math.Sqrt(indicator.AnnualizationFactor)
		}
		L := sizer.Leverage(vol)
		lastLeverage = L

		if pos != nil {
			pos.UpdateStop(adv.Stop)
		}

		// Stops are checked against the bar's low before any signal exit.
		if pos != nil && pos.StopHit(bar.Low) {
			stopPx := pos.Stop() * (1 - slip)
			costs := pos.Shares * stopPx * (comm + slip)
			cash += pos.Shares*(stopPx-pos.EntryPrice) - costs
			trades = append(trades, pos.Close(stopPx, bar.Date, costs, pos.StopReason()))
			pos = nil
			lastExitBar = i
		} else if pos != nil && adv.Exit {
			exitPx := bar.Open * (1 - slip)
			costs := pos.Shares * exitPx * (comm + slip)
			cash += pos.Shares*(exitPx-pos.EntryPrice) - costs
			reason := ExitSignal
			if adv.Regime {
				reason = ExitRegimeFilter
			}
			trades = append(trades, pos.Close(exitPx, bar.Date, costs, reason))
			pos = nil
			lastExitBar = i
		}

		if pos == nil && adv.Enter && adv.ATR.Defined {
			if cfg.AllowSameDayReentry || lastExitBar != i {
				riskDollars := cash * cfg.RiskPctPerTrade
				stopDist := cfg.StopATRMultiple * atr
				if stopDist > 0 {
					shares := math.Floor(math.Floor(riskDollars/stopDist) * L)
					if shares > 0 {
						fillPx := bar.Open * (1 + slip)
						costs := shares * fillPx * (comm + slip)
						pos = Open(shares, fillPx, bar.Date, L, stopDist, adv.Stop, cfg.TrailingEnabled)
						cash -= costs
					}
				}
			}
		}

		nav := cash + unrealized(pos, bar.Close)
		prev := curve[len(curve)-1].Equity
		ret := 0.0
		if prev > 0 {
			ret = nav/prev - 1
		}
		curve = append(curve, EquityPoint{Date: bar.Date, Equity: nav, DailyReturn: ret})
		rets = append(rets, ret)
	}

	res := &Result{
		Curve:         curve,
		Trades:        trades,
		FinalEquity:   curve[len(curve)-1].Equity,
		FinalLeverage: lastLeverage,
	}
	if pos != nil {
		last := bars[len(bars)-1]
		res.Open = &OpenPosition{
			EntryDate:       pos.EntryDate,
			EntryPrice:      pos.EntryPrice,
			Shares:          pos.Shares,
			LeverageAtEntry: pos.LeverageAtEntry,
			StopPrice:       pos.Stop(),
			UnrealizedPnL:   pos.Shares * (last.Close - pos.EntryPrice),
		}
	}
	return res, nil
}

// unrealized is the open P&L carried on top of the cash balance; cash plus
// this mark equals net asset value at every bar (entry basis stays in cash).
func unrealized(p *Position, close float64) float64 {
	if p == nil {
		return 0
	}
	return p.Shares * (close - p.EntryPrice)
}

func stddevPop(xs []float64) float64 {
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
