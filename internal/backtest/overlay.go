package backtest

import (
	"equity-backtest/internal/indicator"
	"equity-backtest/internal/model"
	"equity-backtest/internal/signal"
	"equity-backtest/internal/sizing"
)

// RunOverlay executes the continuous-exposure simulation: instead of discrete
// share positions it holds a fractional leverage on the asset each bar,
// rebalancing only when the target drifts past the hysteresis threshold.
// Exposure targets come from the strategy's Advice.Exposure channel and are
// applied with a one-bar lag. Unallocated (or borrowed) capital accrues the
// daily risk-free rate, and each rebalance pays costs proportional to the
// leverage change.
func (e *Engine) RunOverlay(series *model.Series, strat signal.Strategy, cfg Config) (*Result, error) {
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
	costRate := bpsToFrac(cfg.CommissionBps) + bpsToFrac(cfg.SlippageBps)
	dailyRF := cfg.RiskFreeRate / indicator.AnnualizationFactor
	sizer := sizing.Sizer{
		TargetVol:          cfg.VolTarget,
		MinLeverage:        0, // overlay may go fully flat
		MaxLeverage:        cfg.MaxLeverage,
		VolFloor:           cfg.VolFloor,
		RebalanceThreshold: cfg.RebalanceThreshold,
	}

	equity := cfg.InitialEquity
	curve := make([]EquityPoint, 0, len(bars))
	curve = append(curve, EquityPoint{Date: bars[0].Date, Equity: equity})

	held := 0.0 // leverage actually carried into each bar
	trades := []Trade{}
	var entryBar int
	var entryEquity, entryLev float64

	for i := 1; i < len(bars); i++ {
		bar := bars[i]

		// Target computed from bar i-1 information, held through bar i.
		target := strat.Advise(i - 1).Exposure
		next := sizer.Execute(targetOrZero(target), held)

		turnover := next - held
		if turnover < 0 {
			turnover = -turnover
		}

		if held == 0 && next > 0 {
			entryBar = i
			entryEquity = equity
			entryLev = next
		}

		ret := next*bar.Return + (1-next)*dailyRF - turnover*costRate
		newEquity := equity * (1 + ret)

		if held > 0 && next == 0 {
			trades = append(trades, Trade{
				EntryDate:       bars[entryBar].Date,
				ExitDate:        bar.Date,
				EntryPrice:      bars[entryBar].Open,
				ExitPrice:       bar.Open,
				LeverageAtEntry: entryLev,
				PnL:             newEquity - entryEquity,
				ExitReason:      ExitRegimeFilter,
			})
		}

		equity = newEquity
		held = next

		prev := curve[len(curve)-1].Equity
		daily := 0.0
		if prev > 0 {
			daily = equity/prev - 1
		}
		curve = append(curve, EquityPoint{Date: bar.Date, Equity: equity, DailyReturn: daily})
	}

	res := &Result{
		Curve:         curve,
		Trades:        trades,
		FinalEquity:   equity,
		FinalLeverage: held,
	}
	if held > 0 {
		res.Open = &OpenPosition{
			EntryDate:       bars[entryBar].Date,
			EntryPrice:      bars[entryBar].Open,
			LeverageAtEntry: entryLev,
			UnrealizedPnL:   equity - entryEquity,
		}
	}
	return res, nil
}

func targetOrZero(v indicator.Value) float64 {
	if !v.Defined {
		return 0
	}
	if v.Val < 0 {
		return 0
	}
	return v.Val
}
