// Package analysis runs parameter sweeps over a single strategy and ranks
// the candidates by risk-adjusted return.
package analysis

import (
	"sort"

	"equity-backtest/internal/backtest"
	"equity-backtest/internal/metrics"
	"equity-backtest/internal/model"
	"equity-backtest/internal/signal"
)

// RankedRun is one sweep candidate with its resulting performance summary.
type RankedRun struct {
	Strategy string          `json:"strategy"`
	Params   signal.Params   `json:"params"`
	Summary  metrics.Summary `json:"summary"`
}

// Expand builds the cartesian product of base overridden by every combination
// of the axis values. Axes iterate in sorted key order so the output order is
// deterministic.
func Expand(base signal.Params, axes map[string][]float64) []signal.Params {
	keys := make([]string, 0, len(axes))
	for k := range axes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := []signal.Params{clone(base)}
	for _, k := range keys {
		vals := axes[k]
		if len(vals) == 0 {
			continue
		}
		next := make([]signal.Params, 0, len(out)*len(vals))
		for _, p := range out {
			for _, v := range vals {
				q := clone(p)
				q[k] = v
				next = append(next, q)
			}
		}
		out = next
	}
	return out
}

// Sweep backtests every parameter set on the same series and configuration,
// sorted descending by Sharpe. A candidate whose strategy construction or run
// fails aborts the whole sweep; the series is validated once up front.
func Sweep(series *model.Series, strategyName string, grid []signal.Params, cfg backtest.Config) ([]RankedRun, error) {
	engine := backtest.New()
	out := make([]RankedRun, 0, len(grid))
	for _, params := range grid {
		strat, err := signal.New(strategyName, params)
		if err != nil {
			return nil, err
		}
		res, err := engine.Run(series, strat, cfg)
		if err != nil {
			return nil, err
		}
		out = append(out, RankedRun{
			Strategy: strategyName,
			Params:   params,
			Summary:  metrics.Compute(res.Curve, res.Trades, cfg.RiskFreeRate),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Summary.Sharpe > out[j].Summary.Sharpe
	})
	return out, nil
}

func clone(p signal.Params) signal.Params {
	q := make(signal.Params, len(p))
	for k, v := range p {
		q[k] = v
	}
	return q
}
