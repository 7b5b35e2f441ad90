// Package signal maps indicator series to per-bar exposure intent.
// Generators are deterministic over the prepared price series; the engine
// always consumes the advice for bar i-1 when executing at bar i, so nothing
// here needs to (or may) reason about execution lag.
package signal

import (
	"equity-backtest/internal/indicator"
	"equity-backtest/internal/model"
)

// Advice is the per-bar output of a generator.
type Advice struct {
	// Enter / Exit are the discrete long entry and exit conditions evaluated
	// on this bar's close.
	Enter bool
	Exit  bool

	// Regime marks an Exit caused by the regime filter rather than the
	// primary exit rule; the engine tags the resulting trade accordingly.
	Regime bool

	// Stop is the strategy's trailing-stop level for this bar (undefined when
	// the strategy has no stop source or the lookback hasn't filled).
	Stop indicator.Value

	// ATR is the strategy's volatility unit for risk-based position sizing.
	ATR indicator.Value

	// Exposure is the continuous target leverage for overlay strategies;
	// discrete strategies leave it undefined.
	Exposure indicator.Value
}

// Strategy produces Advice for every bar of a prepared series.
type Strategy interface {
	Name() string
	Prepare(s *model.Series) error
	Advise(i int) Advice
}

// Params is the loosely-typed parameter bag strategies are built from
// (YAML or JSON config), with defaulting helpers.
type Params map[string]any

func (p Params) Num(key string, def float64) float64 {
	if v, ok := p[key]; ok && v != nil {
		switch x := v.(type) {
		case float64:
			return x
		case int:
			return float64(x)
		}
	}
	return def
}

func (p Params) Int(key string, def int) int {
	return int(p.Num(key, float64(def)))
}

func (p Params) Bool(key string, def bool) bool {
	if v, ok := p[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}
