package backtest

import "fmt"

// Config is the frozen parameter set for one simulation run. The engine
// never mutates it; callers validate once via Validate before Run.
type Config struct {
	InitialEquity float64

	// Risk controls.
	ATRPeriod       int
	StopATRMultiple float64
	TrailingEnabled bool
	RiskPctPerTrade float64
	MinATR          float64

	// Volatility targeting.
	VolTarget   float64
	VolLookback int
	MinLeverage float64
	MaxLeverage float64
	VolFloor    float64

	// Costs and carry.
	CommissionBps float64
	SlippageBps   float64
	RiskFreeRate  float64

	// Rebalancing / re-entry policy.
	RebalanceThreshold  float64
	AllowSameDayReentry bool
}

// ConfigError marks an out-of-range configuration. It aborts a run before
// simulation starts.
type ConfigError struct {
	Field string
	Msg   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: %s: %s", e.Field, e.Msg)
}

// DefaultConfig mirrors the canonical run parameters.
func DefaultConfig() Config {
	return Config{
		InitialEquity:       100_000,
		ATRPeriod:           10,
		StopATRMultiple:     2.0,
		TrailingEnabled:     true,
		RiskPctPerTrade:     0.01,
		MinATR:              1e-6,
		VolTarget:           0.10,
		VolLookback:         60,
		MinLeverage:         1.0,
		MaxLeverage:         1.5,
		CommissionBps:       5,
		SlippageBps:         1,
		RiskFreeRate:        0.04,
		RebalanceThreshold:  0.05,
		AllowSameDayReentry: false,
	}
}

func (c *Config) Validate() error {
	if c.InitialEquity <= 0 {
		return &ConfigError{Field: "initial_equity", Msg: "must be > 0"}
	}
	if c.ATRPeriod < 0 {
		return &ConfigError{Field: "atr_period", Msg: "must be >= 0"}
	}
	if c.StopATRMultiple < 0 {
		return &ConfigError{Field: "stop_atr_multiple", Msg: "must be >= 0"}
	}
	if c.MinATR < 0 {
		return &ConfigError{Field: "min_atr", Msg: "must be >= 0"}
	}
	if c.VolTarget <= 0 {
		return &ConfigError{Field: "vol_target", Msg: "must be > 0"}
	}
	if c.VolLookback <= 1 {
		return &ConfigError{Field: "vol_lookback", Msg: "must be > 1"}
	}
	if c.MinLeverage < 0 {
		return &ConfigError{Field: "min_leverage", Msg: "must be >= 0"}
	}
	if c.MaxLeverage < c.MinLeverage {
		return &ConfigError{Field: "max_leverage", Msg: "must be >= min_leverage"}
	}
	if c.RiskPctPerTrade <= 0 || c.RiskPctPerTrade > 1 {
		return &ConfigError{Field: "risk_pct_per_trade", Msg: "must be in (0, 1]"}
	}
	if c.CommissionBps < 0 || c.SlippageBps < 0 {
		return &ConfigError{Field: "commission_bps/slippage_bps", Msg: "must be >= 0"}
	}
	if c.RebalanceThreshold < 0 {
		return &ConfigError{Field: "rebalance_threshold", Msg: "must be >= 0"}
	}
	if c.VolFloor < 0 {
		return &ConfigError{Field: "vol_floor", Msg: "must be >= 0"}
	}
	return nil
}

func bpsToFrac(bps float64) float64 { return bps / 10_000.0 }
