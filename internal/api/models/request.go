package models

import "equity-backtest/internal/config"

// BacktestRequest represents the request body for running a backtest
type BacktestRequest struct {
	DataSource DataSourceConfig `json:"data_source" binding:"required"`
	Config     RunConfig        `json:"config" binding:"required"`
	Options    BacktestOptions  `json:"options,omitempty"`
}

// DataSourceConfig defines where the price series comes from
type DataSourceConfig struct {
	Type      string      `json:"type" binding:"required"` // "csv", "stooq", "binance", "inline"
	Path      string      `json:"path,omitempty"`          // csv
	Symbol    string      `json:"symbol,omitempty"`        // stooq / binance
	Interval  string      `json:"interval,omitempty"`      // binance, default "1d"
	StartDate string      `json:"start_date,omitempty"`    // YYYY-MM-DD
	EndDate   string      `json:"end_date,omitempty"`      // YYYY-MM-DD
	Bars      []InlineBar `json:"bars,omitempty"`          // inline
}

// InlineBar is one OHLC bar supplied directly in the request
type InlineBar struct {
	Date  string  `json:"date" binding:"required"` // YYYY-MM-DD
	Open  float64 `json:"open" binding:"required"`
	High  float64 `json:"high" binding:"required"`
	Low   float64 `json:"low" binding:"required"`
	Close float64 `json:"close" binding:"required"`
}

// RunConfig contains engine and strategy configuration
type RunConfig struct {
	Engine   EngineConfig   `json:"engine,omitempty"`
	Strategy StrategyConfig `json:"strategy" binding:"required"`
	Mode     string         `json:"mode,omitempty"` // "discrete" (default) or "overlay"
}

// EngineConfig mirrors the YAML engine section with JSON tags
type EngineConfig struct {
	InitialEquity       float64  `json:"initial_equity,omitempty"`
	ATRPeriod           int      `json:"atr_period,omitempty"`
	StopATRMultiple     float64  `json:"stop_atr_multiple,omitempty"`
	TrailingEnabled     *bool    `json:"trailing_enabled,omitempty"`
	RiskPctPerTrade     float64  `json:"risk_pct_per_trade,omitempty"`
	MinATR              float64  `json:"min_atr,omitempty"`
	VolTarget           float64  `json:"vol_target,omitempty"`
	VolLookback         int      `json:"vol_lookback,omitempty"`
	MinLeverage         float64  `json:"min_leverage,omitempty"`
	MaxLeverage         float64  `json:"max_leverage,omitempty"`
	VolFloor            float64  `json:"vol_floor,omitempty"`
	CommissionBps       *float64 `json:"commission_bps,omitempty"`
	SlippageBps         *float64 `json:"slippage_bps,omitempty"`
	RiskFreeRate        *float64 `json:"risk_free_rate,omitempty"`
	RebalanceThreshold  float64  `json:"rebalance_threshold,omitempty"`
	AllowSameDayReentry bool     `json:"allow_same_day_reentry,omitempty"`
}

// ToConfig converts to the YAML-layer engine config so both surfaces share
// the same defaulting rules.
func (e EngineConfig) ToConfig() config.EngineConfig {
	return config.EngineConfig{
		InitialEquity:       e.InitialEquity,
		ATRPeriod:           e.ATRPeriod,
		StopATRMultiple:     e.StopATRMultiple,
		TrailingEnabled:     e.TrailingEnabled,
		RiskPctPerTrade:     e.RiskPctPerTrade,
		MinATR:              e.MinATR,
		VolTarget:           e.VolTarget,
		VolLookback:         e.VolLookback,
		MinLeverage:         e.MinLeverage,
		MaxLeverage:         e.MaxLeverage,
		VolFloor:            e.VolFloor,
		CommissionBps:       e.CommissionBps,
		SlippageBps:         e.SlippageBps,
		RiskFreeRate:        e.RiskFreeRate,
		RebalanceThreshold:  e.RebalanceThreshold,
		AllowSameDayReentry: e.AllowSameDayReentry,
	}
}

// StrategyConfig defines strategy and its parameters
type StrategyConfig struct {
	Name   string                 `json:"name" binding:"required"`
	Params map[string]interface{} `json:"params,omitempty"`
}

// BacktestOptions contains optional backtest parameters
type BacktestOptions struct {
	LimitBars     int  `json:"limit_bars,omitempty"`     // 0 = all
	IncludeCurve  bool `json:"include_curve,omitempty"`  // default: false
	IncludeTrades bool `json:"include_trades,omitempty"` // default: false
}

// CompareBacktestRequest represents a request to compare multiple backtests
type CompareBacktestRequest struct {
	DataSource DataSourceConfig    `json:"data_source" binding:"required"`
	BaseConfig RunConfig           `json:"base_config" binding:"required"`
	Variations []BacktestVariation `json:"variations" binding:"required"`
}

// BacktestVariation defines a variation to test
type BacktestVariation struct {
	Name   string    `json:"name" binding:"required"`
	Config RunConfig `json:"config" binding:"required"`
}

// SweepRequest represents a parameter sweep over one strategy
type SweepRequest struct {
	Source    string `form:"source" binding:"required"` // "csv" or "stooq"
	Path      string `form:"path,omitempty"`
	Symbol    string `form:"symbol,omitempty"`
	StartDate string `form:"start_date,omitempty"`
	EndDate   string `form:"end_date,omitempty"`
	Strategy  string `form:"strategy" binding:"required"`
	Axes      string `form:"axes" binding:"required"` // JSON object: {"param": [v1, v2]}
	Limit     int    `form:"limit,omitempty"`         // default: 10
}
