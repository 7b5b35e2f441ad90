package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"equity-backtest/internal/backtest"
	"equity-backtest/internal/signal"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk configuration shape (YAML).
type Config struct {
	// Optional: load engine parameters from a separate YAML (e.g. examples/engines/*.yaml).
	// If both EngineFile and Engine are provided, Engine overrides EngineFile.
	EngineFile string         `yaml:"engine_file"`
	Engine     EngineConfig   `yaml:"engine"`
	Strategy   StrategyConfig `yaml:"strategy"`
	Data       DataConfig     `yaml:"data"`
}

// EngineConfig mirrors backtest.Config field by field. Zero values mean
// "keep the default"; fields where zero is a meaningful setting are pointers.
type EngineConfig struct {
	InitialEquity       float64  `yaml:"initial_equity"`
	ATRPeriod           int      `yaml:"atr_period"`
	StopATRMultiple     float64  `yaml:"stop_atr_multiple"`
	TrailingEnabled     *bool    `yaml:"trailing_enabled"`
	RiskPctPerTrade     float64  `yaml:"risk_pct_per_trade"`
	MinATR              float64  `yaml:"min_atr"`
	VolTarget           float64  `yaml:"vol_target"`
	VolLookback         int      `yaml:"vol_lookback"`
	MinLeverage         float64  `yaml:"min_leverage"`
	MaxLeverage         float64  `yaml:"max_leverage"`
	VolFloor            float64  `yaml:"vol_floor"`
	CommissionBps       *float64 `yaml:"commission_bps"`
	SlippageBps         *float64 `yaml:"slippage_bps"`
	RiskFreeRate        *float64 `yaml:"risk_free_rate"`
	RebalanceThreshold  float64  `yaml:"rebalance_threshold"`
	AllowSameDayReentry bool     `yaml:"allow_same_day_reentry"`
}

type StrategyConfig struct {
	Name   string         `yaml:"name"`
	Params map[string]any `yaml:"params"`
}

// DataConfig selects the price source for CLI runs.
type DataConfig struct {
	Provider string `yaml:"provider"` // csv | stooq | binance
	Path     string `yaml:"path"`     // csv only
	Symbol   string `yaml:"symbol"`
	Interval string `yaml:"interval"` // binance only, e.g. "1d"
	Start    string `yaml:"start"`    // YYYY-MM-DD
	End      string `yaml:"end"`
}

func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked loads and merges config, but does not validate it.
// Useful for debugging/printing partial configs.
func LoadUnchecked(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, err
	}
	// If engine_file is set, load it and merge in any explicit overrides from c.Engine.
	if c.EngineFile != "" {
		enginePath := c.EngineFile
		if !filepath.IsAbs(enginePath) {
			// Prefer interpreting relative paths as relative to the config file directory,
			// but fall back to the provided path (relative to cwd) if that doesn't exist.
			cand := filepath.Join(filepath.Dir(path), enginePath)
			if _, err := os.Stat(cand); err == nil {
				enginePath = cand
			}
		}
		loaded, err := loadEngineFile(enginePath)
		if err != nil {
			return nil, err
		}
		c.Engine = MergeEngine(loaded, c.Engine)
	}
	return &c, nil
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.Strategy.Name == "" {
		return errors.New("strategy.name is required")
	}
	if _, err := signal.New(c.Strategy.Name, c.Strategy.Params); err != nil {
		return err
	}
	bc := c.Engine.ToBacktestConfig()
	if err := bc.Validate(); err != nil {
		return fmt.Errorf("engine config invalid: %w", err)
	}
	return nil
}

// ToBacktestConfig overlays the YAML values onto the run defaults.
func (e EngineConfig) ToBacktestConfig() backtest.Config {
	out := backtest.DefaultConfig()
	if e.InitialEquity != 0 {
		out.InitialEquity = e.InitialEquity
	}
	if e.ATRPeriod != 0 {
		out.ATRPeriod = e.ATRPeriod
	}
	if e.StopATRMultiple != 0 {
		out.StopATRMultiple = e.StopATRMultiple
	}
	if e.TrailingEnabled != nil {
		out.TrailingEnabled = *e.TrailingEnabled
	}
	if e.RiskPctPerTrade != 0 {
		out.RiskPctPerTrade = e.RiskPctPerTrade
	}
	if e.MinATR != 0 {
		out.MinATR = e.MinATR
	}
	if e.VolTarget != 0 {
		out.VolTarget = e.VolTarget
	}
	if e.VolLookback != 0 {
		out.VolLookback = e.VolLookback
	}
	if e.MinLeverage != 0 {
		out.MinLeverage = e.MinLeverage
	}
	if e.MaxLeverage != 0 {
		out.MaxLeverage = e.MaxLeverage
	}
	if e.VolFloor != 0 {
		out.VolFloor = e.VolFloor
	}
	if e.CommissionBps != nil {
		out.CommissionBps = *e.CommissionBps
	}
	if e.SlippageBps != nil {
		out.SlippageBps = *e.SlippageBps
	}
	if e.RiskFreeRate != nil {
		out.RiskFreeRate = *e.RiskFreeRate
	}
	if e.RebalanceThreshold != 0 {
		out.RebalanceThreshold = e.RebalanceThreshold
	}
	out.AllowSameDayReentry = e.AllowSameDayReentry
	return out
}

type engineFileWrapper struct {
	Engine EngineConfig `yaml:"engine"`
}

func loadEngineFile(path string) (EngineConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return EngineConfig{}, err
	}
	var w engineFileWrapper
	if err := yaml.Unmarshal(raw, &w); err != nil {
		return EngineConfig{}, err
	}
	return w.Engine, nil
}

// MergeEngine overlays set fields from override onto base.
func MergeEngine(base, override EngineConfig) EngineConfig {
	out := base
	if override.InitialEquity != 0 {
		out.InitialEquity = override.InitialEquity
	}
	if override.ATRPeriod != 0 {
		out.ATRPeriod = override.ATRPeriod
	}
	if override.StopATRMultiple != 0 {
		out.StopATRMultiple = override.StopATRMultiple
	}
	if override.TrailingEnabled != nil {
		out.TrailingEnabled = override.TrailingEnabled
	}
	if override.RiskPctPerTrade != 0 {
		out.RiskPctPerTrade = override.RiskPctPerTrade
	}
	if override.MinATR != 0 {
		out.MinATR = override.MinATR
	}
	if override.VolTarget != 0 {
		out.VolTarget = override.VolTarget
	}
	if override.VolLookback != 0 {
		out.VolLookback = override.VolLookback
	}
	if override.MinLeverage != 0 {
		out.MinLeverage = override.MinLeverage
	}
	if override.MaxLeverage != 0 {
		out.MaxLeverage = override.MaxLeverage
	}
	if override.VolFloor != 0 {
		out.VolFloor = override.VolFloor
	}
	if override.CommissionBps != nil {
		out.CommissionBps = override.CommissionBps
	}
	if override.SlippageBps != nil {
		out.SlippageBps = override.SlippageBps
	}
	if override.RiskFreeRate != nil {
		out.RiskFreeRate = override.RiskFreeRate
	}
	if override.RebalanceThreshold != 0 {
		out.RebalanceThreshold = override.RebalanceThreshold
	}
	if override.AllowSameDayReentry {
		out.AllowSameDayReentry = true
	}
	return out
}
