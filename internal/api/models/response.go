package models

import (
	"equity-backtest/internal/backtest"
	"equity-backtest/internal/metrics"
)

// BacktestResponse represents the response from a backtest run
type BacktestResponse struct {
	ID      string              `json:"id"`
	Status  string              `json:"status"`
	Summary metrics.Summary     `json:"summary"`
	Curve   []EquityRow         `json:"curve,omitempty"`
	Trades  []TradeRow          `json:"trades,omitempty"`
	Open    *OpenPositionDetail `json:"open_position,omitempty"`
}

// EquityRow is one equity curve point
type EquityRow struct {
	Date        string  `json:"date"` // YYYY-MM-DD
	Equity      float64 `json:"equity"`
	DailyReturn float64 `json:"daily_return"`
}

// TradeRow is one closed round-trip
type TradeRow struct {
	EntryDate       string  `json:"entry_date"`
	ExitDate        string  `json:"exit_date"`
	EntryPrice      float64 `json:"entry_price"`
	ExitPrice       float64 `json:"exit_price"`
	Shares          float64 `json:"shares"`
	LeverageAtEntry float64 `json:"leverage_at_entry"`
	PnL             float64 `json:"pnl"`
	ExitReason      string  `json:"exit_reason"`
}

// OpenPositionDetail describes a position still open at the end of the data
type OpenPositionDetail struct {
	EntryDate       string  `json:"entry_date"`
	EntryPrice      float64 `json:"entry_price"`
	Shares          float64 `json:"shares"`
	LeverageAtEntry float64 `json:"leverage_at_entry"`
	StopPrice       float64 `json:"stop_price"`
	UnrealizedPnL   float64 `json:"unrealized_pnl"`
}

// NewEquityRows converts an equity curve for JSON output
func NewEquityRows(curve []backtest.EquityPoint) []EquityRow {
	out := make([]EquityRow, len(curve))
	for i, p := range curve {
		out[i] = EquityRow{
			Date:        p.Date.Format("2006-01-02"),
			Equity:      p.Equity,
			DailyReturn: p.DailyReturn,
		}
	}
	return out
}

// NewTradeRows converts a trade log for JSON output
func NewTradeRows(trades []backtest.Trade) []TradeRow {
	out := make([]TradeRow, len(trades))
	for i, t := range trades {
		out[i] = TradeRow{
			EntryDate:       t.EntryDate.Format("2006-01-02"),
			ExitDate:        t.ExitDate.Format("2006-01-02"),
			EntryPrice:      t.EntryPrice,
			ExitPrice:       t.ExitPrice,
			Shares:          t.Shares,
			LeverageAtEntry: t.LeverageAtEntry,
			PnL:             t.PnL,
			ExitReason:      string(t.ExitReason),
		}
	}
	return out
}

// NewOpenPositionDetail converts the open-position snapshot, or nil
func NewOpenPositionDetail(p *backtest.OpenPosition) *OpenPositionDetail {
	if p == nil {
		return nil
	}
	return &OpenPositionDetail{
		EntryDate:       p.EntryDate.Format("2006-01-02"),
		EntryPrice:      p.EntryPrice,
		Shares:          p.Shares,
		LeverageAtEntry: p.LeverageAtEntry,
		StopPrice:       p.StopPrice,
		UnrealizedPnL:   p.UnrealizedPnL,
	}
}

// CompareBacktestResponse represents the response from a comparison
type CompareBacktestResponse struct {
	Comparison []ComparisonResult `json:"comparison"`
}

// ComparisonResult contains results for one variation
type ComparisonResult struct {
	Name    string          `json:"name"`
	Summary metrics.Summary `json:"summary"`
}

// SweepResponse represents the ranked sweep output
type SweepResponse struct {
	Rankings []SweepRanking `json:"rankings"`
}

// SweepRanking is one ranked parameter set
type SweepRanking struct {
	Rank    int                    `json:"rank"`
	Params  map[string]interface{} `json:"params"`
	Summary metrics.Summary        `json:"summary"`
}

// StrategyInfo represents information about a strategy
type StrategyInfo struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  []ParameterInfo `json:"parameters"`
}

// ParameterInfo describes a strategy parameter
type ParameterInfo struct {
	Name        string      `json:"name"`
	Type        string      `json:"type"` // "float", "int", "bool"
	Description string      `json:"description"`
	Default     interface{} `json:"default,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
