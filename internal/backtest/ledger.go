package backtest

import "time"

// ExitReason tags why a position was closed.
// Keep these values stable; they are intended for CSV/JSON output.
type ExitReason string

const (
	ExitSignal       ExitReason = "SIGNAL_EXIT"
	ExitHardStop     ExitReason = "HARD_STOP"
	ExitTrailingStop ExitReason = "TRAILING_STOP"
	ExitRegimeFilter ExitReason = "REGIME_FILTER"
)

// Trade is one closed round-trip. Created when a position closes and
// immutable afterward; the trade log is append-only.
type Trade struct {
	EntryDate       time.Time
	ExitDate        time.Time
	EntryPrice      float64
	ExitPrice       float64
	Shares          float64
	LeverageAtEntry float64
	PnL             float64
	ExitReason      ExitReason
}

// EquityPoint is one bar of the equity curve: net asset value marked at the
// bar's close plus the bar-over-bar return. One point per input bar.
type EquityPoint struct {
	Date        time.Time
	Equity      float64
	DailyReturn float64
}

// OpenPosition is the snapshot of a position still open at the end of the
// data. It is marked to market in the equity curve but produces no Trade.
type OpenPosition struct {
	EntryDate       time.Time
	EntryPrice      float64
	Shares          float64
	LeverageAtEntry float64
	StopPrice       float64
	UnrealizedPnL   float64
}

// Result is the primary artifact of one simulation run.
type Result struct {
	Curve  []EquityPoint
	Trades []Trade

	FinalEquity   float64
	FinalLeverage float64
	Open          *OpenPosition
}
