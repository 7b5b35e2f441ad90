package backtest

import (
	"math"
	"time"

	"equity-backtest/internal/indicator"
)

// Position is the engine's single mutable holding. It owns the FLAT/LONG
// transitions so the state machine is testable apart from the bar loop.
// A nil *Position means FLAT; Open returns the LONG state.
type Position struct {
	Shares          float64
	EntryPrice      float64
	EntryDate       time.Time
	LeverageAtEntry float64

	// hardStop is fixed at entry (entry - StopATRMultiple*ATR).
	// trail follows the strategy's stop source and, when trailing is
	// enabled, only ratchets upward.
	hardStop float64
	trail    indicator.Value
	trailing bool
}

// Open transitions FLAT -> LONG at the given fill.
func Open(shares, fillPrice float64, date time.Time, leverage, stopDistance float64, trailSeed indicator.Value, trailing bool) *Position {
	return &Position{
		Shares:          shares,
		EntryPrice:      fillPrice,
		EntryDate:       date,
		LeverageAtEntry: leverage,
		hardStop:        fillPrice - stopDistance,
		trail:           trailSeed,
		trailing:        trailing,
	}
}

// UpdateStop feeds the strategy's per-bar stop level (computed from the
// prior bar's indicators). With trailing enabled the carried level only
// moves up; disabled, it is replaced outright.
func (p *Position) UpdateStop(level indicator.Value) {
	if !level.Defined {
		return
	}
	if p.trailing && p.trail.Defined && p.trail.Val > level.Val {
		return
	}
	p.trail = level
}

// Stop returns the active stop level. With trailing enabled it is the higher
// of the fixed hard stop and the ratcheted trail; disabled, the most recent
// strategy level stands alone and the hard stop only covers the bars before
// one arrives.
func (p *Position) Stop() float64 {
	if !p.trail.Defined {
		return p.hardStop
	}
	if p.trailing {
		return math.Max(p.hardStop, p.trail.Val)
	}
	return p.trail.Val
}

// StopHit reports whether the bar's low touched the active stop
// (conservative intrabar test).
func (p *Position) StopHit(low float64) bool {
	return low <= p.Stop()
}

// StopReason distinguishes a ratcheted trailing stop from the entry hard
// stop for trade tagging.
func (p *Position) StopReason() ExitReason {
	if p.trail.Defined && p.trail.Val > p.hardStop {
		return ExitTrailingStop
	}
	return ExitHardStop
}

// Close transitions LONG -> FLAT at the given exit price, returning the
// immutable Trade record. costs covers commission+slippage on the exit fill.
func (p *Position) Close(exitPrice float64, date time.Time, costs float64, reason ExitReason) Trade {
	gross := p.Shares * (exitPrice - p.EntryPrice)
	return Trade{
		EntryDate:       p.EntryDate,
		ExitDate:        date,
		EntryPrice:      p.EntryPrice,
		ExitPrice:       exitPrice,
		Shares:          p.Shares,
		LeverageAtEntry: p.LeverageAtEntry,
		PnL:             gross - costs,
		ExitReason:      reason,
	}
}
