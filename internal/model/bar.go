package model

import (
	"math"
	"time"
)

// Bar is one OHLC trading-period record.
// Return is the close-to-close simple return; the first bar of a series has 0.
// Bars are immutable once a Series is constructed.
type Bar struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Return float64
}

// Series is a validated, fully ordered price history.
// Construct via NewSeries; a Series that exists has passed validation.
type Series struct {
	Bars []Bar
}

// NewSeries validates raw bars and derives close-to-close returns.
// Requirements:
// - at least one bar
// - dates strictly ascending (unique)
// - all of open/high/low/close finite
// - High >= Low, High >= max(Open, Close), Low <= min(Open, Close)
//
// Violations return a *DataError naming the offending bar.
func NewSeries(bars []Bar) (*Series, error) {
	if len(bars) == 0 {
		return nil, &DataError{Index: -1, Msg: "empty price series"}
	}
	out := make([]Bar, len(bars))
	copy(out, bars)

	for i, b := range out {
		if !finite(b.Open) || !finite(b.High) || !finite(b.Low) || !finite(b.Close) {
			return nil, &DataError{Index: i, Msg: "non-finite OHLC value"}
		}
		if b.High < b.Low {
			return nil, &DataError{Index: i, Msg: "High < Low"}
		}
		if b.High < b.Open || b.High < b.Close {
			return nil, &DataError{Index: i, Msg: "High below Open/Close"}
		}
		if b.Low > b.Open || b.Low > b.Close {
			return nil, &DataError{Index: i, Msg: "Low above Open/Close"}
		}
		if i > 0 && !out[i-1].Date.Before(b.Date) {
			return nil, &DataError{Index: i, Msg: "dates not strictly ascending"}
		}
	}

	out[0].Return = 0
	for i := 1; i < len(out); i++ {
		prev := out[i-1].Close
		if prev == 0 {
			return nil, &DataError{Index: i - 1, Msg: "zero Close (cannot derive return)"}
		}
		out[i].Return = out[i].Close/prev - 1.0
	}

	return &Series{Bars: out}, nil
}

func (s *Series) Len() int { return len(s.Bars) }

// Returns extracts the derived simple-return column.
func (s *Series) Returns() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Return
	}
	return out
}

// Closes extracts the close column.
func (s *Series) Closes() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Close
	}
	return out
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
