package model

import "fmt"

// DataError marks a structurally invalid price series: missing/non-finite
// values, non-monotonic dates, impossible OHLC relationships. It aborts a run
// before simulation starts; there are no partial results behind one.
type DataError struct {
	Index int // bar index, -1 when the series as a whole is at fault
	Msg   string
}

func (e *DataError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("data error: %s", e.Msg)
	}
	return fmt.Sprintf("data error: %s at bar %d", e.Msg, e.Index)
}
