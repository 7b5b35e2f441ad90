package data

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"equity-backtest/internal/model"
)

// dateLayouts covers the formats seen in common OHLC exports.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"01/02/2006",
}

// LoadCSV reads daily bars from a CSV file. The header row is matched
// case-insensitively; "timestamp" works for the date column and "adj close"
// is preferred over "close" when both are present.
func LoadCSV(path string) (*model.Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCSV(f)
}

// ReadCSV parses bars from r; see LoadCSV.
func ReadCSV(r io.Reader) (*model.Series, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	cols, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	var bars []model.Bar
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}
		bar, err := parseBar(rec, cols)
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		bars = append(bars, bar)
	}
	return model.NewSeries(bars)
}

type columnMap struct {
	date, open, high, low, close int
}

func mapColumns(header []string) (columnMap, error) {
	cols := columnMap{date: -1, open: -1, high: -1, low: -1, close: -1}
	closeIdx, adjCloseIdx := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "date", "timestamp", "time":
			cols.date = i
		case "open":
			cols.open = i
		case "high":
			cols.high = i
		case "low":
			cols.low = i
		case "close":
			closeIdx = i
		case "adj close", "adj_close", "adjclose":
			adjCloseIdx = i
		}
	}
	cols.close = closeIdx
	if adjCloseIdx >= 0 {
		cols.close = adjCloseIdx
	}
	if cols.date < 0 || cols.open < 0 || cols.high < 0 || cols.low < 0 || cols.close < 0 {
		return cols, fmt.Errorf("csv header missing required columns (need date, open, high, low, close; got %v)", header)
	}
	return cols, nil
}

func parseBar(rec []string, cols columnMap) (model.Bar, error) {
	var bar model.Bar
	max := cols.date
	for _, i := range []int{cols.open, cols.high, cols.low, cols.close} {
		if i > max {
			max = i
		}
	}
	if len(rec) <= max {
		return bar, fmt.Errorf("short row: %d fields", len(rec))
	}

	date, err := parseDate(rec[cols.date])
	if err != nil {
		return bar, err
	}
	bar.Date = date

	for _, f := range []struct {
		idx int
		dst *float64
	}{
		{cols.open, &bar.Open},
		{cols.high, &bar.High},
		{cols.low, &bar.Low},
		{cols.close, &bar.Close},
	} {
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[f.idx]), 64)
		if err != nil {
			return bar, fmt.Errorf("parse %q: %w", rec[f.idx], err)
		}
		*f.dst = v
	}
	return bar, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
