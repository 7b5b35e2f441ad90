package backtest

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"
)

func WriteEquityCSV(path string, curve []EquityPoint) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{
		"date",
		"equity",
		"daily_return",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, p := range curve {
		row := []string{
			fmtDate(p.Date),
			fmtFloat(p.Equity),
			fmtFloat(p.DailyReturn),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Error()
}

func WriteTradesCSV(path string, trades []Trade) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{
		"entry_date",
		"exit_date",
		"entry_price",
		"exit_price",
		"shares",
		"leverage_at_entry",
		"pnl",
		"exit_reason",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, t := range trades {
		row := []string{
			fmtDate(t.EntryDate),
			fmtDate(t.ExitDate),
			fmtFloat(t.EntryPrice),
			fmtFloat(t.ExitPrice),
			fmtFloat(t.Shares),
			fmtFloat(t.LeverageAtEntry),
			fmtFloat(t.PnL),
			string(t.ExitReason),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Error()
}

func fmtDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
