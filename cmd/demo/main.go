package main

import (
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"equity-backtest/internal/backtest"
	"equity-backtest/internal/metrics"
	"equity-backtest/internal/model"
	"equity-backtest/internal/signal"
)

// Demo:
// - Generate a synthetic daily price series (geometric random walk with drift)
// - Run the supertrend strategy through the discrete engine
// - Print the summary and the first few trades to show how the pieces fit
func main() {
	n := flag.Int("n", 750, "Number of synthetic daily bars")
	seed := flag.Int64("seed", 42, "RNG seed for the synthetic walk")
	outCSV := flag.String("out", "", "Optional path to write the equity curve CSV (e.g. results/equity.csv)")
	flag.Parse()

	series, err := syntheticSeries(*n, *seed)
	if err != nil {
		panic(err)
	}

	strat, err := signal.New("supertrend", nil)
	if err != nil {
		panic(err)
	}

	cfg := backtest.DefaultConfig()
	engine := backtest.New()
	res, err := engine.Run(series, strat, cfg)
	if err != nil {
		panic(err)
	}

	summary := metrics.Compute(res.Curve, res.Trades, cfg.RiskFreeRate)
	fmt.Printf("Synthetic run: %d bars, %d trades\n", series.Len(), len(res.Trades))
	fmt.Printf("Final equity=%.2f  Total return=%.2f%%  CAGR=%.2f%%  Sharpe=%.2f  MaxDD=%.2f%%  HitRate=%s\n",
		summary.FinalEquity, summary.TotalReturn*100, summary.CAGR*100,
		summary.Sharpe, summary.MaxDrawdown*100, summary.HitRate)

	show := len(res.Trades)
	if show > 5 {
		show = 5
	}
	for _, t := range res.Trades[:show] {
		fmt.Printf("  %s -> %s  %.0f sh @ %.2f -> %.2f  pnl=%.2f  (%s)\n",
			t.EntryDate.Format("2006-01-02"), t.ExitDate.Format("2006-01-02"),
			t.Shares, t.EntryPrice, t.ExitPrice, t.PnL, t.ExitReason)
	}
	if res.Open != nil {
		fmt.Printf("  open: %.0f sh since %s (stop %.2f)\n",
			res.Open.Shares, res.Open.EntryDate.Format("2006-01-02"), res.Open.StopPrice)
	}

	if *outCSV != "" {
		if err := os.MkdirAll(filepath.Dir(*outCSV), 0o755); err != nil {
			panic(err)
		}
		if err := backtest.WriteEquityCSV(*outCSV, res.Curve); err != nil {
			panic(err)
		}
		fmt.Printf("Wrote equity curve to %s\n", *outCSV)
	}
}

// syntheticSeries builds a drifting geometric walk with intraday ranges wide
// enough to exercise stops.
func syntheticSeries(n int, seed int64) (*model.Series, error) {
	rng := rand.New(rand.NewSource(seed))
	bars := make([]model.Bar, n)
	start := time.Date(2021, 1, 4, 0, 0, 0, 0, time.UTC)

	price := 100.0
	for i := range bars {
		ret := 0.0004 + 0.012*rng.NormFloat64()
		open := price
		close := price * math.Exp(ret)
		spread := 0.004 * price * (0.5 + rng.Float64())
		bars[i] = model.Bar{
			Date:  start.AddDate(0, 0, i),
			Open:  open,
			High:  math.Max(open, close) + spread,
			Low:   math.Min(open, close) - spread,
			Close: close,
		}
		price = close
	}
	return model.NewSeries(bars)
}
