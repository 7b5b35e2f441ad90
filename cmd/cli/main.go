package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"equity-backtest/internal/analysis"
	"equity-backtest/internal/backtest"
	"equity-backtest/internal/config"
	"equity-backtest/internal/data"
	"equity-backtest/internal/metrics"
	"equity-backtest/internal/model"
	"equity-backtest/internal/report"
	"equity-backtest/internal/signal"
)

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "backtest":
		cmdBacktest(os.Args[2:])
	case "sweep":
		cmdSweep(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println("usage:")
	fmt.Println("  cli backtest --config examples/config.yaml --out results")
	fmt.Println("  cli sweep --config examples/config.yaml --axes '{\"supertrend_multiplier\":[2,3,4]}'")
	fmt.Println("")
	fmt.Println("notes:")
	fmt.Println("  - backtest writes equity.csv and trades.csv into --out and prints the summary")
	fmt.Println("  - sweep ranks parameter sets by Sharpe on the configured data")
}

func cmdBacktest(args []string) {
	fs := flag.NewFlagSet("backtest", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Path to YAML config")
	outDir := fs.String("out", "results", "Output directory for equity.csv / trades.csv")
	n := fs.Int("n", 0, "Optional: limit to first N bars (0=all)")
	overlay := fs.Bool("overlay", false, "Run the continuous-exposure overlay instead of the discrete engine")
	notePath := fs.String("note", "", "Optional: write a markdown trade note to this path")
	_ = fs.Parse(args)

	if *cfgPath == "" {
		fmt.Println("--config is required")
		os.Exit(2)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		panic(err)
	}

	series, err := loadSeries(cfg.Data)
	if err != nil {
		panic(err)
	}
	if *n > 0 && *n < series.Len() {
		series, err = model.NewSeries(series.Bars[:*n])
		if err != nil {
			panic(err)
		}
	}

	strat, err := signal.New(cfg.Strategy.Name, cfg.Strategy.Params)
	if err != nil {
		panic(err)
	}

	bc := cfg.Engine.ToBacktestConfig()
	engine := backtest.New()
	var res *backtest.Result
	if *overlay {
		res, err = engine.RunOverlay(series, strat, bc)
	} else {
		res, err = engine.Run(series, strat, bc)
	}
	if err != nil {
		panic(err)
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		panic(err)
	}
	equityPath := filepath.Join(*outDir, "equity.csv")
	tradesPath := filepath.Join(*outDir, "trades.csv")
	if err := backtest.WriteEquityCSV(equityPath, res.Curve); err != nil {
		panic(err)
	}
	if err := backtest.WriteTradesCSV(tradesPath, res.Trades); err != nil {
		panic(err)
	}

	summary := metrics.Compute(res.Curve, res.Trades, bc.RiskFreeRate)
	fmt.Printf("Wrote %d curve rows to %s and %d trades to %s\n",
		len(res.Curve), equityPath, len(res.Trades), tradesPath)
	fmt.Printf("Final equity=%.2f  Total return=%.2f%%  CAGR=%.2f%%  Sharpe=%.2f  MaxDD=%.2f%%  Trades=%d  HitRate=%s\n",
		summary.FinalEquity, summary.TotalReturn*100, summary.CAGR*100,
		summary.Sharpe, summary.MaxDrawdown*100, summary.NumTrades, summary.HitRate)
	if res.Open != nil {
		fmt.Printf("Open position: %.0f shares since %s (stop %.2f)\n",
			res.Open.Shares, res.Open.EntryDate.Format("2006-01-02"), res.Open.StopPrice)
	}

	if *notePath != "" {
		writeNote(*notePath, cfg, series, summary, res)
	}
}

func writeNote(path string, cfg *config.Config, series *model.Series, summary metrics.Summary, res *backtest.Result) {
	bars := series.Bars
	r := report.RunReport{
		Symbol:   cfg.Data.Symbol,
		Strategy: cfg.Strategy.Name,
		Start:    bars[0].Date,
		End:      bars[len(bars)-1].Date,
		Summary:  summary,
		Trades:   res.Trades,
		Open:     res.Open,
	}
	if r.Symbol == "" {
		r.Symbol = filepath.Base(cfg.Data.Path)
	}

	if narrator := report.NewNarrator(); narrator != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		commentary, err := narrator.Commentary(ctx, r)
		if err != nil {
			fmt.Printf("commentary skipped: %v\n", err)
		} else {
			r.Commentary = commentary
		}
	}

	md, err := report.Markdown(r)
	if err != nil {
		panic(err)
	}
	if err := os.WriteFile(path, []byte(md), 0o644); err != nil {
		panic(err)
	}
	fmt.Printf("Wrote trade note to %s\n", path)
}

func cmdSweep(args []string) {
	fs := flag.NewFlagSet("sweep", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Path to YAML config")
	axesJSON := fs.String("axes", "", "JSON object of parameter ranges, e.g. '{\"chandelier_k\":[2,3]}'")
	limit := fs.Int("limit", 10, "Show the top N parameter sets")
	_ = fs.Parse(args)

	if *cfgPath == "" || *axesJSON == "" {
		fmt.Println("--config and --axes are required")
		os.Exit(2)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		panic(err)
	}

	var axes map[string][]float64
	if err := json.Unmarshal([]byte(*axesJSON), &axes); err != nil {
		panic(fmt.Errorf("parse --axes: %w", err))
	}

	series, err := loadSeries(cfg.Data)
	if err != nil {
		panic(err)
	}

	grid := analysis.Expand(cfg.Strategy.Params, axes)
	ranked, err := analysis.Sweep(series, cfg.Strategy.Name, grid, cfg.Engine.ToBacktestConfig())
	if err != nil {
		panic(err)
	}

	if *limit > len(ranked) {
		*limit = len(ranked)
	}
	fmt.Printf("%-4s %-10s %-10s %-10s %-8s %s\n", "rank", "sharpe", "cagr", "maxdd", "trades", "params")
	for i, r := range ranked[:*limit] {
		params, _ := json.Marshal(r.Params)
		fmt.Printf("%-4d %-10.2f %-9.2f%% %-9.2f%% %-8d %s\n",
			i+1, r.Summary.Sharpe, r.Summary.CAGR*100, r.Summary.MaxDrawdown*100,
			r.Summary.NumTrades, params)
	}
}

func loadSeries(dc config.DataConfig) (*model.Series, error) {
	switch dc.Provider {
	case "", "csv":
		if dc.Path == "" {
			return nil, fmt.Errorf("data.path is required for the csv provider")
		}
		return data.LoadCSV(dc.Path)
	case "stooq":
		return data.NewStooqClient("").DailyByString(dc.Symbol, dc.Start, dc.End)
	case "binance":
		start, err := time.Parse("2006-01-02", dc.Start)
		if err != nil {
			return nil, fmt.Errorf("invalid data.start: %w", err)
		}
		end, err := time.Parse("2006-01-02", dc.End)
		if err != nil {
			return nil, fmt.Errorf("invalid data.end: %w", err)
		}
		client := data.NewBinanceClient(os.Getenv("BINANCE_API_KEY"), os.Getenv("BINANCE_SECRET_KEY"))
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		return client.Series(ctx, dc.Symbol, dc.Interval, start, end)
	default:
		return nil, fmt.Errorf("unsupported data provider: %q", dc.Provider)
	}
}
