package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"equity-backtest/internal/backtest"
	"equity-backtest/internal/metrics"
)

func sampleReport() RunReport {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	return RunReport{
		Symbol:   "SPY",
		Strategy: "supertrend",
		Start:    start,
		End:      start.AddDate(1, 0, 0),
		Summary: metrics.Summary{
			TotalReturn: 0.21,
			CAGR:        0.208,
			AnnVol:      0.145,
			Sharpe:      1.31,
			MaxDrawdown: -0.12,
			NumTrades:   2,
			HitRate:     metrics.Ratio{Value: 0.5, Valid: true},
			FinalEquity: 121_000,
			TradingDays: 252,
		},
		Trades: []backtest.Trade{
			{
				EntryDate:       start,
				ExitDate:        start.AddDate(0, 2, 0),
				EntryPrice:      100,
				ExitPrice:       110,
				Shares:          250,
				LeverageAtEntry: 1.2,
				PnL:             2500,
				ExitReason:      backtest.ExitSignal,
			},
		},
	}
}

func TestMarkdown(t *testing.T) {
	md, err := Markdown(sampleReport())
	require.NoError(t, err)

	require.Contains(t, md, "# Backtest note: SPY / supertrend")
	require.Contains(t, md, "21.00%")
	require.Contains(t, md, "SIGNAL_EXIT")
	require.Contains(t, md, "2024-01-02")
	require.NotContains(t, md, "Commentary")
	require.NotContains(t, md, "Open position")
}

func TestMarkdown_NoTrades(t *testing.T) {
	r := sampleReport()
	r.Trades = nil
	r.Summary.HitRate = metrics.Ratio{}

	md, err := Markdown(r)
	require.NoError(t, err)
	require.Contains(t, md, "No closed trades.")
	require.Contains(t, md, "n/a")
}

func TestMarkdown_OpenPositionAndCommentary(t *testing.T) {
	r := sampleReport()
	r.Open = &backtest.OpenPosition{
		EntryDate:  time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC),
		EntryPrice: 115,
		Shares:     200,
		StopPrice:  110,
	}
	r.Commentary = "Solid year with a contained drawdown."

	md, err := Markdown(r)
	require.NoError(t, err)
	require.Contains(t, md, "Open position: 200 shares since 2024-11-01")
	require.Contains(t, md, "## Commentary")
	require.Contains(t, md, "Solid year")
}

func TestHTML_EscapesNote(t *testing.T) {
	r := sampleReport()
	r.Commentary = "<script>alert(1)</script>"

	html, err := HTML(r)
	require.NoError(t, err)
	require.Contains(t, html, "<title>SPY / supertrend</title>")
	require.NotContains(t, html, "<script>alert(1)</script>")
	require.True(t, strings.Contains(html, "&lt;script&gt;"))
}
