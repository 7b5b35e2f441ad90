// Package report renders a run into a human-readable trade note, optionally
// augmented with model-generated commentary.
package report

import (
	"html/template"
	"strings"
	texttemplate "text/template"
	"time"

	"equity-backtest/internal/backtest"
	"equity-backtest/internal/metrics"
)

// RunReport collects everything the note needs about one finished run.
type RunReport struct {
	Symbol     string
	Strategy   string
	Start      time.Time
	End        time.Time
	Summary    metrics.Summary
	Trades     []backtest.Trade
	Open       *backtest.OpenPosition
	Commentary string
}

const markdownTmpl = `# Backtest note: {{.Symbol}} / {{.Strategy}}

Period: {{.Start.Format "2006-01-02"}} to {{.End.Format "2006-01-02"}} ({{.Summary.TradingDays}} bars)

## Performance

| Metric | Value |
|---|---|
| Total return | {{printf "%.2f%%" (pct .Summary.TotalReturn)}} |
| CAGR | {{printf "%.2f%%" (pct .Summary.CAGR)}} |
| Annualized vol | {{printf "%.2f%%" (pct .Summary.AnnVol)}} |
| Sharpe | {{printf "%.2f" .Summary.Sharpe}} |
| Sortino | {{printf "%.2f" .Summary.Sortino}} |
| Max drawdown | {{printf "%.2f%%" (pct .Summary.MaxDrawdown)}} |
| Calmar | {{printf "%.2f" .Summary.Calmar}} |
| Hit rate | {{.Summary.HitRate}} |
| Trades | {{.Summary.NumTrades}} |
| Final equity | {{printf "%.2f" .Summary.FinalEquity}} |

## Trades
{{if .Trades}}
| Entry | Exit | Entry px | Exit px | Shares | Lev | PnL | Reason |
|---|---|---|---|---|---|---|---|
{{range .Trades}}| {{.EntryDate.Format "2006-01-02"}} | {{.ExitDate.Format "2006-01-02"}} | {{printf "%.2f" .EntryPrice}} | {{printf "%.2f" .ExitPrice}} | {{printf "%.0f" .Shares}} | {{printf "%.2f" .LeverageAtEntry}} | {{printf "%.2f" .PnL}} | {{.ExitReason}} |
{{end}}{{else}}
No closed trades.
{{end}}{{if .Open}}
Open position: {{printf "%.0f" .Open.Shares}} shares since {{.Open.EntryDate.Format "2006-01-02"}} at {{printf "%.2f" .Open.EntryPrice}} (stop {{printf "%.2f" .Open.StopPrice}}, unrealized {{printf "%.2f" .Open.UnrealizedPnL}}).
{{end}}{{if .Commentary}}
## Commentary

{{.Commentary}}
{{end}}`

var mdTemplate = texttemplate.Must(texttemplate.New("note").Funcs(texttemplate.FuncMap{
	"pct": func(x float64) float64 { return x * 100 },
}).Parse(markdownTmpl))

// Markdown renders the trade note as markdown.
func Markdown(r RunReport) (string, error) {
	var sb strings.Builder
	if err := mdTemplate.Execute(&sb, r); err != nil {
		return "", err
	}
	return sb.String(), nil
}

const htmlShell = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.Title}}</title>
<style>
body { font-family: sans-serif; max-width: 60rem; margin: 2rem auto; }
pre { background: #f6f6f6; padding: 1rem; overflow-x: auto; }
</style>
</head>
<body><pre>{{.Body}}</pre></body>
</html>`

var htmlTemplate = template.Must(template.New("shell").Parse(htmlShell))

// HTML wraps the markdown note in a minimal standalone page. The note text is
// escaped, not rendered; it is meant for quick local inspection.
func HTML(r RunReport) (string, error) {
	md, err := Markdown(r)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	err = htmlTemplate.Execute(&sb, struct {
		Title string
		Body  string
	}{
		Title: r.Symbol + " / " + r.Strategy,
		Body:  md,
	})
	if err != nil {
		return "", err
	}
	return sb.String(), nil
}
