// Package metrics reduces an equity curve and trade log to the standard
// performance summary. Degenerate inputs (flat curves, empty trade logs,
// zero-length histories) produce zero sentinels or invalid ratios, never
// NaN or Inf.
package metrics

import (
	"encoding/json"
	"math"
	"strconv"

	"equity-backtest/internal/backtest"
	"equity-backtest/internal/indicator"
)

const daysPerYear = 365.25

// Ratio is a metric that may be undefined (e.g. hit rate with zero closed
// trades). It renders as "n/a" rather than NaN.
type Ratio struct {
	Value float64
	Valid bool
}

func (r Ratio) String() string {
	if !r.Valid {
		return "n/a"
	}
	return strconv.FormatFloat(r.Value, 'f', 4, 64)
}

func (r Ratio) MarshalJSON() ([]byte, error) {
	if !r.Valid {
		return []byte(`"n/a"`), nil
	}
	return json.Marshal(r.Value)
}

// Summary is the full performance report for one run.
type Summary struct {
	TotalReturn   float64 `json:"total_return"`
	CAGR          float64 `json:"cagr"`
	AnnVol        float64 `json:"annualized_vol"`
	Sharpe        float64 `json:"sharpe"`
	Sortino       float64 `json:"sortino"`
	MaxDrawdown   float64 `json:"max_drawdown"`
	Calmar        float64 `json:"calmar"`
	HitRate       Ratio   `json:"hit_rate"`
	NumTrades     int     `json:"num_trades"`
	AvgTradePnL   Ratio   `json:"avg_trade_pnl"`
	FinalEquity   float64 `json:"final_equity"`
	TradingDays   int     `json:"trading_days"`
	CalendarYears float64 `json:"calendar_years"`
}

// Compute reduces curve and trades to a Summary. riskFreeRate is annualized;
// the daily excess return uses riskFreeRate/252.
func Compute(curve []backtest.EquityPoint, trades []backtest.Trade, riskFreeRate float64) Summary {
	var s Summary
	s.NumTrades = len(trades)
	s.TradingDays = len(curve)
	if len(curve) == 0 {
		s.HitRate = Ratio{}
		s.AvgTradePnL = Ratio{}
		return s
	}

	first, last := curve[0], curve[len(curve)-1]
	s.FinalEquity = last.Equity
	if first.Equity > 0 {
		s.TotalReturn = last.Equity/first.Equity - 1
	}

	days := last.Date.Sub(first.Date).Hours() / 24
	if days > 0 && first.Equity > 0 && last.Equity > 0 {
		s.CalendarYears = days / daysPerYear
		s.CAGR = math.Pow(last.Equity/first.Equity, 1/s.CalendarYears) - 1
	}

	rets := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		rets = append(rets, curve[i].DailyReturn)
	}

	dailyRF := riskFreeRate / indicator.AnnualizationFactor
	mean, std := meanStd(rets)
	s.AnnVol = std * math.Sqrt(indicator.AnnualizationFactor)
	if std > 0 {
		s.Sharpe = (mean - dailyRF) / std * math.Sqrt(indicator.AnnualizationFactor)
	}
	if dd := downsideDev(rets); dd > 0 {
		s.Sortino = (mean - dailyRF) / dd * math.Sqrt(indicator.AnnualizationFactor)
	}

	s.MaxDrawdown = maxDrawdown(curve)
	if s.MaxDrawdown < 0 {
		s.Calmar = s.CAGR / -s.MaxDrawdown
	}

	if len(trades) > 0 {
		wins := 0
		var pnl float64
		for _, t := range trades {
			if t.PnL > 0 {
				wins++
			}
			pnl += t.PnL
		}
		s.HitRate = Ratio{Value: float64(wins) / float64(len(trades)), Valid: true}
		s.AvgTradePnL = Ratio{Value: pnl / float64(len(trades)), Valid: true}
	}
	return s
}

// maxDrawdown returns the worst peak-to-trough decline as a non-positive
// fraction.
func maxDrawdown(curve []backtest.EquityPoint) float64 {
	peak := math.Inf(-1)
	worst := 0.0
	for _, p := range curve {
		if p.Equity > peak {
			peak = p.Equity
		}
		if peak > 0 {
			dd := p.Equity/peak - 1
			if dd < worst {
				worst = dd
			}
		}
	}
	return worst
}

func meanStd(xs []float64) (float64, float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	var mean float64
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	var ss float64
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return mean, math.Sqrt(ss / float64(len(xs)))
}

// downsideDev is the population standard deviation of the negative daily
// returns about their own mean. No losing days yields 0 (Sortino sentinel).
func downsideDev(xs []float64) float64 {
	var neg []float64
	for _, x := range xs {
		if x < 0 {
			neg = append(neg, x)
		}
	}
	if len(neg) == 0 {
		return 0
	}
	_, sd := meanStd(neg)
	return sd
}
