package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"equity-backtest/internal/api/models"
	"equity-backtest/internal/backtest"
	"equity-backtest/internal/data"
	"equity-backtest/internal/metrics"
	"equity-backtest/internal/model"
	"equity-backtest/internal/signal"
)

// BacktestHandler handles backtest-related requests
type BacktestHandler struct {
	store   *runStore
	stooq   *data.StooqClient
	binance *data.BinanceClient
}

// NewBacktestHandler creates a new backtest handler
func NewBacktestHandler() *BacktestHandler {
	return &BacktestHandler{
		store:   newRunStore(100),
		stooq:   data.NewStooqClient(""),
		binance: data.NewBinanceClient("", ""),
	}
}

// RunBacktest handles POST /api/v1/backtest
func (h *BacktestHandler) RunBacktest(c *gin.Context) {
	var req models.BacktestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "INVALID_REQUEST",
				Message: err.Error(),
			},
		})
		return
	}

	series, err := h.fetchSeries(c, req.DataSource)
	if err != nil {
		writeFetchError(c, err)
		return
	}

	if req.Options.LimitBars > 0 && req.Options.LimitBars < series.Len() {
		series, err = model.NewSeries(series.Bars[:req.Options.LimitBars])
		if err != nil {
			writeRunError(c, err)
			return
		}
	}

	result, summary, err := h.run(series, req.Config)
	if err != nil {
		writeRunError(c, err)
		return
	}

	id := h.store.Put(result, summary)
	resp := models.BacktestResponse{
		ID:      id,
		Status:  "completed",
		Summary: summary,
		Open:    models.NewOpenPositionDetail(result.Open),
	}
	if req.Options.IncludeCurve {
		resp.Curve = models.NewEquityRows(result.Curve)
	}
	if req.Options.IncludeTrades {
		resp.Trades = models.NewTradeRows(result.Trades)
	}
	c.JSON(http.StatusOK, resp)
}

// GetEquity handles GET /api/v1/backtest/:id/equity
func (h *BacktestHandler) GetEquity(c *gin.Context) {
	run, ok := h.store.Get(c.Param("id"))
	if !ok {
		writeNotFound(c)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":    c.Param("id"),
		"curve": models.NewEquityRows(run.Result.Curve),
	})
}

// GetTrades handles GET /api/v1/backtest/:id/trades
func (h *BacktestHandler) GetTrades(c *gin.Context) {
	run, ok := h.store.Get(c.Param("id"))
	if !ok {
		writeNotFound(c)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":     c.Param("id"),
		"trades": models.NewTradeRows(run.Result.Trades),
		"open":   models.NewOpenPositionDetail(run.Result.Open),
	})
}

// CompareBacktests handles POST /api/v1/backtest/compare
func (h *BacktestHandler) CompareBacktests(c *gin.Context) {
	var req models.CompareBacktestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "INVALID_REQUEST",
				Message: err.Error(),
			},
		})
		return
	}

	// Fetch data once, reuse across all variations.
	series, err := h.fetchSeries(c, req.DataSource)
	if err != nil {
		writeFetchError(c, err)
		return
	}

	resp := models.CompareBacktestResponse{
		Comparison: make([]models.ComparisonResult, 0, len(req.Variations)+1),
	}

	_, baseSummary, err := h.run(series, req.BaseConfig)
	if err != nil {
		writeRunError(c, err)
		return
	}
	resp.Comparison = append(resp.Comparison, models.ComparisonResult{
		Name:    "base",
		Summary: baseSummary,
	})

	for _, v := range req.Variations {
		_, summary, err := h.run(series, v.Config)
		if err != nil {
			writeRunError(c, err)
			return
		}
		resp.Comparison = append(resp.Comparison, models.ComparisonResult{
			Name:    v.Name,
			Summary: summary,
		})
	}
	c.JSON(http.StatusOK, resp)
}

// run executes one configuration against an already-fetched series.
func (h *BacktestHandler) run(series *model.Series, rc models.RunConfig) (*backtest.Result, metrics.Summary, error) {
	cfg := rc.Engine.ToConfig().ToBacktestConfig()
	strat, err := signal.New(rc.Strategy.Name, signal.Params(rc.Strategy.Params))
	if err != nil {
		return nil, metrics.Summary{}, err
	}

	engine := backtest.New()
	var result *backtest.Result
	switch rc.Mode {
	case "", "discrete":
		result, err = engine.Run(series, strat, cfg)
	case "overlay":
		result, err = engine.RunOverlay(series, strat, cfg)
	default:
		return nil, metrics.Summary{}, fmt.Errorf("unsupported mode: %q", rc.Mode)
	}
	if err != nil {
		return nil, metrics.Summary{}, err
	}
	return result, metrics.Compute(result.Curve, result.Trades, cfg.RiskFreeRate), nil
}

func (h *BacktestHandler) fetchSeries(c *gin.Context, src models.DataSourceConfig) (*model.Series, error) {
	switch src.Type {
	case "csv":
		if src.Path == "" {
			return nil, fmt.Errorf("path is required for csv data source")
		}
		return data.LoadCSV(src.Path)
	case "stooq":
		return h.stooq.DailyByString(src.Symbol, src.StartDate, src.EndDate)
	case "binance":
		start, end, err := parseWindow(src.StartDate, src.EndDate)
		if err != nil {
			return nil, err
		}
		return h.binance.Series(c.Request.Context(), src.Symbol, src.Interval, start, end)
	case "inline":
		bars := make([]model.Bar, len(src.Bars))
		for i, b := range src.Bars {
			date, err := time.Parse("2006-01-02", b.Date)
			if err != nil {
				return nil, fmt.Errorf("bar %d: invalid date %q", i, b.Date)
			}
			bars[i] = model.Bar{Date: date, Open: b.Open, High: b.High, Low: b.Low, Close: b.Close}
		}
		return model.NewSeries(bars)
	default:
		return nil, fmt.Errorf("unsupported data source type: %q", src.Type)
	}
}

func parseWindow(startDate, endDate string) (time.Time, time.Time, error) {
	start, err := time.Parse("2006-01-02", startDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start_date (expected YYYY-MM-DD): %w", err)
	}
	end, err := time.Parse("2006-01-02", endDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end_date (expected YYYY-MM-DD): %w", err)
	}
	return start, end, nil
}

func writeFetchError(c *gin.Context, err error) {
	if perr, ok := err.(*data.ProviderError); ok {
		statusCode := http.StatusBadRequest
		if perr.StatusCode == http.StatusTooManyRequests {
			statusCode = http.StatusTooManyRequests
		}
		c.JSON(statusCode, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    perr.Code,
				Message: perr.Message,
				Details: map[string]interface{}{
					"provider":    perr.Provider,
					"status_code": perr.StatusCode,
					"retry_after": perr.RetryAfter,
				},
			},
		})
		return
	}
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    "DATA_FETCH_ERROR",
			Message: err.Error(),
		},
	})
}

func writeRunError(c *gin.Context, err error) {
	code := "BACKTEST_ERROR"
	status := http.StatusInternalServerError
	switch err.(type) {
	case *backtest.ConfigError:
		code = "INVALID_CONFIG"
		status = http.StatusBadRequest
	case *model.DataError:
		code = "INVALID_DATA"
		status = http.StatusBadRequest
	}
	c.JSON(status, models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    code,
			Message: err.Error(),
		},
	})
}

func writeNotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    "RUN_NOT_FOUND",
			Message: "no stored backtest with that id",
		},
	})
}
