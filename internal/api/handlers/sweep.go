package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"equity-backtest/internal/analysis"
	"equity-backtest/internal/api/models"
	"equity-backtest/internal/backtest"
	"equity-backtest/internal/data"
	"equity-backtest/internal/model"
)

// SweepHandler handles parameter sweep requests
type SweepHandler struct {
	stooq *data.StooqClient
}

// NewSweepHandler creates a new sweep handler
func NewSweepHandler() *SweepHandler {
	return &SweepHandler{stooq: data.NewStooqClient("")}
}

// Sweep handles GET /api/v1/sweep
func (h *SweepHandler) Sweep(c *gin.Context) {
	var req models.SweepRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "INVALID_REQUEST",
				Message: err.Error(),
			},
		})
		return
	}

	var axes map[string][]float64
	if err := json.Unmarshal([]byte(req.Axes), &axes); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "INVALID_AXES",
				Message: fmt.Sprintf("axes must be a JSON object of parameter ranges: %v", err),
			},
		})
		return
	}

	series, err := h.fetchSeries(req)
	if err != nil {
		writeFetchError(c, err)
		return
	}

	grid := analysis.Expand(nil, axes)
	ranked, err := analysis.Sweep(series, req.Strategy, grid, backtest.DefaultConfig())
	if err != nil {
		writeRunError(c, err)
		return
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}
	if limit > len(ranked) {
		limit = len(ranked)
	}

	resp := models.SweepResponse{Rankings: make([]models.SweepRanking, 0, limit)}
	for i, r := range ranked[:limit] {
		resp.Rankings = append(resp.Rankings, models.SweepRanking{
			Rank:    i + 1,
			Params:  r.Params,
			Summary: r.Summary,
		})
	}
	c.JSON(http.StatusOK, resp)
}

func (h *SweepHandler) fetchSeries(req models.SweepRequest) (*model.Series, error) {
	switch req.Source {
	case "csv":
		if req.Path == "" {
			return nil, fmt.Errorf("path is required for csv source")
		}
		return data.LoadCSV(req.Path)
	case "stooq":
		return h.stooq.DailyByString(req.Symbol, req.StartDate, req.EndDate)
	default:
		return nil, fmt.Errorf("unsupported sweep source: %q", req.Source)
	}
}
