package handlers

import (
	"net/http"

	"equity-backtest/internal/api/models"

	"github.com/gin-gonic/gin"
)

// StrategyHandler handles strategy-related requests
type StrategyHandler struct{}

// NewStrategyHandler creates a new strategy handler
func NewStrategyHandler() *StrategyHandler {
	return &StrategyHandler{}
}

// ListStrategies handles GET /api/v1/strategies
func (h *StrategyHandler) ListStrategies(c *gin.Context) {
	strategies := []models.StrategyInfo{
		{
			Name:        "supertrend",
			Description: "Trend following. Enters when the Supertrend direction is bullish; exits on a bearish flip or a close below the chandelier stop, which also serves as the trailing-stop level.",
			Parameters: []models.ParameterInfo{
				{
					Name:        "atr_period",
					Type:        "int",
					Description: "ATR lookback for the Supertrend bands",
					Default:     10,
				},
				{
					Name:        "supertrend_multiplier",
					Type:        "float",
					Description: "Band width in ATR multiples",
					Default:     3.0,
				},
				{
					Name:        "chandelier_lookback",
					Type:        "int",
					Description: "Highest-high window for the chandelier stop",
					Default:     22,
				},
				{
					Name:        "chandelier_k",
					Type:        "float",
					Description: "Chandelier stop distance in ATR multiples",
					Default:     3.0,
				},
				{
					Name:        "enable_reentry",
					Type:        "bool",
					Description: "Enter whenever bullish, not only on a fresh flip",
					Default:     true,
				},
			},
		},
		{
			Name:        "turtle",
			Description: "Donchian channel breakout with a long-term moving average regime filter. Enters on a 20-day closing high, exits on a 10-day closing low or when price loses the regime average.",
			Parameters: []models.ParameterInfo{
				{
					Name:        "sma_window",
					Type:        "int",
					Description: "Regime filter moving average window",
					Default:     200,
				},
				{
					Name:        "entry_window",
					Type:        "int",
					Description: "Breakout lookback (closing highs)",
					Default:     20,
				},
				{
					Name:        "exit_window",
					Type:        "int",
					Description: "Breakdown lookback (closing lows)",
					Default:     10,
				},
				{
					Name:        "atr_period",
					Type:        "int",
					Description: "ATR lookback for position sizing",
					Default:     14,
				},
			},
		},
		{
			Name:        "voloverlay",
			Description: "Continuous volatility-targeted exposure with trend and RSI caps, for overlay mode. Exposure is target vol over realized vol, trimmed when price is below the moving average or RSI is stretched.",
			Parameters: []models.ParameterInfo{
				{
					Name:        "vol_window",
					Type:        "int",
					Description: "Realized volatility lookback (days)",
					Default:     20,
				},
				{
					Name:        "target_vol",
					Type:        "float",
					Description: "Annualized volatility target",
					Default:     0.25,
				},
				{
					Name:        "max_leverage",
					Type:        "float",
					Description: "Exposure cap",
					Default:     1.5,
				},
				{
					Name:        "sma_window",
					Type:        "int",
					Description: "Trend filter moving average window",
					Default:     200,
				},
				{
					Name:        "exit_buffer",
					Type:        "float",
					Description: "Fractional distance below the average that forces zero exposure",
					Default:     0.10,
				},
				{
					Name:        "rsi_window",
					Type:        "int",
					Description: "RSI lookback",
					Default:     14,
				},
				{
					Name:        "rsi_high",
					Type:        "float",
					Description: "RSI level above which exposure is trimmed",
					Default:     80.0,
				},
				{
					Name:        "rsi_trim_cap",
					Type:        "float",
					Description: "Exposure cap while RSI is above rsi_high",
					Default:     0.8,
				},
			},
		},
	}

	c.JSON(http.StatusOK, gin.H{"strategies": strategies})
}
