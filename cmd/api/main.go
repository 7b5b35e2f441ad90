package main

import (
	"fmt"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"equity-backtest/internal/api/handlers"
	"equity-backtest/internal/api/middleware"
)

func main() {
	_ = godotenv.Load()

	port := os.Getenv("API_PORT")
	if port == "" {
		port = "8080"
	}

	if os.Getenv("API_ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Apply middleware
	router.Use(middleware.CORS())
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorHandler())

	// Initialize handlers
	backtestHandler := handlers.NewBacktestHandler()
	strategyHandler := handlers.NewStrategyHandler()
	sweepHandler := handlers.NewSweepHandler()

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API routes
	api := router.Group("/api/v1")
	{
		api.POST("/backtest", backtestHandler.RunBacktest)
		api.GET("/backtest/:id/equity", backtestHandler.GetEquity)
		api.GET("/backtest/:id/trades", backtestHandler.GetTrades)
		api.POST("/backtest/compare", backtestHandler.CompareBacktests)

		api.GET("/strategies", strategyHandler.ListStrategies)

		api.GET("/sweep", sweepHandler.Sweep)
	}

	addr := fmt.Sprintf(":%s", port)
	log.Printf("Starting API server on %s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
