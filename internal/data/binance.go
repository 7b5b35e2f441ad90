package data

import (
	"context"
	"fmt"
	"log"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2"
	"golang.org/x/time/rate"

	"equity-backtest/internal/model"
)

// BinanceClient adapts spot-market klines into daily bar series.
type BinanceClient struct {
	client      *binance.Client
	rateLimiter *rate.Limiter
}

// NewBinanceClient creates a klines client. Public kline endpoints work with
// empty credentials.
func NewBinanceClient(apiKey, secretKey string) *BinanceClient {
	httpClient := &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	spot := binance.NewClient(apiKey, secretKey)
	spot.HTTPClient = httpClient

	// 10 requests per second with burst of 20
	limiter := rate.NewLimiter(rate.Limit(10), 20)

	return &BinanceClient{
		client:      spot,
		rateLimiter: limiter,
	}
}

// Klines fetches raw klines with rate limiting and exponential-backoff
// retries.
func (c *BinanceClient) Klines(ctx context.Context, symbol, interval string, startTime, endTime int64) ([]*binance.Kline, error) {
	var klines []*binance.Kline
	maxRetries := 3
	backoff := 100 * time.Millisecond

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, err
		}

		var err error
		klines, err = c.client.NewKlinesService().
			Symbol(symbol).
			Interval(interval).
			StartTime(startTime).
			EndTime(endTime).
			Do(ctx)

		if err == nil {
			return klines, nil
		}
		if attempt == maxRetries {
			return nil, err
		}

		waitTime := time.Duration(math.Pow(2, float64(attempt))) * backoff
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(waitTime):
		}
	}
	return klines, nil
}

// Series fetches klines over [start, end] and converts them to a validated
// bar series. interval is a Binance kline interval such as "1d".
func (c *BinanceClient) Series(ctx context.Context, symbol, interval string, start, end time.Time) (*model.Series, error) {
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	if interval == "" {
		interval = "1d"
	}
	if start.After(end) {
		return nil, fmt.Errorf("start must be before end")
	}

	cache := GetCache()
	cacheKey := GenerateCacheKey("binance", symbol, interval, start, end)
	if cache != nil {
		if cached, found := cache.Get(cacheKey); found {
			log.Printf("[Binance] Cache hit: %d bars (symbol=%s, interval=%s)", cached.Len(), symbol, interval)
			return cached, nil
		}
	}

	log.Printf("[Binance] Request: klines (symbol=%s, interval=%s, start=%s, end=%s)",
		symbol, interval, start.Format("2006-01-02"), end.Format("2006-01-02"))

	klines, err := c.Klines(ctx, symbol, interval, start.UnixMilli(), end.UnixMilli())
	if err != nil {
		log.Printf("[Binance] Request failed: %v (symbol=%s)", err, symbol)
		return nil, &ProviderError{
			Provider: "binance",
			Code:     "API_ERROR",
			Message:  fmt.Sprintf("klines request failed: %v", err),
		}
	}

	bars := make([]model.Bar, 0, len(klines))
	for _, k := range klines {
		bar, err := klineToBar(k)
		if err != nil {
			return nil, &ProviderError{
				Provider: "binance",
				Code:     "BAD_DATA",
				Message:  fmt.Sprintf("kline at %d: %v", k.OpenTime, err),
			}
		}
		bars = append(bars, bar)
	}

	series, err := model.NewSeries(bars)
	if err != nil {
		return nil, err
	}

	log.Printf("[Binance] Success: Received %d bars (symbol=%s, interval=%s)", series.Len(), symbol, interval)

	if cache != nil {
		cache.Set(cacheKey, series)
		log.Printf("[Binance] Cached response (symbol=%s)", symbol)
	}
	return series, nil
}

func klineToBar(k *binance.Kline) (model.Bar, error) {
	var bar model.Bar
	bar.Date = time.UnixMilli(k.OpenTime).UTC()
	for _, f := range []struct {
		raw string
		dst *float64
	}{
		{k.Open, &bar.Open},
		{k.High, &bar.High},
		{k.Low, &bar.Low},
		{k.Close, &bar.Close},
	} {
		v, err := strconv.ParseFloat(f.raw, 64)
		if err != nil {
			return bar, err
		}
		*f.dst = v
	}
	return bar, nil
}
