package data

import (
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"equity-backtest/internal/model"
)

// StooqClient fetches daily OHLC history from the Stooq CSV endpoint.
type StooqClient struct {
	BaseURL string
	Client  *http.Client
}

// NewStooqClient creates a Stooq client. If baseURL is empty, defaults to
// "https://stooq.com".
func NewStooqClient(baseURL string) *StooqClient {
	if baseURL == "" {
		baseURL = "https://stooq.com"
	}
	return &StooqClient{
		BaseURL: baseURL,
		Client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Daily fetches the daily bar history for symbol over [start, end].
//
// WARNING: If caching is enabled (ENABLE_PRICE_CACHE=true), responses may be
// cached. Caching is ONLY for LOCAL DEVELOPMENT; check Stooq's terms before
// enabling it anywhere else.
func (c *StooqClient) Daily(symbol string, start, end time.Time) (*model.Series, error) {
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	if start.IsZero() || end.IsZero() {
		return nil, fmt.Errorf("start and end are required")
	}
	if start.After(end) {
		return nil, fmt.Errorf("start must be before end")
	}

	cache := GetCache()
	cacheKey := GenerateCacheKey("stooq", symbol, "d", start, end)
	if cache != nil {
		if cached, found := cache.Get(cacheKey); found {
			log.Printf("[Stooq] Cache hit: %d bars (symbol=%s, start=%s, end=%s)",
				cached.Len(), symbol, start.Format("2006-01-02"), end.Format("2006-01-02"))
			return cached, nil
		}
	}

	u, err := url.Parse(c.BaseURL + "/q/d/l/")
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	q := u.Query()
	q.Set("s", symbol)
	q.Set("d1", start.Format("20060102"))
	q.Set("d2", end.Format("20060102"))
	q.Set("i", "d")
	u.RawQuery = q.Encode()

	log.Printf("[Stooq] Request: GET %s (symbol=%s, start=%s, end=%s)",
		u.Path, symbol, start.Format("2006-01-02"), end.Format("2006-01-02"))

	req, err := http.NewRequest("GET", u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/csv")

	startTime := time.Now()
	resp, err := c.Client.Do(req)
	duration := time.Since(startTime)
	if err != nil {
		log.Printf("[Stooq] Request failed: %v (duration: %v)", err, duration)
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	log.Printf("[Stooq] Response: %d %s (duration: %v, symbol=%s)",
		resp.StatusCode, resp.Status, duration, symbol)

	switch resp.StatusCode {
	case http.StatusOK:
		// Success, continue
	case http.StatusTooManyRequests:
		retryAfter := resp.Header.Get("Retry-After")
		log.Printf("[Stooq] Error: 429 Rate Limit Exceeded - Retry after: %s (symbol=%s)", retryAfter, symbol)
		return nil, &ProviderError{
			Provider:   "stooq",
			StatusCode: resp.StatusCode,
			Code:       "RATE_LIMIT_EXCEEDED",
			Message:    fmt.Sprintf("Rate limit exceeded. Retry after: %s", retryAfter),
			RetryAfter: retryAfter,
		}
	default:
		log.Printf("[Stooq] Error: %d %s (symbol=%s)", resp.StatusCode, resp.Status, symbol)
		return nil, &ProviderError{
			Provider:   "stooq",
			StatusCode: resp.StatusCode,
			Code:       "API_ERROR",
			Message:    fmt.Sprintf("API returned status %d: %s", resp.StatusCode, resp.Status),
		}
	}

	series, err := ReadCSV(resp.Body)
	if err != nil {
		// Stooq answers 200 with a plain-text message for unknown symbols.
		log.Printf("[Stooq] Error decoding response: %v (symbol=%s)", err, symbol)
		return nil, &ProviderError{
			Provider:   "stooq",
			StatusCode: resp.StatusCode,
			Code:       "NO_DATA",
			Message:    fmt.Sprintf("no usable data for %q: %v", symbol, err),
		}
	}

	log.Printf("[Stooq] Success: Received %d bars (symbol=%s)", series.Len(), symbol)

	if cache != nil {
		cache.Set(cacheKey, series)
		log.Printf("[Stooq] Cached response (symbol=%s)", symbol)
	}
	return series, nil
}

// DailyByString is a convenience method that parses "YYYY-MM-DD" dates.
func (c *StooqClient) DailyByString(symbol, startDate, endDate string) (*model.Series, error) {
	start, err := time.Parse("2006-01-02", startDate)
	if err != nil {
		return nil, fmt.Errorf("invalid start date (expected YYYY-MM-DD): %w", err)
	}
	end, err := time.Parse("2006-01-02", endDate)
	if err != nil {
		return nil, fmt.Errorf("invalid end date (expected YYYY-MM-DD): %w", err)
	}
	return c.Daily(symbol, start, end)
}
