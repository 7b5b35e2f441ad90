// Package data loads daily OHLC price series from local CSV files or remote
// providers (Stooq, Binance). All providers return a validated *model.Series.
package data

// ProviderError represents an error from a remote price provider.
type ProviderError struct {
	Provider   string
	StatusCode int
	Code       string
	Message    string
	RetryAfter string // for rate limit errors
}

func (e *ProviderError) Error() string {
	return e.Message
}
