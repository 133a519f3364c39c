// Package collector fetches market data from the upstream provider.
package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/alfarreca/marketscan/internal/model"
)

// Fetcher is the provider capability the scanner depends on: historical
// OHLCV over a lookback period and a static info snapshot. Any provider
// exposing these two operations with the same missing-field semantics is
// substitutable.
type Fetcher interface {
	FetchHistory(ctx context.Context, symbol, lookback string) (*model.PriceSeries, error)
	FetchInfo(ctx context.Context, symbol string) (*model.InfoSnapshot, error)
	Name() string
}

// ErrNoData means the provider answered but carried no usable observations.
// Not retryable.
var ErrNoData = errors.New("no data returned")

// APIError is a non-2xx provider response.
type APIError struct {
	StatusCode int
	Endpoint   string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("provider: status %d on %s", e.StatusCode, e.Endpoint)
}

// Retryable reports whether the failure is worth another attempt:
// rate limiting and server-side errors are, other client errors are not.
func (e *APIError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// retryable classifies an error for the backoff loop. Transport errors and
// timeouts retry; context cancellation and permanent API errors do not.
func retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrNoData) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	return true
}
