package collector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chartBody = `{"chart":{"result":[{"timestamp":[1704153600,1704240000,1704326400],
"indicators":{"quote":[{"open":[10,11,null],"high":[10.5,11.5,null],
"low":[9.5,10.5,null],"close":[10.2,11.2,null],"volume":[1000,2000,null]}]}}],"error":null}}`

const summaryBody = `{"quoteSummary":{"result":[{
"price":{"longName":"Test Corp"},
"summaryProfile":{"sector":"Technology"},
"defaultKeyStatistics":{"sharesOutstanding":{"raw":5000000}},
"financialData":{"freeCashflow":{"raw":1200000}},
"summaryDetail":{"marketCap":{"raw":90000000},"averageVolume":{"raw":150000}}}],"error":null}}`

func fastRetry() RetryPolicy {
	return RetryPolicy{Attempts: 3, BaseDelay: time.Millisecond, MaxDelay: 4 * time.Millisecond}
}

func TestFetchHistoryParsesChart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chartBody))
	}))
	defer srv.Close()

	f := NewYahooFetcher(WithBaseURL(srv.URL), WithRetryPolicy(fastRetry()))
	series, err := f.FetchHistory(context.Background(), "TEST", "6mo")
	require.NoError(t, err)

	// Null bar is skipped, remaining bars chronological.
	require.Len(t, series.Bars, 2)
	assert.Equal(t, 10.2, series.Bars[0].Close)
	assert.Equal(t, 11.2, series.Bars[1].Close)
	assert.True(t, series.Bars[1].Time.After(series.Bars[0].Time))
}

func TestFetchInfoMissingFieldsStayNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"quoteSummary":{"result":[{"summaryProfile":{"sector":"Energy"}}],"error":null}}`))
	}))
	defer srv.Close()

	f := NewYahooFetcher(WithBaseURL(srv.URL), WithRetryPolicy(fastRetry()))
	info, err := f.FetchInfo(context.Background(), "TEST")
	require.NoError(t, err)
	assert.Equal(t, "Energy", info.Sector)
	assert.Nil(t, info.SharesOutstanding)
	assert.Nil(t, info.FreeCashFlow)
	assert.Nil(t, info.MarketCap)
}

func TestFetchInfoParsesSummary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(summaryBody))
	}))
	defer srv.Close()

	f := NewYahooFetcher(WithBaseURL(srv.URL), WithRetryPolicy(fastRetry()))
	info, err := f.FetchInfo(context.Background(), "TEST")
	require.NoError(t, err)
	assert.Equal(t, "Test Corp", info.Name)
	require.NotNil(t, info.SharesOutstanding)
	assert.Equal(t, 5_000_000.0, *info.SharesOutstanding)
	require.NotNil(t, info.FreeCashFlow)
	assert.Equal(t, 1_200_000.0, *info.FreeCashFlow)
}

func TestRetryOnServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(chartBody))
	}))
	defer srv.Close()

	f := NewYahooFetcher(WithBaseURL(srv.URL), WithRetryPolicy(fastRetry()))
	_, err := f.FetchHistory(context.Background(), "TEST", "6mo")
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestNoRetryOnNotFound(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewYahooFetcher(WithBaseURL(srv.URL), WithRetryPolicy(fastRetry()))
	_, err := f.FetchHistory(context.Background(), "MISSING", "6mo")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load(), "4xx must not retry")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestRetriesExhaust(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f := NewYahooFetcher(WithBaseURL(srv.URL), WithRetryPolicy(fastRetry()))
	_, err := f.FetchHistory(context.Background(), "TEST", "6mo")
	require.Error(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestEmptyChartIsNoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":[],"error":null}}`))
	}))
	defer srv.Close()

	f := NewYahooFetcher(WithBaseURL(srv.URL), WithRetryPolicy(fastRetry()))
	_, err := f.FetchHistory(context.Background(), "TEST", "6mo")
	require.ErrorIs(t, err, ErrNoData)
}

func TestWithRetryRespectsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := withRetry(ctx, zerolog.Nop(), RetryPolicy{Attempts: 5, BaseDelay: time.Second, MaxDelay: time.Second}, func() error {
		calls++
		return &APIError{StatusCode: 503}
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls, "cancelled context must stop the loop at the first backoff")
}
