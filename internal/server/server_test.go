package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alfarreca/marketscan/internal/model"
)

type fakeTrigger struct {
	mu      sync.Mutex
	running bool
	calls   int
}

func (f *fakeTrigger) RunNow() error {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return nil
}

func (f *fakeTrigger) Running() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

func sampleReport() *model.ScanReport {
	rsi := 55.0
	return &model.ScanReport{
		ID:         "r-1",
		StartedAt:  time.Now().Add(-time.Minute),
		FinishedAt: time.Now(),
		Params:     model.ScanParams{Lookback: "1y", Workers: 5},
		Rows: []model.ResultRow{{
			Symbol:     model.Symbol{Ticker: "SAP", Exchange: "ETR"},
			Resolved:   "SAP.DE",
			Price:      182.5,
			Score:      60,
			Trend:      model.TrendMedium,
			Indicators: model.IndicatorSet{RSI14: &rsi},
		}},
	}
}

func newTestServer(trigger *fakeTrigger) *Server {
	return New(":0", trigger, zerolog.Nop())
}

func TestHealthz(t *testing.T) {
	s := newTestServer(&fakeTrigger{})
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestLatestBeforeFirstScan(t *testing.T) {
	s := newTestServer(&fakeTrigger{})
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/scan/latest", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLatestReturnsReport(t *testing.T) {
	s := newTestServer(&fakeTrigger{})
	s.SetReport(sampleReport())

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/scan/latest", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got model.ScanReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "r-1", got.ID)
	require.Len(t, got.Rows, 1)
	assert.Equal(t, "SAP.DE", got.Rows[0].Resolved)
	require.NotNil(t, got.Rows[0].Indicators.RSI14)
	assert.InDelta(t, 55.0, *got.Rows[0].Indicators.RSI14, 1e-9)
	assert.Nil(t, got.Rows[0].Indicators.EMA200)
}

func TestLatestCSVDownload(t *testing.T) {
	s := newTestServer(&fakeTrigger{})
	s.SetReport(sampleReport())

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/scan/latest.csv", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "scan-r-1.csv")
	assert.Contains(t, rec.Body.String(), "SAP.DE")
}

func TestRunTriggersScan(t *testing.T) {
	trigger := &fakeTrigger{}
	s := newTestServer(trigger)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/scan/run", nil))
	assert.Equal(t, http.StatusAccepted, rec.Code)

	assert.Eventually(t, func() bool {
		trigger.mu.Lock()
		defer trigger.mu.Unlock()
		return trigger.calls == 1
	}, time.Second, 10*time.Millisecond)
}

func TestRunConflictsWhileScanning(t *testing.T) {
	trigger := &fakeTrigger{running: true}
	s := newTestServer(trigger)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/scan/run", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)

	trigger.mu.Lock()
	calls := trigger.calls
	trigger.mu.Unlock()
	assert.Zero(t, calls)
}
