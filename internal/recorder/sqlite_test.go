package recorder

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alfarreca/marketscan/internal/model"
)

func testReport() *model.ScanReport {
	rsi := 62.5
	return &model.ScanReport{
		ID:         "scan-1",
		StartedAt:  time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
		FinishedAt: time.Date(2024, 3, 1, 9, 2, 0, 0, time.UTC),
		Params:     model.ScanParams{Lookback: "1y", Benchmark: "SPY", Workers: 5},
		Rows: []model.ResultRow{
			{
				Symbol:     model.Symbol{Ticker: "AAPL", Exchange: "NASDAQ"},
				Resolved:   "AAPL",
				Name:       "Apple Inc.",
				Price:      190.5,
				Score:      75,
				Trend:      model.TrendStrong,
				Indicators: model.IndicatorSet{RSI14: &rsi},
				Valuation:  &model.Valuation{IntrinsicValue: 210, MarginOfSafety: 9.3},
			},
			{
				Symbol:   model.Symbol{Ticker: "NEWCO", Exchange: ""},
				Resolved: "NEWCO",
				Price:    5.1,
				Score:    0,
				Trend:    model.TrendNeutral,
			},
		},
		Failures: []model.FailureRecord{
			{Symbol: model.Symbol{Ticker: "BAD"}, Resolved: "BAD", Stage: model.StageFetch, Err: "status 404"},
		},
	}
}

func TestRecordScanPersistsAllTables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.db")
	rec, err := NewSQLiteRecorder(path, zerolog.Nop())
	require.NoError(t, err)
	defer rec.Close()

	require.NoError(t, rec.RecordScan(testReport()))

	var rowCount, failCount int
	require.NoError(t, rec.db.QueryRow(
		`SELECT row_count, fail_count FROM scans WHERE id = ?`, "scan-1",
	).Scan(&rowCount, &failCount))
	assert.Equal(t, 2, rowCount)
	assert.Equal(t, 1, failCount)

	var n int
	require.NoError(t, rec.db.QueryRow(`SELECT COUNT(*) FROM scan_results WHERE scan_id = ?`, "scan-1").Scan(&n))
	assert.Equal(t, 2, n)

	// nil indicators land as NULL, not zero
	var ema20 *float64
	var rsi *float64
	require.NoError(t, rec.db.QueryRow(
		`SELECT ema20, rsi14 FROM scan_results WHERE ticker = ?`, "AAPL",
	).Scan(&ema20, &rsi))
	assert.Nil(t, ema20)
	require.NotNil(t, rsi)
	assert.InDelta(t, 62.5, *rsi, 1e-9)

	var stage, errMsg string
	require.NoError(t, rec.db.QueryRow(
		`SELECT stage, error FROM scan_failures WHERE scan_id = ?`, "scan-1",
	).Scan(&stage, &errMsg))
	assert.Equal(t, "fetch", stage)
	assert.Equal(t, "status 404", errMsg)
}

func TestRecordScanIsAppendOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.db")
	rec, err := NewSQLiteRecorder(path, zerolog.Nop())
	require.NoError(t, err)
	defer rec.Close()

	first := testReport()
	require.NoError(t, rec.RecordScan(first))

	second := testReport()
	second.ID = "scan-2"
	require.NoError(t, rec.RecordScan(second))

	var n int
	require.NoError(t, rec.db.QueryRow(`SELECT COUNT(*) FROM scans`).Scan(&n))
	assert.Equal(t, 2, n)
}

func TestNoopRecorder(t *testing.T) {
	n := NewNoopRecorder()
	assert.NoError(t, n.RecordScan(testReport()))
	assert.NoError(t, n.Close())
}
