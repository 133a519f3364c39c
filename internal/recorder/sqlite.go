package recorder

import (
	"database/sql"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/alfarreca/marketscan/internal/model"
)

// SQLiteRecorder appends scan history to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log zerolog.Logger
}

// NewSQLiteRecorder opens (or creates) the database and runs migrations.
func NewSQLiteRecorder(dbPath string, logger zerolog.Logger) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so dashboards can read while a scan is being written.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{
		db:  db,
		log: logger.With().Str("component", "recorder").Logger(),
	}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS scans (
			id          TEXT PRIMARY KEY,
			started_at  INTEGER NOT NULL,
			finished_at INTEGER NOT NULL,
			lookback    TEXT,
			benchmark   TEXT,
			workers     INTEGER,
			row_count   INTEGER,
			fail_count  INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scans_started ON scans(started_at)`,

		`CREATE TABLE IF NOT EXISTS scan_results (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			scan_id          TEXT NOT NULL REFERENCES scans(id),
			ticker           TEXT NOT NULL,
			exchange         TEXT,
			resolved         TEXT NOT NULL,
			name             TEXT,
			sector           TEXT,
			price            REAL,
			score            REAL,
			trend            TEXT,
			ema20            REAL,
			ema50            REAL,
			ema200           REAL,
			rsi14            REAL,
			macd             REAL,
			macd_signal      REAL,
			macd_histogram   REAL,
			adx14            REAL,
			plus_di          REAL,
			minus_di         REAL,
			volume_ratio     REAL,
			return_1m        REAL,
			return_3m        REAL,
			return_6m        REAL,
			volatility       REAL,
			rel_strength     REAL,
			intrinsic_value  REAL,
			margin_of_safety REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_results_scan ON scan_results(scan_id)`,

		`CREATE TABLE IF NOT EXISTS scan_failures (
			id       INTEGER PRIMARY KEY AUTOINCREMENT,
			scan_id  TEXT NOT NULL REFERENCES scans(id),
			ticker   TEXT NOT NULL,
			exchange TEXT,
			resolved TEXT,
			stage    TEXT,
			error    TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_failures_scan ON scan_failures(scan_id)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordScan writes the report summary plus one row per result and failure,
// in a single transaction.
func (r *SQLiteRecorder) RecordScan(report *model.ScanReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO scans
		(id, started_at, finished_at, lookback, benchmark, workers, row_count, fail_count)
		VALUES (?,?,?,?,?,?,?,?)`,
		report.ID, report.StartedAt.Unix(), report.FinishedAt.Unix(),
		report.Params.Lookback, report.Params.Benchmark, report.Params.Workers,
		len(report.Rows), len(report.Failures),
	)
	if err != nil {
		return fmt.Errorf("insert scan: %w", err)
	}

	resStmt, err := tx.Prepare(`INSERT INTO scan_results
		(scan_id, ticker, exchange, resolved, name, sector, price, score, trend,
		 ema20, ema50, ema200, rsi14, macd, macd_signal, macd_histogram,
		 adx14, plus_di, minus_di, volume_ratio,
		 return_1m, return_3m, return_6m, volatility, rel_strength,
		 intrinsic_value, margin_of_safety)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare results: %w", err)
	}
	defer resStmt.Close()

	for _, row := range report.Rows {
		ind := row.Indicators
		var intrinsic, margin *float64
		if row.Valuation != nil {
			intrinsic = &row.Valuation.IntrinsicValue
			margin = &row.Valuation.MarginOfSafety
		}
		_, err = resStmt.Exec(
			report.ID, row.Symbol.Ticker, row.Symbol.Exchange, row.Resolved,
			row.Name, row.Sector, row.Price, row.Score, string(row.Trend),
			nullable(ind.EMA20), nullable(ind.EMA50), nullable(ind.EMA200), nullable(ind.RSI14),
			nullable(ind.MACD), nullable(ind.MACDSignal), nullable(ind.MACDHistogram),
			nullable(ind.ADX14), nullable(ind.PlusDI), nullable(ind.MinusDI), nullable(ind.VolumeRatio),
			nullable(ind.Return1M), nullable(ind.Return3M), nullable(ind.Return6M),
			nullable(ind.Volatility), nullable(ind.RelStrength),
			nullable(intrinsic), nullable(margin),
		)
		if err != nil {
			return fmt.Errorf("insert result %s: %w", row.Resolved, err)
		}
	}

	failStmt, err := tx.Prepare(`INSERT INTO scan_failures
		(scan_id, ticker, exchange, resolved, stage, error)
		VALUES (?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare failures: %w", err)
	}
	defer failStmt.Close()

	for _, f := range report.Failures {
		_, err = failStmt.Exec(report.ID, f.Symbol.Ticker, f.Symbol.Exchange, f.Resolved, string(f.Stage), f.Err)
		if err != nil {
			return fmt.Errorf("insert failure %s: %w", f.Symbol.Ticker, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	r.log.Debug().Str("scan_id", report.ID).Int("rows", len(report.Rows)).Msg("scan recorded")
	return nil
}

// nullable maps a missing indicator to SQL NULL instead of 0.
func nullable(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
