package model

import "time"

// Trend is the coarse label derived from the momentum score.
type Trend string

const (
	TrendStrong  Trend = "Strong"
	TrendMedium  Trend = "Medium"
	TrendWeak    Trend = "Weak"
	TrendNeutral Trend = "Neutral"
)

// Valuation is the optional DCF output attached to a row when the provider
// reported free cash flow and shares outstanding.
type Valuation struct {
	IntrinsicValue float64 `json:"intrinsic_value"`
	// MarginOfSafety is (intrinsic - price) / intrinsic, in percent.
	MarginOfSafety float64 `json:"margin_of_safety"`
}

// ResultRow is one scanned symbol's outcome, surfaced to the presentation
// layer (CSV export, HTTP API, SQLite history).
type ResultRow struct {
	Symbol     Symbol       `json:"symbol"`
	Resolved   string       `json:"resolved"`
	Name       string       `json:"name,omitempty"`
	Sector     string       `json:"sector,omitempty"`
	Price      float64      `json:"price"`
	Indicators IndicatorSet `json:"indicators"`
	Score      float64      `json:"score"`
	Trend      Trend        `json:"trend"`
	Valuation  *Valuation   `json:"valuation,omitempty"`
}

// FailureStage names the pipeline stage where a symbol failed.
type FailureStage string

const (
	StageResolve  FailureStage = "resolve"
	StageFetch    FailureStage = "fetch"
	StageValidate FailureStage = "validate"
)

// FailureRecord captures a per-symbol failure. Failures never abort the
// batch; they are tallied for operator visibility.
type FailureRecord struct {
	Symbol   Symbol       `json:"symbol"`
	Resolved string       `json:"resolved"`
	Stage    FailureStage `json:"stage"`
	Err      string       `json:"error"`
}

// ScanParams records the inputs a report was produced with.
type ScanParams struct {
	Lookback  string `json:"lookback"`
	Benchmark string `json:"benchmark,omitempty"`
	Workers   int    `json:"workers"`
}

// ScanReport is the output of one scan batch: rows sorted by score
// descending plus the failure list. Replaced wholesale on the next scan.
type ScanReport struct {
	ID         string          `json:"id"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Params     ScanParams      `json:"params"`
	Rows       []ResultRow     `json:"rows"`
	Failures   []FailureRecord `json:"failures"`
}
