// Package scanner orchestrates one scan batch: universe load, per-symbol
// fetch/compute/score across a bounded worker pool, and report assembly.
// Symbols are fully independent; a failed symbol never affects another.
package scanner

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/alfarreca/marketscan/internal/cache"
	"github.com/alfarreca/marketscan/internal/calculator"
	"github.com/alfarreca/marketscan/internal/collector"
	"github.com/alfarreca/marketscan/internal/model"
	"github.com/alfarreca/marketscan/internal/strategy"
	"github.com/alfarreca/marketscan/internal/symbols"
	"github.com/alfarreca/marketscan/internal/valuation"
)

const defaultWorkers = 5

// ValuationParams enables DCF valuation for rows whose info snapshot
// carries free cash flow and shares outstanding.
type ValuationParams struct {
	GrowthRate     float64
	DiscountRate   float64
	TerminalGrowth float64
	GrowthYears    int
}

// Config holds one scan's parameters.
type Config struct {
	Lookback    string
	Workers     int
	Benchmark   string
	RSWindows   []int
	ScanTimeout time.Duration
	Valuation   *ValuationParams
}

// Scanner runs scan batches against a fetcher, through the cache, with one
// scoring engine.
type Scanner struct {
	fetcher collector.Fetcher
	store   *cache.Store
	engine  *strategy.Engine
	cfg     Config
	log     zerolog.Logger
}

func New(fetcher collector.Fetcher, store *cache.Store, engine *strategy.Engine, cfg Config, log zerolog.Logger) *Scanner {
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if cfg.Lookback == "" {
		cfg.Lookback = "1y"
	}
	return &Scanner{
		fetcher: fetcher,
		store:   store,
		engine:  engine,
		cfg:     cfg,
		log:     log.With().Str("component", "scanner").Logger(),
	}
}

// Scan runs one batch. A source load failure aborts with an error; every
// per-symbol failure lands in the report's failure list instead.
func (s *Scanner) Scan(ctx context.Context, source symbols.Source) (*model.ScanReport, error) {
	universe, err := source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load universe from %s source: %w", source.Name(), err)
	}

	if s.cfg.ScanTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.ScanTimeout)
		defer cancel()
	}

	report := &model.ScanReport{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
		Params: model.ScanParams{
			Lookback:  s.cfg.Lookback,
			Benchmark: s.cfg.Benchmark,
			Workers:   s.cfg.Workers,
		},
	}

	benchCloses := s.benchmarkCloses(ctx)

	jobs := make(chan model.Symbol)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < s.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sym := range jobs {
				row, failure := s.processSymbol(ctx, sym, benchCloses)
				mu.Lock()
				if failure != nil {
					report.Failures = append(report.Failures, *failure)
				} else {
					report.Rows = append(report.Rows, *row)
				}
				mu.Unlock()
			}
		}()
	}

feed:
	for i, sym := range universe {
		select {
		case jobs <- sym:
		case <-ctx.Done():
			// Deadline hit: everything not yet started fails with the
			// deadline error, already-running workers finish their symbol.
			mu.Lock()
			for _, rest := range universe[i:] {
				report.Failures = append(report.Failures, model.FailureRecord{
					Symbol: rest, Stage: model.StageFetch, Err: ctx.Err().Error(),
				})
			}
			mu.Unlock()
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	sort.Slice(report.Rows, func(i, j int) bool {
		if report.Rows[i].Score != report.Rows[j].Score {
			return report.Rows[i].Score > report.Rows[j].Score
		}
		return report.Rows[i].Resolved < report.Rows[j].Resolved
	})

	report.FinishedAt = time.Now()
	s.log.Info().
		Str("scan_id", report.ID).
		Int("symbols", len(universe)).
		Int("rows", len(report.Rows)).
		Int("failures", len(report.Failures)).
		Dur("elapsed", report.FinishedAt.Sub(report.StartedAt)).
		Msg("scan finished")
	return report, nil
}

// benchmarkCloses fetches the benchmark series once per scan. A missing
// benchmark disables relative strength but never fails the scan.
func (s *Scanner) benchmarkCloses(ctx context.Context) []float64 {
	if s.cfg.Benchmark == "" || len(s.cfg.RSWindows) == 0 {
		return nil
	}
	series, err := s.fetchSeries(ctx, s.cfg.Benchmark)
	if err != nil {
		s.log.Warn().Err(err).Str("benchmark", s.cfg.Benchmark).Msg("benchmark fetch failed, relative strength disabled for this scan")
		return nil
	}
	closes := make([]float64, len(series.Bars))
	for i, b := range series.Bars {
		closes[i] = b.Close
	}
	return closes
}

func (s *Scanner) processSymbol(ctx context.Context, sym model.Symbol, benchCloses []float64) (*model.ResultRow, *model.FailureRecord) {
	resolved, known := symbols.Resolve(sym.Ticker, sym.Exchange)
	if resolved == "" {
		return nil, &model.FailureRecord{Symbol: sym, Stage: model.StageResolve, Err: "empty ticker"}
	}
	if !known {
		s.log.Debug().Str("symbol", sym.String()).Msg("unmapped exchange, using bare ticker")
	}

	series, err := s.fetchSeries(ctx, resolved)
	if err != nil {
		return nil, &model.FailureRecord{Symbol: sym, Resolved: resolved, Stage: model.StageFetch, Err: err.Error()}
	}
	if err := series.Validate(); err != nil {
		return nil, &model.FailureRecord{Symbol: sym, Resolved: resolved, Stage: model.StageValidate, Err: err.Error()}
	}

	ind := calculator.Compute(series)
	if benchCloses != nil {
		closes := make([]float64, len(series.Bars))
		for i, b := range series.Bars {
			closes[i] = b.Close
		}
		ind.RelStrength = calculator.RelativeStrength(closes, benchCloses, s.cfg.RSWindows)
	}

	price := series.Bars[len(series.Bars)-1].Close
	assessment := s.engine.Evaluate(price, &ind)

	row := &model.ResultRow{
		Symbol:     sym,
		Resolved:   resolved,
		Price:      price,
		Indicators: ind,
		Score:      assessment.Score,
		Trend:      assessment.Trend,
	}

	// Info is best-effort: a missing snapshot costs the optional columns,
	// not the row.
	info, err := s.fetchInfo(ctx, resolved)
	if err != nil {
		s.log.Debug().Err(err).Str("symbol", resolved).Msg("info fetch failed")
	} else {
		row.Name = info.Name
		row.Sector = info.Sector
		row.Valuation = s.valueRow(price, info)
	}

	return row, nil
}

// valueRow computes the DCF columns when enabled and the snapshot carries
// fundamentals. Invalid configurations were rejected at config load, so an
// error here only means this symbol's numbers don't support a valuation.
func (s *Scanner) valueRow(price float64, info *model.InfoSnapshot) *model.Valuation {
	p := s.cfg.Valuation
	if p == nil || info.FreeCashFlow == nil || info.SharesOutstanding == nil {
		return nil
	}
	intrinsic, err := valuation.IntrinsicValue(valuation.Inputs{
		FreeCashFlow:      *info.FreeCashFlow,
		GrowthRate:        p.GrowthRate,
		DiscountRate:      p.DiscountRate,
		TerminalGrowth:    p.TerminalGrowth,
		GrowthYears:       p.GrowthYears,
		SharesOutstanding: *info.SharesOutstanding,
	})
	if err != nil {
		s.log.Debug().Err(err).Msg("valuation skipped")
		return nil
	}
	margin, err := valuation.MarginOfSafety(intrinsic, price)
	if err != nil {
		return nil
	}
	return &model.Valuation{IntrinsicValue: intrinsic, MarginOfSafety: margin}
}

func (s *Scanner) fetchSeries(ctx context.Context, resolved string) (*model.PriceSeries, error) {
	if series, ok := s.store.GetSeries(resolved, s.cfg.Lookback); ok {
		return series, nil
	}
	series, err := s.fetcher.FetchHistory(ctx, resolved, s.cfg.Lookback)
	if err != nil {
		return nil, err
	}
	s.store.PutSeries(resolved, s.cfg.Lookback, series)
	return series, nil
}

func (s *Scanner) fetchInfo(ctx context.Context, resolved string) (*model.InfoSnapshot, error) {
	if info, ok := s.store.GetInfo(resolved); ok {
		return info, nil
	}
	info, err := s.fetcher.FetchInfo(ctx, resolved)
	if err != nil {
		return nil, err
	}
	s.store.PutInfo(resolved, info)
	return info, nil
}
