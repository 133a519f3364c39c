package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/alfarreca/marketscan/internal/cache"
	"github.com/alfarreca/marketscan/internal/exporter"
	"github.com/alfarreca/marketscan/internal/model"
	"github.com/alfarreca/marketscan/internal/recorder"
	"github.com/alfarreca/marketscan/internal/scanner"
	"github.com/alfarreca/marketscan/internal/symbols"
)

// ErrScanRunning is returned by RunNow when a scan is already in flight.
var ErrScanRunning = errors.New("scan already running")

// Scheduler manages the cron jobs: the periodic scan and the cache sweep.
// At most one scan runs at any time, whether cron-triggered or manual.
type Scheduler struct {
	cron     *cron.Cron
	scanner  *scanner.Scanner
	source   symbols.Source
	recorder recorder.Recorder
	store    *cache.Store
	onReport func(*model.ScanReport)
	ctx      context.Context
	log      zerolog.Logger

	exportPath string
	running    atomic.Bool
}

// New creates a Scheduler. onReport is invoked with every finished report,
// after it has been recorded and exported; pass nil to skip. exportPath may
// be empty to disable the CSV export.
func New(ctx context.Context, sc *scanner.Scanner, source symbols.Source, rec recorder.Recorder,
	store *cache.Store, exportPath string, onReport func(*model.ScanReport), logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:       cron.New(),
		scanner:    sc,
		source:     source,
		recorder:   rec,
		store:      store,
		onReport:   onReport,
		ctx:        ctx,
		log:        logger.With().Str("component", "scheduler").Logger(),
		exportPath: exportPath,
	}
}

// Register adds the scan job and the cache sweep job. scanCron is a standard
// 5-field cron expression; the sweep runs hourly.
func (s *Scheduler) Register(scanCron string) error {
	if _, err := s.cron.AddFunc(scanCron, func() {
		if err := s.RunNow(); err != nil {
			s.log.Warn().Err(err).Msg("scheduled scan skipped")
		}
	}); err != nil {
		return fmt.Errorf("register scan job: %w", err)
	}
	if _, err := s.cron.AddFunc("@hourly", func() {
		if dropped := s.store.Sweep(); dropped > 0 {
			s.log.Debug().Int("dropped", dropped).Msg("cache swept")
		}
	}); err != nil {
		return fmt.Errorf("register sweep job: %w", err)
	}
	return nil
}

// Start starts the cron loop.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("scheduler started")
}

// Stop stops the cron loop and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("scheduler stopped")
}

// Running reports whether a scan is currently in flight.
func (s *Scheduler) Running() bool {
	return s.running.Load()
}

// RunNow executes a scan synchronously. Returns ErrScanRunning if one is
// already in flight.
func (s *Scheduler) RunNow() error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrScanRunning
	}
	defer s.running.Store(false)

	report, err := s.scanner.Scan(s.ctx, s.source)
	if err != nil {
		s.log.Error().Err(err).Msg("scan failed")
		return err
	}

	if err := s.recorder.RecordScan(report); err != nil {
		s.log.Error().Err(err).Msg("record scan")
	}
	if s.exportPath != "" {
		if err := exporter.WriteFile(s.exportPath, report.Rows); err != nil {
			s.log.Error().Err(err).Str("path", s.exportPath).Msg("export scan")
		}
	}
	if s.onReport != nil {
		s.onReport(report)
	}
	return nil
}
