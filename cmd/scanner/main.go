package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/alfarreca/marketscan/internal/cache"
	"github.com/alfarreca/marketscan/internal/collector"
	"github.com/alfarreca/marketscan/internal/config"
	"github.com/alfarreca/marketscan/internal/logger"
	"github.com/alfarreca/marketscan/internal/model"
	"github.com/alfarreca/marketscan/internal/recorder"
	"github.com/alfarreca/marketscan/internal/scanner"
	"github.com/alfarreca/marketscan/internal/scheduler"
	"github.com/alfarreca/marketscan/internal/server"
	"github.com/alfarreca/marketscan/internal/strategy"
	"github.com/alfarreca/marketscan/internal/symbols"
)

func main() {
	// .env is optional; real env always wins
	_ = godotenv.Load()

	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fallback := logger.New(logger.Config{})
		fallback.Fatal().Err(err).Msg("load config")
	}

	log := logger.New(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
	log.Info().Str("config", cfgPath).Msg("marketscan starting")

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}

	// Fetcher
	var fetcher collector.Fetcher
	switch cfg.Fetch.Provider {
	case "mock":
		fetcher = collector.NewMockFetcher()
	default:
		opts := []collector.Option{
			collector.WithRateLimit(int(cfg.Fetch.RatePerSecond)),
			collector.WithRequestTimeout(cfg.Fetch.RequestTimeout.Std()),
			collector.WithRetryPolicy(collector.RetryPolicy{
				Attempts:  cfg.Fetch.Retries,
				BaseDelay: cfg.Fetch.RetryBaseDelay.Std(),
				MaxDelay:  cfg.Fetch.RetryMaxDelay.Std(),
			}),
			collector.WithLogger(log),
		}
		if cfg.Fetch.BaseURL != "" {
			opts = append(opts, collector.WithBaseURL(cfg.Fetch.BaseURL))
		}
		fetcher = collector.NewYahooFetcher(opts...)
	}
	log.Info().Str("provider", fetcher.Name()).Msg("fetcher ready")

	// Symbol universe
	var source symbols.Source
	switch cfg.Universe.Source {
	case "file":
		source = &symbols.FileSource{Path: cfg.Universe.FilePath}
	case "sheet":
		source = symbols.NewSheetSource(cfg.Universe.SheetURL, log)
	default:
		list := make([]model.Symbol, 0, len(cfg.Universe.Symbols))
		for _, s := range cfg.Universe.Symbols {
			list = append(list, model.Symbol{Ticker: s.Ticker, Exchange: s.Exchange})
		}
		source = &symbols.StaticSource{Symbols: list}
	}
	log.Info().Str("source", source.Name()).Msg("symbol source ready")

	store := cache.New(cfg.Fetch.HistoryTTL.Std(), cfg.Fetch.InfoTTL.Std())
	engine := strategy.NewEngine(cfg.Score.Weights)

	scanCfg := scanner.Config{
		Lookback:    cfg.Fetch.Lookback,
		Workers:     cfg.Fetch.Workers,
		Benchmark:   cfg.Universe.Benchmark,
		RSWindows:   cfg.Score.RSWindows,
		ScanTimeout: cfg.Fetch.ScanTimeout.Std(),
	}
	if cfg.Valuation.Enabled {
		scanCfg.Valuation = &scanner.ValuationParams{
			GrowthRate:     cfg.Valuation.GrowthRate,
			DiscountRate:   cfg.Valuation.DiscountRate,
			TerminalGrowth: cfg.Valuation.TerminalGrowth,
			GrowthYears:    cfg.Valuation.Years,
		}
	}
	sc := scanner.New(fetcher, store, engine, scanCfg, log)

	// Recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, log)
		if err != nil {
			log.Warn().Err(err).Msg("sqlite recorder unavailable, using noop")
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The HTTP server receives each finished report. It must exist before
	// the scheduler starts so scan goroutines never observe a half-wired
	// callback; the nil guard only covers the disabled case.
	var srv *server.Server
	onReport := func(r *model.ScanReport) {
		if srv != nil {
			srv.SetReport(r)
		}
	}

	sched := scheduler.New(ctx, sc, source, rec, store, cfg.Export.CSVPath, onReport, log)
	if err := sched.Register(cfg.Schedule.ScanCron); err != nil {
		log.Fatal().Err(err).Msg("register cron jobs")
	}

	if cfg.Server.Enabled {
		srv = server.New(cfg.Server.Addr, sched, log)
		go func() {
			if err := srv.Start(); err != nil {
				log.Error().Err(err).Msg("http server stopped")
			}
		}()
		defer srv.Stop(context.Background())
	}

	sched.Start()
	defer sched.Stop()

	if cfg.Schedule.RunOnStart || os.Getenv("RUN_ON_START") == "true" {
		log.Info().Msg("running initial scan")
		go func() {
			if err := sched.RunNow(); err != nil {
				log.Error().Err(err).Msg("initial scan")
			}
		}()
	}

	log.Info().Msg("marketscan is running")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutdown signal received, stopping")
	cancel()
}
