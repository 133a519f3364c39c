package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/alfarreca/marketscan/internal/strategy"
)

// Config holds all application configuration.
type Config struct {
	Universe struct {
		Source    string   `yaml:"source"` // "static", "file" or "sheet"
		Symbols   []Symbol `yaml:"symbols"`
		FilePath  string   `yaml:"file_path"`
		SheetURL  string   `yaml:"sheet_url"`
		Benchmark string   `yaml:"benchmark"`
	} `yaml:"universe"`

	Fetch struct {
		Provider       string        `yaml:"provider"` // "yahoo" or "mock"
		BaseURL        string        `yaml:"base_url"`
		Lookback       string        `yaml:"lookback"`
		Workers        int           `yaml:"workers"`
		Retries        int           `yaml:"retries"`
		RetryBaseDelay Duration      `yaml:"retry_base_delay"`
		RetryMaxDelay  Duration      `yaml:"retry_max_delay"`
		RequestTimeout Duration      `yaml:"request_timeout"`
		ScanTimeout    Duration      `yaml:"scan_timeout"`
		RatePerSecond  float64       `yaml:"rate_per_second"`
		HistoryTTL     Duration      `yaml:"history_ttl"`
		InfoTTL        Duration      `yaml:"info_ttl"`
	} `yaml:"fetch"`

	Score struct {
		Weights   strategy.Weights `yaml:"weights"`
		RSWindows []int            `yaml:"rs_windows"`
	} `yaml:"score"`

	Valuation struct {
		Enabled        bool    `yaml:"enabled"`
		DiscountRate   float64 `yaml:"discount_rate"`
		GrowthRate     float64 `yaml:"growth_rate"`
		TerminalGrowth float64 `yaml:"terminal_growth"`
		Years          int     `yaml:"years"`
	} `yaml:"valuation"`

	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`

	Schedule struct {
		ScanCron   string `yaml:"scan_cron"`
		RunOnStart bool   `yaml:"run_on_start"`
	} `yaml:"schedule"`

	Export struct {
		CSVPath string `yaml:"csv_path"`
	} `yaml:"export"`

	Server struct {
		Enabled bool   `yaml:"enabled"`
		Addr    string `yaml:"addr"`
	} `yaml:"server"`

	Log struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"log"`
}

// Symbol is the YAML shape of one universe entry.
type Symbol struct {
	Ticker   string `yaml:"ticker"`
	Exchange string `yaml:"exchange"`
}

// Duration parses YAML strings like "500ms" or "10m".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. A missing file is not an error; defaults apply.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("SHEET_URL"); v != "" {
		cfg.Universe.SheetURL = v
		cfg.Universe.Source = "sheet"
	}
	if v := os.Getenv("SYMBOL_FILE"); v != "" {
		cfg.Universe.FilePath = v
		cfg.Universe.Source = "file"
	}
	if v := os.Getenv("BENCHMARK"); v != "" {
		cfg.Universe.Benchmark = v
	}
	if v := os.Getenv("YAHOO_BASE_URL"); v != "" {
		cfg.Fetch.BaseURL = v
	}
	if v := os.Getenv("FETCH_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Fetch.Workers = n
		}
	}
	if v := os.Getenv("SCAN_CRON"); v != "" {
		cfg.Schedule.ScanCron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("EXPORT_CSV_PATH"); v != "" {
		cfg.Export.CSVPath = v
	}
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
		cfg.Server.Enabled = true
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}

	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Universe.Source == "" {
		cfg.Universe.Source = "static"
	}
	if cfg.Fetch.Provider == "" {
		cfg.Fetch.Provider = "yahoo"
	}
	if cfg.Fetch.Lookback == "" {
		cfg.Fetch.Lookback = "1y"
	}
	if cfg.Fetch.Workers == 0 {
		cfg.Fetch.Workers = 5
	}
	if cfg.Fetch.Retries == 0 {
		cfg.Fetch.Retries = 3
	}
	if cfg.Fetch.RetryBaseDelay == 0 {
		cfg.Fetch.RetryBaseDelay = Duration(500 * time.Millisecond)
	}
	if cfg.Fetch.RetryMaxDelay == 0 {
		cfg.Fetch.RetryMaxDelay = Duration(8 * time.Second)
	}
	if cfg.Fetch.RequestTimeout == 0 {
		cfg.Fetch.RequestTimeout = Duration(10 * time.Second)
	}
	if cfg.Fetch.ScanTimeout == 0 {
		cfg.Fetch.ScanTimeout = Duration(10 * time.Minute)
	}
	if cfg.Fetch.RatePerSecond == 0 {
		cfg.Fetch.RatePerSecond = 5
	}
	if cfg.Fetch.HistoryTTL == 0 {
		cfg.Fetch.HistoryTTL = Duration(15 * time.Minute)
	}
	if cfg.Fetch.InfoTTL == 0 {
		cfg.Fetch.InfoTTL = Duration(time.Hour)
	}

	mergeWeights(&cfg.Score.Weights)
	if len(cfg.Score.RSWindows) == 0 {
		cfg.Score.RSWindows = []int{21}
	}

	if cfg.Valuation.DiscountRate == 0 {
		cfg.Valuation.DiscountRate = 0.10
	}
	if cfg.Valuation.GrowthRate == 0 {
		cfg.Valuation.GrowthRate = 0.05
	}
	if cfg.Valuation.TerminalGrowth == 0 {
		cfg.Valuation.TerminalGrowth = 0.02
	}
	if cfg.Valuation.Years == 0 {
		cfg.Valuation.Years = 5
	}

	if cfg.Schedule.ScanCron == "" {
		cfg.Schedule.ScanCron = "0 18 * * 1-5"
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

// mergeWeights fills every unset weight field from the canonical defaults,
// so a YAML that overrides a single point value or threshold inherits the
// rest instead of zeroing them.
func mergeWeights(w *strategy.Weights) {
	def := strategy.DefaultWeights()
	fields := []struct {
		dst *float64
		def float64
	}{
		{&w.TrendAlignment, def.TrendAlignment},
		{&w.RSIBand, def.RSIBand},
		{&w.MACDHistogram, def.MACDHistogram},
		{&w.VolumeSurge, def.VolumeSurge},
		{&w.TrendStrength, def.TrendStrength},
		{&w.Directional, def.Directional},
		{&w.RSILow, def.RSILow},
		{&w.RSIHigh, def.RSIHigh},
		{&w.VolumeRatioMin, def.VolumeRatioMin},
		{&w.ADXMin, def.ADXMin},
		{&w.StrongMin, def.StrongMin},
		{&w.MediumMin, def.MediumMin},
		{&w.WeakMin, def.WeakMin},
	}
	for _, f := range fields {
		if *f.dst == 0 {
			*f.dst = f.def
		}
	}
}

// Validate checks cross-field constraints that defaults cannot fix.
func (c *Config) Validate() error {
	switch c.Universe.Source {
	case "static":
		if len(c.Universe.Symbols) == 0 {
			return fmt.Errorf("universe.symbols is required for the static source")
		}
	case "file":
		if c.Universe.FilePath == "" {
			return fmt.Errorf("universe.file_path is required for the file source")
		}
	case "sheet":
		if c.Universe.SheetURL == "" {
			return fmt.Errorf("universe.sheet_url is required for the sheet source")
		}
	default:
		return fmt.Errorf("universe.source must be static, file or sheet, got %q", c.Universe.Source)
	}

	if c.Fetch.Provider != "yahoo" && c.Fetch.Provider != "mock" {
		return fmt.Errorf("fetch.provider must be yahoo or mock, got %q", c.Fetch.Provider)
	}
	if c.Fetch.Workers < 1 {
		return fmt.Errorf("fetch.workers must be positive")
	}
	if c.Valuation.Enabled && c.Valuation.DiscountRate <= c.Valuation.TerminalGrowth {
		return fmt.Errorf("valuation.discount_rate must exceed valuation.terminal_growth")
	}
	for _, w := range c.Score.RSWindows {
		if w < 1 {
			return fmt.Errorf("score.rs_windows entries must be positive, got %d", w)
		}
	}

	w := c.Score.Weights
	for name, points := range map[string]float64{
		"trend_alignment": w.TrendAlignment,
		"rsi_band":        w.RSIBand,
		"macd_histogram":  w.MACDHistogram,
		"volume_surge":    w.VolumeSurge,
		"trend_strength":  w.TrendStrength,
		"directional":     w.Directional,
	} {
		if points < 0 {
			return fmt.Errorf("score.weights.%s must not be negative, got %g", name, points)
		}
	}
	if w.RSIHigh <= w.RSILow {
		return fmt.Errorf("score.weights.rsi_high (%g) must exceed rsi_low (%g)", w.RSIHigh, w.RSILow)
	}
	if !(w.StrongMin > w.MediumMin && w.MediumMin > w.WeakMin && w.WeakMin > 0) {
		return fmt.Errorf("score.weights trend thresholds must be ordered strong_min > medium_min > weak_min > 0, got %g/%g/%g",
			w.StrongMin, w.MediumMin, w.WeakMin)
	}
	return nil
}
