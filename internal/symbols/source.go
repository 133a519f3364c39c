package symbols

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/alfarreca/marketscan/internal/model"
)

// Source provides the symbol universe for one scan. Implementations load a
// static snapshot; they are re-read on every scan, never watched.
type Source interface {
	Load(ctx context.Context) ([]model.Symbol, error)
	Name() string
}

// Dedupe drops symbols that resolve to a lookup key already seen, keeping
// the first occurrence.
func Dedupe(in []model.Symbol) []model.Symbol {
	seen := make(map[string]bool, len(in))
	out := make([]model.Symbol, 0, len(in))
	for _, s := range in {
		key, _ := Resolve(s.Ticker, s.Exchange)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}

// StaticSource serves a fixed list from configuration.
type StaticSource struct {
	Symbols []model.Symbol
}

func (s *StaticSource) Name() string { return "static" }

func (s *StaticSource) Load(_ context.Context) ([]model.Symbol, error) {
	if len(s.Symbols) == 0 {
		return nil, fmt.Errorf("static source: no symbols configured")
	}
	return Dedupe(s.Symbols), nil
}

// FileSource reads a local CSV file with a required "Symbol" column and an
// optional "Exchange" column. Malformed files are rejected before any
// network call is attempted.
type FileSource struct {
	Path string
}

func (s *FileSource) Name() string { return "file" }

func (s *FileSource) Load(_ context.Context) ([]model.Symbol, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open symbol file: %w", err)
	}
	defer f.Close()

	syms, err := parseSymbolCSV(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.Path, err)
	}
	return syms, nil
}

// SheetSource fetches a published spreadsheet's CSV export over HTTP. Same
// column rules as FileSource. A failure here aborts the whole scan, unlike
// per-symbol fetch failures.
type SheetSource struct {
	URL    string
	Client *http.Client
	Log    zerolog.Logger
}

func NewSheetSource(url string, log zerolog.Logger) *SheetSource {
	return &SheetSource{
		URL:    url,
		Client: &http.Client{Timeout: 30 * time.Second},
		Log:    log.With().Str("component", "sheet-source").Logger(),
	}
}

func (s *SheetSource) Name() string { return "sheet" }

func (s *SheetSource) Load(ctx context.Context) ([]model.Symbol, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch sheet: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch sheet: status %d", resp.StatusCode)
	}

	syms, err := parseSymbolCSV(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse sheet: %w", err)
	}
	s.Log.Debug().Int("symbols", len(syms)).Msg("sheet loaded")
	return syms, nil
}

// parseSymbolCSV reads header + rows, requiring a Symbol column
// (case-insensitive) and accepting an optional Exchange column. Blank rows
// are skipped; the result is deduped by resolved key.
func parseSymbolCSV(r io.Reader) ([]model.Symbol, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	symCol, exCol := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "symbol", "ticker":
			if symCol < 0 {
				symCol = i
			}
		case "exchange":
			exCol = i
		}
	}
	if symCol < 0 {
		return nil, fmt.Errorf("required column %q not found", "Symbol")
	}

	var syms []model.Symbol
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if symCol >= len(rec) {
			continue
		}
		ticker := strings.TrimSpace(rec[symCol])
		if ticker == "" {
			continue
		}
		exchange := ""
		if exCol >= 0 && exCol < len(rec) {
			exchange = strings.TrimSpace(rec[exCol])
		}
		syms = append(syms, model.Symbol{Ticker: ticker, Exchange: exchange})
	}
	if len(syms) == 0 {
		return nil, fmt.Errorf("no symbols found")
	}
	return Dedupe(syms), nil
}
