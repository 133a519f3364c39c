// Package exporter serializes a scan report's rows to CSV and reads them
// back. The file is the only durable artifact the core produces besides the
// SQLite history; values round-trip losslessly at the declared precision.
package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/alfarreca/marketscan/internal/model"
)

// floatPrecision is the number of decimals written for every numeric cell.
const floatPrecision = 4

// Header is the fixed CSV column set, in write order.
var Header = []string{
	"symbol", "exchange", "resolved", "name", "sector",
	"price", "score", "trend",
	"ema20", "ema50", "ema200", "rsi14",
	"macd", "macd_signal", "macd_histogram",
	"adx14", "plus_di", "minus_di",
	"volume_ratio", "return_1m", "return_3m", "return_6m",
	"volatility", "rel_strength",
	"intrinsic_value", "margin_of_safety",
}

func cell(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', floatPrecision, 64)
}

func mustCell(v float64) string {
	return strconv.FormatFloat(v, 'f', floatPrecision, 64)
}

// Write streams the rows as CSV.
func Write(w io.Writer, rows []model.ResultRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, row := range rows {
		ind := row.Indicators
		rec := []string{
			row.Symbol.Ticker,
			row.Symbol.Exchange,
			row.Resolved,
			row.Name,
			row.Sector,
			mustCell(row.Price),
			mustCell(row.Score),
			string(row.Trend),
			cell(ind.EMA20), cell(ind.EMA50), cell(ind.EMA200), cell(ind.RSI14),
			cell(ind.MACD), cell(ind.MACDSignal), cell(ind.MACDHistogram),
			cell(ind.ADX14), cell(ind.PlusDI), cell(ind.MinusDI),
			cell(ind.VolumeRatio), cell(ind.Return1M), cell(ind.Return3M), cell(ind.Return6M),
			cell(ind.Volatility), cell(ind.RelStrength),
		}
		if row.Valuation != nil {
			rec = append(rec, mustCell(row.Valuation.IntrinsicValue), mustCell(row.Valuation.MarginOfSafety))
		} else {
			rec = append(rec, "", "")
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row %s: %w", row.Resolved, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteFile writes the rows to path, creating or truncating it.
func WriteFile(path string, rows []model.ResultRow) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	defer f.Close()
	return Write(f, rows)
}

// Read parses rows previously produced by Write. Empty cells become nil
// indicator fields.
func Read(r io.Reader) ([]model.ResultRow, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) != len(Header) {
		return nil, fmt.Errorf("unexpected header: %d columns, want %d", len(header), len(Header))
	}
	for i, h := range header {
		if h != Header[i] {
			return nil, fmt.Errorf("unexpected header: column %d is %q, want %q", i, h, Header[i])
		}
	}

	col := make(map[string]int, len(header))
	for i, h := range header {
		col[h] = i
	}

	var rows []model.ResultRow
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		get := func(name string) string { return rec[col[name]] }
		opt := func(name string) (*float64, error) {
			s := get(name)
			if s == "" {
				return nil, nil
			}
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("column %s: %w", name, err)
			}
			return &v, nil
		}
		req := func(name string) (float64, error) {
			v, err := strconv.ParseFloat(get(name), 64)
			if err != nil {
				return 0, fmt.Errorf("column %s: %w", name, err)
			}
			return v, nil
		}

		price, err := req("price")
		if err != nil {
			return nil, err
		}
		score, err := req("score")
		if err != nil {
			return nil, err
		}

		row := model.ResultRow{
			Symbol:   model.Symbol{Ticker: get("symbol"), Exchange: get("exchange")},
			Resolved: get("resolved"),
			Name:     get("name"),
			Sector:   get("sector"),
			Price:    price,
			Score:    score,
			Trend:    model.Trend(get("trend")),
		}

		ind := &row.Indicators
		for _, f := range []struct {
			name string
			dst  **float64
		}{
			{"ema20", &ind.EMA20}, {"ema50", &ind.EMA50}, {"ema200", &ind.EMA200},
			{"rsi14", &ind.RSI14},
			{"macd", &ind.MACD}, {"macd_signal", &ind.MACDSignal}, {"macd_histogram", &ind.MACDHistogram},
			{"adx14", &ind.ADX14}, {"plus_di", &ind.PlusDI}, {"minus_di", &ind.MinusDI},
			{"volume_ratio", &ind.VolumeRatio},
			{"return_1m", &ind.Return1M}, {"return_3m", &ind.Return3M}, {"return_6m", &ind.Return6M},
			{"volatility", &ind.Volatility}, {"rel_strength", &ind.RelStrength},
		} {
			v, err := opt(f.name)
			if err != nil {
				return nil, err
			}
			*f.dst = v
		}

		intrinsic, err := opt("intrinsic_value")
		if err != nil {
			return nil, err
		}
		margin, err := opt("margin_of_safety")
		if err != nil {
			return nil, err
		}
		if intrinsic != nil && margin != nil {
			row.Valuation = &model.Valuation{IntrinsicValue: *intrinsic, MarginOfSafety: *margin}
		}

		rows = append(rows, row)
	}
	return rows, nil
}
