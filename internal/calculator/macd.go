package calculator

import (
	"github.com/markcheno/go-talib"
)

// MACD returns the MACD line (EMA fast − EMA slow), the signal line
// (EMA signal of the MACD line) and the histogram (line − signal).
// All three are nil when the series is shorter than slow+signal closes.
func MACD(closes []float64, fast, slow, signal int) (line, sig, hist *float64) {
	if len(closes) < slow+signal {
		return nil, nil, nil
	}
	l, s, h := talib.Macd(closes, fast, slow, signal)
	return last(l), last(s), last(h)
}
