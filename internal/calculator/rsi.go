package calculator

import (
	"github.com/markcheno/go-talib"
)

// RSI returns the Wilder-smoothed Relative Strength Index over the period.
// Requires period+1 closes; when every change is a gain (avg loss zero) the
// value is 100. Nil on insufficient data.
func RSI(closes []float64, period int) *float64 {
	if period <= 0 || len(closes) < period+1 {
		return nil
	}
	return last(talib.Rsi(closes, period))
}
