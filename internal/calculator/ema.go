package calculator

import (
	"github.com/markcheno/go-talib"
)

// EMA returns the exponential moving average of closes over the period,
// smoothing factor 2/(period+1), seeded with the SMA of the first period
// observations. Nil when fewer than period closes exist.
func EMA(closes []float64, period int) *float64 {
	if period <= 0 || len(closes) < period {
		return nil
	}
	return last(talib.Ema(closes, period))
}

// SMA returns the simple moving average over the period, nil when fewer
// than period values exist.
func SMA(values []float64, period int) *float64 {
	if period <= 0 || len(values) < period {
		return nil
	}
	return last(talib.Sma(values, period))
}
