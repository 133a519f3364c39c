package calculator

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/alfarreca/marketscan/internal/model"
)

// tradingDaysPerYear scales daily volatility to annual.
const tradingDaysPerYear = 252

// Return computes the percentage change over the last n observations:
// (close[-1]/close[-1-n] − 1) × 100. Nil when fewer than n+1 closes exist.
func Return(closes []float64, n int) *float64 {
	if n <= 0 || len(closes) < n+1 {
		return nil
	}
	base := closes[len(closes)-1-n]
	if base == 0 {
		return nil
	}
	v := (closes[len(closes)-1]/base - 1) * 100
	return &v
}

// RealizedVolatility returns the annualized standard deviation of daily
// percentage changes, in percent. Nil with fewer than three closes.
func RealizedVolatility(closes []float64) *float64 {
	if len(closes) < 3 {
		return nil
	}
	changes := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] == 0 {
			return nil
		}
		changes = append(changes, closes[i]/closes[i-1]-1)
	}
	v := stat.StdDev(changes, nil) * math.Sqrt(tradingDaysPerYear) * 100
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

// VolumeRatio returns the last bar's volume over its period-day simple
// average. Nil when the average is unavailable or zero.
func VolumeRatio(bars []model.OHLCV, period int) *float64 {
	if len(bars) < period {
		return nil
	}
	avg := SMA(volumes(bars), period)
	if avg == nil || *avg == 0 {
		return nil
	}
	v := bars[len(bars)-1].Volume / *avg
	return &v
}

// RelativeStrength returns the mean, across the given windows, of the
// symbol's return minus the benchmark's return. Nil when any window is
// unavailable on either side, so a partial blend never masquerades as the
// configured one.
func RelativeStrength(symCloses, benchCloses []float64, windows []int) *float64 {
	if len(windows) == 0 {
		return nil
	}
	sum := 0.0
	for _, w := range windows {
		rs := Return(symCloses, w)
		rb := Return(benchCloses, w)
		if rs == nil || rb == nil {
			return nil
		}
		sum += *rs - *rb
	}
	v := sum / float64(len(windows))
	return &v
}
