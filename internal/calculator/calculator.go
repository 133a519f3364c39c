// Package calculator derives technical indicators from a price series.
//
// Every function returns *float64 and yields nil when the series is shorter
// than the indicator's minimum window. Missing is not zero: the scorer
// treats a nil indicator as "rule does not fire".
package calculator

import (
	"math"

	"github.com/alfarreca/marketscan/internal/model"
)

func closes(bars []model.OHLCV) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

func highs(bars []model.OHLCV) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.High
	}
	return out
}

func lows(bars []model.OHLCV) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Low
	}
	return out
}

func volumes(bars []model.OHLCV) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Volume
	}
	return out
}

// last returns the final element of a talib output slice as a pointer,
// or nil when the slice is empty or the value is not finite.
func last(vals []float64) *float64 {
	if len(vals) == 0 {
		return nil
	}
	v := vals[len(vals)-1]
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// Compute derives the full indicator set from one validated series.
// Individual indicators that lack history stay nil; Compute never fails.
func Compute(series *model.PriceSeries) model.IndicatorSet {
	bars := series.Bars
	c := closes(bars)

	set := model.IndicatorSet{
		EMA20:       EMA(c, 20),
		EMA50:       EMA(c, 50),
		EMA200:      EMA(c, 200),
		RSI14:       RSI(c, 14),
		VolumeRatio: VolumeRatio(bars, 20),
		Return1M:    Return(c, 21),
		Return3M:    Return(c, 63),
		Return6M:    Return(c, 126),
		Volatility:  RealizedVolatility(c),
	}

	set.MACD, set.MACDSignal, set.MACDHistogram = MACD(c, 12, 26, 9)
	set.ADX14 = ADX(bars, 14)
	set.PlusDI = PlusDI(bars, 14)
	set.MinusDI = MinusDI(bars, 14)

	return set
}
