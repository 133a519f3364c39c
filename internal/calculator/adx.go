package calculator

import (
	"github.com/markcheno/go-talib"

	"github.com/alfarreca/marketscan/internal/model"
)

// adxWarmup returns the bar count ADX needs before its first smoothed value.
func adxWarmup(period int) int { return 2*period + 1 }

// ADX returns the Average Directional Index over the period, used by the
// scorer strictly as a trend-strength gate. Nil until 2×period+1 bars exist.
func ADX(bars []model.OHLCV, period int) *float64 {
	if period <= 0 || len(bars) < adxWarmup(period) {
		return nil
	}
	return last(talib.Adx(highs(bars), lows(bars), closes(bars), period))
}

// PlusDI returns the positive directional indicator over the period.
func PlusDI(bars []model.OHLCV, period int) *float64 {
	if period <= 0 || len(bars) < period+1 {
		return nil
	}
	return last(talib.PlusDI(highs(bars), lows(bars), closes(bars), period))
}

// MinusDI returns the negative directional indicator over the period.
func MinusDI(bars []model.OHLCV, period int) *float64 {
	if period <= 0 || len(bars) < period+1 {
		return nil
	}
	return last(talib.MinusDI(highs(bars), lows(bars), closes(bars), period))
}
