package strategy

import (
	"fmt"

	"github.com/alfarreca/marketscan/internal/model"
)

// trendAlignment fires when price sits above a rising moving-average stack:
// close > EMA20 > EMA50 > EMA200.
func (e *Engine) trendAlignment(price float64, ind *model.IndicatorSet) RuleScore {
	r := RuleScore{Name: "trend_alignment", Points: e.w.TrendAlignment}
	if ind.EMA20 == nil || ind.EMA50 == nil || ind.EMA200 == nil {
		r.Detail = "unavailable"
		return r
	}
	r.Fired = price > *ind.EMA20 && *ind.EMA20 > *ind.EMA50 && *ind.EMA50 > *ind.EMA200
	r.Detail = fmt.Sprintf("close=%.2f ema20=%.2f ema50=%.2f ema200=%.2f",
		price, *ind.EMA20, *ind.EMA50, *ind.EMA200)
	return r
}

// rsiBand fires when RSI(14) is in the configured momentum band: strong but
// not parabolic.
func (e *Engine) rsiBand(ind *model.IndicatorSet) RuleScore {
	r := RuleScore{Name: "rsi_band", Points: e.w.RSIBand}
	if ind.RSI14 == nil {
		r.Detail = "unavailable"
		return r
	}
	r.Fired = *ind.RSI14 > e.w.RSILow && *ind.RSI14 <= e.w.RSIHigh
	r.Detail = fmt.Sprintf("rsi=%.1f band=(%.0f,%.0f]", *ind.RSI14, e.w.RSILow, e.w.RSIHigh)
	return r
}

// macdHistogram fires when the MACD histogram is above zero.
func (e *Engine) macdHistogram(ind *model.IndicatorSet) RuleScore {
	r := RuleScore{Name: "macd_histogram", Points: e.w.MACDHistogram}
	if ind.MACDHistogram == nil {
		r.Detail = "unavailable"
		return r
	}
	r.Fired = *ind.MACDHistogram > 0
	r.Detail = fmt.Sprintf("hist=%.4f", *ind.MACDHistogram)
	return r
}

// volumeSurge fires when the last volume exceeds its 20-day average by the
// configured ratio.
func (e *Engine) volumeSurge(ind *model.IndicatorSet) RuleScore {
	r := RuleScore{Name: "volume_surge", Points: e.w.VolumeSurge}
	if ind.VolumeRatio == nil {
		r.Detail = "unavailable"
		return r
	}
	r.Fired = *ind.VolumeRatio > e.w.VolumeRatioMin
	r.Detail = fmt.Sprintf("ratio=%.2f min=%.2f", *ind.VolumeRatio, e.w.VolumeRatioMin)
	return r
}

// trendStrength fires when ADX reads above the configured gate.
func (e *Engine) trendStrength(ind *model.IndicatorSet) RuleScore {
	r := RuleScore{Name: "trend_strength", Points: e.w.TrendStrength}
	if ind.ADX14 == nil {
		r.Detail = "unavailable"
		return r
	}
	r.Fired = *ind.ADX14 > e.w.ADXMin
	r.Detail = fmt.Sprintf("adx=%.1f min=%.0f", *ind.ADX14, e.w.ADXMin)
	return r
}

// directional fires when the positive directional indicator leads the
// negative one.
func (e *Engine) directional(ind *model.IndicatorSet) RuleScore {
	r := RuleScore{Name: "directional", Points: e.w.Directional}
	if ind.PlusDI == nil || ind.MinusDI == nil {
		r.Detail = "unavailable"
		return r
	}
	r.Fired = *ind.PlusDI > *ind.MinusDI
	r.Detail = fmt.Sprintf("+di=%.1f -di=%.1f", *ind.PlusDI, *ind.MinusDI)
	return r
}
