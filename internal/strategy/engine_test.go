package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alfarreca/marketscan/internal/calculator"
	"github.com/alfarreca/marketscan/internal/model"
)

func f(v float64) *float64 { return &v }

// bullishSet is an indicator set satisfying every rule.
func bullishSet() model.IndicatorSet {
	return model.IndicatorSet{
		EMA20:         f(108),
		EMA50:         f(104),
		EMA200:        f(100),
		RSI14:         f(65),
		MACDHistogram: f(0.8),
		VolumeRatio:   f(1.5),
		ADX14:         f(30),
		PlusDI:        f(28),
		MinusDI:       f(12),
	}
}

func TestEvaluateAllRulesFire(t *testing.T) {
	ind := bullishSet()
	a := NewEngine(DefaultWeights()).Evaluate(110, &ind)

	assert.Equal(t, 100.0, a.Score)
	assert.Equal(t, model.TrendStrong, a.Trend)
	require.Len(t, a.Rules, 6)
	for _, r := range a.Rules {
		assert.True(t, r.Fired, r.Name)
	}
}

func TestEvaluateNoRulesFire(t *testing.T) {
	ind := model.IndicatorSet{
		EMA20:         f(110),
		EMA50:         f(112),
		EMA200:        f(115),
		RSI14:         f(35),
		MACDHistogram: f(-0.4),
		VolumeRatio:   f(0.8),
		ADX14:         f(12),
		PlusDI:        f(10),
		MinusDI:       f(25),
	}
	a := NewEngine(DefaultWeights()).Evaluate(100, &ind)
	assert.Equal(t, 0.0, a.Score)
	assert.Equal(t, model.TrendNeutral, a.Trend)
}

func TestMissingIndicatorsDoNotFire(t *testing.T) {
	// Empty set: every rule must report "unavailable" and contribute 0,
	// never treat missing as a negative signal.
	var ind model.IndicatorSet
	a := NewEngine(DefaultWeights()).Evaluate(100, &ind)
	assert.Equal(t, 0.0, a.Score)
	for _, r := range a.Rules {
		assert.False(t, r.Fired, r.Name)
		assert.Equal(t, "unavailable", r.Detail, r.Name)
	}
}

func TestScoreMonotoneInPositiveIndicators(t *testing.T) {
	eng := NewEngine(DefaultWeights())

	base := bullishSet()
	base.ADX14 = f(20) // below the gate
	before := eng.Evaluate(110, &base).Score

	// Raising ADX (holding everything else fixed) must never lower the score.
	raised := base
	raised.ADX14 = f(40)
	after := eng.Evaluate(110, &raised).Score
	assert.GreaterOrEqual(t, after, before)

	// Same for the MACD histogram crossing zero.
	neg := bullishSet()
	neg.MACDHistogram = f(-1)
	worse := eng.Evaluate(110, &neg).Score
	pos := bullishSet()
	pos.MACDHistogram = f(1)
	better := eng.Evaluate(110, &pos).Score
	assert.GreaterOrEqual(t, better, worse)
}

func TestTrendBuckets(t *testing.T) {
	eng := NewEngine(DefaultWeights())
	tests := []struct {
		score float64
		want  model.Trend
	}{
		{100, model.TrendStrong},
		{70, model.TrendStrong},
		{69.9, model.TrendMedium},
		{50, model.TrendMedium},
		{49.9, model.TrendWeak},
		{30, model.TrendWeak},
		{29.9, model.TrendNeutral},
		{0, model.TrendNeutral},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, eng.trend(tt.score), "score %.1f", tt.score)
	}
}

// TestTrendAlignmentFiresOnLongRise checks the end-to-end property: on a
// monotonically increasing series with enough history, the alignment rule
// must fire once EMA200 is available.
func TestTrendAlignmentFiresOnLongRise(t *testing.T) {
	bars := make([]model.OHLCV, 320)
	start := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		c := 100 + float64(i)*0.5
		bars[i] = model.OHLCV{
			Time: start.AddDate(0, 0, i),
			Open: c, High: c * 1.002, Low: c * 0.998, Close: c,
			Volume: 1_000_000,
		}
	}
	series := &model.PriceSeries{Symbol: "UP", Bars: bars}
	require.NoError(t, series.Validate())

	ind := calculator.Compute(series)
	a := NewEngine(DefaultWeights()).Evaluate(bars[len(bars)-1].Close, &ind)

	var alignment RuleScore
	for _, r := range a.Rules {
		if r.Name == "trend_alignment" {
			alignment = r
		}
	}
	assert.True(t, alignment.Fired, "alignment must fire on a long monotone rise")
	assert.GreaterOrEqual(t, a.Score, DefaultWeights().TrendAlignment)
}
