// Package strategy reduces an indicator set to a 0-100 momentum score and a
// coarse trend label. Scoring is purely functional: a fixed ordered rule set
// where each satisfied rule contributes its point value. A rule whose inputs
// are missing contributes nothing.
package strategy

import "github.com/alfarreca/marketscan/internal/model"

// Weights holds the point value of every rule plus its thresholds. The
// defaults form a closed 100-point budget; config may override them.
type Weights struct {
	TrendAlignment float64 `yaml:"trend_alignment"`
	RSIBand        float64 `yaml:"rsi_band"`
	MACDHistogram  float64 `yaml:"macd_histogram"`
	VolumeSurge    float64 `yaml:"volume_surge"`
	TrendStrength  float64 `yaml:"trend_strength"`
	Directional    float64 `yaml:"directional"`

	RSILow         float64 `yaml:"rsi_low"`
	RSIHigh        float64 `yaml:"rsi_high"`
	VolumeRatioMin float64 `yaml:"volume_ratio_min"`
	ADXMin         float64 `yaml:"adx_min"`

	StrongMin float64 `yaml:"strong_min"`
	MediumMin float64 `yaml:"medium_min"`
	WeakMin   float64 `yaml:"weak_min"`
}

// DefaultWeights is the canonical weighting used when config does not
// override it. The six rule points sum to exactly 100.
func DefaultWeights() Weights {
	return Weights{
		TrendAlignment: 30,
		RSIBand:        20,
		MACDHistogram:  15,
		VolumeSurge:    10,
		TrendStrength:  15,
		Directional:    10,

		RSILow:         50,
		RSIHigh:        80,
		VolumeRatioMin: 1.2,
		ADXMin:         25,

		StrongMin: 70,
		MediumMin: 50,
		WeakMin:   30,
	}
}

// RuleScore is a single rule's outcome, kept for report transparency.
type RuleScore struct {
	Name   string
	Fired  bool
	Points float64
	Detail string
}

// Assessment is the scorer output for one symbol.
type Assessment struct {
	Rules []RuleScore
	Score float64
	Trend model.Trend
}

// Engine applies one fixed weighting to indicator sets.
type Engine struct {
	w Weights
}

func NewEngine(w Weights) *Engine {
	return &Engine{w: w}
}

// Evaluate scores one indicator set against the latest price. The result is
// clamped to [0, 100] and monotone non-decreasing in every positively
// weighted indicator.
func (e *Engine) Evaluate(price float64, ind *model.IndicatorSet) Assessment {
	rules := []RuleScore{
		e.trendAlignment(price, ind),
		e.rsiBand(ind),
		e.macdHistogram(ind),
		e.volumeSurge(ind),
		e.trendStrength(ind),
		e.directional(ind),
	}

	score := 0.0
	for _, r := range rules {
		if r.Fired {
			score += r.Points
		}
	}
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return Assessment{Rules: rules, Score: score, Trend: e.trend(score)}
}

func (e *Engine) trend(score float64) model.Trend {
	switch {
	case score >= e.w.StrongMin:
		return model.TrendStrong
	case score >= e.w.MediumMin:
		return model.TrendMedium
	case score >= e.w.WeakMin:
		return model.TrendWeak
	default:
		return model.TrendNeutral
	}
}
