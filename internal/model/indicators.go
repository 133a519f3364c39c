package model

// IndicatorSet holds all technical indicators derived from one PriceSeries.
// Every field is a pointer: nil means the series did not carry enough history
// for that indicator. Scoring rules treat nil as "rule does not fire",
// never as zero.
type IndicatorSet struct {
	EMA20  *float64 `json:"ema20"`
	EMA50  *float64 `json:"ema50"`
	EMA200 *float64 `json:"ema200"`

	RSI14 *float64 `json:"rsi14"`

	MACD          *float64 `json:"macd"`
	MACDSignal    *float64 `json:"macd_signal"`
	MACDHistogram *float64 `json:"macd_histogram"`

	ADX14   *float64 `json:"adx14"`
	PlusDI  *float64 `json:"plus_di"`
	MinusDI *float64 `json:"minus_di"`

	// VolumeRatio is the last bar's volume over its 20-day simple average.
	VolumeRatio *float64 `json:"volume_ratio"`

	// Percentage returns over roughly 1, 3 and 6 months of trading days.
	Return1M *float64 `json:"return_1m"`
	Return3M *float64 `json:"return_3m"`
	Return6M *float64 `json:"return_6m"`

	// Volatility is the annualized standard deviation of daily percentage
	// changes, in percent.
	Volatility *float64 `json:"volatility"`

	// RelStrength is the mean return differential against the benchmark over
	// the configured windows. Nil when the benchmark is disabled or either
	// side lacks history.
	RelStrength *float64 `json:"rel_strength"`
}
