package model

import (
	"errors"
	"fmt"
	"time"
)

// MinObservations is the minimum number of bars a series must carry before
// any indicator work is attempted. Shorter series are treated as
// insufficient data and the symbol is skipped.
const MinObservations = 20

// Symbol is a raw ticker plus the exchange it was listed with in the input
// source. Resolution to a provider lookup key happens in the symbols package.
type Symbol struct {
	Ticker   string `json:"ticker"`
	Exchange string `json:"exchange,omitempty"`
}

func (s Symbol) String() string {
	if s.Exchange == "" {
		return s.Ticker
	}
	return s.Ticker + ":" + s.Exchange
}

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// PriceSeries holds the ordered daily history for one resolved symbol.
type PriceSeries struct {
	Symbol    string
	Bars      []OHLCV
	FetchedAt time.Time
}

// ErrInsufficientData marks a series too short to analyse.
var ErrInsufficientData = errors.New("insufficient data")

// Validate checks the series invariants: at least MinObservations bars and
// strictly increasing timestamps.
func (p *PriceSeries) Validate() error {
	if len(p.Bars) < MinObservations {
		return fmt.Errorf("%w: %d bars, need %d", ErrInsufficientData, len(p.Bars), MinObservations)
	}
	for i := 1; i < len(p.Bars); i++ {
		if !p.Bars[i].Time.After(p.Bars[i-1].Time) {
			return fmt.Errorf("bar %d: timestamp %s not after %s",
				i, p.Bars[i].Time.Format("2006-01-02"), p.Bars[i-1].Time.Format("2006-01-02"))
		}
	}
	return nil
}

// InfoSnapshot holds static attributes from the provider. A nil field means
// the provider did not report it; callers must not substitute defaults.
type InfoSnapshot struct {
	Name              string
	Sector            string
	MarketCap         *float64
	SharesOutstanding *float64
	FreeCashFlow      *float64
	AvgVolume         *float64
	FetchedAt         time.Time
}
