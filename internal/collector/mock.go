package collector

import (
	"context"
	"sync"
	"time"

	"github.com/alfarreca/marketscan/internal/model"
)

// MockFetcher returns controllable fixed data for development and tests.
// Per-symbol errors and call delays are programmable.
type MockFetcher struct {
	mu sync.Mutex

	BasePrice float64
	Bars      int
	Series    map[string]*model.PriceSeries
	Info      map[string]*model.InfoSnapshot
	Err       map[string]error
	Delay     time.Duration

	HistoryCalls map[string]int
}

func NewMockFetcher() *MockFetcher {
	return &MockFetcher{
		BasePrice:    100,
		Bars:         260,
		Series:       make(map[string]*model.PriceSeries),
		Info:         make(map[string]*model.InfoSnapshot),
		Err:          make(map[string]error),
		HistoryCalls: make(map[string]int),
	}
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchHistory(ctx context.Context, symbol, _ string) (*model.PriceSeries, error) {
	m.mu.Lock()
	m.HistoryCalls[symbol]++
	series, ok := m.Series[symbol]
	err := m.Err[symbol]
	delay := m.Delay
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	if ok {
		return series, nil
	}
	return GenerateSeries(symbol, m.BasePrice, m.Bars), nil
}

func (m *MockFetcher) FetchInfo(_ context.Context, symbol string) (*model.InfoSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.Err[symbol]; err != nil {
		return nil, err
	}
	if info, ok := m.Info[symbol]; ok {
		return info, nil
	}
	return &model.InfoSnapshot{FetchedAt: time.Now()}, nil
}

// GenerateSeries builds a gently rising synthetic daily series.
func GenerateSeries(symbol string, basePrice float64, count int) *model.PriceSeries {
	bars := make([]model.OHLCV, count)
	start := time.Now().AddDate(0, 0, -count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.OHLCV{
			Time:   start.AddDate(0, 0, i),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1_000_000,
		}
	}
	return &model.PriceSeries{Symbol: symbol, Bars: bars, FetchedAt: time.Now()}
}
