// Package cache memoizes provider results for a fixed time-to-live so
// repeated scans within the window skip redundant upstream calls. Lookup
// never blocks on anything but the mutex; the fetch-on-miss path (which may
// sleep in backoff) belongs to the caller.
package cache

import (
	"sync"
	"time"

	"github.com/alfarreca/marketscan/internal/model"
)

type entry struct {
	series    *model.PriceSeries
	info      *model.InfoSnapshot
	expiresAt time.Time
}

// Store is a TTL-keyed memo of fetch results. Entries leave only by TTL
// expiry (Sweep) or an explicit Clear; there is no partial staleness
// detection.
type Store struct {
	mu         sync.RWMutex
	series     map[string]entry
	info       map[string]entry
	historyTTL time.Duration
	infoTTL    time.Duration

	now func() time.Time // injectable clock for tests
}

// New creates a store with the given TTLs. Non-positive TTLs disable
// caching for that kind.
func New(historyTTL, infoTTL time.Duration) *Store {
	return &Store{
		series:     make(map[string]entry),
		info:       make(map[string]entry),
		historyTTL: historyTTL,
		infoTTL:    infoTTL,
		now:        time.Now,
	}
}

// historyKey scopes a series entry by symbol and fetch parameters.
func historyKey(symbol, lookback string) string { return symbol + "|" + lookback }

// GetSeries returns a cached, unexpired series or (nil, false).
func (s *Store) GetSeries(symbol, lookback string) (*model.PriceSeries, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.series[historyKey(symbol, lookback)]
	if !ok || s.now().After(e.expiresAt) {
		return nil, false
	}
	return e.series, true
}

// PutSeries stores a fetched series under its parameters.
func (s *Store) PutSeries(symbol, lookback string, series *model.PriceSeries) {
	if s.historyTTL <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.series[historyKey(symbol, lookback)] = entry{series: series, expiresAt: s.now().Add(s.historyTTL)}
}

// GetInfo returns a cached, unexpired snapshot or (nil, false).
func (s *Store) GetInfo(symbol string) (*model.InfoSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.info[symbol]
	if !ok || s.now().After(e.expiresAt) {
		return nil, false
	}
	return e.info, true
}

// PutInfo stores a fetched snapshot.
func (s *Store) PutInfo(symbol string, info *model.InfoSnapshot) {
	if s.infoTTL <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.info[symbol] = entry{info: info, expiresAt: s.now().Add(s.infoTTL)}
}

// Clear drops everything. This is the operator's explicit invalidation.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.series = make(map[string]entry)
	s.info = make(map[string]entry)
}

// Sweep removes expired entries and reports how many were dropped. Run
// periodically by the scheduler; correctness does not depend on it since
// Get checks expiry.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	dropped := 0
	for k, e := range s.series {
		if now.After(e.expiresAt) {
			delete(s.series, k)
			dropped++
		}
	}
	for k, e := range s.info {
		if now.After(e.expiresAt) {
			delete(s.info, k)
			dropped++
		}
	}
	return dropped
}

// Len reports live entry counts, for logging.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.series) + len(s.info)
}
