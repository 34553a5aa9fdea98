package repository

import (
	"context"
	"sync"
	"time"

	"PriceCast/internal/domain/models"
	domrepo "PriceCast/internal/domain/repository"
	"PriceCast/pkg/util"
)

// MemoryForecastStore is the in-process ForecastStore, used in tests and
// when no database is configured. Same first-write-wins semantics as the
// Postgres store.
type MemoryForecastStore struct {
	mu   sync.RWMutex
	rows map[memKey]*models.Forecast
}

type memKey struct {
	sku string
	day int64
}

// NewMemoryForecastStore creates an empty store.
func NewMemoryForecastStore() *MemoryForecastStore {
	return &MemoryForecastStore{rows: make(map[memKey]*models.Forecast)}
}

var _ domrepo.ForecastStore = (*MemoryForecastStore)(nil)

func (s *MemoryForecastStore) CreateIfAbsent(_ context.Context, f *models.Forecast) (*models.Forecast, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := memKey{sku: f.SKU, day: util.TimeToDayKey(f.TimeKey)}
	if existing, ok := s.rows[k]; ok {
		out := *existing
		return &out, nil
	}
	stored := *f
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	s.rows[k] = &stored
	out := stored
	return &out, nil
}

func (s *MemoryForecastStore) Get(_ context.Context, sku string, timeKey time.Time) (*models.Forecast, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.rows[memKey{sku: sku, day: util.TimeToDayKey(timeKey)}]
	if !ok {
		return nil, models.ErrNotFound
	}
	out := *f
	return &out, nil
}

func (s *MemoryForecastStore) RecordActuals(_ context.Context, sku string, timeKey time.Time, actualA, actualB float64) (*models.Forecast, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.rows[memKey{sku: sku, day: util.TimeToDayKey(timeKey)}]
	if !ok {
		return nil, models.ErrNotFound
	}
	a, b := actualA, actualB
	f.ActualCompetitorA = &a
	f.ActualCompetitorB = &b
	out := *f
	return &out, nil
}

func (s *MemoryForecastStore) Ping(context.Context) error { return nil }
