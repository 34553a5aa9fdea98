package repository

import (
	"context"
	"time"

	"PriceCast/internal/domain/models"
)

// DatasetLoader produces the three reference tables. Loaded once per process
// (or per batch job); the result is treated as immutable afterwards.
type DatasetLoader interface {
	Load(ctx context.Context) (*models.Dataset, error)
}

// ForecastStore persists forecasts keyed by (sku, time_key).
type ForecastStore interface {
	// CreateIfAbsent stores the forecast unless one already exists for the
	// key. It always returns the stored row: on a duplicate-key race the
	// existing row is re-read and returned, never an error.
	CreateIfAbsent(ctx context.Context, f *models.Forecast) (*models.Forecast, error)

	// Get returns the stored forecast or models.ErrNotFound.
	Get(ctx context.Context, sku string, timeKey time.Time) (*models.Forecast, error)

	// RecordActuals sets the observed prices on an existing forecast and
	// returns the updated row, or models.ErrNotFound.
	RecordActuals(ctx context.Context, sku string, timeKey time.Time, actualA, actualB float64) (*models.Forecast, error)

	// Ping verifies the backing store is reachable.
	Ping(ctx context.Context) error
}

// Publisher emits forecast events to downstream consumers.
type Publisher interface {
	PublishForecast(ctx context.Context, f *models.Forecast) error
	Close() error
}

// Metrics abstracts the metrics recorder.
type Metrics interface {
	RecordForecast(competitor string, price float64)
	RecordError(kind string)
	RecordStageLatency(stage string, seconds float64)
}
