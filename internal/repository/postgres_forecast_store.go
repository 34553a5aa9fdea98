package repository

import (
	"context"
	"fmt"
	"time"

	"PriceCast/internal/domain/models"
	domrepo "PriceCast/internal/domain/repository"
	"PriceCast/pkg/util"
)

// PostgresForecastStore persists forecasts in the forecast_prices table,
// keyed by (sku, time_key) with time_key stored as unix days.
type PostgresForecastStore struct {
	pool *Pool
}

// NewPostgresForecastStore creates the store.
func NewPostgresForecastStore(pool *Pool) *PostgresForecastStore {
	return &PostgresForecastStore{pool: pool}
}

// Compile-time interface check.
var _ domrepo.ForecastStore = (*PostgresForecastStore)(nil)

// InitSchema creates the forecast_prices table if it does not exist.
func (s *PostgresForecastStore) InitSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS forecast_prices (
			sku TEXT NOT NULL,
			time_key BIGINT NOT NULL,
			pvp_is_competitorA DOUBLE PRECISION NOT NULL,
			pvp_is_competitorB DOUBLE PRECISION NOT NULL,
			pvp_is_competitorA_actual DOUBLE PRECISION,
			pvp_is_competitorB_actual DOUBLE PRECISION,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (sku, time_key)
		)
	`
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("init forecast schema: %w", err)
	}
	return nil
}

// CreateIfAbsent inserts the forecast. On a duplicate key the existing row
// wins: it is re-read and returned, so two racing requests for the same
// (sku, time_key) both observe one stored forecast.
func (s *PostgresForecastStore) CreateIfAbsent(ctx context.Context, f *models.Forecast) (*models.Forecast, error) {
	query := `
		INSERT INTO forecast_prices (
			sku, time_key, pvp_is_competitorA, pvp_is_competitorB, created_at
		) VALUES ($1, $2, $3, $4, $5)
	`
	created := f.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx, query,
		f.SKU,
		util.TimeToDayKey(f.TimeKey),
		f.PvpIsCompetitorA,
		f.PvpIsCompetitorB,
		created,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			existing, getErr := s.Get(ctx, f.SKU, f.TimeKey)
			if getErr != nil {
				return nil, fmt.Errorf("%w: reread failed: %v", models.ErrDuplicateKey, getErr)
			}
			return existing, nil
		}
		return nil, fmt.Errorf("insert forecast: %w", err)
	}

	stored := *f
	stored.CreatedAt = created
	return &stored, nil
}

// Get returns the stored forecast or models.ErrNotFound.
func (s *PostgresForecastStore) Get(ctx context.Context, sku string, timeKey time.Time) (*models.Forecast, error) {
	query := `
		SELECT sku, time_key, pvp_is_competitorA, pvp_is_competitorB,
		       pvp_is_competitorA_actual, pvp_is_competitorB_actual, created_at
		FROM forecast_prices
		WHERE sku = $1 AND time_key = $2
	`
	row := s.pool.QueryRow(ctx, query, sku, util.TimeToDayKey(timeKey))
	return scanForecast(row)
}

// RecordActuals sets the observed prices on an existing forecast.
func (s *PostgresForecastStore) RecordActuals(ctx context.Context, sku string, timeKey time.Time, actualA, actualB float64) (*models.Forecast, error) {
	query := `
		UPDATE forecast_prices
		SET pvp_is_competitorA_actual = $3, pvp_is_competitorB_actual = $4
		WHERE sku = $1 AND time_key = $2
		RETURNING sku, time_key, pvp_is_competitorA, pvp_is_competitorB,
		          pvp_is_competitorA_actual, pvp_is_competitorB_actual, created_at
	`
	row := s.pool.QueryRow(ctx, query, sku, util.TimeToDayKey(timeKey), actualA, actualB)
	return scanForecast(row)
}

// Ping verifies the backing store is reachable.
func (s *PostgresForecastStore) Ping(ctx context.Context) error {
	return s.pool.Pool.Ping(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanForecast(row rowScanner) (*models.Forecast, error) {
	var f models.Forecast
	var day int64
	err := row.Scan(&f.SKU, &day, &f.PvpIsCompetitorA, &f.PvpIsCompetitorB,
		&f.ActualCompetitorA, &f.ActualCompetitorB, &f.CreatedAt)
	if err != nil {
		if isNotFoundError(err) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("scan forecast: %w", err)
	}
	f.TimeKey = util.DayKeyToTime(day)
	return &f, nil
}
