package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"PriceCast/internal/domain/models"
	domrepo "PriceCast/internal/domain/repository"
	"PriceCast/internal/services/features"
	"PriceCast/internal/services/predictor"
	"PriceCast/pkg/cache"
	"PriceCast/pkg/logger"
	"PriceCast/pkg/util"
)

// Forecaster is the forecast request path: build the feature frame for each
// competitor, score it, persist the result and fan it out.
type Forecaster struct {
	pipeline  *features.Pipeline
	registry  *predictor.Registry
	store     domrepo.ForecastStore
	publisher domrepo.Publisher
	cache     cache.Service // nil when caching is disabled
	cacheTTL  time.Duration
	metrics   domrepo.Metrics
	log       *logger.Logger
}

func NewForecaster(
	pipeline *features.Pipeline,
	registry *predictor.Registry,
	store domrepo.ForecastStore,
	publisher domrepo.Publisher,
	cacheSvc cache.Service,
	cacheTTL time.Duration,
	metrics domrepo.Metrics,
	log *logger.Logger,
) *Forecaster {
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}
	return &Forecaster{
		pipeline:  pipeline,
		registry:  registry,
		store:     store,
		publisher: publisher,
		cache:     cacheSvc,
		cacheTTL:  cacheTTL,
		metrics:   metrics,
		log:       log,
	}
}

func cacheKey(sku string, timeKey time.Time) string {
	return fmt.Sprintf("forecast:%s:%d", sku, util.TimeToDayKey(timeKey))
}

// Forecast predicts both competitor prices for (sku, timeKey) and stores the
// result. Re-requesting an already forecast key returns the stored row; the
// first write wins.
func (f *Forecaster) Forecast(ctx context.Context, sku string, timeKey time.Time) (*models.Forecast, error) {
	if sku == "" || timeKey.IsZero() {
		return nil, fmt.Errorf("sku and time_key are required: %w", models.ErrInvalidInput)
	}

	if cached := f.fromCache(ctx, sku, timeKey); cached != nil {
		return cached, nil
	}
	if existing, err := f.store.Get(ctx, sku, timeKey); err == nil {
		f.toCache(ctx, existing)
		return existing, nil
	} else if !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("lookup forecast: %w", err)
	}

	forecast := &models.Forecast{SKU: sku, TimeKey: timeKey, CreatedAt: time.Now().UTC()}
	for _, comp := range f.registry.Competitors() {
		price, err := f.predictOne(ctx, sku, comp, timeKey)
		if err != nil {
			return nil, err
		}
		switch comp {
		case models.CompetitorA:
			forecast.PvpIsCompetitorA = price
		case models.CompetitorB:
			forecast.PvpIsCompetitorB = price
		}
		f.metrics.RecordForecast(string(comp), price)
	}

	stored, err := f.store.CreateIfAbsent(ctx, forecast)
	if err != nil {
		return nil, fmt.Errorf("store forecast: %w", err)
	}

	if err := f.publisher.PublishForecast(ctx, stored); err != nil {
		// The forecast is already durable; a publish failure must not fail
		// the request.
		f.metrics.RecordError("publish")
		f.log.Error("publish forecast failed",
			logger.String("sku", sku),
			logger.Error(err),
		)
	}

	f.toCache(ctx, stored)
	return stored, nil
}

// predictOne derives the feature row for one competitor and scores it.
func (f *Forecaster) predictOne(ctx context.Context, sku string, comp models.Competitor, timeKey time.Time) (float64, error) {
	pred, schema, err := f.registry.For(comp)
	if err != nil {
		return 0, err
	}

	history := f.pipeline.HistoryRows(sku, comp, timeKey.AddDate(0, 0, -1))
	if len(history) == 0 {
		return 0, fmt.Errorf("no price history for sku %s competitor %s: %w",
			sku, comp, models.ErrInsufficientHistory)
	}

	target := features.TargetRow(sku, comp, timeKey)
	frame := append(history, target)
	f.pipeline.Apply(frame, comp)

	target.ZeroFill()
	row := schema.Align(target)

	price, err := pred.Predict(ctx, row)
	if err != nil {
		f.metrics.RecordError("predict")
		return 0, fmt.Errorf("predict %s: %w", comp, err)
	}
	return price, nil
}

// Get returns a stored forecast.
func (f *Forecaster) Get(ctx context.Context, sku string, timeKey time.Time) (*models.Forecast, error) {
	if sku == "" || timeKey.IsZero() {
		return nil, fmt.Errorf("sku and time_key are required: %w", models.ErrInvalidInput)
	}
	if cached := f.fromCache(ctx, sku, timeKey); cached != nil {
		return cached, nil
	}
	forecast, err := f.store.Get(ctx, sku, timeKey)
	if err != nil {
		return nil, err
	}
	f.toCache(ctx, forecast)
	return forecast, nil
}

// RecordActuals attaches observed prices to an existing forecast.
func (f *Forecaster) RecordActuals(ctx context.Context, sku string, timeKey time.Time, actualA, actualB float64) (*models.Forecast, error) {
	if sku == "" || timeKey.IsZero() {
		return nil, fmt.Errorf("sku and time_key are required: %w", models.ErrInvalidInput)
	}
	updated, err := f.store.RecordActuals(ctx, sku, timeKey, actualA, actualB)
	if err != nil {
		return nil, err
	}
	// The cached copy is stale now.
	if f.cache != nil {
		if err := f.cache.Delete(ctx, cacheKey(sku, timeKey)); err != nil {
			f.log.Warn("invalidate forecast cache", logger.Error(err))
		}
	}
	if err := f.publisher.PublishForecast(ctx, updated); err != nil {
		f.metrics.RecordError("publish")
		f.log.Error("publish actuals failed",
			logger.String("sku", sku),
			logger.Error(err),
		)
	}
	return updated, nil
}

func (f *Forecaster) fromCache(ctx context.Context, sku string, timeKey time.Time) *models.Forecast {
	if f.cache == nil {
		return nil
	}
	var cached models.Forecast
	if err := f.cache.Get(ctx, cacheKey(sku, timeKey), &cached); err != nil {
		return nil
	}
	return &cached
}

func (f *Forecaster) toCache(ctx context.Context, forecast *models.Forecast) {
	if f.cache == nil {
		return
	}
	if err := f.cache.Set(ctx, cacheKey(forecast.SKU, forecast.TimeKey), forecast, f.cacheTTL); err != nil {
		f.log.Warn("cache forecast", logger.Error(err))
	}
}
