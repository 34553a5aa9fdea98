package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"PriceCast/internal/domain/models"
	"PriceCast/internal/repository"
	"PriceCast/internal/services/features"
	"PriceCast/internal/services/predictor"
	"PriceCast/pkg/config"
	"PriceCast/pkg/logger"
)

type stubMetrics struct {
	forecasts int
	errors    map[string]int
}

func (m *stubMetrics) RecordForecast(string, float64) { m.forecasts++ }
func (m *stubMetrics) RecordError(kind string) {
	if m.errors == nil {
		m.errors = map[string]int{}
	}
	m.errors[kind]++
}
func (m *stubMetrics) RecordStageLatency(string, float64) {}

type recordingPublisher struct {
	published []*models.Forecast
	fail      bool
}

func (p *recordingPublisher) PublishForecast(_ context.Context, f *models.Forecast) error {
	if p.fail {
		return errors.New("broker down")
	}
	p.published = append(p.published, f)
	return nil
}
func (p *recordingPublisher) Close() error { return nil }

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// testDataset prices one SKU for ten days: chain at 50, competitorB at 90,
// competitorA at 100.
func testDataset() *models.Dataset {
	start := day(2024, time.October, 1)
	ds := &models.Dataset{
		Structures: []models.ProductStructure{{SKU: "p1", StructureLevel2: "beer"}},
	}
	for i := 0; i < 10; i++ {
		d := start.AddDate(0, 0, i)
		for comp, price := range map[models.Competitor]float64{
			models.Chain:       50,
			models.CompetitorA: 100,
			models.CompetitorB: 90,
		} {
			ds.Prices = append(ds.Prices, models.PriceObservation{
				SKU: "p1", TimeKey: d, Competitor: comp, PvpWas: price, HasPrice: true,
			})
		}
	}
	return ds
}

// writeModels freezes a schema per competitor and writes a linear model whose
// only weight is 1.0 on price_rank, so the predicted price equals the row's
// rank and proves the feature frame reached the model intact.
func writeModels(t *testing.T, dir string, categories []string) {
	t.Helper()
	for _, comp := range models.Others(models.Chain) {
		schema := features.CanonicalSchema(comp, categories)
		if err := schema.Save(filepath.Join(dir, string(comp)+".schema.json")); err != nil {
			t.Fatalf("save schema: %v", err)
		}
		artifact := map[string]any{
			"schema_version": schema.Version,
			"bias":           0.0,
			"weights":        map[string]float64{"price_rank": 1},
		}
		data, err := json.Marshal(artifact)
		if err != nil {
			t.Fatalf("marshal model: %v", err)
		}
		path := filepath.Join(dir, string(comp)+".model.json")
		if err := os.WriteFile(path, data, 0o644); err != nil {
			t.Fatalf("write model: %v", err)
		}
	}
}

func newTestForecaster(t *testing.T, pub *recordingPublisher) (*Forecaster, *repository.MemoryForecastStore, *stubMetrics) {
	t.Helper()
	pipeline := features.NewPipeline(testDataset())

	dir := t.TempDir()
	writeModels(t, dir, pipeline.Categories())
	cfg := &config.Config{}
	cfg.Models.Dir = dir
	registry, err := predictor.NewRegistry(cfg)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}

	store := repository.NewMemoryForecastStore()
	metrics := &stubMetrics{}
	f := NewForecaster(pipeline, registry, store, pub, nil, 0, metrics, testLogger(t))
	return f, store, metrics
}

func TestForecastScoresBothCompetitors(t *testing.T) {
	pub := &recordingPublisher{}
	f, store, metrics := newTestForecaster(t, pub)
	ctx := context.Background()
	target := day(2024, time.October, 11)

	got, err := f.Forecast(ctx, "p1", target)
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}

	// With a unit weight on price_rank, competitorA (priciest of three)
	// predicts 3 and competitorB (middle) predicts 2.
	if got.PvpIsCompetitorA != 3 {
		t.Fatalf("competitorA price = %v, want 3", got.PvpIsCompetitorA)
	}
	if got.PvpIsCompetitorB != 2 {
		t.Fatalf("competitorB price = %v, want 2", got.PvpIsCompetitorB)
	}
	if got.ActualCompetitorA != nil || got.ActualCompetitorB != nil {
		t.Fatalf("fresh forecast must have no actuals")
	}

	stored, err := store.Get(ctx, "p1", target)
	if err != nil {
		t.Fatalf("stored lookup: %v", err)
	}
	if stored.PvpIsCompetitorA != got.PvpIsCompetitorA {
		t.Fatalf("stored %v, returned %v", stored.PvpIsCompetitorA, got.PvpIsCompetitorA)
	}

	if len(pub.published) != 1 {
		t.Fatalf("published %d events, want 1", len(pub.published))
	}
	if metrics.forecasts != 2 {
		t.Fatalf("recorded %d forecasts, want 2", metrics.forecasts)
	}
}

func TestForecastIsIdempotent(t *testing.T) {
	f, _, _ := newTestForecaster(t, &recordingPublisher{})
	ctx := context.Background()
	target := day(2024, time.October, 11)

	first, err := f.Forecast(ctx, "p1", target)
	if err != nil {
		t.Fatalf("first forecast: %v", err)
	}
	second, err := f.Forecast(ctx, "p1", target)
	if err != nil {
		t.Fatalf("second forecast: %v", err)
	}
	if !first.CreatedAt.Equal(second.CreatedAt) {
		t.Fatalf("re-request must return the stored row, got new CreatedAt")
	}
}

func TestForecastPublishFailureIsNotFatal(t *testing.T) {
	pub := &recordingPublisher{fail: true}
	f, store, metrics := newTestForecaster(t, pub)
	ctx := context.Background()
	target := day(2024, time.October, 11)

	if _, err := f.Forecast(ctx, "p1", target); err != nil {
		t.Fatalf("forecast must survive a publish failure: %v", err)
	}
	if _, err := store.Get(ctx, "p1", target); err != nil {
		t.Fatalf("forecast not stored: %v", err)
	}
	if metrics.errors["publish"] != 1 {
		t.Fatalf("publish error not recorded")
	}
}

func TestForecastRejectsBadInput(t *testing.T) {
	f, _, _ := newTestForecaster(t, &recordingPublisher{})
	ctx := context.Background()

	if _, err := f.Forecast(ctx, "", day(2024, time.October, 11)); !errors.Is(err, models.ErrInvalidInput) {
		t.Fatalf("empty sku: %v", err)
	}
	if _, err := f.Forecast(ctx, "p1", time.Time{}); !errors.Is(err, models.ErrInvalidInput) {
		t.Fatalf("zero time: %v", err)
	}
}

func TestForecastUnknownSKU(t *testing.T) {
	f, _, _ := newTestForecaster(t, &recordingPublisher{})

	_, err := f.Forecast(context.Background(), "ghost", day(2024, time.October, 11))
	if !errors.Is(err, models.ErrInsufficientHistory) {
		t.Fatalf("want ErrInsufficientHistory, got %v", err)
	}
}

func TestRecordActuals(t *testing.T) {
	pub := &recordingPublisher{}
	f, _, _ := newTestForecaster(t, pub)
	ctx := context.Background()
	target := day(2024, time.October, 11)

	if _, err := f.Forecast(ctx, "p1", target); err != nil {
		t.Fatalf("forecast: %v", err)
	}
	updated, err := f.RecordActuals(ctx, "p1", target, 101.5, 89.9)
	if err != nil {
		t.Fatalf("record actuals: %v", err)
	}
	if updated.ActualCompetitorA == nil || *updated.ActualCompetitorA != 101.5 {
		t.Fatalf("actual A = %v", updated.ActualCompetitorA)
	}
	if updated.ActualCompetitorB == nil || math.Abs(*updated.ActualCompetitorB-89.9) > 1e-9 {
		t.Fatalf("actual B = %v", updated.ActualCompetitorB)
	}
	// The initial forecast plus the actuals update both fan out.
	if len(pub.published) != 2 {
		t.Fatalf("published %d events, want 2", len(pub.published))
	}

	if _, err := f.RecordActuals(ctx, "ghost", target, 1, 2); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("actuals for unknown key: %v", err)
	}
}
