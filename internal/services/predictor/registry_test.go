package predictor

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"PriceCast/internal/domain/models"
	"PriceCast/internal/services/features"
	"PriceCast/pkg/config"
)

func writeArtifacts(t *testing.T, dir string, version func(schema *features.FrozenSchema) string) {
	t.Helper()
	for _, comp := range models.Others(models.Chain) {
		schema := features.CanonicalSchema(comp, []string{"beer"})
		if err := schema.Save(filepath.Join(dir, string(comp)+".schema.json")); err != nil {
			t.Fatalf("save schema: %v", err)
		}
		artifact, _ := json.Marshal(map[string]any{
			"schema_version": version(schema),
			"bias":           10.0,
			"weights":        map[string]float64{"price_rank": 2, "holiday_flag": 5},
		})
		if err := os.WriteFile(filepath.Join(dir, string(comp)+".model.json"), artifact, 0o644); err != nil {
			t.Fatalf("write model: %v", err)
		}
	}
}

func TestRegistryLoadsLocalModels(t *testing.T) {
	dir := t.TempDir()
	writeArtifacts(t, dir, func(s *features.FrozenSchema) string { return s.Version })

	cfg := &config.Config{}
	cfg.Models.Dir = dir
	r, err := NewRegistry(cfg)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}

	comps := r.Competitors()
	if len(comps) != 2 {
		t.Fatalf("competitors = %v", comps)
	}
	if _, _, err := r.For(models.Chain); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("chain lookup: %v", err)
	}

	pred, schema, err := r.For(models.CompetitorA)
	if err != nil {
		t.Fatalf("for competitorA: %v", err)
	}
	if pred.SchemaVersion() != schema.Version {
		t.Fatalf("version mismatch slipped through")
	}

	row := models.FeatureRow{
		Names:  []string{"price_rank", "holiday_flag", "month"},
		Values: []float64{3, 1, 12},
	}
	price, err := pred.Predict(context.Background(), row)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	// bias 10 + 2*3 + 5*1; unweighted features contribute nothing.
	if price != 21 {
		t.Fatalf("price = %v, want 21", price)
	}
}

func TestRegistryRefusesStaleModel(t *testing.T) {
	dir := t.TempDir()
	writeArtifacts(t, dir, func(*features.FrozenSchema) string { return "fs-deadbeefdeadbeef" })

	cfg := &config.Config{}
	cfg.Models.Dir = dir
	if _, err := NewRegistry(cfg); !errors.Is(err, models.ErrSchemaMismatch) {
		t.Fatalf("want ErrSchemaMismatch, got %v", err)
	}
}

func TestRegistryRequiresSchema(t *testing.T) {
	cfg := &config.Config{}
	cfg.Models.Dir = t.TempDir()
	if _, err := NewRegistry(cfg); err == nil {
		t.Fatalf("expected error for missing schema files")
	}
}
