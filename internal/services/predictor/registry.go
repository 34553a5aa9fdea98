package predictor

import (
	"fmt"
	"path/filepath"

	"PriceCast/internal/domain/models"
	domsvc "PriceCast/internal/domain/service"
	"PriceCast/internal/services/features"
	"PriceCast/pkg/config"
)

// Registry holds the (predictor, frozen schema) pair for every competitor a
// model exists for. It is immutable after construction.
type Registry struct {
	entries map[models.Competitor]entry
}

type entry struct {
	predictor domsvc.PricePredictor
	schema    *features.FrozenSchema
}

// NewRegistry loads one model per forecastable competitor from the model
// directory. Each competitor needs <name>.schema.json; scoring is either
// remote (models.service_url set) or a local <name>.model.json linear
// artifact. A predictor whose schema version disagrees with its schema file
// is refused at startup rather than at request time.
func NewRegistry(cfg *config.Config) (*Registry, error) {
	r := &Registry{entries: make(map[models.Competitor]entry)}
	for _, comp := range models.Others(models.Chain) {
		schemaPath := filepath.Join(cfg.Models.Dir, string(comp)+".schema.json")
		schema, err := features.LoadSchema(schemaPath)
		if err != nil {
			return nil, fmt.Errorf("load schema for %s: %w", comp, err)
		}

		var p domsvc.PricePredictor
		if cfg.Models.ServiceURL != "" {
			p = NewHTTPPredictor(cfg.Models.ServiceURL, comp, schema.Version, cfg.Models.Timeout)
		} else {
			lp, err := NewLinearPredictor(filepath.Join(cfg.Models.Dir, string(comp)+".model.json"))
			if err != nil {
				return nil, fmt.Errorf("load model for %s: %w", comp, err)
			}
			p = lp
		}
		if p.SchemaVersion() != schema.Version {
			return nil, fmt.Errorf("model for %s trained against schema %s, have %s: %w",
				comp, p.SchemaVersion(), schema.Version, models.ErrSchemaMismatch)
		}
		r.entries[comp] = entry{predictor: p, schema: schema}
	}
	return r, nil
}

// For returns the predictor and frozen schema for a competitor.
func (r *Registry) For(comp models.Competitor) (domsvc.PricePredictor, *features.FrozenSchema, error) {
	e, ok := r.entries[comp]
	if !ok {
		return nil, nil, fmt.Errorf("no model for competitor %s: %w", comp, models.ErrNotFound)
	}
	return e.predictor, e.schema, nil
}

// Competitors lists the competitors the registry can score.
func (r *Registry) Competitors() []models.Competitor {
	var out []models.Competitor
	for _, c := range models.Universe() {
		if _, ok := r.entries[c]; ok {
			out = append(out, c)
		}
	}
	return out
}
