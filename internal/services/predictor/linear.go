package predictor

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"PriceCast/internal/domain/models"
	domsvc "PriceCast/internal/domain/service"
)

// linearArtifact is the on-disk model format produced by the trainer: a
// bias plus per-feature weights, stamped with the schema version the
// weights were fitted against.
type linearArtifact struct {
	SchemaVersion string             `json:"schema_version"`
	Bias          float64            `json:"bias"`
	Weights       map[string]float64 `json:"weights"`
}

// LinearPredictor scores a feature row with a linear model loaded from a
// JSON artifact.
type LinearPredictor struct {
	schemaVersion string
	bias          float64
	weights       map[string]float64
}

// NewLinearPredictor loads a linear model artifact from path.
func NewLinearPredictor(path string) (*LinearPredictor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model %s: %w", path, err)
	}
	var a linearArtifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("parse model %s: %w", path, err)
	}
	if a.SchemaVersion == "" {
		return nil, fmt.Errorf("model %s has no schema version", path)
	}
	return &LinearPredictor{
		schemaVersion: a.SchemaVersion,
		bias:          a.Bias,
		weights:       a.Weights,
	}, nil
}

func (p *LinearPredictor) Predict(_ context.Context, row models.FeatureRow) (float64, error) {
	sum := p.bias
	for i, name := range row.Names {
		if w, ok := p.weights[name]; ok {
			sum += w * row.Values[i]
		}
	}
	return sum, nil
}

func (p *LinearPredictor) SchemaVersion() string { return p.schemaVersion }

var _ domsvc.PricePredictor = (*LinearPredictor)(nil)
