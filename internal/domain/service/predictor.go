package service

import (
	"context"

	"PriceCast/internal/domain/models"
)

// PricePredictor is the model contract: a trained regression model that maps
// one schema-aligned feature row to a price. The feature order/types must be
// the ones frozen at training time.
type PricePredictor interface {
	Predict(ctx context.Context, row models.FeatureRow) (float64, error)

	// SchemaVersion identifies the frozen schema the model was trained
	// against. A predictor must never run against a different version.
	SchemaVersion() string
}
