package predictor

import (
	"context"
	"fmt"
	"time"

	"PriceCast/internal/domain/models"
	domsvc "PriceCast/internal/domain/service"
	xhttp "PriceCast/pkg/http"
)

// HTTPPredictor delegates scoring to an external model-serving endpoint. The
// schema version is taken from the local frozen schema; the remote service
// must be serving a model trained against the same version.
type HTTPPredictor struct {
	baseURL       string
	competitor    models.Competitor
	schemaVersion string
	client        *xhttp.Client
}

// NewHTTPPredictor builds a predictor against the model service at baseURL.
func NewHTTPPredictor(baseURL string, comp models.Competitor, schemaVersion string, timeout time.Duration) *HTTPPredictor {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &HTTPPredictor{
		baseURL:       baseURL,
		competitor:    comp,
		schemaVersion: schemaVersion,
		client:        xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

type predictReq struct {
	Competitor    string    `json:"competitor"`
	SchemaVersion string    `json:"schema_version"`
	Names         []string  `json:"names"`
	Values        []float64 `json:"values"`
}

type predictResp struct {
	Price float64 `json:"price"`
	Model string  `json:"model"`
}

func (p *HTTPPredictor) Predict(ctx context.Context, row models.FeatureRow) (float64, error) {
	var pr predictResp
	err := p.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    p.baseURL + "/predict",
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
		Body: predictReq{
			Competitor:    string(p.competitor),
			SchemaVersion: p.schemaVersion,
			Names:         row.Names,
			Values:        row.Values,
		},
	}, &pr)
	if err != nil {
		return 0, fmt.Errorf("predict %s: %w", p.competitor, err)
	}
	return pr.Price, nil
}

func (p *HTTPPredictor) SchemaVersion() string { return p.schemaVersion }

var _ domsvc.PricePredictor = (*HTTPPredictor)(nil)
