package predictor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"PriceCast/internal/domain/models"
)

func TestHTTPPredictor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/predict" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req predictReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Competitor != "competitorA" || req.SchemaVersion != "fs-0123456789abcdef" {
			t.Errorf("request = %+v", req)
		}
		if len(req.Names) != len(req.Values) {
			t.Errorf("names/values misaligned")
		}
		json.NewEncoder(w).Encode(predictResp{Price: 42.5, Model: "gbm-7"})
	}))
	defer srv.Close()

	p := NewHTTPPredictor(srv.URL, models.CompetitorA, "fs-0123456789abcdef", 0)
	price, err := p.Predict(context.Background(), models.FeatureRow{
		Names:  []string{"price_rank"},
		Values: []float64{3},
	})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if price != 42.5 {
		t.Fatalf("price = %v, want 42.5", price)
	}
}

func TestHTTPPredictorRemoteFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := NewHTTPPredictor(srv.URL, models.CompetitorB, "fs-0123456789abcdef", 0)
	if _, err := p.Predict(context.Background(), models.FeatureRow{}); err == nil {
		t.Fatalf("expected error on 503")
	}
}
