package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"PriceCast/internal/domain/models"
	"PriceCast/internal/repository"
	"PriceCast/internal/services/features"
	"PriceCast/internal/services/predictor"
	"PriceCast/internal/usecase"
	"PriceCast/pkg/config"
	"PriceCast/pkg/logger"
)

type stubMetrics struct {
	errors map[string]int
}

func (m *stubMetrics) RecordForecast(string, float64) {}
func (m *stubMetrics) RecordError(kind string) {
	if m.errors == nil {
		m.errors = map[string]int{}
	}
	m.errors[kind]++
}
func (m *stubMetrics) RecordStageLatency(string, float64) {}

func newTestHandler(t *testing.T) (*echo.Echo, *stubMetrics) {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}

	start := time.Date(2024, time.October, 1, 0, 0, 0, 0, time.UTC)
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
	pipeline := features.NewPipeline(ds)

	dir := t.TempDir()
	for _, comp := range models.Others(models.Chain) {
		schema := features.CanonicalSchema(comp, pipeline.Categories())
		if err := schema.Save(filepath.Join(dir, string(comp)+".schema.json")); err != nil {
			t.Fatalf("save schema: %v", err)
		}
		artifact, _ := json.Marshal(map[string]any{
			"schema_version": schema.Version,
			"bias":           0.0,
			"weights":        map[string]float64{"price_rank": 1},
		})
		if err := os.WriteFile(filepath.Join(dir, string(comp)+".model.json"), artifact, 0o644); err != nil {
			t.Fatalf("write model: %v", err)
		}
	}
	cfg := &config.Config{}
	cfg.Models.Dir = dir
	registry, err := predictor.NewRegistry(cfg)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}

	store := repository.NewMemoryForecastStore()
	metrics := &stubMetrics{}
	forecaster := usecase.NewForecaster(
		pipeline, registry, store, repository.NopPublisher{}, nil, 0, metrics, log)

	e := echo.New()
	NewForecastHandler(forecaster, store, metrics, log).RegisterRoutes(e)
	return e, metrics
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func do(t *testing.T, e *echo.Echo, method, path, body string) envelope {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("bad response body %q: %v", rec.Body.String(), err)
	}
	return env
}

func TestForecastEndpoint(t *testing.T) {
	e, _ := newTestHandler(t)

	env := do(t, e, http.MethodPost, "/forecast_prices/",
		`{"sku":"p1","time_key":"2024-10-11"}`)
	if env.Status != http.StatusOK {
		t.Fatalf("status = %d, data %s", env.Status, env.Data)
	}

	var resp models.ForecastResponse
	if err := json.Unmarshal(env.Data, &resp); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if resp.SKU != "p1" {
		t.Fatalf("sku = %s", resp.SKU)
	}
	if resp.PvpIsCompetitorA != 3 || resp.PvpIsCompetitorB != 2 {
		t.Fatalf("prices = %v / %v, want 3 / 2", resp.PvpIsCompetitorA, resp.PvpIsCompetitorB)
	}
	if resp.ActualCompetitorA != nil {
		t.Fatalf("fresh forecast carries actuals")
	}

	// The same key is readable back, with time_key accepted in day form.
	get := do(t, e, http.MethodGet,
		"/forecast_prices/p1/"+strconv.FormatInt(resp.TimeKey, 10), "")
	if get.Status != http.StatusOK {
		t.Fatalf("get status = %d", get.Status)
	}
}

func TestForecastValidation(t *testing.T) {
	e, _ := newTestHandler(t)

	env := do(t, e, http.MethodPost, "/forecast_prices/", `{"sku":"p1"}`)
	if env.Status != http.StatusBadRequest {
		t.Fatalf("missing time_key status = %d", env.Status)
	}

	env = do(t, e, http.MethodPost, "/forecast_prices/",
		`{"sku":"p1","time_key":"next tuesday"}`)
	if env.Status != http.StatusUnprocessableEntity {
		t.Fatalf("bad time_key status = %d", env.Status)
	}
}

func TestForecastUnknownSKU(t *testing.T) {
	e, metrics := newTestHandler(t)

	env := do(t, e, http.MethodPost, "/forecast_prices/",
		`{"sku":"ghost","time_key":"2024-10-11"}`)
	if env.Status != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", env.Status)
	}
	var appErrs []struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(env.Data, &appErrs); err != nil || len(appErrs) != 1 {
		t.Fatalf("error payload %s: %v", env.Data, err)
	}
	if appErrs[0].Code != "ERR_INSUFFICIENT_HISTORY" {
		t.Fatalf("code = %s", appErrs[0].Code)
	}
	if metrics.errors["insufficient_history"] != 1 {
		t.Fatalf("error metric not recorded")
	}
}

func TestGetForecastNotFound(t *testing.T) {
	e, _ := newTestHandler(t)

	env := do(t, e, http.MethodGet, "/forecast_prices/p1/2024-10-11", "")
	if env.Status != http.StatusNotFound {
		t.Fatalf("status = %d", env.Status)
	}
}

func TestActualPricesEndpoint(t *testing.T) {
	e, _ := newTestHandler(t)

	if env := do(t, e, http.MethodPost, "/forecast_prices/",
		`{"sku":"p1","time_key":"2024-10-11"}`); env.Status != http.StatusOK {
		t.Fatalf("forecast status = %d", env.Status)
	}

	env := do(t, e, http.MethodPost, "/actual_prices/",
		`{"sku":"p1","time_key":"2024-10-11","pvp_is_competitorA_actual":101.5,"pvp_is_competitorB_actual":89.9}`)
	if env.Status != http.StatusOK {
		t.Fatalf("actuals status = %d, data %s", env.Status, env.Data)
	}
	var resp models.ForecastResponse
	if err := json.Unmarshal(env.Data, &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ActualCompetitorA == nil || *resp.ActualCompetitorA != 101.5 {
		t.Fatalf("actual A = %v", resp.ActualCompetitorA)
	}

	// Required actuals missing fails validation, not the store.
	env = do(t, e, http.MethodPost, "/actual_prices/",
		`{"sku":"p1","time_key":"2024-10-11"}`)
	if env.Status != http.StatusBadRequest {
		t.Fatalf("missing actuals status = %d", env.Status)
	}
}

func TestHealthz(t *testing.T) {
	e, _ := newTestHandler(t)

	env := do(t, e, http.MethodGet, "/healthz", "")
	if env.Status != http.StatusOK {
		t.Fatalf("status = %d", env.Status)
	}
}
