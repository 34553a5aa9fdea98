package usecase

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"PriceCast/pkg/util"
)

func TestActualsHandlerRecords(t *testing.T) {
	f, store, _ := newTestForecaster(t, &recordingPublisher{})
	ctx := context.Background()
	target := day(2024, time.October, 11)

	if _, err := f.Forecast(ctx, "p1", target); err != nil {
		t.Fatalf("forecast: %v", err)
	}

	h := NewActualsHandler("actual.prices", f, testLogger(t))
	if h.Topic() != "actual.prices" {
		t.Fatalf("topic = %s", h.Topic())
	}

	payload, _ := json.Marshal(ActualPricesEvent{
		SKU:     "p1",
		TimeKey: util.TimeToDayKey(target),
		ActualA: 101.5,
		ActualB: 89.9,
	})
	if err := h.Handle(ctx, payload); err != nil {
		t.Fatalf("handle: %v", err)
	}

	stored, err := store.Get(ctx, "p1", target)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.ActualCompetitorA == nil || *stored.ActualCompetitorA != 101.5 {
		t.Fatalf("actual A = %v", stored.ActualCompetitorA)
	}
}

func TestActualsHandlerDropsBadEvents(t *testing.T) {
	f, _, _ := newTestForecaster(t, &recordingPublisher{})
	h := NewActualsHandler("actual.prices", f, testLogger(t))
	ctx := context.Background()

	// Malformed JSON, missing sku, and unknown keys are all dropped rather
	// than retried.
	if err := h.Handle(ctx, []byte("{not json")); err != nil {
		t.Fatalf("malformed payload must be dropped: %v", err)
	}
	if err := h.Handle(ctx, []byte(`{"time_key":19900}`)); err != nil {
		t.Fatalf("missing sku must be dropped: %v", err)
	}
	payload, _ := json.Marshal(ActualPricesEvent{SKU: "ghost", TimeKey: 19900, ActualA: 1, ActualB: 2})
	if err := h.Handle(ctx, payload); err != nil {
		t.Fatalf("unknown forecast must be dropped: %v", err)
	}
}
