package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"PriceCast/internal/domain/models"
	"PriceCast/pkg/logger"
	"PriceCast/pkg/util"
)

// ActualPricesEvent is the wire form of an observed-price message on the
// actuals topic.
type ActualPricesEvent struct {
	SKU     string  `json:"sku"`
	TimeKey int64   `json:"time_key"`
	ActualA float64 `json:"pvp_is_competitorA_actual"`
	ActualB float64 `json:"pvp_is_competitorB_actual"`
}

// ActualsHandler consumes observed-price events and attaches them to stored
// forecasts. Events for keys never forecast are logged and dropped; only
// transient failures are surfaced so the consumer retries them.
type ActualsHandler struct {
	topic      string
	forecaster *Forecaster
	log        *logger.Logger
}

func NewActualsHandler(topic string, forecaster *Forecaster, log *logger.Logger) *ActualsHandler {
	return &ActualsHandler{topic: topic, forecaster: forecaster, log: log}
}

func (h *ActualsHandler) Topic() string { return h.topic }

func (h *ActualsHandler) Handle(ctx context.Context, payload []byte) error {
	var ev ActualPricesEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		// Malformed payloads never become valid on retry.
		h.log.Error("malformed actuals event", logger.Error(err))
		return nil
	}
	if ev.SKU == "" {
		h.log.Error("actuals event without sku")
		return nil
	}

	timeKey := util.DayKeyToTime(ev.TimeKey)
	_, err := h.forecaster.RecordActuals(ctx, ev.SKU, timeKey, ev.ActualA, ev.ActualB)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			h.log.Warn("actuals for unknown forecast",
				logger.String("sku", ev.SKU),
				logger.Int64("time_key", ev.TimeKey),
			)
			return nil
		}
		if errors.Is(err, models.ErrInvalidInput) {
			h.log.Error("invalid actuals event",
				logger.String("sku", ev.SKU),
				logger.Error(err),
			)
			return nil
		}
		return fmt.Errorf("record actuals %s/%d: %w", ev.SKU, ev.TimeKey, err)
	}

	h.log.Info("actuals recorded",
		logger.String("sku", ev.SKU),
		logger.Int64("time_key", ev.TimeKey),
	)
	return nil
}
