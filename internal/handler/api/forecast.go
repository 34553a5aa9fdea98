package api

import (
	"errors"

	"github.com/labstack/echo/v4"

	"PriceCast/internal/domain/models"
	domrepo "PriceCast/internal/domain/repository"
	"PriceCast/internal/usecase"
	xhttp "PriceCast/pkg/http"
	"PriceCast/pkg/logger"
	"PriceCast/pkg/util"
)

// ForecastHandler exposes the forecast endpoints.
type ForecastHandler struct {
	forecaster *usecase.Forecaster
	store      domrepo.ForecastStore
	metrics    domrepo.Metrics
	log        *logger.Logger
}

func NewForecastHandler(forecaster *usecase.Forecaster, store domrepo.ForecastStore, metrics domrepo.Metrics, log *logger.Logger) *ForecastHandler {
	return &ForecastHandler{forecaster: forecaster, store: store, metrics: metrics, log: log}
}

var _ xhttp.Handler = (*ForecastHandler)(nil)

// RegisterRoutes registers forecast routes on the echo instance.
func (h *ForecastHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/forecast_prices/", h.ForecastPrices)
	e.POST("/actual_prices/", h.ActualPrices)
	e.GET("/forecast_prices/:sku/:time_key", h.GetForecast)
	e.GET("/healthz", h.Health)
}

// ForecastPrices predicts both competitor prices for the requested key.
func (h *ForecastHandler) ForecastPrices(c echo.Context) error {
	req := new(models.ForecastRequest)
	if errs := xhttp.ReadAndValidateRequest(c, req); errs != nil {
		return xhttp.BadRequestResponse(c, errs)
	}

	timeKey, ok := xhttp.ParseTimeKey(req.TimeKey)
	if !ok {
		return xhttp.AppErrorResponse(c, xhttp.UnprocessableEntityError(
			"ERR_INVALID_INPUT", "time_key must be unix days or YYYY-MM-DD"))
	}

	forecast, err := h.forecaster.Forecast(c.Request().Context(), req.SKU, timeKey)
	if err != nil {
		return h.domainError(c, err)
	}
	return xhttp.SuccessResponse(c, toResponse(forecast))
}

// ActualPrices records the observed prices for an existing forecast.
func (h *ForecastHandler) ActualPrices(c echo.Context) error {
	req := new(models.ActualPricesRequest)
	if errs := xhttp.ReadAndValidateRequest(c, req); errs != nil {
		return xhttp.BadRequestResponse(c, errs)
	}

	timeKey, ok := xhttp.ParseTimeKey(req.TimeKey)
	if !ok {
		return xhttp.AppErrorResponse(c, xhttp.UnprocessableEntityError(
			"ERR_INVALID_INPUT", "time_key must be unix days or YYYY-MM-DD"))
	}

	updated, err := h.forecaster.RecordActuals(c.Request().Context(),
		req.SKU, timeKey, *req.ActualCompetitorA, *req.ActualCompetitorB)
	if err != nil {
		return h.domainError(c, err)
	}
	return xhttp.SuccessResponse(c, toResponse(updated))
}

// GetForecast returns a stored forecast.
func (h *ForecastHandler) GetForecast(c echo.Context) error {
	sku := c.Param("sku")
	timeKey, ok := xhttp.ParseTimeKey(c.Param("time_key"))
	if !ok {
		return xhttp.AppErrorResponse(c, xhttp.UnprocessableEntityError(
			"ERR_INVALID_INPUT", "time_key must be unix days or YYYY-MM-DD"))
	}

	forecast, err := h.forecaster.Get(c.Request().Context(), sku, timeKey)
	if err != nil {
		return h.domainError(c, err)
	}
	return xhttp.SuccessResponse(c, toResponse(forecast))
}

// Health reports readiness, including store connectivity.
func (h *ForecastHandler) Health(c echo.Context) error {
	if err := h.store.Ping(c.Request().Context()); err != nil {
		h.log.Error("health check failed", logger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("store unreachable").WithError(err))
	}
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

// domainError maps domain sentinels to API errors.
func (h *ForecastHandler) domainError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, models.ErrInvalidInput):
		h.metrics.RecordError("invalid_input")
		return xhttp.AppErrorResponse(c, xhttp.UnprocessableEntityError(
			"ERR_INVALID_INPUT", err.Error()).WithError(err))
	case errors.Is(err, models.ErrInsufficientHistory):
		h.metrics.RecordError("insufficient_history")
		return xhttp.AppErrorResponse(c, xhttp.UnprocessableEntityError(
			"ERR_INSUFFICIENT_HISTORY", err.Error()).WithError(err))
	case errors.Is(err, models.ErrNotFound):
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("forecast not found").WithError(err))
	default:
		h.metrics.RecordError("internal")
		h.log.Error("forecast request failed", logger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("internal error").WithError(err))
	}
}

func toResponse(f *models.Forecast) *models.ForecastResponse {
	return &models.ForecastResponse{
		SKU:               f.SKU,
		TimeKey:           util.TimeToDayKey(f.TimeKey),
		PvpIsCompetitorA:  f.PvpIsCompetitorA,
		PvpIsCompetitorB:  f.PvpIsCompetitorB,
		ActualCompetitorA: f.ActualCompetitorA,
		ActualCompetitorB: f.ActualCompetitorB,
	}
}
