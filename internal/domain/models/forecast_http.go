package models

// Requests for the forecast HTTP endpoints. Defined in domain for consistency
// and reuse. TimeKey is the day the forecast refers to: either an integer
// count of days since the unix epoch (the historical wire format) or a
// "2006-01-02" string.

type ForecastRequest struct {
	SKU     string `json:"sku" validate:"required"`
	TimeKey string `json:"time_key" validate:"required"`
}

type ActualPricesRequest struct {
	SKU               string   `json:"sku" validate:"required"`
	TimeKey           string   `json:"time_key" validate:"required"`
	ActualCompetitorA *float64 `json:"pvp_is_competitorA_actual" validate:"required"`
	ActualCompetitorB *float64 `json:"pvp_is_competitorB_actual" validate:"required"`
}

// ForecastResponse mirrors the stored record. Actual fields are omitted until
// recorded.
type ForecastResponse struct {
	SKU               string   `json:"sku"`
	TimeKey           int64    `json:"time_key"`
	PvpIsCompetitorA  float64  `json:"pvp_is_competitorA"`
	PvpIsCompetitorB  float64  `json:"pvp_is_competitorB"`
	ActualCompetitorA *float64 `json:"pvp_is_competitorA_actual,omitempty"`
	ActualCompetitorB *float64 `json:"pvp_is_competitorB_actual,omitempty"`
}
