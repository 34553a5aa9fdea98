package models

import "time"

// Forecast is a stored prediction for one (sku, time_key), with the actual
// prices filled in later once observed.
type Forecast struct {
	SKU               string
	TimeKey           time.Time
	PvpIsCompetitorA  float64
	PvpIsCompetitorB  float64
	ActualCompetitorA *float64
	ActualCompetitorB *float64
	CreatedAt         time.Time
}

// FeatureRow is the ordered scalar mapping handed to a model. Names and
// Values are index-aligned and follow the frozen training-time schema
// exactly; join keys and the label never appear here.
type FeatureRow struct {
	Names  []string
	Values []float64
}

// Get returns the value for a named feature, or (0, false) if absent.
func (r FeatureRow) Get(name string) (float64, bool) {
	for i, n := range r.Names {
		if n == name {
			return r.Values[i], true
		}
	}
	return 0, false
}
