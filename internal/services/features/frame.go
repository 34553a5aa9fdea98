package features

import (
	"math"
	"sort"
	"time"

	"PriceCast/internal/domain/models"
)

// Row is one observation flowing through the feature pipeline: the fixed join
// keys plus the growing map of derived features. Missing numeric values are
// represented as NaN until the final zero-fill.
type Row struct {
	SKU        string
	TimeKey    time.Time
	Competitor models.Competitor
	Leaflet    string
	Category   string
	PvpWas     float64 // NaN when unobserved (the synthetic target row)
	F          map[string]float64
}

// NewRow builds a Row from a raw price observation.
func NewRow(o models.PriceObservation) *Row {
	p := math.NaN()
	if o.HasPrice {
		p = o.PvpWas
	}
	return &Row{
		SKU:        o.SKU,
		TimeKey:    o.TimeKey,
		Competitor: o.Competitor,
		Leaflet:    o.Leaflet,
		PvpWas:     p,
		F:          make(map[string]float64, 48),
	}
}

// TargetRow builds the synthetic placeholder row for a forecast date: no
// leaflet, no observed price.
func TargetRow(sku string, comp models.Competitor, timeKey time.Time) *Row {
	return &Row{
		SKU:        sku,
		TimeKey:    timeKey,
		Competitor: comp,
		PvpWas:     math.NaN(),
		F:          make(map[string]float64, 48),
	}
}

// Set records a derived feature value.
func (r *Row) Set(name string, v float64) { r.F[name] = v }

// Get returns a derived feature value, NaN if never computed.
func (r *Row) Get(name string) float64 {
	if v, ok := r.F[name]; ok {
		return v
	}
	return math.NaN()
}

// Missing reports whether v is the missing-value sentinel.
func Missing(v float64) bool { return math.IsNaN(v) }

// ZeroFill replaces every remaining missing feature value with 0. Run once,
// after all fallbacks, right before schema alignment.
func (r *Row) ZeroFill() {
	for k, v := range r.F {
		if math.IsNaN(v) {
			r.F[k] = 0
		}
	}
}

// SortFrame orders rows by sku then time_key, the order every downstream
// stage assumes.
func SortFrame(rows []*Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].SKU != rows[j].SKU {
			return rows[i].SKU < rows[j].SKU
		}
		return rows[i].TimeKey.Before(rows[j].TimeKey)
	})
}

// dayKey collapses a timestamp to a whole-day key for joins.
func dayKey(t time.Time) int64 {
	return t.UTC().Unix() / 86400
}

// skuDay is the (sku, day) composite join key used by cross-competitor joins.
type skuDay struct {
	sku string
	day int64
}

// skuRuns yields [start, end) index ranges of contiguous equal-SKU runs in a
// sorted frame. Per-SKU stages (forward fill, lags, rolling stats) operate on
// one run at a time so one SKU's series is never split.
func skuRuns(rows []*Row) [][2]int {
	var runs [][2]int
	for start := 0; start < len(rows); {
		end := start + 1
		for end < len(rows) && rows[end].SKU == rows[start].SKU {
			end++
		}
		runs = append(runs, [2]int{start, end})
		start = end
	}
	return runs
}
