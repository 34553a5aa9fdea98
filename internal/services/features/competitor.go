package features

import (
	"math"
	"sort"

	"PriceCast/internal/domain/models"
)

// pricePlaceholder stands in for a missing comparator price in the
// positioning flags, so a missing rival never looks cheap.
const pricePlaceholder = 1e12

// AddCrossCompetitor derives the rival-price features for a frame built for
// one competitor: the forward-filled rival price columns, deltas against the
// row's own price, rival lags, and the positioning block (is_cheapest,
// is_most_expensive, price_rank).
//
// The row's own price is taken forward-filled within its SKU series, so the
// synthetic target row (which has no observed price yet) is positioned by the
// last price it was seen at. Rival lags shift within the rival's own
// observation series and join back on the exact (sku, day); a day the rival
// never priced lags as 0. The frame must be sorted by sku then time.
func AddCrossCompetitor(rows []*Row, history []models.PriceObservation, current models.Competitor) {
	others := models.Others(current)

	idx := make(map[models.Competitor]map[skuDay]float64, len(others))
	lags := make(map[models.Competitor]rivalLags, len(others))
	for _, c := range others {
		idx[c] = make(map[skuDay]float64)
		lags[c] = buildRivalLags(history, c)
	}
	for _, o := range history {
		m, ok := idx[o.Competitor]
		if !ok || !o.HasPrice {
			continue
		}
		k := skuDay{o.SKU, dayKey(o.TimeKey)}
		if _, dup := m[k]; !dup {
			m[k] = o.PvpWas
		}
	}

	for _, run := range skuRuns(rows) {
		series := rows[run[0]:run[1]]
		n := len(series)

		eff := make([]float64, n)
		last := math.NaN()
		for i, r := range series {
			if !math.IsNaN(r.PvpWas) {
				last = r.PvpWas
			}
			eff[i] = last
		}

		filled := make(map[models.Competitor][]float64, len(others))
		for _, c := range others {
			col := make([]float64, n)
			lastSeen := math.NaN()
			for i, r := range series {
				if v, ok := idx[c][skuDay{r.SKU, dayKey(r.TimeKey)}]; ok {
					lastSeen = v
				}
				col[i] = lastSeen
			}
			filled[c] = col
		}

		for i, r := range series {
			own := eff[i]
			for _, c := range others {
				suffix := string(c)
				rival := filled[c][i]

				r.Set("pvp_was_"+suffix, rival)
				missing := 0.0
				if math.IsNaN(rival) {
					missing = 1
				}
				r.Set(suffix+"_price_missing", missing)

				rival0 := rival
				if math.IsNaN(rival0) {
					rival0 = 0
				}
				if math.IsNaN(own) {
					r.Set("delta_price_"+suffix, math.NaN())
				} else {
					r.Set("delta_price_"+suffix, own-rival0)
				}

				k := skuDay{r.SKU, dayKey(r.TimeKey)}
				l1 := lags[c].lag1[k]
				l7 := lags[c].lag7[k]
				r.Set("lag1_price_"+suffix, l1)
				r.Set("lag7_price_"+suffix, l7)
				if math.IsNaN(own) {
					r.Set("delta_"+suffix+"_lag1", math.NaN())
					r.Set("delta_"+suffix+"_lag7", math.NaN())
				} else {
					r.Set("delta_"+suffix+"_lag1", own-l1)
					r.Set("delta_"+suffix+"_lag7", own-l7)
				}

				cmp := rival
				if math.IsNaN(cmp) {
					cmp = pricePlaceholder
				}
				cheaper := 0.0
				if !math.IsNaN(own) && own < cmp {
					cheaper = 1
				}
				r.Set("is_cheaper_than_"+suffix, cheaper)
			}

			setPositioning(r, own, others, filled, i)
		}
	}
}

// setPositioning writes is_cheapest, is_most_expensive and price_rank. The
// rank is 1 + the number of present comparators strictly below the own
// price; an unknown own price or a fully missing comparator set ranks last
// (count of comparators + 1) with both flags down.
func setPositioning(r *Row, own float64, others []models.Competitor, filled map[models.Competitor][]float64, i int) {
	n := len(others)
	allMissing := true
	cheapest, mostExpensive := 1.0, 1.0
	below := 0
	for _, c := range others {
		v := filled[c][i]
		if !math.IsNaN(v) {
			allMissing = false
			if v < own {
				below++
			}
		} else {
			v = pricePlaceholder
		}
		if !(own < v) {
			cheapest = 0
		}
		if !(own > v) {
			mostExpensive = 0
		}
	}
	if math.IsNaN(own) {
		r.Set("is_cheapest", 0)
		r.Set("is_most_expensive", 0)
		r.Set("price_rank", float64(n+1))
		return
	}
	r.Set("is_cheapest", cheapest)
	r.Set("is_most_expensive", mostExpensive)
	if allMissing {
		r.Set("price_rank", float64(n+1))
		return
	}
	r.Set("price_rank", float64(1+below))
}

// rivalLags holds, keyed by (sku, day) of a rival observation, the rival's
// price one and seven observations earlier in its own series. Days absent
// from the maps read as 0 through the zero-value lookup.
type rivalLags struct {
	lag1 map[skuDay]float64
	lag7 map[skuDay]float64
}

func buildRivalLags(history []models.PriceObservation, comp models.Competitor) rivalLags {
	type obsAt struct {
		day   int64
		price float64
	}
	bySKU := make(map[string][]obsAt)
	seen := make(map[skuDay]struct{})
	for _, o := range history {
		if o.Competitor != comp {
			continue
		}
		k := skuDay{o.SKU, dayKey(o.TimeKey)}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		p := math.NaN()
		if o.HasPrice {
			p = o.PvpWas
		}
		bySKU[o.SKU] = append(bySKU[o.SKU], obsAt{day: k.day, price: p})
	}

	out := rivalLags{lag1: make(map[skuDay]float64), lag7: make(map[skuDay]float64)}
	for sku, series := range bySKU {
		sort.Slice(series, func(i, j int) bool { return series[i].day < series[j].day })
		for i, o := range series {
			k := skuDay{sku, o.day}
			if i >= 1 && !math.IsNaN(series[i-1].price) {
				out.lag1[k] = series[i-1].price
			}
			if i >= 7 && !math.IsNaN(series[i-7].price) {
				out.lag7[k] = series[i-7].price
			}
		}
	}
	return out
}
