package models

import (
	"sort"
	"time"
)

// Competitor identifies one of the fixed price-observation sources.
type Competitor string

const (
	Chain       Competitor = "chain"
	CompetitorA Competitor = "competitorA"
	CompetitorB Competitor = "competitorB"
)

// Universe returns all known competitors in fixed priority order.
func Universe() []Competitor {
	return []Competitor{Chain, CompetitorA, CompetitorB}
}

// Others returns the universe minus the given competitor, order preserved.
func Others(c Competitor) []Competitor {
	out := make([]Competitor, 0, 2)
	for _, u := range Universe() {
		if u != c {
			out = append(out, u)
		}
	}
	return out
}

// ValidCompetitor reports whether s names a known competitor.
func ValidCompetitor(s string) bool {
	for _, u := range Universe() {
		if string(u) == s {
			return true
		}
	}
	return false
}

// PriceObservation is one raw price row: what a competitor charged for a SKU
// on a given day. PvpWas is the observed selling price; HasPrice is false for
// rows where the price was not recorded.
type PriceObservation struct {
	SKU        string
	TimeKey    time.Time
	Competitor Competitor
	Leaflet    string // "" when absent
	PvpWas     float64
	HasPrice   bool
}

// CampaignInterval is a closed date range during which a named campaign runs
// for a competitor.
type CampaignInterval struct {
	Competitor   Competitor
	StartDate    time.Time
	EndDate      time.Time
	CampaignCode string
}

// ProductStructure attaches a static category attribute to a SKU.
type ProductStructure struct {
	SKU             string
	StructureLevel2 string
}

// Dataset bundles the three reference tables loaded once per process. After
// loading it is treated as read-only; requests must not mutate it.
type Dataset struct {
	Prices     []PriceObservation
	Campaigns  []CampaignInterval
	Structures []ProductStructure
}

// DedupPrices collapses duplicate (sku, competitor, time_key) rows keeping the
// first occurrence, and returns rows sorted by competitor, sku, time_key.
func DedupPrices(obs []PriceObservation) []PriceObservation {
	type key struct {
		sku  string
		comp Competitor
		day  int64
	}
	seen := make(map[key]struct{}, len(obs))
	out := make([]PriceObservation, 0, len(obs))
	for _, o := range obs {
		k := key{sku: o.SKU, comp: o.Competitor, day: o.TimeKey.Unix()}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, o)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Competitor != out[j].Competitor {
			return out[i].Competitor < out[j].Competitor
		}
		if out[i].SKU != out[j].SKU {
			return out[i].SKU < out[j].SKU
		}
		return out[i].TimeKey.Before(out[j].TimeKey)
	})
	return out
}
