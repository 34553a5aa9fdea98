package features

import (
	"time"

	"PriceCast/internal/domain/models"
)

// Pipeline runs the full feature derivation over a frame. It is built once
// from the loaded dataset and holds the prepared join tables; Apply itself
// mutates only the rows it is given, so one Pipeline serves concurrent
// requests.
type Pipeline struct {
	calendar   *HolidayCalendar
	history    []models.PriceObservation
	campaigns  map[models.Competitor]CampaignLookup
	categories map[string]string

	// Observe, when set, receives per-stage wall time.
	Observe func(stage string, seconds float64)
}

// NewPipeline prepares the join tables: deduplicated price history, per-day
// campaign lookups per competitor, and the sku to category index.
func NewPipeline(ds *models.Dataset) *Pipeline {
	p := &Pipeline{
		calendar:   NewPortugalCalendar(),
		history:    models.DedupPrices(ds.Prices),
		campaigns:  make(map[models.Competitor]CampaignLookup, len(models.Universe())),
		categories: BuildCategoryIndex(ds.Structures),
	}
	for _, c := range models.Universe() {
		p.campaigns[c] = ExpandCampaigns(ds.Campaigns, c)
	}
	return p
}

// History returns the deduplicated price history the pipeline was built from.
func (p *Pipeline) History() []models.PriceObservation { return p.history }

// Categories returns the category levels seen in the dataset, for schema
// freezing.
func (p *Pipeline) Categories() []string {
	seen := make(map[string]struct{}, len(p.categories))
	var out []string
	for _, v := range p.categories {
		if _, ok := seen[v]; ok || v == "" {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// HistoryRows builds the frame rows for one (sku, competitor) series up to
// and including upTo, in time order.
func (p *Pipeline) HistoryRows(sku string, comp models.Competitor, upTo time.Time) []*Row {
	var rows []*Row
	for _, o := range p.history {
		if o.SKU != sku || o.Competitor != comp || o.TimeKey.After(upTo) {
			continue
		}
		rows = append(rows, NewRow(o))
	}
	return rows
}

// Apply derives every feature for a frame built for one competitor. Rows are
// sorted by sku and time first; stages then run in fixed order so later
// stages can rely on earlier columns.
func (p *Pipeline) Apply(rows []*Row, comp models.Competitor) {
	SortFrame(rows)
	p.stage("temporal", func() { AddTemporal(rows, p.calendar) })
	p.stage("leaflet", func() { EncodeLeaflet(rows) })
	p.stage("campaign", func() { AddCampaign(rows, p.campaigns[comp]) })
	p.stage("category", func() { AddCategory(rows, p.categories) })
	p.stage("timeseries", func() { AddTimeSeries(rows) })
	p.stage("competitor", func() { AddCrossCompetitor(rows, p.history, comp) })
}

func (p *Pipeline) stage(name string, fn func()) {
	start := time.Now()
	fn()
	if p.Observe != nil {
		p.Observe(name, time.Since(start).Seconds())
	}
}
