package features

import (
	"math"
	"testing"
	"time"

	"PriceCast/internal/domain/models"
)

// pipelineDataset builds a ten-day history for one SKU: competitorA and chain
// priced every day, competitorB seen only through day five.
func pipelineDataset() *models.Dataset {
	start := day(2024, time.October, 1)
	ds := &models.Dataset{}
	for i := 0; i < 10; i++ {
		d := start.AddDate(0, 0, i)
		own := obs("p1", d, models.CompetitorA, 100)
		if i == 1 {
			own.Leaflet = "weekly"
		}
		ds.Prices = append(ds.Prices, own)
		ds.Prices = append(ds.Prices, obs("p1", d, models.Chain, 50))
		if i < 5 {
			ds.Prices = append(ds.Prices, obs("p1", d, models.CompetitorB, 90))
		}
	}
	ds.Campaigns = []models.CampaignInterval{
		{
			Competitor:   models.CompetitorA,
			StartDate:    day(2024, time.October, 3),
			EndDate:      day(2024, time.October, 4),
			CampaignCode: "C1",
		},
	}
	ds.Structures = []models.ProductStructure{{SKU: "p1", StructureLevel2: "beer"}}
	return ds
}

func TestPipelineEndToEnd(t *testing.T) {
	p := NewPipeline(pipelineDataset())

	var stages []string
	p.Observe = func(stage string, seconds float64) {
		if seconds < 0 {
			t.Fatalf("negative stage latency for %s", stage)
		}
		stages = append(stages, stage)
	}

	target := day(2024, time.October, 11)
	rows := p.HistoryRows("p1", models.CompetitorA, day(2024, time.October, 10))
	if len(rows) != 10 {
		t.Fatalf("history rows = %d, want 10", len(rows))
	}
	rows = append(rows, TargetRow("p1", models.CompetitorA, target))
	p.Apply(rows, models.CompetitorA)

	if len(stages) != 6 || stages[0] != "temporal" || stages[5] != "competitor" {
		t.Fatalf("stages observed = %v", stages)
	}

	byDay := make(map[int64]*Row)
	for _, r := range rows {
		byDay[dayKey(r.TimeKey)] = r
	}
	tr := byDay[dayKey(target)]

	// Calendar block. 2024-10-11 is a Friday and not a public holiday.
	if got := tr.Get("day_of_month"); got != 11 {
		t.Fatalf("day_of_month = %v", got)
	}
	if got := tr.Get("day_of_week"); got != 4 {
		t.Fatalf("day_of_week = %v, want 4", got)
	}
	if got := tr.Get("month"); got != 10 {
		t.Fatalf("month = %v", got)
	}
	if got := tr.Get("holiday_flag"); got != 0 {
		t.Fatalf("holiday_flag = %v", got)
	}

	// Leaflet encodes per row, not forward-filled.
	if got := byDay[dayKey(day(2024, time.October, 2))].Get("leaflet"); got != 2 {
		t.Fatalf("leaflet on flyer day = %v, want 2", got)
	}
	if got := tr.Get("leaflet"); got != 0 {
		t.Fatalf("target leaflet = %v, want 0", got)
	}

	// Campaign only covers October 3-4.
	if got := byDay[dayKey(day(2024, time.October, 3))].Get("campaign_type"); got != 1 {
		t.Fatalf("campaign_type on C1 day = %v, want 1", got)
	}
	if got := tr.Get("campaign_active"); got != 0 {
		t.Fatalf("target campaign_active = %v", got)
	}

	if tr.Category != "beer" {
		t.Fatalf("category = %q, want beer", tr.Category)
	}

	// Own-series block: flat 100s, the target itself unpriced.
	if got := tr.Get("rolling_mean_7"); got != 100 {
		t.Fatalf("rolling_mean_7 = %v, want 100", got)
	}
	if got := tr.Get("rolling_std_7"); got != 0 {
		t.Fatalf("rolling_std_7 = %v, want 0", got)
	}
	if got := tr.Get("lag_7"); got != 100 {
		t.Fatalf("lag_7 = %v, want 100", got)
	}

	// Rival block: chain forward-fills at 50, competitorB from its last
	// sighting at 90.
	if got := tr.Get("pvp_was_chain"); got != 50 {
		t.Fatalf("pvp_was_chain = %v, want 50", got)
	}
	if got := tr.Get("delta_price_chain"); got != 50 {
		t.Fatalf("delta_price_chain = %v, want 50", got)
	}
	if got := tr.Get("pvp_was_competitorB"); got != 90 {
		t.Fatalf("pvp_was_competitorB = %v, want 90", got)
	}
	if got := tr.Get("delta_price_competitorB"); got != 10 {
		t.Fatalf("delta_price_competitorB = %v, want 10", got)
	}
	if got := tr.Get("competitorB_price_missing"); got != 0 {
		t.Fatalf("competitorB_price_missing = %v, want 0 after forward fill", got)
	}

	// Positioning: priciest of the three.
	if got := tr.Get("price_rank"); got != 3 {
		t.Fatalf("price_rank = %v, want 3", got)
	}
	if got := tr.Get("is_most_expensive"); got != 1 {
		t.Fatalf("is_most_expensive = %v, want 1", got)
	}
	if got := tr.Get("is_cheapest"); got != 0 {
		t.Fatalf("is_cheapest = %v, want 0", got)
	}
}

func TestPipelineAlignedTargetRow(t *testing.T) {
	p := NewPipeline(pipelineDataset())
	schema := CanonicalSchema(models.CompetitorA, p.Categories())

	target := day(2024, time.October, 11)
	rows := append(
		p.HistoryRows("p1", models.CompetitorA, day(2024, time.October, 10)),
		TargetRow("p1", models.CompetitorA, target),
	)
	p.Apply(rows, models.CompetitorA)

	tr := rows[len(rows)-1]
	if !tr.TimeKey.Equal(target) {
		t.Fatalf("frame order changed; last row is %v", tr.TimeKey)
	}
	tr.ZeroFill()
	got := schema.Align(tr)

	for _, v := range got.Values {
		if math.IsNaN(v) {
			t.Fatalf("NaN survived zero fill and alignment")
		}
	}
	if v, _ := got.Get("structure_level_2"); v != 1 {
		t.Fatalf("structure_level_2 = %v, want 1", v)
	}
	if v, _ := got.Get("price_rank"); v != 3 {
		t.Fatalf("aligned price_rank = %v, want 3", v)
	}
}

func TestPipelineDeduplicatesHistory(t *testing.T) {
	ds := pipelineDataset()
	ds.Prices = append(ds.Prices, obs("p1", day(2024, time.October, 1), models.CompetitorA, 999))
	p := NewPipeline(ds)

	rows := p.HistoryRows("p1", models.CompetitorA, day(2024, time.October, 10))
	if len(rows) != 10 {
		t.Fatalf("history rows = %d, want duplicates collapsed to 10", len(rows))
	}
	SortFrame(rows)
	if rows[0].PvpWas != 100 {
		t.Fatalf("first observation kept %v, want the earlier 100", rows[0].PvpWas)
	}
}
