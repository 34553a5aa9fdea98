package features

import (
	"math"
	"testing"
	"time"

	"PriceCast/internal/domain/models"
)

func obs(sku string, d time.Time, comp models.Competitor, price float64) models.PriceObservation {
	return models.PriceObservation{SKU: sku, TimeKey: d, Competitor: comp, PvpWas: price, HasPrice: true}
}

func crossFrame(t *testing.T) ([]*Row, map[int64]*Row) {
	t.Helper()
	start := day(2024, time.June, 3)
	d := func(n int) time.Time { return start.AddDate(0, 0, n-1) }

	rows := []*Row{
		obsRow("p", d(1), 100),
		obsRow("p", d(2), 102),
		{SKU: "p", TimeKey: d(3), Competitor: models.CompetitorA, PvpWas: math.NaN(), F: map[string]float64{}},
		TargetRow("p", models.CompetitorA, d(5)),
	}
	history := []models.PriceObservation{
		obs("p", d(1), models.Chain, 50),
		obs("p", d(2), models.Chain, 55),
		obs("p", d(2), models.CompetitorB, 90),
	}
	SortFrame(rows)
	AddCrossCompetitor(rows, history, models.CompetitorA)

	byDay := make(map[int64]*Row)
	for _, r := range rows {
		byDay[dayKey(r.TimeKey)] = r
	}
	return rows, byDay
}

func TestCrossCompetitorJoinAndDeltas(t *testing.T) {
	start := day(2024, time.June, 3)
	_, byDay := crossFrame(t)
	d2 := byDay[dayKey(start.AddDate(0, 0, 1))]

	if got := d2.Get("pvp_was_chain"); got != 55 {
		t.Fatalf("pvp_was_chain = %v, want 55", got)
	}
	if got := d2.Get("delta_price_chain"); got != 47 {
		t.Fatalf("delta_price_chain = %v, want 47", got)
	}
	if got := d2.Get("chain_price_missing"); got != 0 {
		t.Fatalf("chain_price_missing = %v, want 0", got)
	}
	if got := d2.Get("lag1_price_chain"); got != 50 {
		t.Fatalf("lag1_price_chain = %v, want 50", got)
	}
	if got := d2.Get("delta_chain_lag1"); got != 52 {
		t.Fatalf("delta_chain_lag1 = %v, want 52", got)
	}
}

func TestCrossCompetitorMissingRival(t *testing.T) {
	start := day(2024, time.June, 3)
	_, byDay := crossFrame(t)
	d1 := byDay[dayKey(start)]

	if got := d1.Get("pvp_was_competitorB"); !math.IsNaN(got) {
		t.Fatalf("pvp_was_competitorB = %v, want NaN before first observation", got)
	}
	if got := d1.Get("competitorB_price_missing"); got != 1 {
		t.Fatalf("competitorB_price_missing = %v, want 1", got)
	}
	// Rival lags are zero-filled when there is no earlier observation.
	if got := d1.Get("lag1_price_chain"); got != 0 {
		t.Fatalf("lag1_price_chain = %v, want 0", got)
	}
	// Positioning: chain present at 50, B missing. Rank counts only present
	// comparators; the placeholder keeps a missing rival from looking cheap.
	if got := d1.Get("price_rank"); got != 2 {
		t.Fatalf("price_rank = %v, want 2", got)
	}
	if got := d1.Get("is_most_expensive"); got != 0 {
		t.Fatalf("is_most_expensive = %v, want 0 with missing comparator", got)
	}
}

func TestCrossCompetitorForwardFillReachesTarget(t *testing.T) {
	start := day(2024, time.June, 3)
	_, byDay := crossFrame(t)
	target := byDay[dayKey(start.AddDate(0, 0, 4))]

	// Own price forward-fills through the unpriced day 3 observation, rivals
	// forward-fill from their last sighting.
	if got := target.Get("pvp_was_chain"); got != 55 {
		t.Fatalf("target pvp_was_chain = %v, want 55", got)
	}
	if got := target.Get("delta_price_competitorB"); got != 12 {
		t.Fatalf("target delta_price_competitorB = %v, want 12", got)
	}
	if got := target.Get("price_rank"); got != 3 {
		t.Fatalf("target price_rank = %v, want 3", got)
	}
	if got := target.Get("is_most_expensive"); got != 1 {
		t.Fatalf("target is_most_expensive = %v, want 1", got)
	}
	if got := target.Get("is_cheapest"); got != 0 {
		t.Fatalf("target is_cheapest = %v, want 0", got)
	}
	if got := target.Get("is_cheaper_than_chain"); got != 0 {
		t.Fatalf("target is_cheaper_than_chain = %v, want 0", got)
	}
}

func TestCrossCompetitorLagsJoinByExactDay(t *testing.T) {
	start := day(2024, time.June, 3)
	d := func(n int) time.Time { return start.AddDate(0, 0, n-1) }

	rows := make([]*Row, 0, 6)
	history := make([]models.PriceObservation, 0, 5)
	for n := 1; n <= 5; n++ {
		rows = append(rows, obsRow("p", d(n), 100))
		history = append(history, obs("p", d(n), models.Chain, float64(49+n)))
	}
	rows = append(rows, TargetRow("p", models.CompetitorA, d(6)))
	SortFrame(rows)
	AddCrossCompetitor(rows, history, models.CompetitorA)

	d5, target := rows[4], rows[5]

	// A day the rival priced joins its previous observation.
	if got := d5.Get("lag1_price_chain"); got != 53 {
		t.Fatalf("day 5 lag1_price_chain = %v, want 53", got)
	}
	// The target day has no rival observation, so the lag joins nothing
	// and zero-fills even though the rival priced the day before.
	if got := target.Get("lag1_price_chain"); got != 0 {
		t.Fatalf("target lag1_price_chain = %v, want 0", got)
	}
	if got := target.Get("lag7_price_chain"); got != 0 {
		t.Fatalf("target lag7_price_chain = %v, want 0", got)
	}
	if got := target.Get("delta_chain_lag1"); got != 100 {
		t.Fatalf("target delta_chain_lag1 = %v, want 100", got)
	}
	// The level column still forward-fills to the target.
	if got := target.Get("pvp_was_chain"); got != 54 {
		t.Fatalf("target pvp_was_chain = %v, want 54", got)
	}
}

func TestPositioningNoRivalsAtAll(t *testing.T) {
	rows := []*Row{obsRow("q", day(2024, time.June, 3), 10)}
	AddCrossCompetitor(rows, nil, models.CompetitorA)

	if got := rows[0].Get("price_rank"); got != 3 {
		t.Fatalf("price_rank = %v, want comparators+1 = 3", got)
	}
	if got := rows[0].Get("is_cheapest"); got != 1 {
		t.Fatalf("is_cheapest = %v, want 1 against placeholder prices", got)
	}
	if got := rows[0].Get("is_most_expensive"); got != 0 {
		t.Fatalf("is_most_expensive = %v, want 0", got)
	}
}

func TestPositioningUnknownOwnPrice(t *testing.T) {
	rows := []*Row{TargetRow("q", models.CompetitorA, day(2024, time.June, 3))}
	history := []models.PriceObservation{
		obs("q", day(2024, time.June, 3), models.Chain, 50),
	}
	AddCrossCompetitor(rows, history, models.CompetitorA)

	if got := rows[0].Get("price_rank"); got != 3 {
		t.Fatalf("price_rank = %v, want 3 when own price unknown", got)
	}
	if got := rows[0].Get("is_cheapest"); got != 0 {
		t.Fatalf("is_cheapest = %v, want 0", got)
	}
	if got := rows[0].Get("is_most_expensive"); got != 0 {
		t.Fatalf("is_most_expensive = %v, want 0", got)
	}
	if got := rows[0].Get("delta_price_chain"); !math.IsNaN(got) {
		t.Fatalf("delta_price_chain = %v, want NaN", got)
	}
}
