package features

import (
	"PriceCast/internal/domain/models"
)

// campaignTypeCodes is the fixed campaign vocabulary. Codes outside it encode
// as 0 (no campaign / unknown).
var campaignTypeCodes = map[string]float64{
	"C1": 1,
	"C2": 2,
	"A1": 3,
	"A2": 4,
	"A3": 5,
}

// CampaignTypeCode encodes a raw campaign code.
func CampaignTypeCode(code string) float64 {
	if v, ok := campaignTypeCodes[code]; ok {
		return v
	}
	return 0
}

// CampaignLookup maps a day key to the campaign code active on that day for
// one competitor.
type CampaignLookup map[int64]string

// ExpandCampaigns turns interval records into a per-day lookup for one
// competitor. Exact duplicate intervals collapse to one; when distinct
// intervals overlap on a day, the later interval in input order wins.
// Expansion is idempotent: re-expanding the same input yields the same table.
func ExpandCampaigns(intervals []models.CampaignInterval, comp models.Competitor) CampaignLookup {
	type key struct {
		start, end int64
		code       string
	}
	seen := make(map[key]struct{}, len(intervals))
	lookup := make(CampaignLookup)
	for _, iv := range intervals {
		if iv.Competitor != comp {
			continue
		}
		if iv.EndDate.Before(iv.StartDate) {
			continue
		}
		k := key{dayKey(iv.StartDate), dayKey(iv.EndDate), iv.CampaignCode}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		for d := k.start; d <= k.end; d++ {
			lookup[d] = iv.CampaignCode
		}
	}
	return lookup
}

// AddCampaign joins the expanded campaign table onto the frame:
// campaign_active is the presence flag, campaign_type the encoded code.
func AddCampaign(rows []*Row, lookup CampaignLookup) {
	for _, r := range rows {
		code, ok := lookup[dayKey(r.TimeKey)]
		if !ok {
			r.Set("campaign_active", 0)
			r.Set("campaign_type", 0)
			continue
		}
		r.Set("campaign_active", 1)
		r.Set("campaign_type", CampaignTypeCode(code))
	}
}
