package features

// leafletCodes is the fixed leaflet vocabulary. Anything else, including an
// absent value, encodes as 0 (unknown).
var leafletCodes = map[string]float64{
	"themed": 1,
	"weekly": 2,
	"short":  3,
}

// LeafletCode encodes a raw leaflet value.
func LeafletCode(s string) float64 {
	if v, ok := leafletCodes[s]; ok {
		return v
	}
	return 0
}

// EncodeLeaflet writes the leaflet code feature for every row.
func EncodeLeaflet(rows []*Row) {
	for _, r := range rows {
		r.Set("leaflet", LeafletCode(r.Leaflet))
	}
}
