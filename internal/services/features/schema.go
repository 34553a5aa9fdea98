package features

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"math"
	"os"
	"sort"
	"strings"

	"PriceCast/internal/domain/models"
)

// ColumnKind tells Align how to materialize a column.
type ColumnKind string

const (
	KindFloat       ColumnKind = "float"
	KindInt         ColumnKind = "int"
	KindCategorical ColumnKind = "categorical"
)

// Column is one frozen feature column. Categorical columns carry the level
// vocabulary seen at training time; values encode as level index + 1, with 0
// reserved for unseen levels.
type Column struct {
	Name   string     `json:"name"`
	Kind   ColumnKind `json:"kind"`
	Levels []string   `json:"levels,omitempty"`
}

// FrozenSchema is the training-time feature contract for one competitor's
// model: exact column names, order, and types. Inference must produce this
// shape and nothing else.
type FrozenSchema struct {
	Version    string   `json:"version"`
	Competitor string   `json:"competitor"`
	Columns    []Column `json:"columns"`
}

// CanonicalSchema builds the frozen column list for a competitor. The order
// is fixed: calendar block, own-series block, campaign and category, then
// one rival block per other competitor, then the positioning block.
func CanonicalSchema(comp models.Competitor, categoryLevels []string) *FrozenSchema {
	levels := append([]string(nil), categoryLevels...)
	sort.Strings(levels)

	cols := []Column{
		{Name: "leaflet", Kind: KindInt},
		{Name: "day_of_month", Kind: KindInt},
		{Name: "day_of_week", Kind: KindInt},
		{Name: "month", Kind: KindInt},
		{Name: "holiday_flag", Kind: KindInt},
	}
	for _, w := range Windows {
		cols = append(cols, Column{Name: fmt.Sprintf("rolling_mean_%d", w), Kind: KindFloat})
	}
	for _, w := range Windows {
		cols = append(cols, Column{Name: fmt.Sprintf("rolling_std_%d", w), Kind: KindFloat})
	}
	for _, w := range Windows {
		cols = append(cols, Column{Name: fmt.Sprintf("lag_%d", w), Kind: KindFloat})
	}
	cols = append(cols,
		Column{Name: "campaign_active", Kind: KindInt},
		Column{Name: "campaign_type", Kind: KindInt},
		Column{Name: "structure_level_2", Kind: KindCategorical, Levels: levels},
	)
	for _, c := range models.Others(comp) {
		s := string(c)
		cols = append(cols,
			Column{Name: "pvp_was_" + s, Kind: KindFloat},
			Column{Name: "delta_price_" + s, Kind: KindFloat},
			Column{Name: s + "_price_missing", Kind: KindInt},
			Column{Name: "lag1_price_" + s, Kind: KindFloat},
			Column{Name: "lag7_price_" + s, Kind: KindFloat},
			Column{Name: "delta_" + s + "_lag1", Kind: KindFloat},
			Column{Name: "delta_" + s + "_lag7", Kind: KindFloat},
			Column{Name: "is_cheaper_than_" + s, Kind: KindInt},
		)
	}
	cols = append(cols,
		Column{Name: "is_cheapest", Kind: KindInt},
		Column{Name: "is_most_expensive", Kind: KindInt},
		Column{Name: "price_rank", Kind: KindInt},
	)

	s := &FrozenSchema{Competitor: string(comp), Columns: cols}
	s.Version = s.fingerprint()
	return s
}

// fingerprint derives the schema version from the column names, kinds and
// levels, so any drift in the contract changes the version.
func (s *FrozenSchema) fingerprint() string {
	h := fnv.New64a()
	for _, c := range s.Columns {
		h.Write([]byte(c.Name))
		h.Write([]byte{'|'})
		h.Write([]byte(c.Kind))
		h.Write([]byte{'|'})
		h.Write([]byte(strings.Join(c.Levels, ",")))
		h.Write([]byte{';'})
	}
	return fmt.Sprintf("fs-%016x", h.Sum64())
}

// Align projects a fully derived, zero-filled row onto the frozen schema:
// columns come out in frozen order, extra features are dropped, absent ones
// become 0. The join keys and label never make it into the output.
func (s *FrozenSchema) Align(r *Row) models.FeatureRow {
	names := make([]string, len(s.Columns))
	values := make([]float64, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
		switch c.Kind {
		case KindCategorical:
			values[i] = c.encodeLevel(r.Category)
		default:
			v := r.Get(c.Name)
			if math.IsNaN(v) {
				v = 0
			}
			if c.Kind == KindInt {
				v = math.Round(v)
			}
			values[i] = v
		}
	}
	return models.FeatureRow{Names: names, Values: values}
}

func (c Column) encodeLevel(level string) float64 {
	for i, l := range c.Levels {
		if l == level {
			return float64(i + 1)
		}
	}
	return 0
}

// Save writes the schema artifact as indented JSON.
func (s *FrozenSchema) Save(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write schema %s: %w", path, err)
	}
	return nil
}

// LoadSchema reads a schema artifact and verifies its recorded version still
// matches its columns.
func LoadSchema(path string) (*FrozenSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema %s: %w", path, err)
	}
	var s FrozenSchema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse schema %s: %w", path, err)
	}
	if got := s.fingerprint(); got != s.Version {
		return nil, fmt.Errorf("schema %s: version %s does not match columns (%s): %w",
			path, s.Version, got, models.ErrSchemaMismatch)
	}
	return &s, nil
}
