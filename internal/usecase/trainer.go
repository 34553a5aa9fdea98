package usecase

import (
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"PriceCast/internal/domain/models"
	"PriceCast/internal/services/features"
	"PriceCast/pkg/logger"
	"PriceCast/pkg/util"
)

// Trainer produces the training artifacts for each forecastable competitor:
// a labeled feature CSV and the frozen schema the model must be fit against.
// Model fitting itself happens outside this process.
type Trainer struct {
	pipeline  *features.Pipeline
	outDir    string
	chunkSize int
	log       *logger.Logger
}

func NewTrainer(pipeline *features.Pipeline, outDir string, chunkSize int, log *logger.Logger) *Trainer {
	if chunkSize <= 0 {
		chunkSize = 50000
	}
	return &Trainer{pipeline: pipeline, outDir: outDir, chunkSize: chunkSize, log: log}
}

// Run generates artifacts for every competitor a model is trained for.
func (t *Trainer) Run(ctx context.Context) error {
	if err := os.MkdirAll(t.outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	for _, comp := range models.Others(models.Chain) {
		if err := t.runCompetitor(ctx, comp); err != nil {
			return fmt.Errorf("train %s: %w", comp, err)
		}
	}
	return nil
}

func (t *Trainer) runCompetitor(ctx context.Context, comp models.Competitor) error {
	schema := features.CanonicalSchema(comp, t.pipeline.Categories())
	if err := schema.Save(filepath.Join(t.outDir, string(comp)+".schema.json")); err != nil {
		return err
	}

	outPath := filepath.Join(t.outDir, string(comp)+".training.csv")
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", outPath, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := append([]string{"sku", "time_key", "pvp_was"}, columnNames(schema)...)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	var total, dropped int
	for _, chunk := range t.chunks(comp) {
		if err := ctx.Err(); err != nil {
			return err
		}
		t.pipeline.Apply(chunk, comp)
		for _, row := range chunk {
			// Rows without an observed price carry no label to learn from.
			if math.IsNaN(row.PvpWas) {
				dropped++
				continue
			}
			row.ZeroFill()
			aligned := schema.Align(row)
			rec := make([]string, 0, len(header))
			rec = append(rec,
				row.SKU,
				strconv.FormatInt(util.TimeToDayKey(row.TimeKey), 10),
				strconv.FormatFloat(row.PvpWas, 'f', -1, 64),
			)
			for _, v := range aligned.Values {
				rec = append(rec, strconv.FormatFloat(v, 'f', -1, 64))
			}
			if err := w.Write(rec); err != nil {
				return fmt.Errorf("write row: %w", err)
			}
			total++
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", outPath, err)
	}

	t.log.Info("training artifacts written",
		logger.String("competitor", string(comp)),
		logger.String("schema_version", schema.Version),
		logger.Int("rows", total),
		logger.Int("unlabeled_dropped", dropped),
	)
	return nil
}

// chunks splits the competitor's history into frames of roughly chunkSize
// rows, cutting only at SKU boundaries so no price series is ever split
// across chunks.
func (t *Trainer) chunks(comp models.Competitor) [][]*features.Row {
	var all []*features.Row
	for _, o := range t.pipeline.History() {
		if o.Competitor != comp {
			continue
		}
		all = append(all, features.NewRow(o))
	}
	features.SortFrame(all)

	var out [][]*features.Row
	start := 0
	for i := 1; i <= len(all); i++ {
		atBoundary := i == len(all) || all[i].SKU != all[i-1].SKU
		if atBoundary && i-start >= t.chunkSize {
			out = append(out, all[start:i])
			start = i
		}
	}
	if start < len(all) {
		out = append(out, all[start:])
	}
	return out
}

func columnNames(s *features.FrozenSchema) []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}
