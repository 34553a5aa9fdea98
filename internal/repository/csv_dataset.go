package repository

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"PriceCast/internal/domain/models"
	domrepo "PriceCast/internal/domain/repository"
	"PriceCast/pkg/config"
	"PriceCast/pkg/util"
)

// CSVDatasetLoader reads the three reference tables from CSV files with
// header rows. Dates use the compact YYYYMMDD form; an empty pvp_was cell
// marks an unrecorded price.
type CSVDatasetLoader struct {
	pricesPath    string
	campaignsPath string
	structurePath string
}

// NewCSVDatasetLoader resolves the file paths from config, with defaults
// under the data directory.
func NewCSVDatasetLoader(cfg *config.Config) *CSVDatasetLoader {
	dir := cfg.Dataset.DataDir
	pick := func(name, def string) string {
		if name == "" {
			name = def
		}
		return filepath.Join(dir, name)
	}
	return &CSVDatasetLoader{
		pricesPath:    pick(cfg.Dataset.PricesFile, "prices.csv"),
		campaignsPath: pick(cfg.Dataset.CampaignsFile, "campaigns.csv"),
		structurePath: pick(cfg.Dataset.StructureFile, "product_structure.csv"),
	}
}

var _ domrepo.DatasetLoader = (*CSVDatasetLoader)(nil)

// Load reads all three files. Any malformed row fails the whole load; a
// partially read dataset would silently skew every feature downstream.
func (l *CSVDatasetLoader) Load(ctx context.Context) (*models.Dataset, error) {
	prices, err := l.loadPrices(ctx)
	if err != nil {
		return nil, err
	}
	campaigns, err := l.loadCampaigns(ctx)
	if err != nil {
		return nil, err
	}
	structures, err := l.loadStructures(ctx)
	if err != nil {
		return nil, err
	}
	return &models.Dataset{Prices: prices, Campaigns: campaigns, Structures: structures}, nil
}

// csvRows opens a CSV file and yields header-keyed records.
func csvRows(ctx context.Context, path string, fn func(get func(col string) string) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return fmt.Errorf("read header %s: %w", path, err)
	}
	colIdx := make(map[string]int, len(header))
	for i, h := range header {
		colIdx[h] = i
	}

	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec, err := r.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read %s line %d: %w", path, line, err)
		}
		get := func(col string) string {
			i, ok := colIdx[col]
			if !ok || i >= len(rec) {
				return ""
			}
			return rec[i]
		}
		if err := fn(get); err != nil {
			return fmt.Errorf("%s line %d: %w", path, line, err)
		}
	}
}

func (l *CSVDatasetLoader) loadPrices(ctx context.Context) ([]models.PriceObservation, error) {
	var out []models.PriceObservation
	err := csvRows(ctx, l.pricesPath, func(get func(string) string) error {
		t, ok := util.ParseYYYYMMDD(get("time_key"))
		if !ok {
			return fmt.Errorf("bad time_key %q", get("time_key"))
		}
		comp := get("competitor")
		if !models.ValidCompetitor(comp) {
			return fmt.Errorf("unknown competitor %q", comp)
		}
		o := models.PriceObservation{
			SKU:        get("sku"),
			TimeKey:    t,
			Competitor: models.Competitor(comp),
			Leaflet:    get("leaflet"),
		}
		if o.SKU == "" {
			return fmt.Errorf("empty sku")
		}
		if raw := get("pvp_was"); raw != "" {
			p, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return fmt.Errorf("bad pvp_was %q: %w", raw, err)
			}
			o.PvpWas = p
			o.HasPrice = true
		}
		out = append(out, o)
		return nil
	})
	return out, err
}

func (l *CSVDatasetLoader) loadCampaigns(ctx context.Context) ([]models.CampaignInterval, error) {
	var out []models.CampaignInterval
	err := csvRows(ctx, l.campaignsPath, func(get func(string) string) error {
		start, ok := util.ParseYYYYMMDD(get("start_date"))
		if !ok {
			return fmt.Errorf("bad start_date %q", get("start_date"))
		}
		end, ok := util.ParseYYYYMMDD(get("end_date"))
		if !ok {
			return fmt.Errorf("bad end_date %q", get("end_date"))
		}
		comp := get("competitor")
		if !models.ValidCompetitor(comp) {
			return fmt.Errorf("unknown competitor %q", comp)
		}
		out = append(out, models.CampaignInterval{
			Competitor:   models.Competitor(comp),
			StartDate:    start,
			EndDate:      end,
			CampaignCode: get("campaign"),
		})
		return nil
	})
	return out, err
}

func (l *CSVDatasetLoader) loadStructures(ctx context.Context) ([]models.ProductStructure, error) {
	var out []models.ProductStructure
	err := csvRows(ctx, l.structurePath, func(get func(string) string) error {
		sku := get("sku")
		if sku == "" {
			return fmt.Errorf("empty sku")
		}
		out = append(out, models.ProductStructure{
			SKU:             sku,
			StructureLevel2: get("structure_level_2"),
		})
		return nil
	})
	return out, err
}
