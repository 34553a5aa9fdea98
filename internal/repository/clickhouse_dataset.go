package repository

import (
	"context"
	"fmt"
	"time"

	"PriceCast/internal/domain/models"
	domrepo "PriceCast/internal/domain/repository"
	"PriceCast/pkg/clickhouse"
)

// ClickHouseDatasetLoader reads the reference tables from ClickHouse, for
// deployments where the raw price feed lands in the warehouse instead of
// flat files.
type ClickHouseDatasetLoader struct {
	client *clickhouse.Client
}

// NewClickHouseDatasetLoader creates the loader.
func NewClickHouseDatasetLoader(client *clickhouse.Client) *ClickHouseDatasetLoader {
	return &ClickHouseDatasetLoader{client: client}
}

var _ domrepo.DatasetLoader = (*ClickHouseDatasetLoader)(nil)

// SchemaStatements returns the idempotent DDL for the three source tables.
func SchemaStatements() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS price_observations (
			sku String,
			time_key Date,
			competitor LowCardinality(String),
			pvp_was Nullable(Float64),
			leaflet LowCardinality(String)
		) ENGINE = MergeTree()
		ORDER BY (competitor, sku, time_key)`,
		`CREATE TABLE IF NOT EXISTS campaigns (
			competitor LowCardinality(String),
			start_date Date,
			end_date Date,
			campaign LowCardinality(String)
		) ENGINE = MergeTree()
		ORDER BY (competitor, start_date)`,
		`CREATE TABLE IF NOT EXISTS product_structure (
			sku String,
			structure_level_2 LowCardinality(String)
		) ENGINE = MergeTree()
		ORDER BY sku`,
	}
}

func (l *ClickHouseDatasetLoader) Load(ctx context.Context) (*models.Dataset, error) {
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

func (l *ClickHouseDatasetLoader) loadPrices(ctx context.Context) ([]models.PriceObservation, error) {
	query := `
		SELECT sku, time_key, competitor, pvp_was, leaflet
		FROM price_observations
		ORDER BY competitor, sku, time_key
	`
	rows, err := l.client.DB().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query prices: %w", err)
	}
	defer rows.Close()

	var out []models.PriceObservation
	for rows.Next() {
		var o models.PriceObservation
		var comp string
		var t time.Time
		var pvp *float64
		if err := rows.Scan(&o.SKU, &t, &comp, &pvp, &o.Leaflet); err != nil {
			return nil, fmt.Errorf("scan price: %w", err)
		}
		if !models.ValidCompetitor(comp) {
			return nil, fmt.Errorf("unknown competitor %q", comp)
		}
		o.TimeKey = t.UTC()
		o.Competitor = models.Competitor(comp)
		if pvp != nil {
			o.PvpWas = *pvp
			o.HasPrice = true
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (l *ClickHouseDatasetLoader) loadCampaigns(ctx context.Context) ([]models.CampaignInterval, error) {
	query := `
		SELECT competitor, start_date, end_date, campaign
		FROM campaigns
		ORDER BY competitor, start_date
	`
	rows, err := l.client.DB().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query campaigns: %w", err)
	}
	defer rows.Close()

	var out []models.CampaignInterval
	for rows.Next() {
		var iv models.CampaignInterval
		var comp string
		var start, end time.Time
		if err := rows.Scan(&comp, &start, &end, &iv.CampaignCode); err != nil {
			return nil, fmt.Errorf("scan campaign: %w", err)
		}
		if !models.ValidCompetitor(comp) {
			return nil, fmt.Errorf("unknown competitor %q", comp)
		}
		iv.Competitor = models.Competitor(comp)
		iv.StartDate = start.UTC()
		iv.EndDate = end.UTC()
		out = append(out, iv)
	}
	return out, rows.Err()
}

func (l *ClickHouseDatasetLoader) loadStructures(ctx context.Context) ([]models.ProductStructure, error) {
	query := `SELECT sku, structure_level_2 FROM product_structure`
	rows, err := l.client.DB().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query structure: %w", err)
	}
	defer rows.Close()

	var out []models.ProductStructure
	for rows.Next() {
		var s models.ProductStructure
		if err := rows.Scan(&s.SKU, &s.StructureLevel2); err != nil {
			return nil, fmt.Errorf("scan structure: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
