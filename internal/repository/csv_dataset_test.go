package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"PriceCast/internal/domain/models"
	"PriceCast/pkg/config"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func csvLoader(t *testing.T, prices, campaigns, structure string) *CSVDatasetLoader {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "prices.csv", prices)
	writeFile(t, dir, "campaigns.csv", campaigns)
	writeFile(t, dir, "product_structure.csv", structure)
	cfg := &config.Config{}
	cfg.Dataset.DataDir = dir
	return NewCSVDatasetLoader(cfg)
}

const (
	goodCampaigns = "competitor,start_date,end_date,campaign\ncompetitorA,20241003,20241004,C1\n"
	goodStructure = "sku,structure_level_2\np1,beer\n"
)

func TestCSVLoad(t *testing.T) {
	prices := "sku,time_key,competitor,leaflet,pvp_was\n" +
		"p1,20241001,competitorA,weekly,100.5\n" +
		"p1,20241001,chain,,50\n" +
		"p1,20241002,competitorA,,\n" // unrecorded price
	l := csvLoader(t, prices, goodCampaigns, goodStructure)

	ds, err := l.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if len(ds.Prices) != 3 {
		t.Fatalf("prices = %d, want 3", len(ds.Prices))
	}
	first := ds.Prices[0]
	if first.PvpWas != 100.5 || !first.HasPrice || first.Leaflet != "weekly" {
		t.Fatalf("first price row = %+v", first)
	}
	want := time.Date(2024, time.October, 1, 0, 0, 0, 0, time.UTC)
	if !first.TimeKey.Equal(want) {
		t.Fatalf("time_key = %v, want %v", first.TimeKey, want)
	}
	if ds.Prices[2].HasPrice {
		t.Fatalf("empty pvp_was cell must mean no recorded price")
	}

	if len(ds.Campaigns) != 1 || ds.Campaigns[0].CampaignCode != "C1" {
		t.Fatalf("campaigns = %+v", ds.Campaigns)
	}
	if len(ds.Structures) != 1 || ds.Structures[0].StructureLevel2 != "beer" {
		t.Fatalf("structures = %+v", ds.Structures)
	}
}

func TestCSVLoadHeaderOrderIndependent(t *testing.T) {
	prices := "pvp_was,competitor,sku,time_key\n77,chain,p2,20241001\n"
	l := csvLoader(t, prices, goodCampaigns, goodStructure)

	ds, err := l.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if ds.Prices[0].SKU != "p2" || ds.Prices[0].PvpWas != 77 {
		t.Fatalf("row = %+v", ds.Prices[0])
	}
	if ds.Prices[0].Competitor != models.Chain {
		t.Fatalf("competitor = %v", ds.Prices[0].Competitor)
	}
}

func TestCSVLoadRejectsMalformedRows(t *testing.T) {
	cases := map[string]string{
		"bad date":           "sku,time_key,competitor,pvp_was\np1,2024-10-01,chain,50\n",
		"unknown competitor": "sku,time_key,competitor,pvp_was\np1,20241001,rivalX,50\n",
		"empty sku":          "sku,time_key,competitor,pvp_was\n,20241001,chain,50\n",
		"bad price":          "sku,time_key,competitor,pvp_was\np1,20241001,chain,cheap\n",
	}
	for name, prices := range cases {
		l := csvLoader(t, prices, goodCampaigns, goodStructure)
		if _, err := l.Load(context.Background()); err == nil {
			t.Fatalf("%s: expected load failure", name)
		}
	}
}

func TestCSVLoadMissingFile(t *testing.T) {
	cfg := &config.Config{}
	cfg.Dataset.DataDir = t.TempDir()
	if _, err := NewCSVDatasetLoader(cfg).Load(context.Background()); err == nil {
		t.Fatalf("expected error for missing files")
	}
}
