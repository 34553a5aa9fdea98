package main

import (
	"context"
	"flag"
	"log"

	"PriceCast/internal/di"
	"PriceCast/internal/usecase"
	"PriceCast/pkg/config"
	applogger "PriceCast/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	outDir := flag.String("out", "", "output directory (default: models.dir)")
	chunkSize := flag.Int("chunk", 50000, "max rows per feature chunk")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	l, err := applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}

	chClient, err := di.ProvideClickHouseClient(cfg)
	if err != nil {
		log.Fatalf("clickhouse init failed: %v", err)
	}
	if chClient != nil {
		defer chClient.Close()
	}

	ds, err := di.ProvideDataset(cfg, chClient)
	if err != nil {
		log.Fatalf("dataset load failed: %v", err)
	}
	pipeline := di.ProvidePipeline(ds, di.ProvideMetrics())

	dir := *outDir
	if dir == "" {
		dir = cfg.Models.Dir
	}

	trainer := usecase.NewTrainer(pipeline, dir, *chunkSize, l)
	if err := trainer.Run(context.Background()); err != nil {
		log.Fatalf("training run failed: %v", err)
	}
}
