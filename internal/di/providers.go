package di

import (
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"PriceCast/internal/domain/models"
	"PriceCast/internal/domain/repository"
	"PriceCast/internal/handler/api"
	internalrepo "PriceCast/internal/repository"
	"PriceCast/internal/services/features"
	"PriceCast/internal/services/predictor"
	"PriceCast/internal/usecase"
	"PriceCast/pkg/cache"
	pkgch "PriceCast/pkg/clickhouse"
	"PriceCast/pkg/config"
	xhttp "PriceCast/pkg/http"
	pkgkafka "PriceCast/pkg/kafka"
	applogger "PriceCast/pkg/logger"
	"PriceCast/pkg/metrics"
	"PriceCast/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	level := "info"
	format := "json"
	if cfg.Environment == "development" {
		level = "debug"
		format = "console"
	}
	return applogger.New(&applogger.Config{Level: level, Format: format, Output: "stdout"})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideClickHouseClient creates a ClickHouse client when the dataset lives
// in the warehouse; nil otherwise.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if cfg.Dataset.Source != "clickhouse" {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, internalrepo.SchemaStatements()); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideDataset loads the reference tables once at startup.
func ProvideDataset(cfg *config.Config, chClient *pkgch.Client) (*models.Dataset, error) {
	var loader repository.DatasetLoader
	switch cfg.Dataset.Source {
	case "clickhouse":
		loader = internalrepo.NewClickHouseDatasetLoader(chClient)
	default:
		loader = internalrepo.NewCSVDatasetLoader(cfg)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	ds, err := loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	return ds, nil
}

// ProvidePipeline builds the feature pipeline with stage latency metrics.
func ProvidePipeline(ds *models.Dataset, m repository.Metrics) *features.Pipeline {
	p := features.NewPipeline(ds)
	p.Observe = m.RecordStageLatency
	return p
}

// ProvideRegistry loads per-competitor models and schemas.
func ProvideRegistry(cfg *config.Config) (*predictor.Registry, error) {
	return predictor.NewRegistry(cfg)
}

// ProvidePool creates the Postgres pool when a database store is configured;
// nil for the in-memory store.
func ProvidePool(cfg *config.Config) (*internalrepo.Pool, error) {
	if cfg.Store.Type != "postgres" {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return internalrepo.NewPool(ctx, cfg.Store.DSN)
}

// ProvideForecastStore creates the forecast store.
func ProvideForecastStore(cfg *config.Config, pool *internalrepo.Pool) (repository.ForecastStore, error) {
	if cfg.Store.Type != "postgres" {
		return internalrepo.NewMemoryForecastStore(), nil
	}
	store := internalrepo.NewPostgresForecastStore(pool)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.InitSchema(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

// ProvideKafkaProducer creates a Kafka producer when Kafka is enabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvidePublisher creates the forecast event publisher.
func ProvidePublisher(cfg *config.Config, producer *pkgkafka.Producer) repository.Publisher {
	if producer == nil || cfg.Kafka.ForecastTopic == "" {
		return internalrepo.NopPublisher{}
	}
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.ForecastTopic)
}

// ProvideKafkaConsumer creates the actuals consumer when configured.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled || cfg.Kafka.ActualsTopic == "" {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideCache builds the forecast response cache: layered over Redis when
// available, in-process otherwise, nil when disabled.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	if !cfg.Cache.Enabled {
		return nil, nil
	}
	if cfg.Cache.Redis.Enabled {
		host := cfg.Cache.Redis.Addr
		port := 6379
		if h, p, err := net.SplitHostPort(cfg.Cache.Redis.Addr); err == nil {
			host = h
			if n, err := strconv.Atoi(p); err == nil {
				port = n
			}
		}
		redisCache, err := cache.NewRedisCache(
			cache.WithRedisHost(host),
			cache.WithRedisPort(port),
			cache.WithRedisPassword(cfg.Cache.Redis.Password),
			cache.WithRedisDB(cfg.Cache.Redis.DB),
		)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		return cache.NewLayeredCache(redisCache), nil
	}
	return cache.NewMemoryCache(), nil
}

// ProvideForecaster creates the forecast use case.
func ProvideForecaster(
	pipeline *features.Pipeline,
	registry *predictor.Registry,
	store repository.ForecastStore,
	publisher repository.Publisher,
	cacheSvc cache.Service,
	cfg *config.Config,
	m repository.Metrics,
	log *applogger.Logger,
) *usecase.Forecaster {
	return usecase.NewForecaster(pipeline, registry, store, publisher, cacheSvc, cfg.Cache.TTL, m, log)
}

// ProvideActualsHandler creates the actuals topic handler.
func ProvideActualsHandler(cfg *config.Config, forecaster *usecase.Forecaster, log *applogger.Logger) *usecase.ActualsHandler {
	return usecase.NewActualsHandler(cfg.Kafka.ActualsTopic, forecaster, log)
}

// ProvideForecastHandler creates the HTTP handler.
func ProvideForecastHandler(
	forecaster *usecase.Forecaster,
	store repository.ForecastStore,
	m repository.Metrics,
	log *applogger.Logger,
) xhttp.Handler {
	return api.NewForecastHandler(forecaster, store, m, log)
}

// ProvideApp assembles the application and wires teardown.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	handler xhttp.Handler,
	consumer *pkgkafka.Consumer,
	actuals *usecase.ActualsHandler,
	publisher repository.Publisher,
	pool *internalrepo.Pool,
	chClient *pkgch.Client,
	cacheSvc cache.Service,
) *server.App {
	var kh pkgkafka.MessageHandler
	if consumer != nil {
		kh = actuals
	}
	app := server.New(cfg, log, handler, consumer, kh)

	app.OnShutdown("publisher", publisher.Close)
	if cacheSvc != nil {
		if c, ok := cacheSvc.(io.Closer); ok {
			app.OnShutdown("cache", c.Close)
		}
	}
	if pool != nil {
		app.OnShutdown("postgres", func() error { pool.Close(); return nil })
	}
	if chClient != nil {
		app.OnShutdown("clickhouse", chClient.Close)
	}
	return app
}
