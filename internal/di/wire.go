//go:build wireinject
// +build wireinject

package di

import (
	"PriceCast/pkg/config"
	"PriceCast/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvidePool,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideCache,

		// Data and models
		ProvideDataset,
		ProvidePipeline,
		ProvideRegistry,

		// Repositories
		ProvideForecastStore,
		ProvidePublisher,

		// Use cases
		ProvideForecaster,
		ProvideActualsHandler,

		// HTTP
		ProvideForecastHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
