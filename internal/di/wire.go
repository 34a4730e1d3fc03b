//go:build wireinject
// +build wireinject

package di

import (
	"VinSight/pkg/config"
	"VinSight/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,
		ProvideCache,

		// Infrastructure clients
		ProvideDataService,
		ProvideCompleter,
		ProvideKafkaProducer,
		ProvideClickHouseClient,

		// Repositories
		ProvideAuditBuffer,
		ProvideOutcomeStore,

		// Pipeline and use cases
		ProvideRunner,
		ProvideAnalysisService,
		ProvidePulseCollector,

		// HTTP surface and application server
		ProvideHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
