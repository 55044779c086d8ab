//go:build wireinject
// +build wireinject

package di

import (
	"FinSignal/pkg/config"
	"FinSignal/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// The returned cleanup closes infrastructure in reverse construction order.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		// Infrastructure clients
		ProvideKafkaProducer,
		ProvideLogger,
		ProvideMetrics,
		ProvideCache,

		// Repositories
		ProvideUniverseCache,
		ProvideRunLock,
		ProvideMarketData,
		ProvideNotifier,

		// Use cases
		ProvideEvaluator,
		ProvideOrchestrator,
		ProvideRunner,

		// HTTP + application
		ProvideRunsHandler,
		ProvideApp,
	)
	return nil, nil, nil
}
