//go:build wireinject
// +build wireinject

package di

import (
	"SignalDesk/pkg/config"
	"SignalDesk/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Observability
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideKafkaProducer,
		ProvideClickHouseClient,

		// Market data and storage
		ProvideMarketDataSource,
		ProvideEntryStore,
		ProvideSymbolResolver,

		// Signal sinks
		ProvideStreamHub,
		ProvideSignalPipeline,
		ProvideSignalPublisher,

		// Use cases
		ProvideRefresher,
		ProvideQueryUseCase,

		// HTTP
		ProvideResponseCache,
		ProvideRateLimiter,
		ProvideHandler,
		ProvideHTTPServer,

		// Application server
		ProvideScheduler,
		ProvideApp,
	)
	return &server.App{}, nil
}
