//go:build wireinject
// +build wireinject

package di

import (
	"FolioPull/internal/handler/api"
	"FolioPull/internal/scheduler"
	"FolioPull/internal/usecase"
	"FolioPull/pkg/config"
	"FolioPull/pkg/server"

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
		ProvideRedisCache,
		ProvideCache,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,

		// Repositories
		ProvideEntityRegistry,
		ProvideEventPublisher,
		ProvideGhostfolioClient,

		// Use cases
		usecase.NewSnapshotStore,
		ProvideEnricher,
		ProvideRefresher,
		ProvideCatalog,
		ProvideLimitService,
		ProvideReconciler,
		ProvideCoordinator,
		ProvideMaintenanceHandler,

		// Transport
		api.NewHub,
		ProvidePruneLimiter,
		ProvidePortfolioHandler,
		ProvideHTTPServer,
		scheduler.New,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
