//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"datapoint-service/infrastructure/config"
	"datapoint-service/interfaces/http/rest"
	"datapoint-service/interfaces/http/rest/handlers"

	"github.com/google/wire"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideAWSConfig,
	ProvideTracer,
	ProvideCollector,
	ProvideDataPointRepository,
	ProvideReadinessChecks,
	ProvideEventPublisher,
	ProvideImportRecorder,
	ProvideExternalService,
	ProvideFeatures,
	ProvideCreateHandler,
	ProvideImportHandler,
	ProvideQueryHandler,
	ProvideCommandBus,
	ProvideQueryBus,
	ProvideErrorHandler,
	ProvideRouterOptions,
	handlers.NewDataPointHandler,
	handlers.NewHealthHandler,
	rest.NewRouter,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container. Call the returned
// cleanup func on shutdown.
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil
}
