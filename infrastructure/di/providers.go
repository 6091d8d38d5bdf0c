package di

import (
	"context"
	"fmt"
	"net/http"
	"reflect"

	"datapoint-service/application/commands/bus"
	commandhandlers "datapoint-service/application/commands/handlers"
	"datapoint-service/application/features"
	"datapoint-service/application/ports"
	querybus "datapoint-service/application/queries/bus"
	queryhandlers "datapoint-service/application/queries/handlers"
	"datapoint-service/infrastructure/config"
	"datapoint-service/infrastructure/external"
	"datapoint-service/infrastructure/messaging/eventbridge"
	"datapoint-service/infrastructure/persistence/dynamodb"
	"datapoint-service/infrastructure/persistence/memory"
	"datapoint-service/infrastructure/persistence/postgres"
	"datapoint-service/interfaces/http/rest"
	"datapoint-service/interfaces/http/rest/handlers"
	apperrors "datapoint-service/pkg/errors"
	"datapoint-service/pkg/observability"
	"datapoint-service/pkg/trace"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-xray-sdk-go/instrumentation/awsv2"
	"go.uber.org/zap"
)

const serviceName = "datapoint-service"

// Container holds the wired application
type Container struct {
	Config *config.Config
	Logger *zap.Logger
	Router *rest.Router
}

// ProvideLogger creates a new logger instance at the configured level
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	var zcfg zap.Config
	if cfg.IsProduction() {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = level

	return zcfg.Build()
}

// ProvideAWSConfig creates AWS configuration. SDK clients are instrumented
// with X-Ray when tracing is enabled.
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
	if err != nil {
		return aws.Config{}, err
	}
	if cfg.EnableTracing {
		awsv2.AWSV2Instrumentor(&awsCfg.APIOptions)
	}
	return awsCfg, nil
}

// ProvideTracer creates the X-Ray tracer
func ProvideTracer(cfg *config.Config) *observability.Tracer {
	return observability.NewTracer(serviceName, cfg.EnableTracing)
}

// ProvideCollector creates the Prometheus collector, or nil when another
// metrics backend is configured
func ProvideCollector(cfg *config.Config) *observability.Collector {
	if cfg.MetricsBackend != config.MetricsPrometheus {
		return nil
	}
	return observability.NewCollector("datapoint")
}

// ProvideDataPointRepository opens the configured store. The cleanup func
// releases its connections.
func ProvideDataPointRepository(
	ctx context.Context,
	cfg *config.Config,
	awsCfg aws.Config,
	logger *zap.Logger,
) (ports.DataPointRepository, func(), error) {
	switch cfg.StoreBackend {
	case config.StorePostgres:
		pool, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewDataPointRepository(pool, logger), pool.Close, nil
	case config.StoreDynamoDB:
		client := awsdynamodb.NewFromConfig(awsCfg)
		return dynamodb.NewDataPointRepository(client, cfg.DynamoDBTable, logger), func() {}, nil
	default:
		return memory.NewDataPointRepository(logger), func() {}, nil
	}
}

// pinger is implemented by stores backed by a remote service
type pinger interface {
	Ping(ctx context.Context) error
}

// ProvideReadinessChecks registers a store check when the store can be pinged
func ProvideReadinessChecks(repo ports.DataPointRepository) map[string]handlers.ReadinessCheck {
	checks := map[string]handlers.ReadinessCheck{}
	if p, ok := repo.(pinger); ok {
		checks["store"] = p.Ping
	}
	return checks
}

// ProvideEventPublisher publishes to EventBridge when a bus is configured
func ProvideEventPublisher(cfg *config.Config, awsCfg aws.Config, logger *zap.Logger) ports.EventPublisher {
	if cfg.EventBusName == "" {
		return eventbridge.NewNoopPublisher(logger)
	}
	return eventbridge.NewPublisher(awseventbridge.NewFromConfig(awsCfg), cfg.EventBusName, logger)
}

// ProvideImportRecorder routes import outcomes to the metrics backend
func ProvideImportRecorder(
	cfg *config.Config,
	awsCfg aws.Config,
	collector *observability.Collector,
	logger *zap.Logger,
) ports.ImportRecorder {
	switch cfg.MetricsBackend {
	case config.MetricsPrometheus:
		return collector
	case config.MetricsCloudWatch:
		namespace := fmt.Sprintf("DataPoints/%s", cfg.Environment)
		return observability.NewCloudWatchRecorder(namespace, awscloudwatch.NewFromConfig(awsCfg), logger)
	default:
		return observability.NoopRecorder{}
	}
}

// ProvideExternalService creates the upstream client
func ProvideExternalService(cfg *config.Config, tracer *observability.Tracer, logger *zap.Logger) ports.ExternalService {
	return external.NewClient(
		external.Config{
			BaseURL:     cfg.ExternalServiceBaseURL,
			Timeout:     cfg.ExternalServiceTimeout,
			RetryMax:    cfg.ExternalServiceRetryMax,
			TraceHeader: cfg.TraceIDHeader,
		},
		tracer.Client(&http.Client{}),
		logger,
	)
}

// ProvideCommandBus creates a command bus with registered handlers
func ProvideCommandBus(
	create *commandhandlers.CreateDataPointHandler,
	importer *commandhandlers.ImportDataPointsHandler,
	tracer *observability.Tracer,
	logger *zap.Logger,
) (*bus.CommandBus, error) {
	commandBus := bus.NewCommandBus(
		tracingMiddleware(tracer),
		bus.LoggingMiddleware(logger),
	)
	if err := commandhandlers.RegisterDataPointHandlers(commandBus, create, importer); err != nil {
		return nil, err
	}
	return commandBus, nil
}

// tracingMiddleware runs each command in its own X-Ray subsegment
func tracingMiddleware(tracer *observability.Tracer) bus.Middleware {
	return func(next bus.CommandHandler) bus.CommandHandler {
		return bus.CommandHandlerFunc(func(ctx context.Context, cmd bus.Command) (interface{}, error) {
			var result interface{}
			err := tracer.TraceFunction(ctx, reflect.TypeOf(cmd).Name(), func(ctx context.Context) error {
				tracer.AddAnnotation(ctx, "trace_id", trace.ID(ctx))
				var err error
				result, err = next.Handle(ctx, cmd)
				return err
			})
			return result, err
		})
	}
}

// ProvideQueryBus creates a query bus with registered handlers. Query
// metrics are recorded when Prometheus is the metrics backend.
func ProvideQueryBus(handler *queryhandlers.DataPointQueryHandler, collector *observability.Collector) (*querybus.QueryBus, error) {
	var metrics *querybus.MetricsMiddleware
	if collector != nil {
		metrics = querybus.NewMetricsMiddleware(queryMetrics{collector: collector})
	}

	queryBus := querybus.NewQueryBus(metrics)
	if err := handler.Register(queryBus); err != nil {
		return nil, err
	}
	return queryBus, nil
}

// queryMetrics adapts the Prometheus collector to the query bus metrics
type queryMetrics struct {
	collector *observability.Collector
}

func (m queryMetrics) StartTimer(_, label string) querybus.Timer {
	return timerFunc(m.collector.StartQueryTimer(label))
}

func (m queryMetrics) Increment(metric, label string) {
	m.collector.IncrementQuery(metric, label)
}

type timerFunc func()

func (f timerFunc) Stop() { f() }

// ProvideErrorHandler creates the HTTP error renderer. Unhandled error
// messages are exposed outside production.
func ProvideErrorHandler(cfg *config.Config, logger *zap.Logger) *apperrors.ErrorHandler {
	return apperrors.NewErrorHandler(logger, !cfg.IsProduction())
}

// ProvideRouterOptions collects the router's optional parts
func ProvideRouterOptions(cfg *config.Config, collector *observability.Collector, tracer *observability.Tracer) rest.Options {
	settings := cfg.TraceSettings()
	return rest.Options{
		Settings:    settings,
		Generator:   trace.NewHeaderIDGenerator(settings.HeaderName),
		Collector:   collector,
		Tracer:      tracer,
		CORSOrigins: cfg.CORSOrigins(),
	}
}

// ProvideFeatures builds the feature graph shared by commands and queries
func ProvideFeatures(
	repo ports.DataPointRepository,
	publisher ports.EventPublisher,
	externalService ports.ExternalService,
	recorder ports.ImportRecorder,
	logger *zap.Logger,
) *Features {
	persist := features.NewPersistDataPointFeature(repo)
	update := features.NewUpdateDataPointFeature(persist, publisher, logger)
	create := features.NewCreateDataPointFeature(update)
	byExternal := features.NewGetDataPointByExternalIDFeature(repo)

	return &Features{
		Create:     create,
		Import:     features.NewImportDataPointsFeature(externalService, byExternal, create, update, recorder, logger),
		ByID:       features.NewGetDataPointByIDFeature(repo),
		ByExternal: byExternal,
		FindAll:    features.NewFindAllDataPointsFeature(repo),
	}
}

// Features groups the application features exposed through the buses
type Features struct {
	Create     *features.CreateDataPointFeature
	Import     *features.ImportDataPointsFeature
	ByID       *features.GetDataPointByIDFeature
	ByExternal *features.GetDataPointByExternalIDFeature
	FindAll    *features.FindAllDataPointsFeature
}

// ProvideCreateHandler creates the create command handler
func ProvideCreateHandler(f *Features) *commandhandlers.CreateDataPointHandler {
	return commandhandlers.NewCreateDataPointHandler(f.Create)
}

// ProvideImportHandler creates the import command handler
func ProvideImportHandler(f *Features) *commandhandlers.ImportDataPointsHandler {
	return commandhandlers.NewImportDataPointsHandler(f.Import)
}

// ProvideQueryHandler creates the data point query handler
func ProvideQueryHandler(f *Features) *queryhandlers.DataPointQueryHandler {
	return queryhandlers.NewDataPointQueryHandler(f.ByID, f.ByExternal, f.FindAll)
}
