package rest

import (
	"net/http"

	"datapoint-service/interfaces/http/rest/handlers"
	"datapoint-service/interfaces/http/rest/middleware"
	apperrors "datapoint-service/pkg/errors"
	"datapoint-service/pkg/observability"
	"datapoint-service/pkg/trace"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Router creates and configures the HTTP router
type Router struct {
	dataPoints   *handlers.DataPointHandler
	health       *handlers.HealthHandler
	errorHandler *apperrors.ErrorHandler
	settings     trace.Settings
	generator    trace.IDGenerator
	collector    *observability.Collector
	tracer       *observability.Tracer
	corsOrigins  []string
	logger       *zap.Logger
}

// Options carries the optional parts of the router. A nil collector
// disables /metrics; a nil tracer disables X-Ray segments.
type Options struct {
	Settings    trace.Settings
	Generator   trace.IDGenerator
	Collector   *observability.Collector
	Tracer      *observability.Tracer
	CORSOrigins []string
}

// NewRouter creates a new router instance
func NewRouter(
	dataPoints *handlers.DataPointHandler,
	health *handlers.HealthHandler,
	errorHandler *apperrors.ErrorHandler,
	opts Options,
	logger *zap.Logger,
) *Router {
	if opts.Settings.HeaderName == "" {
		opts.Settings = trace.DefaultSettings()
	}
	if opts.Generator == nil {
		opts.Generator = trace.NewHeaderIDGenerator(opts.Settings.HeaderName)
	}
	if opts.Tracer == nil {
		opts.Tracer = observability.NewTracer("datapoint-service", false)
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}

	return &Router{
		dataPoints:   dataPoints,
		health:       health,
		errorHandler: errorHandler,
		settings:     opts.Settings,
		generator:    opts.Generator,
		collector:    opts.Collector,
		tracer:       opts.Tracer,
		corsOrigins:  opts.CORSOrigins,
		logger:       logger,
	}
}

// Setup configures all routes and middleware. Order: X-Ray segment, trace
// context, access log, metrics, panic recovery, routes.
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(rt.tracer.Middleware)
	router.Use(middleware.Trace(rt.settings, rt.generator, rt.logger))
	router.Use(chimiddleware.RealIP)
	router.Use(middleware.Logger(rt.logger))
	if rt.collector != nil {
		router.Use(middleware.Metrics(rt.collector))
	}
	router.Use(rt.errorHandler.Middleware)

	// CORS configuration
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: rt.corsOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", rt.settings.HeaderName},
		ExposedHeaders: []string{rt.settings.HeaderName},
		MaxAge:         300,
	}))

	// Health check
	router.Get("/health", rt.health.Health)
	router.Get("/ready", rt.health.Ready)
	if rt.collector != nil {
		router.Handle("/metrics", rt.collector.Handler())
	}

	router.Route("/data-points", func(r chi.Router) {
		r.Post("/", rt.dataPoints.CreateDataPoint)
		r.Get("/", rt.dataPoints.ListDataPoints)
		r.Post("/import", rt.dataPoints.ImportDataPoints)
		r.Get("/external-id/{externalId}", rt.dataPoints.GetDataPointByExternalID)
		r.Get("/{id}", rt.dataPoints.GetDataPoint)
	})

	return router
}
