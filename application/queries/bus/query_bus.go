package bus

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
)

// Query represents a read-only query
type Query interface {
	Validate() error
}

// QueryHandler handles a specific query type
type QueryHandler interface {
	Handle(ctx context.Context, query Query) (interface{}, error)
}

// ErrHandlerNotFound is returned when a query type has no handler
var ErrHandlerNotFound = errors.New("query handler not found")

// QueryBus dispatches queries to their handlers
type QueryBus struct {
	handlers map[reflect.Type]QueryHandler
	metrics  *MetricsMiddleware
	mu       sync.RWMutex
}

// NewQueryBus creates a new query bus. A nil metrics middleware disables
// query instrumentation.
func NewQueryBus(metrics *MetricsMiddleware) *QueryBus {
	return &QueryBus{
		handlers: make(map[reflect.Type]QueryHandler),
		metrics:  metrics,
	}
}

// Register registers a handler for a query type
func (b *QueryBus) Register(queryType Query, handler QueryHandler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	t := reflect.TypeOf(queryType)
	if _, exists := b.handlers[t]; exists {
		return fmt.Errorf("handler already registered for query type %s", t.Name())
	}

	if b.metrics != nil {
		handler = b.metrics.Wrap(handler)
	}
	b.handlers[t] = handler
	return nil
}

// Ask dispatches a query to its handler and returns the result
func (b *QueryBus) Ask(ctx context.Context, query Query) (interface{}, error) {
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("query validation failed: %w", err)
	}

	b.mu.RLock()
	handler, exists := b.handlers[reflect.TypeOf(query)]
	b.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %T", ErrHandlerNotFound, query)
	}

	result, err := handler.Handle(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query handler failed: %w", err)
	}

	return result, nil
}

// QueryHandlerFunc is an adapter to allow functions to be used as handlers
type QueryHandlerFunc func(ctx context.Context, query Query) (interface{}, error)

// Handle implements QueryHandler
func (f QueryHandlerFunc) Handle(ctx context.Context, query Query) (interface{}, error) {
	return f(ctx, query)
}

// MetricsMiddleware adds metrics to query handlers
type MetricsMiddleware struct {
	metrics Metrics
}

// NewMetricsMiddleware creates a new metrics middleware
func NewMetricsMiddleware(metrics Metrics) *MetricsMiddleware {
	return &MetricsMiddleware{
		metrics: metrics,
	}
}

// Wrap wraps a query handler with metrics
func (m *MetricsMiddleware) Wrap(next QueryHandler) QueryHandler {
	return QueryHandlerFunc(func(ctx context.Context, query Query) (interface{}, error) {
		queryType := reflect.TypeOf(query).Name()

		timer := m.metrics.StartTimer("query_duration", queryType)
		defer timer.Stop()

		m.metrics.Increment("query_count", queryType)

		result, err := next.Handle(ctx, query)
		if err != nil {
			m.metrics.Increment("query_errors", queryType)
			return nil, err
		}

		m.metrics.Increment("query_success", queryType)
		return result, nil
	})
}

// Metrics interface
type Metrics interface {
	StartTimer(metric, label string) Timer
	Increment(metric, label string)
}

// Timer interface
type Timer interface {
	Stop()
}
