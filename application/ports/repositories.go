package ports

import (
	"context"
	"errors"

	"datapoint-service/domain/core/entities"
	"datapoint-service/domain/events"
	"datapoint-service/infrastructure/persistence/abstractions"
)

// Store sentinels. Implementations wrap them with %w so callers can match
// with errors.Is regardless of the backend.
var (
	// ErrNotFound is returned when no record satisfies a lookup
	ErrNotFound = errors.New("record not found")

	// ErrUniqueViolation is returned when a save would duplicate an external id
	ErrUniqueViolation = errors.New("unique constraint violation")
)

// DataPointRepository defines the interface for data point persistence
// This is a port in hexagonal architecture - the domain doesn't know about the implementation
type DataPointRepository interface {
	// Save inserts the point when its ID is zero and updates it otherwise.
	// The returned copy carries the assigned ID.
	Save(ctx context.Context, point *entities.DataPoint) (*entities.DataPoint, error)

	// FindOne returns the first record matching the criteria or ErrNotFound
	FindOne(ctx context.Context, criteria abstractions.Criteria) (*entities.DataPoint, error)

	// FindAll returns every record matching the criteria
	FindAll(ctx context.Context, criteria abstractions.Criteria) ([]*entities.DataPoint, error)

	// Count returns the number of stored records
	Count(ctx context.Context) (int64, error)
}

// ExternalDataPoint is a record as returned by the upstream data point service
type ExternalDataPoint struct {
	ExternalID   string  `json:"externalId"`
	Value        string  `json:"value"`
	Comment      *string `json:"comment"`
	Significance int     `json:"significance"`
}

// ExternalService fetches the authoritative set of data points from upstream
type ExternalService interface {
	// GetAll performs a single request and returns every upstream record
	GetAll(ctx context.Context) ([]ExternalDataPoint, error)
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	// Publish sends a single event
	Publish(ctx context.Context, event events.DomainEvent) error

	// PublishBatch sends multiple events
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}

// ImportRecorder receives the outcome of every import run
type ImportRecorder interface {
	RecordImport(ctx context.Context, created, updated int)
}
