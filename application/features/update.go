package features

import (
	"context"
	"time"

	"datapoint-service/application/ports"
	"datapoint-service/domain/core/entities"
	"datapoint-service/domain/events"
	"datapoint-service/pkg/trace"

	"go.uber.org/zap"
)

// DataPointSaver persists a data point
type DataPointSaver interface {
	Save(ctx context.Context, point *entities.DataPoint) (*entities.DataPoint, error)
}

// UpdateDataPointFeature overwrites the mutable fields of a data point and
// persists it
type UpdateDataPointFeature struct {
	saver     DataPointSaver
	publisher ports.EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewUpdateDataPointFeature creates the update feature
func NewUpdateDataPointFeature(saver DataPointSaver, publisher ports.EventPublisher, logger *zap.Logger) *UpdateDataPointFeature {
	return &UpdateDataPointFeature{
		saver:     saver,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// Update copies the model onto existing and saves it. A zero ID on existing
// makes this an insert.
func (f *UpdateDataPointFeature) Update(ctx context.Context, existing *entities.DataPoint, model UpdateDataPointModel) (*entities.DataPoint, error) {
	created := existing.IsNew()

	existing.ExternalID = model.ExternalID
	existing.Value = model.Value
	existing.Comment = model.Comment
	existing.Significance = model.Significance

	saved, err := f.saver.Save(ctx, existing)
	if err != nil {
		return nil, err
	}

	f.publish(ctx, saved, created)
	return saved, nil
}

func (f *UpdateDataPointFeature) publish(ctx context.Context, saved *entities.DataPoint, created bool) {
	var event events.DataPointSaved
	if created {
		event = events.NewDataPointCreated(saved.ID, saved.ExternalID, saved.Significance, f.now())
	} else {
		event = events.NewDataPointUpdated(saved.ID, saved.ExternalID, saved.Significance, f.now())
	}
	event.TraceID = trace.ID(ctx)

	if err := f.publisher.Publish(ctx, event); err != nil {
		trace.Logger(ctx, f.logger).Warn("Failed to publish data point event",
			zap.String("event_type", event.EventType),
			zap.Int64("id", saved.ID),
			zap.Error(err),
		)
	}
}
