package features

import (
	"context"

	"datapoint-service/domain/core/entities"
)

// DataPointUpdater overwrites a data point from a model
type DataPointUpdater interface {
	Update(ctx context.Context, existing *entities.DataPoint, model UpdateDataPointModel) (*entities.DataPoint, error)
}

// CreateDataPointFeature creates data points by updating an empty one
type CreateDataPointFeature struct {
	updater DataPointUpdater
}

// NewCreateDataPointFeature creates the create feature
func NewCreateDataPointFeature(updater DataPointUpdater) *CreateDataPointFeature {
	return &CreateDataPointFeature{updater: updater}
}

// Create persists a new data point. The ID is always assigned by the store.
func (f *CreateDataPointFeature) Create(ctx context.Context, model CreateDataPointModel) (*entities.DataPoint, error) {
	return f.updater.Update(ctx, &entities.DataPoint{}, model.toUpdate())
}
