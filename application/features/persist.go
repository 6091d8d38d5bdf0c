package features

import (
	"context"
	"errors"

	"datapoint-service/application/ports"
	"datapoint-service/domain/core/entities"
	apperrors "datapoint-service/pkg/errors"
)

// MessageExternalIDExists is the conflict message for a duplicate external id
const MessageExternalIDExists = "Cannot persist data point as external id already exists"

// PersistDataPointFeature is the single place where store integrity
// violations become conflict errors
type PersistDataPointFeature struct {
	repo ports.DataPointRepository
}

// NewPersistDataPointFeature creates the persist feature
func NewPersistDataPointFeature(repo ports.DataPointRepository) *PersistDataPointFeature {
	return &PersistDataPointFeature{repo: repo}
}

// Save stores the point and returns the persisted copy
func (f *PersistDataPointFeature) Save(ctx context.Context, point *entities.DataPoint) (*entities.DataPoint, error) {
	saved, err := f.repo.Save(ctx, point)
	if err != nil {
		if errors.Is(err, ports.ErrUniqueViolation) {
			return nil, apperrors.NewConflictError(
				MessageExternalIDExists,
				entities.EntityName,
				apperrors.Criterion{Field: entities.FieldExternalID, Value: point.ExternalID},
			).WithCause(err)
		}
		return nil, err
	}
	return saved, nil
}
