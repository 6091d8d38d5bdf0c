package features

import (
	"context"
	"errors"
	"strconv"

	"datapoint-service/application/ports"
	"datapoint-service/domain/core/entities"
	"datapoint-service/infrastructure/persistence/abstractions"
	apperrors "datapoint-service/pkg/errors"
)

// GetDataPointByIDFeature looks up a data point by its local id
type GetDataPointByIDFeature struct {
	repo ports.DataPointRepository
}

// NewGetDataPointByIDFeature creates the lookup feature
func NewGetDataPointByIDFeature(repo ports.DataPointRepository) *GetDataPointByIDFeature {
	return &GetDataPointByIDFeature{repo: repo}
}

// Get returns the data point or a not found error
func (f *GetDataPointByIDFeature) Get(ctx context.Context, id int64) (*entities.DataPoint, error) {
	return findOne(ctx, f.repo, entities.FieldID, id, strconv.FormatInt(id, 10))
}

// GetDataPointByExternalIDFeature looks up a data point by its external id
type GetDataPointByExternalIDFeature struct {
	repo ports.DataPointRepository
}

// NewGetDataPointByExternalIDFeature creates the lookup feature
func NewGetDataPointByExternalIDFeature(repo ports.DataPointRepository) *GetDataPointByExternalIDFeature {
	return &GetDataPointByExternalIDFeature{repo: repo}
}

// Get returns the data point or a not found error
func (f *GetDataPointByExternalIDFeature) Get(ctx context.Context, externalID string) (*entities.DataPoint, error) {
	return findOne(ctx, f.repo, entities.FieldExternalID, externalID, externalID)
}

func findOne(ctx context.Context, repo ports.DataPointRepository, field string, value interface{}, literal string) (*entities.DataPoint, error) {
	point, err := repo.FindOne(ctx, abstractions.Where(field).Eq(value).Build())
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, apperrors.NewEntityNotFoundError(
				entities.EntityName,
				apperrors.Criterion{Field: field, Value: literal},
			)
		}
		return nil, err
	}
	return point, nil
}

// FindAllDataPointsFeature lists every data point
type FindAllDataPointsFeature struct {
	repo ports.DataPointRepository
}

// NewFindAllDataPointsFeature creates the list feature
func NewFindAllDataPointsFeature(repo ports.DataPointRepository) *FindAllDataPointsFeature {
	return &FindAllDataPointsFeature{repo: repo}
}

// Find returns all data points ordered by id
func (f *FindAllDataPointsFeature) Find(ctx context.Context) ([]*entities.DataPoint, error) {
	return f.repo.FindAll(ctx, abstractions.All().OrderBy(entities.FieldID, abstractions.SortAscending).Build())
}
