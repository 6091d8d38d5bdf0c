package queries

import (
	apperrors "datapoint-service/pkg/errors"
)

// GetDataPointByIDQuery represents a query to get a single data point by id
type GetDataPointByIDQuery struct {
	ID int64
}

// Validate validates the GetDataPointByIDQuery
func (q GetDataPointByIDQuery) Validate() error {
	return nil
}

// GetDataPointByExternalIDQuery represents a query to get a single data
// point by external id
type GetDataPointByExternalIDQuery struct {
	ExternalID string
}

// Validate validates the GetDataPointByExternalIDQuery
func (q GetDataPointByExternalIDQuery) Validate() error {
	if q.ExternalID == "" {
		return apperrors.NewValidationError(apperrors.FieldError{
			Field:   "externalId",
			Reason:  apperrors.ReasonNotBlank,
			Message: "must not be blank",
		})
	}
	return nil
}

// ListDataPointsQuery represents a query for every data point
type ListDataPointsQuery struct{}

// Validate validates the ListDataPointsQuery
func (q ListDataPointsQuery) Validate() error {
	return nil
}
