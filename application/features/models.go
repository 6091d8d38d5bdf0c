// Package features holds the data point use cases. Each feature is a small
// struct with its collaborators injected through its constructor.
package features

// CreateDataPointModel carries validated input for a new data point
type CreateDataPointModel struct {
	ExternalID   string
	Value        string
	Comment      *string
	Significance int
}

// UpdateDataPointModel carries validated input that overwrites a data point
type UpdateDataPointModel struct {
	ExternalID   string
	Value        string
	Comment      *string
	Significance int
}

// toUpdate converts a create model into the equivalent overwrite
func (m CreateDataPointModel) toUpdate() UpdateDataPointModel {
	return UpdateDataPointModel(m)
}
