package commands

import (
	"datapoint-service/application/features"
	"datapoint-service/pkg/utils"
)

// CreateDataPointCommand represents the command to create a new data point.
// It doubles as the HTTP request body.
type CreateDataPointCommand struct {
	ExternalID   string  `json:"externalId" validate:"notblank"`
	Value        string  `json:"value" validate:"notblank"`
	Comment      *string `json:"comment"`
	Significance *int    `json:"significance" validate:"required,gt=0"`
}

// Validate validates the CreateDataPointCommand
func (c CreateDataPointCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// Model converts the validated command into the feature input
func (c CreateDataPointCommand) Model() features.CreateDataPointModel {
	m := features.CreateDataPointModel{
		ExternalID: c.ExternalID,
		Value:      c.Value,
		Comment:    c.Comment,
	}
	if c.Significance != nil {
		m.Significance = *c.Significance
	}
	return m
}
