package handlers

import (
	"context"
	"fmt"

	"datapoint-service/application/commands"
	"datapoint-service/application/commands/bus"
	"datapoint-service/application/features"
)

// CreateDataPointHandler handles the CreateDataPointCommand
type CreateDataPointHandler struct {
	feature *features.CreateDataPointFeature
}

// NewCreateDataPointHandler creates a new handler instance
func NewCreateDataPointHandler(feature *features.CreateDataPointFeature) *CreateDataPointHandler {
	return &CreateDataPointHandler{feature: feature}
}

// Handle executes the create command and returns the stored data point
func (h *CreateDataPointHandler) Handle(ctx context.Context, cmd bus.Command) (interface{}, error) {
	c, ok := cmd.(commands.CreateDataPointCommand)
	if !ok {
		return nil, fmt.Errorf("unexpected command type %T", cmd)
	}
	return h.feature.Create(ctx, c.Model())
}

// ImportDataPointsHandler handles the ImportDataPointsCommand
type ImportDataPointsHandler struct {
	feature *features.ImportDataPointsFeature
}

// NewImportDataPointsHandler creates a new handler instance
func NewImportDataPointsHandler(feature *features.ImportDataPointsFeature) *ImportDataPointsHandler {
	return &ImportDataPointsHandler{feature: feature}
}

// Handle runs the import and returns the reconciled data points
func (h *ImportDataPointsHandler) Handle(ctx context.Context, cmd bus.Command) (interface{}, error) {
	if _, ok := cmd.(commands.ImportDataPointsCommand); !ok {
		return nil, fmt.Errorf("unexpected command type %T", cmd)
	}
	return h.feature.Execute(ctx)
}

// RegisterDataPointHandlers registers every data point command on the bus
func RegisterDataPointHandlers(b *bus.CommandBus, create *CreateDataPointHandler, importer *ImportDataPointsHandler) error {
	if err := b.Register(commands.CreateDataPointCommand{}, create); err != nil {
		return err
	}
	return b.Register(commands.ImportDataPointsCommand{}, importer)
}
