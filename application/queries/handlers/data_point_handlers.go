package handlers

import (
	"context"
	"fmt"

	"datapoint-service/application/features"
	"datapoint-service/application/queries"
	"datapoint-service/application/queries/bus"
)

// DataPointQueryHandler answers every data point query
type DataPointQueryHandler struct {
	byID       *features.GetDataPointByIDFeature
	byExternal *features.GetDataPointByExternalIDFeature
	findAll    *features.FindAllDataPointsFeature
}

// NewDataPointQueryHandler creates a new handler instance
func NewDataPointQueryHandler(
	byID *features.GetDataPointByIDFeature,
	byExternal *features.GetDataPointByExternalIDFeature,
	findAll *features.FindAllDataPointsFeature,
) *DataPointQueryHandler {
	return &DataPointQueryHandler{
		byID:       byID,
		byExternal: byExternal,
		findAll:    findAll,
	}
}

// Handle dispatches on the concrete query type
func (h *DataPointQueryHandler) Handle(ctx context.Context, query bus.Query) (interface{}, error) {
	switch q := query.(type) {
	case queries.GetDataPointByIDQuery:
		return h.byID.Get(ctx, q.ID)
	case queries.GetDataPointByExternalIDQuery:
		return h.byExternal.Get(ctx, q.ExternalID)
	case queries.ListDataPointsQuery:
		return h.findAll.Find(ctx)
	default:
		return nil, fmt.Errorf("unexpected query type %T", query)
	}
}

// Register registers the handler for every data point query type
func (h *DataPointQueryHandler) Register(b *bus.QueryBus) error {
	for _, q := range []bus.Query{
		queries.GetDataPointByIDQuery{},
		queries.GetDataPointByExternalIDQuery{},
		queries.ListDataPointsQuery{},
	} {
		if err := b.Register(q, h); err != nil {
			return err
		}
	}
	return nil
}
