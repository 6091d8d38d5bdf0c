package events

import (
	"strconv"
	"time"
)

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// Event sources and types
const (
	SourceDataPoints = "datapoint-service"

	TypeDataPointCreated = "datapoint.created"
	TypeDataPointUpdated = "datapoint.updated"
)

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

// DataPointSaved is raised after a data point has been persisted
type DataPointSaved struct {
	BaseEvent
	DataPointID  int64  `json:"data_point_id"`
	ExternalID   string `json:"external_id"`
	Significance int    `json:"significance"`
	TraceID      string `json:"trace_id,omitempty"`
}

// NewDataPointCreated creates the event for a first-time persist
func NewDataPointCreated(id int64, externalID string, significance int, timestamp time.Time) DataPointSaved {
	return newDataPointSaved(TypeDataPointCreated, id, externalID, significance, timestamp)
}

// NewDataPointUpdated creates the event for an overwrite of an existing record
func NewDataPointUpdated(id int64, externalID string, significance int, timestamp time.Time) DataPointSaved {
	return newDataPointSaved(TypeDataPointUpdated, id, externalID, significance, timestamp)
}

func newDataPointSaved(eventType string, id int64, externalID string, significance int, timestamp time.Time) DataPointSaved {
	return DataPointSaved{
		BaseEvent: BaseEvent{
			AggregateID: strconv.FormatInt(id, 10),
			EventType:   eventType,
			Timestamp:   timestamp,
			Version:     1,
		},
		DataPointID:  id,
		ExternalID:   externalID,
		Significance: significance,
	}
}
