package eventbridge

import (
	"context"
	"encoding/json"
	"fmt"

	"datapoint-service/domain/events"
	"datapoint-service/pkg/trace"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"go.uber.org/zap"
)

// maxEntriesPerCall is the PutEvents entry limit
const maxEntriesPerCall = 10

// API is the subset of the EventBridge client used by the publisher
type API interface {
	PutEvents(ctx context.Context, params *eventbridge.PutEventsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error)
}

// Publisher implements ports.EventPublisher on AWS EventBridge
type Publisher struct {
	client       API
	eventBusName string
	source       string
	logger       *zap.Logger
}

// NewPublisher creates a new EventBridge publisher
func NewPublisher(client API, eventBusName string, logger *zap.Logger) *Publisher {
	return &Publisher{
		client:       client,
		eventBusName: eventBusName,
		source:       events.SourceDataPoints,
		logger:       logger,
	}
}

// Publish sends a single event to EventBridge
func (p *Publisher) Publish(ctx context.Context, event events.DomainEvent) error {
	return p.PublishBatch(ctx, []events.DomainEvent{event})
}

// PublishBatch sends events in chunks of at most ten
func (p *Publisher) PublishBatch(ctx context.Context, domainEvents []events.DomainEvent) error {
	for i := 0; i < len(domainEvents); i += maxEntriesPerCall {
		end := i + maxEntriesPerCall
		if end > len(domainEvents) {
			end = len(domainEvents)
		}
		if err := p.publishBatch(ctx, domainEvents[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (p *Publisher) publishBatch(ctx context.Context, domainEvents []events.DomainEvent) error {
	logger := trace.Logger(ctx, p.logger)
	entries := make([]types.PutEventsRequestEntry, 0, len(domainEvents))

	for _, event := range domainEvents {
		detail, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("marshal %s event: %w", event.GetEventType(), err)
		}

		entries = append(entries, types.PutEventsRequestEntry{
			EventBusName: aws.String(p.eventBusName),
			Source:       aws.String(p.source),
			DetailType:   aws.String(event.GetEventType()),
			Detail:       aws.String(string(detail)),
			Time:         aws.Time(event.GetTimestamp()),
			Resources:    []string{fmt.Sprintf("datapoint:%s", event.GetAggregateID())},
		})
	}

	result, err := p.client.PutEvents(ctx, &eventbridge.PutEventsInput{Entries: entries})
	if err != nil {
		return fmt.Errorf("failed to publish events to EventBridge: %w", err)
	}

	if result.FailedEntryCount > 0 {
		for i, entry := range result.Entries {
			if entry.ErrorCode != nil && i < len(domainEvents) {
				logger.Error("Failed to publish event",
					zap.String("event_type", domainEvents[i].GetEventType()),
					zap.String("error_code", aws.ToString(entry.ErrorCode)),
					zap.String("error_message", aws.ToString(entry.ErrorMessage)),
				)
			}
		}
		return fmt.Errorf("%d events failed to publish", result.FailedEntryCount)
	}

	logger.Debug("Events published to EventBridge",
		zap.Int("count", len(entries)),
		zap.String("event_bus", p.eventBusName),
	)

	return nil
}

// NoopPublisher drops every event. It is used when no event bus is configured.
type NoopPublisher struct {
	logger *zap.Logger
}

// NewNoopPublisher creates a publisher that only logs at debug level
func NewNoopPublisher(logger *zap.Logger) *NoopPublisher {
	return &NoopPublisher{logger: logger}
}

// Publish implements ports.EventPublisher
func (p *NoopPublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	trace.Logger(ctx, p.logger).Debug("Event dropped, no event bus configured",
		zap.String("event_type", event.GetEventType()),
		zap.String("aggregate_id", event.GetAggregateID()),
	)
	return nil
}

// PublishBatch implements ports.EventPublisher
func (p *NoopPublisher) PublishBatch(ctx context.Context, domainEvents []events.DomainEvent) error {
	for _, e := range domainEvents {
		_ = p.Publish(ctx, e)
	}
	return nil
}
