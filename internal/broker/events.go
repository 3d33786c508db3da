package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"storefront-service/internal/models"
	"storefront-service/internal/util"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Publisher is the minimal producer surface used by EventPublisher
type Publisher interface {
	PublishEvent(ctx context.Context, key string, event interface{}) error
}

// EventPublisher publishes storefront analytics events
type EventPublisher struct {
	producer Publisher
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer Publisher) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishAnalytics publishes a tracked interaction keyed by client
func (ep *EventPublisher) PublishAnalytics(ctx context.Context, clientID string, event models.AnalyticsEvent) error {
	envelope := &models.AnalyticsEnvelope{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: event.Type,
			Timestamp: event.Timestamp,
		},
		ClientID: clientID,
		Event:    event,
	}
	return ep.producer.PublishEvent(ctx, fmt.Sprintf("client-%s", clientID), envelope)
}

// EventHandler routes incoming moderation events
type EventHandler struct {
	onReviewApproved func(context.Context, *models.ReviewApprovedEvent) error
	logger           *zap.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{logger: util.GetLogger()}
}

// OnReviewApproved registers a handler for ReviewApproved events
func (eh *EventHandler) OnReviewApproved(handler func(context.Context, *models.ReviewApprovedEvent) error) {
	eh.onReviewApproved = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	eh.logger.Info("Handling event",
		zap.String("type", baseEvent.EventType),
		zap.String("id", baseEvent.EventID))

	switch baseEvent.EventType {
	case models.EventTypeReviewApproved:
		if eh.onReviewApproved != nil {
			var event models.ReviewApprovedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal ReviewApproved event: %w", err)
			}
			return eh.onReviewApproved(ctx, &event)
		}

	default:
		eh.logger.Warn("Unhandled event type", zap.String("type", baseEvent.EventType))
	}

	return nil
}
