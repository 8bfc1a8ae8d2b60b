package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"shop-service/internal/models"
	"shop-service/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EventPublisher handles publishing shop domain events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishClientQueued publishes a ClientQueued event
func (ep *EventPublisher) PublishClientQueued(ctx context.Context, event *models.ClientQueuedEvent) error {
	key := fmt.Sprintf("shop-%d", event.ShopID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishSettlementSucceeded publishes a SettlementSucceeded event
func (ep *EventPublisher) PublishSettlementSucceeded(ctx context.Context, event *models.SettlementSucceededEvent) error {
	key := fmt.Sprintf("shop-%d", event.ShopID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishSettlementFailed publishes a SettlementFailed event
func (ep *EventPublisher) PublishSettlementFailed(ctx context.Context, event *models.SettlementFailedEvent) error {
	key := fmt.Sprintf("shop-%d", event.ShopID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// EventHandler routes incoming shop events to registered callbacks
type EventHandler struct {
	onSettlementSucceeded func(context.Context, *models.SettlementSucceededEvent) error
	onSettlementFailed    func(context.Context, *models.SettlementFailedEvent) error
	onClientQueued        func(context.Context, *models.ClientQueuedEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnSettlementSucceeded registers a handler for SettlementSucceeded events
func (eh *EventHandler) OnSettlementSucceeded(handler func(context.Context, *models.SettlementSucceededEvent) error) {
	eh.onSettlementSucceeded = handler
}

// OnSettlementFailed registers a handler for SettlementFailed events
func (eh *EventHandler) OnSettlementFailed(handler func(context.Context, *models.SettlementFailedEvent) error) {
	eh.onSettlementFailed = handler
}

// OnClientQueued registers a handler for ClientQueued events
func (eh *EventHandler) OnClientQueued(handler func(context.Context, *models.ClientQueuedEvent) error) {
	eh.onClientQueued = handler
}

// HandleMessage routes messages to the appropriate handler
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	switch baseEvent.EventType {
	case models.EventTypeSettlementSucceeded:
		if eh.onSettlementSucceeded != nil {
			var event models.SettlementSucceededEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal SettlementSucceeded event: %w", err)
			}
			return eh.onSettlementSucceeded(ctx, &event)
		}

	case models.EventTypeSettlementFailed:
		if eh.onSettlementFailed != nil {
			var event models.SettlementFailedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal SettlementFailed event: %w", err)
			}
			return eh.onSettlementFailed(ctx, &event)
		}

	case models.EventTypeClientQueued:
		if eh.onClientQueued != nil {
			var event models.ClientQueuedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal ClientQueued event: %w", err)
			}
			return eh.onClientQueued(ctx, &event)
		}

	default:
		util.GetLogger().Debug("Unhandled event type", zap.String("type", baseEvent.EventType))
	}

	return nil
}
