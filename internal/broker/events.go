package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"storefront-service/internal/models"

	"github.com/segmentio/kafka-go"
)

// EventPublisher routes domain events to the order and catalog topics.
type EventPublisher struct {
	orders  *Producer
	catalog *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(orders, catalog *Producer) *EventPublisher {
	return &EventPublisher{orders: orders, catalog: catalog}
}

// PublishOrderPlaced publishes OrderPlaced to the order topic
func (ep *EventPublisher) PublishOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error {
	key := fmt.Sprintf("order-%d", event.OrderID)
	return ep.orders.PublishEvent(ctx, key, event)
}

// PublishOrderStatusChanged publishes OrderStatusChanged to the order topic
func (ep *EventPublisher) PublishOrderStatusChanged(ctx context.Context, event *models.OrderStatusChangedEvent) error {
	key := fmt.Sprintf("order-%d", event.OrderID)
	return ep.orders.PublishEvent(ctx, key, event)
}

// PublishProductUpdated publishes ProductUpdated to the catalog topic
func (ep *EventPublisher) PublishProductUpdated(ctx context.Context, event *models.ProductUpdatedEvent) error {
	key := fmt.Sprintf("product-%d", event.ProductID)
	return ep.catalog.PublishEvent(ctx, key, event)
}

// PublishOfferActivated publishes OfferActivated to the catalog topic
func (ep *EventPublisher) PublishOfferActivated(ctx context.Context, event *models.OfferActivatedEvent) error {
	key := fmt.Sprintf("product-%d", event.ProductID)
	return ep.catalog.PublishEvent(ctx, key, event)
}

// PublishOfferDeactivated publishes OfferDeactivated to the catalog topic
func (ep *EventPublisher) PublishOfferDeactivated(ctx context.Context, event *models.OfferDeactivatedEvent) error {
	key := fmt.Sprintf("product-%d", event.ProductID)
	return ep.catalog.PublishEvent(ctx, key, event)
}

// EventHandler routes consumed messages to registered handlers.
type EventHandler struct {
	onOrderPlaced      func(context.Context, *models.OrderPlacedEvent) error
	onProductUpdated   func(context.Context, *models.ProductUpdatedEvent) error
	onOfferActivated   func(context.Context, *models.OfferActivatedEvent) error
	onOfferDeactivated func(context.Context, *models.OfferDeactivatedEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnOrderPlaced registers a handler for OrderPlaced events
func (eh *EventHandler) OnOrderPlaced(handler func(context.Context, *models.OrderPlacedEvent) error) {
	eh.onOrderPlaced = handler
}

// OnProductUpdated registers a handler for ProductUpdated events
func (eh *EventHandler) OnProductUpdated(handler func(context.Context, *models.ProductUpdatedEvent) error) {
	eh.onProductUpdated = handler
}

// OnOfferActivated registers a handler for OfferActivated events
func (eh *EventHandler) OnOfferActivated(handler func(context.Context, *models.OfferActivatedEvent) error) {
	eh.onOfferActivated = handler
}

// OnOfferDeactivated registers a handler for OfferDeactivated events
func (eh *EventHandler) OnOfferDeactivated(handler func(context.Context, *models.OfferDeactivatedEvent) error) {
	eh.onOfferDeactivated = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	switch baseEvent.EventType {
	case models.EventTypeOrderPlaced:
		if eh.onOrderPlaced != nil {
			var event models.OrderPlacedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal OrderPlaced event: %w", err)
			}
			return eh.onOrderPlaced(ctx, &event)
		}

	case models.EventTypeProductUpdated:
		if eh.onProductUpdated != nil {
			var event models.ProductUpdatedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal ProductUpdated event: %w", err)
			}
			return eh.onProductUpdated(ctx, &event)
		}

	case models.EventTypeOfferActivated:
		if eh.onOfferActivated != nil {
			var event models.OfferActivatedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal OfferActivated event: %w", err)
			}
			return eh.onOfferActivated(ctx, &event)
		}

	case models.EventTypeOfferDeactivated:
		if eh.onOfferDeactivated != nil {
			var event models.OfferDeactivatedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal OfferDeactivated event: %w", err)
			}
			return eh.onOfferDeactivated(ctx, &event)
		}

	default:
		log.Printf("Unhandled event type: %s", baseEvent.EventType)
	}

	return nil
}
