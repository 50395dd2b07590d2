package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"dhaba-pos/internal/models"
	"dhaba-pos/internal/util"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EventSink accepts serialized events. *Producer is the Kafka implementation.
type EventSink interface {
	PublishEvent(ctx context.Context, key string, event interface{}) error
}

// EventPublisher handles publishing domain events. A publisher without a sink
// drops events, which keeps the service usable without Kafka.
type EventPublisher struct {
	sink   EventSink
	logger *zap.Logger
}

// NewEventPublisher creates a new event publisher. sink may be nil.
func NewEventPublisher(sink EventSink) *EventPublisher {
	return &EventPublisher{sink: sink, logger: util.Named("events")}
}

func newBase(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now().UTC(),
	}
}

func tableKey(tableID int64) string {
	return fmt.Sprintf("table-%d", tableID)
}

func (ep *EventPublisher) publish(ctx context.Context, key string, event interface{}) error {
	if ep.sink == nil {
		ep.logger.Debug("event publishing disabled, dropping event", zap.String("key", key))
		return nil
	}
	return ep.sink.PublishEvent(ctx, key, event)
}

// PublishKOTEvent publishes KOT_CREATED, KOT_STATUS_CHANGED or KOT_DELETED
func (ep *EventPublisher) PublishKOTEvent(ctx context.Context, eventType string, kot *models.KOT) error {
	event := &models.KOTEvent{
		BaseEvent: newBase(eventType),
		KOTID:     kot.ID,
		KOTNumber: kot.KOTNumber,
		TableID:   kot.TableID,
		RoomID:    kot.RoomID,
		Status:    kot.Status,
		Items:     kot.OrderItems,
	}
	return ep.publish(ctx, tableKey(kot.TableID), event)
}

// PublishKOTsClosed publishes KOTS_CLOSED
func (ep *EventPublisher) PublishKOTsClosed(ctx context.Context, tableID int64, kotIDs []int64) error {
	event := &models.KOTsClosedEvent{
		BaseEvent: newBase(models.EventTypeKOTsClosed),
		TableID:   tableID,
		KOTIDs:    kotIDs,
	}
	return ep.publish(ctx, tableKey(tableID), event)
}

// PublishBillFinalized publishes BILL_FINALIZED
func (ep *EventPublisher) PublishBillFinalized(ctx context.Context, order *models.Order) error {
	event := &models.BillFinalizedEvent{
		BaseEvent:     newBase(models.EventTypeBillFinalized),
		OrderID:       order.ID,
		TableID:       order.TableID,
		RoomID:        order.RoomID,
		KOTIDs:        order.KOTIDs,
		GrandTotal:    order.GrandTotal,
		PaymentMethod: order.PaymentMethod,
	}
	return ep.publish(ctx, tableKey(order.TableID), event)
}

// PublishOrderDeleted publishes ORDER_DELETED
func (ep *EventPublisher) PublishOrderDeleted(ctx context.Context, order *models.Order) error {
	event := &models.OrderDeletedEvent{
		BaseEvent: newBase(models.EventTypeOrderDeleted),
		OrderID:   order.ID,
	}
	if order.DeletionInfo != nil {
		event.DeletedBy = order.DeletionInfo.DeletedBy
		event.Reason = order.DeletionInfo.Reason
	}
	return ep.publish(ctx, fmt.Sprintf("order-%d", order.ID), event)
}

// PublishInventoryUsage publishes INVENTORY_USAGE_RECORDED
func (ep *EventPublisher) PublishInventoryUsage(ctx context.Context, usage *models.InventoryUsage, item *models.InventoryItem) error {
	event := &models.InventoryUsageEvent{
		BaseEvent:         newBase(models.EventTypeInventoryUsageRecorded),
		InventoryItemID:   item.ID,
		ItemName:          item.Name,
		QuantityUsed:      usage.QuantityUsed,
		RemainingQuantity: item.Quantity,
		MinStockLevel:     item.MinStockLevel,
		Unit:              item.Unit,
	}
	return ep.publish(ctx, fmt.Sprintf("inventory-%d", item.ID), event)
}

// EventHandler handles incoming events
type EventHandler struct {
	onKOTEvent       func(context.Context, *models.KOTEvent) error
	onKOTsClosed     func(context.Context, *models.KOTsClosedEvent) error
	onBillFinalized  func(context.Context, *models.BillFinalizedEvent) error
	onInventoryUsage func(context.Context, *models.InventoryUsageEvent) error
	onOrderDeleted   func(context.Context, *models.OrderDeletedEvent) error
	logger           *zap.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{logger: util.Named("event-handler")}
}

// OnKOTEvent registers a handler for KOT_CREATED, KOT_STATUS_CHANGED and KOT_DELETED
func (eh *EventHandler) OnKOTEvent(handler func(context.Context, *models.KOTEvent) error) {
	eh.onKOTEvent = handler
}

// OnKOTsClosed registers a handler for KOTS_CLOSED events
func (eh *EventHandler) OnKOTsClosed(handler func(context.Context, *models.KOTsClosedEvent) error) {
	eh.onKOTsClosed = handler
}

// OnBillFinalized registers a handler for BILL_FINALIZED events
func (eh *EventHandler) OnBillFinalized(handler func(context.Context, *models.BillFinalizedEvent) error) {
	eh.onBillFinalized = handler
}

// OnInventoryUsage registers a handler for INVENTORY_USAGE_RECORDED events
func (eh *EventHandler) OnInventoryUsage(handler func(context.Context, *models.InventoryUsageEvent) error) {
	eh.onInventoryUsage = handler
}

// OnOrderDeleted registers a handler for ORDER_DELETED events
func (eh *EventHandler) OnOrderDeleted(handler func(context.Context, *models.OrderDeletedEvent) error) {
	eh.onOrderDeleted = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	return eh.Dispatch(ctx, msg.Value)
}

// Dispatch decodes a raw event and routes it by event type
func (eh *EventHandler) Dispatch(ctx context.Context, payload []byte) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(payload, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	eh.logger.Debug("handling event",
		zap.String("type", baseEvent.EventType),
		zap.String("id", baseEvent.EventID))

	switch baseEvent.EventType {
	case models.EventTypeKOTCreated, models.EventTypeKOTStatusChanged, models.EventTypeKOTDeleted:
		if eh.onKOTEvent != nil {
			var event models.KOTEvent
			if err := json.Unmarshal(payload, &event); err != nil {
				return fmt.Errorf("failed to unmarshal KOT event: %w", err)
			}
			return eh.onKOTEvent(ctx, &event)
		}

	case models.EventTypeKOTsClosed:
		if eh.onKOTsClosed != nil {
			var event models.KOTsClosedEvent
			if err := json.Unmarshal(payload, &event); err != nil {
				return fmt.Errorf("failed to unmarshal KOTsClosed event: %w", err)
			}
			return eh.onKOTsClosed(ctx, &event)
		}

	case models.EventTypeBillFinalized:
		if eh.onBillFinalized != nil {
			var event models.BillFinalizedEvent
			if err := json.Unmarshal(payload, &event); err != nil {
				return fmt.Errorf("failed to unmarshal BillFinalized event: %w", err)
			}
			return eh.onBillFinalized(ctx, &event)
		}

	case models.EventTypeInventoryUsageRecorded:
		if eh.onInventoryUsage != nil {
			var event models.InventoryUsageEvent
			if err := json.Unmarshal(payload, &event); err != nil {
				return fmt.Errorf("failed to unmarshal InventoryUsage event: %w", err)
			}
			return eh.onInventoryUsage(ctx, &event)
		}

	case models.EventTypeOrderDeleted:
		if eh.onOrderDeleted != nil {
			var event models.OrderDeletedEvent
			if err := json.Unmarshal(payload, &event); err != nil {
				return fmt.Errorf("failed to unmarshal OrderDeleted event: %w", err)
			}
			return eh.onOrderDeleted(ctx, &event)
		}

	default:
		eh.logger.Debug("unhandled event type", zap.String("type", baseEvent.EventType))
	}

	return nil
}
