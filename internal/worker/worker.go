package worker

import (
	"context"
	"fmt"

	"dhaba-pos/internal/broker"
	"dhaba-pos/internal/models"
	"dhaba-pos/internal/util"

	"go.uber.org/zap"
)

// Event types pushed to screens that have no domain event of their own.
const (
	MessageTypeLowStockAlert = "LOW_STOCK_ALERT"
)

// Broadcaster fans a message out to connected screens. *realtime.Hub
// implements it.
type Broadcaster interface {
	BroadcastJSON(v interface{}) error
}

// EventLedger remembers which events were already handled. *store.Store
// implements it.
type EventLedger interface {
	IsEventProcessed(ctx context.Context, eventID string) (bool, error)
	MarkEventProcessed(ctx context.Context, eventID, eventType string) error
}

// Message is the envelope written to websocket clients
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// KitchenWorker keeps kitchen displays in step with the ticket queue
type KitchenWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	hub          Broadcaster
	logger       *zap.Logger
}

// NewKitchenWorker creates a kitchen worker. consumer may be nil when events
// are delivered in-process through Handler.
func NewKitchenWorker(consumer *broker.Consumer, hub Broadcaster) *KitchenWorker {
	w := &KitchenWorker{
		consumer:     consumer,
		eventHandler: broker.NewEventHandler(),
		hub:          hub,
		logger:       util.Named("kitchen-worker"),
	}

	w.eventHandler.OnKOTEvent(w.handleKOTEvent)
	w.eventHandler.OnKOTsClosed(w.handleKOTsClosed)
	w.eventHandler.OnBillFinalized(w.handleBillFinalized)
	return w
}

// Handler returns the event handler the worker registered its callbacks on
func (w *KitchenWorker) Handler() *broker.EventHandler {
	return w.eventHandler
}

func (w *KitchenWorker) handleKOTEvent(_ context.Context, event *models.KOTEvent) error {
	w.logger.Debug("kot event",
		zap.String("type", event.EventType),
		zap.Int64("kot_id", event.KOTID),
		zap.String("status", string(event.Status)))
	return w.hub.BroadcastJSON(Message{Type: event.EventType, Data: event})
}

func (w *KitchenWorker) handleKOTsClosed(_ context.Context, event *models.KOTsClosedEvent) error {
	return w.hub.BroadcastJSON(Message{Type: event.EventType, Data: event})
}

func (w *KitchenWorker) handleBillFinalized(_ context.Context, event *models.BillFinalizedEvent) error {
	return w.hub.BroadcastJSON(Message{Type: event.EventType, Data: event})
}

// Start consumes events until ctx is cancelled
func (w *KitchenWorker) Start(ctx context.Context) error {
	if w.consumer == nil {
		return fmt.Errorf("kitchen worker has no consumer")
	}
	w.logger.Info("Starting kitchen worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *KitchenWorker) Stop() error {
	w.logger.Info("Stopping kitchen worker")
	if w.consumer == nil {
		return nil
	}
	return w.consumer.Close()
}

// LowStockAlert is pushed to the back office when usage drops an item below
// its minimum level.
type LowStockAlert struct {
	InventoryItemID   int64  `json:"inventoryItemId"`
	ItemName          string `json:"itemName"`
	RemainingQuantity string `json:"remainingQuantity"`
	MinStockLevel     string `json:"minStockLevel"`
	Unit              string `json:"unit"`
}

// BackOfficeWorker feeds the back-office dashboard: settled bills, deleted
// orders and low stock alerts. Each inventory event raises at most one alert.
type BackOfficeWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	hub          Broadcaster
	ledger       EventLedger
	logger       *zap.Logger
}

// NewBackOfficeWorker creates a back-office worker. consumer may be nil when
// events are delivered in-process through Handler.
func NewBackOfficeWorker(consumer *broker.Consumer, hub Broadcaster, ledger EventLedger) *BackOfficeWorker {
	w := &BackOfficeWorker{
		consumer:     consumer,
		eventHandler: broker.NewEventHandler(),
		hub:          hub,
		ledger:       ledger,
		logger:       util.Named("backoffice-worker"),
	}

	w.eventHandler.OnInventoryUsage(w.handleInventoryUsage)
	w.eventHandler.OnBillFinalized(w.handleBillFinalized)
	w.eventHandler.OnOrderDeleted(w.handleOrderDeleted)
	return w
}

// Handler returns the event handler the worker registered its callbacks on
func (w *BackOfficeWorker) Handler() *broker.EventHandler {
	return w.eventHandler
}

func (w *BackOfficeWorker) handleInventoryUsage(ctx context.Context, event *models.InventoryUsageEvent) error {
	if !event.RemainingQuantity.LessThan(event.MinStockLevel) {
		return nil
	}

	processed, err := w.ledger.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		return fmt.Errorf("failed to check event %s: %w", event.EventID, err)
	}
	if processed {
		w.logger.Debug("low stock event already handled", zap.String("event_id", event.EventID))
		return nil
	}

	util.LowStockAlertsTotal.WithLabelValues(event.ItemName).Inc()
	w.logger.Warn("Inventory below minimum level",
		zap.Int64("item_id", event.InventoryItemID),
		zap.String("item", event.ItemName),
		zap.String("remaining", event.RemainingQuantity.String()),
		zap.String("minimum", event.MinStockLevel.String()),
		zap.String("unit", event.Unit))

	alert := LowStockAlert{
		InventoryItemID:   event.InventoryItemID,
		ItemName:          event.ItemName,
		RemainingQuantity: event.RemainingQuantity.String(),
		MinStockLevel:     event.MinStockLevel.String(),
		Unit:              event.Unit,
	}
	if err := w.hub.BroadcastJSON(Message{Type: MessageTypeLowStockAlert, Data: alert}); err != nil {
		return err
	}

	return w.ledger.MarkEventProcessed(ctx, event.EventID, event.EventType)
}

func (w *BackOfficeWorker) handleBillFinalized(_ context.Context, event *models.BillFinalizedEvent) error {
	return w.hub.BroadcastJSON(Message{Type: event.EventType, Data: event})
}

func (w *BackOfficeWorker) handleOrderDeleted(_ context.Context, event *models.OrderDeletedEvent) error {
	return w.hub.BroadcastJSON(Message{Type: event.EventType, Data: event})
}

// Start consumes events until ctx is cancelled
func (w *BackOfficeWorker) Start(ctx context.Context) error {
	if w.consumer == nil {
		return fmt.Errorf("back-office worker has no consumer")
	}
	w.logger.Info("Starting back-office worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *BackOfficeWorker) Stop() error {
	w.logger.Info("Stopping back-office worker")
	if w.consumer == nil {
		return nil
	}
	return w.consumer.Close()
}
