package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event types
const (
	EventTypeKOTCreated             = "KOT_CREATED"
	EventTypeKOTStatusChanged       = "KOT_STATUS_CHANGED"
	EventTypeKOTDeleted             = "KOT_DELETED"
	EventTypeKOTsClosed             = "KOTS_CLOSED"
	EventTypeBillFinalized          = "BILL_FINALIZED"
	EventTypeOrderDeleted           = "ORDER_DELETED"
	EventTypeInventoryUsageRecorded = "INVENTORY_USAGE_RECORDED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// KOTEvent is published whenever a ticket appears, changes status or leaves
// the kitchen queue.
type KOTEvent struct {
	BaseEvent
	KOTID     int64     `json:"kot_id"`
	KOTNumber string    `json:"kot_number"`
	TableID   int64     `json:"table_id"`
	RoomID    int64     `json:"room_id"`
	Status    KOTStatus `json:"status"`
	Items     []KOTItem `json:"items,omitempty"`
}

// KOTsClosedEvent published when a table's tickets are closed
type KOTsClosedEvent struct {
	BaseEvent
	TableID int64   `json:"table_id"`
	KOTIDs  []int64 `json:"kot_ids"`
}

// BillFinalizedEvent published when a bill becomes an order
type BillFinalizedEvent struct {
	BaseEvent
	OrderID       int64           `json:"order_id"`
	TableID       int64           `json:"table_id"`
	RoomID        int64           `json:"room_id"`
	KOTIDs        []int64         `json:"kot_ids"`
	GrandTotal    decimal.Decimal `json:"grand_total"`
	PaymentMethod string          `json:"payment_method"`
}

// OrderDeletedEvent published when an order is removed with a reason
type OrderDeletedEvent struct {
	BaseEvent
	OrderID   int64  `json:"order_id"`
	DeletedBy string `json:"deleted_by"`
	Reason    string `json:"reason"`
}

// InventoryUsageEvent published after stock is consumed
type InventoryUsageEvent struct {
	BaseEvent
	InventoryItemID   int64           `json:"inventory_item_id"`
	ItemName          string          `json:"item_name"`
	QuantityUsed      decimal.Decimal `json:"quantity_used"`
	RemainingQuantity decimal.Decimal `json:"remaining_quantity"`
	MinStockLevel     decimal.Decimal `json:"min_stock_level"`
	Unit              string          `json:"unit"`
}
