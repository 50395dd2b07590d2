package models

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Product represents a menu item in the catalog
type Product struct {
	ID          int64           `db:"id" json:"id"`
	Name        string          `db:"name" json:"name"`
	Price       decimal.Decimal `db:"price" json:"price"`
	CategoryID  int64           `db:"category_id" json:"categoryId"`
	Category    string          `db:"category" json:"category"`
	IsAvailable bool            `db:"is_available" json:"isAvailable"`
	CreatedAt   time.Time       `db:"created_at" json:"createdAt"`
}

// Room groups dining tables
type Room struct {
	ID       int64   `db:"id" json:"id"`
	RoomName string  `db:"room_name" json:"roomName"`
	IsActive bool    `db:"is_active" json:"isActive"`
	Tables   []Table `db:"-" json:"tables"`
}

// Table is a dining table inside a room
type Table struct {
	ID          int64       `db:"id" json:"id"`
	RoomID      int64       `db:"room_id" json:"roomId"`
	TableNumber string      `db:"table_number" json:"tableNumber"`
	Capacity    int         `db:"capacity" json:"capacity"`
	Status      TableStatus `db:"status" json:"status"`
	OpenKOTs    int         `db:"open_kots" json:"openKots"`
}

type TableStatus string

// Table statuses
const (
	TableAvailable TableStatus = "available"
	TableOccupied  TableStatus = "occupied"
	TableReserved  TableStatus = "reserved"
)

// KOT is a kitchen order ticket placed for a table
type KOT struct {
	ID         int64     `db:"id" json:"id"`
	KOTNumber  string    `db:"kot_number" json:"kotNumber"`
	TableID    int64     `db:"table_id" json:"tableId"`
	RoomID     int64     `db:"room_id" json:"roomId"`
	Status     KOTStatus `db:"status" json:"status"`
	CreatedBy  string    `db:"created_by" json:"createdBy"`
	OrderItems []KOTItem `db:"-" json:"orderItems"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `db:"updated_at" json:"updatedAt"`
}

// KOTItem is a single product line on a KOT
type KOTItem struct {
	ID                  int64  `db:"id" json:"id"`
	KOTID               int64  `db:"kot_id" json:"kotId"`
	ProductID           int64  `db:"product_id" json:"productId"`
	Quantity            int    `db:"quantity" json:"quantity"`
	SpecialInstructions string `db:"special_instructions" json:"specialInstructions"`
}

// Discount applied to a bill
type Discount struct {
	Type   DiscountType    `json:"type"`
	Value  decimal.Decimal `json:"value"`
	Reason string          `json:"reason"`
}

type DiscountType string

// Discount types
const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// CompanyConfig holds the restaurant details printed on receipts and the
// pricing defaults used when building bills.
type CompanyConfig struct {
	Name            string          `db:"name" json:"name"`
	Address         string          `db:"address" json:"address"`
	Phone           string          `db:"phone" json:"phone"`
	Email           string          `db:"email" json:"email"`
	TaxRate         decimal.Decimal `db:"tax_rate" json:"taxRate"`
	DiscountDefault decimal.Decimal `db:"discount_default" json:"discountDefault"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updatedAt"`
}

// Order is a finalized bill
type Order struct {
	ID             int64           `db:"id" json:"id"`
	TableID        int64           `db:"table_id" json:"tableId"`
	RoomID         int64           `db:"room_id" json:"roomId"`
	KOTIDs         pq.Int64Array   `db:"kot_ids" json:"kotIds"`
	Subtotal       decimal.Decimal `db:"subtotal" json:"subtotal"`
	DiscountType   string          `db:"discount_type" json:"discountType"`
	DiscountValue  decimal.Decimal `db:"discount_value" json:"discountValue"`
	DiscountReason string          `db:"discount_reason" json:"discountReason"`
	DiscountAmount decimal.Decimal `db:"discount_amount" json:"discountAmount"`
	TaxRate        decimal.Decimal `db:"tax_rate" json:"taxRate"`
	TaxAmount      decimal.Decimal `db:"tax_amount" json:"taxAmount"`
	GrandTotal     decimal.Decimal `db:"grand_total" json:"grandTotal"`
	PaymentMethod  string          `db:"payment_method" json:"paymentMethod"`
	Status         string          `db:"status" json:"status"`
	IdempotencyKey *string         `db:"idempotency_key" json:"idempotencyKey,omitempty"`
	CreatedBy      string          `db:"created_by" json:"createdBy"`
	CreatedAt      time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updatedAt"`

	DeletedBy      *string    `db:"deleted_by" json:"-"`
	DeletionReason *string    `db:"deletion_reason" json:"-"`
	DeletedAt      *time.Time `db:"deleted_at" json:"-"`

	Items        []OrderItem   `db:"-" json:"items"`
	DeletionInfo *DeletionInfo `db:"-" json:"deletionInfo,omitempty"`
}

// OrderItem is a priced line of a finalized order
type OrderItem struct {
	ID        int64           `db:"id" json:"id"`
	OrderID   int64           `db:"order_id" json:"orderId"`
	ProductID int64           `db:"product_id" json:"productId"`
	Name      string          `db:"name" json:"name"`
	Quantity  int             `db:"quantity" json:"quantity"`
	Price     decimal.Decimal `db:"price" json:"price"`
	LineTotal decimal.Decimal `db:"line_total" json:"lineTotal"`
}

// DeletionInfo records who removed an order and why
type DeletionInfo struct {
	DeletedBy string    `json:"deletedBy"`
	Reason    string    `json:"reason"`
	DeletedAt time.Time `json:"deletedAt"`
}

// FillDeletionInfo populates DeletionInfo from the nullable deletion columns.
func (o *Order) FillDeletionInfo() {
	if o.DeletedAt == nil {
		o.DeletionInfo = nil
		return
	}
	info := &DeletionInfo{DeletedAt: *o.DeletedAt}
	if o.DeletedBy != nil {
		info.DeletedBy = *o.DeletedBy
	}
	if o.DeletionReason != nil {
		info.Reason = *o.DeletionReason
	}
	o.DeletionInfo = info
}

// Order statuses
const (
	OrderStatusPending   = "pending"
	OrderStatusCompleted = "completed"
	OrderStatusVoided    = "voided"
)

// Payment methods
const (
	PaymentCash   = "cash"
	PaymentCard   = "card"
	PaymentUPI    = "upi"
	PaymentOnline = "online"
)

// InventoryItem is a raw material or supply kept in stock
type InventoryItem struct {
	ID            int64           `db:"id" json:"id"`
	Name          string          `db:"name" json:"name"`
	Category      string          `db:"category" json:"category"`
	Quantity      decimal.Decimal `db:"quantity" json:"quantity"`
	Unit          string          `db:"unit" json:"unit"`
	MinStockLevel decimal.Decimal `db:"min_stock_level" json:"minStockLevel"`
	CostPerUnit   decimal.Decimal `db:"cost_per_unit" json:"costPerUnit"`
	Supplier      string          `db:"supplier" json:"supplier"`
	CreatedAt     time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updatedAt"`
}

// LowStock reports whether the item is below its minimum level.
func (i InventoryItem) LowStock() bool {
	return i.Quantity.LessThan(i.MinStockLevel)
}

// InventoryUsage records stock consumed from an inventory item
type InventoryUsage struct {
	ID              int64           `db:"id" json:"id"`
	InventoryItemID int64           `db:"inventory_item_id" json:"inventoryItemId"`
	ItemName        string          `db:"item_name" json:"itemName"`
	QuantityUsed    decimal.Decimal `db:"quantity_used" json:"quantityUsed"`
	Purpose         string          `db:"purpose" json:"purpose"`
	UsedBy          string          `db:"used_by" json:"usedBy"`
	Notes           string          `db:"notes" json:"notes"`
	UsedAt          time.Time       `db:"used_at" json:"usedAt"`
}

// UsageStatistic is the aggregated consumption of one inventory item
type UsageStatistic struct {
	InventoryItemID int64           `db:"inventory_item_id" json:"inventoryItemId"`
	ItemName        string          `db:"item_name" json:"itemName"`
	Category        string          `db:"category" json:"category"`
	Unit            string          `db:"unit" json:"unit"`
	TotalUsed       decimal.Decimal `db:"total_used" json:"totalUsed"`
	UsageCount      int             `db:"usage_count" json:"usageCount"`
	TotalCost       decimal.Decimal `db:"total_cost" json:"totalCost"`
}
