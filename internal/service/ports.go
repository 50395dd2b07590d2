package service

import (
	"context"
	"time"

	"dhaba-pos/internal/models"
	"dhaba-pos/internal/store"

	"github.com/shopspring/decimal"
)

// The interfaces below are the slices of *store.Store, *redisclient.Client
// and *broker.EventPublisher each service needs.

type KOTStore interface {
	CreateKOT(ctx context.Context, kot *models.KOT) error
	GetKOT(ctx context.Context, id int64) (*models.KOT, error)
	ListKOTs(ctx context.Context, filter store.KOTFilter) ([]models.KOT, error)
	ListOpenKOTs(ctx context.Context, tableID int64) ([]models.KOT, error)
	UpdateKOTStatus(ctx context.Context, id int64, expected, next models.KOTStatus) error
	DeleteKOT(ctx context.Context, id int64) error
	CloseKOTs(ctx context.Context, tableID int64, kotIDs []int64) (int64, error)
	CloseTableKOTs(ctx context.Context, tableID int64) ([]int64, error)
	GetTableRoom(ctx context.Context, tableID int64) (int64, error)
}

type CatalogStore interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	GetProductsByIDs(ctx context.Context, ids []int64) ([]models.Product, error)
	CreateProduct(ctx context.Context, product *models.Product) error
	ListRooms(ctx context.Context) ([]models.Room, error)
	GetCompanyConfig(ctx context.Context) (*models.CompanyConfig, error)
	UpsertCompanyConfig(ctx context.Context, cfg *models.CompanyConfig) error
}

type OrderStore interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrderByID(ctx context.Context, id int64) (*models.Order, error)
	GetOrderByIdempotencyKey(ctx context.Context, key string) (*models.Order, error)
	CompleteOrder(ctx context.Context, id int64) error
	VoidOrder(ctx context.Context, id int64) error
	ListOrders(ctx context.Context, filter store.OrderFilter) ([]models.Order, error)
	SoftDeleteOrder(ctx context.Context, id int64, deletedBy, reason string) (*models.Order, error)
	ListDeletedOrders(ctx context.Context, limit int) ([]models.Order, error)
}

type RevenueStore interface {
	RevenueTotal(ctx context.Context, filter models.RevenueFilter) (*models.RevenueTotal, error)
	DailyRevenue(ctx context.Context, filter models.RevenueFilter) ([]models.DailyRevenue, error)
	RevenueByPaymentMethod(ctx context.Context, filter models.RevenueFilter) ([]models.PaymentMethodRevenue, error)
	DiscountSummary(ctx context.Context, filter models.RevenueFilter) ([]models.DiscountSummary, error)
	TaxSummary(ctx context.Context, filter models.RevenueFilter) ([]models.TaxSummary, error)
	TaxByPaymentMethod(ctx context.Context, filter models.RevenueFilter) ([]models.PaymentMethodTax, error)
}

type InventoryStore interface {
	ListInventory(ctx context.Context, filter store.InventoryFilter) ([]models.InventoryItem, error)
	GetInventoryItem(ctx context.Context, id int64) (*models.InventoryItem, error)
	CreateInventoryItem(ctx context.Context, item *models.InventoryItem) error
	UpdateInventoryItem(ctx context.Context, item *models.InventoryItem) error
	DeleteInventoryItem(ctx context.Context, id int64) error
	RecordUsage(ctx context.Context, usage *models.InventoryUsage) (*models.InventoryItem, error)
	ListUsage(ctx context.Context, itemID int64, limit int) ([]models.InventoryUsage, error)
	UsageStatistics(ctx context.Context, filter store.UsageFilter) ([]models.UsageStatistic, error)
	StockValue(ctx context.Context) (decimal.Decimal, error)
}

type Locker interface {
	AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (string, bool, error)
	ReleaseLock(ctx context.Context, lockKey, token string) (bool, error)
}

type IdempotencyCache interface {
	RememberIdempotencyKey(ctx context.Context, key string, orderID int64, ttl time.Duration) error
	LookupIdempotencyKey(ctx context.Context, key string) (int64, bool, error)
}

type Cache interface {
	GetJSON(ctx context.Context, key string, v interface{}) error
	SetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, keys ...string) error
}

type Publisher interface {
	PublishKOTEvent(ctx context.Context, eventType string, kot *models.KOT) error
	PublishKOTsClosed(ctx context.Context, tableID int64, kotIDs []int64) error
	PublishBillFinalized(ctx context.Context, order *models.Order) error
	PublishOrderDeleted(ctx context.Context, order *models.Order) error
	PublishInventoryUsage(ctx context.Context, usage *models.InventoryUsage, item *models.InventoryItem) error
}

type CatalogReader interface {
	Products(ctx context.Context) ([]models.Product, error)
	FreshProducts(ctx context.Context) ([]models.Product, error)
	CompanyConfig(ctx context.Context) (models.CompanyConfig, error)
}
