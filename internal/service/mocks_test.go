package service

import (
	"context"
	"time"

	"dhaba-pos/internal/models"
	"dhaba-pos/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type mockKOTStore struct{ mock.Mock }

func (m *mockKOTStore) CreateKOT(ctx context.Context, kot *models.KOT) error {
	return m.Called(ctx, kot).Error(0)
}

func (m *mockKOTStore) GetKOT(ctx context.Context, id int64) (*models.KOT, error) {
	args := m.Called(ctx, id)
	kot, _ := args.Get(0).(*models.KOT)
	return kot, args.Error(1)
}

func (m *mockKOTStore) ListKOTs(ctx context.Context, filter store.KOTFilter) ([]models.KOT, error) {
	args := m.Called(ctx, filter)
	kots, _ := args.Get(0).([]models.KOT)
	return kots, args.Error(1)
}

func (m *mockKOTStore) ListOpenKOTs(ctx context.Context, tableID int64) ([]models.KOT, error) {
	args := m.Called(ctx, tableID)
	kots, _ := args.Get(0).([]models.KOT)
	return kots, args.Error(1)
}

func (m *mockKOTStore) UpdateKOTStatus(ctx context.Context, id int64, expected, next models.KOTStatus) error {
	return m.Called(ctx, id, expected, next).Error(0)
}

func (m *mockKOTStore) DeleteKOT(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockKOTStore) CloseKOTs(ctx context.Context, tableID int64, kotIDs []int64) (int64, error) {
	args := m.Called(ctx, tableID, kotIDs)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockKOTStore) CloseTableKOTs(ctx context.Context, tableID int64) ([]int64, error) {
	args := m.Called(ctx, tableID)
	ids, _ := args.Get(0).([]int64)
	return ids, args.Error(1)
}

func (m *mockKOTStore) GetTableRoom(ctx context.Context, tableID int64) (int64, error) {
	args := m.Called(ctx, tableID)
	return args.Get(0).(int64), args.Error(1)
}

type mockOrderStore struct{ mock.Mock }

func (m *mockOrderStore) CreateOrder(ctx context.Context, order *models.Order) error {
	return m.Called(ctx, order).Error(0)
}

func (m *mockOrderStore) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	args := m.Called(ctx, id)
	order, _ := args.Get(0).(*models.Order)
	return order, args.Error(1)
}

func (m *mockOrderStore) GetOrderByIdempotencyKey(ctx context.Context, key string) (*models.Order, error) {
	args := m.Called(ctx, key)
	order, _ := args.Get(0).(*models.Order)
	return order, args.Error(1)
}

func (m *mockOrderStore) CompleteOrder(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockOrderStore) VoidOrder(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockOrderStore) ListOrders(ctx context.Context, filter store.OrderFilter) ([]models.Order, error) {
	args := m.Called(ctx, filter)
	orders, _ := args.Get(0).([]models.Order)
	return orders, args.Error(1)
}

func (m *mockOrderStore) SoftDeleteOrder(ctx context.Context, id int64, deletedBy, reason string) (*models.Order, error) {
	args := m.Called(ctx, id, deletedBy, reason)
	order, _ := args.Get(0).(*models.Order)
	return order, args.Error(1)
}

func (m *mockOrderStore) ListDeletedOrders(ctx context.Context, limit int) ([]models.Order, error) {
	args := m.Called(ctx, limit)
	orders, _ := args.Get(0).([]models.Order)
	return orders, args.Error(1)
}

type mockCatalogStore struct{ mock.Mock }

func (m *mockCatalogStore) ListProducts(ctx context.Context) ([]models.Product, error) {
	args := m.Called(ctx)
	products, _ := args.Get(0).([]models.Product)
	return products, args.Error(1)
}

func (m *mockCatalogStore) GetProductsByIDs(ctx context.Context, ids []int64) ([]models.Product, error) {
	args := m.Called(ctx, ids)
	products, _ := args.Get(0).([]models.Product)
	return products, args.Error(1)
}

func (m *mockCatalogStore) CreateProduct(ctx context.Context, product *models.Product) error {
	return m.Called(ctx, product).Error(0)
}

func (m *mockCatalogStore) ListRooms(ctx context.Context) ([]models.Room, error) {
	args := m.Called(ctx)
	rooms, _ := args.Get(0).([]models.Room)
	return rooms, args.Error(1)
}

func (m *mockCatalogStore) GetCompanyConfig(ctx context.Context) (*models.CompanyConfig, error) {
	args := m.Called(ctx)
	cfg, _ := args.Get(0).(*models.CompanyConfig)
	return cfg, args.Error(1)
}

func (m *mockCatalogStore) UpsertCompanyConfig(ctx context.Context, cfg *models.CompanyConfig) error {
	return m.Called(ctx, cfg).Error(0)
}

type mockInventoryStore struct{ mock.Mock }

func (m *mockInventoryStore) ListInventory(ctx context.Context, filter store.InventoryFilter) ([]models.InventoryItem, error) {
	args := m.Called(ctx, filter)
	items, _ := args.Get(0).([]models.InventoryItem)
	return items, args.Error(1)
}

func (m *mockInventoryStore) GetInventoryItem(ctx context.Context, id int64) (*models.InventoryItem, error) {
	args := m.Called(ctx, id)
	item, _ := args.Get(0).(*models.InventoryItem)
	return item, args.Error(1)
}

func (m *mockInventoryStore) CreateInventoryItem(ctx context.Context, item *models.InventoryItem) error {
	return m.Called(ctx, item).Error(0)
}

func (m *mockInventoryStore) UpdateInventoryItem(ctx context.Context, item *models.InventoryItem) error {
	return m.Called(ctx, item).Error(0)
}

func (m *mockInventoryStore) DeleteInventoryItem(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockInventoryStore) RecordUsage(ctx context.Context, usage *models.InventoryUsage) (*models.InventoryItem, error) {
	args := m.Called(ctx, usage)
	item, _ := args.Get(0).(*models.InventoryItem)
	return item, args.Error(1)
}

func (m *mockInventoryStore) ListUsage(ctx context.Context, itemID int64, limit int) ([]models.InventoryUsage, error) {
	args := m.Called(ctx, itemID, limit)
	usage, _ := args.Get(0).([]models.InventoryUsage)
	return usage, args.Error(1)
}

func (m *mockInventoryStore) UsageStatistics(ctx context.Context, filter store.UsageFilter) ([]models.UsageStatistic, error) {
	args := m.Called(ctx, filter)
	stats, _ := args.Get(0).([]models.UsageStatistic)
	return stats, args.Error(1)
}

func (m *mockInventoryStore) StockValue(ctx context.Context) (decimal.Decimal, error) {
	args := m.Called(ctx)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

type mockRevenueStore struct{ mock.Mock }

func (m *mockRevenueStore) RevenueTotal(ctx context.Context, filter models.RevenueFilter) (*models.RevenueTotal, error) {
	args := m.Called(ctx, filter)
	total, _ := args.Get(0).(*models.RevenueTotal)
	return total, args.Error(1)
}

func (m *mockRevenueStore) DailyRevenue(ctx context.Context, filter models.RevenueFilter) ([]models.DailyRevenue, error) {
	args := m.Called(ctx, filter)
	rows, _ := args.Get(0).([]models.DailyRevenue)
	return rows, args.Error(1)
}

func (m *mockRevenueStore) RevenueByPaymentMethod(ctx context.Context, filter models.RevenueFilter) ([]models.PaymentMethodRevenue, error) {
	args := m.Called(ctx, filter)
	rows, _ := args.Get(0).([]models.PaymentMethodRevenue)
	return rows, args.Error(1)
}

func (m *mockRevenueStore) DiscountSummary(ctx context.Context, filter models.RevenueFilter) ([]models.DiscountSummary, error) {
	args := m.Called(ctx, filter)
	rows, _ := args.Get(0).([]models.DiscountSummary)
	return rows, args.Error(1)
}

func (m *mockRevenueStore) TaxSummary(ctx context.Context, filter models.RevenueFilter) ([]models.TaxSummary, error) {
	args := m.Called(ctx, filter)
	rows, _ := args.Get(0).([]models.TaxSummary)
	return rows, args.Error(1)
}

func (m *mockRevenueStore) TaxByPaymentMethod(ctx context.Context, filter models.RevenueFilter) ([]models.PaymentMethodTax, error) {
	args := m.Called(ctx, filter)
	rows, _ := args.Get(0).([]models.PaymentMethodTax)
	return rows, args.Error(1)
}

type mockLocker struct{ mock.Mock }

func (m *mockLocker) AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (string, bool, error) {
	args := m.Called(ctx, lockKey, ttl)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *mockLocker) ReleaseLock(ctx context.Context, lockKey, token string) (bool, error) {
	args := m.Called(ctx, lockKey, token)
	return args.Bool(0), args.Error(1)
}

type mockIdempotency struct{ mock.Mock }

func (m *mockIdempotency) RememberIdempotencyKey(ctx context.Context, key string, orderID int64, ttl time.Duration) error {
	return m.Called(ctx, key, orderID, ttl).Error(0)
}

func (m *mockIdempotency) LookupIdempotencyKey(ctx context.Context, key string) (int64, bool, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(int64), args.Bool(1), args.Error(2)
}

// stubCatalog serves a fixed catalog and company config.
type stubCatalog struct {
	products []models.Product
	company  models.CompanyConfig
}

func (c *stubCatalog) Products(context.Context) ([]models.Product, error)      { return c.products, nil }
func (c *stubCatalog) FreshProducts(context.Context) ([]models.Product, error) { return c.products, nil }
func (c *stubCatalog) CompanyConfig(context.Context) (models.CompanyConfig, error) {
	return c.company, nil
}

// recordingPublisher keeps the type of every published event.
type recordingPublisher struct {
	events []string
}

func (p *recordingPublisher) PublishKOTEvent(_ context.Context, eventType string, _ *models.KOT) error {
	p.events = append(p.events, eventType)
	return nil
}

func (p *recordingPublisher) PublishKOTsClosed(context.Context, int64, []int64) error {
	p.events = append(p.events, models.EventTypeKOTsClosed)
	return nil
}

func (p *recordingPublisher) PublishBillFinalized(context.Context, *models.Order) error {
	p.events = append(p.events, models.EventTypeBillFinalized)
	return nil
}

func (p *recordingPublisher) PublishOrderDeleted(context.Context, *models.Order) error {
	p.events = append(p.events, models.EventTypeOrderDeleted)
	return nil
}

func (p *recordingPublisher) PublishInventoryUsage(context.Context, *models.InventoryUsage, *models.InventoryItem) error {
	p.events = append(p.events, models.EventTypeInventoryUsageRecorded)
	return nil
}
