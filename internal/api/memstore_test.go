package api

import (
	"context"
	"fmt"
	"sort"
	"time"

	"dhaba-pos/internal/models"
	"dhaba-pos/internal/store"

	"github.com/shopspring/decimal"
)

// memStore is an in-memory stand-in for *store.Store covering the calls the
// HTTP tests drive.
type memStore struct {
	products  []models.Product
	tables    map[int64]int64
	kots      map[int64]*models.KOT
	orders    map[int64]*models.Order
	inventory map[int64]*models.InventoryItem
	nextKOT   int64
	nextOrder int64
}

func newMemStore() *memStore {
	return &memStore{
		products: []models.Product{
			{ID: 1, Name: "Butter Chicken", Price: decimal.NewFromInt(100), Category: "Main", IsAvailable: true},
			{ID: 2, Name: "Tandoori Roti", Price: decimal.NewFromInt(50), Category: "Breads", IsAvailable: true},
			{ID: 3, Name: "Sarson Ka Saag", Price: decimal.NewFromInt(140), Category: "Main", IsAvailable: false},
		},
		tables:    map[int64]int64{1: 1, 2: 1},
		kots:      map[int64]*models.KOT{},
		orders:    map[int64]*models.Order{},
		inventory: map[int64]*models.InventoryItem{},
	}
}

func (m *memStore) sortedKOTs() []*models.KOT {
	out := make([]*models.KOT, 0, len(m.kots))
	for _, k := range m.kots {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// KOTs

func (m *memStore) CreateKOT(_ context.Context, kot *models.KOT) error {
	m.nextKOT++
	kot.ID = m.nextKOT
	kot.KOTNumber = fmt.Sprintf("KOT-%05d", kot.ID)
	kot.CreatedAt = time.Now()
	kot.UpdatedAt = kot.CreatedAt
	stored := *kot
	m.kots[kot.ID] = &stored
	return nil
}

func (m *memStore) GetKOT(_ context.Context, id int64) (*models.KOT, error) {
	k, ok := m.kots[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := *k
	return &out, nil
}

func (m *memStore) ListKOTs(_ context.Context, filter store.KOTFilter) ([]models.KOT, error) {
	var out []models.KOT
	for _, k := range m.sortedKOTs() {
		if filter.TableID != 0 && k.TableID != filter.TableID {
			continue
		}
		if len(filter.Statuses) > 0 {
			match := false
			for _, s := range filter.Statuses {
				match = match || k.Status == s
			}
			if !match {
				continue
			}
		}
		out = append(out, *k)
	}
	return out, nil
}

func (m *memStore) ListOpenKOTs(ctx context.Context, tableID int64) ([]models.KOT, error) {
	return m.ListKOTs(ctx, store.KOTFilter{TableID: tableID, Statuses: models.OpenKOTStatuses})
}

func (m *memStore) UpdateKOTStatus(_ context.Context, id int64, expected, next models.KOTStatus) error {
	k, ok := m.kots[id]
	if !ok || k.Status != expected {
		return store.ErrStatusConflict
	}
	k.Status = next
	return nil
}

func (m *memStore) DeleteKOT(_ context.Context, id int64) error {
	k, ok := m.kots[id]
	if !ok {
		return store.ErrNotFound
	}
	if k.Status == models.KOTStatusClosed {
		return store.ErrStatusConflict
	}
	delete(m.kots, id)
	return nil
}

func (m *memStore) CloseKOTs(_ context.Context, tableID int64, kotIDs []int64) (int64, error) {
	var n int64
	for _, id := range kotIDs {
		if k, ok := m.kots[id]; ok && k.TableID == tableID && k.Status.IsOpen() {
			k.Status = models.KOTStatusClosed
			n++
		}
	}
	return n, nil
}

func (m *memStore) CloseTableKOTs(_ context.Context, tableID int64) ([]int64, error) {
	ids := []int64{}
	for _, k := range m.sortedKOTs() {
		if k.TableID == tableID && k.Status != models.KOTStatusClosed {
			k.Status = models.KOTStatusClosed
			ids = append(ids, k.ID)
		}
	}
	return ids, nil
}

func (m *memStore) GetTableRoom(_ context.Context, tableID int64) (int64, error) {
	room, ok := m.tables[tableID]
	if !ok {
		return 0, store.ErrNotFound
	}
	return room, nil
}

// Catalog

func (m *memStore) ListProducts(context.Context) ([]models.Product, error) {
	return m.products, nil
}

func (m *memStore) GetProductsByIDs(_ context.Context, ids []int64) ([]models.Product, error) {
	var out []models.Product
	for _, p := range m.products {
		for _, id := range ids {
			if p.ID == id {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

func (m *memStore) CreateProduct(_ context.Context, p *models.Product) error {
	p.ID = int64(len(m.products) + 1)
	m.products = append(m.products, *p)
	return nil
}

func (m *memStore) ListRooms(context.Context) ([]models.Room, error) {
	return []models.Room{{ID: 1, RoomName: "Main Hall", IsActive: true}}, nil
}

func (m *memStore) GetCompanyConfig(context.Context) (*models.CompanyConfig, error) {
	return nil, store.ErrNotFound
}

func (m *memStore) UpsertCompanyConfig(context.Context, *models.CompanyConfig) error {
	return nil
}

// Orders

func (m *memStore) CreateOrder(_ context.Context, order *models.Order) error {
	m.nextOrder++
	order.ID = m.nextOrder
	order.CreatedAt = time.Now()
	stored := *order
	m.orders[order.ID] = &stored
	return nil
}

func (m *memStore) GetOrderByID(_ context.Context, id int64) (*models.Order, error) {
	o, ok := m.orders[id]
	if !ok || o.DeletedAt != nil {
		return nil, store.ErrNotFound
	}
	out := *o
	return &out, nil
}

func (m *memStore) GetOrderByIdempotencyKey(_ context.Context, key string) (*models.Order, error) {
	for _, o := range m.orders {
		if o.IdempotencyKey != nil && *o.IdempotencyKey == key {
			out := *o
			return &out, nil
		}
	}
	return nil, nil
}

func (m *memStore) CompleteOrder(_ context.Context, id int64) error {
	o, ok := m.orders[id]
	if !ok {
		return store.ErrNotFound
	}
	o.Status = models.OrderStatusCompleted
	return nil
}

func (m *memStore) VoidOrder(_ context.Context, id int64) error {
	o, ok := m.orders[id]
	if !ok {
		return store.ErrNotFound
	}
	o.Status = models.OrderStatusVoided
	o.IdempotencyKey = nil
	return nil
}

func (m *memStore) ListOrders(context.Context, store.OrderFilter) ([]models.Order, error) {
	var out []models.Order
	for _, o := range m.orders {
		if o.Status == models.OrderStatusCompleted && o.DeletedAt == nil {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *memStore) SoftDeleteOrder(_ context.Context, id int64, deletedBy, reason string) (*models.Order, error) {
	o, ok := m.orders[id]
	if !ok || o.DeletedAt != nil {
		return nil, store.ErrNotFound
	}
	now := time.Now()
	o.DeletedAt, o.DeletedBy, o.DeletionReason = &now, &deletedBy, &reason
	o.FillDeletionInfo()
	out := *o
	return &out, nil
}

func (m *memStore) ListDeletedOrders(context.Context, int) ([]models.Order, error) {
	var out []models.Order
	for _, o := range m.orders {
		if o.DeletedAt != nil {
			out = append(out, *o)
		}
	}
	return out, nil
}

// Revenue

func (m *memStore) RevenueTotal(context.Context, models.RevenueFilter) (*models.RevenueTotal, error) {
	total := &models.RevenueTotal{}
	for _, o := range m.orders {
		if o.Status == models.OrderStatusCompleted && o.DeletedAt == nil {
			total.OrderCount++
			total.TotalRevenue = total.TotalRevenue.Add(o.GrandTotal)
		}
	}
	return total, nil
}

func (m *memStore) DailyRevenue(context.Context, models.RevenueFilter) ([]models.DailyRevenue, error) {
	return nil, nil
}

func (m *memStore) RevenueByPaymentMethod(context.Context, models.RevenueFilter) ([]models.PaymentMethodRevenue, error) {
	return nil, nil
}

func (m *memStore) DiscountSummary(context.Context, models.RevenueFilter) ([]models.DiscountSummary, error) {
	return nil, nil
}

func (m *memStore) TaxSummary(context.Context, models.RevenueFilter) ([]models.TaxSummary, error) {
	return nil, nil
}

func (m *memStore) TaxByPaymentMethod(context.Context, models.RevenueFilter) ([]models.PaymentMethodTax, error) {
	return nil, nil
}

// Inventory

func (m *memStore) ListInventory(context.Context, store.InventoryFilter) ([]models.InventoryItem, error) {
	var out []models.InventoryItem
	for _, it := range m.inventory {
		out = append(out, *it)
	}
	return out, nil
}

func (m *memStore) GetInventoryItem(_ context.Context, id int64) (*models.InventoryItem, error) {
	it, ok := m.inventory[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := *it
	return &out, nil
}

func (m *memStore) CreateInventoryItem(_ context.Context, item *models.InventoryItem) error {
	item.ID = int64(len(m.inventory) + 1)
	stored := *item
	m.inventory[item.ID] = &stored
	return nil
}

func (m *memStore) UpdateInventoryItem(_ context.Context, item *models.InventoryItem) error {
	if _, ok := m.inventory[item.ID]; !ok {
		return store.ErrNotFound
	}
	stored := *item
	m.inventory[item.ID] = &stored
	return nil
}

func (m *memStore) DeleteInventoryItem(_ context.Context, id int64) error {
	if _, ok := m.inventory[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.inventory, id)
	return nil
}

func (m *memStore) RecordUsage(_ context.Context, usage *models.InventoryUsage) (*models.InventoryItem, error) {
	it, ok := m.inventory[usage.InventoryItemID]
	if !ok {
		return nil, store.ErrNotFound
	}
	remaining := it.Quantity.Sub(usage.QuantityUsed)
	if remaining.IsNegative() {
		return nil, store.ErrInsufficientStock
	}
	it.Quantity = remaining
	usage.ItemName = it.Name
	out := *it
	return &out, nil
}

func (m *memStore) ListUsage(context.Context, int64, int) ([]models.InventoryUsage, error) {
	return nil, nil
}

func (m *memStore) UsageStatistics(context.Context, store.UsageFilter) ([]models.UsageStatistic, error) {
	return nil, nil
}

func (m *memStore) StockValue(context.Context) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, it := range m.inventory {
		total = total.Add(it.Quantity.Mul(it.CostPerUnit))
	}
	return total, nil
}
