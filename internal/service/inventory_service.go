package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"dhaba-pos/internal/models"
	"dhaba-pos/internal/store"
	"dhaba-pos/internal/util"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Units accepted for inventory quantities.
var inventoryUnits = map[string]bool{
	"kg": true, "g": true, "l": true, "ml": true,
	"unit": true, "pack": true, "dozen": true, "box": true, "bottle": true,
}

// InventoryService tracks stock and its consumption
type InventoryService struct {
	store     InventoryStore
	publisher Publisher
	logger    *zap.Logger
}

// NewInventoryService creates a new inventory service
func NewInventoryService(store InventoryStore, publisher Publisher) *InventoryService {
	return &InventoryService{
		store:     store,
		publisher: publisher,
		logger:    util.Named("inventory"),
	}
}

// InventoryItemRequest represents a create or full update of a stock item
type InventoryItemRequest struct {
	Name          string          `json:"name" binding:"required,max=120"`
	Category      string          `json:"category" binding:"required,max=60"`
	Quantity      decimal.Decimal `json:"quantity"`
	Unit          string          `json:"unit" binding:"required"`
	MinStockLevel decimal.Decimal `json:"minStockLevel"`
	CostPerUnit   decimal.Decimal `json:"costPerUnit"`
	Supplier      string          `json:"supplier" binding:"max=120"`
}

// RecordUsageRequest represents stock taken out of an item
type RecordUsageRequest struct {
	InventoryItemID int64           `json:"inventoryItemId" binding:"required,min=1"`
	QuantityUsed    decimal.Decimal `json:"quantityUsed" binding:"required"`
	Purpose         string          `json:"purpose" binding:"max=120"`
	UsedBy          string          `json:"usedBy" binding:"max=60"`
	Notes           string          `json:"notes" binding:"max=500"`
}

// InventorySummary is the headline view of the stock room
type InventorySummary struct {
	TotalItems    int             `json:"totalItems"`
	LowStockItems int             `json:"lowStockItems"`
	StockValue    decimal.Decimal `json:"stockValue"`
}

func (r *InventoryItemRequest) toItem() (*models.InventoryItem, error) {
	unit := strings.ToLower(strings.TrimSpace(r.Unit))
	if !inventoryUnits[unit] {
		return nil, invalid("unit", "unsupported unit %q", r.Unit)
	}
	if r.Quantity.IsNegative() {
		return nil, invalid("quantity", "must not be negative")
	}
	if r.MinStockLevel.IsNegative() {
		return nil, invalid("minStockLevel", "must not be negative")
	}
	if r.CostPerUnit.IsNegative() {
		return nil, invalid("costPerUnit", "must not be negative")
	}

	return &models.InventoryItem{
		Name:          strings.TrimSpace(r.Name),
		Category:      strings.TrimSpace(r.Category),
		Quantity:      r.Quantity,
		Unit:          unit,
		MinStockLevel: r.MinStockLevel,
		CostPerUnit:   r.CostPerUnit.Round(2),
		Supplier:      strings.TrimSpace(r.Supplier),
	}, nil
}

// ListItems returns stock items matching filter
func (s *InventoryService) ListItems(ctx context.Context, filter store.InventoryFilter) ([]models.InventoryItem, error) {
	return s.store.ListInventory(ctx, filter)
}

// CreateItem adds a stock item
func (s *InventoryService) CreateItem(ctx context.Context, req *InventoryItemRequest) (*models.InventoryItem, error) {
	item, err := req.toItem()
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateInventoryItem(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to create inventory item: %w", err)
	}
	s.logger.Info("Inventory item created", zap.Int64("item_id", item.ID), zap.String("name", item.Name))
	return item, nil
}

// UpdateItem replaces the fields of a stock item
func (s *InventoryService) UpdateItem(ctx context.Context, id int64, req *InventoryItemRequest) (*models.InventoryItem, error) {
	item, err := req.toItem()
	if err != nil {
		return nil, err
	}
	item.ID = id
	if err := s.store.UpdateInventoryItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// DeleteItem removes a stock item and its history
func (s *InventoryService) DeleteItem(ctx context.Context, id int64) error {
	if err := s.store.DeleteInventoryItem(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Inventory item deleted", zap.Int64("item_id", id))
	return nil
}

// RecordUsage takes stock out of an item. Usage that would leave negative
// stock fails with ErrInsufficientStock.
func (s *InventoryService) RecordUsage(ctx context.Context, req *RecordUsageRequest) (*models.InventoryUsage, *models.InventoryItem, error) {
	ctx, span := util.StartSpan(ctx, "InventoryService.RecordUsage", attribute.Int64("item_id", req.InventoryItemID))
	defer span.End()

	if !req.QuantityUsed.IsPositive() {
		return nil, nil, invalid("quantityUsed", "must be greater than zero")
	}

	usage := &models.InventoryUsage{
		InventoryItemID: req.InventoryItemID,
		QuantityUsed:    req.QuantityUsed,
		Purpose:         strings.TrimSpace(req.Purpose),
		UsedBy:          strings.TrimSpace(req.UsedBy),
		Notes:           strings.TrimSpace(req.Notes),
	}
	item, err := s.store.RecordUsage(ctx, usage)
	if err != nil {
		return nil, nil, util.SpanError(span, err)
	}

	util.InventoryUsageRecordedTotal.Inc()
	s.logger.Info("Inventory usage recorded",
		zap.Int64("item_id", item.ID),
		zap.String("used", usage.QuantityUsed.String()),
		zap.String("remaining", item.Quantity.String()),
		zap.String("unit", item.Unit))

	if err := s.publisher.PublishInventoryUsage(ctx, usage, item); err != nil {
		s.logger.Error("Failed to publish INVENTORY_USAGE_RECORDED event", zap.Int64("item_id", item.ID), zap.Error(err))
	}
	return usage, item, nil
}

// UsageHistory returns the usage records of one item
func (s *InventoryService) UsageHistory(ctx context.Context, itemID int64, limit int) ([]models.InventoryUsage, error) {
	if _, err := s.store.GetInventoryItem(ctx, itemID); err != nil {
		return nil, err
	}
	return s.store.ListUsage(ctx, itemID, limit)
}

// UsageStatistics aggregates usage per item
func (s *InventoryService) UsageStatistics(ctx context.Context, category, startDate, endDate string) ([]models.UsageStatistic, error) {
	filter := store.UsageFilter{Category: category}
	if startDate != "" {
		t, err := time.Parse(dateLayout, startDate)
		if err != nil {
			return nil, invalid("startDate", "expected YYYY-MM-DD")
		}
		filter.StartDate = &t
	}
	if endDate != "" {
		t, err := time.Parse(dateLayout, endDate)
		if err != nil {
			return nil, invalid("endDate", "expected YYYY-MM-DD")
		}
		t = t.AddDate(0, 0, 1)
		filter.EndDate = &t
	}
	return s.store.UsageStatistics(ctx, filter)
}

// Summary counts items, low stock items and the value of stock on hand
func (s *InventoryService) Summary(ctx context.Context) (*InventorySummary, error) {
	items, err := s.store.ListInventory(ctx, store.InventoryFilter{})
	if err != nil {
		return nil, err
	}
	value, err := s.store.StockValue(ctx)
	if err != nil {
		return nil, err
	}

	summary := &InventorySummary{TotalItems: len(items), StockValue: value}
	for _, item := range items {
		if item.LowStock() {
			summary.LowStockItems++
		}
	}
	return summary, nil
}
