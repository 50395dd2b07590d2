package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dhaba-pos/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// ErrInsufficientStock is returned when usage would drive stock below zero.
var ErrInsufficientStock = errors.New("insufficient stock")

const inventoryColumns = `
	id, name, category, quantity, unit, min_stock_level, cost_per_unit, supplier, created_at, updated_at`

// InventoryFilter narrows ListInventory.
type InventoryFilter struct {
	Category string
	Search   string
	LowStock bool
}

// UsageFilter narrows usage statistics.
type UsageFilter struct {
	Category  string
	StartDate *time.Time
	EndDate   *time.Time
}

// ListInventory retrieves inventory items by name
func (s *Store) ListInventory(ctx context.Context, filter InventoryFilter) ([]models.InventoryItem, error) {
	query := "SELECT " + inventoryColumns + " FROM inventory_items WHERE 1=1"
	var args []interface{}

	if filter.Category != "" {
		args = append(args, filter.Category)
		query += fmt.Sprintf(" AND category = $%d", len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		query += fmt.Sprintf(" AND (name ILIKE $%d OR supplier ILIKE $%d)", len(args), len(args))
	}
	if filter.LowStock {
		query += " AND quantity < min_stock_level"
	}
	query += " ORDER BY name"

	items := []models.InventoryItem{}
	err := s.db.SelectContext(ctx, &items, query, args...)
	return items, err
}

// GetInventoryItem retrieves an inventory item by ID
func (s *Store) GetInventoryItem(ctx context.Context, id int64) (*models.InventoryItem, error) {
	var item models.InventoryItem
	err := s.db.GetContext(ctx, &item,
		"SELECT "+inventoryColumns+" FROM inventory_items WHERE id = $1", id)
	if err != nil {
		return nil, notFoundOr(err, "inventory item", id)
	}
	return &item, nil
}

// CreateInventoryItem creates a new inventory item
func (s *Store) CreateInventoryItem(ctx context.Context, item *models.InventoryItem) error {
	return s.db.QueryRowxContext(ctx, `
		INSERT INTO inventory_items (name, category, quantity, unit, min_stock_level, cost_per_unit, supplier)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`,
		item.Name, item.Category, item.Quantity, item.Unit, item.MinStockLevel,
		item.CostPerUnit, item.Supplier,
	).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
}

// UpdateInventoryItem overwrites the editable fields of an item
func (s *Store) UpdateInventoryItem(ctx context.Context, item *models.InventoryItem) error {
	err := s.db.QueryRowxContext(ctx, `
		UPDATE inventory_items
		SET name = $1, category = $2, quantity = $3, unit = $4, min_stock_level = $5,
			cost_per_unit = $6, supplier = $7, updated_at = NOW()
		WHERE id = $8
		RETURNING created_at, updated_at`,
		item.Name, item.Category, item.Quantity, item.Unit, item.MinStockLevel,
		item.CostPerUnit, item.Supplier, item.ID,
	).Scan(&item.CreatedAt, &item.UpdatedAt)
	return notFoundOr(err, "inventory item", item.ID)
}

// DeleteInventoryItem removes an item and its usage history
func (s *Store) DeleteInventoryItem(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM inventory_items WHERE id = $1", id)
	if err != nil {
		return err
	}
	return expectOneRow(result, "inventory item", id)
}

// RecordUsage decrements stock and records the usage atomically. The item row
// is locked for the duration of the transaction.
func (s *Store) RecordUsage(ctx context.Context, usage *models.InventoryUsage) (*models.InventoryItem, error) {
	var item models.InventoryItem
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &item,
			"SELECT "+inventoryColumns+" FROM inventory_items WHERE id = $1 FOR UPDATE",
			usage.InventoryItemID)
		if err != nil {
			return notFoundOr(err, "inventory item", usage.InventoryItemID)
		}

		remaining := item.Quantity.Sub(usage.QuantityUsed)
		if remaining.IsNegative() {
			return fmt.Errorf("%w: %s has %s %s, requested %s", ErrInsufficientStock,
				item.Name, item.Quantity.String(), item.Unit, usage.QuantityUsed.String())
		}

		err = tx.QueryRowxContext(ctx,
			"UPDATE inventory_items SET quantity = $1, updated_at = NOW() WHERE id = $2 RETURNING updated_at",
			remaining, item.ID).Scan(&item.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to update stock: %w", err)
		}
		item.Quantity = remaining

		return tx.QueryRowxContext(ctx, `
			INSERT INTO inventory_usage (inventory_item_id, quantity_used, purpose, used_by, notes)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, used_at`,
			usage.InventoryItemID, usage.QuantityUsed, usage.Purpose, usage.UsedBy, usage.Notes,
		).Scan(&usage.ID, &usage.UsedAt)
	})
	if err != nil {
		return nil, err
	}

	usage.ItemName = item.Name
	return &item, nil
}

// ListUsage retrieves the usage history of an item, newest first
func (s *Store) ListUsage(ctx context.Context, itemID int64, limit int) ([]models.InventoryUsage, error) {
	if limit <= 0 {
		limit = 100
	}

	usage := []models.InventoryUsage{}
	err := s.db.SelectContext(ctx, &usage, `
		SELECT u.id, u.inventory_item_id, i.name AS item_name, u.quantity_used, u.purpose,
			u.used_by, u.notes, u.used_at
		FROM inventory_usage u JOIN inventory_items i ON i.id = u.inventory_item_id
		WHERE u.inventory_item_id = $1
		ORDER BY u.used_at DESC, u.id DESC
		LIMIT $2`, itemID, limit)
	return usage, err
}

// UsageStatistics aggregates consumption per item, heaviest first
func (s *Store) UsageStatistics(ctx context.Context, filter UsageFilter) ([]models.UsageStatistic, error) {
	query := `
		SELECT i.id AS inventory_item_id, i.name AS item_name, i.category, i.unit,
			COALESCE(SUM(u.quantity_used), 0) AS total_used,
			COUNT(u.id) AS usage_count,
			COALESCE(ROUND(SUM(u.quantity_used * i.cost_per_unit), 2), 0) AS total_cost
		FROM inventory_items i
		JOIN inventory_usage u ON u.inventory_item_id = i.id
		WHERE 1=1`
	var args []interface{}

	if filter.Category != "" {
		args = append(args, filter.Category)
		query += fmt.Sprintf(" AND i.category = $%d", len(args))
	}
	if filter.StartDate != nil {
		args = append(args, *filter.StartDate)
		query += fmt.Sprintf(" AND u.used_at >= $%d", len(args))
	}
	if filter.EndDate != nil {
		args = append(args, *filter.EndDate)
		query += fmt.Sprintf(" AND u.used_at < $%d", len(args))
	}
	query += " GROUP BY i.id ORDER BY total_used DESC, i.name"

	stats := []models.UsageStatistic{}
	err := s.db.SelectContext(ctx, &stats, query, args...)
	return stats, err
}

// StockValue returns the total value of current stock
func (s *Store) StockValue(ctx context.Context) (decimal.Decimal, error) {
	var value decimal.Decimal
	err := s.db.GetContext(ctx, &value,
		"SELECT COALESCE(ROUND(SUM(quantity * cost_per_unit), 2), 0) FROM inventory_items")
	return value, err
}
