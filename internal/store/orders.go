package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"dhaba-pos/internal/models"

	"github.com/jmoiron/sqlx"
)

const orderColumns = `
	id, table_id, room_id, kot_ids, subtotal, discount_type, discount_value, discount_reason,
	discount_amount, tax_rate, tax_amount, grand_total, payment_method, status, idempotency_key,
	created_by, created_at, updated_at, deleted_by, deletion_reason, deleted_at`

// OrderFilter narrows ListOrders.
type OrderFilter struct {
	Search    string
	StartDate *time.Time
	EndDate   *time.Time
	SortAsc   bool
	Limit     int
	Offset    int
}

// CreateOrder creates an order and its items in a single transaction
func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		err := tx.QueryRowxContext(ctx, `
			INSERT INTO orders (table_id, room_id, kot_ids, subtotal, discount_type, discount_value,
				discount_reason, discount_amount, tax_rate, tax_amount, grand_total, payment_method,
				status, idempotency_key, created_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
			RETURNING id, created_at, updated_at`,
			order.TableID, order.RoomID, order.KOTIDs, order.Subtotal, order.DiscountType,
			order.DiscountValue, order.DiscountReason, order.DiscountAmount, order.TaxRate,
			order.TaxAmount, order.GrandTotal, order.PaymentMethod, order.Status,
			order.IdempotencyKey, order.CreatedBy,
		).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert order: %w", err)
		}

		for i := range order.Items {
			item := &order.Items[i]
			item.OrderID = order.ID
			err := tx.QueryRowxContext(ctx, `
				INSERT INTO order_items (order_id, product_id, name, quantity, price, line_total)
				VALUES ($1, $2, $3, $4, $5, $6)
				RETURNING id`,
				item.OrderID, item.ProductID, item.Name, item.Quantity, item.Price, item.LineTotal,
			).Scan(&item.ID)
			if err != nil {
				return fmt.Errorf("failed to insert order item: %w", err)
			}
		}
		return nil
	})
}

// GetOrderByID retrieves an order with its items
func (s *Store) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT "+orderColumns+" FROM orders WHERE id = $1", id)
	if err != nil {
		return nil, notFoundOr(err, "order", id)
	}
	return s.withItems(ctx, &order)
}

// GetOrderByIdempotencyKey retrieves an order by idempotency key.
// It returns nil, nil when no order carries the key.
func (s *Store) GetOrderByIdempotencyKey(ctx context.Context, key string) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order,
		"SELECT "+orderColumns+" FROM orders WHERE idempotency_key = $1", key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s.withItems(ctx, &order)
}

func (s *Store) withItems(ctx context.Context, order *models.Order) (*models.Order, error) {
	orders := []models.Order{*order}
	if err := s.loadOrderItems(ctx, orders); err != nil {
		return nil, err
	}
	orders[0].FillDeletionInfo()
	return &orders[0], nil
}

func (s *Store) loadOrderItems(ctx context.Context, orders []models.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]int64, len(orders))
	pos := make(map[int64]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		pos[o.ID] = i
		orders[i].Items = []models.OrderItem{}
	}

	query, args, err := sqlx.In(`
		SELECT id, order_id, product_id, name, quantity, price, line_total
		FROM order_items WHERE order_id IN (?) ORDER BY order_id, id`, ids)
	if err != nil {
		return err
	}
	query = s.db.Rebind(query)

	var items []models.OrderItem
	if err := s.db.SelectContext(ctx, &items, query, args...); err != nil {
		return fmt.Errorf("failed to load order items: %w", err)
	}
	for _, item := range items {
		i := pos[item.OrderID]
		orders[i].Items = append(orders[i].Items, item)
	}
	return nil
}

// CompleteOrder marks a pending order as completed
func (s *Store) CompleteOrder(ctx context.Context, id int64) error {
	return s.setOrderStatus(ctx, id, models.OrderStatusPending, models.OrderStatusCompleted)
}

// VoidOrder marks a pending order as voided and releases its idempotency key
// so the same key can be used again.
func (s *Store) VoidOrder(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE orders SET status = $1, idempotency_key = NULL, updated_at = NOW()
		WHERE id = $2 AND status = $3`,
		models.OrderStatusVoided, id, models.OrderStatusPending)
	if err != nil {
		return err
	}
	return expectOneRow(result, "order", id)
}

func (s *Store) setOrderStatus(ctx context.Context, id int64, from, to string) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3",
		to, id, from)
	if err != nil {
		return err
	}
	return expectOneRow(result, "order", id)
}

// ListOrders retrieves completed, non-deleted orders. Search matches the
// order id, table id or payment method.
func (s *Store) ListOrders(ctx context.Context, filter OrderFilter) ([]models.Order, error) {
	query := "SELECT " + orderColumns + " FROM orders WHERE status = $1 AND deleted_at IS NULL"
	args := []interface{}{models.OrderStatusCompleted}

	if filter.StartDate != nil {
		args = append(args, *filter.StartDate)
		query += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if filter.EndDate != nil {
		args = append(args, *filter.EndDate)
		query += fmt.Sprintf(" AND created_at < $%d", len(args))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		if n, err := strconv.ParseInt(search, 10, 64); err == nil {
			args = append(args, n)
			query += fmt.Sprintf(" AND (id = $%d OR table_id = $%d)", len(args), len(args))
		} else {
			args = append(args, "%"+search+"%")
			query += fmt.Sprintf(" AND (payment_method ILIKE $%d OR created_by ILIKE $%d)", len(args), len(args))
		}
	}

	if filter.SortAsc {
		query += " ORDER BY created_at ASC, id ASC"
	} else {
		query += " ORDER BY created_at DESC, id DESC"
	}
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	orders := []models.Order{}
	if err := s.db.SelectContext(ctx, &orders, query, args...); err != nil {
		return nil, err
	}
	if err := s.loadOrderItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// SoftDeleteOrder records who deleted a completed order and why
func (s *Store) SoftDeleteOrder(ctx context.Context, id int64, deletedBy, reason string) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, `
		UPDATE orders SET deleted_by = $1, deletion_reason = $2, deleted_at = NOW(), updated_at = NOW()
		WHERE id = $3 AND deleted_at IS NULL
		RETURNING`+orderColumns, deletedBy, reason, id)
	if err != nil {
		return nil, notFoundOr(err, "order", id)
	}
	return s.withItems(ctx, &order)
}

// ListDeletedOrders retrieves the deletion history, newest first
func (s *Store) ListDeletedOrders(ctx context.Context, limit int) ([]models.Order, error) {
	if limit <= 0 {
		limit = 100
	}

	orders := []models.Order{}
	err := s.db.SelectContext(ctx, &orders, `
		SELECT`+orderColumns+`
		FROM orders WHERE deleted_at IS NOT NULL
		ORDER BY deleted_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	if err := s.loadOrderItems(ctx, orders); err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].FillDeletionInfo()
	}
	return orders, nil
}

func expectOneRow(result sql.Result, kind string, id int64) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return notFound(kind, id)
	}
	return nil
}
