package service

import (
	"context"
	"fmt"
	"strings"

	"dhaba-pos/internal/models"
	"dhaba-pos/internal/store"
	"dhaba-pos/internal/util"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const maxOrderPageSize = 500

// OrderService handles order history and audited deletion
type OrderService struct {
	store     OrderStore
	publisher Publisher
	logger    *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(store OrderStore, publisher Publisher) *OrderService {
	return &OrderService{
		store:     store,
		publisher: publisher,
		logger:    util.Named("orders"),
	}
}

// DeleteOrderRequest represents a request to remove an order from history
type DeleteOrderRequest struct {
	DeletedBy string `json:"deletedBy" binding:"required,max=60"`
	Reason    string `json:"reason" binding:"required,max=500"`
}

// ListOrders returns completed orders, newest first unless filter.SortAsc
func (s *OrderService) ListOrders(ctx context.Context, filter store.OrderFilter) ([]models.Order, error) {
	if filter.Limit <= 0 || filter.Limit > maxOrderPageSize {
		filter.Limit = maxOrderPageSize
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.store.ListOrders(ctx, filter)
}

// GetOrder retrieves an order by ID
func (s *OrderService) GetOrder(ctx context.Context, orderID int64) (*models.Order, error) {
	return s.store.GetOrderByID(ctx, orderID)
}

// DeleteOrder soft-deletes an order. A non-blank reason is required.
func (s *OrderService) DeleteOrder(ctx context.Context, orderID int64, req *DeleteOrderRequest) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.DeleteOrder", attribute.Int64("order_id", orderID))
	defer span.End()

	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, invalid("reason", "a deletion reason is required")
	}
	deletedBy := strings.TrimSpace(req.DeletedBy)
	if deletedBy == "" {
		return nil, invalid("deletedBy", "must not be blank")
	}

	order, err := s.store.SoftDeleteOrder(ctx, orderID, deletedBy, reason)
	if err != nil {
		return nil, util.SpanError(span, fmt.Errorf("failed to delete order: %w", err))
	}

	util.OrdersDeletedTotal.Inc()
	s.logger.Info("Order deleted",
		zap.Int64("order_id", orderID),
		zap.String("deleted_by", deletedBy),
		zap.String("reason", reason))

	if err := s.publisher.PublishOrderDeleted(ctx, order); err != nil {
		s.logger.Error("Failed to publish ORDER_DELETED event", zap.Int64("order_id", orderID), zap.Error(err))
	}
	return order, nil
}

// DeletedOrders returns the deletion history
func (s *OrderService) DeletedOrders(ctx context.Context, limit int) ([]models.Order, error) {
	if limit <= 0 || limit > maxOrderPageSize {
		limit = maxOrderPageSize
	}
	return s.store.ListDeletedOrders(ctx, limit)
}
