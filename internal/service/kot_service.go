package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"dhaba-pos/internal/models"
	"dhaba-pos/internal/store"
	"dhaba-pos/internal/util"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// KOTService handles the kitchen order ticket workflow
type KOTService struct {
	kots      KOTStore
	catalog   CatalogStore
	publisher Publisher
	logger    *zap.Logger
}

// NewKOTService creates a new KOT service
func NewKOTService(kots KOTStore, catalog CatalogStore, publisher Publisher) *KOTService {
	return &KOTService{
		kots:      kots,
		catalog:   catalog,
		publisher: publisher,
		logger:    util.Named("kot"),
	}
}

// CreateKOTRequest represents a request to send a ticket to the kitchen
type CreateKOTRequest struct {
	TableID   int64            `json:"tableId" binding:"required,min=1"`
	RoomID    int64            `json:"roomId"`
	Items     []KOTItemRequest `json:"orderItems" binding:"required,min=1,dive"`
	Status    models.KOTStatus `json:"status" binding:"omitempty,oneof=pending preparing"`
	CreatedBy string           `json:"createdBy" binding:"max=60"`
}

// KOTItemRequest represents one line of a ticket
type KOTItemRequest struct {
	ProductID           int64  `json:"productId" binding:"required,min=1"`
	Quantity            int    `json:"quantity" binding:"required,min=1"`
	SpecialInstructions string `json:"specialInstructions" binding:"max=200"`
}

// CreateKOT validates the items against the catalog and stores the ticket.
// Repeated products are merged into one line.
func (s *KOTService) CreateKOT(ctx context.Context, req *CreateKOTRequest) (*models.KOT, error) {
	ctx, span := util.StartSpan(ctx, "KOTService.CreateKOT", attribute.Int64("table_id", req.TableID))
	defer span.End()

	if len(req.Items) == 0 {
		return nil, invalid("orderItems", "at least one item is required")
	}

	items := mergeKOTItems(req.Items)
	if err := s.validateProducts(ctx, items); err != nil {
		return nil, err
	}

	roomID, err := s.kots.GetTableRoom(ctx, req.TableID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, invalid("tableId", "table %d does not exist", req.TableID)
		}
		return nil, util.SpanError(span, fmt.Errorf("failed to resolve table: %w", err))
	}
	if req.RoomID != 0 && req.RoomID != roomID {
		return nil, invalid("roomId", "table %d belongs to room %d", req.TableID, roomID)
	}

	status := req.Status
	if status == "" {
		status = models.KOTStatusPreparing
	}
	if status != models.KOTStatusPending && status != models.KOTStatusPreparing {
		return nil, invalid("status", "a new ticket must be pending or preparing")
	}

	kot := &models.KOT{
		TableID:    req.TableID,
		RoomID:     roomID,
		Status:     status,
		CreatedBy:  req.CreatedBy,
		OrderItems: items,
	}
	if kot.CreatedBy == "" {
		kot.CreatedBy = "pos"
	}

	if err := s.kots.CreateKOT(ctx, kot); err != nil {
		return nil, util.SpanError(span, fmt.Errorf("failed to create kot: %w", err))
	}

	util.KOTsCreatedTotal.Inc()
	s.logger.Info("KOT created",
		zap.Int64("kot_id", kot.ID),
		zap.String("kot_number", kot.KOTNumber),
		zap.Int64("table_id", kot.TableID),
		zap.Int("items", len(kot.OrderItems)))

	if err := s.publisher.PublishKOTEvent(ctx, models.EventTypeKOTCreated, kot); err != nil {
		s.logger.Error("Failed to publish KOT_CREATED event", zap.Int64("kot_id", kot.ID), zap.Error(err))
	}
	return kot, nil
}

func mergeKOTItems(reqItems []KOTItemRequest) []models.KOTItem {
	index := make(map[int64]int, len(reqItems))
	items := make([]models.KOTItem, 0, len(reqItems))

	for _, r := range reqItems {
		note := strings.TrimSpace(r.SpecialInstructions)
		if i, ok := index[r.ProductID]; ok {
			items[i].Quantity += r.Quantity
			if note != "" {
				if items[i].SpecialInstructions != "" {
					items[i].SpecialInstructions += "; "
				}
				items[i].SpecialInstructions += note
			}
			continue
		}
		index[r.ProductID] = len(items)
		items = append(items, models.KOTItem{
			ProductID:           r.ProductID,
			Quantity:            r.Quantity,
			SpecialInstructions: note,
		})
	}
	return items
}

// validateProducts checks that every product exists and is on the menu
func (s *KOTService) validateProducts(ctx context.Context, items []models.KOTItem) error {
	ids := make([]int64, len(items))
	for i, item := range items {
		if item.Quantity < 1 {
			return invalid("quantity", "must be at least 1 for product %d", item.ProductID)
		}
		ids[i] = item.ProductID
	}

	products, err := s.catalog.GetProductsByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to load products: %w", err)
	}

	byID := make(map[int64]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	for _, id := range ids {
		p, ok := byID[id]
		if !ok {
			return invalid("productId", "product %d does not exist", id)
		}
		if !p.IsAvailable {
			return invalid("productId", "%s is not available", p.Name)
		}
	}
	return nil
}

// ListKOTs returns tickets filtered by table and a comma separated status list
func (s *KOTService) ListKOTs(ctx context.Context, tableID int64, statuses string) ([]models.KOT, error) {
	filter := store.KOTFilter{TableID: tableID}
	for _, raw := range strings.Split(statuses, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		st := models.KOTStatus(raw)
		if !st.Valid() {
			return nil, invalid("status", "unknown status %q", raw)
		}
		filter.Statuses = append(filter.Statuses, st)
	}
	return s.kots.ListKOTs(ctx, filter)
}

// OpenKOTs returns the billable tickets of a table
func (s *KOTService) OpenKOTs(ctx context.Context, tableID int64) ([]models.KOT, error) {
	return s.kots.ListOpenKOTs(ctx, tableID)
}

// UpdateStatus moves a ticket forward in the kitchen workflow
func (s *KOTService) UpdateStatus(ctx context.Context, id int64, next models.KOTStatus) (*models.KOT, error) {
	ctx, span := util.StartSpan(ctx, "KOTService.UpdateStatus", attribute.Int64("kot_id", id))
	defer span.End()

	kot, err := s.kots.GetKOT(ctx, id)
	if err != nil {
		return nil, err
	}

	if !kot.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, kot.Status, next)
	}

	if err := s.kots.UpdateKOTStatus(ctx, id, kot.Status, next); err != nil {
		if errors.Is(err, store.ErrStatusConflict) {
			return nil, fmt.Errorf("%w: kot %d changed concurrently", ErrInvalidTransition, id)
		}
		return nil, util.SpanError(span, fmt.Errorf("failed to update kot status: %w", err))
	}

	previous := kot.Status
	kot.Status = next
	util.KOTStatusChangesTotal.WithLabelValues(string(next)).Inc()
	s.logger.Info("KOT status changed",
		zap.Int64("kot_id", id),
		zap.String("from", string(previous)),
		zap.String("to", string(next)))

	if err := s.publisher.PublishKOTEvent(ctx, models.EventTypeKOTStatusChanged, kot); err != nil {
		s.logger.Error("Failed to publish KOT_STATUS_CHANGED event", zap.Int64("kot_id", id), zap.Error(err))
	}
	return kot, nil
}

// DeleteKOT cancels a ticket that has not been billed
func (s *KOTService) DeleteKOT(ctx context.Context, id int64) error {
	ctx, span := util.StartSpan(ctx, "KOTService.DeleteKOT", attribute.Int64("kot_id", id))
	defer span.End()

	kot, err := s.kots.GetKOT(ctx, id)
	if err != nil {
		return err
	}
	if kot.Status == models.KOTStatusClosed {
		return fmt.Errorf("%w: kot %d is already closed", ErrInvalidTransition, id)
	}

	if err := s.kots.DeleteKOT(ctx, id); err != nil {
		if errors.Is(err, store.ErrStatusConflict) {
			return fmt.Errorf("%w: kot %d was closed concurrently", ErrInvalidTransition, id)
		}
		return util.SpanError(span, fmt.Errorf("failed to delete kot: %w", err))
	}

	s.logger.Info("KOT deleted", zap.Int64("kot_id", id), zap.Int64("table_id", kot.TableID))
	if err := s.publisher.PublishKOTEvent(ctx, models.EventTypeKOTDeleted, kot); err != nil {
		s.logger.Error("Failed to publish KOT_DELETED event", zap.Int64("kot_id", id), zap.Error(err))
	}
	return nil
}

// CloseTable closes every open ticket of a table without billing it
func (s *KOTService) CloseTable(ctx context.Context, tableID int64) ([]int64, error) {
	ctx, span := util.StartSpan(ctx, "KOTService.CloseTable", attribute.Int64("table_id", tableID))
	defer span.End()

	ids, err := s.kots.CloseTableKOTs(ctx, tableID)
	if err != nil {
		return nil, util.SpanError(span, err)
	}

	s.logger.Info("Table KOTs closed", zap.Int64("table_id", tableID), zap.Int64s("kot_ids", ids))
	if len(ids) > 0 {
		if err := s.publisher.PublishKOTsClosed(ctx, tableID, ids); err != nil {
			s.logger.Error("Failed to publish KOTS_CLOSED event", zap.Int64("table_id", tableID), zap.Error(err))
		}
	}
	return ids, nil
}
