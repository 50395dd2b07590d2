package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"dhaba-pos/internal/billing"
	"dhaba-pos/internal/models"
	"dhaba-pos/internal/util"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// BillingService prices open tables and turns bills into orders
type BillingService struct {
	kots           KOTStore
	orders         OrderStore
	catalog        CatalogReader
	locker         Locker
	idempotency    IdempotencyCache
	publisher      Publisher
	lockTTL        time.Duration
	idempotencyTTL time.Duration
	now            func() time.Time
	logger         *zap.Logger
}

// NewBillingService creates a new billing service
func NewBillingService(
	kots KOTStore,
	orders OrderStore,
	catalog CatalogReader,
	locker Locker,
	idempotency IdempotencyCache,
	publisher Publisher,
	lockTTL, idempotencyTTL time.Duration,
) *BillingService {
	return &BillingService{
		kots:           kots,
		orders:         orders,
		catalog:        catalog,
		locker:         locker,
		idempotency:    idempotency,
		publisher:      publisher,
		lockTTL:        lockTTL,
		idempotencyTTL: idempotencyTTL,
		now:            time.Now,
		logger:         util.Named("billing"),
	}
}

// PreviewRequest represents a request to price a table
type PreviewRequest struct {
	TableID       int64            `json:"tableId" binding:"required,min=1"`
	Discount      *models.Discount `json:"discount"`
	PaymentMethod string           `json:"paymentMethod" binding:"omitempty,oneof=cash card upi online"`
}

// FinalizeRequest represents a request to settle a table
type FinalizeRequest struct {
	TableID        int64            `json:"tableId" binding:"required,min=1"`
	Discount       *models.Discount `json:"discount"`
	PaymentMethod  string           `json:"paymentMethod" binding:"omitempty,oneof=cash card upi online"`
	IdempotencyKey string           `json:"idempotencyKey" binding:"max=128"`
	CreatedBy      string           `json:"createdBy" binding:"max=60"`
}

// FinalizeResult is the outcome of a finalize call. Duplicate is set when the
// idempotency key had already produced this order.
type FinalizeResult struct {
	Order          *models.Order `json:"order"`
	Bill           *billing.Bill `json:"bill,omitempty"`
	Duplicate      bool          `json:"duplicate"`
	IdempotencyKey string        `json:"idempotencyKey"`
}

// Preview prices the open tickets of a table. It has no side effects.
func (s *BillingService) Preview(ctx context.Context, req *PreviewRequest) (*billing.Bill, error) {
	ctx, span := util.StartSpan(ctx, "BillingService.Preview", attribute.Int64("table_id", req.TableID))
	defer span.End()

	kots, err := s.kots.ListOpenKOTs(ctx, req.TableID)
	if err != nil {
		return nil, util.SpanError(span, fmt.Errorf("failed to load open kots: %w", err))
	}
	products, err := s.catalog.Products(ctx)
	if err != nil {
		return nil, util.SpanError(span, err)
	}
	company, err := s.catalog.CompanyConfig(ctx)
	if err != nil {
		return nil, util.SpanError(span, err)
	}

	bill := s.price(req.TableID, kots, products, req.Discount, req.PaymentMethod, company)
	util.BillPreviewsTotal.Inc()
	return &bill, nil
}

func (s *BillingService) price(
	tableID int64,
	kots []models.KOT,
	products []models.Product,
	discount *models.Discount,
	paymentMethod string,
	company models.CompanyConfig,
) billing.Bill {
	if discount != nil {
		if _, ok := billing.NormalizeDiscount(discount); !ok {
			util.InvalidDiscountsTotal.Inc()
			s.logger.Warn("Ignoring invalid discount",
				zap.Int64("table_id", tableID),
				zap.String("type", string(discount.Type)),
				zap.String("value", discount.Value.String()))
		}
	}

	var roomID int64
	if len(kots) > 0 {
		roomID = kots[0].RoomID
	}

	bill := billing.Preview(billing.Input{
		TableID:       tableID,
		RoomID:        roomID,
		KOTs:          kots,
		Catalog:       products,
		Discount:      discount,
		PaymentMethod: paymentMethod,
		Company:       company,
	})

	if bill.Skipped.Skipped > 0 {
		util.BillItemsSkippedTotal.Add(float64(bill.Skipped.Skipped))
		s.logger.Warn("Skipped items with unknown products",
			zap.Int64("table_id", tableID),
			zap.Int64s("product_ids", bill.Skipped.SkippedProductIDs))
	}
	return bill
}

// Receipt renders the plain-text receipt of a table's current bill
func (s *BillingService) Receipt(ctx context.Context, req *PreviewRequest, w io.Writer) error {
	bill, err := s.Preview(ctx, req)
	if err != nil {
		return err
	}
	company, err := s.catalog.CompanyConfig(ctx)
	if err != nil {
		return err
	}
	return billing.RenderReceipt(w, *bill, company, s.now())
}

// OrderReceipt re-renders the receipt of a finalized order
func (s *BillingService) OrderReceipt(ctx context.Context, orderID int64, w io.Writer) error {
	order, err := s.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		return err
	}
	company, err := s.catalog.CompanyConfig(ctx)
	if err != nil {
		return err
	}
	return billing.RenderReceipt(w, billFromOrder(order), company, order.CreatedAt)
}

func billFromOrder(o *models.Order) billing.Bill {
	items := make([]billing.LineItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, billing.LineItem{
			Product:   models.Product{ID: it.ProductID, Name: it.Name, Price: it.Price},
			Quantity:  it.Quantity,
			LineTotal: it.LineTotal,
		})
	}
	return billing.Bill{
		TableID:   o.TableID,
		RoomID:    o.RoomID,
		KOTIDs:    o.KOTIDs,
		LineItems: items,
		Subtotal:  o.Subtotal,
		Discount: models.Discount{
			Type:   models.DiscountType(o.DiscountType),
			Value:  o.DiscountValue,
			Reason: o.DiscountReason,
		},
		DiscountAmount: o.DiscountAmount,
		AfterDiscount:  o.Subtotal.Sub(o.DiscountAmount),
		TaxRate:        o.TaxRate,
		TaxAmount:      o.TaxAmount,
		GrandTotal:     o.GrandTotal,
		PaymentMethod:  o.PaymentMethod,
		State:          billing.StateFinalized,
	}
}

// Finalize settles a table exactly once per idempotency key. The order is
// written as pending, the billed tickets are closed, then the order is
// completed. If closing the tickets fails the order is voided; if that also
// fails a *PartialFailureError carrying the order id is returned.
func (s *BillingService) Finalize(ctx context.Context, req *FinalizeRequest) (*FinalizeResult, error) {
	ctx, span := util.StartSpan(ctx, "BillingService.Finalize", attribute.Int64("table_id", req.TableID))
	defer span.End()

	start := time.Now()
	defer func() {
		util.BillFinalizeLatency.Observe(time.Since(start).Seconds())
	}()

	key := req.IdempotencyKey
	if key == "" {
		key = uuid.New().String()
	}
	span.SetAttributes(attribute.String("idempotency_key", key))

	if result, err := s.fromIdempotencyCache(ctx, key, req.TableID); result != nil || err != nil {
		return result, err
	}

	lockKey := fmt.Sprintf("finalize:table:%d", req.TableID)
	token, acquired, err := s.locker.AcquireLock(ctx, lockKey, s.lockTTL)
	if err != nil {
		util.BillFinalizeFailedTotal.WithLabelValues("lock_error").Inc()
		return nil, util.SpanError(span, fmt.Errorf("failed to acquire finalize lock: %w", err))
	}
	if !acquired {
		util.BillFinalizeFailedTotal.WithLabelValues("in_progress").Inc()
		return nil, ErrFinalizeInProgress
	}
	defer s.releaseLock(lockKey, token)

	existing, err := s.orders.GetOrderByIdempotencyKey(ctx, key)
	if err != nil {
		return nil, util.SpanError(span, fmt.Errorf("failed to check idempotency: %w", err))
	}
	if existing != nil {
		if existing.TableID != req.TableID {
			return nil, invalid("idempotencyKey", "already used for table %d", existing.TableID)
		}
		if existing.Status == models.OrderStatusCompleted {
			return s.duplicate(existing, key), nil
		}
		s.logger.Warn("Resuming interrupted finalization",
			zap.Int64("order_id", existing.ID),
			zap.String("idempotency_key", key))
		result, err := s.complete(ctx, existing, nil, key)
		return result, util.SpanError(span, err)
	}

	kots, err := s.kots.ListOpenKOTs(ctx, req.TableID)
	if err != nil {
		return nil, util.SpanError(span, fmt.Errorf("failed to load open kots: %w", err))
	}
	if len(kots) == 0 {
		util.BillFinalizeFailedTotal.WithLabelValues("nothing_to_bill").Inc()
		return nil, ErrNothingToBill
	}
	products, err := s.catalog.FreshProducts(ctx)
	if err != nil {
		return nil, util.SpanError(span, err)
	}
	company, err := s.catalog.CompanyConfig(ctx)
	if err != nil {
		return nil, util.SpanError(span, err)
	}

	bill := s.price(req.TableID, kots, products, req.Discount, req.PaymentMethod, company)
	if bill.Empty() {
		util.BillFinalizeFailedTotal.WithLabelValues("nothing_to_bill").Inc()
		return nil, ErrNothingToBill
	}

	order := orderFromBill(&bill, key, req.CreatedBy)
	if err := s.orders.CreateOrder(ctx, order); err != nil {
		util.BillFinalizeFailedTotal.WithLabelValues("create_order").Inc()
		return nil, util.SpanError(span, fmt.Errorf("failed to create order: %w", err))
	}

	result, err := s.complete(ctx, order, &bill, key)
	return result, util.SpanError(span, err)
}

// complete closes the billed tickets of a pending order and marks it completed.
func (s *BillingService) complete(ctx context.Context, order *models.Order, bill *billing.Bill, key string) (*FinalizeResult, error) {
	closed, err := s.kots.CloseKOTs(ctx, order.TableID, order.KOTIDs)
	if err != nil {
		if voidErr := s.orders.VoidOrder(ctx, order.ID); voidErr != nil {
			util.BillFinalizePartialFailuresTotal.WithLabelValues(StageCloseKOTs).Inc()
			s.logger.Error("Failed to void order after kot close failure",
				zap.Int64("order_id", order.ID),
				zap.NamedError("close_error", err),
				zap.NamedError("void_error", voidErr))
			return nil, &PartialFailureError{
				OrderID: order.ID,
				Stage:   StageCloseKOTs,
				Err:     errors.Join(err, voidErr),
			}
		}

		util.BillFinalizeFailedTotal.WithLabelValues("close_kots").Inc()
		s.logger.Warn("Order voided after kot close failure",
			zap.Int64("order_id", order.ID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to close kots, order %d voided: %w", order.ID, err)
	}
	if closed != int64(len(order.KOTIDs)) {
		s.logger.Warn("Some billed kots were already closed",
			zap.Int64("order_id", order.ID),
			zap.Int64("closed", closed),
			zap.Int("billed", len(order.KOTIDs)))
	}

	if err := s.orders.CompleteOrder(ctx, order.ID); err != nil {
		util.BillFinalizePartialFailuresTotal.WithLabelValues(StageCompleteOrder).Inc()
		s.logger.Error("Failed to complete order after closing kots",
			zap.Int64("order_id", order.ID),
			zap.Error(err))
		return nil, &PartialFailureError{OrderID: order.ID, Stage: StageCompleteOrder, Err: err}
	}
	order.Status = models.OrderStatusCompleted

	util.BillsFinalizedTotal.WithLabelValues(order.PaymentMethod).Inc()
	s.logger.Info("Bill finalized",
		zap.Int64("order_id", order.ID),
		zap.Int64("table_id", order.TableID),
		zap.Int64s("kot_ids", order.KOTIDs),
		zap.String("grand_total", order.GrandTotal.StringFixed(2)))

	if err := s.publisher.PublishBillFinalized(ctx, order); err != nil {
		s.logger.Error("Failed to publish BILL_FINALIZED event", zap.Int64("order_id", order.ID), zap.Error(err))
	}
	if err := s.publisher.PublishKOTsClosed(ctx, order.TableID, order.KOTIDs); err != nil {
		s.logger.Error("Failed to publish KOTS_CLOSED event", zap.Int64("order_id", order.ID), zap.Error(err))
	}
	if err := s.idempotency.RememberIdempotencyKey(ctx, key, order.ID, s.idempotencyTTL); err != nil {
		s.logger.Warn("Failed to cache idempotency key", zap.String("idempotency_key", key), zap.Error(err))
	}

	return &FinalizeResult{Order: order, Bill: bill, IdempotencyKey: key}, nil
}

// fromIdempotencyCache answers a repeated key without taking the table lock.
// A key that settled another table is rejected like the database check does.
func (s *BillingService) fromIdempotencyCache(ctx context.Context, key string, tableID int64) (*FinalizeResult, error) {
	orderID, found, err := s.idempotency.LookupIdempotencyKey(ctx, key)
	if err != nil {
		s.logger.Warn("Idempotency cache lookup failed", zap.String("idempotency_key", key), zap.Error(err))
		return nil, nil
	}
	if !found {
		return nil, nil
	}

	order, err := s.orders.GetOrderByID(ctx, orderID)
	if err != nil || order.Status != models.OrderStatusCompleted {
		return nil, nil
	}
	if order.TableID != tableID {
		return nil, invalid("idempotencyKey", "already used for table %d", order.TableID)
	}
	return s.duplicate(order, key), nil
}

func (s *BillingService) duplicate(order *models.Order, key string) *FinalizeResult {
	util.BillFinalizeDuplicatesTotal.Inc()
	s.logger.Info("Duplicate finalize request detected",
		zap.String("idempotency_key", key),
		zap.Int64("order_id", order.ID))
	return &FinalizeResult{Order: order, Duplicate: true, IdempotencyKey: key}
}

func (s *BillingService) releaseLock(lockKey, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	released, err := s.locker.ReleaseLock(ctx, lockKey, token)
	if err != nil {
		s.logger.Error("Failed to release finalize lock", zap.String("lock", lockKey), zap.Error(err))
		return
	}
	if !released {
		s.logger.Warn("Finalize lock expired before release", zap.String("lock", lockKey))
	}
}

func orderFromBill(bill *billing.Bill, key, createdBy string) *models.Order {
	return &models.Order{
		TableID:        bill.TableID,
		RoomID:         bill.RoomID,
		KOTIDs:         bill.KOTIDs,
		Subtotal:       bill.Subtotal,
		DiscountType:   string(bill.Discount.Type),
		DiscountValue:  bill.Discount.Value,
		DiscountReason: bill.Discount.Reason,
		DiscountAmount: bill.DiscountAmount,
		TaxRate:        bill.TaxRate,
		TaxAmount:      bill.TaxAmount,
		GrandTotal:     bill.GrandTotal,
		PaymentMethod:  bill.PaymentMethod,
		Status:         models.OrderStatusPending,
		IdempotencyKey: &key,
		CreatedBy:      createdBy,
		Items:          bill.OrderItems(),
	}
}
