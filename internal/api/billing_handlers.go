package api

import (
	"bytes"
	"fmt"
	"net/http"

	"dhaba-pos/internal/models"
	"dhaba-pos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

const idempotencyHeader = "Idempotency-Key"

// previewBill handles POST /bills/preview
func (h *Handler) previewBill(c *gin.Context) {
	var req service.PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	bill, err := h.billing.Preview(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, "Failed to preview bill", err)
		return
	}
	c.JSON(http.StatusOK, bill)
}

// billReceipt handles GET /bills/:tableId/receipt with optional
// paymentMethod, discountType, discountValue and discountReason query values.
func (h *Handler) billReceipt(c *gin.Context) {
	tableID, ok := pathID(c, "tableId")
	if !ok {
		return
	}

	req := service.PreviewRequest{TableID: tableID, PaymentMethod: c.Query("paymentMethod")}
	discount, err := queryDiscount(c)
	if err != nil {
		h.respondError(c, "Invalid discount", err)
		return
	}
	req.Discount = discount
	h.renderReceipt(c, &req)
}

// postBillReceipt handles POST /bills/receipt with the same body as a preview
func (h *Handler) postBillReceipt(c *gin.Context) {
	var req service.PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	h.renderReceipt(c, &req)
}

func (h *Handler) renderReceipt(c *gin.Context, req *service.PreviewRequest) {
	var buf bytes.Buffer
	if err := h.billing.Receipt(c.Request.Context(), req, &buf); err != nil {
		h.respondError(c, "Failed to render receipt", err)
		return
	}
	c.Data(http.StatusOK, "text/plain; charset=utf-8", buf.Bytes())
}

// queryDiscount reads a discount from query values. No discountType means the
// company default applies.
func queryDiscount(c *gin.Context) (*models.Discount, error) {
	kind := c.Query("discountType")
	if kind == "" {
		return nil, nil
	}
	if kind != string(models.DiscountPercentage) && kind != string(models.DiscountFixed) {
		return nil, &service.ValidationError{Field: "discountType", Message: "must be one of: percentage fixed"}
	}
	value, err := decimal.NewFromString(c.Query("discountValue"))
	if err != nil {
		return nil, &service.ValidationError{Field: "discountValue", Message: "must be a number"}
	}
	return &models.Discount{
		Type:   models.DiscountType(kind),
		Value:  value,
		Reason: c.Query("discountReason"),
	}, nil
}

// finalizeBill handles POST /bills/finalize. The idempotency key may come in
// the body or the Idempotency-Key header and is echoed back.
func (h *Handler) finalizeBill(c *gin.Context) {
	var req service.FinalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = c.GetHeader(idempotencyHeader)
	}

	result, err := h.billing.Finalize(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, "Failed to finalize bill", err)
		return
	}

	c.Header(idempotencyHeader, result.IdempotencyKey)
	status := http.StatusCreated
	if result.Duplicate {
		status = http.StatusOK
	}
	c.JSON(status, result)
}

// orderReceipt handles GET /orders/:id/receipt
func (h *Handler) orderReceipt(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := h.billing.OrderReceipt(c.Request.Context(), id, &buf); err != nil {
		h.respondError(c, "Failed to render receipt", err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=receipt-%d.txt", id))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", buf.Bytes())
}
