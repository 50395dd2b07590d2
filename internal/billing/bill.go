package billing

import (
	"dhaba-pos/internal/models"

	"github.com/shopspring/decimal"
)

// BillState tracks a table's billing cycle.
type BillState string

const (
	StateOpen          BillState = "OPEN"
	StateBillPreviewed BillState = "BILL_PREVIEWED"
	StateFinalized     BillState = "FINALIZED"
)

// CanTransition reports whether a bill may move from s to next. Previewing
// again is always allowed; FINALIZED is terminal.
func (s BillState) CanTransition(next BillState) bool {
	switch s {
	case StateOpen:
		return next == StateBillPreviewed
	case StateBillPreviewed:
		return next == StateBillPreviewed || next == StateFinalized
	}
	return false
}

// StandardDiscountReason labels the company default discount.
const StandardDiscountReason = "Standard discount"

// Input is everything needed to price a table's bill.
type Input struct {
	TableID       int64
	RoomID        int64
	KOTs          []models.KOT
	Catalog       []models.Product
	Discount      *models.Discount
	PaymentMethod string
	Company       models.CompanyConfig
}

// Bill is a priced snapshot of what a table owes.
type Bill struct {
	TableID        int64           `json:"tableId"`
	RoomID         int64           `json:"roomId"`
	KOTIDs         []int64         `json:"kotIds"`
	LineItems      []LineItem      `json:"lineItems"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	Discount       models.Discount `json:"discount"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	AfterDiscount  decimal.Decimal `json:"afterDiscount"`
	TaxRate        decimal.Decimal `json:"taxRate"`
	TaxAmount      decimal.Decimal `json:"taxAmount"`
	GrandTotal     decimal.Decimal `json:"grandTotal"`
	PaymentMethod  string          `json:"paymentMethod"`
	State          BillState       `json:"state"`
	Skipped        AggregateStats  `json:"skipped"`
}

// DefaultDiscount is the discount applied when the operator picks none.
func DefaultDiscount(company models.CompanyConfig) models.Discount {
	return models.Discount{
		Type:   models.DiscountPercentage,
		Value:  company.DiscountDefault,
		Reason: StandardDiscountReason,
	}
}

// Preview prices in: subtotal, then discount, then tax on the discounted
// amount, then the grand total.
func Preview(in Input) Bill {
	items, stats := AggregateWithStats(in.KOTs, in.Catalog)

	requested := in.Discount
	if requested == nil {
		d := DefaultDiscount(in.Company)
		requested = &d
	}
	discount, _ := NormalizeDiscount(requested)

	subtotal := ComputeSubtotal(items)
	discountAmount := ComputeDiscount(subtotal, &discount)
	afterDiscount := ComputeAfterDiscount(subtotal, discountAmount)
	tax := ComputeTax(afterDiscount, in.Company.TaxRate)

	paymentMethod := in.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = models.PaymentCash
	}

	return Bill{
		TableID:        in.TableID,
		RoomID:         in.RoomID,
		KOTIDs:         KOTIDs(in.KOTs),
		LineItems:      items,
		Subtotal:       subtotal,
		Discount:       discount,
		DiscountAmount: discountAmount,
		AfterDiscount:  afterDiscount,
		TaxRate:        in.Company.TaxRate,
		TaxAmount:      tax,
		GrandTotal:     ComputeGrandTotal(afterDiscount, tax),
		PaymentMethod:  paymentMethod,
		State:          StateBillPreviewed,
		Skipped:        stats,
	}
}

// Empty reports whether nothing on the bill can be charged.
func (b Bill) Empty() bool {
	return len(b.LineItems) == 0
}

// ShowDiscount reports whether a receipt should print the discount row.
func (b Bill) ShowDiscount() bool {
	return !b.DiscountAmount.IsZero()
}

// TotalQuantity counts the units across all lines.
func (b Bill) TotalQuantity() int {
	total := 0
	for _, item := range b.LineItems {
		total += item.Quantity
	}
	return total
}

// OrderItems converts the bill lines into order lines.
func (b Bill) OrderItems() []models.OrderItem {
	out := make([]models.OrderItem, 0, len(b.LineItems))
	for _, item := range b.LineItems {
		out = append(out, models.OrderItem{
			ProductID: item.Product.ID,
			Name:      item.Product.Name,
			Quantity:  item.Quantity,
			Price:     item.Product.Price,
			LineTotal: item.LineTotal,
		})
	}
	return out
}
