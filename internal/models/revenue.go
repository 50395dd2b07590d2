package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RevenueFilter narrows revenue reports to completed, non-deleted orders
type RevenueFilter struct {
	StartDate     *time.Time
	EndDate       *time.Time
	PaymentMethod string
}

// RevenueTotal summarizes revenue over a period
type RevenueTotal struct {
	OrderCount        int             `db:"order_count" json:"orderCount"`
	Subtotal          decimal.Decimal `db:"subtotal" json:"subtotal"`
	TotalDiscount     decimal.Decimal `db:"total_discount" json:"totalDiscount"`
	TotalTax          decimal.Decimal `db:"total_tax" json:"totalTax"`
	TotalRevenue      decimal.Decimal `db:"total_revenue" json:"totalRevenue"`
	AverageOrderValue decimal.Decimal `db:"average_order_value" json:"averageOrderValue"`
}

// DailyRevenue is revenue for one calendar day
type DailyRevenue struct {
	Date       string          `db:"date" json:"date"`
	OrderCount int             `db:"order_count" json:"orderCount"`
	Revenue    decimal.Decimal `db:"revenue" json:"revenue"`
}

// PaymentMethodRevenue is revenue for one payment method
type PaymentMethodRevenue struct {
	PaymentMethod string          `db:"payment_method" json:"paymentMethod"`
	OrderCount    int             `db:"order_count" json:"orderCount"`
	Revenue       decimal.Decimal `db:"revenue" json:"revenue"`
}

// DiscountSummary groups discounts by type and reason
type DiscountSummary struct {
	DiscountType   string          `db:"discount_type" json:"discountType"`
	DiscountReason string          `db:"discount_reason" json:"discountReason"`
	OrderCount     int             `db:"order_count" json:"orderCount"`
	TotalDiscount  decimal.Decimal `db:"total_discount" json:"totalDiscount"`
}

// TaxSummary groups collected tax by rate
type TaxSummary struct {
	TaxRate       decimal.Decimal `db:"tax_rate" json:"taxRate"`
	OrderCount    int             `db:"order_count" json:"orderCount"`
	TaxableAmount decimal.Decimal `db:"taxable_amount" json:"taxableAmount"`
	TaxAmount     decimal.Decimal `db:"tax_amount" json:"taxAmount"`
}

// PaymentMethodTax groups collected tax by payment method
type PaymentMethodTax struct {
	PaymentMethod string          `db:"payment_method" json:"paymentMethod"`
	OrderCount    int             `db:"order_count" json:"orderCount"`
	TaxableAmount decimal.Decimal `db:"taxable_amount" json:"taxableAmount"`
	TaxAmount     decimal.Decimal `db:"tax_amount" json:"taxAmount"`
}
