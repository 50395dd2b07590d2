package billing

import (
	"dhaba-pos/internal/models"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Every step rounds to cents on its own, matching what receipts print line by
// line. Do not collapse into a single final rounding.
func roundCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// ComputeSubtotal sums the line totals.
func ComputeSubtotal(items []LineItem) decimal.Decimal {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.LineTotal)
	}
	return subtotal
}

// NormalizeDiscount returns the discount to price with and whether the input
// was usable. A nil discount is valid and means no discount. Negative values
// and unknown types collapse to a zero discount.
func NormalizeDiscount(d *models.Discount) (models.Discount, bool) {
	if d == nil {
		return models.Discount{}, true
	}
	if d.Value.IsNegative() {
		return models.Discount{Reason: d.Reason}, false
	}
	switch d.Type {
	case models.DiscountPercentage, models.DiscountFixed:
		return *d, true
	case "":
		// no type set contributes nothing, same as a zero value
		return models.Discount{Reason: d.Reason}, true
	}
	return models.Discount{Reason: d.Reason}, false
}

// ComputeDiscount returns the discount amount for subtotal. Fixed discounts
// never exceed the subtotal.
func ComputeDiscount(subtotal decimal.Decimal, d *models.Discount) decimal.Decimal {
	discount, _ := NormalizeDiscount(d)

	switch discount.Type {
	case models.DiscountPercentage:
		return roundCents(subtotal.Mul(discount.Value).Div(hundred))
	case models.DiscountFixed:
		return roundCents(decimal.Min(discount.Value, subtotal))
	}
	return decimal.Zero
}

// ComputeAfterDiscount subtracts the discount, never going below zero.
func ComputeAfterDiscount(subtotal, discountAmount decimal.Decimal) decimal.Decimal {
	after := roundCents(subtotal.Sub(discountAmount))
	if after.IsNegative() {
		return decimal.Zero
	}
	return after
}

// ComputeTax charges taxRatePercent on the discounted amount.
func ComputeTax(afterDiscount, taxRatePercent decimal.Decimal) decimal.Decimal {
	if taxRatePercent.IsNegative() {
		return decimal.Zero
	}
	return roundCents(afterDiscount.Mul(taxRatePercent).Div(hundred))
}

// ComputeGrandTotal adds tax to the discounted amount.
func ComputeGrandTotal(afterDiscount, taxAmount decimal.Decimal) decimal.Decimal {
	return roundCents(afterDiscount.Add(taxAmount))
}
