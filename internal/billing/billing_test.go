package billing

import (
	"bytes"
	"testing"
	"time"

	"dhaba-pos/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func kot(id int64, items ...models.KOTItem) models.KOT {
	return models.KOT{ID: id, TableID: 7, RoomID: 1, Status: models.KOTStatusPreparing, OrderItems: items}
}

func item(productID int64, qty int) models.KOTItem {
	return models.KOTItem{ProductID: productID, Quantity: qty}
}

var (
	paneer = models.Product{ID: 1, Name: "Paneer Tikka", Price: dec("180")}
	dal    = models.Product{ID: 2, Name: "Dal", Price: dec("120")}
	naan   = models.Product{ID: 3, Name: "Butter Naan", Price: dec("45.50")}
)

func catalog() []models.Product {
	return []models.Product{paneer, dal, naan}
}

func TestAggregateMergesDuplicatesAcrossKOTs(t *testing.T) {
	kots := []models.KOT{
		kot(1, item(paneer.ID, 2)),
		kot(2, item(paneer.ID, 3)),
	}

	items := Aggregate(kots, catalog())

	require.Len(t, items, 1)
	assert.Equal(t, paneer.ID, items[0].Product.ID)
	assert.Equal(t, 5, items[0].Quantity)
	assert.Equal(t, "900.00", items[0].LineTotal.StringFixed(2))
}

func TestAggregateKeepsFirstSeenOrder(t *testing.T) {
	kots := []models.KOT{
		kot(1, item(dal.ID, 1), item(paneer.ID, 1)),
		kot(2, item(naan.ID, 2), item(dal.ID, 1)),
	}

	items := Aggregate(kots, catalog())

	require.Len(t, items, 3)
	assert.Equal(t, []int64{dal.ID, paneer.ID, naan.ID},
		[]int64{items[0].Product.ID, items[1].Product.ID, items[2].Product.ID})
	assert.Equal(t, 2, items[0].Quantity)
}

func TestAggregateSkipsUnknownProducts(t *testing.T) {
	kots := []models.KOT{
		kot(1, item(paneer.ID, 1), item(99, 4)),
	}

	var items []LineItem
	var stats AggregateStats
	assert.NotPanics(t, func() {
		items, stats = AggregateWithStats(kots, catalog())
	})

	require.Len(t, items, 1)
	assert.Equal(t, paneer.ID, items[0].Product.ID)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, []int64{99}, stats.SkippedProductIDs)
}

func TestAggregateEmptyInput(t *testing.T) {
	items := Aggregate(nil, catalog())
	assert.Empty(t, items)
	assert.True(t, ComputeSubtotal(items).IsZero())
}

func TestSubtotalIsOrderIndependent(t *testing.T) {
	k1 := kot(1, item(paneer.ID, 2), item(naan.ID, 3))
	k2 := kot(2, item(dal.ID, 1), item(paneer.ID, 1))
	k3 := kot(3, item(naan.ID, 1))

	permutations := [][]models.KOT{
		{k1, k2, k3}, {k1, k3, k2}, {k2, k1, k3},
		{k2, k3, k1}, {k3, k1, k2}, {k3, k2, k1},
	}

	want := ComputeSubtotal(Aggregate(permutations[0], catalog()))
	for _, p := range permutations[1:] {
		got := ComputeSubtotal(Aggregate(p, catalog()))
		assert.True(t, want.Equal(got), "want %s got %s", want, got)
	}
}

func TestSubtotalMatchesLineTotals(t *testing.T) {
	items := Aggregate([]models.KOT{kot(1, item(naan.ID, 3), item(dal.ID, 2))}, catalog())

	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.LineTotal)
	}
	assert.Equal(t, sum.StringFixed(2), ComputeSubtotal(items).StringFixed(2))
	assert.Equal(t, "376.50", ComputeSubtotal(items).StringFixed(2))
}

func TestComputeDiscount(t *testing.T) {
	tests := []struct {
		name     string
		subtotal string
		discount *models.Discount
		want     string
	}{
		{"percentage", "200", &models.Discount{Type: models.DiscountPercentage, Value: dec("10")}, "20.00"},
		{"percentage rounds to cents", "99.99", &models.Discount{Type: models.DiscountPercentage, Value: dec("15")}, "15.00"},
		{"fixed", "100", &models.Discount{Type: models.DiscountFixed, Value: dec("30")}, "30.00"},
		{"fixed clamps to subtotal", "100", &models.Discount{Type: models.DiscountFixed, Value: dec("150")}, "100.00"},
		{"nil", "100", nil, "0.00"},
		{"zero percentage", "100", &models.Discount{Type: models.DiscountPercentage, Value: decimal.Zero}, "0.00"},
		{"no type", "100", &models.Discount{Value: dec("10")}, "0.00"},
		{"unknown type", "100", &models.Discount{Type: "bogo", Value: dec("10")}, "0.00"},
		{"negative value", "100", &models.Discount{Type: models.DiscountFixed, Value: dec("-5")}, "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeDiscount(dec(tt.subtotal), tt.discount)
			assert.Equal(t, tt.want, got.StringFixed(2))
		})
	}
}

func TestNormalizeDiscountFlagsInvalidInput(t *testing.T) {
	_, ok := NormalizeDiscount(&models.Discount{Type: "bogo", Value: dec("5")})
	assert.False(t, ok)

	_, ok = NormalizeDiscount(&models.Discount{Type: models.DiscountFixed, Value: dec("-1")})
	assert.False(t, ok)

	d, ok := NormalizeDiscount(nil)
	assert.True(t, ok)
	assert.Equal(t, models.Discount{}, d)
}

func TestAfterDiscountFloorsAtZero(t *testing.T) {
	got := ComputeAfterDiscount(dec("100"), dec("250"))
	assert.True(t, got.IsZero())
}

func TestTaxIsChargedAfterDiscount(t *testing.T) {
	subtotal := dec("200")
	discount := ComputeDiscount(subtotal, &models.Discount{Type: models.DiscountPercentage, Value: dec("10")})
	after := ComputeAfterDiscount(subtotal, discount)
	tax := ComputeTax(after, dec("5"))
	total := ComputeGrandTotal(after, tax)

	assert.Equal(t, "20.00", discount.StringFixed(2))
	assert.Equal(t, "180.00", after.StringFixed(2))
	assert.Equal(t, "9.00", tax.StringFixed(2))
	assert.Equal(t, "189.00", total.StringFixed(2))
}

func TestChainedRoundingPerStep(t *testing.T) {
	// 33.335 * 10% = 3.3335 -> 3.33; 33.335 - 3.33 = 30.005 -> 30.01
	subtotal := dec("33.335")
	discount := ComputeDiscount(subtotal, &models.Discount{Type: models.DiscountPercentage, Value: dec("10")})
	after := ComputeAfterDiscount(subtotal, discount)

	assert.Equal(t, "3.33", discount.String())
	assert.Equal(t, "30.01", after.String())
}

func TestZeroDiscountLeavesSubtotal(t *testing.T) {
	for _, d := range []*models.Discount{
		nil,
		{Type: models.DiscountPercentage, Value: decimal.Zero},
	} {
		subtotal := dec("660")
		amount := ComputeDiscount(subtotal, d)
		assert.Equal(t, "0.00", amount.StringFixed(2))
		assert.True(t, ComputeAfterDiscount(subtotal, amount).Equal(subtotal))
	}
}

func TestPreviewEndToEnd(t *testing.T) {
	in := Input{
		TableID: 7,
		RoomID:  1,
		KOTs: []models.KOT{
			kot(11, item(paneer.ID, 2), item(dal.ID, 1)),
			kot(12, item(paneer.ID, 1)),
		},
		Catalog:  catalog(),
		Discount: &models.Discount{Type: models.DiscountPercentage, Value: dec("10"), Reason: "loyalty"},
		Company:  models.CompanyConfig{Name: "Dhaba", TaxRate: dec("5")},
	}

	bill := Preview(in)

	require.Len(t, bill.LineItems, 2)
	assert.Equal(t, "Paneer Tikka", bill.LineItems[0].Product.Name)
	assert.Equal(t, 3, bill.LineItems[0].Quantity)
	assert.Equal(t, "540.00", bill.LineItems[0].LineTotal.StringFixed(2))
	assert.Equal(t, "Dal", bill.LineItems[1].Product.Name)
	assert.Equal(t, 1, bill.LineItems[1].Quantity)
	assert.Equal(t, "120.00", bill.LineItems[1].LineTotal.StringFixed(2))

	assert.Equal(t, "660.00", bill.Subtotal.StringFixed(2))
	assert.Equal(t, "66.00", bill.DiscountAmount.StringFixed(2))
	assert.Equal(t, "594.00", bill.AfterDiscount.StringFixed(2))
	assert.Equal(t, "29.70", bill.TaxAmount.StringFixed(2))
	assert.Equal(t, "623.70", bill.GrandTotal.StringFixed(2))

	assert.Equal(t, []int64{11, 12}, bill.KOTIDs)
	assert.Equal(t, "loyalty", bill.Discount.Reason)
	assert.Equal(t, StateBillPreviewed, bill.State)
	assert.Equal(t, models.PaymentCash, bill.PaymentMethod)
	assert.Equal(t, 4, bill.TotalQuantity())
	assert.True(t, bill.ShowDiscount())
}

func TestPreviewIsIdempotent(t *testing.T) {
	in := Input{
		KOTs:     []models.KOT{kot(1, item(naan.ID, 3)), kot(2, item(dal.ID, 2), item(naan.ID, 1))},
		Catalog:  catalog(),
		Discount: &models.Discount{Type: models.DiscountFixed, Value: dec("25")},
		Company:  models.CompanyConfig{TaxRate: dec("18")},
	}

	first := Preview(in)
	second := Preview(in)

	assert.Equal(t, first, second)
}

func TestPreviewFallsBackToCompanyDiscount(t *testing.T) {
	bill := Preview(Input{
		KOTs:    []models.KOT{kot(1, item(dal.ID, 5))},
		Catalog: catalog(),
		Company: models.CompanyConfig{TaxRate: dec("5"), DiscountDefault: dec("10")},
	})

	assert.Equal(t, models.DiscountPercentage, bill.Discount.Type)
	assert.Equal(t, StandardDiscountReason, bill.Discount.Reason)
	assert.Equal(t, "60.00", bill.DiscountAmount.StringFixed(2))
	assert.Equal(t, "567.00", bill.GrandTotal.StringFixed(2))
}

func TestPreviewWithoutDiscountHidesRow(t *testing.T) {
	bill := Preview(Input{
		KOTs:    []models.KOT{kot(1, item(dal.ID, 1))},
		Catalog: catalog(),
		Company: models.CompanyConfig{TaxRate: dec("5")},
	})

	assert.False(t, bill.ShowDiscount())
	assert.True(t, bill.AfterDiscount.Equal(bill.Subtotal))
}

func TestBillStateTransitions(t *testing.T) {
	assert.True(t, StateOpen.CanTransition(StateBillPreviewed))
	assert.True(t, StateBillPreviewed.CanTransition(StateBillPreviewed))
	assert.True(t, StateBillPreviewed.CanTransition(StateFinalized))
	assert.False(t, StateOpen.CanTransition(StateFinalized))
	assert.False(t, StateFinalized.CanTransition(StateBillPreviewed))
	assert.False(t, StateFinalized.CanTransition(StateFinalized))
}

func TestRenderReceipt(t *testing.T) {
	company := models.CompanyConfig{Name: "Sharma Dhaba", Address: "NH 44", TaxRate: dec("5")}
	bill := Preview(Input{
		TableID:       7,
		KOTs:          []models.KOT{kot(1, item(paneer.ID, 3), item(dal.ID, 1))},
		Catalog:       catalog(),
		Discount:      &models.Discount{Type: models.DiscountPercentage, Value: dec("10")},
		PaymentMethod: models.PaymentUPI,
		Company:       company,
	})

	var buf bytes.Buffer
	err := RenderReceipt(&buf, bill, company, time.Date(2024, 3, 9, 20, 15, 0, 0, time.UTC))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Sharma Dhaba")
	assert.Contains(t, out, "Paneer Tikka x3 @ ₹180.00")
	assert.Contains(t, out, "Discount (10%):")
	assert.Contains(t, out, "-₹66.00")
	assert.Contains(t, out, "GST (5%):")
	assert.Contains(t, out, "₹623.70")
	assert.Contains(t, out, "Payment: Upi")
	assert.Contains(t, out, "09 Mar 2024 20:15")
}

func TestRenderReceiptOmitsZeroDiscount(t *testing.T) {
	company := models.CompanyConfig{Name: "Sharma Dhaba", TaxRate: dec("5")}
	bill := Preview(Input{
		KOTs:    []models.KOT{kot(1, item(dal.ID, 1))},
		Catalog: catalog(),
		Company: company,
	})

	var buf bytes.Buffer
	require.NoError(t, RenderReceipt(&buf, bill, company, time.Now()))
	assert.NotContains(t, buf.String(), "Discount")
}
