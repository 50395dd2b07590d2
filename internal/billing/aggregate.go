// Package billing turns a table's open kitchen tickets into a priced bill.
//
// Everything here is a pure function of its inputs: callers pass an explicit
// snapshot of tickets, the product catalog and the company configuration, and
// get a new value back each time.
package billing

import (
	"dhaba-pos/internal/models"

	"github.com/shopspring/decimal"
)

// LineItem is one product's share of a bill, merged across every ticket.
type LineItem struct {
	Product   models.Product  `json:"product"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

// AggregateStats reports what Aggregate had to leave out.
type AggregateStats struct {
	Skipped           int     `json:"skipped"`
	SkippedProductIDs []int64 `json:"skippedProductIds,omitempty"`
}

// Aggregate merges the items of kots into one line per product, in the order
// each product is first seen. Items whose product is missing from catalog are
// skipped.
func Aggregate(kots []models.KOT, catalog []models.Product) []LineItem {
	items, _ := AggregateWithStats(kots, catalog)
	return items
}

// AggregateWithStats is Aggregate plus a report of skipped items.
func AggregateWithStats(kots []models.KOT, catalog []models.Product) ([]LineItem, AggregateStats) {
	products := make(map[int64]models.Product, len(catalog))
	for _, p := range catalog {
		products[p.ID] = p
	}

	var stats AggregateStats
	index := make(map[int64]int)
	items := make([]LineItem, 0)

	for _, kot := range kots {
		for _, item := range kot.OrderItems {
			product, ok := products[item.ProductID]
			if !ok {
				stats.Skipped++
				stats.SkippedProductIDs = append(stats.SkippedProductIDs, item.ProductID)
				continue
			}

			qty := decimal.NewFromInt(int64(item.Quantity))
			i, seen := index[product.ID]
			if !seen {
				index[product.ID] = len(items)
				items = append(items, LineItem{
					Product:   product,
					Quantity:  item.Quantity,
					LineTotal: product.Price.Mul(qty),
				})
				continue
			}

			items[i].Quantity += item.Quantity
			items[i].LineTotal = items[i].LineTotal.Add(product.Price.Mul(qty))
		}
	}

	return items, stats
}

// KOTIDs returns the ids of kots in input order.
func KOTIDs(kots []models.KOT) []int64 {
	ids := make([]int64, 0, len(kots))
	for _, k := range kots {
		ids = append(ids, k.ID)
	}
	return ids
}
