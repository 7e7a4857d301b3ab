// internal/analytics/bulk.go
package analytics

import (
	"sort"

	"github.com/tobihealthops/requiva-go/internal/domain"
)

const (
	bulkMinOrders     = 3
	bulkQtyMultiplier = 3
	bulkDiscountRate  = 0.10
	bulkSavingsCutoff = 100
	bulkDiscountLabel = "10%"
)

// BulkOpportunity suggests ordering a larger quantity of one item less
// often. PotentialSavings assumes a flat 10% bulk discount on three
// times the average order quantity; it is a heuristic, not a quote.
type BulkOpportunity struct {
	Item              string  `json:"item"`
	CurrentAvgQty     float64 `json:"current_avg_qty"`
	SuggestedQty      float64 `json:"suggested_qty"`
	OrderFrequency    int     `json:"order_frequency"`
	PotentialSavings  float64 `json:"potential_savings"`
	EstimatedDiscount string  `json:"estimated_discount"`
}

// FindBulkOpportunities flags items ordered at least three times whose
// assumed bulk savings clear $100, largest savings first.
func FindBulkOpportunities(ds *Dataset) []BulkOpportunity {
	var opportunities []BulkOpportunity

	for _, item := range ds.Items() {
		rows := ds.RowsForItem(item)
		if len(rows) < bulkMinOrders {
			continue
		}

		var qtys, prices []float64
		for _, r := range rows {
			if domain.IsFiniteNumber(r.Rec.Quantity) {
				qtys = append(qtys, r.Rec.Quantity)
			}
			if domain.IsFiniteNumber(r.Rec.UnitPrice) {
				prices = append(prices, r.Rec.UnitPrice)
			}
		}
		avgQty := meanOf(qtys)
		avgPrice := meanOf(prices)
		if !domain.IsFiniteNumber(avgQty) || !domain.IsFiniteNumber(avgPrice) {
			continue
		}

		suggested := avgQty * bulkQtyMultiplier
		savings := suggested * avgPrice * bulkDiscountRate
		if savings <= bulkSavingsCutoff {
			continue
		}

		opportunities = append(opportunities, BulkOpportunity{
			Item:              item,
			CurrentAvgQty:     round1(avgQty),
			SuggestedQty:      round1(suggested),
			OrderFrequency:    len(rows),
			PotentialSavings:  savings,
			EstimatedDiscount: bulkDiscountLabel,
		})
	}

	sort.SliceStable(opportunities, func(i, j int) bool {
		return opportunities[i].PotentialSavings > opportunities[j].PotentialSavings
	})
	return opportunities
}
