// internal/analytics/reorder.go
package analytics

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/tobihealthops/requiva-go/internal/domain"
)

// Urgency buckets for reorder predictions.
const (
	UrgencyUrgent = "urgent"
	UrgencySoon   = "soon"
	UrgencyNormal = "normal"
)

// ReorderPrediction is the projected next order for one item.
type ReorderPrediction struct {
	Item                 string  `json:"item"`
	PredictedReorderDate string  `json:"predicted_reorder_date"`
	DaysUntilReorder     int     `json:"days_until_reorder"`
	AvgQuantity          float64 `json:"avg_quantity"`
	RecommendedVendor    string  `json:"recommended_vendor"`
	OrderFrequencyDays   float64 `json:"order_frequency_days"`
	Urgency              string  `json:"urgency"`
}

// PredictReorders estimates when each item will next be ordered from
// the mean gap between its historical orders. Items with fewer than
// two dated orders are skipped. Results are sorted most urgent first.
func PredictReorders(ds *Dataset, now time.Time) []ReorderPrediction {
	var predictions []ReorderPrediction

	for _, item := range ds.Items() {
		rows := ds.RowsForItem(item)

		dated := make([]Row, 0, len(rows))
		for _, r := range rows {
			if r.HasDate {
				dated = append(dated, r)
			}
		}
		if len(dated) < 2 {
			continue
		}
		sort.SliceStable(dated, func(i, j int) bool {
			return dated[i].OrderedAt.Before(dated[j].OrderedAt)
		})

		// Mean gap in whole days between consecutive orders.
		gaps := make([]float64, 0, len(dated)-1)
		for i := 1; i < len(dated); i++ {
			gaps = append(gaps, dated[i].OrderedAt.Sub(dated[i-1].OrderedAt).Hours()/24)
		}
		avgGap := meanOf(gaps)

		lastOrder := dated[len(dated)-1].OrderedAt
		predicted := lastOrder.Add(time.Duration(avgGap * 24 * float64(time.Hour)))
		daysUntil := int(math.Floor(predicted.Sub(now).Hours() / 24))
		if daysUntil < 0 {
			daysUntil = 0
		}

		// Quantity and vendor stats use every row for the item, dated
		// or not. An item whose quantity cells are all missing averages
		// to zero; the NaN marker must not leak into a prediction, which
		// gets JSON-encoded for the API and the cache.
		qtys := make([]float64, 0, len(rows))
		for _, r := range rows {
			if domain.IsFiniteNumber(r.Rec.Quantity) {
				qtys = append(qtys, r.Rec.Quantity)
			}
		}
		avgQty := meanOf(qtys)
		if !domain.IsFiniteNumber(avgQty) {
			avgQty = 0
		}

		predictions = append(predictions, ReorderPrediction{
			Item:                 item,
			PredictedReorderDate: predicted.Format("2006-01-02"),
			DaysUntilReorder:     daysUntil,
			AvgQuantity:          round1(avgQty),
			RecommendedVendor:    modalVendor(rows),
			OrderFrequencyDays:   round1(avgGap),
			Urgency:              urgencyFor(daysUntil),
		})
	}

	sort.SliceStable(predictions, func(i, j int) bool {
		return predictions[i].DaysUntilReorder < predictions[j].DaysUntilReorder
	})
	return predictions
}

func urgencyFor(daysUntil int) string {
	switch {
	case daysUntil <= 7:
		return UrgencyUrgent
	case daysUntil <= 30:
		return UrgencySoon
	default:
		return UrgencyNormal
	}
}

// modalVendor returns the most frequent non-empty vendor. Ties go to
// the lexicographically smallest name; no vendors at all yields
// "Unknown".
func modalVendor(rows []Row) string {
	counts := make(map[string]int)
	for _, r := range rows {
		v := strings.TrimSpace(r.Rec.Vendor)
		if v == "" {
			continue
		}
		counts[r.Rec.Vendor]++
	}
	best, bestCount := "", 0
	for v, c := range counts {
		if c > bestCount || (c == bestCount && v < best) {
			best, bestCount = v, c
		}
	}
	if best == "" {
		return "Unknown"
	}
	return best
}
