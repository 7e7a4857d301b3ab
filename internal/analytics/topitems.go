// internal/analytics/topitems.go
package analytics

import "sort"

// ItemFrequency is one row of the most-ordered-items chart.
type ItemFrequency struct {
	Item   string `json:"item"`
	Orders int    `json:"orders"`
}

// TopItems counts orders per item, most ordered first, capped at limit
// (limit <= 0 means no cap). Ties keep first-appearance order.
func TopItems(ds *Dataset, limit int) []ItemFrequency {
	freqs := make([]ItemFrequency, 0, len(ds.Items()))
	for _, item := range ds.Items() {
		freqs = append(freqs, ItemFrequency{Item: item, Orders: len(ds.RowsForItem(item))})
	}
	sort.SliceStable(freqs, func(i, j int) bool { return freqs[i].Orders > freqs[j].Orders })
	if limit > 0 && len(freqs) > limit {
		freqs = freqs[:limit]
	}
	return freqs
}
