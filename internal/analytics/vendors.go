// internal/analytics/vendors.go
package analytics

import (
	"math"
	"sort"
	"strings"

	"github.com/tobihealthops/requiva-go/internal/domain"
)

const (
	vendorPriceWeight       = 0.6
	vendorReliabilityWeight = 0.4
)

// RecommendVendors ranks each qualifying item's vendors by a blend of
// price and delivery reliability and returns the top three names per
// item. Items with fewer than two orders are omitted; vendors with no
// usable unit price never rank.
func RecommendVendors(ds *Dataset) map[string][]string {
	recommendations := make(map[string][]string)

	for _, item := range ds.Items() {
		rows := ds.RowsForItem(item)
		if len(rows) < 2 {
			continue
		}

		type vendorStat struct {
			name      string
			prices    []float64
			avgPrice  float64
			count     int
			delivered int
		}
		byVendor := make(map[string]*vendorStat)
		var names []string
		for _, r := range rows {
			name := ds.Key(r.Rec.Vendor)
			if strings.TrimSpace(name) == "" {
				continue
			}
			st, ok := byVendor[name]
			if !ok {
				st = &vendorStat{name: name}
				byVendor[name] = st
				names = append(names, name)
			}
			st.count++
			if r.Rec.Received() {
				st.delivered++
			}
			if domain.IsFiniteNumber(r.Rec.UnitPrice) {
				st.prices = append(st.prices, r.Rec.UnitPrice)
			}
		}
		// Alphabetical base order keeps tie-breaking deterministic.
		sort.Strings(names)

		minAvg, maxAvg := math.Inf(1), math.Inf(-1)
		for _, n := range names {
			st := byVendor[n]
			st.avgPrice = meanOf(st.prices)
			if math.IsNaN(st.avgPrice) {
				continue
			}
			if st.avgPrice < minAvg {
				minAvg = st.avgPrice
			}
			if st.avgPrice > maxAvg {
				maxAvg = st.avgPrice
			}
		}

		type ranked struct {
			name  string
			score float64
		}
		var scored []ranked
		for _, n := range names {
			st := byVendor[n]
			if math.IsNaN(st.avgPrice) {
				continue
			}
			// The +1 in the denominator keeps equal-priced vendors from
			// dividing by zero and gives the cheapest vendor the full
			// price component.
			priceComponent := 1 - (st.avgPrice-minAvg)/(maxAvg-minAvg+1)
			reliability := float64(st.delivered) / float64(st.count)
			scored = append(scored, ranked{
				name:  n,
				score: vendorPriceWeight*priceComponent + vendorReliabilityWeight*reliability,
			})
		}
		sort.SliceStable(scored, func(i, j int) bool { return scored[i].score > scored[j].score })

		top := make([]string, 0, 3)
		for _, s := range scored {
			if len(top) == 3 {
				break
			}
			top = append(top, s.name)
		}
		recommendations[item] = top
	}

	return recommendations
}
