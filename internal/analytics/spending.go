// internal/analytics/spending.go
package analytics

import (
	"sort"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/tobihealthops/requiva-go/internal/domain"
)

// SpendingForecast projects monthly spend over a forecast horizon.
// Dates and Amounts are empty when history is too short to
// extrapolate; ByGrant is the historical breakdown, not a projection.
type SpendingForecast struct {
	TotalForecast float64            `json:"total_forecast"`
	MonthlyAvg    float64            `json:"monthly_avg"`
	Dates         []string           `json:"dates"`
	Amounts       []float64          `json:"amounts"`
	ByGrant       map[string]float64 `json:"by_grant,omitempty"`
}

// ForecastSpending extrapolates monthly totals `months` months ahead
// using a moving-average baseline plus a linear trend from the last
// three months. Returns nil when no row has both a date and a total.
func ForecastSpending(ds *Dataset, months int) *SpendingForecast {
	var (
		rowTotals []float64
		byMonth   = make(map[time.Time]float64)
	)
	usable := make([]Row, 0, ds.Len())
	for _, r := range ds.Rows() {
		if !r.HasDate || !domain.IsFiniteNumber(r.Rec.Total) {
			continue
		}
		usable = append(usable, r)
		rowTotals = append(rowTotals, r.Rec.Total)
		month := time.Date(r.OrderedAt.Year(), r.OrderedAt.Month(), 1, 0, 0, 0, 0, time.UTC)
		byMonth[month] += r.Rec.Total
	}
	if len(usable) == 0 {
		return nil
	}

	byGrant := make(map[string]float64)
	for _, r := range usable {
		if r.Rec.GrantCode == "" {
			continue
		}
		byGrant[r.Rec.GrantCode] += r.Rec.Total
	}

	monthKeys := make([]time.Time, 0, len(byMonth))
	for m := range byMonth {
		monthKeys = append(monthKeys, m)
	}
	sort.Slice(monthKeys, func(i, j int) bool { return monthKeys[i].Before(monthKeys[j]) })

	// Under two months of history there is nothing to extrapolate:
	// report observed spend only.
	if len(monthKeys) < 2 {
		total, _ := stats.Sum(rowTotals)
		return &SpendingForecast{
			TotalForecast: total,
			MonthlyAvg:    meanOf(rowTotals),
			Dates:         []string{},
			Amounts:       []float64{},
			ByGrant:       byGrant,
		}
	}

	sums := make([]float64, len(monthKeys))
	for i, m := range monthKeys {
		sums[i] = byMonth[m]
	}

	window := 3
	if len(sums) < window {
		window = len(sums)
	}
	baseline := meanOf(sums[len(sums)-window:])

	trend := 0.0
	if len(sums) >= 3 {
		recent := sums[len(sums)-3:]
		trend = (recent[2] - recent[0]) / 3
	}

	lastMonth := monthKeys[len(monthKeys)-1]
	dates := make([]string, 0, months)
	amounts := make([]float64, 0, months)
	for i := 1; i <= months; i++ {
		dates = append(dates, lastMonth.AddDate(0, i, 0).Format("2006-01"))
		amounts = append(amounts, baseline+trend*float64(i))
	}

	totalForecast, _ := stats.Sum(amounts)
	return &SpendingForecast{
		TotalForecast: totalForecast,
		MonthlyAvg:    baseline,
		Dates:         dates,
		Amounts:       amounts,
		ByGrant:       byGrant,
	}
}
