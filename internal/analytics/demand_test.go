package analytics

import (
	"strings"
	"testing"

	"github.com/tobihealthops/requiva-go/internal/domain"
)

func weeklyRecs(item string, perWeek []int) []domain.OrderRecord {
	// Four consecutive ISO weeks of early 2025, one date per week.
	dates := []string{"2025-01-06", "2025-01-13", "2025-01-20", "2025-01-27"}
	var recs []domain.OrderRecord
	for i, n := range perWeek {
		for j := 0; j < n; j++ {
			recs = append(recs, rec(item, "VWR", dates[i], 1, 5, 5))
		}
	}
	return recs
}

func TestForecastDemandFlatHistory(t *testing.T) {
	ds := NewDataset(weeklyRecs("Gloves", []int{1, 1, 1, 1}))

	f := ForecastDemand(ds, "", 28)
	if f == nil {
		t.Fatal("expected a forecast")
	}
	if f.CurrentWeeklyAvg != 1 {
		t.Errorf("current weekly avg = %v, want 1", f.CurrentWeeklyAvg)
	}
	if f.PredictedTotal != 4 {
		t.Errorf("predicted total = %v, want 4", f.PredictedTotal)
	}
	if f.Trend != TrendDecreasing {
		t.Errorf("trend = %q, want %q", f.Trend, TrendDecreasing)
	}
}

func TestForecastDemandIncreasing(t *testing.T) {
	ds := NewDataset(weeklyRecs("Gloves", []int{1, 1, 1, 3}))

	f := ForecastDemand(ds, "", 14)
	if f == nil {
		t.Fatal("expected a forecast")
	}
	// Smoothing with alpha 0.3: 1, 1, 1, then 0.3*3 + 0.7*1 = 1.6.
	if f.CurrentWeeklyAvg != 1.6 {
		t.Errorf("current weekly avg = %v, want 1.6", f.CurrentWeeklyAvg)
	}
	if f.PredictedTotal != 3 {
		t.Errorf("predicted total = %v, want 3", f.PredictedTotal)
	}
	if f.Trend != TrendIncreasing {
		t.Errorf("trend = %q, want %q", f.Trend, TrendIncreasing)
	}
}

func TestForecastDemandTooFewWeeks(t *testing.T) {
	ds := NewDataset(weeklyRecs("Gloves", []int{2, 2, 2}))
	if f := ForecastDemand(ds, "", 28); f != nil {
		t.Fatalf("expected nil forecast, got %+v", f)
	}
}

func TestForecastDemandItemFilter(t *testing.T) {
	recs := weeklyRecs("Gloves", []int{1, 1, 1, 1})
	recs = append(recs, weeklyRecs("Ethanol", []int{3, 3, 3})...)

	if f := ForecastDemand(NewDataset(recs), "Gloves", 28); f == nil {
		t.Error("expected a forecast for Gloves")
	}
	lower := NewDataset(recs, WithKeyNormalizer(strings.ToLower))
	if f := ForecastDemand(lower, "GLOVES", 28); f == nil {
		t.Error("expected a forecast for GLOVES under the lowercase normalizer")
	}
	// Ethanol only spans three weeks of history.
	if f := ForecastDemand(NewDataset(recs), "Ethanol", 28); f != nil {
		t.Errorf("expected nil forecast for Ethanol, got %+v", f)
	}
}

func TestTopItems(t *testing.T) {
	var recs []domain.OrderRecord
	recs = append(recs, bulkRecs("Gloves", 1, 5, 3)...)
	recs = append(recs, bulkRecs("Ethanol", 1, 5, 5)...)
	recs = append(recs, bulkRecs("Tips", 1, 5, 3)...)

	top := TopItems(NewDataset(recs), 2)
	if len(top) != 2 {
		t.Fatalf("expected 2 items, got %d", len(top))
	}
	if top[0].Item != "Ethanol" || top[0].Orders != 5 {
		t.Errorf("top item = %+v, want Ethanol with 5 orders", top[0])
	}
	// Gloves and Tips tie at 3; first appearance wins the cut.
	if top[1].Item != "Gloves" {
		t.Errorf("second item = %s, want Gloves", top[1].Item)
	}
}
