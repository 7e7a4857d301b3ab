package analytics

import (
	"math"
	"testing"

	"github.com/tobihealthops/requiva-go/internal/domain"
)

func vendorRec(item, vendor string, price float64, received bool) domain.OrderRecord {
	r := rec(item, vendor, "2025-01-02", 1, price, price)
	if received {
		r.DateReceived = "2025-01-09"
	}
	return r
}

func TestRecommendVendorsCheaperVendorWins(t *testing.T) {
	ds := NewDataset([]domain.OrderRecord{
		vendorRec("Gloves", "Budget Lab", 4, true),
		vendorRec("Gloves", "Premium Sci", 9, true),
	})

	recs := RecommendVendors(ds)
	got, ok := recs["Gloves"]
	if !ok {
		t.Fatal("expected a recommendation for Gloves")
	}
	if len(got) != 2 || got[0] != "Budget Lab" {
		t.Errorf("ranking = %v, want Budget Lab first", got)
	}
}

func TestRecommendVendorsReliabilityBreaksEqualPrices(t *testing.T) {
	ds := NewDataset([]domain.OrderRecord{
		vendorRec("Tips", "Flaky", 5, false),
		vendorRec("Tips", "Steady", 5, true),
	})

	got := RecommendVendors(ds)["Tips"]
	if len(got) != 2 || got[0] != "Steady" {
		t.Errorf("ranking = %v, want Steady first", got)
	}
}

func TestRecommendVendorsOmitsThinItems(t *testing.T) {
	ds := NewDataset([]domain.OrderRecord{
		vendorRec("Gloves", "VWR", 4, true),
	})
	if recs := RecommendVendors(ds); len(recs) != 0 {
		t.Errorf("expected no recommendations, got %v", recs)
	}
}

func TestRecommendVendorsTopThreeOnly(t *testing.T) {
	ds := NewDataset([]domain.OrderRecord{
		vendorRec("Gloves", "A", 1, true),
		vendorRec("Gloves", "B", 2, true),
		vendorRec("Gloves", "C", 3, true),
		vendorRec("Gloves", "D", 4, true),
	})

	got := RecommendVendors(ds)["Gloves"]
	if len(got) != 3 {
		t.Fatalf("expected top 3, got %v", got)
	}
	if got[0] != "A" || got[1] != "B" || got[2] != "C" {
		t.Errorf("ranking = %v, want [A B C]", got)
	}
}

func TestRecommendVendorsSkipsUnpricedVendors(t *testing.T) {
	unpriced := rec("Gloves", "Mystery", "2025-01-02", 1, 0, 0)
	unpriced.UnitPrice = math.NaN()
	ds := NewDataset([]domain.OrderRecord{
		vendorRec("Gloves", "Budget Lab", 4, true),
		vendorRec("Gloves", "Premium Sci", 9, true),
		unpriced,
	})

	got := RecommendVendors(ds)["Gloves"]
	for _, v := range got {
		if v == "Mystery" {
			t.Errorf("unpriced vendor ranked: %v", got)
		}
	}
}
