package analytics

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"testing"

	"github.com/tobihealthops/requiva-go/internal/domain"
)

// anomalyFixture builds n unremarkable orders plus one wildly out of
// range, ids ORD-0..ORD-n.
func anomalyFixture(n int) []domain.OrderRecord {
	recs := make([]domain.OrderRecord, 0, n+1)
	for i := 0; i < n; i++ {
		qty := 8 + float64(i%5)
		price := 4 + 0.5*float64(i%4)
		r := rec("Gloves", "VWR", "2025-01-02", qty, price, qty*price)
		r.ReqID = fmt.Sprintf("ORD-%d", i)
		recs = append(recs, r)
	}
	outlier := rec("Microscope", "Zeiss", "2025-01-10", 500, 120, 60000)
	outlier.ReqID = fmt.Sprintf("ORD-%d", n)
	return append(recs, outlier)
}

func TestFitAnomalyDetectorBelowMinimumIsSoft(t *testing.T) {
	var recs []domain.OrderRecord
	for i := 0; i < 9; i++ {
		r := rec("Gloves", "VWR", "2025-01-02", float64(i+1), 5, float64(i+1)*5)
		r.ReqID = fmt.Sprintf("ORD-%d", i)
		recs = append(recs, r)
	}

	d, err := FitAnomalyDetector(NewDataset(recs))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d != nil {
		t.Fatal("expected nil detector for 9 usable rows")
	}

	anomalies, err := DetectAnomalies(NewDataset(recs))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if anomalies != nil {
		t.Fatalf("expected empty batch result, got %v", anomalies)
	}
}

func TestFitAnomalyDetectorSkipsUnusableRows(t *testing.T) {
	recs := anomalyFixture(8) // 9 usable
	// Rows with zero/negative/NaN totals don't count toward the
	// minimum.
	recs = append(recs,
		rec("Free sample", "VWR", "2025-01-02", 1, 0, 0),
		rec("Broken", "VWR", "2025-01-02", 1, 5, math.NaN()),
	)

	d, err := FitAnomalyDetector(NewDataset(recs))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d != nil {
		t.Fatal("expected nil detector: only 9 usable rows")
	}
}

func TestDetectAnomaliesFlagsTheOutlier(t *testing.T) {
	anomalies, err := DetectAnomalies(NewDataset(anomalyFixture(19)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(anomalies) == 0 {
		t.Fatal("expected at least one anomaly")
	}
	if anomalies[0].ReqID != "ORD-19" {
		t.Errorf("top anomaly = %s, want the planted outlier ORD-19", anomalies[0].ReqID)
	}
	for i, a := range anomalies {
		if a.AnomalyScore < 0 || a.AnomalyScore > 1 {
			t.Errorf("anomaly %d score %v outside [0,1]", i, a.AnomalyScore)
		}
		if i > 0 && anomalies[i-1].AnomalyScore < a.AnomalyScore {
			t.Errorf("anomalies not sorted descending at %d", i)
		}
	}
}

func TestDetectAnomaliesDeterministic(t *testing.T) {
	recs := anomalyFixture(19)
	first, err := DetectAnomalies(NewDataset(recs))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := DetectAnomalies(NewDataset(recs))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("two fits over the same snapshot disagree")
	}
}

func TestFitAnomalyDetectorZeroVarianceIsHard(t *testing.T) {
	var recs []domain.OrderRecord
	for i := 0; i < 12; i++ {
		r := rec("Gloves", "VWR", "2025-01-02", 10, 5, 50)
		r.ReqID = fmt.Sprintf("ORD-%d", i)
		recs = append(recs, r)
	}

	_, err := FitAnomalyDetector(NewDataset(recs))
	if !errors.Is(err, ErrModelFit) {
		t.Fatalf("expected ErrModelFit, got %v", err)
	}
}

func TestScoreOrderUsesTrainingScale(t *testing.T) {
	d, err := FitAnomalyDetector(NewDataset(anomalyFixture(19)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d == nil {
		t.Fatal("expected a fitted detector")
	}

	typical := d.ScoreOrder(rec("Gloves", "VWR", "", 9, 4.5, 40.5))
	extreme := d.ScoreOrder(rec("Laser", "Thorlabs", "", 2000, 500, 1000000))
	if extreme <= typical {
		t.Errorf("extreme order scored %v, typical %v; extreme should score higher", extreme, typical)
	}

	// Same input, same fitted model, same score.
	if again := d.ScoreOrder(rec("Gloves", "VWR", "", 9, 4.5, 40.5)); again != typical {
		t.Errorf("rescoring the same order changed the score: %v vs %v", again, typical)
	}
}
