// internal/analytics/anomaly.go
package analytics

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/montanaflynn/stats"

	"github.com/tobihealthops/requiva-go/internal/domain"
)

// ErrModelFit marks hard numeric failures while fitting a model, such
// as a zero-variance feature column. Soft conditions (too little data)
// never produce it.
var ErrModelFit = errors.New("model fit failed")

const (
	anomalySeed          = 42
	anomalyContamination = 0.10
	anomalyMinRows       = 10
)

var anomalyFeatures = [3]string{"quantity", "unit_price", "total"}

// Anomaly is one flagged order. AnomalyScore is min-max normalized
// over the training batch, higher = more anomalous.
type Anomaly struct {
	ReqID        string  `json:"req_id"`
	Item         string  `json:"item"`
	Vendor       string  `json:"vendor"`
	Total        float64 `json:"total"`
	AnomalyScore float64 `json:"anomaly_score"`
}

// AnomalyDetector is a fitted scaler + isolation forest. Fitting is
// deterministic for a given dataset, so detectors can be cached keyed
// by Dataset.Hash and reused to score incoming orders.
type AnomalyDetector struct {
	scaler             *standardScaler
	forest             *isolationForest
	offset             float64
	minScore, maxScore float64
	flagged            []Anomaly
}

// FitAnomalyDetector trains on rows with a positive total and finite
// quantity/unit price/total. Returns (nil, nil) when fewer than 10
// rows qualify; callers must check before scoring.
func FitAnomalyDetector(ds *Dataset) (*AnomalyDetector, error) {
	var (
		usable [][]float64
		recs   []domain.OrderRecord
	)
	for _, r := range ds.Rows() {
		rec := r.Rec
		if !(rec.Total > 0) {
			continue
		}
		if !domain.IsFiniteNumber(rec.Quantity) || !domain.IsFiniteNumber(rec.UnitPrice) || !domain.IsFiniteNumber(rec.Total) {
			continue
		}
		usable = append(usable, []float64{rec.Quantity, rec.UnitPrice, rec.Total})
		recs = append(recs, rec)
	}
	if len(usable) < anomalyMinRows {
		return nil, nil
	}

	scaler, err := fitScaler(usable)
	if err != nil {
		return nil, fmt.Errorf("anomaly scorer: %w", err)
	}
	scaled := make([][]float64, len(usable))
	for i, x := range usable {
		scaled[i] = scaler.transform(x)
	}

	rng := rand.New(rand.NewSource(anomalySeed))
	forest := fitIsolationForest(scaled, rng)

	scores := make([]float64, len(scaled))
	for i, x := range scaled {
		scores[i] = forest.scoreSample(x)
	}
	minScore, _ := stats.Min(scores)
	maxScore, _ := stats.Max(scores)
	if maxScore == minScore {
		return nil, fmt.Errorf("anomaly scorer: degenerate score range: %w", ErrModelFit)
	}

	ranked := append([]float64(nil), scores...)
	sort.Float64s(ranked)
	offset := percentileLinear(ranked, 100*anomalyContamination)

	d := &AnomalyDetector{
		scaler:   scaler,
		forest:   forest,
		offset:   offset,
		minScore: minScore,
		maxScore: maxScore,
	}
	for i, raw := range scores {
		if raw >= offset {
			continue
		}
		d.flagged = append(d.flagged, Anomaly{
			ReqID:        recs[i].ReqID,
			Item:         recs[i].Item,
			Vendor:       recs[i].Vendor,
			Total:        recs[i].Total,
			AnomalyScore: d.normalize(raw),
		})
	}
	sort.SliceStable(d.flagged, func(i, j int) bool {
		return d.flagged[i].AnomalyScore > d.flagged[j].AnomalyScore
	})
	return d, nil
}

// Anomalies returns the flagged training rows, most anomalous first.
func (d *AnomalyDetector) Anomalies() []Anomaly {
	return d.flagged
}

// ScoreOrder scores one candidate order against the training batch.
// The result is normalized with the training score range, so a point
// more extreme than anything seen in training lands outside [0, 1];
// that is expected and not clamped. Missing numerics count as zero.
func (d *AnomalyDetector) ScoreOrder(rec domain.OrderRecord) float64 {
	x := []float64{zeroIfNaN(rec.Quantity), zeroIfNaN(rec.UnitPrice), zeroIfNaN(rec.Total)}
	raw := d.forest.scoreSample(d.scaler.transform(x))
	return d.normalize(raw)
}

func (d *AnomalyDetector) normalize(raw float64) float64 {
	return 1 - (raw-d.minScore)/(d.maxScore-d.minScore)
}

// DetectAnomalies is the one-shot batch mode: fit on the snapshot and
// return the flagged rows. Nil result without error means too little
// data.
func DetectAnomalies(ds *Dataset) ([]Anomaly, error) {
	d, err := FitAnomalyDetector(ds)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, nil
	}
	return d.Anomalies(), nil
}

// standardScaler centers each feature and divides by the population
// standard deviation.
type standardScaler struct {
	mean  []float64
	scale []float64
}

func fitScaler(points [][]float64) (*standardScaler, error) {
	dims := len(points[0])
	s := &standardScaler{
		mean:  make([]float64, dims),
		scale: make([]float64, dims),
	}
	col := make([]float64, len(points))
	for ft := 0; ft < dims; ft++ {
		for i, p := range points {
			col[i] = p[ft]
		}
		m, _ := stats.Mean(col)
		sd, _ := stats.StandardDeviationPopulation(col)
		if sd == 0 || math.IsNaN(sd) {
			return nil, fmt.Errorf("feature %s has zero variance: %w", anomalyFeatures[ft], ErrModelFit)
		}
		s.mean[ft] = m
		s.scale[ft] = sd
	}
	return s, nil
}

func (s *standardScaler) transform(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = (v - s.mean[i]) / s.scale[i]
	}
	return out
}

func zeroIfNaN(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}
