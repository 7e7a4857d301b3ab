// internal/analytics/iforest.go
package analytics

import (
	"math"
	"math/rand"
)

// Isolation forest after Liu, Ting & Zhou (ICDM 2008): anomalies are
// easier to isolate by random axis-parallel splits, so they end up
// with shorter average path lengths across an ensemble of random
// trees. Scores follow the sklearn sign convention, lower (more
// negative) = more anomalous, so downstream normalization can invert
// the range once.

const (
	forestTrees     = 100
	forestSubsample = 256
)

const eulerGamma = 0.5772156649015329

type iTree struct {
	feature     int
	split       float64
	left, right *iTree
	size        int
}

type isolationForest struct {
	trees []*iTree
	cNorm float64
}

// fitIsolationForest builds the ensemble from the given points. The
// caller owns the rng seeding, which makes fits reproducible.
func fitIsolationForest(points [][]float64, rng *rand.Rand) *isolationForest {
	psi := len(points)
	if psi > forestSubsample {
		psi = forestSubsample
	}
	depthLimit := int(math.Ceil(math.Log2(float64(psi))))

	f := &isolationForest{
		trees: make([]*iTree, forestTrees),
		cNorm: avgPathLength(psi),
	}
	for i := range f.trees {
		f.trees[i] = buildTree(subsample(points, psi, rng), 0, depthLimit, rng)
	}
	return f
}

// scoreSample returns the anomaly score of one point, in (-1, 0).
func (f *isolationForest) scoreSample(x []float64) float64 {
	var sum float64
	for _, t := range f.trees {
		sum += t.pathLength(x, 0)
	}
	avgDepth := sum / float64(len(f.trees))
	return -math.Pow(2, -avgDepth/f.cNorm)
}

func buildTree(points [][]float64, depth, limit int, rng *rand.Rand) *iTree {
	if depth >= limit || len(points) <= 1 {
		return &iTree{size: len(points)}
	}

	// Only features with spread can split; a node where every feature
	// is constant is a leaf.
	dims := len(points[0])
	type span struct {
		feature  int
		min, max float64
	}
	candidates := make([]span, 0, dims)
	for ft := 0; ft < dims; ft++ {
		lo, hi := points[0][ft], points[0][ft]
		for _, p := range points[1:] {
			if p[ft] < lo {
				lo = p[ft]
			}
			if p[ft] > hi {
				hi = p[ft]
			}
		}
		if lo < hi {
			candidates = append(candidates, span{ft, lo, hi})
		}
	}
	if len(candidates) == 0 {
		return &iTree{size: len(points)}
	}

	c := candidates[rng.Intn(len(candidates))]
	split := c.min + rng.Float64()*(c.max-c.min)

	var left, right [][]float64
	for _, p := range points {
		if p[c.feature] < split {
			left = append(left, p)
		} else {
			right = append(right, p)
		}
	}
	return &iTree{
		feature: c.feature,
		split:   split,
		left:    buildTree(left, depth+1, limit, rng),
		right:   buildTree(right, depth+1, limit, rng),
		size:    len(points),
	}
}

func (t *iTree) pathLength(x []float64, depth float64) float64 {
	if t.left == nil {
		return depth + avgPathLength(t.size)
	}
	if x[t.feature] < t.split {
		return t.left.pathLength(x, depth+1)
	}
	return t.right.pathLength(x, depth+1)
}

// avgPathLength is c(n), the expected path length of an unsuccessful
// BST search among n points; it normalizes depths across subsample
// sizes.
func avgPathLength(n int) float64 {
	switch {
	case n <= 1:
		return 0
	case n == 2:
		return 1
	default:
		h := math.Log(float64(n-1)) + eulerGamma
		return 2*h - 2*float64(n-1)/float64(n)
	}
}

func subsample(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	idx := rng.Perm(len(points))
	out := make([][]float64, k)
	for i := 0; i < k; i++ {
		out[i] = points[idx[i]]
	}
	return out
}

// percentileLinear interpolates like numpy's default percentile mode;
// montanaflynn's Percentile uses a different method, and the flagging
// cutoff depends on this one. Input must be sorted ascending.
func percentileLinear(sorted []float64, pct float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := pct / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}
