// Package numeric holds the small numeric helpers shared by the estimators
// and the bootstrap engine.
package numeric

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

var (
	// ErrEmptyInput indicates a statistic was requested over no values.
	ErrEmptyInput = errors.New("empty input")

	// ErrPercentRange indicates a percentile outside [0, 100].
	ErrPercentRange = errors.New("percentile must be within [0, 100]")
)

// Percentiles returns the requested percentiles (0-100) of data using linear
// interpolation between closest ranks, the same definition numpy uses by
// default. data is not modified.
func Percentiles(data []float64, ps ...float64) ([]float64, error) {
	if len(data) == 0 {
		return nil, ErrEmptyInput
	}
	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)
	return PercentilesSorted(sorted, ps...)
}

// PercentilesSorted is Percentiles for data already sorted ascending.
func PercentilesSorted(sorted []float64, ps ...float64) ([]float64, error) {
	if len(sorted) == 0 {
		return nil, ErrEmptyInput
	}
	out := make([]float64, len(ps))
	last := float64(len(sorted) - 1)
	for i, p := range ps {
		if p < 0 || p > 100 || math.IsNaN(p) {
			return nil, fmt.Errorf("%w: got %v", ErrPercentRange, p)
		}
		h := last * p / 100
		lo := math.Floor(h)
		hi := math.Ceil(h)
		out[i] = sorted[int(lo)] + (h-lo)*(sorted[int(hi)]-sorted[int(lo)])
	}
	return out, nil
}

// Mean returns the arithmetic mean, or NaN for empty input.
func Mean(x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	return floats.Sum(x) / float64(len(x))
}

// MeanWhere returns the mean of x over the positions where group equals want,
// and how many positions matched. The mean is NaN when nothing matched.
func MeanWhere(x, group []float64, want float64) (float64, int) {
	sum, n := 0.0, 0
	for i, g := range group {
		if g == want {
			sum += x[i]
			n++
		}
	}
	if n == 0 {
		return math.NaN(), 0
	}
	return sum / float64(n), n
}

// Count returns how many entries of group equal want.
func Count(group []float64, want float64) int {
	n := 0
	for _, g := range group {
		if g == want {
			n++
		}
	}
	return n
}

// AllFinite reports whether every value is neither NaN nor infinite.
func AllFinite(x ...float64) bool {
	for _, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Sigmoid is the numerically stable logistic function.
func Sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	ez := math.Exp(z)
	return ez / (1 + ez)
}

// Logit is the inverse of Sigmoid.
func Logit(p float64) float64 {
	return math.Log(p / (1 - p))
}
