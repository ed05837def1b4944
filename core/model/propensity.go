package model

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// DefaultEpsilon bounds propensity scores to [ε, 1-ε] so inverse weights stay
// finite.
const DefaultEpsilon = 1e-5

// Propensity fits a fresh classifier from factory on the full sample and
// returns P(t=1|x) for every unit, clipped to [eps, 1-eps]. Nothing is
// retained between calls.
func Propensity(x mat.Matrix, t []float64, factory Factory, eps float64) ([]float64, error) {
	const name = "propensity"
	if eps <= 0 || eps >= 0.5 {
		return nil, fmt.Errorf("propensity clip epsilon must be in (0, 0.5), got %v", eps)
	}
	if singleClass(t) {
		return nil, &ModelFitError{Model: name, Err: ErrSingleClass}
	}

	learner := factory()
	if err := learner.Fit(x, t); err != nil {
		return nil, &ModelFitError{Model: name, Err: err}
	}
	e, err := learner.Predict(x)
	if err != nil {
		return nil, &ModelFitError{Model: name, Err: err}
	}
	n, _ := x.Dims()
	if len(e) != n {
		return nil, &ModelFitError{Model: name, Err: fmt.Errorf("%w: %d predictions for %d units", ErrDimension, len(e), n)}
	}
	for i, v := range e {
		if math.IsNaN(v) || v < 0 || v > 1 {
			return nil, &ModelFitError{Model: name, Err: fmt.Errorf("prediction %v for unit %d is not a probability", v, i)}
		}
	}
	return Clip(e, eps), nil
}

// Clip clamps every score into [eps, 1-eps] in place and returns e.
func Clip(e []float64, eps float64) []float64 {
	lo, hi := eps, 1-eps
	for i, v := range e {
		e[i] = math.Min(math.Max(v, lo), hi)
	}
	return e
}

func singleClass(t []float64) bool {
	for _, v := range t {
		if v != t[0] {
			return false
		}
	}
	return true
}
