// Package model fits the propensity and outcome models the estimators depend
// on. Learners are fit/predict oracles: any type satisfying Learner can be
// plugged in through a Factory, and a few small default learners ship for
// when nothing else is configured.
package model

//go:generate mockgen -package=mocks -destination=../../mocks/mock_learner.go github.com/causalest/causalest/core/model Learner

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Learner is a supervised model. For classifiers Predict returns P(y=1|x);
// for regressors it returns the conditional mean.
type Learner interface {
	Fit(x mat.Matrix, y []float64) error
	Predict(x mat.Matrix) ([]float64, error)
}

// Factory returns a fresh, unfitted Learner. Every fit asks the factory for a
// new instance so fitted state is never shared between calls or goroutines.
type Factory func() Learner

// Kind names a default learner.
type Kind string

const (
	KindLogistic Kind = "logistic"
	KindLinear   Kind = "linear"
	KindMean     Kind = "mean"
	// KindAuto picks logistic for binary outcomes and linear otherwise.
	KindAuto Kind = "auto"
)

// Options tunes the default learners.
type Options struct {
	// L2 is the logistic regression penalty. The intercept is not penalised.
	L2 float64
	// Ridge is the linear regression penalty.
	Ridge float64
	// MaxIter bounds the Newton iterations of logistic regression.
	MaxIter int
	// Tol is the convergence tolerance on the largest coefficient update.
	Tol float64
}

// DefaultOptions returns the settings used when none are configured.
func DefaultOptions() Options {
	return Options{
		L2:      1,
		Ridge:   1e-6,
		MaxIter: 100,
		Tol:     1e-8,
	}
}

// ParseKind validates a learner name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindLogistic, KindLinear, KindMean, KindAuto:
		return k, nil
	}
	return "", fmt.Errorf("unknown model kind %q", s)
}

// NewFactory returns a factory for a concrete default learner. KindAuto is
// rejected here because it depends on the outcome; use OutcomeFactory.
func NewFactory(kind Kind, opts Options) (Factory, error) {
	switch kind {
	case KindLogistic:
		return func() Learner { return NewLogisticRegression(opts) }, nil
	case KindLinear:
		return func() Learner { return NewLinearRegression(opts) }, nil
	case KindMean:
		return func() Learner { return &MeanModel{} }, nil
	case KindAuto:
		return nil, fmt.Errorf("model kind %q needs an outcome type; use OutcomeFactory", kind)
	}
	return nil, fmt.Errorf("unknown model kind %q", kind)
}

// OutcomeFactory is NewFactory with KindAuto resolved against the outcome:
// logistic when binary is true, linear otherwise.
func OutcomeFactory(kind Kind, opts Options, binary bool) (Factory, error) {
	if kind == KindAuto {
		if binary {
			kind = KindLogistic
		} else {
			kind = KindLinear
		}
	}
	return NewFactory(kind, opts)
}

// design prepends an intercept column to x.
func design(x mat.Matrix) *mat.Dense {
	n, p := x.Dims()
	z := mat.NewDense(n, p+1, nil)
	for i := 0; i < n; i++ {
		z.Set(i, 0, 1)
		for j := 0; j < p; j++ {
			z.Set(i, j+1, x.At(i, j))
		}
	}
	return z
}

// linearPredictor returns b0 + x·b for coef = [b0, b...].
func linearPredictor(x mat.Matrix, coef []float64) ([]float64, error) {
	n, p := x.Dims()
	if p != len(coef)-1 {
		return nil, fmt.Errorf("%w: model has %d features, input has %d", ErrDimension, len(coef)-1, p)
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		s := coef[0]
		for j := 0; j < p; j++ {
			s += coef[j+1] * x.At(i, j)
		}
		out[i] = s
	}
	return out, nil
}
