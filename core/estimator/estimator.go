// Package estimator implements the treatment effect estimation strategies.
// Every strategy is a pure function of the dataset it is given: models are
// refit on each call and nothing is cached between calls, which is what lets
// the bootstrap engine run them concurrently on resampled data.
package estimator

import (
	"fmt"

	"github.com/causalest/causalest/core/dataset"
	"github.com/causalest/causalest/core/model"
	"github.com/causalest/causalest/core/numeric"
)

// Effect is a point estimate of the average treatment effect over the whole
// population (ATE), the treated units (ATT) and the control units (ATC).
type Effect struct {
	ATE float64 `json:"ate" yaml:"ate"`
	ATT float64 `json:"att" yaml:"att"`
	ATC float64 `json:"atc" yaml:"atc"`
}

// Finite reports whether all three estimates are real numbers.
func (e Effect) Finite() bool {
	return numeric.AllFinite(e.ATE, e.ATT, e.ATC)
}

func (e Effect) String() string {
	return fmt.Sprintf("ATE=%.4f ATT=%.4f ATC=%.4f", e.ATE, e.ATT, e.ATC)
}

// Estimator is an estimation strategy.
type Estimator interface {
	Name() string
	Estimate(d *dataset.Dataset) (Effect, error)
}

type funcEstimator struct {
	name string
	fn   func(*dataset.Dataset) (Effect, error)
}

func (f funcEstimator) Name() string { return f.name }

func (f funcEstimator) Estimate(d *dataset.Dataset) (Effect, error) { return f.fn(d) }

// Func adapts a plain function to the Estimator interface.
func Func(name string, fn func(*dataset.Dataset) (Effect, error)) Estimator {
	return funcEstimator{name: name, fn: fn}
}

// CheckGroups fails with a *DegenerateGroupError when either arm is empty.
// Every strategy calls it before fitting anything.
func CheckGroups(d *dataset.Dataset) error {
	if d.Treated() == 0 {
		return &DegenerateGroupError{Group: GroupTreated, Estimand: "ATT", Err: ErrEmptyGroup}
	}
	if d.Control() == 0 {
		return &DegenerateGroupError{Group: GroupControl, Estimand: "ATC", Err: ErrEmptyGroup}
	}
	return nil
}

// averageEffects turns per-unit effects into ATE, ATT and ATC by averaging
// over all, treated and control units.
func averageEffects(ite, t []float64) Effect {
	att, _ := numeric.MeanWhere(ite, t, 1)
	atc, _ := numeric.MeanWhere(ite, t, 0)
	return Effect{ATE: numeric.Mean(ite), ATT: att, ATC: atc}
}

func propensityOrDefault(f model.Factory) model.Factory {
	if f != nil {
		return f
	}
	return func() model.Learner { return model.NewLogisticRegression(model.DefaultOptions()) }
}

// outcomeOrDefault resolves a nil outcome factory against the dataset:
// logistic for binary outcomes, linear otherwise.
func outcomeOrDefault(f model.Factory, d *dataset.Dataset) model.Factory {
	if f != nil {
		return f
	}
	f, _ = model.OutcomeFactory(model.KindAuto, model.DefaultOptions(), d.BinaryOutcome())
	return f
}

func epsilonOrDefault(eps float64) float64 {
	if eps > 0 {
		return eps
	}
	return model.DefaultEpsilon
}
