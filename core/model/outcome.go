package model

import (
	"fmt"

	"github.com/causalest/causalest/core/dataset"
	"gonum.org/v1/gonum/mat"
)

// MinArmSamples is the fewest rows an outcome model is fit on.
const MinArmSamples = 2

// ArmPredictions holds, for every unit, the predicted outcome under treatment
// and under control.
type ArmPredictions struct {
	Treated []float64
	Control []float64
}

// Effects returns the per-unit predicted effect Treated-Control.
func (p ArmPredictions) Effects() []float64 {
	out := make([]float64, len(p.Treated))
	for i := range out {
		out[i] = p.Treated[i] - p.Control[i]
	}
	return out
}

// FitSplitArm fits one learner on the treated rows and one on the control
// rows, then predicts both potential outcomes for every unit.
func FitSplitArm(d *dataset.Dataset, factory Factory) (ArmPredictions, error) {
	treated, err := fitArm(d, 1, "treated", factory)
	if err != nil {
		return ArmPredictions{}, err
	}
	control, err := fitArm(d, 0, "control", factory)
	if err != nil {
		return ArmPredictions{}, err
	}
	return ArmPredictions{Treated: treated, Control: control}, nil
}

func fitArm(d *dataset.Dataset, arm float64, name string, factory Factory) ([]float64, error) {
	x, y := d.Arm(arm)
	if len(y) < MinArmSamples {
		return nil, &InsufficientDataError{Arm: name, Have: len(y), Need: MinArmSamples}
	}
	model := "outcome (" + name + " arm)"
	learner := factory()
	if err := learner.Fit(x, y); err != nil {
		return nil, &ModelFitError{Model: model, Err: err}
	}
	return predict(learner, d.X(), model)
}

// FitPooled fits a single learner on the features plus the treatment column,
// then predicts every unit with the treatment set to 1 and to 0.
func FitPooled(d *dataset.Dataset, factory Factory) (ArmPredictions, error) {
	const model = "outcome (pooled)"
	if d.Len() < MinArmSamples {
		return ArmPredictions{}, &InsufficientDataError{Arm: "pooled", Have: d.Len(), Need: MinArmSamples}
	}
	learner := factory()
	if err := learner.Fit(d.WithTreatment(), d.Y()); err != nil {
		return ArmPredictions{}, &ModelFitError{Model: model, Err: err}
	}
	treated, err := predict(learner, d.Counterfactual(1), model)
	if err != nil {
		return ArmPredictions{}, err
	}
	control, err := predict(learner, d.Counterfactual(0), model)
	if err != nil {
		return ArmPredictions{}, err
	}
	return ArmPredictions{Treated: treated, Control: control}, nil
}

func predict(learner Learner, x mat.Matrix, model string) ([]float64, error) {
	out, err := learner.Predict(x)
	if err != nil {
		return nil, &ModelFitError{Model: model, Err: err}
	}
	n, _ := x.Dims()
	if len(out) != n {
		return nil, &ModelFitError{Model: model, Err: fmt.Errorf("%w: %d predictions for %d units", ErrDimension, len(out), n)}
	}
	return out, nil
}
