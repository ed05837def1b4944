package estimator

import (
	"github.com/causalest/causalest/core/dataset"
	"github.com/causalest/causalest/core/model"
)

// SLearner fits a single outcome model on the features plus the treatment
// indicator and reads individual effects off counterfactual predictions.
type SLearner struct {
	// Outcome builds the pooled outcome model. Nil picks logistic or linear
	// regression from the outcome type.
	Outcome model.Factory
}

func (e *SLearner) Name() string { return string(KindSLearner) }

func (e *SLearner) Estimate(d *dataset.Dataset) (Effect, error) {
	if err := CheckGroups(d); err != nil {
		return Effect{}, err
	}
	preds, err := model.FitPooled(d, outcomeOrDefault(e.Outcome, d))
	if err != nil {
		return Effect{}, err
	}
	return averageEffects(preds.Effects(), d.T()), nil
}

// TLearner fits one outcome model per arm and evaluates both on every unit.
type TLearner struct {
	// Outcome builds the per-arm outcome models. Nil picks logistic or linear
	// regression from the outcome type.
	Outcome model.Factory
}

func (e *TLearner) Name() string { return string(KindTLearner) }

func (e *TLearner) Estimate(d *dataset.Dataset) (Effect, error) {
	if err := CheckGroups(d); err != nil {
		return Effect{}, err
	}
	preds, err := model.FitSplitArm(d, outcomeOrDefault(e.Outcome, d))
	if err != nil {
		return Effect{}, err
	}
	return averageEffects(preds.Effects(), d.T()), nil
}
