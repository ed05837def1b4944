package estimator

import (
	"github.com/causalest/causalest/core/dataset"
	"github.com/causalest/causalest/core/model"
)

// DoublyRobust is the augmented IPW estimator. It combines the propensity
// model with split-arm outcome models and stays consistent when either one of
// them is correctly specified.
type DoublyRobust struct {
	// Propensity builds the treatment classifier. Nil means logistic regression.
	Propensity model.Factory
	// Outcome builds the per-arm outcome models. Nil picks logistic or linear
	// regression from the outcome type.
	Outcome model.Factory
	// Epsilon clips propensity scores. Zero means model.DefaultEpsilon.
	Epsilon float64
}

func (e *DoublyRobust) Name() string { return string(KindDoublyRobust) }

func (e *DoublyRobust) Estimate(d *dataset.Dataset) (Effect, error) {
	if err := CheckGroups(d); err != nil {
		return Effect{}, err
	}
	ps, err := model.Propensity(d.X(), d.T(), propensityOrDefault(e.Propensity), epsilonOrDefault(e.Epsilon))
	if err != nil {
		return Effect{}, err
	}
	preds, err := model.FitSplitArm(d, outcomeOrDefault(e.Outcome, d))
	if err != nil {
		return Effect{}, err
	}
	return doublyRobustEffect(d.T(), d.Y(), ps, preds.Treated, preds.Control), nil
}

// doublyRobustEffect computes, with g1 = ŷ1 + (t/e)(y−ŷ1) and
// g0 = ŷ0 + ((1−t)/(1−e))(y−ŷ0),
//
//	ATE = mean(g1) − mean(g0)
//	ATT = Σ(t·y − (t−e)·ŷ0/(1−e) − (1−t)·e·y/(1−e)) / Σt
//	ATC = Σ((1−e)·t·y/e − (t−e)·ŷ1/e − (1−t)·y) / Σ(1−t)
//
// The ATT control term (1−t)·e·y/(1−e) mirrors the (1−e)·t·y/e term of ATC.
// Without it the ATT is biased by the odds-weighted mean of ŷ0 over controls.
func doublyRobustEffect(t, y, e, y1, y0 []float64) Effect {
	var g1, g0, att, atc, sumT, sumC float64
	for i := range t {
		ti, ei := t[i], e[i]
		g1 += y1[i] + (ti/ei)*(y[i]-y1[i])
		g0 += y0[i] + ((1-ti)/(1-ei))*(y[i]-y0[i])
		att += ti*y[i] - (ti-ei)*y0[i]/(1-ei) - (1-ti)*ei*y[i]/(1-ei)
		atc += (1-ei)*ti*y[i]/ei - (ti-ei)*y1[i]/ei - (1-ti)*y[i]
		sumT += ti
		sumC += 1 - ti
	}
	n := float64(len(t))
	return Effect{
		ATE: g1/n - g0/n,
		ATT: att / sumT,
		ATC: atc / sumC,
	}
}
