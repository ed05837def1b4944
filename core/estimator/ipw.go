package estimator

import (
	"github.com/causalest/causalest/core/dataset"
	"github.com/causalest/causalest/core/model"
)

// IPW is the inverse-probability-weighting estimator. It uses only the
// propensity model.
type IPW struct {
	// Propensity builds the treatment classifier. Nil means logistic regression.
	Propensity model.Factory
	// Epsilon clips propensity scores. Zero means model.DefaultEpsilon.
	Epsilon float64
}

func (e *IPW) Name() string { return string(KindIPW) }

func (e *IPW) Estimate(d *dataset.Dataset) (Effect, error) {
	if err := CheckGroups(d); err != nil {
		return Effect{}, err
	}
	ps, err := model.Propensity(d.X(), d.T(), propensityOrDefault(e.Propensity), epsilonOrDefault(e.Epsilon))
	if err != nil {
		return Effect{}, err
	}
	return ipwEffect(d.T(), d.Y(), ps), nil
}

// ipwEffect computes
//
//	ATE = mean(y·t/e) − mean(y·(1−t)/(1−e))
//	ATT = Σ(y·t)/Σt − Σ(y·(1−t)·e/(1−e)) / Σ((1−t)·e/(1−e))
//	ATC = Σ(y·t·(1−e)/e) / Σ(t·(1−e)/e) − Σ(y·(1−t))/Σ(1−t)
//
// Both arms must be non-empty.
func ipwEffect(t, y, e []float64) Effect {
	var (
		weightedT, weightedC float64
		sumT, sumYT          float64
		sumC, sumYC          float64
		odds, yOdds          float64
		invOdds, yInvOdds    float64
	)
	for i := range t {
		if t[i] == 1 {
			weightedT += y[i] / e[i]
			sumT++
			sumYT += y[i]
			w := (1 - e[i]) / e[i]
			invOdds += w
			yInvOdds += y[i] * w
		} else {
			weightedC += y[i] / (1 - e[i])
			sumC++
			sumYC += y[i]
			w := e[i] / (1 - e[i])
			odds += w
			yOdds += y[i] * w
		}
	}
	n := float64(len(t))
	return Effect{
		ATE: weightedT/n - weightedC/n,
		ATT: sumYT/sumT - yOdds/odds,
		ATC: yInvOdds/invOdds - sumYC/sumC,
	}
}

// InverseWeights returns t/e + (1−t)/(1−e) for every unit, the weight each
// unit carries in the IPW ATE.
func InverseWeights(t, e []float64) []float64 {
	w := make([]float64, len(t))
	for i := range t {
		w[i] = t[i]/e[i] + (1-t[i])/(1-e[i])
	}
	return w
}
