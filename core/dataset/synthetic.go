package dataset

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/causalest/causalest/core/numeric"
	"github.com/causalest/causalest/pkg/seedrand"
	"gonum.org/v1/gonum/mat"
)

// SyntheticSpec describes a simulated study with linear confounding.
//
// Features are independent standard normals. Treatment is Bernoulli with
// logit(P(t=1|x)) = logit(TreatProb) + Confounding·Σx/√p, so Confounding=0
// gives a randomized trial. For continuous outcomes
// y = Baseline + Effect·t + OutcomeWeight·Σx/√p + Noise·N(0,1), a constant
// effect; for binary outcomes the same linear predictor is on the logit scale.
type SyntheticSpec struct {
	N             int
	Features      int
	TreatProb     float64
	Confounding   float64
	Baseline      float64
	Effect        float64
	OutcomeWeight float64
	Noise         float64
	Binary        bool
}

// Truth holds the sample-average effects implied by a simulation's potential
// outcomes.
type Truth struct {
	ATE, ATT, ATC float64
}

// DefaultSyntheticSpec mirrors the randomized scenario used to sanity check
// every estimator: 1000 units, P(t=1)=0.5, y = 0.3 + 0.2·t + noise.
func DefaultSyntheticSpec() SyntheticSpec {
	return SyntheticSpec{
		N:         1000,
		Features:  3,
		TreatProb: 0.5,
		Baseline:  0.3,
		Effect:    0.2,
		Noise:     0.1,
	}
}

// Synthetic simulates a dataset from spec using r.
func Synthetic(spec SyntheticSpec, r *rand.Rand) (*Dataset, Truth, error) {
	if spec.N < 1 || spec.Features < 1 {
		return nil, Truth{}, fmt.Errorf("synthetic dataset needs N>=1 and Features>=1, got N=%d Features=%d", spec.N, spec.Features)
	}
	if spec.TreatProb <= 0 || spec.TreatProb >= 1 {
		return nil, Truth{}, fmt.Errorf("treatment probability must be in (0,1), got %v", spec.TreatProb)
	}

	n, p := spec.N, spec.Features
	scale := 1 / math.Sqrt(float64(p))
	x := mat.NewDense(n, p, nil)
	t := make([]float64, n)
	y := make([]float64, n)

	var sumAll, sumT, sumC float64
	var nT float64
	for i := 0; i < n; i++ {
		row := x.RawRowView(i)
		sx := 0.0
		for j := range row {
			row[j] = r.NormFloat64()
			sx += row[j]
		}
		sx *= scale

		t[i] = seedrand.Bernoulli(r, numeric.Sigmoid(numeric.Logit(spec.TreatProb)+spec.Confounding*sx))

		lin := spec.Baseline + spec.OutcomeWeight*sx
		var ite float64
		if spec.Binary {
			p1 := numeric.Sigmoid(lin + spec.Effect)
			p0 := numeric.Sigmoid(lin)
			ite = p1 - p0
			if t[i] == 1 {
				y[i] = seedrand.Bernoulli(r, p1)
			} else {
				y[i] = seedrand.Bernoulli(r, p0)
			}
		} else {
			ite = spec.Effect
			y[i] = lin + spec.Effect*t[i] + spec.Noise*r.NormFloat64()
		}

		sumAll += ite
		if t[i] == 1 {
			sumT += ite
			nT++
		} else {
			sumC += ite
		}
	}

	truth := Truth{ATE: sumAll / float64(n), ATT: math.NaN(), ATC: math.NaN()}
	if nT > 0 {
		truth.ATT = sumT / nT
	}
	if nC := float64(n) - nT; nC > 0 {
		truth.ATC = sumC / nC
	}

	d, err := New(x, t, y)
	if err != nil {
		return nil, Truth{}, err
	}
	return d, truth, nil
}
