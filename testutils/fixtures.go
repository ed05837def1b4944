package testutils

import (
	"testing"

	"github.com/causalest/causalest/core/dataset"
	"github.com/causalest/causalest/pkg/seedrand"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// TrueEffect is the constant treatment effect built into the fixtures.
const TrueEffect = 0.2

// RandomizedDataset returns 1000 units with treatment assigned with
// probability 0.5 independently of the features and y = 0.3 + 0.2·t + noise.
func RandomizedDataset(t testing.TB) *dataset.Dataset {
	t.Helper()
	d, _, err := dataset.Synthetic(dataset.DefaultSyntheticSpec(), seedrand.New(20240601))
	require.NoError(t, err)
	return d
}

// ConfoundedSpec describes a study where the features drive both treatment
// and outcome, so a naive difference in means is biased. Propensity and
// outcome are linear in the features, on the logit and identity scale.
func ConfoundedSpec(n int) dataset.SyntheticSpec {
	return dataset.SyntheticSpec{
		N:             n,
		Features:      3,
		TreatProb:     0.5,
		Confounding:   1,
		Effect:        TrueEffect,
		OutcomeWeight: 0.5,
		Noise:         0.2,
	}
}

// ConfoundedDataset simulates ConfoundedSpec(n) with seed.
func ConfoundedDataset(t testing.TB, n int, seed uint64) (*dataset.Dataset, dataset.Truth) {
	t.Helper()
	d, truth, err := dataset.Synthetic(ConfoundedSpec(n), seedrand.New(seed))
	require.NoError(t, err)
	return d, truth
}

// SingleArmDataset returns a small dataset in which every unit is treated.
func SingleArmDataset(t testing.TB) *dataset.Dataset {
	t.Helper()
	x := mat.NewDense(4, 1, []float64{0.1, 0.2, 0.3, 0.4})
	d, err := dataset.New(x, []float64{1, 1, 1, 1}, []float64{1, 0, 1, 1})
	require.NoError(t, err)
	return d
}
