package estimator

import (
	"testing"

	"github.com/causalest/causalest/core/dataset"
	"github.com/causalest/causalest/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func matchingDataset(t *testing.T) *dataset.Dataset {
	t.Helper()
	x := mat.NewDense(5, 1, []float64{1, 2, 3, 4, 5})
	d, err := dataset.New(x, []float64{1, 1, 0, 0, 0}, []float64{5, 7, 1, 2, 4})
	require.NoError(t, err)
	return d
}

var matchingScores = []float64{0.3, 0.9, 0.31, 0.45, 0.85}

func TestMatchHandComputed(t *testing.T) {
	est := &Matching{Propensity: fixedPropensity(t, matchingScores), Logger: testutils.NewTestLogger()}

	s, err := est.Match(matchingDataset(t))
	require.NoError(t, err)
	assert.Equal(t, 2, s.MatchedTreated)
	assert.Equal(t, 3, s.MatchedControl)
	assert.Zero(t, s.UnmatchedTreated)
	assert.Zero(t, s.UnmatchedControl)
	// Treated: 5−1 and 7−4. Controls: 5−1, 5−2 and 7−4.
	assert.InDelta(t, 3.5, s.Effect.ATT, 1e-12)
	assert.InDelta(t, 10.0/3, s.Effect.ATC, 1e-12)
	assert.InDelta(t, 3.4, s.Effect.ATE, 1e-12)
}

func TestMatchCaliperDropsUnits(t *testing.T) {
	est := &Matching{Propensity: fixedPropensity(t, matchingScores), Caliper: 0.1, Logger: testutils.NewTestLogger()}

	s, err := est.Match(matchingDataset(t))
	require.NoError(t, err)
	assert.Equal(t, 1, s.UnmatchedControl)
	assert.InDelta(t, 3.5, s.Effect.ATC, 1e-12)
}

func TestMatchNothingWithinCaliper(t *testing.T) {
	x := mat.NewDense(2, 1, []float64{1, 2})
	d, err := dataset.New(x, []float64{1, 0}, []float64{1, 0})
	require.NoError(t, err)

	est := &Matching{Propensity: fixedPropensity(t, []float64{0.9, 0.1}), Logger: testutils.NewTestLogger()}
	_, err = est.Estimate(d)
	var groupErr *DegenerateGroupError
	require.ErrorAs(t, err, &groupErr)
	assert.Equal(t, GroupMatched, groupErr.Group)
}

func TestNearestBreaksTiesByIndex(t *testing.T) {
	ps := []float64{0.5, 0.25, 0.75, 0.25, 0.75}
	sorted := []int{3, 1, 4, 2}
	// 0.25 and 0.75 are equally far from 0.5; the lowest unit index wins.
	j, ok := nearest(sorted, ps, 0.5)
	require.True(t, ok)
	assert.Equal(t, 1, j)

	j, ok = nearest(sorted, ps, 0.8)
	require.True(t, ok)
	assert.Equal(t, 2, j)

	_, ok = nearest(nil, ps, 0.5)
	assert.False(t, ok)
}
