package estimator

import (
	"math"
	"sort"

	"github.com/causalest/causalest/core/dataset"
	"github.com/causalest/causalest/core/model"
	"github.com/causalest/causalest/pkg/logging"
)

// DefaultCaliper is the widest propensity distance accepted for a match.
const DefaultCaliper = 0.2

// MatchSummary reports what a matching run used and dropped.
type MatchSummary struct {
	Effect Effect
	// MatchedTreated and MatchedControl count units that found a partner.
	MatchedTreated int
	MatchedControl int
	// UnmatchedTreated and UnmatchedControl count units dropped for having no
	// partner within the caliper.
	UnmatchedTreated int
	UnmatchedControl int
}

// Matching is one-to-one nearest-neighbour matching with replacement on the
// propensity score. Treated units are matched to controls for the ATT and
// controls to treated units for the ATC.
type Matching struct {
	// Propensity builds the treatment classifier. Nil means logistic regression.
	Propensity model.Factory
	// Epsilon clips propensity scores. Zero means model.DefaultEpsilon.
	Epsilon float64
	// Caliper bounds the propensity distance of a match. Zero means
	// DefaultCaliper.
	Caliper float64
	Logger  logging.Logger
}

func (e *Matching) Name() string { return string(KindMatching) }

func (e *Matching) caliper() float64 {
	if e.Caliper > 0 {
		return e.Caliper
	}
	return DefaultCaliper
}

func (e *Matching) Estimate(d *dataset.Dataset) (Effect, error) {
	s, err := e.Match(d)
	if err != nil {
		return Effect{}, err
	}
	return s.Effect, nil
}

// Match runs the matching in both directions. The ATE is the average of ATT
// and ATC weighted by the matched treated and control counts.
func (e *Matching) Match(d *dataset.Dataset) (MatchSummary, error) {
	if err := CheckGroups(d); err != nil {
		return MatchSummary{}, err
	}
	ps, err := model.Propensity(d.X(), d.T(), propensityOrDefault(e.Propensity), epsilonOrDefault(e.Epsilon))
	if err != nil {
		return MatchSummary{}, err
	}

	t, y := d.T(), d.Y()
	var treated, control []int
	for i, v := range t {
		if v == 1 {
			treated = append(treated, i)
		} else {
			control = append(control, i)
		}
	}

	caliper := e.caliper()
	// ATT: y_i − y_match(i) over treated i.
	att, nT := matchedDifference(treated, control, ps, y, caliper, 1)
	// ATC: y_match(i) − y_i over control i.
	atc, nC := matchedDifference(control, treated, ps, y, caliper, -1)

	s := MatchSummary{
		MatchedTreated:   nT,
		MatchedControl:   nC,
		UnmatchedTreated: len(treated) - nT,
		UnmatchedControl: len(control) - nC,
	}
	if nT == 0 {
		return s, &DegenerateGroupError{Group: GroupMatched, Estimand: "ATT", Err: ErrEmptyGroup}
	}
	if nC == 0 {
		return s, &DegenerateGroupError{Group: GroupMatched, Estimand: "ATC", Err: ErrEmptyGroup}
	}
	if s.UnmatchedTreated+s.UnmatchedControl > 0 {
		logging.OrDefault(e.Logger).Debug("units dropped outside caliper",
			"treated", s.UnmatchedTreated, "control", s.UnmatchedControl, "caliper", caliper)
	}
	s.Effect = Effect{
		ATE: (float64(nT)*att + float64(nC)*atc) / float64(nT+nC),
		ATT: att,
		ATC: atc,
	}
	return s, nil
}

// matchedDifference matches every unit in from to its closest unit in pool by
// propensity and returns sign·mean(y_from − y_match) over units matched
// within caliper, together with how many matched. Ties go to the pool unit
// with the lower index.
func matchedDifference(from, pool []int, ps, y []float64, caliper, sign float64) (float64, int) {
	sorted := append([]int(nil), pool...)
	sort.SliceStable(sorted, func(a, b int) bool { return ps[sorted[a]] < ps[sorted[b]] })

	sum, n := 0.0, 0
	for _, i := range from {
		j, ok := nearest(sorted, ps, ps[i])
		if !ok || math.Abs(ps[j]-ps[i]) > caliper {
			continue
		}
		sum += sign * (y[i] - y[j])
		n++
	}
	if n == 0 {
		return math.NaN(), 0
	}
	return sum / float64(n), n
}

// nearest returns the unit in sorted (ordered by score) closest to target.
func nearest(sorted []int, ps []float64, target float64) (int, bool) {
	if len(sorted) == 0 {
		return 0, false
	}
	k := sort.Search(len(sorted), func(k int) bool { return ps[sorted[k]] >= target })
	best, bestDist := -1, math.Inf(1)
	consider := func(k int) {
		if k < 0 || k >= len(sorted) {
			return
		}
		j := sorted[k]
		dist := math.Abs(ps[j] - target)
		if dist < bestDist || (dist == bestDist && j < best) {
			best, bestDist = j, dist
		}
	}
	consider(k - 1)
	consider(k)
	// Equal scores can sit on either side of the insertion point.
	for m := k + 1; m < len(sorted) && ps[sorted[m]] == ps[sorted[k]]; m++ {
		consider(m)
	}
	for m := k - 2; m >= 0 && ps[sorted[m]] == ps[sorted[k-1]]; m-- {
		consider(m)
	}
	return best, best >= 0
}
