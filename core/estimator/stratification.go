package estimator

import (
	"fmt"
	"math"

	"github.com/causalest/causalest/core/dataset"
	"github.com/causalest/causalest/core/model"
	"github.com/causalest/causalest/core/numeric"
	"github.com/causalest/causalest/pkg/logging"
)

// DefaultStrata is the number of propensity strata used when none is set.
const DefaultStrata = 5

// StratumPolicy decides what happens to strata that lack an arm.
type StratumPolicy string

const (
	// StratumExclude drops degenerate strata and renormalises each weight
	// family over the strata that remain.
	StratumExclude StratumPolicy = "exclude"
	// StratumFail turns the first degenerate stratum into a
	// *DegenerateGroupError.
	StratumFail StratumPolicy = "fail"
)

// ParseStratumPolicy validates a policy name. The empty string selects
// StratumExclude.
func ParseStratumPolicy(s string) (StratumPolicy, error) {
	switch p := StratumPolicy(s); p {
	case "":
		return StratumExclude, nil
	case StratumExclude, StratumFail:
		return p, nil
	}
	return "", fmt.Errorf("unknown stratum policy %q", s)
}

// StratumSummary describes one propensity stratum.
type StratumSummary struct {
	Index   int
	Lower   float64
	Upper   float64
	Total   int
	Treated int
	Control int
	// Effect is mean(y|t=1) − mean(y|t=0) within the stratum, NaN when an arm
	// is missing.
	Effect float64
	// Excluded marks a non-empty stratum left out of the aggregate.
	Excluded bool
}

// Degenerate reports whether the stratum has units but lacks an arm.
func (s StratumSummary) Degenerate() bool {
	return s.Total > 0 && (s.Treated == 0 || s.Control == 0)
}

// Stratification estimates effects within equal-frequency propensity strata
// and averages them.
type Stratification struct {
	// Propensity builds the treatment classifier. Nil means logistic regression.
	Propensity model.Factory
	// Epsilon clips propensity scores. Zero means model.DefaultEpsilon.
	Epsilon float64
	// Strata is the number of quantile bins. Zero means DefaultStrata.
	Strata int
	// Policy handles strata that lack an arm. Empty means StratumExclude.
	Policy StratumPolicy
	Logger logging.Logger
}

func (e *Stratification) Name() string { return string(KindStratification) }

func (e *Stratification) strata() int {
	if e.Strata > 0 {
		return e.Strata
	}
	return DefaultStrata
}

func (e *Stratification) policy() StratumPolicy {
	if e.Policy == "" {
		return StratumExclude
	}
	return e.Policy
}

func (e *Stratification) Estimate(d *dataset.Dataset) (Effect, error) {
	effect, _, err := e.EstimateDetailed(d)
	return effect, err
}

// EstimateDetailed is Estimate that also returns the per-stratum summaries.
func (e *Stratification) EstimateDetailed(d *dataset.Dataset) (Effect, []StratumSummary, error) {
	strata, err := e.Stratify(d)
	if err != nil {
		return Effect{}, nil, err
	}
	effect, err := e.aggregate(strata)
	return effect, strata, err
}

// Stratify fits the propensity model and summarises every stratum. Strata
// that share tied edges may be empty.
func (e *Stratification) Stratify(d *dataset.Dataset) ([]StratumSummary, error) {
	if err := CheckGroups(d); err != nil {
		return nil, err
	}
	ps, err := model.Propensity(d.X(), d.T(), propensityOrDefault(e.Propensity), epsilonOrDefault(e.Epsilon))
	if err != nil {
		return nil, err
	}
	return summarize(ps, d.T(), d.Y(), e.strata())
}

// summarize bins units by propensity quantile. Edges are the i/k percentiles
// of e; a unit falls in the first stratum whose upper edge is ≥ its score,
// and the first stratum is closed on the left.
func summarize(e, t, y []float64, k int) ([]StratumSummary, error) {
	if k < 1 {
		return nil, fmt.Errorf("number of strata must be positive, got %d", k)
	}
	ps := make([]float64, k+1)
	for i := range ps {
		ps[i] = 100 * float64(i) / float64(k)
	}
	edges, err := numeric.Percentiles(e, ps...)
	if err != nil {
		return nil, err
	}

	out := make([]StratumSummary, k)
	sumT := make([]float64, k)
	sumC := make([]float64, k)
	for j := range out {
		out[j] = StratumSummary{Index: j, Lower: edges[j], Upper: edges[j+1]}
	}
	for i, v := range e {
		j := stratumOf(v, edges)
		out[j].Total++
		if t[i] == 1 {
			out[j].Treated++
			sumT[j] += y[i]
		} else {
			out[j].Control++
			sumC[j] += y[i]
		}
	}
	for j := range out {
		s := &out[j]
		if s.Treated == 0 || s.Control == 0 {
			s.Effect = math.NaN()
			continue
		}
		s.Effect = sumT[j]/float64(s.Treated) - sumC[j]/float64(s.Control)
	}
	return out, nil
}

func stratumOf(v float64, edges []float64) int {
	last := len(edges) - 2
	for j := 0; j < last; j++ {
		if v <= edges[j+1] {
			return j
		}
	}
	return last
}

// aggregate weights stratum effects by total, treated and control counts.
// Degenerate strata are handled per policy and marked Excluded in place.
func (e *Stratification) aggregate(strata []StratumSummary) (Effect, error) {
	logger := logging.OrDefault(e.Logger)
	var wAll, wT, wC float64
	var ate, att, atc float64
	for j := range strata {
		s := &strata[j]
		if s.Total == 0 {
			continue
		}
		if s.Degenerate() {
			warning := DegenerateStratumWarning{Stratum: s.Index, Treated: s.Treated, Control: s.Control}
			if e.policy() == StratumFail {
				return Effect{}, &DegenerateGroupError{Group: GroupStratum, Estimand: "ATE, ATT and ATC", Err: warning}
			}
			logger.Debug("excluding degenerate stratum", "stratum", s.Index, "treated", s.Treated, "control", s.Control)
			s.Excluded = true
			continue
		}
		ate += s.Effect * float64(s.Total)
		att += s.Effect * float64(s.Treated)
		atc += s.Effect * float64(s.Control)
		wAll += float64(s.Total)
		wT += float64(s.Treated)
		wC += float64(s.Control)
	}
	if wAll == 0 {
		return Effect{}, &DegenerateGroupError{Group: GroupStratum, Estimand: "ATE, ATT and ATC", Err: fmt.Errorf("all %d strata lack an arm", len(strata))}
	}
	return Effect{ATE: ate / wAll, ATT: att / wT, ATC: atc / wC}, nil
}
