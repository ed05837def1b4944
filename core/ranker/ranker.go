package ranker

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/causalest/causalest/core/bootstrap"
	"github.com/causalest/causalest/core/dataset"
	"github.com/causalest/causalest/core/estimator"
	"github.com/causalest/causalest/pkg/logging"
	"github.com/causalest/causalest/pkg/metrics"
)

// Bootstrapper produces confidence intervals for an estimator.
type Bootstrapper interface {
	Run(ctx context.Context, d *dataset.Dataset, est estimator.Estimator) (*bootstrap.Result, error)
}

// Report holds the outcome of evaluating a single estimator.
type Report struct {
	Estimator string
	Effect    estimator.Effect
	// Bootstrap is nil when no bootstrapper is configured or the estimate failed.
	Bootstrap *bootstrap.Result
	Err       error
	Elapsed   time.Duration
}

// Success reports whether the estimator and its bootstrap both succeeded.
func (r Report) Success() bool { return r.Err == nil }

// Ranker evaluates estimators side by side and ranks them.
type Ranker struct {
	Bootstrap Bootstrapper
	Logger    logging.Logger
	Metrics   *metrics.Recorder
}

// NewRanker creates a new Ranker. b may be nil, in which case only point
// estimates are computed.
func NewRanker(b Bootstrapper, logger logging.Logger) *Ranker {
	if logger == nil {
		logger = logging.GetLogger()
	}
	return &Ranker{
		Bootstrap: b,
		Logger:    logger.With("component", "ranker"),
	}
}

// Evaluate computes the point estimate of est on d and, when a bootstrapper
// is set, its confidence intervals. Failures are reported in Report.Err.
func (r *Ranker) Evaluate(ctx context.Context, d *dataset.Dataset, est estimator.Estimator) Report {
	start := time.Now()
	rep := Report{Estimator: est.Name()}

	if err := ctx.Err(); err != nil {
		rep.Err = err
		rep.Elapsed = time.Since(start)
		return rep
	}

	effect, err := est.Estimate(d)
	r.Metrics.Run(est.Name(), err)
	if err != nil {
		r.Logger.Warn("estimation failed", "estimator", est.Name(), "error", err)
		rep.Err = fmt.Errorf("point estimate: %w", err)
		rep.Elapsed = time.Since(start)
		return rep
	}
	rep.Effect = effect

	if r.Bootstrap != nil {
		res, err := r.Bootstrap.Run(ctx, d, est)
		if err != nil {
			r.Logger.Warn("bootstrap failed", "estimator", est.Name(), "error", err)
			rep.Err = fmt.Errorf("bootstrap: %w", err)
			rep.Elapsed = time.Since(start)
			return rep
		}
		rep.Bootstrap = res
	}
	r.Logger.Debug("estimator evaluated", "estimator", est.Name(), "effect", effect.String())
	rep.Elapsed = time.Since(start)
	return rep
}

// Compare evaluates every estimator concurrently and returns the ranked
// reports. Estimators still running when ctx is done are reported with the
// context error.
func (r *Ranker) Compare(ctx context.Context, d *dataset.Dataset, ests []estimator.Estimator) []Report {
	results := make(chan Report, len(ests))
	for _, est := range ests {
		go func(est estimator.Estimator) {
			results <- r.Evaluate(ctx, d, est)
		}(est)
	}

	reports := make([]Report, 0, len(ests))
	done := make(map[string]bool, len(ests))
loop:
	for range ests {
		select {
		case rep := <-results:
			reports = append(reports, rep)
			done[rep.Estimator] = true
		case <-ctx.Done():
			r.Logger.Warn("comparison cancelled", "completed", len(reports), "total", len(ests))
			break loop
		}
	}
	for _, est := range ests {
		if !done[est.Name()] {
			reports = append(reports, Report{Estimator: est.Name(), Err: ctx.Err()})
		}
	}

	return r.rankReports(reports)
}

// rankReports puts successes first, narrowest ATE interval first, and
// failures last. Ties and failures are ordered by name.
func (r *Ranker) rankReports(reports []Report) []Report {
	sort.SliceStable(reports, func(i, j int) bool {
		a, b := reports[i], reports[j]
		if a.Success() != b.Success() {
			return a.Success() // true comes before false
		}
		if a.Success() {
			wa, wb := width(a), width(b)
			if wa != wb {
				return wa < wb
			}
		}
		return a.Estimator < b.Estimator
	})
	return reports
}

// width is the ATE interval width, +Inf without a bootstrap so point-only
// reports sort after those with intervals.
func width(r Report) float64 {
	if r.Bootstrap == nil {
		return math.Inf(1)
	}
	return r.Bootstrap.ATE.Width()
}
