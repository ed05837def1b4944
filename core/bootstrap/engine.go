// Package bootstrap derives percentile confidence intervals for any
// estimator by resampling the dataset with replacement.
package bootstrap

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/causalest/causalest/core/dataset"
	"github.com/causalest/causalest/core/estimator"
	"github.com/causalest/causalest/core/numeric"
	"github.com/causalest/causalest/pkg/logging"
	"github.com/causalest/causalest/pkg/metrics"
	"github.com/causalest/causalest/pkg/seedrand"
	"github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"
)

// Option customises an Engine.
type Option func(*Engine)

// WithProgress registers fn to be called after every successful iteration.
// fn is called from several goroutines at once.
func WithProgress(fn func()) Option {
	return func(e *Engine) { e.progress = fn }
}

// WithMetrics records iteration counters and durations in r.
func WithMetrics(r *metrics.Recorder) Option {
	return func(e *Engine) { e.metrics = r }
}

// Engine runs bootstrap resampling. It holds no per-run state and may be
// shared.
type Engine struct {
	cfg      Config
	logger   logging.Logger
	progress func()
	metrics  *metrics.Recorder
}

// NewEngine validates cfg and returns an Engine.
func NewEngine(cfg Config, logger logging.Logger, opts ...Option) (*Engine, error) {
	if cfg.Policy == "" {
		cfg.Policy = PolicyPropagate
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid bootstrap config: %w", err)
	}
	e := &Engine{
		cfg:    cfg,
		logger: logging.OrDefault(logger).With("component", "bootstrap"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Config returns the engine's configuration.
func (e *Engine) Config() Config { return e.cfg }

// Run draws Config.Iterations resamples of d, estimates each with est and
// returns the percentile intervals. Iteration i resamples from a stream
// derived from (Seed, i, attempt), so the result does not depend on how
// iterations are scheduled across workers.
func (e *Engine) Run(ctx context.Context, d *dataset.Dataset, est estimator.Estimator) (*Result, error) {
	name := est.Name()
	logger := e.logger.With("estimator", name)
	start := time.Now()

	effects := make([]estimator.Effect, e.cfg.Iterations)
	var retries atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.workers())
	for i := 0; i < e.cfg.Iterations; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			effect, attempts, err := e.iterate(gctx, logger, d, est, i)
			retries.Add(int64(attempts))
			if err != nil {
				return err
			}
			effects[i] = effect
			if e.progress != nil {
				e.progress()
			}
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		e.metrics.Run(name, err)
		logger.Warn("bootstrap aborted", "error", err)
		return nil, err
	}

	res, err := summarize(name, e.cfg, effects)
	if err != nil {
		e.metrics.Run(name, err)
		return nil, err
	}
	res.Retries = int(retries.Load())
	e.metrics.Run(name, nil)
	logger.Info("bootstrap finished",
		"iterations", e.cfg.Iterations,
		"retries", res.Retries,
		"ate_ci", res.ATE.String(),
		"elapsed", time.Since(start).String())
	return res, nil
}

// iterate runs iteration i, redrawing under PolicyRetry. It returns how many
// redraws were needed.
func (e *Engine) iterate(ctx context.Context, logger logging.Logger, d *dataset.Dataset, est estimator.Estimator, i int) (estimator.Effect, int, error) {
	var lastErr error
	for attempt := 0; attempt < e.cfg.attempts(); attempt++ {
		if attempt > 0 {
			if err := ctx.Err(); err != nil {
				return estimator.Effect{}, attempt - 1, err
			}
			logger.Debug("retrying bootstrap iteration", "iteration", i, "attempt", attempt, "error", lastErr)
			e.metrics.Retry(est.Name())
		}

		r := seedrand.Derive(e.cfg.Seed, uint64(i), uint64(attempt))
		sample := d.Resample(seedrand.Indices(r, d.Len()))

		begin := time.Now()
		effect, err := est.Estimate(sample)
		if err == nil && !effect.Finite() {
			err = fmt.Errorf("%w: %v", ErrNonFinite, effect)
		}
		e.metrics.Iteration(est.Name(), err, time.Since(begin))
		if err == nil {
			return effect, attempt, nil
		}
		lastErr = &IterationError{Iteration: i, Attempt: attempt, Err: err}
	}
	if e.cfg.Policy == PolicyRetry {
		logger.Warn("bootstrap iteration failed after retries", "iteration", i, "retries", e.cfg.MaxRetries, "error", lastErr)
	}
	return estimator.Effect{}, e.cfg.attempts() - 1, lastErr
}

func summarize(name string, cfg Config, effects []estimator.Effect) (*Result, error) {
	s := Samples{
		ATE: make([]float64, len(effects)),
		ATT: make([]float64, len(effects)),
		ATC: make([]float64, len(effects)),
	}
	for i, eff := range effects {
		s.ATE[i], s.ATT[i], s.ATC[i] = eff.ATE, eff.ATT, eff.ATC
	}

	res := &Result{Estimator: name, Level: cfg.Level, Iterations: len(effects), Samples: s}
	var err error
	if res.ATE, err = PercentileInterval(s.ATE, cfg.Level); err != nil {
		return nil, fmt.Errorf("ATE interval: %w", err)
	}
	if res.ATT, err = PercentileInterval(s.ATT, cfg.Level); err != nil {
		return nil, fmt.Errorf("ATT interval: %w", err)
	}
	if res.ATC, err = PercentileInterval(s.ATC, cfg.Level); err != nil {
		return nil, fmt.Errorf("ATC interval: %w", err)
	}
	if res.StdErr.ATE, err = stats.StandardDeviationSample(s.ATE); err != nil {
		return nil, fmt.Errorf("ATE standard error: %w", err)
	}
	if res.StdErr.ATT, err = stats.StandardDeviationSample(s.ATT); err != nil {
		return nil, fmt.Errorf("ATT standard error: %w", err)
	}
	if res.StdErr.ATC, err = stats.StandardDeviationSample(s.ATC); err != nil {
		return nil, fmt.Errorf("ATC standard error: %w", err)
	}
	return res, nil
}

// PercentileInterval returns the [(100−level)/2, 100−(100−level)/2]
// percentiles of samples, interpolated linearly between closest ranks.
func PercentileInterval(samples []float64, level float64) (Interval, error) {
	if level <= 0 || level >= 100 {
		return Interval{}, fmt.Errorf("confidence level must be in (0, 100), got %v", level)
	}
	lo := (100 - level) / 2
	q, err := numeric.Percentiles(samples, lo, 100-lo)
	if err != nil {
		return Interval{}, err
	}
	return Interval{Lower: q[0], Upper: q[1]}, nil
}
