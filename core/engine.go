package core

import (
	"context"
	"fmt"

	"github.com/causalest/causalest/core/bootstrap"
	"github.com/causalest/causalest/core/config"
	"github.com/causalest/causalest/core/dataset"
	"github.com/causalest/causalest/core/estimator"
	"github.com/causalest/causalest/core/model"
	"github.com/causalest/causalest/core/ranker"
	"github.com/causalest/causalest/pkg/logging"
	"github.com/causalest/causalest/pkg/metrics"
)

// Option customises an Engine.
type Option func(*Engine)

// WithMetrics records estimation and bootstrap counters in r.
func WithMetrics(r *metrics.Recorder) Option {
	return func(e *Engine) { e.metrics = r }
}

// WithProgress is called after every successful bootstrap iteration of every
// estimator, possibly from several goroutines at once.
func WithProgress(fn func()) Option {
	return func(e *Engine) { e.progress = fn }
}

// Engine is the main controller for an estimation run. It turns a validated
// configuration into estimators, a bootstrap engine and a ranker.
type Engine struct {
	config   *config.Config
	ranker   *ranker.Ranker
	options  estimator.Options
	metrics  *metrics.Recorder
	progress func()
	logger   logging.Logger
}

// NewEngine creates a new core engine from cfg.
func NewEngine(cfg *config.Config, logger logging.Logger, opts ...Option) (*Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("engine must be initialized with a configuration")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.GetLogger()
	}
	e := &Engine{
		config: cfg,
		logger: logger.With("component", "engine"),
	}
	for _, opt := range opts {
		opt(e)
	}

	options, err := EstimatorOptions(cfg, logger)
	if err != nil {
		return nil, err
	}
	e.options = options

	var b ranker.Bootstrapper
	if cfg.Bootstrap.Enabled {
		bcfg, err := BootstrapConfig(cfg)
		if err != nil {
			return nil, err
		}
		bopts := []bootstrap.Option{bootstrap.WithMetrics(e.metrics)}
		if e.progress != nil {
			bopts = append(bopts, bootstrap.WithProgress(e.progress))
		}
		engine, err := bootstrap.NewEngine(bcfg, logger, bopts...)
		if err != nil {
			return nil, err
		}
		b = engine
	}
	e.ranker = ranker.NewRanker(b, logger)
	e.ranker.Metrics = e.metrics
	return e, nil
}

// EstimatorOptions maps the model and strategy sections of cfg to
// estimator.Options.
func EstimatorOptions(cfg *config.Config, logger logging.Logger) (estimator.Options, error) {
	propensityKind, err := model.ParseKind(cfg.Propensity.Kind)
	if err != nil {
		return estimator.Options{}, fmt.Errorf("propensity model: %w", err)
	}
	propensity, err := model.NewFactory(propensityKind, modelOptions(cfg.Propensity))
	if err != nil {
		return estimator.Options{}, fmt.Errorf("propensity model: %w", err)
	}
	policy, err := estimator.ParseStratumPolicy(cfg.Stratification.Policy)
	if err != nil {
		return estimator.Options{}, err
	}

	opts := estimator.Options{
		Propensity: propensity,
		Epsilon:    cfg.Epsilon,
		Strata:     cfg.Stratification.Strata,
		Policy:     policy,
		Caliper:    cfg.Matching.Caliper,
		Logger:     logger,
	}
	// auto is resolved per dataset by the estimators themselves.
	if cfg.Outcome.Kind != string(model.KindAuto) {
		outcomeKind, err := model.ParseKind(cfg.Outcome.Kind)
		if err != nil {
			return estimator.Options{}, fmt.Errorf("outcome model: %w", err)
		}
		if opts.Outcome, err = model.NewFactory(outcomeKind, modelOptions(cfg.Outcome)); err != nil {
			return estimator.Options{}, fmt.Errorf("outcome model: %w", err)
		}
	}
	return opts, nil
}

// BootstrapConfig maps the bootstrap section of cfg to bootstrap.Config.
func BootstrapConfig(cfg *config.Config) (bootstrap.Config, error) {
	policy, err := bootstrap.ParseFailurePolicy(cfg.Bootstrap.FailurePolicy)
	if err != nil {
		return bootstrap.Config{}, err
	}
	return bootstrap.Config{
		Iterations: cfg.Bootstrap.Iterations,
		Level:      cfg.Bootstrap.CILevel,
		Seed:       cfg.Bootstrap.Seed,
		Workers:    cfg.Bootstrap.Workers,
		Policy:     policy,
		MaxRetries: cfg.Bootstrap.MaxRetries,
	}, nil
}

func modelOptions(m config.ModelConfig) model.Options {
	return model.Options{L2: m.L2, Ridge: m.Ridge, MaxIter: m.MaxIter, Tol: m.Tol}
}

// Estimators returns the configured estimator names.
func (e *Engine) Estimators() []string {
	return append([]string(nil), e.config.Estimators...)
}

func (e *Engine) build(name string) (estimator.Estimator, error) {
	kind, err := estimator.ParseKind(name)
	if err != nil {
		return nil, err
	}
	return estimator.New(kind, e.options)
}

// Estimate runs a single estimator, configured or not, and its bootstrap.
// The returned error covers unknown estimator names only; estimation failures
// are carried in the report.
func (e *Engine) Estimate(ctx context.Context, d *dataset.Dataset, name string) (ranker.Report, error) {
	est, err := e.build(name)
	if err != nil {
		return ranker.Report{}, err
	}
	e.logger.Info("estimating", "estimator", name, "units", d.Len(), "treated", d.Treated())
	return e.ranker.Evaluate(ctx, d, est), nil
}

// Compare runs every configured estimator and returns the ranked reports.
func (e *Engine) Compare(ctx context.Context, d *dataset.Dataset) ([]ranker.Report, error) {
	ests := make([]estimator.Estimator, 0, len(e.config.Estimators))
	for _, name := range e.config.Estimators {
		est, err := e.build(name)
		if err != nil {
			return nil, err
		}
		ests = append(ests, est)
	}
	e.logger.Info("comparing estimators", "estimators", len(ests), "units", d.Len(), "treated", d.Treated())
	return e.ranker.Compare(ctx, d, ests), nil
}
