package core

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/causalest/causalest/core/config"
	"github.com/causalest/causalest/core/estimator"
	"github.com/causalest/causalest/pkg/metrics"
	"github.com/causalest/causalest/testutils"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smallConfig() *config.Config {
	cfg := config.Default()
	cfg.Bootstrap.Iterations = 20
	cfg.Bootstrap.Workers = 2
	return cfg
}

func TestNewEngine(t *testing.T) {
	logger := testutils.NewTestLogger()

	_, err := NewEngine(nil, logger)
	assert.Error(t, err)

	bad := smallConfig()
	bad.Bootstrap.Iterations = 1
	_, err = NewEngine(bad, logger)
	assert.ErrorContains(t, err, "bootstrap.iterations")

	e, err := NewEngine(smallConfig(), logger)
	require.NoError(t, err)
	assert.Equal(t, config.Default().Estimators, e.Estimators())
}

func TestEngine_Estimate(t *testing.T) {
	d := testutils.RandomizedDataset(t)
	var ticks atomic.Int64
	rec := metrics.New()

	e, err := NewEngine(smallConfig(), testutils.NewTestLogger(),
		WithMetrics(rec), WithProgress(func() { ticks.Add(1) }))
	require.NoError(t, err)

	rep, err := e.Estimate(context.Background(), d, string(estimator.KindIPW))
	require.NoError(t, err)
	require.True(t, rep.Success(), "report error: %v", rep.Err)
	assert.InDelta(t, testutils.TrueEffect, rep.Effect.ATE, 0.05)
	require.NotNil(t, rep.Bootstrap)
	assert.Equal(t, 20, rep.Bootstrap.Iterations)
	assert.Equal(t, int64(20), ticks.Load())
	n, err := testutil.GatherAndCount(rec.Registry(),
		"causalest_estimator_runs_total", "causalest_bootstrap_iterations_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// Matching is not in the default list but can still be run explicitly.
	rep, err = e.Estimate(context.Background(), d, string(estimator.KindMatching))
	require.NoError(t, err)
	assert.True(t, rep.Success(), "report error: %v", rep.Err)

	_, err = e.Estimate(context.Background(), d, "regression_discontinuity")
	assert.Error(t, err)
}

func TestEngine_CompareWithoutBootstrap(t *testing.T) {
	cfg := smallConfig()
	cfg.Bootstrap.Enabled = false
	e, err := NewEngine(cfg, testutils.NewTestLogger())
	require.NoError(t, err)

	reports, err := e.Compare(context.Background(), testutils.RandomizedDataset(t))
	require.NoError(t, err)
	require.Len(t, reports, len(cfg.Estimators))
	for _, rep := range reports {
		assert.True(t, rep.Success(), "%s: %v", rep.Estimator, rep.Err)
		assert.Nil(t, rep.Bootstrap, rep.Estimator)
		assert.InDelta(t, testutils.TrueEffect, rep.Effect.ATE, 0.05, rep.Estimator)
	}
}

func TestEngine_CompareSingleArm(t *testing.T) {
	e, err := NewEngine(smallConfig(), testutils.NewTestLogger())
	require.NoError(t, err)

	reports, err := e.Compare(context.Background(), testutils.SingleArmDataset(t))
	require.NoError(t, err)
	for _, rep := range reports {
		var degenerate *estimator.DegenerateGroupError
		assert.ErrorAs(t, rep.Err, &degenerate, rep.Estimator)
	}
}

func TestEstimatorOptions(t *testing.T) {
	cfg := config.Default()
	opts, err := EstimatorOptions(cfg, nil)
	require.NoError(t, err)
	assert.NotNil(t, opts.Propensity)
	assert.Nil(t, opts.Outcome, "auto outcome is resolved per dataset")
	assert.Equal(t, estimator.StratumExclude, opts.Policy)

	cfg.Outcome.Kind = "linear"
	opts, err = EstimatorOptions(cfg, nil)
	require.NoError(t, err)
	assert.NotNil(t, opts.Outcome)

	cfg.Propensity.Kind = "forest"
	_, err = EstimatorOptions(cfg, nil)
	assert.ErrorContains(t, err, "propensity model")
}

func TestBootstrapConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Bootstrap.FailurePolicy = "retry"
	bcfg, err := BootstrapConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, cfg.Bootstrap.Iterations, bcfg.Iterations)
	assert.Equal(t, cfg.Bootstrap.CILevel, bcfg.Level)
	assert.Equal(t, cfg.Bootstrap.Seed, bcfg.Seed)
	assert.Equal(t, cfg.Bootstrap.MaxRetries, bcfg.MaxRetries)
	assert.NoError(t, bcfg.Validate())

	cfg.Bootstrap.FailurePolicy = "ignore"
	_, err = BootstrapConfig(cfg)
	assert.Error(t, err)
}
