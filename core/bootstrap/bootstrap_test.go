package bootstrap_test

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/causalest/causalest/core/bootstrap"
	"github.com/causalest/causalest/core/dataset"
	"github.com/causalest/causalest/core/estimator"
	"github.com/causalest/causalest/core/numeric"
	"github.com/causalest/causalest/pkg/metrics"
	"github.com/causalest/causalest/pkg/seedrand"
	"github.com/causalest/causalest/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// differenceInMeans is a cheap unadjusted estimator, valid on randomized data.
var differenceInMeans = estimator.Func("difference_in_means", func(d *dataset.Dataset) (estimator.Effect, error) {
	if err := estimator.CheckGroups(d); err != nil {
		return estimator.Effect{}, err
	}
	treated, _ := numeric.MeanWhere(d.Y(), d.T(), 1)
	control, _ := numeric.MeanWhere(d.Y(), d.T(), 0)
	diff := treated - control
	return estimator.Effect{ATE: diff, ATT: diff, ATC: diff}, nil
})

func newEngine(t *testing.T, cfg bootstrap.Config, opts ...bootstrap.Option) *bootstrap.Engine {
	t.Helper()
	e, err := bootstrap.NewEngine(cfg, testutils.NewTestLogger(), opts...)
	require.NoError(t, err)
	return e
}

func smallConfig() bootstrap.Config {
	cfg := bootstrap.DefaultConfig()
	cfg.Iterations = 200
	return cfg
}

func TestRunProducesPercentileIntervals(t *testing.T) {
	d := testutils.RandomizedDataset(t)
	res, err := newEngine(t, smallConfig()).Run(context.Background(), d, differenceInMeans)
	require.NoError(t, err)

	assert.Equal(t, "difference_in_means", res.Estimator)
	assert.Equal(t, 200, res.Iterations)
	require.Len(t, res.Samples.ATE, 200)

	want, err := numeric.Percentiles(res.Samples.ATE, 2.5, 97.5)
	require.NoError(t, err)
	assert.Equal(t, want[0], res.ATE.Lower)
	assert.Equal(t, want[1], res.ATE.Upper)
	assert.True(t, res.ATE.Contains(testutils.TrueEffect))
	assert.Greater(t, res.ATE.Width(), 0.0)
	assert.Greater(t, res.StdErr.ATE, 0.0)
	assert.Zero(t, res.Retries)
}

func TestRunIsDeterministicAcrossWorkers(t *testing.T) {
	d, _ := testutils.ConfoundedDataset(t, 300, 3)
	est, err := estimator.New(estimator.KindIPW, estimator.Options{})
	require.NoError(t, err)

	cfg := smallConfig()
	cfg.Iterations = 50
	cfg.Workers = 1
	serial, err := newEngine(t, cfg).Run(context.Background(), d, est)
	require.NoError(t, err)

	cfg.Workers = 8
	parallel, err := newEngine(t, cfg).Run(context.Background(), d, est)
	require.NoError(t, err)

	assert.Equal(t, serial.Samples, parallel.Samples)
	assert.Equal(t, serial.ATE, parallel.ATE)

	cfg.Seed = 7
	reseeded, err := newEngine(t, cfg).Run(context.Background(), d, est)
	require.NoError(t, err)
	assert.NotEqual(t, serial.Samples.ATE, reseeded.Samples.ATE)
}

func TestPropagatePolicyAborts(t *testing.T) {
	boom := errors.New("boom")
	failing := estimator.Func("failing", func(*dataset.Dataset) (estimator.Effect, error) {
		return estimator.Effect{}, boom
	})

	_, err := newEngine(t, smallConfig()).Run(context.Background(), testutils.RandomizedDataset(t), failing)
	var iterErr *bootstrap.IterationError
	require.ErrorAs(t, err, &iterErr)
	assert.Zero(t, iterErr.Attempt)
	assert.ErrorIs(t, err, boom)
}

func TestRetryPolicyRedraws(t *testing.T) {
	var calls atomic.Int64
	flaky := estimator.Func("flaky", func(d *dataset.Dataset) (estimator.Effect, error) {
		if calls.Add(1) <= 3 {
			return estimator.Effect{}, errors.New("transient")
		}
		return differenceInMeans.Estimate(d)
	})

	cfg := smallConfig()
	cfg.Iterations = 20
	cfg.Workers = 1
	cfg.Policy = bootstrap.PolicyRetry
	cfg.MaxRetries = 5
	rec := metrics.New()

	res, err := newEngine(t, cfg, bootstrap.WithMetrics(rec)).Run(context.Background(), testutils.RandomizedDataset(t), flaky)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Retries)
	for _, v := range res.Samples.ATE {
		assert.False(t, math.IsNaN(v))
	}
	assert.Contains(t, gatherText(t, rec), `causalest_bootstrap_retries_total{estimator="flaky"} 3`)
}

func TestRetryPolicyGivesUp(t *testing.T) {
	failing := estimator.Func("failing", func(*dataset.Dataset) (estimator.Effect, error) {
		return estimator.Effect{}, errors.New("always")
	})

	cfg := smallConfig()
	cfg.Workers = 1
	cfg.Policy = bootstrap.PolicyRetry
	cfg.MaxRetries = 2

	_, err := newEngine(t, cfg).Run(context.Background(), testutils.RandomizedDataset(t), failing)
	var iterErr *bootstrap.IterationError
	require.ErrorAs(t, err, &iterErr)
	assert.Equal(t, 0, iterErr.Iteration)
	assert.Equal(t, 2, iterErr.Attempt)
}

func TestNonFiniteEstimateFails(t *testing.T) {
	nan := estimator.Func("nan", func(*dataset.Dataset) (estimator.Effect, error) {
		return estimator.Effect{ATE: math.NaN()}, nil
	})

	_, err := newEngine(t, smallConfig()).Run(context.Background(), testutils.RandomizedDataset(t), nan)
	assert.ErrorIs(t, err, bootstrap.ErrNonFinite)
}

func TestRunHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newEngine(t, smallConfig()).Run(ctx, testutils.RandomizedDataset(t), differenceInMeans)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProgressAndMetrics(t *testing.T) {
	var ticks atomic.Int64
	rec := metrics.New()
	cfg := smallConfig()
	cfg.Iterations = 25

	_, err := newEngine(t, cfg,
		bootstrap.WithProgress(func() { ticks.Add(1) }),
		bootstrap.WithMetrics(rec),
	).Run(context.Background(), testutils.RandomizedDataset(t), differenceInMeans)
	require.NoError(t, err)
	assert.Equal(t, int64(25), ticks.Load())

	text := gatherText(t, rec)
	assert.Contains(t, text, `causalest_bootstrap_iterations_total{estimator="difference_in_means",outcome="ok"} 25`)
	assert.Contains(t, text, `causalest_estimator_runs_total{estimator="difference_in_means",outcome="ok"} 1`)
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*bootstrap.Config)
	}{
		{"one_iteration", func(c *bootstrap.Config) { c.Iterations = 1 }},
		{"level_zero", func(c *bootstrap.Config) { c.Level = 0 }},
		{"level_hundred", func(c *bootstrap.Config) { c.Level = 100 }},
		{"negative_workers", func(c *bootstrap.Config) { c.Workers = -1 }},
		{"negative_retries", func(c *bootstrap.Config) { c.MaxRetries = -1 }},
		{"unknown_policy", func(c *bootstrap.Config) { c.Policy = "skip" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := bootstrap.DefaultConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
			_, err := bootstrap.NewEngine(cfg, nil)
			assert.Error(t, err)
		})
	}
	assert.NoError(t, bootstrap.DefaultConfig().Validate())
}

func TestPercentileInterval(t *testing.T) {
	samples := make([]float64, 101)
	for i := range samples {
		samples[i] = float64(100 - i)
	}
	iv, err := bootstrap.PercentileInterval(samples, 95)
	require.NoError(t, err)
	assert.InDelta(t, 2.5, iv.Lower, 1e-12)
	assert.InDelta(t, 97.5, iv.Upper, 1e-12)

	iv, err = bootstrap.PercentileInterval(samples, 90)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, iv.Lower, 1e-12)
	assert.InDelta(t, 95.0, iv.Upper, 1e-12)

	_, err = bootstrap.PercentileInterval(nil, 95)
	assert.ErrorIs(t, err, numeric.ErrEmptyInput)
	_, err = bootstrap.PercentileInterval(samples, 120)
	assert.Error(t, err)
}

func TestCoverage(t *testing.T) {
	if testing.Short() {
		t.Skip("coverage simulation skipped in short mode")
	}

	const datasets = 200
	spec := dataset.DefaultSyntheticSpec()
	spec.N = 200
	spec.Noise = 0.5

	cfg := bootstrap.DefaultConfig()
	cfg.Iterations = 400
	engine := newEngine(t, cfg)

	covered := 0
	for k := 0; k < datasets; k++ {
		d, truth, err := dataset.Synthetic(spec, seedrand.Derive(2024, uint64(k)))
		require.NoError(t, err)
		res, err := engine.Run(context.Background(), d, differenceInMeans)
		require.NoError(t, err)
		if res.ATE.Contains(truth.ATE) {
			covered++
		}
	}
	rate := float64(covered) / datasets
	assert.GreaterOrEqual(t, rate, 0.90)
	assert.LessOrEqual(t, rate, 0.99)
}

func gatherText(t *testing.T, rec *metrics.Recorder) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "metrics.prom")
	require.NoError(t, rec.WriteTextfile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}
