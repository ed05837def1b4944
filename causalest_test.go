package causalest_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/causalest/causalest"
	"github.com/causalest/causalest/core/config"
	"github.com/causalest/causalest/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzerDefaults(t *testing.T) {
	a, err := causalest.NewAnalyzer(nil)
	require.NoError(t, err)
	assert.Equal(t, config.Default().Estimators, a.Estimators())
}

func TestAnalyzerFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "causalest.yaml")
	yaml := `
estimators: [ipw, t_learner]
bootstrap:
  iterations: 30
  seed: 7
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	a, err := causalest.NewAnalyzerFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"ipw", "t_learner"}, a.Estimators())

	reports, err := a.Compare(context.Background(), testutils.RandomizedDataset(t))
	require.NoError(t, err)
	require.Len(t, reports, 2)
	for _, rep := range reports {
		require.True(t, rep.Success(), "%s: %v", rep.Estimator, rep.Err)
		require.NotNil(t, rep.Bootstrap)
		assert.True(t, rep.Bootstrap.ATE.Contains(rep.Effect.ATE), rep.Estimator)
	}

	_, err = causalest.NewAnalyzerFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
