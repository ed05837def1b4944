package interfaces

import (
	"context"

	"github.com/causalest/causalest/core/dataset"
	"github.com/causalest/causalest/core/ranker"
)

// Analyzer defines the public interface for causal effect estimation.
type Analyzer interface {
	// Estimators returns the names of the configured estimators.
	Estimators() []string
	// Estimate runs one estimator, with bootstrap intervals when enabled.
	Estimate(ctx context.Context, d *dataset.Dataset, estimator string) (ranker.Report, error)
	// Compare runs every configured estimator and ranks the results.
	Compare(ctx context.Context, d *dataset.Dataset) ([]ranker.Report, error)
}
