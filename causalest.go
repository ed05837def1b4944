package causalest

import (
	"context"

	"github.com/causalest/causalest/core"
	"github.com/causalest/causalest/core/config"
	"github.com/causalest/causalest/core/dataset"
	"github.com/causalest/causalest/core/ranker"
	"github.com/causalest/causalest/interfaces"
	"github.com/causalest/causalest/pkg/logging"
)

var _ interfaces.Analyzer = (*Analyzer)(nil)

// Analyzer estimates treatment effects from observational data.
type Analyzer struct {
	coreEngine *core.Engine
}

// NewAnalyzer creates an Analyzer from cfg. A nil cfg selects the defaults.
func NewAnalyzer(cfg *config.Config, opts ...core.Option) (interfaces.Analyzer, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	coreEngine, err := core.NewEngine(cfg, logging.GetLogger(), opts...)
	if err != nil {
		return nil, err
	}
	return &Analyzer{coreEngine: coreEngine}, nil
}

// NewAnalyzerFromFile loads a YAML configuration and creates an Analyzer.
func NewAnalyzerFromFile(path string, opts ...core.Option) (interfaces.Analyzer, error) {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return NewAnalyzer(cfg, opts...)
}

// Estimators returns the names of the configured estimators.
func (a *Analyzer) Estimators() []string {
	return a.coreEngine.Estimators()
}

// Estimate runs one estimator on d.
func (a *Analyzer) Estimate(ctx context.Context, d *dataset.Dataset, estimator string) (ranker.Report, error) {
	return a.coreEngine.Estimate(ctx, d, estimator)
}

// Compare runs every configured estimator on d and ranks the results.
func (a *Analyzer) Compare(ctx context.Context, d *dataset.Dataset) ([]ranker.Report, error) {
	return a.coreEngine.Compare(ctx, d)
}
