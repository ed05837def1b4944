package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/causalest/causalest/core"
	"github.com/causalest/causalest/core/config"
	"github.com/causalest/causalest/core/dataset"
	"github.com/causalest/causalest/pkg/logging"
	"github.com/causalest/causalest/pkg/metrics"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

// runOptions holds the flags shared by estimate and compare.
type runOptions struct {
	DataFile    string
	Treatment   string
	Outcome     string
	Iterations  int
	Seed        uint64
	Workers     int
	NoBootstrap bool
	NoProgress  bool
	MetricsOut  string
}

func (o *runOptions) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&o.DataFile, "data", "", "Path to the prepared CSV dataset (- for stdin)")
	flags.StringVar(&o.Treatment, "treatment", "", "Treatment column (overrides data.treatment)")
	flags.StringVar(&o.Outcome, "outcome", "", "Outcome column (overrides data.outcome)")
	flags.IntVar(&o.Iterations, "iterations", 0, "Bootstrap iterations (overrides bootstrap.iterations)")
	flags.Uint64Var(&o.Seed, "seed", 0, "Bootstrap seed (overrides bootstrap.seed)")
	flags.IntVar(&o.Workers, "workers", 0, "Bootstrap workers (overrides bootstrap.workers)")
	flags.BoolVar(&o.NoBootstrap, "no-bootstrap", false, "Only compute point estimates")
	flags.BoolVar(&o.NoProgress, "no-progress", false, "Hide the bootstrap progress bar")
	flags.StringVar(&o.MetricsOut, "metrics-out", "", "Write bootstrap metrics in Prometheus text format to this file")
	_ = cmd.MarkFlagRequired("data")
}

// apply overlays the flags the user set on cfg and revalidates it.
func (o *runOptions) apply(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("treatment") {
		cfg.Data.Treatment = o.Treatment
	}
	if flags.Changed("outcome") {
		cfg.Data.Outcome = o.Outcome
	}
	if flags.Changed("iterations") {
		cfg.Bootstrap.Iterations = o.Iterations
	}
	if flags.Changed("seed") {
		cfg.Bootstrap.Seed = o.Seed
	}
	if flags.Changed("workers") {
		cfg.Bootstrap.Workers = o.Workers
	}
	if o.NoBootstrap {
		cfg.Bootstrap.Enabled = false
	}
	return cfg.Validate()
}

func readDataset(path string, cfg *config.Config) (*dataset.Dataset, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open dataset '%s': %w", path, err)
		}
		defer f.Close()
		r = f
	}
	d, err := dataset.ReadCSV(r, cfg.Data.Treatment, cfg.Data.Outcome)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset '%s': %w", path, err)
	}
	return d, nil
}

// session is one estimate or compare invocation: the engine plus the
// progress bar and metrics it reports into.
type session struct {
	engine  *core.Engine
	cfg     *config.Config
	data    *dataset.Dataset
	bar     *progressbar.ProgressBar
	metrics *metrics.Recorder
	logger  logging.Logger
	out     string
}

// newSession loads config and data and builds the engine. estimators is the
// number of bootstrap runs the progress bar should expect.
func newSession(cmd *cobra.Command, global *globalOptions, opts *runOptions, estimators func(*config.Config) int) (*session, error) {
	logger, runID := runLogger(cmd.Name())

	cfg, err := global.loadConfig()
	if err != nil {
		return nil, err
	}
	if err := opts.apply(cmd, cfg); err != nil {
		return nil, err
	}
	d, err := readDataset(opts.DataFile, cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("dataset loaded", "file", opts.DataFile, "units", d.Len(), "features", d.Features(),
		"treated", d.Treated(), "control", d.Control())

	s := &session{cfg: cfg, data: d, logger: logger, out: opts.MetricsOut}
	var engineOpts []core.Option
	if opts.MetricsOut != "" {
		s.metrics = metrics.New()
		engineOpts = append(engineOpts, core.WithMetrics(s.metrics))
	}
	if cfg.Bootstrap.Enabled && !opts.NoProgress {
		s.bar = newProgressBar(cmd.ErrOrStderr(), int64(cfg.Bootstrap.Iterations*estimators(cfg)))
		engineOpts = append(engineOpts, core.WithProgress(func() { _ = s.bar.Add(1) }))
	}

	s.engine, err = core.NewEngine(cfg, logger, engineOpts...)
	if err != nil {
		return nil, err
	}
	logger.Debug("engine ready", "run_id", runID, "bootstrap", cfg.Bootstrap.Enabled,
		"iterations", cfg.Bootstrap.Iterations)
	return s, nil
}

// finish stops the progress bar and writes the metrics file, if any.
func (s *session) finish() error {
	if s.bar != nil {
		_ = s.bar.Finish()
	}
	if s.metrics == nil {
		return nil
	}
	if err := s.metrics.WriteTextfile(s.out); err != nil {
		return fmt.Errorf("failed to write metrics to '%s': %w", s.out, err)
	}
	s.logger.Info("metrics written", "file", s.out)
	return nil
}

func newProgressBar(w io.Writer, total int64) *progressbar.ProgressBar {
	return progressbar.NewOptions64(
		total,
		progressbar.OptionSetDescription("bootstrap"),
		progressbar.OptionShowDescriptionAtLineEnd(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(w, "\n")
		}),
		progressbar.OptionSetWriter(w),
	)
}
