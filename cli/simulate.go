package main

import (
	"fmt"
	"io"
	"os"

	"github.com/causalest/causalest/core/dataset"
	"github.com/causalest/causalest/pkg/seedrand"
	"github.com/spf13/cobra"
)

func registerSimulate(rootCmd *cobra.Command, global *globalOptions) {
	spec := dataset.DefaultSyntheticSpec()
	var (
		out  string
		seed uint64
	)
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Writes a synthetic dataset with a known treatment effect",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, _ := runLogger(cmd.Name())
			cfg, err := global.loadConfig()
			if err != nil {
				return err
			}

			d, truth, err := dataset.Synthetic(spec, seedrand.New(seed))
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("failed to create '%s': %w", out, err)
				}
				defer f.Close()
				w = f
			}
			if err := dataset.WriteCSV(w, d, cfg.Data.Treatment, cfg.Data.Outcome); err != nil {
				return fmt.Errorf("failed to write dataset: %w", err)
			}
			logger.Info("synthetic dataset written", "file", out, "units", d.Len(), "treated", d.Treated(),
				"ate", truth.ATE, "att", truth.ATT, "atc", truth.ATC)
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&out, "out", "-", "Output CSV path (- for stdout)")
	flags.Uint64Var(&seed, "seed", 1, "Random seed")
	flags.IntVar(&spec.N, "n", spec.N, "Number of units")
	flags.IntVar(&spec.Features, "features", spec.Features, "Number of features")
	flags.Float64Var(&spec.Effect, "effect", spec.Effect, "Constant treatment effect")
	flags.Float64Var(&spec.TreatProb, "treat-prob", spec.TreatProb, "Baseline treatment probability")
	flags.Float64Var(&spec.Confounding, "confounding", spec.Confounding, "Feature weight on the treatment logit (0 = randomized)")
	flags.Float64Var(&spec.Baseline, "baseline", spec.Baseline, "Outcome intercept")
	flags.Float64Var(&spec.OutcomeWeight, "outcome-weight", spec.OutcomeWeight, "Feature weight on the outcome")
	flags.Float64Var(&spec.Noise, "noise", spec.Noise, "Outcome noise standard deviation")
	flags.BoolVar(&spec.Binary, "binary", spec.Binary, "Simulate a binary outcome")
	rootCmd.AddCommand(cmd)
}
