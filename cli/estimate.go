package main

import (
	"fmt"

	"github.com/causalest/causalest/core/config"
	"github.com/causalest/causalest/core/estimator"
	"github.com/spf13/cobra"
)

func registerEstimate(rootCmd *cobra.Command, global *globalOptions) {
	opts := &runOptions{}
	var name string
	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Estimates ATE, ATT and ATC with one estimator",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := estimator.ParseKind(name); err != nil {
				return err
			}
			s, err := newSession(cmd, global, opts, func(*config.Config) int { return 1 })
			if err != nil {
				return err
			}
			rep, err := s.engine.Estimate(cmd.Context(), s.data, name)
			if ferr := s.finish(); ferr != nil && err == nil {
				err = ferr
			}
			if err != nil {
				return err
			}
			if !rep.Success() {
				return fmt.Errorf("estimator %s failed: %w", rep.Estimator, rep.Err)
			}
			s.logger.Info("estimate finished", "estimator", rep.Estimator, "elapsed", rep.Elapsed)
			return writeReport(cmd.OutOrStdout(), rep)
		},
	}
	cmd.Flags().StringVar(&name, "estimator", string(estimator.KindIPW),
		fmt.Sprintf("Estimator to run %v", estimator.Kinds()))
	opts.register(cmd)
	rootCmd.AddCommand(cmd)
}
