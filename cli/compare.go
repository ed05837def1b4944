package main

import (
	"errors"

	"github.com/causalest/causalest/core/config"
	"github.com/spf13/cobra"
)

func registerCompare(rootCmd *cobra.Command, global *globalOptions) {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Runs every configured estimator and ranks them by interval width",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd, global, opts, func(cfg *config.Config) int { return len(cfg.Estimators) })
			if err != nil {
				return err
			}
			reports, err := s.engine.Compare(cmd.Context(), s.data)
			if ferr := s.finish(); ferr != nil && err == nil {
				err = ferr
			}
			if err != nil {
				return err
			}
			if err := writeRanking(cmd.OutOrStdout(), reports); err != nil {
				return err
			}
			var failed int
			for _, rep := range reports {
				if !rep.Success() {
					failed++
					s.logger.Warn("estimator failed", "estimator", rep.Estimator, "error", rep.Err)
				}
			}
			if failed == len(reports) {
				return errors.New("every estimator failed")
			}
			return nil
		},
	}
	opts.register(cmd)
	rootCmd.AddCommand(cmd)
}
