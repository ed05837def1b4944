package main

import (
	"github.com/causalest/causalest/core/config"
	"github.com/causalest/causalest/pkg/logging"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"
)

// globalOptions holds the flags shared by every subcommand.
type globalOptions struct {
	LogLevel   string
	LogFormat  string
	ConfigFile string

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}
	rootCmd := &cobra.Command{
		Use:           "causalest",
		Short:         "Estimate treatment effects from observational data",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			// Flags win over the logging section of the file.
			flags := cmd.Flags()
			if !flags.Changed("log-level") {
				opts.LogLevel = cfg.Logging.Level
			}
			if !flags.Changed("log-format") {
				opts.LogFormat = cfg.Logging.Format
			}
			// Results go to stdout, logs to stderr.
			logging.InitLogger(opts.LogLevel, opts.LogFormat, zapcore.Lock(zapcore.AddSync(cmd.ErrOrStderr())))
			return nil
		},
	}
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.LogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flags.StringVar(&opts.LogFormat, "log-format", "console", "Log format (console, json)")
	flags.StringVar(&opts.ConfigFile, "config", "", "Path to a YAML configuration file")

	registerEstimate(rootCmd, opts)
	registerCompare(rootCmd, opts)
	registerSimulate(rootCmd, opts)
	return rootCmd
}

// loadConfig returns the configuration file named by --config, or the
// defaults when none is given. The file is read once per invocation.
func (o *globalOptions) loadConfig() (*config.Config, error) {
	if o.cfg != nil {
		return o.cfg, nil
	}
	if o.ConfigFile == "" {
		o.cfg = config.Default()
		return o.cfg, nil
	}
	cfg, err := config.LoadConfig(o.ConfigFile)
	if err != nil {
		return nil, err
	}
	o.cfg = cfg
	return cfg, nil
}

// runLogger tags every entry of one invocation with a fresh run id.
func runLogger(command string) (logging.Logger, string) {
	runID := uuid.NewString()
	return logging.GetLogger().With("run_id", runID, "command", command), runID
}
