package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/causalest/causalest/pkg/linter/mathrandom"
	"github.com/spf13/cobra"
)

// errIssuesFound makes the process exit non-zero without printing twice.
var errIssuesFound = errors.New("unseeded randomness found")

type options struct {
	RootDir        string
	OutputFormat   string
	ExemptFile     string
	StrictMode     bool
	SilentMode     bool
	ConfigFile     string
	ExitWithCode   bool
	PrintExemption bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errIssuesFound) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:           "mathrandom-linter",
		Short:         "Reports random draws that bypass an explicitly seeded source",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.OutOrStdout(), opts)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&opts.RootDir, "dir", ".", "Root directory to scan")
	flags.StringVar(&opts.OutputFormat, "format", "text", "Output format (text, json)")
	flags.StringVar(&opts.ExemptFile, "exempt-file", "", "Path to a JSON file containing exemptions")
	flags.BoolVar(&opts.StrictMode, "strict", false, "Enforce exemption expiry dates")
	flags.BoolVar(&opts.SilentMode, "silent", false, "Only output if issues are found")
	flags.StringVar(&opts.ConfigFile, "config", "", "Path to configuration file")
	flags.BoolVar(&opts.ExitWithCode, "exit-code", true, "Exit with non-zero code if issues found")
	flags.BoolVar(&opts.PrintExemption, "print-exemption-template", false, "Print a template for exemption file and exit")
	return cmd
}

func run(out io.Writer, opts *options) error {
	if opts.PrintExemption {
		return printExemptionTemplate(out)
	}

	config := mathrandom.NewDefaultConfig()
	if opts.ConfigFile != "" {
		if err := loadJSON(opts.ConfigFile, config); err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
	}
	if opts.ExemptFile != "" {
		var exemptions []mathrandom.ExemptFile
		if err := loadJSON(opts.ExemptFile, &exemptions); err != nil {
			return fmt.Errorf("loading exemptions: %w", err)
		}
		config.ExemptFiles = exemptions
	}
	config.StrictMode = opts.StrictMode

	absRootDir, err := filepath.Abs(opts.RootDir)
	if err != nil {
		return fmt.Errorf("resolving path: %w", err)
	}
	if !opts.SilentMode {
		fmt.Fprintf(out, "Scanning directory: %s\n", absRootDir)
	}

	issues, err := mathrandom.LintProject(absRootDir, config)
	if err != nil {
		return err
	}
	if len(issues) == 0 {
		if !opts.SilentMode {
			fmt.Fprintln(out, "No issues found.")
		}
		return nil
	}

	if opts.OutputFormat == "json" {
		err = outputJSON(out, issues)
	} else {
		outputText(out, absRootDir, issues)
	}
	if err != nil {
		return err
	}
	if opts.ExitWithCode {
		return errIssuesFound
	}
	return nil
}

func outputText(out io.Writer, rootDir string, issues []mathrandom.Issue) {
	fmt.Fprintf(out, "Found %d issues:\n\n", len(issues))
	for i, issue := range issues {
		relativePath, err := filepath.Rel(rootDir, issue.File)
		if err != nil {
			relativePath = issue.File
		}
		fmt.Fprintf(out, "%d) %s:%d:%d: %s\n", i+1, relativePath, issue.Line, issue.Column, issue.Message)
	}
	fmt.Fprintln(out, "\nBootstrap and simulation results must be reproducible from a seed.")
	fmt.Fprintln(out, "Draw from a *rand.Rand created with pkg/seedrand.New or seedrand.Derive.")
}

func outputJSON(out io.Writer, issues []mathrandom.Issue) error {
	type jsonOutput struct {
		Issues []mathrandom.Issue `json:"issues"`
		Total  int                `json:"total_issues"`
		Text   string             `json:"summary"`
	}
	jsonData, err := json.MarshalIndent(jsonOutput{
		Issues: issues,
		Total:  len(issues),
		Text:   "Unseeded random number generation detected. Use pkg/seedrand.",
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling to JSON: %w", err)
	}
	fmt.Fprintln(out, string(jsonData))
	return nil
}

func loadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func printExemptionTemplate(out io.Writer) error {
	exemptions := []mathrandom.ExemptFile{
		{
			Path:   "path/to/file.go",
			Reason: "Reason for exemption",
		},
		{
			Path:       "some/other/path/file.go",
			Reason:     "Another reason for exemption",
			ExpiryDate: "2026-12-31",
		},
	}
	jsonData, err := json.MarshalIndent(exemptions, "", "  ")
	if err != nil {
		return fmt.Errorf("creating template: %w", err)
	}
	fmt.Fprintln(out, string(jsonData))
	return nil
}
