// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"leakguard/internal/config"
	"leakguard/internal/core"
	"leakguard/internal/detector"
	"leakguard/internal/diagnostics"
	"leakguard/internal/formatters"
	_ "leakguard/internal/formatters/json"
	_ "leakguard/internal/formatters/text"
	_ "leakguard/internal/formatters/yaml"
	"leakguard/internal/suppressions"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var errGateTripped = errors.New("findings at or above the fail-on severity")

func newScanCmd(global *globalOptions) *cobra.Command {
	scanCmd := &cobra.Command{
		Use:   "scan [path]",
		Short: "Scan a directory or file for secrets",
		Example: `
# Scan the current directory
leakguard scan

# Fail the build on warnings too and write JSON to a file
leakguard scan ./src --fail-on warning --format json --output findings.json

# Record every current finding as a disabled suppression rule for review
leakguard scan . --generate-suppressions`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) == 1 {
				root = args[0]
			}
			return runScan(cmd, global, root)
		},
	}

	flags := scanCmd.Flags()
	flags.StringP("format", "f", "text", "Output format: "+strings.Join(formatters.List(), ", "))
	flags.StringP("output", "o", "", "Write the report to a file instead of stdout")
	flags.IntP("threads", "t", 0, "Number of files scanned concurrently (default 4)")
	flags.Bool("strict", false, "Abort on any configuration problem instead of skipping the broken item")
	flags.Float64("entropy-threshold", config.DefaultEntropyThreshold, "Minimum Shannon entropy in bits per character")
	flags.String("fail-on", "critical", "Exit with status 1 when a finding reaches this severity: critical, warning, safe or none")
	flags.String("suppressions", "", "Path to the fingerprint suppression rules file")
	flags.String("categories", "", "Comma-separated categories to report (default: all)")
	flags.Bool("show-suppressed", false, "Include suppressed findings in the report")
	flags.Bool("generate-suppressions", false, "Add a disabled suppression rule for every finding")

	return scanCmd
}

func runScan(cmd *cobra.Command, global *globalOptions, root string) error {
	v, err := newViper(cmd)
	if err != nil {
		return fatal(err)
	}
	global.Debug = global.Debug || v.GetBool("debug")
	global.Verbose = global.Verbose || v.GetBool("verbose")
	global.NoColor = global.NoColor || v.GetBool("no-color") || os.Getenv("NO_COLOR") != ""

	observer := newObserver(cmd.ErrOrStderr(), global)
	logger := observer.Logger()

	cfg, loadErr := config.LoadConfigOrDefault(v.GetString("config"))
	applyScanOverrides(cfg, v)
	if loadErr != nil {
		loadErr = diagnostics.NewConfigurationError("config", "using default configuration", loadErr)
		if cfg.Strict {
			return fatal(loadErr)
		}
		logger.Warn().Err(loadErr).Msg("configuration not loaded")
	}

	threshold, err := core.ParseFailThreshold(v.GetString("fail-on"))
	if err != nil {
		return fatal(err)
	}

	format := strings.ToLower(v.GetString("format"))
	if _, ok := formatters.Get(format); !ok {
		return fatal(fmt.Errorf("unsupported format '%s'. Available formats: %s",
			format, strings.Join(formatters.List(), ", ")))
	}

	options := []core.Option{core.WithObserver(observer)}
	var manager *suppressions.SuppressionManager
	if v.GetBool("generate-suppressions") {
		manager = suppressions.NewSuppressionManager(cfg.SuppressionsFile)
		options = append(options, core.WithSuppressionManager(manager))
	}

	result, err := core.NewScanner(cfg, options...).Scan(cmd.Context(), root)
	if err != nil {
		return fatal(err)
	}

	if manager != nil {
		seen := append(append([]detector.Finding{}, result.Findings...), result.Suppressed...)
		added, err := manager.GenerateSuppressionRules(seen, "generated by leakguard scan", false)
		if err != nil {
			return fatal(fmt.Errorf("saving suppression rules: %w", err))
		}
		logger.Info().Int("added", added).Str("file", manager.GetConfigPath()).
			Msg("suppression rules generated, enable them after review")
	}

	outputPath := v.GetString("output")
	useColor := !global.NoColor && outputPath == "" && isTerminal(cmd.OutOrStdout())
	color.NoColor = !useColor

	report, err := formatters.Export(format, result, formatters.FormatterOptions{
		Verbose:        global.Verbose,
		NoColor:        !useColor,
		ShowSuppressed: v.GetBool("show-suppressed"),
	})
	if err != nil {
		return fatal(err)
	}
	if err := writeReport(cmd.OutOrStdout(), outputPath, report); err != nil {
		return fatal(err)
	}

	if threshold.Trips(result.Findings) {
		return &exitError{code: exitFindings, err: errGateTripped}
	}
	return nil
}

// applyScanOverrides copies explicitly set flags and environment values over cfg
func applyScanOverrides(cfg *config.Config, v *viper.Viper) {
	if v.IsSet("threads") {
		cfg.Concurrency = v.GetInt("threads")
	}
	if v.IsSet("strict") {
		cfg.Strict = v.GetBool("strict")
	}
	if v.IsSet("entropy-threshold") {
		cfg.Entropy.Threshold = v.GetFloat64("entropy-threshold")
	}
	if v.IsSet("suppressions") {
		cfg.SuppressionsFile = v.GetString("suppressions")
	}
	if v.IsSet("categories") {
		cfg.Categories = core.ParseCategories(v.GetString("categories"))
	}
}

// writeReport writes to path with owner-only permissions, or to stdout when path is empty
func writeReport(stdout io.Writer, path, report string) error {
	if path == "" {
		_, err := io.WriteString(stdout, report)
		return err
	}
	if err := os.WriteFile(path, []byte(report), 0o600); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
