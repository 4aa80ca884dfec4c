// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"io"
	"os"
	"strings"
	"time"

	"leakguard/internal/observability"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

// envPrefix namespaces environment overrides, e.g. LEAKGUARD_FAIL_ON=warning
const envPrefix = "LEAKGUARD"

type globalOptions struct {
	ConfigFile string
	Verbose    bool
	Debug      bool
	NoColor    bool
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "leakguard",
		Short: "Scan source trees for leaked secrets",
		Long: `leakguard walks a directory tree and reports hard-coded credentials.

Files pass through a prioritized filter pipeline, then every remaining line is
checked by pattern rules and an entropy detector. Surrounding context adjusts
each candidate's confidence before overlapping matches are merged into findings.`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "Path to a YAML configuration file")
	rootCmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show detailed findings and diagnostics")
	rootCmd.PersistentFlags().BoolVar(&opts.Debug, "debug", false, "Log per-file processing at debug level")
	rootCmd.PersistentFlags().BoolVar(&opts.NoColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(newScanCmd(opts))
	rootCmd.AddCommand(newSuppressCmd(opts))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// newViper binds the command's flags and LEAKGUARD_* environment variables.
// Flags win over the environment; neither is consulted unless set.
func newViper(cmd *cobra.Command) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, err
	}
	return v, nil
}

// newObserver logs to w in zerolog's console format
func newObserver(w io.Writer, opts *globalOptions) *observability.StandardObserver {
	level := observability.ObservabilityMetrics
	if opts.Debug {
		level = observability.ObservabilityDebug
	}
	output := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: opts.NoColor || !isTerminal(w)}
	return observability.NewObserverWithLogger(level, zerolog.New(output).With().Timestamp().Logger())
}

// isTerminal reports whether w is an interactive terminal
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
