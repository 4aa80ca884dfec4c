// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"sort"

	"leakguard/internal/suppressions"

	"github.com/spf13/cobra"
)

func newSuppressCmd(global *globalOptions) *cobra.Command {
	var file string

	suppressCmd := &cobra.Command{
		Use:   "suppress",
		Short: "Manage fingerprint suppression rules",
	}
	suppressCmd.PersistentFlags().StringVar(&file, "file", "", "Suppression rules file (default: the user configuration directory)")

	// manager resolves the rules file from --file, then LEAKGUARD_SUPPRESSIONS
	manager := func(cmd *cobra.Command) (*suppressions.SuppressionManager, error) {
		v, err := newViper(cmd)
		if err != nil {
			return nil, err
		}
		path := file
		if path == "" {
			path = v.GetString("suppressions")
		}
		m := suppressions.NewSuppressionManager(path)
		if err := m.LoadError(); err != nil {
			return nil, err
		}
		return m, nil
	}

	suppressCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List suppression rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := manager(cmd)
			if err != nil {
				return fatal(err)
			}
			listSuppressions(cmd.OutOrStdout(), m, global.Verbose)
			return nil
		},
	})

	suppressCmd.AddCommand(&cobra.Command{
		Use:   "remove ID",
		Short: "Remove a suppression rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := manager(cmd)
			if err != nil {
				return fatal(err)
			}
			if err := m.RemoveSuppression(args[0]); err != nil {
				return fatal(fmt.Errorf("removing suppression: %w", err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Successfully removed suppression rule: %s\n", args[0])
			return nil
		},
	})

	suppressCmd.AddCommand(&cobra.Command{
		Use:   "cleanup",
		Short: "Delete expired suppression rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := manager(cmd)
			if err != nil {
				return fatal(err)
			}
			removed, err := m.CleanupExpired()
			if err != nil {
				return fatal(fmt.Errorf("cleaning up suppressions: %w", err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleaned up %d expired suppression rules\n", removed)
			return nil
		},
	})

	var reason string
	enableCmd := &cobra.Command{
		Use:   "enable HASH",
		Short: "Enable a generated suppression rule by fingerprint",
		Long:  "Enable a generated suppression rule. HASH may be a unique prefix of at least 8 characters.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := manager(cmd)
			if err != nil {
				return fatal(err)
			}
			if err := m.EnableSuppressionByHash(args[0], reason); err != nil {
				return fatal(fmt.Errorf("enabling suppression: %w", err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Successfully enabled suppression for hash: %s\n", args[0][:8])
			return nil
		},
	}
	enableCmd.Flags().StringVar(&reason, "reason", "", "Reason recorded on the rule")
	suppressCmd.AddCommand(enableCmd)

	return suppressCmd
}

func listSuppressions(w io.Writer, manager *suppressions.SuppressionManager, verbose bool) {
	rules := manager.ListSuppressions()
	if len(rules) == 0 {
		fmt.Fprintln(w, "No suppression rules found.")
		return
	}

	fmt.Fprintf(w, "Found %d suppression rules:\n\n", len(rules))
	for _, rule := range rules {
		state := "disabled"
		if rule.Enabled {
			state = "enabled"
		}
		fmt.Fprintf(w, "ID: %s (%s)\n", rule.ID, state)
		fmt.Fprintf(w, "Hash: %s\n", rule.Hash)
		fmt.Fprintf(w, "Reason: %s\n", rule.Reason)
		if rule.CreatedBy != "" {
			fmt.Fprintf(w, "Created By: %s\n", rule.CreatedBy)
		}
		fmt.Fprintf(w, "Created At: %s\n", rule.CreatedAt.Format("2006-01-02 15:04:05"))
		if rule.ExpiresAt != nil {
			fmt.Fprintf(w, "Expires At: %s\n", rule.ExpiresAt.Format("2006-01-02 15:04:05"))
		}
		if verbose && len(rule.Metadata) > 0 {
			keys := make([]string, 0, len(rule.Metadata))
			for k := range rule.Metadata {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintln(w, "Metadata:")
			for _, k := range keys {
				fmt.Fprintf(w, "  %s: %s\n", k, rule.Metadata[k])
			}
		}
		fmt.Fprintln(w, "---")
	}
}
