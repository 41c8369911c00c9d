// Copyright (c) 2025 Supatodo
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package cmd provides the command-line interface for supatodo. The run
// command drives the todos loop against PostgREST; login, logout and whoami
// manage the GoTrue session kept in the OS keychain.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"supatodo/cli/internal/logging"
)

var (
	showVersion bool
	verbose     bool
	jsonLogs    bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:           "supatodo",
	Short:         "Read and write Supabase todos on a schedule",
	Long:          `supatodo signs in to a Supabase project and keeps listing and inserting rows of the todos table, printing every task and every failure as it comes back.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVersion {
			return printVersion(cmd.Context())
		}
		return cmd.Help()
	},
}

// Execute runs the CLI application.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, logging.PresentError("supatodo", err))
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "Show CLI and auth server version information")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "Write logs as JSON")
}
