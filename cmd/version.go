// Copyright (c) 2025 Supatodo
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	// Version holds the CLI version information.
	// This value is typically set at build time using -ldflags.
	Version = "0.0.0-dev"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show CLI and auth server version",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printVersion(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// printVersion prints the CLI version and, when reachable, the GoTrue version.
func printVersion(ctx context.Context) error {
	env, err := loadEnv()
	if err != nil {
		fmt.Printf("supatodo %s\n", Version)
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	serverVersion, err := env.backend.Health(ctx)
	if err != nil {
		serverVersion = "unreachable"
	}
	fmt.Printf("supatodo %s\ngotrue %s\n", Version, serverVersion)
	return nil
}
