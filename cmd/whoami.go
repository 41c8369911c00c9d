// Copyright (c) 2025 Supatodo
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	apperrors "supatodo/cli/internal/errors"
	"supatodo/cli/internal/httperrors"
)

// whoamiCmd shows the account behind the saved session.
var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show current authenticated account",
	Long: `The whoami command restores the saved session, refreshes it when it has expired,
and asks GoTrue which user owns it.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := loadEnv()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		if _, ok, _ := env.auth.Restore(); !ok {
			notLoggedIn()
			return nil
		}
		if err := env.auth.EnsureFresh(ctx); err != nil {
			notLoggedIn()
			return nil
		}
		u, err := env.auth.User(ctx)
		if err != nil {
			if apperrors.IsKind(err, apperrors.AuthFailed) {
				notLoggedIn()
				return nil
			}
			return httperrors.FormatNetworkError(err, "looking up the user", env.cfg.AuthURL)
		}
		fmt.Printf("👤 Current user: %s\n", u.Email)
		fmt.Printf("   id: %s\n", u.ID)
		if u.Role != "" {
			fmt.Printf("   role: %s\n", u.Role)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}

func notLoggedIn() {
	fmt.Println("🔒 You're not logged in yet!")
	fmt.Println("   Run 'supatodo login' to get started.")
}
