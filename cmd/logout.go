// Copyright (c) 2025 Supatodo
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// logoutCmd revokes the session (best effort) and clears the keychain.
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and remove the saved session",
	Long: `The logout command asks GoTrue to revoke the current session and then removes
the access token, refresh token and session record from the OS keychain. Local
state is cleared even when the server cannot be reached.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := loadEnv()
		if err != nil {
			return err
		}
		if _, ok, err := env.auth.Restore(); err != nil {
			env.log.Debug("could not read saved session", env.log.Args("error", err.Error()))
		} else if !ok {
			pterm.Info.Println("No saved session")
			return nil
		}
		if err := env.auth.Logout(cmd.Context()); err != nil {
			return err
		}
		pterm.Success.Println("Session removed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}
