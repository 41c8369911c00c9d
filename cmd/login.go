// Copyright (c) 2025 Supatodo
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"supatodo/cli/internal/auth"
	apperrors "supatodo/cli/internal/errors"
	"supatodo/cli/internal/httperrors"
	"supatodo/cli/internal/terminal"
)

var loginEmail string

// loginCmd signs in with email and password and stores the session.
var loginCmd = &cobra.Command{
	Use:     "login",
	Aliases: []string{"auth"},
	Short:   "Sign in with email and password",
	Long: `The login command signs in to the project's GoTrue server with the password
grant and stores the session in the OS keychain, so later runs start signed in.

The email comes from --email, SUPATODO_EMAIL or a prompt. The password comes
from SUPATODO_PASSWORD or a hidden prompt.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := loadEnv()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		if sess, ok, _ := env.auth.Restore(); ok && !sess.Expired() {
			fmt.Printf("Already logged in as %s\n", displayName(sess))
			return nil
		}

		creds, err := promptCredentials(env.cfg.Email, env.cfg.Password)
		if err != nil {
			return err
		}

		stop := startSpinner(os.Stdout, "Signing in")
		sess, err := env.auth.SignIn(ctx, creds)
		stop()
		if err != nil {
			if apperrors.IsKind(err, apperrors.TransportFailed) {
				return httperrors.FormatNetworkError(err, "signing in", env.cfg.AuthURL)
			}
			return err
		}
		pterm.Success.Printf("Logged in as %s\n", displayName(sess))
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Account email")
	rootCmd.AddCommand(loginCmd)
}

func promptCredentials(email, password string) (auth.Credentials, error) {
	if loginEmail != "" {
		email = loginEmail
	}
	if email == "" {
		prompt := "Email: "
		v, err := terminal.ReadLine(os.Stdin, prompt)
		if err != nil {
			return auth.Credentials{}, err
		}
		email = v
	}
	if password == "" {
		prompt := "Password: "
		v, err := terminal.ReadPassword(prompt)
		if errors.Is(err, terminal.ErrNotTerminal) {
			return auth.Credentials{}, errors.New("no terminal for the password prompt; set SUPATODO_PASSWORD")
		}
		if err != nil {
			return auth.Credentials{}, err
		}
		terminal.ClearPreviousLines(os.Stdout, len(prompt))
		password = v
	}
	return auth.Credentials{ID: email, Password: password}, nil
}

func displayName(s auth.Session) string {
	if s.User.Email != "" {
		return s.User.Email
	}
	if s.User.ID != "" {
		return s.User.ID
	}
	return "user"
}
