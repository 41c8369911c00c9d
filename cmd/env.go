// Copyright (c) 2025 Supatodo
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"github.com/pterm/pterm"

	"supatodo/cli/internal/auth"
	"supatodo/cli/internal/backend"
	"supatodo/cli/internal/config"
	"supatodo/cli/internal/keychain"
	"supatodo/cli/internal/logging"
)

// cliEnv is what every command needs: settings, a logger and the auth stack.
type cliEnv struct {
	cfg     config.Config
	log     *pterm.Logger
	backend *backend.HTTP
	holder  *auth.Holder
	auth    *auth.Service
}

// loadEnv reads and validates the config and wires the auth service. A
// missing keychain is not fatal; the session just is not persisted.
func loadEnv() (*cliEnv, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	log := logging.New(logging.Options{Level: level, JSON: jsonLogs})

	be := backend.New(cfg.AuthURL, cfg.APIKey, "supatodo/"+Version)
	km, err := keychain.GetManager()
	if err != nil {
		log.Warn("keychain unavailable, session will not be saved", log.Args("error", err.Error()))
		km = nil
	}
	holder := auth.NewHolder()
	return &cliEnv{
		cfg:     cfg,
		log:     log,
		backend: be,
		holder:  holder,
		auth:    auth.NewService(be, km, holder, log),
	}, nil
}
