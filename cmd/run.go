// Copyright (c) 2025 Supatodo
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"errors"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"supatodo/cli/internal/app"
	"supatodo/cli/internal/auth"
	"supatodo/cli/internal/dispatch"
	"supatodo/cli/internal/postgrest"
	"supatodo/cli/internal/schedule"
	"supatodo/cli/internal/todo"
	"supatodo/cli/internal/transport"
)

var (
	runDuration time.Duration
	runHints    bool
)

// drainTimeout bounds how long shutdown waits for in-flight requests.
const drainTimeout = 2 * time.Second

// runCmd drives the todos loop until interrupted.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "List and insert todos on a schedule",
	Long: `The run command restores the saved session (or signs in with SUPATODO_EMAIL and
SUPATODO_PASSWORD), then lists the todos table every read_schedule and inserts a
new task every write_schedule. Each returned task prints as a [TASK] line; each
failure prints as an [ERR] line followed by the response body when it is text.

Reads and writes wait silently until a session exists.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := loadEnv()
		if err != nil {
			return err
		}
		cfg, log := env.cfg, env.log

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if runDuration > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, runDuration)
			defer cancel()
		}

		if _, ok, err := env.auth.Restore(); err != nil {
			log.Warn("could not read saved session", log.Args("error", err.Error()))
		} else if ok {
			if err := env.auth.EnsureFresh(ctx); err != nil {
				log.Warn("saved session expired and could not be refreshed", log.Args("error", err.Error()))
			}
		}
		// a restored session whose refresh failed on the network is still
		// installed but expired; sign in again rather than sending it
		if !env.holder.HasFreshSession() {
			if cfg.Email != "" && cfg.Password != "" {
				env.auth.SignInAsync(ctx, auth.Credentials{ID: cfg.Email, Password: cfg.Password}, nil)
			} else {
				log.Info("not signed in; run 'supatodo login' or set SUPATODO_EMAIL and SUPATODO_PASSWORD")
			}
		}

		readTimer, err := schedule.NewTimer(cfg.ReadSchedule)
		if err != nil {
			return err
		}
		writeTimer, err := schedule.NewTimer(cfg.WriteSchedule)
		if err != nil {
			return err
		}

		reqCtx, cancelRequests := context.WithCancel(context.Background())
		defer cancelRequests()
		a := app.New(
			env.holder,
			postgrest.New(cfg.RestURL, cfg.APIKey),
			transport.NewClient[todo.TaskList](reqCtx, transport.DefaultHTTPClient()).
				WithRateLimit(cfg.MaxRPS, int(math.Ceil(cfg.MaxRPS))),
			dispatch.NewRenderer(os.Stdout, runHints),
			log,
			app.Options{
				Resource:   cfg.Resource,
				TaskText:   cfg.TaskText,
				ReadPolicy: cfg.ReadPolicy,
				ReadTimer:  readTimer,
				WriteTimer: writeTimer,
			},
		)

		log.Debug("loop starting", log.Args(
			"rest_url", cfg.RestURL,
			"read", readTimer.String(),
			"write", writeTimer.String(),
			"tick", cfg.TickInterval().String(),
		))
		err = a.Runner().Run(ctx, cfg.TickInterval())

		drained := make(chan struct{})
		go func() {
			a.Drain()
			close(drained)
		}()
		select {
		case <-drained:
		case <-time.After(drainTimeout):
			cancelRequests()
			<-drained
		}

		st := a.Stats()
		log.Info("stopped", log.Args("batches", st.Batches, "tasks", st.Tasks, "errors", st.Errors))
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil
		}
		return err
	},
}

func init() {
	runCmd.Flags().DurationVar(&runDuration, "duration", 0, "Stop after this long (0 runs until interrupted)")
	runCmd.Flags().BoolVar(&runHints, "hints", false, "Print a [HINT] line after each failure")
	rootCmd.AddCommand(runCmd)
}
