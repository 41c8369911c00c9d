// Copyright (c) 2025 Supatodo
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package app wires the todos loop: a read system that lists tasks, a write
// system that inserts one, and a dispatch system that renders whatever results
// have come back. Every handle a system touches is passed in explicitly.
package app

import (
	"time"

	"github.com/pterm/pterm"

	"supatodo/cli/internal/auth"
	"supatodo/cli/internal/config"
	"supatodo/cli/internal/dispatch"
	"supatodo/cli/internal/logging"
	"supatodo/cli/internal/postgrest"
	"supatodo/cli/internal/schedule"
	"supatodo/cli/internal/todo"
	"supatodo/cli/internal/transport"
)

// System names.
const (
	SystemRead     = "read"
	SystemWrite    = "write"
	SystemDispatch = "dispatch"
)

// Options configures the systems.
type Options struct {
	Resource   string
	TaskText   string
	ReadPolicy config.Policy
	ReadTimer  *schedule.Timer
	WriteTimer *schedule.Timer
}

// App owns the handles shared by the systems.
type App struct {
	auth     *auth.Holder
	rest     *postgrest.Client
	tasks    *transport.Client[todo.TaskList]
	renderer *dispatch.Renderer
	log      *pterm.Logger
	opts     Options

	stats dispatch.Stats
}

// New creates an App. Zero option fields take the usual defaults.
func New(holder *auth.Holder, rest *postgrest.Client, tasks *transport.Client[todo.TaskList], renderer *dispatch.Renderer, log *pterm.Logger, opts Options) *App {
	if log == nil {
		log = logging.Discard()
	}
	if opts.Resource == "" {
		opts.Resource = todo.Resource
	}
	if opts.TaskText == "" {
		opts.TaskText = "this is a new task"
	}
	if opts.ReadPolicy == "" {
		opts.ReadPolicy = config.PolicyRequire
	}
	if opts.ReadTimer == nil {
		opts.ReadTimer = schedule.Every(time.Second)
	}
	if opts.WriteTimer == nil {
		opts.WriteTimer = schedule.Every(3 * time.Second)
	}
	return &App{auth: holder, rest: rest, tasks: tasks, renderer: renderer, log: log, opts: opts}
}

// Runner registers the read, write and dispatch systems, in that order.
func (a *App) Runner() *schedule.Runner {
	read := &schedule.System{Name: SystemRead, Timer: a.opts.ReadTimer, Run: func(time.Time) { a.Read() }}
	if a.opts.ReadPolicy == config.PolicyRequire {
		read.Gates = []schedule.Gate{a.authGate(SystemRead)}
	}
	write := &schedule.System{
		Name:  SystemWrite,
		Timer: a.opts.WriteTimer,
		Gates: []schedule.Gate{a.authGate(SystemWrite)},
		Run:   func(time.Time) { a.Write() },
	}
	render := &schedule.System{Name: SystemDispatch, Run: func(time.Time) { a.Dispatch() }}
	return schedule.NewRunner().Add(read, write, render)
}

// authGate holds while a session is present. A miss is not a failure and is
// only visible at trace level.
func (a *App) authGate(system string) schedule.Gate {
	return func(time.Time) bool {
		if a.auth.IsAuthenticated() {
			return true
		}
		a.log.Trace("not signed in, skipping", a.log.Args("system", system))
		return false
	}
}

// Read issues a select of every column of the resource. The token is attached
// when one is held; under the require policy the gate guarantees it is.
func (a *App) Read() (int64, bool) {
	req, err := a.rest.From(a.opts.Resource).Select("*").Auth(a.auth.AccessToken()).Build()
	if err != nil {
		a.constructionFailed(SystemRead, err)
		return 0, false
	}
	seq := a.tasks.Send(transport.As[todo.TaskList](req))
	a.log.Debug("read issued", a.log.Args("seq", seq, "authenticated", req.HasBearer()))
	return seq, true
}

// Write inserts a task owned by the signed-in user.
func (a *App) Write() (int64, bool) {
	draft, err := todo.NewDraft(a.opts.TaskText, a.auth.UserID())
	if err != nil {
		a.constructionFailed(SystemWrite, err)
		return 0, false
	}
	payload, err := draft.Payload()
	if err != nil {
		a.constructionFailed(SystemWrite, err)
		return 0, false
	}
	req, err := a.rest.From(a.opts.Resource).Insert(payload).Auth(a.auth.AccessToken()).Build()
	if err != nil {
		a.constructionFailed(SystemWrite, err)
		return 0, false
	}
	seq := a.tasks.Send(transport.As[todo.TaskList](req))
	a.log.Debug("insert issued", a.log.Args("seq", seq, "owner", draft.UserID.String()))
	return seq, true
}

// Dispatch renders every result delivered since the previous tick.
func (a *App) Dispatch() dispatch.Stats {
	results := a.tasks.Poll()
	if len(results) == 0 {
		return dispatch.Stats{}
	}
	st := a.renderer.Render(results)
	a.stats.Batches += st.Batches
	a.stats.Tasks += st.Tasks
	a.stats.Errors += st.Errors
	return st
}

// Drain waits for in-flight requests and renders their results.
func (a *App) Drain() dispatch.Stats {
	a.tasks.Wait()
	return a.Dispatch()
}

// Stats returns totals across every Dispatch call.
func (a *App) Stats() dispatch.Stats { return a.stats }

func (a *App) constructionFailed(system string, err error) {
	a.log.Error("request not sent", a.log.Args("system", system, "error", logging.Mask(err.Error())))
}
