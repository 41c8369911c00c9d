// Copyright (c) 2025 Supatodo
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package schedule drives periodic systems from a single-threaded tick loop.
// A system runs on a tick when its timer (if any) fires and every gate holds.
// All gates are evaluated on every tick, so a timer keeps its own cadence no
// matter what the other gates say; a firing that coincides with a failing gate
// is dropped and the system does nothing that tick.
package schedule

import (
	"context"
	"time"
)

// Gate is a predicate that must hold for a system to run on a tick.
type Gate func(now time.Time) bool

// All combines gates; every gate is evaluated.
func All(gates ...Gate) Gate {
	return func(now time.Time) bool {
		ok := true
		for _, g := range gates {
			if !g(now) {
				ok = false
			}
		}
		return ok
	}
}

// Always is a gate that always holds.
func Always(time.Time) bool { return true }

// Predicate adapts a plain boolean check, such as "is authenticated", to a Gate.
func Predicate(fn func() bool) Gate {
	return func(time.Time) bool { return fn() }
}

// System is a periodic callback.
type System struct {
	Name  string
	Timer *Timer
	Gates []Gate
	Run   func(now time.Time)
}

// Runner owns the systems and evaluates them tick by tick.
type Runner struct {
	systems []*System
	runs    map[string]int
	ticks   int
}

// NewRunner creates an empty runner.
func NewRunner() *Runner {
	return &Runner{runs: make(map[string]int)}
}

// Add registers systems; they run in registration order within a tick.
func (r *Runner) Add(systems ...*System) *Runner {
	r.systems = append(r.systems, systems...)
	return r
}

// Start arms every system timer relative to now.
func (r *Runner) Start(now time.Time) {
	for _, s := range r.systems {
		if s.Timer != nil {
			s.Timer.Arm(now)
		}
	}
}

// Tick runs one pass over the systems and returns the names of those that ran.
func (r *Runner) Tick(now time.Time) []string {
	r.ticks++
	var ran []string
	for _, s := range r.systems {
		fired := s.Timer == nil || s.Timer.Ready(now)
		open := All(s.Gates...)(now)
		if !fired || !open {
			continue
		}
		s.Run(now)
		r.runs[s.Name]++
		ran = append(ran, s.Name)
	}
	return ran
}

// Runs returns how many times the named system has run.
func (r *Runner) Runs(name string) int { return r.runs[name] }

// Ticks returns how many passes have been made.
func (r *Runner) Ticks() int { return r.ticks }

// Run ticks every interval until ctx is done. It arms timers on entry.
func (r *Runner) Run(ctx context.Context, every time.Duration) error {
	r.Start(time.Now())
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			r.Tick(now)
		}
	}
}
