// Copyright (c) 2025 Supatodo
// Licensed under the MIT License. See LICENSE file in the project root for details.

package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

var parser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ParseSchedule accepts a Go duration ("3s"), a descriptor ("@every 1s",
// "@hourly") or a cron expression with optional seconds field.
// Intervals under one second round up to one second.
func ParseSchedule(spec string) (cron.Schedule, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, fmt.Errorf("empty schedule")
	}
	if d, err := time.ParseDuration(spec); err == nil {
		if d <= 0 {
			return nil, fmt.Errorf("schedule interval must be positive: %s", spec)
		}
		return cron.Every(d), nil
	}
	s, err := parser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", spec, err)
	}
	return s, nil
}

// Timer is an elapsed-time gate. It fires at most once per tick, on the first
// tick at or after its next activation, then re-arms from that tick.
type Timer struct {
	spec  string
	sched cron.Schedule
	next  time.Time
}

// NewTimer creates an unarmed timer from a schedule spec.
func NewTimer(spec string) (*Timer, error) {
	s, err := ParseSchedule(spec)
	if err != nil {
		return nil, err
	}
	return &Timer{spec: spec, sched: s}, nil
}

// Every creates an unarmed timer firing every d.
func Every(d time.Duration) *Timer {
	return &Timer{spec: "@every " + d.String(), sched: cron.Every(d)}
}

// Arm sets the first activation relative to now.
func (t *Timer) Arm(now time.Time) {
	t.next = t.sched.Next(now)
}

// Armed reports whether Arm has been called.
func (t *Timer) Armed() bool { return !t.next.IsZero() }

// Next returns the next activation time.
func (t *Timer) Next() time.Time { return t.next }

// Ready reports whether the timer fires on this tick. An unarmed timer arms
// itself and does not fire.
func (t *Timer) Ready(now time.Time) bool {
	if !t.Armed() {
		t.Arm(now)
		return false
	}
	if now.Before(t.next) {
		return false
	}
	t.next = t.sched.Next(now)
	return true
}

func (t *Timer) String() string { return t.spec }
