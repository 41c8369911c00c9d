package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func at(d time.Duration) time.Time { return t0.Add(d) }

func TestRunner_ReadEverySecondWriteEveryThree(t *testing.T) {
	authed := true
	reads, writes := 0, 0

	r := NewRunner().Add(
		&System{Name: "read", Timer: Every(time.Second), Gates: []Gate{Predicate(func() bool { return authed })}, Run: func(time.Time) { reads++ }},
		&System{Name: "write", Timer: Every(3 * time.Second), Gates: []Gate{Predicate(func() bool { return authed })}, Run: func(time.Time) { writes++ }},
	)
	r.Start(t0)
	for i := 1; i <= 6; i++ {
		r.Tick(at(time.Duration(i) * time.Second))
	}

	assert.Equal(t, 6, reads)
	assert.Equal(t, 2, writes)
	assert.Equal(t, 6, r.Runs("read"))
	assert.Equal(t, 2, r.Runs("write"))
	assert.Equal(t, 6, r.Ticks())
}

func TestRunner_FailingGateHasNoSideEffect(t *testing.T) {
	authed := false
	writes := 0
	r := NewRunner().Add(&System{
		Name:  "write",
		Timer: Every(3 * time.Second),
		Gates: []Gate{Predicate(func() bool { return authed })},
		Run:   func(time.Time) { writes++ },
	})
	r.Start(t0)

	for i := 1; i <= 3; i++ {
		assert.Empty(t, r.Tick(at(time.Duration(i)*time.Second)))
	}
	assert.Equal(t, 0, writes)

	// the firing at 3s was dropped; the next one is at 6s
	authed = true
	assert.Empty(t, r.Tick(at(4*time.Second)))
	assert.Empty(t, r.Tick(at(5*time.Second)))
	assert.Equal(t, []string{"write"}, r.Tick(at(6*time.Second)))
	assert.Equal(t, 1, writes)
}

func TestRunner_SubSecondTicks(t *testing.T) {
	runs := 0
	r := NewRunner().Add(&System{Name: "read", Timer: Every(time.Second), Run: func(time.Time) { runs++ }})
	r.Start(t0)
	for i := 1; i <= 30; i++ {
		r.Tick(at(time.Duration(i) * 100 * time.Millisecond))
	}
	assert.Equal(t, 3, runs)
}

func TestRunner_UntimedSystemRunsEveryTick(t *testing.T) {
	var order []string
	r := NewRunner().Add(
		&System{Name: "a", Run: func(time.Time) { order = append(order, "a") }},
		&System{Name: "b", Gates: []Gate{Always}, Run: func(time.Time) { order = append(order, "b") }},
	)
	r.Tick(t0)
	r.Tick(at(time.Millisecond))
	assert.Equal(t, []string{"a", "b", "a", "b"}, order)
}

func TestAll_EvaluatesEveryGate(t *testing.T) {
	calls := 0
	counting := func(ok bool) Gate {
		return func(time.Time) bool { calls++; return ok }
	}
	assert.False(t, All(counting(false), counting(true), counting(true))(t0))
	assert.Equal(t, 3, calls)
	assert.True(t, All()(t0))
}

func TestTimer_ArmsLazily(t *testing.T) {
	tm := Every(time.Second)
	assert.False(t, tm.Armed())
	assert.False(t, tm.Ready(t0))
	assert.True(t, tm.Armed())
	assert.Equal(t, at(time.Second), tm.Next())
	assert.False(t, tm.Ready(at(500*time.Millisecond)))
	assert.True(t, tm.Ready(at(time.Second)))
}

func TestTimer_FiresOncePerTickAfterLongGap(t *testing.T) {
	tm := Every(time.Second)
	tm.Arm(t0)
	assert.True(t, tm.Ready(at(10*time.Second)))
	assert.False(t, tm.Ready(at(10*time.Second)))
	assert.Equal(t, at(11*time.Second), tm.Next())
}

func TestNewTimer(t *testing.T) {
	tests := []struct {
		spec    string
		next    time.Duration
		wantErr bool
	}{
		{spec: "@every 1s", next: time.Second},
		{spec: "3s", next: 3 * time.Second},
		{spec: "*/2 * * * * *", next: 2 * time.Second},
		{spec: "0 * * * *", next: time.Hour},
		{spec: "", wantErr: true},
		{spec: "-1s", wantErr: true},
		{spec: "not a schedule", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			tm, err := NewTimer(tt.spec)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.spec, tm.String())
			tm.Arm(t0)
			assert.Equal(t, at(tt.next), tm.Next())
		})
	}
}

func TestRunner_RunStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ticks := make(chan struct{}, 1)
	r := NewRunner().Add(&System{Name: "tick", Run: func(time.Time) {
		select {
		case ticks <- struct{}{}:
		default:
		}
	}})

	done := make(chan error, 1)
	go func() { done <- r.Run(ctx, 5*time.Millisecond) }()

	select {
	case <-ticks:
	case <-time.After(2 * time.Second):
		t.Fatal("runner never ticked")
	}
	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop")
	}
}
