package cmd

import (
	"io"
	"time"

	"github.com/pterm/pterm"
)

// startSpinner shows text behind a spinner on w until the returned stop
// function is called. The line is removed when it stops.
func startSpinner(w io.Writer, text string) func() {
	sp, err := pterm.DefaultSpinner.
		WithWriter(w).
		WithRemoveWhenDone(true).
		WithSequence("|", "/", "-", "\\").
		WithDelay(120 * time.Millisecond).
		Start(text)
	if err != nil {
		return func() {}
	}
	return func() { _ = sp.Stop() }
}
