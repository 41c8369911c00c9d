// Copyright (c) 2025 Supatodo
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package dispatch renders typed request results to the console. Success and
// failure arrive as one tagged Result; the renderer routes on Err and never
// inspects payload shape to decide which path to take.
package dispatch

import (
	"fmt"
	"io"
	"time"
	"unicode/utf8"

	"supatodo/cli/internal/logging"
	"supatodo/cli/internal/todo"
	"supatodo/cli/internal/transport"
)

// TimeLayout formats inserted_at in task lines.
const TimeLayout = time.RFC3339Nano

// Renderer writes task lines and error diagnostics to w.
type Renderer struct {
	w     io.Writer
	hints bool
}

// NewRenderer creates a renderer instance. When hints is set, failures get an
// extra "[HINT]" line classifying the error.
func NewRenderer(w io.Writer, hints bool) *Renderer {
	return &Renderer{w: w, hints: hints}
}

// Stats counts what one Render call emitted.
type Stats struct {
	Batches int
	Tasks   int
	Errors  int
}

// Render processes results in the order given and returns what it printed.
func (r *Renderer) Render(results []transport.Result[todo.TaskList]) Stats {
	var st Stats
	for _, res := range results {
		if res.Err != nil {
			r.renderError(res.Err)
			st.Errors++
			continue
		}
		st.Batches++
		st.Tasks += r.renderTasks(res.Value)
	}
	return st
}

func (r *Renderer) renderTasks(list todo.TaskList) int {
	for _, t := range list {
		fmt.Fprintln(r.w, FormatTask(t))
	}
	return len(list)
}

func (r *Renderer) renderError(e *transport.ResponseError) {
	fmt.Fprintf(r.w, "[ERR] %s\n", logging.Mask(e.Error()))
	if body, ok := TextBody(e.Body); ok {
		fmt.Fprintf(r.w, "[BODY] %q\n", logging.Mask(body))
	}
	if r.hints {
		if hint := logging.Hint(logging.ClassifyFailure(e.Status, e.Detail)); hint != "" {
			fmt.Fprintf(r.w, "[HINT] %s\n", hint)
		}
	}
}

// FormatTask renders one task: id, description, completion flag, timestamp, owner.
func FormatTask(t todo.Task) string {
	return fmt.Sprintf("[TASK] %d %s %t %s %s", t.ID, t.Task, t.IsComplete, t.InsertedAt.Format(TimeLayout), t.UserID)
}

// TextBody returns body as a string when it is non-empty, valid UTF-8.
func TextBody(body []byte) (string, bool) {
	if len(body) == 0 || !utf8.Valid(body) {
		return "", false
	}
	return string(body), true
}
