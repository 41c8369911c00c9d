package terminal

import (
	"bytes"
	"strings"
	"testing"
)

func TestLinesFor(t *testing.T) {
	tests := []struct {
		length, width, want int
	}{
		{0, 80, 1},
		{80, 80, 1},
		{81, 80, 2},
		{10, 0, 1},
	}
	for _, tt := range tests {
		if got := LinesFor(tt.length, tt.width); got != tt.want {
			t.Errorf("LinesFor(%d, %d) = %d, want %d", tt.length, tt.width, got, tt.want)
		}
	}
}

func TestClearPreviousLinesWritesEscapes(t *testing.T) {
	var buf bytes.Buffer
	ClearPreviousLines(&buf, 5)
	out := buf.String()
	if strings.Count(out, "\x1b[2K") < 2 {
		t.Errorf("expected at least two line clears, got %q", out)
	}
}

func TestReadLineTrims(t *testing.T) {
	got, err := ReadLine(strings.NewReader("  a@b.c \n"), "")
	if err != nil {
		t.Fatal(err)
	}
	if got != "a@b.c" {
		t.Errorf("ReadLine() = %q", got)
	}
	got, err = ReadLine(strings.NewReader("no-newline"), "")
	if err != nil || got != "no-newline" {
		t.Errorf("ReadLine() = %q, %v", got, err)
	}
}
