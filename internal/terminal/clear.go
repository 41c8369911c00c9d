// Package terminal provides small terminal helpers for interactive commands:
// hidden password input and clearing a prompt once it has been answered.
package terminal

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"golang.org/x/term"
)

// ErrNotTerminal is returned when a hidden prompt is requested without a TTY.
var ErrNotTerminal = errors.New("stdin is not a terminal")

// Width returns the terminal width of stdout, or 80 when unknown.
func Width() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 80
}

// LinesFor returns how many rows textLength characters occupy at width.
func LinesFor(textLength, width int) int {
	if width <= 0 {
		width = 80
	}
	n := int(math.Ceil(float64(textLength) / float64(width)))
	if n < 1 {
		n = 1
	}
	return n
}

// ClearPreviousLines erases the rows used by textLength characters of prompt
// and input, plus the empty row left by Enter.
func ClearPreviousLines(w io.Writer, textLength int) {
	rows := LinesFor(textLength, Width()) + 1
	for i := 0; i < rows; i++ {
		fmt.Fprint(w, "\r\x1b[2K")
		if i < rows-1 {
			fmt.Fprint(w, "\x1b[1A")
		}
	}
}

// ReadPassword prints prompt and reads a line without echo.
func ReadPassword(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", ErrNotTerminal
	}
	fmt.Fprint(os.Stdout, prompt)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stdout)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ReadLine prints prompt and reads one trimmed line from r.
func ReadLine(r io.Reader, prompt string) (string, error) {
	fmt.Fprint(os.Stdout, prompt)
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
