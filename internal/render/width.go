package render

import (
	"os"

	"golang.org/x/term"
)

// TerminalWidth returns the current terminal column width, falling back
// to 80 when stdout is not a TTY (piped output, CI logs).
func TerminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return 80
	}
	w, _, err := term.GetSize(fd)
	if err != nil || w <= 0 {
		return 80
	}
	return w
}
