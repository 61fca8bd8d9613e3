package output

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

// ClearScreen clears the terminal screen and moves cursor to top-left
func ClearScreen(w io.Writer) {
	_, _ = fmt.Fprint(w, "\033[2J\033[H")
}

// HideCursor hides the terminal cursor
func HideCursor(w io.Writer) {
	_, _ = fmt.Fprint(w, "\033[?25l")
}

// ShowCursor shows the terminal cursor
func ShowCursor(w io.Writer) {
	_, _ = fmt.Fprint(w, "\033[?25h")
}

// SetupSignalHandler returns a channel that receives interrupt signals
func SetupSignalHandler() chan os.Signal {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	return sigChan
}

// Screen redraws a text view in place. When the output is not a terminal
// frames are appended with a separator instead.
type Screen struct {
	w           io.Writer
	interactive bool
}

// NewScreen creates a Screen writing to w.
func NewScreen(w io.Writer, interactive bool) *Screen {
	return &Screen{w: w, interactive: interactive}
}

// Begin prepares the terminal for redrawing.
func (s *Screen) Begin() {
	if s.interactive {
		HideCursor(s.w)
	}
}

// End restores the terminal.
func (s *Screen) End() {
	if s.interactive {
		ShowCursor(s.w)
	}
}

// Redraw replaces the previous frame with the output of render.
func (s *Screen) Redraw(render func(w io.Writer)) {
	if s.interactive {
		ClearScreen(s.w)
	} else {
		_, _ = fmt.Fprintln(s.w, "---")
	}
	render(s.w)
}
