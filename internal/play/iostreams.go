package play

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// VT100 sequences used to repaint the countdown above the answer prompt.
const (
	saveCursor    = "\0337"
	restoreCursor = "\0338"
	cursorUp      = "\033[A"
	clearLine     = "\r\033[K"
)

// IOStreams abstracts standard I/O so the game can run against a terminal or
// in-memory buffers.
type IOStreams struct {
	In     io.Reader
	Out    io.Writer
	ErrOut io.Writer

	// isTerminalFunc is swapped out in tests to fake a TTY.
	isTerminalFunc func(fd int) bool
	// fds are the descriptors that must all be terminals for in-place redraws.
	fds []int
}

// NewIOStreams creates IOStreams connected to os.Stdin/Stdout/Stderr.
func NewIOStreams() *IOStreams {
	return &IOStreams{
		In:             os.Stdin,
		Out:            os.Stdout,
		ErrOut:         os.Stderr,
		isTerminalFunc: term.IsTerminal,
		fds:            []int{int(os.Stdin.Fd()), int(os.Stdout.Fd())},
	}
}

// IsInteractive reports whether both input and output are terminals. Only
// then can the countdown be repainted without corrupting piped output.
func (s *IOStreams) IsInteractive() bool {
	if s.isTerminalFunc == nil {
		return false
	}
	for _, fd := range s.fds {
		if !s.isTerminalFunc(fd) {
			return false
		}
	}
	return true
}

// RedrawAbove replaces the line above the cursor with text and puts the
// cursor back, so a partly typed answer on the prompt line survives.
func (s *IOStreams) RedrawAbove(text string) {
	fmt.Fprint(s.Out, saveCursor+cursorUp+clearLine+text+restoreCursor)
}

// TestIOStreams creates non-interactive IOStreams backed by in-memory
// buffers. It returns the streams with the input and output buffers.
func TestIOStreams() (*IOStreams, *bytes.Buffer, *bytes.Buffer) {
	in := &bytes.Buffer{}
	out := &bytes.Buffer{}
	return &IOStreams{
		In:             in,
		Out:            out,
		ErrOut:         out,
		isTerminalFunc: func(int) bool { return false },
		fds:            []int{0, 1},
	}, in, out
}
