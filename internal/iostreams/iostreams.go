// Package iostreams provides access to standard input/output/error
// streams following the GitHub CLI pattern for testable I/O.
package iostreams

import (
	"bytes"
	"io"
	"os"

	"golang.org/x/term"
)

// IOStreams provides access to standard input/output/error streams.
type IOStreams struct {
	In     io.Reader
	Out    io.Writer
	ErrOut io.Writer

	// isOutputTTY caches whether stdout is a terminal.
	// -1 = unchecked, 0 = false, 1 = true
	isOutputTTY int

	// isStderrTTY caches whether stderr is a terminal.
	isStderrTTY int
}

// NewIOStreams creates IOStreams bound to the process's standard streams.
func NewIOStreams() *IOStreams {
	return &IOStreams{
		In:          os.Stdin,
		Out:         os.Stdout,
		ErrOut:      os.Stderr,
		isOutputTTY: -1,
		isStderrTTY: -1,
	}
}

// IsStdoutTTY returns whether stdout is connected to a terminal.
func (s *IOStreams) IsStdoutTTY() bool {
	if s.isOutputTTY == -1 {
		s.isOutputTTY = 0
		if f, ok := s.Out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			s.isOutputTTY = 1
		}
	}
	return s.isOutputTTY == 1
}

// IsStderrTTY returns whether stderr is connected to a terminal.
func (s *IOStreams) IsStderrTTY() bool {
	if s.isStderrTTY == -1 {
		s.isStderrTTY = 0
		if f, ok := s.ErrOut.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			s.isStderrTTY = 1
		}
	}
	return s.isStderrTTY == 1
}

// TestIOStreams wraps IOStreams for testing with accessible buffers.
type TestIOStreams struct {
	*IOStreams
	InBuf  *bytes.Buffer
	OutBuf *bytes.Buffer
	ErrBuf *bytes.Buffer
}

// NewTestIOStreams creates IOStreams for testing.
// Non-interactive: TTY checks report false.
func NewTestIOStreams() *TestIOStreams {
	in := &bytes.Buffer{}
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}

	return &TestIOStreams{
		IOStreams: &IOStreams{
			In:     in,
			Out:    out,
			ErrOut: errOut,
		},
		InBuf:  in,
		OutBuf: out,
		ErrBuf: errOut,
	}
}
