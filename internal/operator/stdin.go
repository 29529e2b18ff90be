package operator

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"reviewharvest/internal/logging"
)

// StdinPrompter resumes the run when the operator presses Enter in the
// terminal. A single background reader feeds every wait, so a keystroke
// left over from an abandoned wait still resumes the next one.
type StdinPrompter struct {
	in     io.Reader
	out    io.Writer
	once   sync.Once
	lines  chan error
	logger logging.Logger
}

// NewStdinPrompter creates a prompter reading from standard input.
func NewStdinPrompter(logger logging.Logger) *StdinPrompter {
	return &StdinPrompter{
		in:     os.Stdin,
		out:    os.Stdout,
		lines:  make(chan error),
		logger: logger,
	}
}

// AwaitResume prints the manual-action prompt and blocks until a line
// arrives on stdin or the context ends. A read error, including a closed
// stdin, is returned so the caller can tell nobody is at the keyboard.
func (p *StdinPrompter) AwaitResume(ctx context.Context, reason string) error {
	p.once.Do(p.startReader)

	fmt.Fprintf(p.out, "\nManual action needed: %s\n", reason)
	fmt.Fprintln(p.out, "After solving the puzzle and loading the product page, press Enter to continue...")

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-p.lines:
		return err
	}
}

// Close is a no-op; stdin is not ours to close.
func (p *StdinPrompter) Close() error {
	return nil
}

// startReader launches the background stdin reader. It exits on the first
// read error after reporting it, leaving later waits to their contexts.
func (p *StdinPrompter) startReader() {
	go func() {
		reader := bufio.NewReader(p.in)
		for {
			_, err := reader.ReadString('\n')
			p.lines <- err
			if err != nil {
				return
			}
		}
	}()
}
