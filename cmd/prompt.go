package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// prompter asks on a terminal whether a failed query should be attempted
// again. Only "y" or "Y" accepts; any other answer declines.
type prompter struct {
	mu          sync.Mutex
	in          *bufio.Reader
	out         io.Writer
	interactive bool
}

func newPrompter(in io.Reader, out io.Writer, interactive bool) *prompter {
	return &prompter{in: bufio.NewReader(in), out: out, interactive: interactive}
}

// newStdinPrompter prompts on stderr and reads stdin. When stdin is not a
// terminal every retry is declined without reading.
func newStdinPrompter() *prompter {
	fd := os.Stdin.Fd()
	return newPrompter(os.Stdin, os.Stderr, isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd))
}

// Confirm satisfies census.Confirm.
func (p *prompter) Confirm(ctx context.Context, topic string) (bool, error) {
	if !p.interactive {
		zap.L().Info("stdin is not a terminal; not retrying", zap.String("topic", topic))
		return false, nil
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.out, "The %s dataset query has returned an error code, attempt again? (y or n): ", topic)
	line, err := p.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, eris.Wrap(err, "prompt: read answer")
	}
	answer := strings.TrimSpace(line)
	return answer == "y" || answer == "Y", nil
}
