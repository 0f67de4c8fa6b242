// SPDX-License-Identifier: MPL-2.0

package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/kestrel-sh/kestrel/internal/runtime"
)

// DefaultPrompt is printed before each line is read.
const DefaultPrompt = "$ "

// ErrReadInput wraps any failure to read a line other than end of input.
var ErrReadInput = errors.New("failed to read input")

type (
	// LineReader produces one line per call without its terminator.
	// It returns io.EOF once input is exhausted.
	LineReader interface {
		ReadLine() (string, error)
	}

	// promptSetter is implemented by line readers that draw their own prompt,
	// such as golang.org/x/term.Terminal.
	promptSetter interface {
		SetPrompt(prompt string)
	}

	bufferedLineReader struct {
		r *bufio.Reader
	}

	// REPL is the read-dispatch loop.
	REPL struct {
		Dispatcher *Dispatcher
		Input      LineReader
		// Out receives the prompt. It is flushed after every prompt.
		Out    io.Writer
		Prompt string
	}
)

// NewLineReader reads newline-terminated lines from r. A final line with no
// terminator is still returned before io.EOF.
func NewLineReader(r io.Reader) LineReader {
	return &bufferedLineReader{r: bufio.NewReader(r)}
}

func (b *bufferedLineReader) ReadLine() (string, error) {
	line, err := b.r.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", err
	}
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r"), nil
}

// Run prompts, reads and dispatches until the exit directive or the end of
// input. The exit directive's code is returned; end of input returns 0. Any
// other read failure ends the loop with an error wrapping ErrReadInput.
func (r *REPL) Run(ctx context.Context) (runtime.ExitCode, error) {
	ps, drawsPrompt := r.Input.(promptSetter)
	if drawsPrompt {
		ps.SetPrompt(r.Prompt)
	}

	for {
		if err := ctx.Err(); err != nil {
			return 1, err
		}

		if !drawsPrompt && r.Prompt != "" {
			if _, err := io.WriteString(r.Out, r.Prompt); err != nil {
				return 1, fmt.Errorf("failed to write prompt: %w", err)
			}
			flush(r.Out)
		}

		line, err := r.Input.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return 0, nil
			}
			return 1, fmt.Errorf("%w: %w", ErrReadInput, err)
		}

		if outcome := r.Dispatcher.Dispatch(ctx, line); outcome.Exit {
			return outcome.ExitCode, nil
		}
	}
}
