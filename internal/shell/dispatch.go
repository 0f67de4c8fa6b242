// SPDX-License-Identifier: MPL-2.0

package shell

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/kestrel-sh/kestrel/internal/resolve"
	"github.com/kestrel-sh/kestrel/internal/runtime"
)

// Messages printed by the dispatcher. The wording is part of the shell's
// user-visible contract.
const (
	msgBuiltin         = "%s is a shell builtin"
	msgTypeResolved    = "%s is %s"
	msgTypeNotFound    = "%s: not found"
	msgCommandNotFound = "%s: command not found"
	msgRunFailed       = "Error running command: %v"
	msgPwdFailed       = "Error retrieving current directory"
)

type (
	// Resolver maps a command name to an executable path.
	Resolver interface {
		Resolve(name string) (string, bool)
	}

	// Flusher is implemented by buffered outputs such as *bufio.Writer.
	Flusher interface {
		Flush() error
	}

	// Outcome is what a single Dispatch did.
	Outcome struct {
		// Command is the classified line.
		Command Command
		// Exit is set for the exit directive. The caller decides how to stop.
		Exit bool
		// ExitCode is the status the caller should exit with when Exit is set.
		ExitCode runtime.ExitCode
		// Result is set when an external program was resolved and a launch
		// was attempted. Its stderr and exit code are never printed.
		Result *runtime.Result
	}

	// Dispatcher executes classified lines against a Session.
	Dispatcher struct {
		session  *Session
		resolver Resolver
		launcher runtime.Launcher
		out      io.Writer
		logger   *log.Logger
	}

	// DispatcherOption configures a Dispatcher.
	DispatcherOption func(*Dispatcher)
)

// WithResolver replaces the default PATH resolver.
func WithResolver(r Resolver) DispatcherOption {
	return func(d *Dispatcher) { d.resolver = r }
}

// WithLauncher replaces the native process launcher.
func WithLauncher(l runtime.Launcher) DispatcherOption {
	return func(d *Dispatcher) { d.launcher = l }
}

// WithLogger sets the logger used for debug tracing.
func WithLogger(l *log.Logger) DispatcherOption {
	return func(d *Dispatcher) { d.logger = l }
}

// NewDispatcher creates a dispatcher writing to out.
func NewDispatcher(session *Session, out io.Writer, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		session:  session,
		resolver: resolve.New(),
		launcher: runtime.NewNativeLauncher(),
		out:      out,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = log.New(io.Discard)
	}
	return d
}

// Session returns the session the dispatcher mutates.
func (d *Dispatcher) Session() *Session {
	return d.session
}

// Dispatch classifies and executes one line. It never fails: every problem
// is reported on the output and the returned Outcome describes what ran.
// Only the exit directive sets Outcome.Exit.
func (d *Dispatcher) Dispatch(ctx context.Context, line string) Outcome {
	cmd := Classify(line)
	outcome := Outcome{Command: cmd}

	d.logger.Debug("dispatch", "kind", cmd.Kind, "line", cmd.Line)

	switch cmd.Kind {
	case KindEmpty:
	case KindExit:
		outcome.Exit = true
		outcome.ExitCode = 0
	case KindPwd:
		d.pwd()
	case KindCd:
		if err := d.session.ChangeDir(cmd.Operand); err != nil {
			d.logger.Debug("cd failed", "path", cmd.Operand, "error", err)
			d.println(err.Error())
		}
	case KindType:
		d.typeOf(cmd.Operand)
	case KindEcho:
		d.println(cmd.Operand)
	case KindExternal:
		outcome.Result = d.external(ctx, cmd)
	}

	return outcome
}

func (d *Dispatcher) pwd() {
	dir, err := d.session.Getwd()
	if err != nil {
		d.logger.Debug("pwd failed", "error", err)
		d.println(msgPwdFailed)
		return
	}
	d.println(dir)
}

func (d *Dispatcher) typeOf(name string) {
	line, _ := Describe(d.resolver, name)
	d.println(line)
}

// Describe returns the line the type builtin prints for name. Builtins win
// over programs of the same name. found is false for the not-found line.
func Describe(r Resolver, name string) (line string, found bool) {
	if IsBuiltin(name) {
		return fmt.Sprintf(msgBuiltin, name), true
	}
	if path, ok := r.Resolve(name); ok {
		return DescribePath(name, path), true
	}
	return fmt.Sprintf(msgTypeNotFound, name), false
}

// DescribePath formats a resolved program the way the type builtin does.
func DescribePath(name, path string) string {
	return fmt.Sprintf(msgTypeResolved, name, path)
}

func (d *Dispatcher) external(ctx context.Context, cmd Command) *runtime.Result {
	path, ok := d.resolver.Resolve(cmd.Name)
	if !ok {
		d.printf(msgCommandNotFound, cmd.Name)
		return nil
	}

	req := runtime.Request{Path: path, Args: cmd.Args}
	if !d.session.SyncsProcessDir() {
		req.Dir = d.session.Dir()
	}

	result := d.launcher.Launch(ctx, req)
	if !result.Started() {
		d.logger.Debug("launch failed", "path", path, "error", result.Error)
		d.printf(msgRunFailed, result.Error)
		return result
	}

	d.logger.Debug("command finished",
		"path", path,
		"exit_code", result.ExitCode,
		"success", result.ExitCode.IsSuccess(),
		"signaled", result.ExitCode.IsSignaled(),
		"stderr_bytes", len(result.ErrOutput),
		"duration", result.Duration)

	d.write(result.Output)
	return result
}

func (d *Dispatcher) printf(format string, args ...any) {
	d.println(fmt.Sprintf(format, args...))
}

func (d *Dispatcher) println(s string) {
	d.write(s + "\n")
}

// write sends s to the output and flushes it. Write errors are logged and
// otherwise ignored; a broken output is noticed by the next read.
func (d *Dispatcher) write(s string) {
	if s != "" {
		if _, err := io.WriteString(d.out, s); err != nil {
			d.logger.Debug("write failed", "error", err)
		}
	}
	flush(d.out)
}

func flush(w io.Writer) {
	if f, ok := w.(Flusher); ok {
		_ = f.Flush()
	}
}
