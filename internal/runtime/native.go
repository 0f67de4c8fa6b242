// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os/exec"
	"path/filepath"
	"time"
)

// NativeLauncher runs programs directly on the host with os/exec.
type NativeLauncher struct {
	// now is swapped in tests.
	now func() time.Time
}

// NewNativeLauncher creates a new native launcher
func NewNativeLauncher() *NativeLauncher {
	return &NativeLauncher{now: time.Now}
}

// Name returns the launcher name
func (l *NativeLauncher) Name() string {
	return "native"
}

// Launch runs the program and captures stdout and stderr separately.
// The caller is blocked until the child exits; there is no timeout beyond
// what ctx imposes.
func (l *NativeLauncher) Launch(ctx context.Context, req Request) *Result {
	if req.Path == "" {
		return NewErrorResult(1, ErrEmptyPath)
	}

	// A bare name would send os/exec back to PATH lookup; the path has
	// already been resolved, so anchor it to the working directory.
	path := req.Path
	if filepath.Base(path) == path {
		path = "." + string(filepath.Separator) + path
	}

	cmd := exec.CommandContext(ctx, path, req.Args...)
	cmd.Dir = req.Dir
	cmd.Env = req.Env
	cmd.Stdin = req.Stdin

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := l.clock()()
	err := cmd.Run()
	duration := l.clock()().Sub(start)

	var result *Result
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		result = NewSuccessResult()
	case errors.As(err, &exitErr):
		result = NewExitCodeResult(ExitCode(exitErr.ExitCode()))
	default:
		result = NewErrorResult(1, unwrapStartError(err))
	}
	result.Output = stdout.String()
	result.ErrOutput = stderr.String()
	result.Duration = duration

	return result
}

func (l *NativeLauncher) clock() func() time.Time {
	if l.now == nil {
		return time.Now
	}
	return l.now
}

// unwrapStartError strips the "fork/exec <path>: " prefix added by os/exec,
// leaving the operating system's own description of the failure.
func unwrapStartError(err error) error {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) && pathErr.Err != nil {
		return pathErr.Err
	}
	return err
}
