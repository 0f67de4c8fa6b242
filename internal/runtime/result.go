// SPDX-License-Identifier: MPL-2.0

package runtime

import "time"

// Result is what a Launcher reports once a program has finished. A non-nil
// Error means the program never ran; a program that ran and exited non-zero
// only sets ExitCode.
type Result struct {
	// ExitCode is the child's status, -1 when a signal ended it.
	ExitCode ExitCode
	// Error is the launch failure, if any.
	Error error
	// Output is the captured standard output.
	Output string
	// ErrOutput is the captured standard error. Callers never print it.
	ErrOutput string
	// Duration is the wall time between start and exit.
	Duration time.Duration
}

// NewErrorResult reports a program that could not be started.
func NewErrorResult(code ExitCode, err error) *Result {
	return &Result{ExitCode: code, Error: err}
}

// NewSuccessResult reports a program that ran and exited 0.
func NewSuccessResult() *Result {
	return &Result{}
}

// NewExitCodeResult reports a program that ran to completion with code,
// including non-zero codes and -1 for a signal.
func NewExitCodeResult(code ExitCode) *Result {
	return &Result{ExitCode: code}
}

// Started reports whether the program was actually launched.
func (r *Result) Started() bool {
	return r.Error == nil
}
