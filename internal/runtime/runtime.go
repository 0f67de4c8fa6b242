// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"context"
	"errors"
	"io"
)

// ErrEmptyPath is returned when a Request carries no executable path.
var ErrEmptyPath = errors.New("no executable path to launch")

type (
	// Request describes one external program invocation.
	Request struct {
		// Path is the resolved executable. It is also passed as argv[0].
		Path string
		// Args are the arguments after argv[0], passed verbatim.
		Args []string
		// Dir is the working directory for the child. Empty inherits the
		// process working directory.
		Dir string
		// Env replaces the child environment when non-nil.
		Env []string
		// Stdin feeds the child. Nil connects it to the null device.
		Stdin io.Reader
	}

	// Launcher starts a program, waits for it and captures its output.
	Launcher interface {
		// Name returns the launcher name
		Name() string
		// Launch runs the request synchronously. It never returns nil.
		Launch(ctx context.Context, req Request) *Result
	}
)
