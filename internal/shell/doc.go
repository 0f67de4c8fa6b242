// SPDX-License-Identifier: MPL-2.0

// Package shell implements the command core of the kestrel shell.
//
// A line is classified once by Classify into a Command whose Kind selects
// one of the builtins (exit, pwd, cd, type, echo) or an external program.
// The Dispatcher executes it against a Session, which owns the working
// directory, and writes the result to its output. REPL drives the
// prompt-read-dispatch cycle until the exit directive or end of input.
//
// Nothing here performs quoting, globbing or variable expansion. Arguments
// to external programs are the whitespace-separated fields of the line.
package shell
