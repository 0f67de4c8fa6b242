// SPDX-License-Identifier: MPL-2.0

// Package runtime launches external programs for the shell.
//
// A Launcher takes a Request naming an already-resolved executable, runs it
// to completion and returns a Result carrying captured stdout, captured
// stderr, the exit code and any launch error. The shell currently surfaces
// only stdout and launch errors; the remaining fields exist so callers can
// report exit status without changing the contract.
//
// NativeLauncher is the only implementation. It uses os/exec with the child
// stdin connected to the null device unless the Request supplies a reader.
package runtime
