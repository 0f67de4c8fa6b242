// SPDX-License-Identifier: MPL-2.0

// Package resolve turns a bare command name into a filesystem path by
// searching the directories listed in the PATH environment variable.
//
// The search path is read on every call so that changes to the environment
// are observed immediately; nothing is cached. Entries are checked in the
// order they appear and the first candidate that exists wins.
//
// By default a candidate only has to exist: directories and files without an
// execute bit match as well. Set Resolver.RequireExecutable to restrict
// matches to regular, executable files.
package resolve
