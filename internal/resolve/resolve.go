// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// PathEnvVar is the environment variable holding the search path.
const PathEnvVar = "PATH"

type (
	// LookupEnvFunc reads an environment variable, reporting whether it was set.
	LookupEnvFunc func(key string) (string, bool)

	// StatFunc describes a filesystem path. It follows symlinks like os.Stat.
	StatFunc func(name string) (fs.FileInfo, error)

	// Resolver locates executables on the search path.
	// The zero value reads the process environment and the real filesystem.
	Resolver struct {
		// LookupEnv overrides os.LookupEnv.
		LookupEnv LookupEnvFunc
		// Stat overrides os.Stat.
		Stat StatFunc
		// RequireExecutable restricts matches to regular files with an execute bit.
		RequireExecutable bool
	}
)

// New creates a Resolver bound to the process environment and filesystem.
func New() *Resolver {
	return &Resolver{}
}

// SearchPath returns the non-empty entries of PATH in order.
// An unset or empty PATH yields nil.
func (r *Resolver) SearchPath() []string {
	raw, ok := r.lookupEnv()(PathEnvVar)
	if !ok || raw == "" {
		return nil
	}

	var dirs []string
	for dir := range strings.SplitSeq(raw, string(os.PathListSeparator)) {
		if dir == "" {
			continue
		}
		dirs = append(dirs, dir)
	}
	return dirs
}

// Resolve returns the first search path candidate for name that passes the
// match test. The second result is false when nothing matched; that is a
// normal outcome, not an error.
func (r *Resolver) Resolve(name string) (string, bool) {
	if name == "" {
		return "", false
	}

	for _, dir := range r.SearchPath() {
		candidate := candidatePath(dir, name)
		if r.matches(candidate) {
			return candidate, true
		}
	}
	return "", false
}

// Candidates returns every matching candidate for name in search path order.
// Duplicate directories produce a single entry.
func (r *Resolver) Candidates(name string) []string {
	if name == "" {
		return nil
	}

	seen := make(map[string]bool)
	var found []string
	for _, dir := range r.SearchPath() {
		candidate := candidatePath(dir, name)
		if seen[candidate] {
			continue
		}
		seen[candidate] = true
		if r.matches(candidate) {
			found = append(found, candidate)
		}
	}
	return found
}

// candidatePath appends name to a search path entry as written. Unlike
// filepath.Join it does not clean, so "." stays "./name" and a trailing
// slash is kept in the reported path.
func candidatePath(dir, name string) string {
	return dir + string(filepath.Separator) + name
}

func (r *Resolver) matches(candidate string) bool {
	info, err := r.stat()(candidate)
	if err != nil {
		return false
	}
	if !r.RequireExecutable {
		return true
	}
	return info.Mode().IsRegular() && info.Mode().Perm()&0o111 != 0
}

func (r *Resolver) lookupEnv() LookupEnvFunc {
	if r.LookupEnv != nil {
		return r.LookupEnv
	}
	return os.LookupEnv
}

func (r *Resolver) stat() StatFunc {
	if r.Stat != nil {
		return r.Stat
	}
	return os.Stat
}
