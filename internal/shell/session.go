// SPDX-License-Identifier: MPL-2.0

package shell

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// HomeEnvVar is consulted when cd is given "~".
const HomeEnvVar = "HOME"

var (
	// ErrHomeNotSet is returned by ChangeDir("~") when HOME is unset.
	ErrHomeNotSet = errors.New("environment variable not found")
	// ErrNoSuchDirectory is the sentinel wrapped by NoSuchDirectoryError.
	ErrNoSuchDirectory = errors.New("no such directory")
	// ErrWorkdirUnavailable is returned by Getwd when the working directory
	// no longer exists or cannot be inspected.
	ErrWorkdirUnavailable = errors.New("working directory unavailable")
)

type (
	// NoSuchDirectoryError reports a cd target that is missing or not a
	// directory. Path is the operand exactly as typed, not the resolved
	// candidate.
	NoSuchDirectoryError struct {
		Path string
	}

	// Session owns the state a shell loop mutates: its working directory and
	// its view of the environment. The process working directory is changed
	// only when a cd succeeds and the session was created with SyncProcessDir.
	Session struct {
		dir            string
		syncProcessDir bool
		lookupEnv      func(string) (string, bool)
		stat           func(string) (fs.FileInfo, error)
		chdir          func(string) error
	}

	// SessionOption configures a Session.
	SessionOption func(*Session)
)

// Error implements the error interface.
func (e *NoSuchDirectoryError) Error() string {
	return fmt.Sprintf("cd: %s: No such file or directory", e.Path)
}

// Unwrap returns ErrNoSuchDirectory for errors.Is.
func (e *NoSuchDirectoryError) Unwrap() error { return ErrNoSuchDirectory }

// WithDir starts the session in dir instead of the process working directory.
func WithDir(dir string) SessionOption {
	return func(s *Session) { s.dir = dir }
}

// WithSyncProcessDir makes successful cd calls also change the process
// working directory.
func WithSyncProcessDir(sync bool) SessionOption {
	return func(s *Session) { s.syncProcessDir = sync }
}

// WithLookupEnv replaces os.LookupEnv for HOME expansion.
func WithLookupEnv(fn func(string) (string, bool)) SessionOption {
	return func(s *Session) { s.lookupEnv = fn }
}

// NewSession creates a session. Without WithDir the working directory is
// taken from the process.
func NewSession(opts ...SessionOption) (*Session, error) {
	s := &Session{
		lookupEnv: os.LookupEnv,
		stat:      os.Stat,
		chdir:     os.Chdir,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		s.dir = wd
	}
	s.dir = physicalDir(s.dir)
	return s, nil
}

// physicalDir resolves symlinks in dir so pwd reports the directory the
// operating system would, not the logical $PWD spelling. dir is returned
// unchanged when it cannot be resolved.
func physicalDir(dir string) string {
	if resolved, err := filepath.EvalSymlinks(dir); err == nil {
		return resolved
	}
	return dir
}

// Dir returns the recorded working directory without checking it.
func (s *Session) Dir() string {
	return s.dir
}

// SyncsProcessDir reports whether cd also moves the process.
func (s *Session) SyncsProcessDir() bool {
	return s.syncProcessDir
}

// LookupEnv reads a variable through the session's environment view.
func (s *Session) LookupEnv(key string) (string, bool) {
	return s.lookupEnv(key)
}

// Getwd returns the working directory after confirming it still exists as
// a directory.
func (s *Session) Getwd() (string, error) {
	info, err := s.stat(s.dir)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrWorkdirUnavailable, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s is not a directory", ErrWorkdirUnavailable, s.dir)
	}
	return s.dir, nil
}

// ChangeDir implements cd. A path starting with "/" is absolute, "~" alone
// is replaced by HOME, and anything else is joined onto the current
// directory. The candidate must exist and be a directory. On failure the
// session is left unchanged.
func (s *Session) ChangeDir(path string) error {
	var candidate string
	switch {
	case strings.HasPrefix(path, "/") || filepath.IsAbs(path):
		candidate = path
	case path == "~":
		home, ok := s.lookupEnv(HomeEnvVar)
		if !ok {
			return ErrHomeNotSet
		}
		candidate = home
	default:
		// Concatenate rather than filepath.Join so ".." is resolved by the
		// filesystem during the check, not lexically beforehand.
		candidate = s.dir + string(filepath.Separator) + path
	}

	info, err := s.stat(candidate)
	if err != nil || !info.IsDir() {
		return &NoSuchDirectoryError{Path: path}
	}

	// Resolve the directory that was checked. filepath.Clean would drop
	// "link/.." as text and could name a different, missing directory.
	next := physicalDir(candidate)
	if s.syncProcessDir {
		if err := s.chdir(next); err != nil {
			return osErrorText(err)
		}
	}
	s.dir = next
	return nil
}

// osErrorText drops the "op path:" decoration from *fs.PathError so only the
// operating system's description is shown.
func osErrorText(err error) error {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) && pathErr.Err != nil {
		return pathErr.Err
	}
	return err
}
