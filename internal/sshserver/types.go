// SPDX-License-Identifier: MPL-2.0

package sshserver

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kestrel-sh/kestrel/internal/config"
)

const (
	// DefaultStartupTimeout bounds how long Start waits for the listener.
	DefaultStartupTimeout = 5 * time.Second
)

var (
	// ErrInvalidHostAddress is the sentinel error wrapped by InvalidHostAddressError.
	ErrInvalidHostAddress = errors.New("invalid host address")
	// ErrInvalidSSHConfig is the sentinel error wrapped by InvalidSSHConfigError.
	ErrInvalidSSHConfig = errors.New("invalid SSH server config")
)

type (
	// HostAddress is the IP or hostname the listener binds to.
	HostAddress string

	// InvalidHostAddressError is returned when a HostAddress value is
	// empty or whitespace-only.
	InvalidHostAddressError struct {
		Value HostAddress
	}

	// InvalidSSHConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidSSHConfig for errors.Is() compatibility.
	InvalidSSHConfigError struct {
		FieldErrors []error
	}

	// Config holds immutable configuration for the SSH server.
	Config struct {
		// Host is the address to bind to (default: 127.0.0.1)
		Host HostAddress
		// Port is the port to listen on (0 = auto-select)
		Port config.ListenPort
		// HostKeyPath is the private host key, generated if missing.
		// Empty uses an ephemeral key.
		HostKeyPath string
		// AuthorizedKeysPath restricts logins to the listed public keys.
		// Empty accepts every client.
		AuthorizedKeysPath string
		// IdleTimeout closes connections without traffic. Zero disables it.
		IdleTimeout time.Duration
		// ShutdownTimeout bounds the graceful drain in Stop (default: 10s)
		ShutdownTimeout time.Duration
		// StartupTimeout is the max time to wait for the listener (default: 5s)
		StartupTimeout time.Duration
		// Prompt is drawn before each line of an interactive session.
		Prompt string
		// Dir is where every session starts. Empty uses the process
		// working directory at Start.
		Dir string
		// RequireExecutable makes command lookup skip non-executable files.
		RequireExecutable bool
	}
)

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		Host:            config.DefaultServeHost,
		Port:            0,
		ShutdownTimeout: config.DefaultShutdownTimeout,
		StartupTimeout:  DefaultStartupTimeout,
		Prompt:          config.DefaultPrompt,
	}
}

// FromConfig maps the `serve` section of the application config onto a
// server Config. hostKeyPath is the already resolved host key location.
func FromConfig(cfg *config.Config, hostKeyPath string) Config {
	c := DefaultConfig()
	c.Host = HostAddress(cfg.Serve.Host)
	c.Port = cfg.Serve.Port
	c.HostKeyPath = hostKeyPath
	c.AuthorizedKeysPath = cfg.Serve.AuthorizedKeysPath
	c.IdleTimeout = cfg.Serve.IdleTimeout
	if cfg.Serve.ShutdownTimeout > 0 {
		c.ShutdownTimeout = cfg.Serve.ShutdownTimeout
	}
	c.Prompt = cfg.Shell.Prompt
	c.RequireExecutable = cfg.Resolver.RequireExecutable
	return c
}

// String returns the string representation of the HostAddress.
func (h HostAddress) String() string { return string(h) }

// Validate returns nil if the HostAddress is non-empty and not
// whitespace-only, or an error wrapping ErrInvalidHostAddress.
func (h HostAddress) Validate() error {
	if strings.TrimSpace(string(h)) == "" {
		return &InvalidHostAddressError{Value: h}
	}
	return nil
}

// Error implements the error interface for InvalidHostAddressError.
func (e *InvalidHostAddressError) Error() string {
	return fmt.Sprintf("invalid host address %q: must be non-empty", e.Value)
}

// Unwrap returns ErrInvalidHostAddress for errors.Is() compatibility.
func (e *InvalidHostAddressError) Unwrap() error { return ErrInvalidHostAddress }

// Validate collects field errors from Host, Port and the timeouts.
func (c Config) Validate() error {
	var errs []error
	if err := c.Host.Validate(); err != nil {
		errs = append(errs, err)
	}
	if valid, fieldErrs := c.Port.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if c.IdleTimeout < 0 {
		errs = append(errs, fmt.Errorf("idle timeout must not be negative, got %s", c.IdleTimeout))
	}
	if c.ShutdownTimeout < 0 {
		errs = append(errs, fmt.Errorf("shutdown timeout must not be negative, got %s", c.ShutdownTimeout))
	}
	if len(errs) > 0 {
		return &InvalidSSHConfigError{FieldErrors: errs}
	}
	return nil
}

// Error implements the error interface for InvalidSSHConfigError.
func (e *InvalidSSHConfigError) Error() string {
	return fmt.Sprintf("invalid SSH server config: %s", errors.Join(e.FieldErrors...))
}

// Unwrap returns ErrInvalidSSHConfig for errors.Is() compatibility.
func (e *InvalidSSHConfigError) Unwrap() error { return ErrInvalidSSHConfig }
