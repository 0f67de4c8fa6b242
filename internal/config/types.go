// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// LogLevelDebug logs dispatch decisions and child process details.
	LogLevelDebug LogLevel = "debug"
	// LogLevelInfo adds session and server lifecycle messages.
	LogLevelInfo LogLevel = "info"
	// LogLevelWarn only reports problems. This is the default.
	LogLevelWarn LogLevel = "warn"
	// LogLevelError only reports failures.
	LogLevelError LogLevel = "error"

	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"

	// DefaultPrompt is printed before each line is read.
	DefaultPrompt = "$ "
	// DefaultServeHost binds the SSH server to loopback only.
	DefaultServeHost = "127.0.0.1"
	// DefaultServePort is the SSH listen port.
	DefaultServePort ListenPort = 2222
	// DefaultShutdownTimeout bounds graceful SSH shutdown.
	DefaultShutdownTimeout = 10 * time.Second

	maxListenPort = 65535
)

var (
	// ErrInvalidLogLevel is returned when a LogLevel value is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidListenPort is returned when a ListenPort is outside 0-65535.
	ErrInvalidListenPort = errors.New("invalid listen port")
	// ErrInvalidServeConfig is the sentinel error wrapped by InvalidServeConfigError.
	ErrInvalidServeConfig = errors.New("invalid serve config")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// LogLevel is the minimum level written to stderr.
	LogLevel string

	// InvalidLogLevelError is returned when a LogLevel value is not recognized.
	// It wraps ErrInvalidLogLevel for errors.Is() compatibility.
	InvalidLogLevelError struct {
		Value LogLevel
	}

	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not recognized.
	// It wraps ErrInvalidColorScheme for errors.Is() compatibility.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// ListenPort is a TCP port. Zero asks the OS for a free port.
	ListenPort int

	// InvalidListenPortError is returned when a ListenPort is out of range.
	InvalidListenPortError struct {
		Value ListenPort
	}

	// InvalidServeConfigError collects field-level errors from ServeConfig.
	InvalidServeConfigError struct {
		FieldErrors []error
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors from all sub-components.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		Shell    ShellConfig    `json:"shell" mapstructure:"shell"`
		Resolver ResolverConfig `json:"resolver" mapstructure:"resolver"`
		Log      LogConfig      `json:"log" mapstructure:"log"`
		UI       UIConfig       `json:"ui" mapstructure:"ui"`
		Serve    ServeConfig    `json:"serve" mapstructure:"serve"`
	}

	// ShellConfig configures the interactive loop.
	ShellConfig struct {
		// Prompt is printed before every line.
		Prompt string `json:"prompt" mapstructure:"prompt"`
		// SyncProcessDir makes cd also change the process working directory.
		SyncProcessDir bool `json:"sync_process_dir" mapstructure:"sync_process_dir"`
	}

	// ResolverConfig configures search path resolution.
	ResolverConfig struct {
		// RequireExecutable only matches regular files with an execute bit.
		RequireExecutable bool `json:"require_executable" mapstructure:"require_executable"`
	}

	// LogConfig configures diagnostics on stderr.
	LogConfig struct {
		Level LogLevel `json:"level" mapstructure:"level"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		// ColorScheme sets the color scheme
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
	}

	// ServeConfig configures `kestrel serve`.
	ServeConfig struct {
		Host string     `json:"host" mapstructure:"host"`
		Port ListenPort `json:"port" mapstructure:"port"`
		// HostKeyPath is the server's private key. Empty uses a key inside
		// the config directory, generated on first start.
		HostKeyPath string `json:"host_key_path" mapstructure:"host_key_path"`
		// AuthorizedKeysPath limits logins to the listed public keys. Empty
		// accepts any client.
		AuthorizedKeysPath string `json:"authorized_keys_path" mapstructure:"authorized_keys_path"`
		// IdleTimeout closes sessions without traffic. Zero disables it.
		IdleTimeout     time.Duration `json:"idle_timeout" mapstructure:"idle_timeout"`
		ShutdownTimeout time.Duration `json:"shutdown_timeout" mapstructure:"shutdown_timeout"`
	}
)

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string { return string(l) }

// IsValid returns whether the LogLevel is one of the defined levels,
// and a list of validation errors if it is not.
func (l LogLevel) IsValid() (bool, []error) {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return true, nil
	default:
		return false, []error{&InvalidLogLevelError{Value: l}}
	}
}

// Error implements the error interface.
func (e *InvalidLogLevelError) Error() string {
	return fmt.Sprintf("invalid log level %q (valid: debug, info, warn, error)", e.Value)
}

// Unwrap returns ErrInvalidLogLevel for errors.Is() compatibility.
func (e *InvalidLogLevelError) Unwrap() error { return ErrInvalidLogLevel }

// String returns the string representation of the ColorScheme.
func (cs ColorScheme) String() string { return string(cs) }

// IsValid returns whether the ColorScheme is one of the defined color schemes,
// and a list of validation errors if it is not.
func (cs ColorScheme) IsValid() (bool, []error) {
	switch cs {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return true, nil
	default:
		return false, []error{&InvalidColorSchemeError{Value: cs}}
	}
}

// Error implements the error interface.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: auto, dark, light)", e.Value)
}

// Unwrap returns ErrInvalidColorScheme for errors.Is() compatibility.
func (e *InvalidColorSchemeError) Unwrap() error { return ErrInvalidColorScheme }

// IsValid reports whether the port is within 0-65535.
func (p ListenPort) IsValid() (bool, []error) {
	if p < 0 || p > maxListenPort {
		return false, []error{&InvalidListenPortError{Value: p}}
	}
	return true, nil
}

// Error implements the error interface.
func (e *InvalidListenPortError) Error() string {
	return fmt.Sprintf("invalid listen port %d: must be between 0 and %d", e.Value, maxListenPort)
}

// Unwrap returns ErrInvalidListenPort for errors.Is() compatibility.
func (e *InvalidListenPortError) Unwrap() error { return ErrInvalidListenPort }

// IsValid checks the host, port and timeouts.
func (c ServeConfig) IsValid() (bool, []error) {
	var errs []error
	if strings.TrimSpace(c.Host) == "" {
		errs = append(errs, fmt.Errorf("serve.host: must be non-empty"))
	}
	if valid, fieldErrs := c.Port.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if c.IdleTimeout < 0 {
		errs = append(errs, fmt.Errorf("serve.idle_timeout: must not be negative, got %s", c.IdleTimeout))
	}
	if c.ShutdownTimeout < 0 {
		errs = append(errs, fmt.Errorf("serve.shutdown_timeout: must not be negative, got %s", c.ShutdownTimeout))
	}
	if len(errs) > 0 {
		return false, []error{&InvalidServeConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface.
func (e *InvalidServeConfigError) Error() string {
	return fmt.Sprintf("invalid serve config: %s", errors.Join(e.FieldErrors...))
}

// Unwrap returns ErrInvalidServeConfig for errors.Is() compatibility.
func (e *InvalidServeConfigError) Unwrap() error { return ErrInvalidServeConfig }

// IsValid returns whether the Config has valid fields.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.Log.Level.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.UI.ColorScheme.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Serve.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %s", errors.Join(e.FieldErrors...))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Shell: ShellConfig{
			Prompt:         DefaultPrompt,
			SyncProcessDir: true,
		},
		Resolver: ResolverConfig{
			RequireExecutable: false,
		},
		Log: LogConfig{
			Level: LogLevelWarn,
		},
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
		},
		Serve: ServeConfig{
			Host:               DefaultServeHost,
			Port:               DefaultServePort,
			HostKeyPath:        "", // Resolved to <config dir>/ssh_host_ed25519 at serve time
			AuthorizedKeysPath: "",
			IdleTimeout:        0,
			ShutdownTimeout:    DefaultShutdownTimeout,
		},
	}
}
