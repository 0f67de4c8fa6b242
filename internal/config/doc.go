// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as the file format.
//
// Configuration is loaded from ~/.config/kestrel/config.cue (or XDG equivalent on Linux,
// ~/Library/Application Support/kestrel/config.cue on macOS, %APPDATA%\kestrel\config.cue
// on Windows), falling back to ./config.cue. KESTREL_* environment variables override
// file values, e.g. KESTREL_SHELL_PROMPT or KESTREL_SERVE_PORT.
//
// Files are validated against the embedded CUE schema (config_schema.cue) before they
// are merged over the built-in defaults.
package config
