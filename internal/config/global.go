// SPDX-License-Identifier: MPL-2.0

package config

import "os"

// ConfigDirEnvVar relocates the configuration directory, and with it the
// default SSH host key. It wins over the platform lookup.
const ConfigDirEnvVar = EnvPrefix + "_CONFIG_DIR"

// configDirOverride is set by tests in place of ConfigDirEnvVar so they do
// not depend on os.UserHomeDir, which ignores HOME on some platforms.
var configDirOverride string

// Reset clears test overrides. Call from test cleanup to restore defaults.
func Reset() {
	configDirOverride = ""
}

// SetConfigDirOverride sets a custom config directory path for tests.
func SetConfigDirOverride(dir string) {
	configDirOverride = dir
}

// dirOverride returns the directory that replaces the platform lookup, if any.
func dirOverride() string {
	if configDirOverride != "" {
		return configDirOverride
	}
	return os.Getenv(ConfigDirEnvVar)
}
