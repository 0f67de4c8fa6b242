// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"testing"
)

// HomeEnvVar is the variable the shell consults when expanding "~".
const HomeEnvVar = "HOME"

// SetHomeDir points HOME at dir and returns a cleanup function restoring the
// previous value. The shell reads HOME on every platform, so unlike
// os.UserHomeDir no USERPROFILE fallback is involved.
//
//	t.Cleanup(testutil.SetHomeDir(t, t.TempDir()))
func SetHomeDir(t testing.TB, dir string) func() {
	t.Helper()
	return MustSetenv(t, HomeEnvVar, dir)
}

// UnsetHomeDir removes HOME for the duration of a test.
func UnsetHomeDir(t testing.TB) func() {
	t.Helper()
	return MustUnsetenv(t, HomeEnvVar)
}
