// SPDX-License-Identifier: MPL-2.0

package shell

import "golang.org/x/exp/slices"

// builtinNames is the closed set of names implemented by the shell itself.
var builtinNames = []string{"cd", "echo", "exit", "pwd", "type"}

// IsBuiltin reports whether name is implemented by the shell. A builtin name
// shadows any executable of the same name on the search path.
func IsBuiltin(name string) bool {
	_, found := slices.BinarySearch(builtinNames, name)
	return found
}

// Builtins returns the builtin names in sorted order.
func Builtins() []string {
	return slices.Clone(builtinNames)
}
