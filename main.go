// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/kestrel-sh/kestrel/cmd/kestrel"

func main() {
	cmd.Execute()
}
