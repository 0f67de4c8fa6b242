// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for kestrel.
//
// The root command runs the interactive shell on standard input, or a single
// line with -c. Subcommands inspect command resolution (which), manage the
// configuration file (config) and expose the shell over SSH (serve).
package cmd
