// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/kestrel-sh/kestrel/internal/shell"

	"github.com/spf13/cobra"
)

// newWhichCommand creates `kestrel which`, which reports resolution the same
// way the type builtin does.
func newWhichCommand(app *App) *cobra.Command {
	var all bool

	whichCmd := &cobra.Command{
		Use:   "which NAME...",
		Short: "Show how command names resolve",
		Long: `Show how each NAME would be run by the shell.

Builtins are reported first. Otherwise the first PATH entry containing NAME
wins; --all lists every match in PATH order, including shadowed ones.
Exits with status 1 if any NAME is not found.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			resolver := newResolver(cfg)
			out := cmd.OutOrStdout()

			missing := 0
			for _, name := range args {
				if !all {
					line, found := shell.Describe(resolver, name)
					fmt.Fprintln(out, line)
					if !found {
						missing++
					}
					continue
				}

				builtin := shell.IsBuiltin(name)
				if builtin {
					line, _ := shell.Describe(resolver, name)
					fmt.Fprintln(out, line)
				}
				candidates := resolver.Candidates(name)
				for _, path := range candidates {
					fmt.Fprintln(out, shell.DescribePath(name, path))
				}
				if !builtin && len(candidates) == 0 {
					line, _ := shell.Describe(resolver, name)
					fmt.Fprintln(out, line)
					missing++
				}
			}

			if missing > 0 {
				return &ExitError{Code: 1}
			}
			return nil
		},
	}

	whichCmd.Flags().BoolVarP(&all, "all", "a", false, "list every match on PATH")

	return whichCmd
}
