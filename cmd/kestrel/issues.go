// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/kestrel-sh/kestrel/internal/issue"

	"github.com/spf13/cobra"
)

// errUnknownIssue is returned for an ID missing from the catalogue.
var errUnknownIssue = errors.New("no such issue")

// newIssuesCommand creates `kestrel issues`, which lists the issue catalogue
// or renders one entry.
func newIssuesCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "issues [ID]",
		Short: "List known problems or show the guidance for one",
		Long: `List the known problems kestrel reports with extra guidance.

With an ID, print that entry the same way it is shown after an error.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.loadConfig(cmd.Context()); err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if len(args) == 0 {
				for _, entry := range issue.Values() {
					fmt.Fprintf(out, "%s  %s\n", CmdStyle.Render(strconv.Itoa(int(entry.Id()))), entry.Title())
				}
				return nil
			}

			entry, err := lookupIssue(args[0])
			if err != nil {
				return newServiceError(err, 0)
			}
			rendered, err := entry.Render(app.colorScheme.String())
			if err != nil {
				return newServiceError(issue.WrapWithOperation(err, "render issue "+args[0]), 0)
			}
			fmt.Fprint(out, rendered)
			return nil
		},
	}
}

func lookupIssue(arg string) (*issue.Issue, error) {
	errCtx := issue.NewErrorContext().
		WithOperation("show issue").
		WithResource(arg).
		WithSuggestion("Run 'kestrel issues' to list the known IDs")

	n, err := strconv.Atoi(arg)
	if err != nil {
		return nil, errCtx.Wrap(err).BuildError()
	}
	entry := issue.Get(issue.Id(n))
	if entry == nil {
		return nil, errCtx.Wrap(errUnknownIssue).BuildError()
	}
	return entry, nil
}
