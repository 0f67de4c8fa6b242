// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/kestrel-sh/kestrel/internal/config"
	"github.com/kestrel-sh/kestrel/internal/issue"
	"github.com/kestrel-sh/kestrel/internal/shell"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// newRootCommand builds the command tree around app.
func newRootCommand(app *App) *cobra.Command {
	var line string

	rootCmd := &cobra.Command{
		Use:   config.AppName,
		Short: "A small interactive shell",
		Long: TitleStyle.Render(config.AppName) + SubtitleStyle.Render(" - a small interactive shell") + `

Without arguments kestrel reads one command per line from standard input,
runs the builtins exit, pwd, cd, type and echo itself, and looks up anything
else on PATH.

` + SubtitleStyle.Render("Examples:") + `
  kestrel                   Start the interactive shell
  kestrel -c 'type ls'      Run a single line and exit
  kestrel which -a ls       Show every ls on PATH
  kestrel serve             Serve the shell over SSH
  kestrel config show       Show current configuration
  kestrel issues 2          Explain a known problem`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("command") {
				return runLine(cmd.Context(), app, line)
			}
			return runInteractive(cmd.Context(), app)
		},
	}

	rootCmd.SetIn(app.stdin)
	rootCmd.SetOut(app.stdout)
	rootCmd.SetErr(app.stderr)

	rootCmd.PersistentFlags().BoolVarP(&app.opts.verbose, "verbose", "v", false, "enable debug logging on stderr")
	rootCmd.PersistentFlags().StringVar(&app.opts.configPath, "config", "", "config file (default is $XDG_CONFIG_HOME/kestrel/config.cue)")
	rootCmd.Flags().StringVarP(&line, "command", "c", "", "run a single line and exit")

	rootCmd.AddCommand(newWhichCommand(app))
	rootCmd.AddCommand(newConfigCommand(app))
	rootCmd.AddCommand(newServeCommand(app))
	rootCmd.AddCommand(newIssuesCommand(app))

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute builds the CLI and runs it. This is called by main.main().
func Execute() {
	app := NewApp(Dependencies{})

	// Use fang.Execute for enhanced Cobra styling
	// Pass version via fang.WithVersion() since fang overrides rootCmd.Version
	if err := fang.Execute(
		context.Background(),
		newRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithErrorHandler(app.handleError),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(int(exitErr.Code))
		}
		os.Exit(1)
	}
}

// runInteractive runs the prompt loop on the app's standard streams.
func runInteractive(ctx context.Context, app *App) error {
	cfg, err := app.loadConfig(ctx)
	if err != nil {
		return err
	}

	out := bufio.NewWriter(app.stdout)
	defer func() { _ = out.Flush() }()

	dispatcher, err := app.newShell(cfg, out)
	if err != nil {
		return &ExitError{Code: 1, Err: err}
	}

	repl := &shell.REPL{
		Dispatcher: dispatcher,
		Input:      shell.NewLineReader(app.stdin),
		Out:        out,
		Prompt:     cfg.Shell.Prompt,
	}

	code, err := repl.Run(ctx)
	if err != nil {
		_ = out.Flush()
		return &ExitError{Code: code, Err: newServiceError(err, issue.InputReadFailedId)}
	}
	if !code.IsSuccess() {
		return &ExitError{Code: code}
	}
	return nil
}

// runLine dispatches a single line, as if typed at the prompt.
func runLine(ctx context.Context, app *App, line string) error {
	cfg, err := app.loadConfig(ctx)
	if err != nil {
		return err
	}

	out := bufio.NewWriter(app.stdout)
	defer func() { _ = out.Flush() }()

	dispatcher, err := app.newShell(cfg, out)
	if err != nil {
		return &ExitError{Code: 1, Err: err}
	}

	outcome := dispatcher.Dispatch(ctx, line)
	if outcome.Exit && !outcome.ExitCode.IsSuccess() {
		return &ExitError{Code: outcome.ExitCode}
	}
	return nil
}
