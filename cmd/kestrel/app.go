// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/kestrel-sh/kestrel/internal/config"
	"github.com/kestrel-sh/kestrel/internal/issue"
	"github.com/kestrel-sh/kestrel/internal/resolve"
	"github.com/kestrel-sh/kestrel/internal/shell"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
)

type (
	// rootOptions holds the persistent flags shared by every command.
	rootOptions struct {
		verbose    bool
		configPath string
	}

	// App wires CLI services and shared dependencies. It is the composition root for
	// the CLI layer: all Cobra command handlers receive an App reference.
	App struct {
		Config config.Provider
		stdin  io.Reader
		stdout io.Writer
		stderr io.Writer

		opts rootOptions
		// colorScheme selects the glamour style for issue rendering. It is
		// updated whenever a configuration is loaded.
		colorScheme config.ColorScheme
		logger      *log.Logger
	}

	// Dependencies defines the injection points for building an App. Nil fields are
	// replaced with production defaults by NewApp.
	Dependencies struct {
		Config config.Provider
		Stdin  io.Reader
		Stdout io.Writer
		Stderr io.Writer
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Stdin == nil {
		deps.Stdin = os.Stdin
	}
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}

	return &App{
		Config:      deps.Config,
		stdin:       deps.Stdin,
		stdout:      deps.Stdout,
		stderr:      deps.Stderr,
		colorScheme: config.ColorSchemeAuto,
		logger:      log.NewWithOptions(deps.Stderr, log.Options{Prefix: config.AppName, Level: log.WarnLevel}),
	}
}

// loadConfig loads the configuration. A file named with --config must load;
// any other failure is reported as a warning and the defaults are used.
func (a *App) loadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: a.opts.configPath})
	if err != nil {
		if a.opts.configPath != "" || errors.Is(err, context.Canceled) {
			return nil, newServiceError(err, issue.ConfigLoadFailedId)
		}
		fmt.Fprintln(a.stderr, WarningStyle.Render("Warning: ")+formatErrorForDisplay(err, a.opts.verbose))
		cfg = config.DefaultConfig()
	}

	a.colorScheme = cfg.UI.ColorScheme
	a.logger = a.newLogger(cfg)
	return cfg, nil
}

// newLogger builds the stderr logger for cfg. --verbose forces debug.
func (a *App) newLogger(cfg *config.Config) *log.Logger {
	level, err := log.ParseLevel(cfg.Log.Level.String())
	if err != nil {
		level = log.WarnLevel
	}
	if a.opts.verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(a.stderr, log.Options{
		Prefix: config.AppName,
		Level:  level,
	})
}

// newResolver returns the PATH resolver configured by cfg.
func newResolver(cfg *config.Config) *resolve.Resolver {
	r := resolve.New()
	r.RequireExecutable = cfg.Resolver.RequireExecutable
	return r
}

// newShell builds the local session and dispatcher writing to out.
func (a *App) newShell(cfg *config.Config, out io.Writer) (*shell.Dispatcher, error) {
	session, err := shell.NewSession(shell.WithSyncProcessDir(cfg.Shell.SyncProcessDir))
	if err != nil {
		return nil, err
	}
	return shell.NewDispatcher(session, out,
		shell.WithResolver(newResolver(cfg)),
		shell.WithLogger(a.logger),
	), nil
}

// handleError is the fang error handler. Bare exit codes print nothing and
// service errors are followed by their catalogue entry.
func (a *App) handleError(w io.Writer, styles fang.Styles, err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Err == nil {
		return
	}

	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		renderServiceError(w, svcErr, a.colorScheme.String(), a.opts.verbose, a.logger)
		return
	}

	fang.DefaultErrorHandler(w, styles, err)
}
