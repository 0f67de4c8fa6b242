// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/kestrel-sh/kestrel/internal/config"
	"github.com/kestrel-sh/kestrel/internal/issue"
	"github.com/kestrel-sh/kestrel/internal/sshserver"

	"github.com/spf13/cobra"
)

// newServeCommand creates `kestrel serve`.
func newServeCommand(app *App) *cobra.Command {
	var (
		host string
		port int
	)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the shell over SSH",
		Long: `Serve the shell over SSH until interrupted.

Every connection gets its own shell session starting in the current
directory. A cd in one session never affects another.

Without serve.authorized_keys_path any client may log in, so keep the
default loopback address unless access is restricted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("host") {
				cfg.Serve.Host = host
			}
			if cmd.Flags().Changed("port") {
				cfg.Serve.Port = config.ListenPort(port)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runServer(ctx, app, cmd, cfg)
		},
	}

	serveCmd.Flags().StringVar(&host, "host", config.DefaultServeHost, "address to listen on")
	serveCmd.Flags().IntVarP(&port, "port", "p", int(config.DefaultServePort), "port to listen on (0 picks a free port)")

	return serveCmd
}

// runServer starts the SSH server and blocks until ctx is done or the
// server fails.
func runServer(ctx context.Context, app *App, cmd *cobra.Command, cfg *config.Config) error {
	hostKey, err := config.HostKeyPath(cfg)
	if err != nil {
		return newServiceError(err, issue.HostKeyFailedId)
	}
	if cfg.Serve.HostKeyPath == "" {
		if _, err := config.EnsureConfigDir(); err != nil {
			return newServiceError(err, issue.HostKeyFailedId)
		}
	}

	logger := app.logger.WithPrefix("ssh-server")

	srv := sshserver.New(sshserver.FromConfig(cfg, hostKey), sshserver.WithLogger(logger))
	if err := srv.Start(ctx); err != nil {
		var ae *issue.ActionableError
		if !errors.As(err, &ae) {
			err = issue.NewErrorContext().
				WithOperation("start SSH server").
				WithResource(net.JoinHostPort(cfg.Serve.Host, strconv.Itoa(int(cfg.Serve.Port)))).
				WithIssue(issue.ServeFailedId).
				Wrap(err).
				BuildError()
		}
		return newServiceError(err, 0)
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "%s %s\n",
		SuccessStyle.Render("Serving kestrel on"), CmdStyle.Render(fmt.Sprintf("ssh -p %d %s", srv.Port(), cfg.Serve.Host)))

	if err := srv.WaitForShutdown(ctx); err != nil {
		return newServiceError(err, issue.ServeFailedId)
	}
	return nil
}
