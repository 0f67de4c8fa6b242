// SPDX-License-Identifier: MPL-2.0

package sshserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"sync"

	"github.com/kestrel-sh/kestrel/internal/core/serverbase"
	"github.com/kestrel-sh/kestrel/internal/shell"

	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/logging"
)

type (
	// Server serves kestrel shell sessions over SSH.
	// A Server instance is single-use: once stopped or failed, create a new instance.
	Server struct {
		*serverbase.Base

		cfg    Config
		logger *log.Logger

		// resolver is shared by all sessions; it only reads the environment.
		resolver shell.Resolver

		// Written during Start, read by Address and doStop.
		srvMu          sync.Mutex
		srv            *ssh.Server
		listener       net.Listener
		addr           string
		dir            string
		authorizedKeys []ssh.PublicKey
	}

	// Option configures a Server.
	Option func(*Server)
)

// WithLogger replaces the default stderr logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithResolver overrides how sessions look up external programs.
func WithResolver(r shell.Resolver) Option {
	return func(s *Server) {
		s.resolver = r
	}
}

// New creates a new SSH server instance.
// The server is not started; call Start() to begin accepting connections.
func New(cfg Config, opts ...Option) *Server {
	// Apply defaults
	defaults := DefaultConfig()
	if cfg.Host == "" {
		cfg.Host = defaults.Host
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = defaults.ShutdownTimeout
	}
	if cfg.StartupTimeout == 0 {
		cfg.StartupTimeout = defaults.StartupTimeout
	}

	s := &Server{
		Base: serverbase.NewBase(),
		cfg:  cfg,
		logger: log.NewWithOptions(os.Stderr, log.Options{
			Prefix: "ssh-server",
		}),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start opens the listener and blocks until either:
//   - The server is ready to accept connections (returns nil)
//   - The configuration, host key or authorized keys are unusable (returns error)
//   - The context is cancelled or the startup timeout is exceeded (returns error)
//
// After Start() returns nil, call WaitForShutdown to serve until done.
func (s *Server) Start(ctx context.Context) error {
	if err := s.cfg.Validate(); err != nil {
		s.Fail(err)
		return err
	}

	if err := s.Starting(ctx); err != nil {
		return err
	}

	dir := s.cfg.Dir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			s.Fail(fmt.Errorf("failed to determine session directory: %w", err))
			return s.LastError()
		}
		dir = wd
	}

	var keys []ssh.PublicKey
	if s.cfg.AuthorizedKeysPath != "" {
		loaded, err := LoadAuthorizedKeys(s.cfg.AuthorizedKeysPath)
		if err != nil {
			s.Fail(err)
			return err
		}
		keys = loaded
	}

	startupCtx, startupCancel := context.WithTimeout(ctx, s.cfg.StartupTimeout)
	defer startupCancel()

	addr := net.JoinHostPort(s.cfg.Host.String(), strconv.Itoa(int(s.cfg.Port)))
	var lc net.ListenConfig
	listener, err := lc.Listen(startupCtx, "tcp", addr)
	if err != nil {
		s.Fail(fmt.Errorf("failed to listen on %s: %w", addr, err))
		return s.LastError()
	}

	srv, err := wish.NewServer(s.serverOptions(addr, keys)...)
	if err != nil {
		_ = listener.Close() // Best-effort cleanup on error
		s.Fail(fmt.Errorf("failed to create SSH server: %w", err))
		return s.LastError()
	}

	s.srvMu.Lock()
	s.srv = srv
	s.listener = listener
	s.addr = listener.Addr().String()
	s.dir = dir
	s.authorizedKeys = keys
	s.srvMu.Unlock()

	s.Go(s.serve)

	if err := s.WaitForReady(startupCtx); err != nil {
		_ = listener.Close()
		s.Fail(fmt.Errorf("startup timeout: %w", err))
		return s.LastError()
	}

	s.logger.Info("SSH server started", "address", s.Address(), "dir", dir)
	if keys == nil {
		s.logger.Warn("no authorized keys configured; accepting any client", "address", s.Address())
	}
	return nil
}

func (s *Server) serverOptions(addr string, keys []ssh.PublicKey) []ssh.Option {
	opts := []ssh.Option{
		wish.WithAddress(addr),
		wish.WithMiddleware(
			s.shellMiddleware(),
			logging.StructuredMiddlewareWithLogger(s.logger, log.InfoLevel),
		),
	}
	if s.cfg.HostKeyPath != "" {
		opts = append(opts, wish.WithHostKeyPath(s.cfg.HostKeyPath))
	}
	if s.cfg.IdleTimeout > 0 {
		opts = append(opts, wish.WithIdleTimeout(s.cfg.IdleTimeout))
	}
	// With no auth handler registered the server skips client authentication.
	if keys != nil {
		opts = append(opts, wish.WithPublicKeyAuth(s.publicKeyHandler))
	}
	return opts
}

// Stop gracefully stops the SSH server, waiting up to ShutdownTimeout for
// open sessions before closing them.
// Safe to call multiple times; subsequent calls are no-ops.
func (s *Server) Stop() error {
	if !s.Stopping() {
		s.Wait()
		return nil
	}
	return s.doStop()
}

func (s *Server) doStop() error {
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer shutdownCancel()

	var shutdownErr error
	s.srvMu.Lock()
	if s.srv != nil {
		shutdownErr = s.srv.Shutdown(shutdownCtx)
		if errors.Is(shutdownErr, context.DeadlineExceeded) {
			s.logger.Warn("sessions still open after shutdown timeout; closing", "active", s.ActiveSessions())
			shutdownErr = s.srv.Close()
		}
		if shutdownErr != nil && !isClosedConnError(shutdownErr) && !errors.Is(shutdownErr, ssh.ErrServerClosed) {
			s.logger.Error("shutdown error", "error", shutdownErr)
		} else {
			shutdownErr = nil
		}
	}
	if s.listener != nil {
		_ = s.listener.Close() // Best-effort cleanup during shutdown
	}
	s.srvMu.Unlock()

	s.Wait()

	s.Stopped()
	s.CloseErr()
	s.logger.Info("SSH server stopped", "sessions", s.TotalSessions())

	return shutdownErr
}

func (s *Server) serve() {
	s.Running()

	s.srvMu.Lock()
	srv := s.srv
	listener := s.listener
	s.srvMu.Unlock()

	if srv == nil || listener == nil {
		return
	}

	err := srv.Serve(listener)
	if err != nil {
		// Ignore expected shutdown errors
		if errors.Is(err, ssh.ErrServerClosed) || errors.Is(err, net.ErrClosed) {
			return
		}
		s.SendError(fmt.Errorf("serve error: %w", err))
	}
}

// Address returns the server's bound address (host:port), or an empty
// string while the server is not running.
func (s *Server) Address() string {
	if !s.IsRunning() {
		return ""
	}
	s.srvMu.Lock()
	defer s.srvMu.Unlock()
	return s.addr
}

// Port returns the server's listening port, or 0 before it is running.
func (s *Server) Port() int {
	addr := s.Address()
	if addr == "" {
		return 0
	}
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return 0
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 0
	}
	return port
}

// Host returns the server's configured host address.
func (s *Server) Host() HostAddress {
	return s.cfg.Host
}

// Dir returns the directory new sessions start in.
func (s *Server) Dir() string {
	s.srvMu.Lock()
	defer s.srvMu.Unlock()
	return s.dir
}

// WaitForShutdown serves until ctx is done or the server reports a fatal
// error, then stops it. The serve error wins over a shutdown error. A server
// that has already stopped or failed returns its LastError at once.
func (s *Server) WaitForShutdown(ctx context.Context) error {
	if s.State().IsTerminal() {
		return s.LastError()
	}

	var serveErr error
	select {
	case <-ctx.Done():
	case err, ok := <-s.Err():
		if ok {
			serveErr = err
		}
	}

	stopErr := s.Stop()
	if serveErr != nil {
		return serveErr
	}
	return stopErr
}

// isClosedConnError checks if the error is a "use of closed network connection" error.
func isClosedConnError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, net.ErrClosed) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Err.Error() == "use of closed network connection"
	}
	return false
}
