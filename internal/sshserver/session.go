// SPDX-License-Identifier: MPL-2.0

package sshserver

import (
	"io"

	"github.com/kestrel-sh/kestrel/internal/resolve"
	"github.com/kestrel-sh/kestrel/internal/runtime"
	"github.com/kestrel-sh/kestrel/internal/shell"

	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"golang.org/x/term"
)

// shellMiddleware is the terminal handler: it runs a kestrel shell in place
// of whatever handler would follow.
func (s *Server) shellMiddleware() wish.Middleware {
	return func(ssh.Handler) ssh.Handler {
		return s.handleSession
	}
}

func (s *Server) handleSession(sess ssh.Session) {
	done := s.SessionStarted()
	defer done()

	logger := s.logger.With("user", sess.User(), "remote", sess.RemoteAddr().String())
	logger.Info("session started", "active", s.ActiveSessions())

	code := s.runShell(sess, logger)

	logger.Info("session ended", "exit_code", int(code))
	_ = sess.Exit(int(code)) //nolint:errcheck // Client may already be gone
}

func (s *Server) runShell(sess ssh.Session, logger *log.Logger) runtime.ExitCode {
	session, err := shell.NewSession(
		shell.WithDir(s.Dir()),
		shell.WithSyncProcessDir(false),
	)
	if err != nil {
		logger.Error("cannot create shell session", "error", err)
		wish.Errorln(sess, err)
		return 1
	}

	var (
		out   io.Writer = sess
		input shell.LineReader
	)

	ptyReq, winCh, isPty := sess.Pty()
	if isPty {
		terminal := term.NewTerminal(sess, s.cfg.Prompt)
		_ = terminal.SetSize(ptyReq.Window.Width, ptyReq.Window.Height)
		go func() {
			for win := range winCh {
				_ = terminal.SetSize(win.Width, win.Height)
			}
		}()
		out = terminal
		input = terminal
	} else {
		input = shell.NewLineReader(sess)
	}

	dispatcher := shell.NewDispatcher(session, out,
		shell.WithResolver(s.sessionResolver()),
		shell.WithLogger(s.logger),
	)

	if line := sess.RawCommand(); line != "" {
		outcome := dispatcher.Dispatch(sess.Context(), line)
		if outcome.Exit {
			return outcome.ExitCode
		}
		return 0
	}

	repl := &shell.REPL{
		Dispatcher: dispatcher,
		Input:      input,
		Out:        out,
		Prompt:     s.cfg.Prompt,
	}
	code, err := repl.Run(sess.Context())
	if err != nil {
		logger.Error("session input failed", "error", err)
	}
	return code
}

func (s *Server) sessionResolver() shell.Resolver {
	if s.resolver != nil {
		return s.resolver
	}
	r := resolve.New()
	r.RequireExecutable = s.cfg.RequireExecutable
	return r
}
