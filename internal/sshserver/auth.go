// SPDX-License-Identifier: MPL-2.0

package sshserver

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/kestrel-sh/kestrel/internal/issue"

	"github.com/charmbracelet/ssh"
	gossh "golang.org/x/crypto/ssh"
)

// ErrNoAuthorizedKeys is returned when an authorized_keys file lists no keys.
var ErrNoAuthorizedKeys = errors.New("no public keys found")

// LoadAuthorizedKeys reads an OpenSSH authorized_keys file. Blank lines and
// comments are skipped; any other line that does not parse fails the load,
// as does a file with no keys at all.
func LoadAuthorizedKeys(path string) ([]ssh.PublicKey, error) {
	errCtx := issue.NewErrorContext().
		WithOperation("read authorized keys").
		WithResource(path).
		WithIssue(issue.AuthorizedKeysInvalidId)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errCtx.WithSuggestion("Check that serve.authorized_keys_path points at a readable file").
			Wrap(err).BuildError()
	}

	var keys []ssh.PublicKey
	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		key, _, _, _, err := gossh.ParseAuthorizedKey(line)
		if err != nil {
			return nil, errCtx.WithSuggestion("Use one OpenSSH public key per line").
				Wrap(fmt.Errorf("line %d: %w", lineNo, err)).BuildError()
		}
		keys = append(keys, key)
	}
	if err := scanner.Err(); err != nil {
		return nil, errCtx.Wrap(err).BuildError()
	}
	if len(keys) == 0 {
		return nil, errCtx.WithSuggestion("Add at least one public key, or leave the setting empty").
			Wrap(ErrNoAuthorizedKeys).BuildError()
	}

	return keys, nil
}

// publicKeyHandler accepts only keys listed in the authorized_keys file.
func (s *Server) publicKeyHandler(ctx ssh.Context, key ssh.PublicKey) bool {
	s.srvMu.Lock()
	keys := s.authorizedKeys
	s.srvMu.Unlock()

	for _, allowed := range keys {
		if ssh.KeysEqual(key, allowed) {
			return true
		}
	}

	s.logger.Warn("rejected public key",
		"user", ctx.User(),
		"remote", ctx.RemoteAddr().String(),
		"fingerprint", gossh.FingerprintSHA256(key))
	return false
}
