// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"io/fs"
	"strings"
	"testing"
)

func TestActionableError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      *ActionableError
		expected string
	}{
		{
			name:     "operation only",
			err:      &ActionableError{Operation: "load configuration"},
			expected: "failed to load configuration",
		},
		{
			name:     "with resource",
			err:      &ActionableError{Operation: "load configuration", Resource: "./config.cue"},
			expected: "failed to load configuration: ./config.cue",
		},
		{
			name: "with resource and cause",
			err: &ActionableError{
				Operation: "start SSH server",
				Resource:  "127.0.0.1:2222",
				Cause:     errors.New("address already in use"),
			},
			expected: "failed to start SSH server: 127.0.0.1:2222: address already in use",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestActionableError_Unwrap(t *testing.T) {
	t.Parallel()

	err := WrapWithOperation(fs.ErrNotExist, "read host key")
	if !errors.Is(err, fs.ErrNotExist) {
		t.Error("errors.Is should find the wrapped cause")
	}
	if WrapWithOperation(nil, "noop") != nil {
		t.Error("WrapWithOperation(nil) should return nil")
	}
}

func TestActionableError_Format(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      *ActionableError
		verbose  bool
		contains []string
		excludes []string
	}{
		{
			name: "suggestions as bullets",
			err: &ActionableError{
				Operation:   "load configuration",
				Resource:    "./config.cue",
				Suggestions: []string{"Run 'kestrel config init'", "Check file permissions"},
			},
			contains: []string{
				"failed to load configuration: ./config.cue",
				"• Run 'kestrel config init'",
				"• Check file permissions",
			},
		},
		{
			name: "no chain unless verbose",
			err: &ActionableError{
				Operation: "parse config",
				Cause:     errors.New("syntax error"),
			},
			contains: []string{"failed to parse config: syntax error"},
			excludes: []string{"Error chain:"},
		},
		{
			name: "nested chain when verbose",
			err: &ActionableError{
				Operation: "start SSH server",
				Cause: &ActionableError{
					Operation: "load host key",
					Cause:     errors.New("permission denied"),
				},
			},
			verbose: true,
			contains: []string{
				"Error chain:",
				"1. failed to load host key: permission denied",
				"2. permission denied",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := tt.err.Format(tt.verbose)
			for _, s := range tt.contains {
				if !strings.Contains(got, s) {
					t.Errorf("Format() missing %q\ngot:\n%s", s, got)
				}
			}
			for _, s := range tt.excludes {
				if strings.Contains(got, s) {
					t.Errorf("Format() should not contain %q\ngot:\n%s", s, got)
				}
			}
		})
	}
}

func TestErrorContext_Build(t *testing.T) {
	t.Parallel()

	cause := errors.New("boom")
	ae := NewErrorContext().
		WithOperation("read authorized keys").
		WithResource("/etc/kestrel/authorized_keys").
		WithSuggestion("one").
		WithSuggestions("two", "three").
		WithIssue(AuthorizedKeysInvalidId).
		Wrap(cause).
		Build()

	if ae == nil {
		t.Fatal("Build() returned nil")
	}
	if ae.Operation != "read authorized keys" || ae.Resource != "/etc/kestrel/authorized_keys" {
		t.Errorf("Build() = %+v", ae)
	}
	if strings.Join(ae.Suggestions, ",") != "one,two,three" {
		t.Errorf("Suggestions = %v", ae.Suggestions)
	}
	if ae.Issue != AuthorizedKeysInvalidId {
		t.Errorf("Issue = %d, want %d", ae.Issue, AuthorizedKeysInvalidId)
	}
	if !errors.Is(ae, cause) {
		t.Error("built error should wrap the cause")
	}
}

func TestErrorContext_BuildWithoutOperation(t *testing.T) {
	t.Parallel()

	if ae := NewErrorContext().WithResource("x").Build(); ae != nil {
		t.Errorf("Build() = %+v, want nil without an operation", ae)
	}
	if err := NewErrorContext().BuildError(); err != nil {
		t.Errorf("BuildError() = %v, want a nil interface", err)
	}
}
