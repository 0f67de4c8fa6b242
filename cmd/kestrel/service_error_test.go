// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/kestrel-sh/kestrel/internal/issue"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
)

func TestNewServiceError_PanicsOnNil(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Error("newServiceError(nil) should panic")
		}
	}()
	_ = newServiceError(nil, issue.ServeFailedId)
}

func TestNewServiceError_TakesIssueFromChain(t *testing.T) {
	t.Parallel()

	ae := issue.NewErrorContext().
		WithOperation("load authorized keys").
		WithIssue(issue.AuthorizedKeysInvalidId).
		Wrap(errors.New("bad line")).
		BuildError()

	if got := newServiceError(ae, 0).IssueID; got != issue.AuthorizedKeysInvalidId {
		t.Errorf("IssueID = %d, want %d", got, issue.AuthorizedKeysInvalidId)
	}
	if got := newServiceError(ae, issue.ServeFailedId).IssueID; got != issue.ServeFailedId {
		t.Errorf("explicit IssueID = %d, want %d", got, issue.ServeFailedId)
	}
	if got := newServiceError(errors.New("plain"), 0).IssueID; got != 0 {
		t.Errorf("plain error IssueID = %d, want 0", got)
	}
}

func TestHandleError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		err       error
		wantEmpty bool
		want      []string
	}{
		{
			name:      "bare exit status",
			err:       &ExitError{Code: 3},
			wantEmpty: true,
		},
		{
			name: "service error with issue",
			err:  newServiceError(errors.New("address already in use"), issue.ServeFailedId),
			want: []string{"Error: ", "address already in use"},
		},
		{
			name: "exit error wrapping service error",
			err:  &ExitError{Code: 1, Err: newServiceError(errors.New("stdin closed"), issue.InputReadFailedId)},
			want: []string{"Error: ", "stdin closed"},
		},
		{
			name: "service error without issue",
			err:  newServiceError(errors.New("boom"), 0),
			want: []string{"Error: boom"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			app := NewApp(Dependencies{Stderr: &buf, Config: staticProvider{}})
			app.logger = log.New(&buf)
			app.handleError(&buf, fang.Styles{}, tt.err)

			got := buf.String()
			if tt.wantEmpty {
				if got != "" {
					t.Errorf("handleError printed %q, want nothing", got)
				}
				return
			}
			for _, want := range tt.want {
				if !strings.Contains(got, want) {
					t.Errorf("output missing %q:\n%s", want, got)
				}
			}
		})
	}
}
