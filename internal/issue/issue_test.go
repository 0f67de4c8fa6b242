// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	t.Parallel()

	tests := []struct {
		id       Id
		contains string
	}{
		{ConfigLoadFailedId, "Failed to load configuration"},
		{ServeFailedId, "Failed to start the SSH server"},
		{HostKeyFailedId, "SSH host key unavailable"},
		{AuthorizedKeysInvalidId, "Authorized keys could not be read"},
		{InputReadFailedId, "Failed to read input"},
	}

	for _, tt := range tests {
		t.Run(tt.contains, func(t *testing.T) {
			t.Parallel()

			issue := Get(tt.id)
			if issue == nil {
				t.Fatalf("Get(%d) returned nil", tt.id)
			}
			if issue.Id() != tt.id {
				t.Errorf("Id() = %d, want %d", issue.Id(), tt.id)
			}
			if !strings.Contains(string(issue.MarkdownMsg()), tt.contains) {
				t.Errorf("MarkdownMsg() should contain %q", tt.contains)
			}
		})
	}

	if Get(Id(9999)) != nil {
		t.Error("Get(unknown) should return nil")
	}
}

func TestValues_OrderedById(t *testing.T) {
	t.Parallel()

	values := Values()
	if len(values) != len(issues) {
		t.Fatalf("Values() returned %d issues, want %d", len(values), len(issues))
	}
	for i, issue := range values {
		if issue.Id() != Id(i+1) {
			t.Errorf("Values()[%d].Id() = %d, want %d", i, issue.Id(), i+1)
		}
	}
}

func TestIssue_Title(t *testing.T) {
	t.Parallel()

	tests := []struct {
		id   Id
		want string
	}{
		{ConfigLoadFailedId, "Failed to load configuration"},
		{ServeFailedId, "Failed to start the SSH server"},
		{HostKeyFailedId, "SSH host key unavailable"},
		{AuthorizedKeysInvalidId, "Authorized keys could not be read"},
		{InputReadFailedId, "Failed to read input"},
	}

	for _, tt := range tests {
		if got := Get(tt.id).Title(); got != tt.want {
			t.Errorf("Get(%d).Title() = %q, want %q", tt.id, got, tt.want)
		}
	}

	if got := (&Issue{mdMsg: "no heading here\n## Sub\n"}).Title(); got != "" {
		t.Errorf("Title() without a heading = %q, want empty", got)
	}
}

func TestIssue_LinksAreCopies(t *testing.T) {
	t.Parallel()

	issue := Get(HostKeyFailedId)
	links := issue.ExtLinks()
	if len(links) == 0 {
		t.Fatal("expected external links on the host key issue")
	}
	original := links[0]
	links[0] = "modified"
	if issue.ExtLinks()[0] != original {
		t.Error("ExtLinks() should return a clone")
	}
}

func TestIssue_Markdown(t *testing.T) {
	t.Parallel()

	md := Get(AuthorizedKeysInvalidId).Markdown()
	if !strings.Contains(md, "## See also:") || !strings.Contains(md, "AUTHORIZED_KEYS_FILE_FORMAT") {
		t.Errorf("Markdown() should list links:\n%s", md)
	}

	if md := Get(InputReadFailedId).Markdown(); strings.Contains(md, "See also") {
		t.Errorf("issue without links should have no See also section:\n%s", md)
	}
}

func TestIssue_Render(t *testing.T) {
	originalRender := render
	t.Cleanup(func() { render = originalRender })

	var gotStyle string
	render = func(in string, stylePath string) (string, error) {
		gotStyle = stylePath
		return in, nil
	}

	rendered, err := Get(ServeFailedId).Render(StyleDark)
	if err != nil {
		t.Fatalf("Render() returned error: %v", err)
	}
	if gotStyle != StyleDark {
		t.Errorf("style = %q, want %q", gotStyle, StyleDark)
	}
	if !strings.Contains(rendered, "kestrel serve --port 0") {
		t.Errorf("Render() output missing content:\n%s", rendered)
	}
}

func TestIssue_RenderWithGlamour(t *testing.T) {
	t.Parallel()

	rendered, err := Get(ConfigLoadFailedId).Render("notty")
	if err != nil {
		t.Fatalf("Render() returned error: %v", err)
	}
	if !strings.Contains(rendered, "Failed to load configuration") {
		t.Errorf("rendered output missing heading:\n%s", rendered)
	}
}
