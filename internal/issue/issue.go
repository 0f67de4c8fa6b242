// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

const (
	// ConfigLoadFailedId covers unreadable, malformed or invalid config files.
	ConfigLoadFailedId Id = iota + 1
	// ServeFailedId covers an SSH server that could not bind or serve.
	ServeFailedId
	// HostKeyFailedId covers a host key that could not be read or created.
	HostKeyFailedId
	// AuthorizedKeysInvalidId covers an unreadable or malformed authorized_keys file.
	AuthorizedKeysInvalidId
	// InputReadFailedId covers a broken standard input.
	InputReadFailedId
)

// Style names accepted by Render, matching the ui.color_scheme values.
const (
	StyleAuto  = "auto"
	StyleDark  = "dark"
	StyleLight = "light"
)

type (
	// Id identifies a catalogue entry.
	Id int

	// MarkdownMsg is the guidance text of an issue.
	MarkdownMsg string

	// HttpLink is a documentation URL.
	HttpLink string

	// Issue is a known problem with longer guidance than an error message.
	Issue struct {
		id       Id
		mdMsg    MarkdownMsg
		docLinks []HttpLink
		extLinks []HttpLink
	}
)

var (
	render = glamour.Render

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

kestrel found a configuration file but could not use it.

## Things you can try:
- Check the file for CUE syntax errors; the message above names the field
- Compare it with a freshly generated file:
~~~
$ kestrel config dump
~~~

- Start over from the defaults:
~~~
$ kestrel config init
~~~

- Point at a different file for a single run:
~~~
$ kestrel --config ./other.cue
~~~`,
		extLinks: []HttpLink{"https://cuelang.org/docs/tour/"},
	}

	serveFailedIssue = &Issue{
		id: ServeFailedId,
		mdMsg: `
# Failed to start the SSH server!

The listener could not be opened or the server stopped unexpectedly.

## Common causes:
- Another process already listens on the port
- Ports below 1024 need elevated privileges
- The host address does not belong to this machine

## Things you can try:
- Pick another port:
~~~
$ kestrel serve --port 2223
~~~

- Let the system choose one:
~~~
$ kestrel serve --port 0
~~~`,
	}

	hostKeyFailedIssue = &Issue{
		id: HostKeyFailedId,
		mdMsg: `
# SSH host key unavailable!

The server needs a private host key. By default it is created on first
start inside the configuration directory.

## Things you can try:
- Make sure the configuration directory is writable:
~~~
$ kestrel config path
~~~

- Point ` + "`serve.host_key_path`" + ` at an existing OpenSSH private key
- Remove a corrupted key file so a new one is generated`,
		extLinks: []HttpLink{"https://man.openbsd.org/ssh-keygen"},
	}

	authorizedKeysInvalidIssue = &Issue{
		id: AuthorizedKeysInvalidId,
		mdMsg: `
# Authorized keys could not be read!

` + "`serve.authorized_keys_path`" + ` is set, so only listed keys may log in,
but the file could not be parsed.

## Things you can try:
- Use the OpenSSH format, one public key per line
- Copy an existing key:
~~~
$ cat ~/.ssh/id_ed25519.pub >> authorized_keys
~~~

- Leave the setting empty to accept any client on a trusted loopback address`,
		extLinks: []HttpLink{"https://man.openbsd.org/sshd#AUTHORIZED_KEYS_FILE_FORMAT"},
	}

	inputReadFailedIssue = &Issue{
		id: InputReadFailedId,
		mdMsg: `
# Failed to read input!

The shell stopped because standard input returned an error other than end
of file.

## Things you can try:
- Run a single line without reading input:
~~~
$ kestrel -c 'pwd'
~~~

- Check that the terminal or pipe feeding kestrel is still open`,
	}

	issues = map[Id]*Issue{
		configLoadFailedIssue.Id():      configLoadFailedIssue,
		serveFailedIssue.Id():           serveFailedIssue,
		hostKeyFailedIssue.Id():         hostKeyFailedIssue,
		authorizedKeysInvalidIssue.Id(): authorizedKeysInvalidIssue,
		inputReadFailedIssue.Id():       inputReadFailedIssue,
	}
)

// Id returns the catalogue identifier.
func (i *Issue) Id() Id {
	return i.id
}

// MarkdownMsg returns the guidance text.
func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

// Title returns the text of the first top-level heading, without its
// trailing exclamation mark.
func (i *Issue) Title() string {
	for line := range strings.Lines(string(i.mdMsg)) {
		if heading, ok := strings.CutPrefix(strings.TrimSpace(line), "# "); ok {
			return strings.TrimSuffix(heading, "!")
		}
	}
	return ""
}

// DocLinks returns a copy of the documentation links.
func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

// ExtLinks returns a copy of the external links.
func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Markdown returns the guidance with a "See also" list of links appended.
func (i *Issue) Markdown() string {
	var sb strings.Builder
	sb.WriteString(string(i.mdMsg))

	links := append(i.DocLinks(), i.ExtLinks()...)
	if len(links) > 0 {
		sb.WriteString("\n\n## See also:\n")
		for _, link := range links {
			sb.WriteString("- <")
			sb.WriteString(string(link))
			sb.WriteString(">\n")
		}
	}

	return sb.String()
}

// Render formats the issue for a terminal with the named glamour style.
func (i *Issue) Render(stylePath string) (string, error) {
	return render(i.Markdown(), stylePath)
}

// Values returns every catalogue entry ordered by Id.
func Values() []*Issue {
	ids := make([]Id, 0, len(issues))
	for id := range issues {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	out := make([]*Issue, 0, len(ids))
	for _, id := range ids {
		out = append(out, issues[id])
	}
	return out
}

// Get returns the entry for id, or nil.
func Get(id Id) *Issue {
	return issues[id]
}
