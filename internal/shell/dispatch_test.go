// SPDX-License-Identifier: MPL-2.0

package shell

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"testing"

	"github.com/kestrel-sh/kestrel/internal/resolve"
	kruntime "github.com/kestrel-sh/kestrel/internal/runtime"
	"github.com/kestrel-sh/kestrel/internal/testutil"

	"github.com/charmbracelet/log"
)

type (
	mapResolver map[string]string

	recordingLauncher struct {
		result   *kruntime.Result
		requests []kruntime.Request
	}
)

func (m mapResolver) Resolve(name string) (string, bool) {
	p, ok := m[name]
	return p, ok
}

func (l *recordingLauncher) Name() string { return "recording" }

func (l *recordingLauncher) Launch(_ context.Context, req kruntime.Request) *kruntime.Result {
	l.requests = append(l.requests, req)
	if l.result == nil {
		return kruntime.NewSuccessResult()
	}
	return l.result
}

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("test scripts require /bin/sh")
	}
}

// pathResolver resolves against the given directories only.
func pathResolver(dirs ...string) *resolve.Resolver {
	value := strings.Join(dirs, string(os.PathListSeparator))
	return &resolve.Resolver{LookupEnv: func(key string) (string, bool) {
		if key == resolve.PathEnvVar {
			return value, true
		}
		return "", false
	}}
}

func newTestDispatcher(t *testing.T, dir string, opts ...DispatcherOption) (*Dispatcher, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	return NewDispatcher(newTestSession(t, dir), &out, opts...), &out
}

func TestDispatch_Exit(t *testing.T) {
	t.Parallel()

	launcher := &recordingLauncher{}
	d, out := newTestDispatcher(t, t.TempDir(), WithResolver(mapResolver{}), WithLauncher(launcher))

	outcome := d.Dispatch(context.Background(), "exit 0")
	if !outcome.Exit || outcome.ExitCode != 0 {
		t.Errorf("Dispatch(exit 0) = %+v, want Exit with code 0", outcome)
	}
	if out.Len() != 0 {
		t.Errorf("exit printed %q", out.String())
	}
	if len(launcher.requests) != 0 {
		t.Error("exit must not launch anything")
	}
}

func TestDispatch_Echo(t *testing.T) {
	t.Parallel()

	tests := []struct {
		line string
		want string
	}{
		{line: "echo hello   world", want: "hello   world\n"},
		{line: "echo", want: "\n"},
		{line: "echo $HOME *.go 'x'", want: "$HOME *.go 'x'\n"},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			t.Parallel()

			d, out := newTestDispatcher(t, t.TempDir(), WithResolver(mapResolver{}))
			if outcome := d.Dispatch(context.Background(), tt.line); outcome.Exit {
				t.Fatal("echo should not exit")
			}
			if out.String() != tt.want {
				t.Errorf("output = %q, want %q", out.String(), tt.want)
			}
		})
	}
}

func TestDispatch_CdThenPwd(t *testing.T) {
	t.Parallel()

	root := physical(t, t.TempDir())
	testutil.MustMkdirAll(t, filepath.Join(root, "sub"), 0o755)
	d, out := newTestDispatcher(t, root, WithResolver(mapResolver{}))
	ctx := context.Background()

	d.Dispatch(ctx, "cd sub")
	d.Dispatch(ctx, "pwd")
	d.Dispatch(ctx, "cd missing")
	d.Dispatch(ctx, "pwd")

	want := filepath.Join(root, "sub") + "\n" +
		"cd: missing: No such file or directory\n" +
		filepath.Join(root, "sub") + "\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}

func TestDispatch_PwdFailure(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	gone := filepath.Join(root, "gone")
	testutil.MustMkdirAll(t, gone, 0o755)

	d, out := newTestDispatcher(t, gone, WithResolver(mapResolver{}))
	if err := os.Remove(gone); err != nil {
		t.Fatal(err)
	}

	outcome := d.Dispatch(context.Background(), "pwd")
	if outcome.Exit {
		t.Fatal("pwd failure must not end the loop")
	}
	if out.String() != "Error retrieving current directory\n" {
		t.Errorf("output = %q", out.String())
	}
}

func TestDispatch_TypeShadowsSearchPath(t *testing.T) {
	t.Parallel()
	skipOnWindows(t)

	bin := t.TempDir()
	for _, name := range Builtins() {
		testutil.WriteExecutable(t, bin, name, "true")
	}

	for _, name := range Builtins() {
		d, out := newTestDispatcher(t, t.TempDir(), WithResolver(pathResolver(bin)))
		d.Dispatch(context.Background(), "type "+name)
		if want := name + " is a shell builtin\n"; out.String() != want {
			t.Errorf("type %s printed %q, want %q", name, out.String(), want)
		}
	}
}

func TestDispatch_Type(t *testing.T) {
	t.Parallel()
	skipOnWindows(t)

	bin := t.TempDir()
	tool := testutil.WriteExecutable(t, bin, "tool", "true")

	tests := []struct {
		line string
		want string
	}{
		{line: "type tool", want: "tool is " + tool + "\n"},
		{line: "type ghost", want: "ghost: not found\n"},
		{line: "type  tool", want: " tool: not found\n"},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			t.Parallel()

			d, out := newTestDispatcher(t, t.TempDir(), WithResolver(pathResolver(bin)))
			d.Dispatch(context.Background(), tt.line)
			if out.String() != tt.want {
				t.Errorf("output = %q, want %q", out.String(), tt.want)
			}
		})
	}
}

func TestDispatch_CommandNotFound(t *testing.T) {
	t.Parallel()

	launcher := &recordingLauncher{}
	d, out := newTestDispatcher(t, t.TempDir(), WithResolver(pathResolver()), WithLauncher(launcher))

	outcome := d.Dispatch(context.Background(), "foobarbaz --flag")
	if out.String() != "foobarbaz: command not found\n" {
		t.Errorf("output = %q", out.String())
	}
	if outcome.Result != nil || len(launcher.requests) != 0 {
		t.Error("an unresolved command must not be launched")
	}
}

func TestDispatch_ExternalRequest(t *testing.T) {
	t.Parallel()

	root := physical(t, t.TempDir())
	launcher := &recordingLauncher{result: &kruntime.Result{Output: "out\n", ErrOutput: "noise\n", ExitCode: 7}}

	t.Run("unsynced session passes its dir", func(t *testing.T) {
		t.Parallel()

		l := &recordingLauncher{}
		d, _ := newTestDispatcher(t, root, WithResolver(mapResolver{"ls": "/bin/ls"}), WithLauncher(l))
		d.Dispatch(context.Background(), "ls   -l  -a")

		if len(l.requests) != 1 {
			t.Fatalf("launch count = %d, want 1", len(l.requests))
		}
		req := l.requests[0]
		if req.Path != "/bin/ls" || strings.Join(req.Args, ",") != "-l,-a" || req.Dir != root {
			t.Errorf("request = %+v", req)
		}
	})

	t.Run("synced session inherits the process dir", func(t *testing.T) {
		t.Parallel()

		l := &recordingLauncher{}
		var out bytes.Buffer
		s := newTestSession(t, root, WithSyncProcessDir(true))
		d := NewDispatcher(s, &out, WithResolver(mapResolver{"ls": "/bin/ls"}), WithLauncher(l))
		d.Dispatch(context.Background(), "ls")

		if len(l.requests) != 1 || l.requests[0].Dir != "" {
			t.Errorf("requests = %+v, want one with empty Dir", l.requests)
		}
	})

	t.Run("only stdout is printed", func(t *testing.T) {
		t.Parallel()

		d, out := newTestDispatcher(t, root, WithResolver(mapResolver{"tool": "/opt/tool"}), WithLauncher(launcher))
		outcome := d.Dispatch(context.Background(), "tool")

		if out.String() != "out\n" {
			t.Errorf("output = %q, want %q", out.String(), "out\n")
		}
		if outcome.Result == nil || outcome.Result.ExitCode != 7 {
			t.Errorf("Outcome.Result = %+v, want the launcher result", outcome.Result)
		}
		if outcome.Exit {
			t.Error("a failing child must not end the loop")
		}
	})

	t.Run("launch failure", func(t *testing.T) {
		t.Parallel()

		l := &recordingLauncher{result: kruntime.NewErrorResult(1, syscall.EACCES)}
		d, out := newTestDispatcher(t, root, WithResolver(mapResolver{"tool": "/opt/tool"}), WithLauncher(l))
		d.Dispatch(context.Background(), "tool")

		if want := "Error running command: permission denied\n"; out.String() != want {
			t.Errorf("output = %q, want %q", out.String(), want)
		}
	})
}

func TestDispatch_RealProgram(t *testing.T) {
	t.Parallel()
	skipOnWindows(t)

	bin := t.TempDir()
	testutil.WriteExecutable(t, bin, "okay", `printf 'ok\n'; printf 'hidden\n' >&2; exit 4`)
	testutil.MustWriteFile(t, bin, "plain", []byte("echo nope\n"), 0o644)

	t.Run("stdout only", func(t *testing.T) {
		t.Parallel()

		d, out := newTestDispatcher(t, t.TempDir(), WithResolver(pathResolver(bin)))
		outcome := d.Dispatch(context.Background(), "okay")
		if out.String() != "ok\n" {
			t.Errorf("output = %q, want %q", out.String(), "ok\n")
		}
		if outcome.Result == nil || outcome.Result.ErrOutput != "hidden\n" || outcome.Result.ExitCode != 4 {
			t.Errorf("Outcome.Result = %+v", outcome.Result)
		}
	})

	t.Run("non-executable match", func(t *testing.T) {
		t.Parallel()

		d, out := newTestDispatcher(t, t.TempDir(), WithResolver(pathResolver(bin)))
		outcome := d.Dispatch(context.Background(), "plain")
		if want := "Error running command: permission denied\n"; out.String() != want {
			t.Errorf("output = %q, want %q", out.String(), want)
		}
		if outcome.Result == nil || outcome.Result.Started() {
			t.Errorf("Outcome.Result = %+v, want a launch failure", outcome.Result)
		}
	})

	t.Run("runs in session dir", func(t *testing.T) {
		t.Parallel()

		work := t.TempDir()
		testutil.WriteExecutable(t, bin, "where", "pwd -P")
		d, out := newTestDispatcher(t, work, WithResolver(pathResolver(bin)))
		d.Dispatch(context.Background(), "where")

		want, err := filepath.EvalSymlinks(work)
		if err != nil {
			t.Fatal(err)
		}
		if got := strings.TrimSpace(out.String()); got != want {
			t.Errorf("child ran in %q, want %q", got, want)
		}
	})
}

func TestDispatch_FlushesBufferedOutput(t *testing.T) {
	t.Parallel()

	var sink bytes.Buffer
	w := bufio.NewWriterSize(&sink, 4096)
	d := NewDispatcher(newTestSession(t, t.TempDir()), w,
		WithResolver(mapResolver{"tool": "/opt/tool"}),
		WithLauncher(&recordingLauncher{result: &kruntime.Result{Output: "ok\n"}}))

	d.Dispatch(context.Background(), "tool")
	if sink.String() != "ok\n" {
		t.Errorf("sink = %q after external output, want it flushed", sink.String())
	}

	d.Dispatch(context.Background(), "echo hi")
	if sink.String() != "ok\nhi\n" {
		t.Errorf("sink = %q after echo, want it flushed", sink.String())
	}
}

func TestDispatch_NeverExitsExceptDirective(t *testing.T) {
	t.Parallel()

	d, _ := newTestDispatcher(t, t.TempDir(),
		WithResolver(mapResolver{}),
		WithLauncher(&recordingLauncher{result: kruntime.NewErrorResult(1, errors.New("boom"))}))

	for _, line := range []string{"", "exit", "exit 1", "cd /definitely/missing", "type x", "nope", "pwd", "echo"} {
		if d.Dispatch(context.Background(), line).Exit {
			t.Errorf("Dispatch(%q) requested exit", line)
		}
	}
}

func TestDescribe(t *testing.T) {
	t.Parallel()

	r := mapResolver{"ls": "/bin/ls", "echo": "/bin/echo"}
	tests := []struct {
		name      string
		wantLine  string
		wantFound bool
	}{
		{"echo", "echo is a shell builtin", true},
		{"ls", "ls is /bin/ls", true},
		{"nope", "nope: not found", false},
	}

	for _, tt := range tests {
		line, found := Describe(r, tt.name)
		if line != tt.wantLine || found != tt.wantFound {
			t.Errorf("Describe(%q) = (%q, %v), want (%q, %v)", tt.name, line, found, tt.wantLine, tt.wantFound)
		}
	}
}

func TestDispatch_LogsExitStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		result *kruntime.Result
		want   []string
	}{
		{"success", kruntime.NewSuccessResult(), []string{"exit_code=0", "success=true", "signaled=false"}},
		{"non-zero", kruntime.NewExitCodeResult(3), []string{"exit_code=3", "success=false", "signaled=false"}},
		{"signal", kruntime.NewExitCodeResult(-1), []string{"exit_code=-1", "success=false", "signaled=true"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var logs bytes.Buffer
			logger := log.NewWithOptions(&logs, log.Options{Level: log.DebugLevel})
			d, _ := newTestDispatcher(t, t.TempDir(),
				WithResolver(mapResolver{"tool": "/bin/tool"}),
				WithLauncher(&recordingLauncher{result: tt.result}),
				WithLogger(logger))
			d.Dispatch(context.Background(), "tool")

			got := logs.String()
			if !strings.Contains(got, "command finished") {
				t.Fatalf("missing finish log:\n%s", got)
			}
			for _, want := range tt.want {
				if !strings.Contains(got, want) {
					t.Errorf("log missing %q:\n%s", want, got)
				}
			}
		})
	}
}
