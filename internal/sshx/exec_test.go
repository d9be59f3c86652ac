package sshx

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeRemote scripts run() responses by command substring.
type fakeRemote struct {
	mu       sync.Mutex
	commands []string
	respond  func(command string) (string, int, error)
	closed   bool
}

func (f *fakeRemote) run(command string) (string, int, error) {
	f.mu.Lock()
	f.commands = append(f.commands, command)
	f.mu.Unlock()
	if f.respond != nil {
		return f.respond(command)
	}
	return "", 0, nil
}

func (f *fakeRemote) close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

func (f *fakeRemote) lastCommand() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.commands) == 0 {
		return ""
	}
	return f.commands[len(f.commands)-1]
}

func newTestPool(remote *fakeRemote) *Pool {
	p := NewPool()
	p.heartbeatInterval = 0
	p.dial = func(ConnectParams, time.Duration) (remoteClient, error) {
		return remote, nil
	}
	return p
}

func connectTestServer(t *testing.T, p *Pool, id string) {
	t.Helper()
	err := p.Connect(context.Background(), ConnectParams{
		ServerID: id, Name: "prod-1", Host: "10.0.0.5", Port: 22,
		Username: "alice", Password: "pw",
	})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
}

func TestBuildCommand(t *testing.T) {
	cases := []struct {
		name    string
		command string
		dir     string
		want    string
		isCD    bool
	}{
		{"bare cd", "cd", "/var", `cd "/var" && cd "~" && pwd`, true},
		{"cd target", "cd /tmp", "/var", `cd "/var" && cd "/tmp" && pwd`, true},
		{"cd trailing space", "cd   /tmp", "/var", `cd "/var" && cd "/tmp" && pwd`, true},
		{"normal from home", "ls -la", "~", "ls -la", false},
		{"normal with dir", "ls", "/var/www", `cd "/var/www" && ls`, false},
		{"quotes escaped", "echo 'hi'", "~", `echo '"'"'hi'"'"'`, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, isCD := buildCommand(tc.command, tc.dir)
			if got != tc.want || isCD != tc.isCD {
				t.Fatalf("buildCommand(%q,%q)=(%q,%v) want (%q,%v)",
					tc.command, tc.dir, got, isCD, tc.want, tc.isCD)
			}
		})
	}
}

func TestSplitOutputLines(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"", []string{""}},
		{"\n", []string{""}},
		{"a\n", []string{"a"}},
		{"a\nb\n", []string{"a", "b"}},
		{"a\n\n", []string{"a"}},
		{"a\nb", []string{"a", "b"}},
		{"\n\n", []string{""}},
	}
	for _, tc := range cases {
		if got := splitOutputLines(tc.in); !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("splitOutputLines(%q)=%q want %q", tc.in, got, tc.want)
		}
	}
}

func TestExecuteInterceptsInteractiveCommands(t *testing.T) {
	remote := &fakeRemote{}
	p := newTestPool(remote)
	connectTestServer(t, p, "srv")

	res, err := p.Execute(context.Background(), "srv", "vim /etc/hosts", "/etc")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !res.IsInteractive || res.InteractiveMessage == "" {
		t.Fatalf("result=%+v", res)
	}
	if !strings.HasPrefix(res.OutputLines[0], "Warning:") {
		t.Fatalf("first line=%q", res.OutputLines[0])
	}
	if res.NewDir != "" {
		t.Fatalf("interactive result carries a directory: %q", res.NewDir)
	}
	if len(remote.commands) != 0 {
		t.Fatalf("interactive command reached the remote: %v", remote.commands)
	}
}

func TestExecuteCdExtractsNewDir(t *testing.T) {
	remote := &fakeRemote{respond: func(string) (string, int, error) {
		return "/srv/app\n", 0, nil
	}}
	p := newTestPool(remote)
	connectTestServer(t, p, "srv")

	res, err := p.Execute(context.Background(), "srv", "cd app", "/srv")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if res.NewDir != "/srv/app" {
		t.Fatalf("newDir=%q", res.NewDir)
	}
	want := `bash -c 'cd "/srv" && cd "app" && pwd'`
	if got := remote.lastCommand(); got != want {
		t.Fatalf("sent %q want %q", got, want)
	}
}

func TestExecuteFailedCdHasNoNewDir(t *testing.T) {
	remote := &fakeRemote{respond: func(string) (string, int, error) {
		return "bash: cd: nope\n", 1, nil
	}}
	p := newTestPool(remote)
	connectTestServer(t, p, "srv")

	res, err := p.Execute(context.Background(), "srv", "cd nope", "/srv")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if res.NewDir != "" {
		t.Fatalf("failed cd produced newDir %q", res.NewDir)
	}
	if res.ExitCode != 1 {
		t.Fatalf("exitCode=%d", res.ExitCode)
	}
}

func TestExecuteNotConnected(t *testing.T) {
	p := newTestPool(&fakeRemote{})
	if _, err := p.Execute(context.Background(), "srv", "ls", "~"); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("err=%v", err)
	}
}

func TestExecuteTransportFailureDropsClosedConnection(t *testing.T) {
	remote := &fakeRemote{respond: func(string) (string, int, error) {
		return "", 0, errors.New("connection closed by remote")
	}}
	p := newTestPool(remote)
	connectTestServer(t, p, "srv")

	if _, err := p.Execute(context.Background(), "srv", "ls", "~"); err == nil {
		t.Fatalf("expected transport error")
	}
	if p.Connected("srv") {
		t.Fatalf("dead connection kept in the pool")
	}
}

func TestIsInteractiveCommand(t *testing.T) {
	for cmd, want := range map[string]bool{
		"vim notes":     true,
		"top":           true,
		"  tmux attach": true,
		"ls -la":        false,
		"":              false,
		"vimdiff a b":   false,
	} {
		if got := isInteractiveCommand(strings.TrimSpace(cmd)); got != want {
			t.Fatalf("isInteractiveCommand(%q)=%v want %v", cmd, got, want)
		}
	}
}
