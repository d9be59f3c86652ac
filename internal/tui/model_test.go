package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/antonkrylov/shellpane/internal/notify"
	"github.com/antonkrylov/shellpane/internal/session"
	"github.com/antonkrylov/shellpane/internal/shortcut"
)

type staticSource struct{ sc session.Context }

func (s staticSource) SessionContext() session.Context { return s.sc }

type fakeExec map[string]*session.ExecResult

func (f fakeExec) Execute(_ context.Context, _, command, _ string) (*session.ExecResult, error) {
	if res, ok := f[command]; ok {
		return res, nil
	}
	return &session.ExecResult{OutputLines: []string{""}}, nil
}

type fakeCompleter session.CompletionResult

func (f fakeCompleter) Complete(context.Context, string, string, string) (*session.CompletionResult, error) {
	res := session.CompletionResult(f)
	return &res, nil
}

func newTestModel(exec session.Executor, completer session.Completer) Model {
	ctrl := session.New(session.Options{
		Source:    staticSource{sc: session.Context{ServerID: "srv", Name: "dev", Host: "localhost", Port: 22}},
		Executor:  exec,
		Completer: completer,
	})
	m := New(ctrl, notify.NewCenter(), shortcut.NewRegistry())
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return next.(Model)
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func TestSubmitRendersOutput(t *testing.T) {
	m := newTestModel(fakeExec{
		"ls": {Output: "file.txt\n", OutputLines: []string{"file.txt"}},
	}, nil)

	msg := m.submitCmd("ls")()
	m = update(t, m, msg)

	view := m.View()
	if !strings.Contains(view, "file.txt") {
		t.Fatalf("output missing from view:\n%s", view)
	}
}

func TestHistoryKeysEditBuffer(t *testing.T) {
	m := newTestModel(fakeExec{}, nil)
	m.ctrl.Submit(context.Background(), "echo one")

	m = update(t, m, tea.KeyMsg{Type: tea.KeyUp})
	if got := m.input.Value(); got != "echo one" {
		t.Fatalf("up key value=%q", got)
	}
	m = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	if got := m.input.Value(); got != "" {
		t.Fatalf("down past newest value=%q", got)
	}
}

func TestCompletionReplacesEditBuffer(t *testing.T) {
	m := newTestModel(fakeExec{}, fakeCompleter{CompletedInput: "cat notes.txt"})

	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("cat no")})
	msg := m.completionCmd(m.input.Value())()
	m = update(t, m, msg)

	if got := m.input.Value(); got != "cat notes.txt" {
		t.Fatalf("input=%q", got)
	}
}

func TestShortcutClearsScrollback(t *testing.T) {
	m := newTestModel(fakeExec{}, nil)
	m.ctrl.Submit(context.Background(), "echo hi")
	if len(m.ctrl.Lines()) == 0 {
		t.Fatalf("no lines before clear")
	}

	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlL})
	if got := len(m.ctrl.Lines()); got != 0 {
		t.Fatalf("lines after ctrl+l: %d", got)
	}
}

func TestToastShownAndExpired(t *testing.T) {
	m := newTestModel(fakeExec{}, nil)
	m.toasts.Error("connection lost")

	msg := m.waitToast()()
	m = update(t, m, msg)
	if !strings.Contains(m.View(), "connection lost") {
		t.Fatalf("toast missing from view")
	}

	m = update(t, m, toastExpiredMsg{})
	if strings.Contains(m.View(), "connection lost") {
		t.Fatalf("toast still visible after expiry")
	}
}
