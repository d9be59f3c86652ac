// Package tui renders one session pane: scrollback viewport, prompt line,
// and the edit field, driven by the session controller's change events.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/antonkrylov/shellpane/internal/notify"
	"github.com/antonkrylov/shellpane/internal/session"
	"github.com/antonkrylov/shellpane/internal/shortcut"
)

type sessionEventMsg session.Event

type submitDoneMsg struct{}

type refreshDoneMsg struct{}

type completionMsg struct {
	text    string
	replace bool
}

type toastMsg notify.Toast

type toastExpiredMsg struct{}

// Model is the bubbletea model of one session pane.
type Model struct {
	ctrl      *session.Controller
	toasts    *notify.Center
	shortcuts *shortcut.Registry

	events      chan session.Event
	eventHandle session.Handle
	toastCh     chan notify.Toast
	toastHandle notify.Handle

	viewport viewport.Model
	input    textinput.Model
	ready    bool
	toast    *notify.Toast

	promptStyle lipgloss.Style
	errorStyle  lipgloss.Style
	headerStyle lipgloss.Style
	toastStyle  lipgloss.Style
	toastErr    lipgloss.Style
}

// New wires a pane to its controller, toast center and shortcut registry.
func New(ctrl *session.Controller, toasts *notify.Center, shortcuts *shortcut.Registry) Model {
	ti := textinput.New()
	ti.Prompt = ""
	ti.CharLimit = 0
	ti.Focus()

	vp := viewport.New(0, 0)

	m := Model{
		ctrl:      ctrl,
		toasts:    toasts,
		shortcuts: shortcuts,
		events:    make(chan session.Event, 64),
		toastCh:   make(chan notify.Toast, 8),
		viewport:  vp,
		input:     ti,

		promptStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
		errorStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		headerStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
		toastStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("10")).Padding(0, 1),
		toastErr:    lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("9")).Padding(0, 1),
	}

	// Events and toasts arrive on channels so bubbletea can pump them as
	// messages; the subscriptions are torn down with the handles on quit.
	m.eventHandle = ctrl.Events().Subscribe(func(ev session.Event) {
		select {
		case m.events <- ev:
		default:
		}
	})
	if toasts != nil {
		m.toastHandle = toasts.Subscribe(func(t notify.Toast) {
			select {
			case m.toastCh <- t:
			default:
			}
		})
	}
	if shortcuts != nil {
		shortcuts.Register("ctrl+l", ctrl.Clear)
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.refreshCmd(), m.waitEvent(), m.waitToast(), textinput.Blink)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch t := msg.(type) {
	case tea.WindowSizeMsg:
		m.viewport.Width = t.Width
		m.input.Width = t.Width - 2
		m.viewport.Height = t.Height - 3
		if m.viewport.Height < 1 {
			m.viewport.Height = 1
		}
		m.ready = true
		m.renderScrollback()
		return m, nil

	case tea.KeyMsg:
		switch t.String() {
		case "ctrl+c", "esc":
			m.teardown()
			return m, tea.Quit
		case "enter":
			line := m.input.Value()
			m.input.SetValue("")
			return m, tea.Batch(m.submitCmd(line), m.waitEvent())
		case "up":
			m.input.SetValue(m.ctrl.HistoryUp(m.input.Value()))
			m.input.CursorEnd()
			return m, nil
		case "down":
			m.input.SetValue(m.ctrl.HistoryDown())
			m.input.CursorEnd()
			return m, nil
		case "tab":
			return m, tea.Batch(m.completionCmd(m.input.Value()), m.waitEvent())
		default:
			if m.shortcuts != nil && m.shortcuts.Dispatch(t.String()) {
				return m, m.waitEvent()
			}
		}

	case sessionEventMsg:
		m.renderScrollback()
		return m, m.waitEvent()

	case submitDoneMsg, refreshDoneMsg:
		m.renderScrollback()
		return m, nil

	case completionMsg:
		if t.replace {
			m.input.SetValue(t.text)
			m.input.CursorEnd()
		}
		return m, nil

	case toastMsg:
		toast := notify.Toast(t)
		m.toast = &toast
		return m, tea.Batch(m.waitToast(), tea.Tick(toast.Duration, func(time.Time) tea.Msg {
			return toastExpiredMsg{}
		}))

	case toastExpiredMsg:
		m.toast = nil
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.headerStyle.Render(m.headerLine()))
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.promptStyle.Render(m.ctrl.PromptString()))
	b.WriteString(m.input.View())
	if m.toast != nil {
		b.WriteString("\n")
		style := m.toastStyle
		if m.toast.IsError {
			style = m.toastErr
		}
		b.WriteString(style.Render(m.toast.Message))
	}
	return b.String()
}

func (m *Model) headerLine() string {
	state := "idle"
	if m.ctrl.State() == session.StateDispatching {
		state = "running"
	}
	line := fmt.Sprintf("shellpane | %s", state)
	if dropped := m.ctrl.DroppedLines(); dropped > 0 {
		line += fmt.Sprintf(" | %d lines dropped", dropped)
	}
	return line
}

func (m *Model) renderScrollback() {
	wasAtBottom := m.viewport.AtBottom()
	var b strings.Builder
	for _, l := range m.ctrl.Lines() {
		switch l.Kind {
		case session.LineInput:
			b.WriteString(m.promptStyle.Render(l.Prompt))
			b.WriteString(l.Content)
		case session.LineError:
			b.WriteString(m.errorStyle.Render(l.Content))
		default:
			b.WriteString(l.Content)
		}
		b.WriteString("\n")
	}
	m.viewport.SetContent(b.String())
	if wasAtBottom {
		m.viewport.GotoBottom()
	}
}

func (m *Model) teardown() {
	m.ctrl.Events().Unsubscribe(m.eventHandle)
	if m.toasts != nil {
		m.toasts.Unsubscribe(m.toastHandle)
	}
}

func (m Model) refreshCmd() tea.Cmd {
	return func() tea.Msg {
		m.ctrl.Refresh(context.Background())
		return refreshDoneMsg{}
	}
}

func (m Model) submitCmd(line string) tea.Cmd {
	return func() tea.Msg {
		m.ctrl.Submit(context.Background(), line)
		return submitDoneMsg{}
	}
}

func (m Model) completionCmd(input string) tea.Cmd {
	return func() tea.Msg {
		text, replace := m.ctrl.RequestCompletion(context.Background(), input)
		return completionMsg{text: text, replace: replace}
	}
}

func (m Model) waitEvent() tea.Cmd {
	return func() tea.Msg {
		return sessionEventMsg(<-m.events)
	}
}

func (m Model) waitToast() tea.Cmd {
	return func() tea.Msg {
		return toastMsg(<-m.toastCh)
	}
}
