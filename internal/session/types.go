// Package session implements the client-side controller for one remote
// shell pane: prompt state, command history, the scrollback line log, and
// the dispatch state machine that mediates between user input and the
// execution backend.
package session

import (
	"context"
	"fmt"
	"strings"
)

// LineKind classifies a scrollback line for rendering.
type LineKind int

const (
	// LineInput is an echoed command line, rendered with its prompt.
	LineInput LineKind = iota
	// LineOutput is regular command output.
	LineOutput
	// LineError is error-styled output (failed commands, transport errors).
	LineError
)

// OutputLine is one rendered line of the session scrollback.
type OutputLine struct {
	Kind    LineKind
	Content string
	// Prompt is the rendered prompt at submission time; set on input lines.
	Prompt string
}

// Context carries the connection facts for one server. It is owned by the
// connection layer; the controller only reads it.
type Context struct {
	ServerID  string
	Name      string
	Host      string
	Port      int
	Username  string
	Connected bool
}

// DisplayName is the label used when surfacing errors for this session.
func (c Context) DisplayName() string {
	if strings.TrimSpace(c.Name) != "" {
		return c.Name
	}
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ContextSource exposes the current connection facts to the controller.
type ContextSource interface {
	SessionContext() Context
}

// ExecResult is the structured outcome of one remote command.
//
// InteractiveMessage and NewDir use the empty string as "absent".
type ExecResult struct {
	Output      string
	ExitCode    int
	OutputLines []string
	// IsInteractive marks a command the pane cannot drive; the backend
	// substitutes InteractiveMessage for real output.
	IsInteractive      bool
	InteractiveMessage string
	// NewDir carries the post-command absolute working directory when the
	// command changed it.
	NewDir string
}

// CompletionResult is the outcome of one tab-completion request.
// It is transient and never stored.
type CompletionResult struct {
	// CompletedInput, when non-empty, replaces the whole edit buffer.
	CompletedInput string
	Matches        []string
	ShowMatches    bool
}

// Executor runs a command on the remote host and returns its structured
// result. A returned error means transport or execution failure; a non-zero
// remote exit code is a normal result, not an error.
type Executor interface {
	Execute(ctx context.Context, serverID, command, currentDir string) (*ExecResult, error)
}

// Completer computes tab-completion candidates on the remote host.
type Completer interface {
	Complete(ctx context.Context, serverID, input, currentDir string) (*CompletionResult, error)
}

// Recorder receives fire-and-forget session recording events.
type Recorder interface {
	RecordInput(content string)
	RecordOutput(content string)
}

// WarningPrefix marks lines of an interactive-command notice that should be
// rendered error-styled.
const WarningPrefix = "Warning:"

const genericErrorMessage = "command failed"

// ErrorMessage resolves a human-readable message from an arbitrary failure
// value: an error's message, a plain string, the value's string form, or a
// generic fallback.
func ErrorMessage(v any) string {
	switch e := v.(type) {
	case nil:
		return genericErrorMessage
	case error:
		if msg := e.Error(); strings.TrimSpace(msg) != "" {
			return msg
		}
	case string:
		if e != "" {
			return e
		}
	default:
		if s := fmt.Sprint(v); s != "" && s != "<nil>" {
			return s
		}
	}
	return genericErrorMessage
}
