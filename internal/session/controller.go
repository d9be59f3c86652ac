package session

import (
	"context"
	"log"
	"strings"
	"sync"
)

// State is the dispatch phase of the controller.
type State int

const (
	// StateIdle accepts submissions.
	StateIdle State = iota
	// StateDispatching has one command in flight; further submissions are
	// ignored until it resolves.
	StateDispatching
)

// DefaultScrollback is the line cap applied when Options leaves it zero.
const DefaultScrollback = 5000

// Options configures a Controller. Source and Executor are required;
// Completer and Recorder may be nil.
type Options struct {
	Source    ContextSource
	Executor  Executor
	Completer Completer
	Recorder  Recorder
	// ScrollbackLines caps the output buffer: 0 picks DefaultScrollback,
	// negative disables the cap.
	ScrollbackLines int
}

// Controller owns all mutable state of one session pane and funnels every
// mutation through its methods. The rendering layer observes changes via
// Events; nothing mutates the state from outside.
type Controller struct {
	source    ContextSource
	exec      Executor
	completer Completer
	recorder  Recorder
	events    Emitter

	mu      sync.Mutex
	state   State
	prompt  Prompt
	history History
	buffer  *Buffer
}

// New builds an idle controller with an empty scrollback and the idle
// prompt.
func New(opts Options) *Controller {
	limit := opts.ScrollbackLines
	if limit == 0 {
		limit = DefaultScrollback
	}
	return &Controller{
		source:    opts.Source,
		exec:      opts.Executor,
		completer: opts.Completer,
		recorder:  opts.Recorder,
		prompt:    NewPrompt(),
		buffer:    NewBuffer(limit),
	}
}

// Events exposes the change notification emitter for the rendering layer.
func (c *Controller) Events() *Emitter { return &c.events }

// State reports the current dispatch phase.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Lines snapshots the scrollback.
func (c *Controller) Lines() []OutputLine {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buffer.Lines()
}

// DroppedLines reports scrollback lines lost to eviction.
func (c *Controller) DroppedLines() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buffer.Dropped()
}

// PromptState snapshots the prompt facts.
func (c *Controller) PromptState() Prompt {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.prompt
}

// PromptString returns the rendered prompt.
func (c *Controller) PromptString() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.prompt.Render()
}

// HistoryUp steps back through history; current is the live edit buffer,
// returned unchanged when there is nothing older.
func (c *Controller) HistoryUp(current string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.history.Up(current)
}

// HistoryDown steps forward through history, returning "" once past the
// newest entry.
func (c *Controller) HistoryDown() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.history.Down()
}

// Clear empties the scrollback.
func (c *Controller) Clear() {
	c.mu.Lock()
	c.buffer.Clear()
	c.mu.Unlock()
	c.events.emit(Event{Kind: EventLines})
}

// ResetPrompt returns the prompt to the disconnected idle state.
func (c *Controller) ResetPrompt() {
	c.mu.Lock()
	c.prompt.Reset()
	c.mu.Unlock()
	c.events.emit(Event{Kind: EventPrompt})
}

// Refresh bootstraps the prompt: username, hostname, root status and the
// initial directory are probed in that order, each falling back to the
// connection context on failure. It never reports an error; the prompt is
// always left renderable.
func (c *Controller) Refresh(ctx context.Context) {
	sc := c.source.SessionContext()

	username := c.probe(ctx, sc.ServerID, "whoami")
	if username == "" {
		username = sc.Username
	}
	hostname := c.probe(ctx, sc.ServerID, "hostname")
	if hostname == "" {
		hostname = sc.Host
	}
	uid := c.probe(ctx, sc.ServerID, "id -u")
	isRoot := uid == "0" || username == "root"
	dir := c.probe(ctx, sc.ServerID, "pwd")

	c.mu.Lock()
	c.prompt.Username = username
	c.prompt.Hostname = hostname
	c.prompt.IsRoot = isRoot
	c.prompt.UpdateLocation(dir)
	c.mu.Unlock()
	c.events.emit(Event{Kind: EventPrompt})
}

// probe runs a single bootstrap command, returning its trimmed output or ""
// on any failure.
func (c *Controller) probe(ctx context.Context, serverID, command string) string {
	res, err := c.exec.Execute(ctx, serverID, command, "~")
	if err != nil || res == nil || res.ExitCode != 0 {
		return ""
	}
	return strings.TrimSpace(res.Output)
}

// Submit runs one full dispatch cycle for the given input and blocks until
// it resolves. Blank input only echoes a prompt line. While a command is in
// flight further submissions are ignored. Both success and failure return
// the controller to idle; there is no retry and no timeout at this layer.
func (c *Controller) Submit(ctx context.Context, input string) {
	command := strings.TrimSpace(input)

	c.mu.Lock()
	if c.state == StateDispatching {
		c.mu.Unlock()
		return
	}
	promptText := c.prompt.Render()
	if command == "" {
		c.buffer.Append(OutputLine{Kind: LineInput, Prompt: promptText})
		c.mu.Unlock()
		c.events.emit(Event{Kind: EventLines})
		return
	}
	if c.recorder != nil {
		c.recorder.RecordInput(command)
	}
	c.history.Submit(command)
	c.buffer.Append(OutputLine{Kind: LineInput, Prompt: promptText, Content: command})
	c.state = StateDispatching
	currentDir := c.prompt.FullDir
	c.mu.Unlock()
	sc := c.source.SessionContext()
	c.events.emit(Event{Kind: EventLines})
	c.events.emit(Event{Kind: EventState})

	res, err := c.exec.Execute(ctx, sc.ServerID, command, currentDir)

	c.mu.Lock()
	promptChanged := false
	if err != nil {
		c.appendFailureLocked(sc, err)
	} else {
		promptChanged = c.applyResultLocked(res)
	}
	c.state = StateIdle
	c.mu.Unlock()

	c.events.emit(Event{Kind: EventLines})
	if promptChanged {
		c.events.emit(Event{Kind: EventPrompt})
	}
	c.events.emit(Event{Kind: EventState})
}

// applyResultLocked routes a structured result into the scrollback. The
// branches are checked in priority order; the first match wins. It reports
// whether the prompt changed.
func (c *Controller) applyResultLocked(res *ExecResult) bool {
	if res == nil {
		return false
	}
	switch {
	case res.IsInteractive && res.InteractiveMessage != "":
		// Substituted notice for a command the pane cannot drive. The
		// directory never changes here and nothing is recorded as output.
		for _, line := range res.OutputLines {
			kind := LineOutput
			if strings.HasPrefix(line, WarningPrefix) {
				kind = LineError
			}
			c.buffer.Append(OutputLine{Kind: kind, Content: line})
		}
		return false
	case res.NewDir != "":
		// The backend is the source of truth for the working directory;
		// the probe output itself is suppressed behind one blank line.
		c.prompt.UpdateLocation(res.NewDir)
		c.buffer.Append(OutputLine{Kind: LineOutput})
		return true
	default:
		if c.recorder != nil {
			c.recorder.RecordOutput(res.Output)
		}
		kind := LineOutput
		if res.ExitCode != 0 {
			kind = LineError
		}
		for _, line := range res.OutputLines {
			c.buffer.Append(OutputLine{Kind: kind, Content: line})
		}
		return false
	}
}

// appendFailureLocked renders a transport or execution failure as
// error-styled lines prefixed with the session's display name. Empty
// segments stay blank, without the prefix.
func (c *Controller) appendFailureLocked(sc Context, err error) {
	name := sc.DisplayName()
	for _, segment := range strings.Split(ErrorMessage(err), "\n") {
		if segment == "" {
			c.buffer.Append(OutputLine{Kind: LineError})
			continue
		}
		c.buffer.Append(OutputLine{Kind: LineError, Content: name + ": " + segment})
	}
}

// RequestCompletion asks the completion backend for candidates. When the
// backend supplies a full replacement it wins unconditionally and is
// returned with ok=true; otherwise a candidate list, if any, is appended to
// the scrollback and the edit buffer stays untouched. Backend errors are
// logged and swallowed.
func (c *Controller) RequestCompletion(ctx context.Context, input string) (completed string, ok bool) {
	if c.completer == nil || strings.TrimSpace(input) == "" {
		return "", false
	}
	sc := c.source.SessionContext()
	c.mu.Lock()
	currentDir := c.prompt.FullDir
	c.mu.Unlock()

	res, err := c.completer.Complete(ctx, sc.ServerID, input, currentDir)
	if err != nil {
		log.Printf("completion for %s: %v", sc.DisplayName(), err)
		return "", false
	}
	if res == nil {
		return "", false
	}
	if res.CompletedInput != "" {
		return res.CompletedInput, true
	}
	if res.ShowMatches && len(res.Matches) > 0 {
		c.mu.Lock()
		c.buffer.Append(OutputLine{Kind: LineOutput, Content: strings.Join(res.Matches, "  ")})
		c.mu.Unlock()
		c.events.emit(Event{Kind: EventLines})
	}
	return "", false
}
