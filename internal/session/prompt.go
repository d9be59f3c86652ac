package session

import "strings"

// Prompt holds the identity and location facts behind the rendered prompt.
// DisplayDir is always derived from FullDir via ShortenDir; the two are
// updated together and never diverge.
type Prompt struct {
	Username   string
	Hostname   string
	IsRoot     bool
	FullDir    string
	DisplayDir string
}

// NewPrompt returns the idle prompt state ("$ ").
func NewPrompt() Prompt {
	return Prompt{FullDir: "~", DisplayDir: "~"}
}

// UpdateLocation sets the working directory and recomputes the display form.
// Blank input falls back to "~".
func (p *Prompt) UpdateLocation(fullPath string) {
	dir := strings.TrimSpace(fullPath)
	if dir == "" {
		dir = "~"
	}
	p.FullDir = dir
	p.DisplayDir = ShortenDir(dir, p.Username, p.IsRoot)
}

// Symbol is "#" for root, "$" otherwise.
func (p Prompt) Symbol() string {
	if p.IsRoot {
		return "#"
	}
	return "$"
}

// Render produces the prompt string, e.g. "alice@web1:~/app$ ". Without
// identity facts it degrades to the idle "$ ".
func (p Prompt) Render() string {
	if p.Username == "" && p.Hostname == "" {
		return p.Symbol() + " "
	}
	return p.Username + "@" + p.Hostname + ":" + p.DisplayDir + p.Symbol() + " "
}

// Reset returns the prompt to its disconnected idle state.
func (p *Prompt) Reset() {
	*p = NewPrompt()
}
