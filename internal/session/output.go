package session

// Buffer is the append-only scrollback log of a pane. It is bounded with
// drop-oldest eviction; maxLines <= 0 means unbounded. Eviction is a local
// policy choice: the backend places no cap on output.
type Buffer struct {
	maxLines int
	lines    []OutputLine
	dropped  int
}

// NewBuffer returns a buffer keeping at most maxLines lines.
func NewBuffer(maxLines int) *Buffer {
	return &Buffer{maxLines: maxLines}
}

// Append adds lines to the end of the log, evicting from the front when over
// capacity.
func (b *Buffer) Append(lines ...OutputLine) {
	b.lines = append(b.lines, lines...)
	if b.maxLines <= 0 {
		return
	}
	if over := len(b.lines) - b.maxLines; over > 0 {
		b.lines = append([]OutputLine(nil), b.lines[over:]...)
		b.dropped += over
	}
}

// Clear discards all lines. The dropped counter survives a clear so the UI
// can keep reporting lost scrollback.
func (b *Buffer) Clear() {
	b.lines = nil
}

// Lines returns a copy of the current log.
func (b *Buffer) Lines() []OutputLine {
	out := make([]OutputLine, len(b.lines))
	copy(out, b.lines)
	return out
}

// Len reports the number of kept lines.
func (b *Buffer) Len() int { return len(b.lines) }

// Dropped reports how many lines eviction has discarded.
func (b *Buffer) Dropped() int { return b.dropped }
