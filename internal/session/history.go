package session

import "strings"

// History is a linear command log with an editable cursor. A cursor equal to
// the entry count means no historical entry is selected and the live edit
// buffer is active. Entries are never deduplicated or reordered.
type History struct {
	entries []string
	cursor  int
}

// Submit appends a non-blank command and parks the cursor past the newest
// entry. Blank commands are ignored.
func (h *History) Submit(command string) {
	if strings.TrimSpace(command) == "" {
		return
	}
	h.entries = append(h.entries, command)
	h.cursor = len(h.entries)
}

// Up steps to the previous entry and returns it. At the oldest entry (or
// with no history at all) it returns current unchanged.
func (h *History) Up(current string) string {
	if h.cursor == 0 || len(h.entries) == 0 {
		return current
	}
	h.cursor--
	return h.entries[h.cursor]
}

// Down steps to the next entry and returns it. Past the newest entry it
// returns "" and parks the cursor, clearing the edit buffer.
func (h *History) Down() string {
	if h.cursor < len(h.entries)-1 {
		h.cursor++
		return h.entries[h.cursor]
	}
	h.cursor = len(h.entries)
	return ""
}

// Len reports the number of stored entries.
func (h *History) Len() int { return len(h.entries) }
