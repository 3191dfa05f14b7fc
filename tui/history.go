package tui

// History keeps submitted console lines for Up/Down recall. Re-submitting a
// line moves it to the newest position instead of storing it twice.
type History struct {
	entries []string
	max     int
	cursor  int // -1 while editing a fresh line
}

// NewHistory creates a history that keeps at most max lines.
func NewHistory(max int) *History {
	if max < 1 {
		max = 1
	}
	return &History{max: max, cursor: -1}
}

// Push records line as the newest entry.
func (h *History) Push(line string) {
	if line == "" {
		return
	}
	for i, e := range h.entries {
		if e == line {
			h.entries = append(h.entries[:i], h.entries[i+1:]...)
			break
		}
	}
	h.entries = append(h.entries, line)
	if over := len(h.entries) - h.max; over > 0 {
		h.entries = h.entries[over:]
	}
	h.cursor = -1
}

// Prev steps back toward older entries and stops at the oldest.
func (h *History) Prev() (string, bool) {
	if len(h.entries) == 0 {
		return "", false
	}
	switch {
	case h.cursor == -1:
		h.cursor = len(h.entries) - 1
	case h.cursor > 0:
		h.cursor--
	}
	return h.entries[h.cursor], true
}

// Next steps toward newer entries. Returns false once past the newest,
// meaning the input should be cleared.
func (h *History) Next() (string, bool) {
	if h.cursor == -1 {
		return "", false
	}
	h.cursor++
	if h.cursor >= len(h.entries) {
		h.cursor = -1
		return "", false
	}
	return h.entries[h.cursor], true
}

// Len returns the number of stored entries.
func (h *History) Len() int {
	return len(h.entries)
}
