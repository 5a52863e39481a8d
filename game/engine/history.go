package engine

// History is the undo stack of pre-move snapshots. Entries are stored by value
// and never aliased with the live state.
type History struct {
	entries []GameState
}

// NewHistory creates an empty undo stack
func NewHistory() *History {
	return &History{}
}

// Commit pushes a copy of the state onto the stack
func (h *History) Commit(state *GameState) {
	h.entries = append(h.entries, *state.Clone())
}

// Pop removes and returns the most recent snapshot
func (h *History) Pop() (*GameState, bool) {
	if len(h.entries) == 0 {
		return nil, false
	}
	last := h.entries[len(h.entries)-1]
	h.entries = h.entries[:len(h.entries)-1]
	return &last, true
}

// Len returns the number of snapshots held
func (h *History) Len() int {
	return len(h.entries)
}

// Clear drops every snapshot
func (h *History) Clear() {
	h.entries = nil
}

// Recent returns copies of the newest n snapshots, oldest first. n <= 0 means none.
func (h *History) Recent(n int) []GameState {
	if n <= 0 {
		return []GameState{}
	}
	start := len(h.entries) - n
	if start < 0 {
		start = 0
	}
	out := make([]GameState, 0, len(h.entries)-start)
	for i := start; i < len(h.entries); i++ {
		out = append(out, *h.entries[i].Clone())
	}
	return out
}

// Replace swaps the stack contents for entries (oldest first), used when a
// snapshot is restored
func (h *History) Replace(entries []GameState) {
	h.entries = make([]GameState, 0, len(entries))
	for i := range entries {
		h.entries = append(h.entries, *entries[i].Clone())
	}
}
