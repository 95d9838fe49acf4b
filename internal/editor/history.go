package editor

// History is a bounded undo/redo buffer of content snapshots. The caller
// decides when to snapshot (debounced during typing, immediately on
// structural edits); History only manages the ring.
type History struct {
	snaps []string
	// cursor indexes the snapshot representing the current content.
	cursor int
	max    int
}

const DefaultHistoryDepth = 50

func NewHistory(depth int) *History {
	if depth <= 0 {
		depth = DefaultHistoryDepth
	}
	return &History{cursor: -1, max: depth}
}

// Push records a snapshot. Any redo tail is discarded; identical consecutive
// snapshots coalesce; the oldest entry falls off once the ring is full.
func (h *History) Push(content string) {
	if h.cursor >= 0 && h.snaps[h.cursor] == content {
		return
	}
	h.snaps = append(h.snaps[:h.cursor+1], content)
	if len(h.snaps) > h.max {
		h.snaps = h.snaps[len(h.snaps)-h.max:]
	}
	h.cursor = len(h.snaps) - 1
}

func (h *History) CanUndo() bool { return h.cursor > 0 }
func (h *History) CanRedo() bool { return h.cursor >= 0 && h.cursor < len(h.snaps)-1 }

// Undo steps back one snapshot and returns it.
func (h *History) Undo() (string, bool) {
	if !h.CanUndo() {
		return "", false
	}
	h.cursor--
	return h.snaps[h.cursor], true
}

// Redo steps forward one snapshot and returns it.
func (h *History) Redo() (string, bool) {
	if !h.CanRedo() {
		return "", false
	}
	h.cursor++
	return h.snaps[h.cursor], true
}

// Len reports how many snapshots are held.
func (h *History) Len() int { return len(h.snaps) }
