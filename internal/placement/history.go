package placement

import "github.com/piwi3910/TruckLoad/internal/model"

const defaultMaxDepth = 50

// Snapshot captures the arrangement at a point in time.
type Snapshot struct {
	Arrangement model.Arrangement
	Label       string // Human-readable description (e.g. "Delete unit")
}

// History manages undo/redo stacks of arrangement snapshots.
type History struct {
	undoStack []Snapshot
	redoStack []Snapshot
	maxDepth  int
}

// NewHistory creates a History keeping at most depth snapshots.
// A non-positive depth uses the default of 50.
func NewHistory(depth int) *History {
	if depth <= 0 {
		depth = defaultMaxDepth
	}
	return &History{
		maxDepth: depth,
	}
}

// Push saves a snapshot onto the undo stack and clears the redo stack.
// This should be called before the modification is applied.
func (h *History) Push(s Snapshot) {
	h.undoStack = append(h.undoStack, s)
	if len(h.undoStack) > h.maxDepth {
		h.undoStack = h.undoStack[len(h.undoStack)-h.maxDepth:]
	}
	h.redoStack = nil
}

// Undo pops the most recent snapshot from the undo stack and pushes
// the current state onto the redo stack. Returns the snapshot to restore
// and true, or an empty snapshot and false if nothing to undo.
func (h *History) Undo(current Snapshot) (Snapshot, bool) {
	if len(h.undoStack) == 0 {
		return Snapshot{}, false
	}
	last := h.undoStack[len(h.undoStack)-1]
	h.undoStack = h.undoStack[:len(h.undoStack)-1]
	h.redoStack = append(h.redoStack, current)
	return last, true
}

// Redo pops the most recent snapshot from the redo stack and pushes
// the current state onto the undo stack.
func (h *History) Redo(current Snapshot) (Snapshot, bool) {
	if len(h.redoStack) == 0 {
		return Snapshot{}, false
	}
	last := h.redoStack[len(h.redoStack)-1]
	h.redoStack = h.redoStack[:len(h.redoStack)-1]
	h.undoStack = append(h.undoStack, current)
	return last, true
}

// CanUndo returns true if there is at least one snapshot to undo.
func (h *History) CanUndo() bool {
	return len(h.undoStack) > 0
}

// CanRedo returns true if there is at least one snapshot to redo.
func (h *History) CanRedo() bool {
	return len(h.redoStack) > 0
}

// Depth returns the number of undo steps held.
func (h *History) Depth() int {
	return len(h.undoStack)
}

// Clear removes all undo and redo history.
func (h *History) Clear() {
	h.undoStack = nil
	h.redoStack = nil
}

// MakeSnapshot captures the store's current arrangement with a label.
func MakeSnapshot(s *Store, label string) Snapshot {
	return Snapshot{
		Arrangement: s.Snapshot(),
		Label:       label,
	}
}
