package placement

import (
	"testing"

	"github.com/piwi3910/TruckLoad/internal/model"
)

func snapshotWith(label string, ids ...string) Snapshot {
	var units []model.Unit
	for _, id := range ids {
		units = append(units, model.Unit{ID: id})
	}
	return Snapshot{Arrangement: model.Arrangement{Active: units}, Label: label}
}

func TestNewHistory(t *testing.T) {
	h := NewHistory(0)
	if h.maxDepth != defaultMaxDepth {
		t.Errorf("expected maxDepth %d, got %d", defaultMaxDepth, h.maxDepth)
	}
	if h.CanUndo() {
		t.Error("new history should not be undoable")
	}
	if h.CanRedo() {
		t.Error("new history should not be redoable")
	}
}

func TestPushAndUndo(t *testing.T) {
	h := NewHistory(10)
	h.Push(snapshotWith("initial"))

	if !h.CanUndo() {
		t.Fatal("should be able to undo after push")
	}

	restored, ok := h.Undo(snapshotWith("current", "u1"))
	if !ok {
		t.Fatal("undo should succeed")
	}
	if len(restored.Arrangement.Active) != 0 {
		t.Errorf("expected 0 units after undo, got %d", len(restored.Arrangement.Active))
	}
	if restored.Label != "initial" {
		t.Errorf("expected label 'initial', got %q", restored.Label)
	}
	if !h.CanRedo() {
		t.Error("undo should make redo available")
	}
}

func TestUndoRedo(t *testing.T) {
	h := NewHistory(10)
	h.Push(snapshotWith("empty"))
	h.Push(snapshotWith("one unit", "u1"))

	current := snapshotWith("two units", "u1", "u2")
	restored, _ := h.Undo(current)
	if len(restored.Arrangement.Active) != 1 {
		t.Fatalf("expected 1 unit, got %d", len(restored.Arrangement.Active))
	}

	redone, ok := h.Redo(restored)
	if !ok {
		t.Fatal("redo should succeed")
	}
	if len(redone.Arrangement.Active) != 2 {
		t.Errorf("expected 2 units after redo, got %d", len(redone.Arrangement.Active))
	}
}

func TestPushClearsRedo(t *testing.T) {
	h := NewHistory(10)
	h.Push(snapshotWith("a"))
	h.Undo(snapshotWith("b"))
	h.Push(snapshotWith("c"))
	if h.CanRedo() {
		t.Error("push should clear the redo stack")
	}
}

func TestMaxDepth(t *testing.T) {
	h := NewHistory(3)
	for _, label := range []string{"1", "2", "3", "4", "5"} {
		h.Push(snapshotWith(label))
	}
	if h.Depth() != 3 {
		t.Fatalf("expected depth 3, got %d", h.Depth())
	}
	var labels []string
	for h.CanUndo() {
		s, _ := h.Undo(Snapshot{})
		labels = append(labels, s.Label)
	}
	if labels[0] != "5" || labels[2] != "3" {
		t.Errorf("expected oldest snapshots dropped, got %v", labels)
	}
}

func TestUndoEmpty(t *testing.T) {
	h := NewHistory(10)
	if _, ok := h.Undo(Snapshot{}); ok {
		t.Error("undo on empty history should fail")
	}
	if _, ok := h.Redo(Snapshot{}); ok {
		t.Error("redo on empty history should fail")
	}
}

func TestClear(t *testing.T) {
	h := NewHistory(10)
	h.Push(snapshotWith("a"))
	h.Undo(snapshotWith("b"))
	h.Push(snapshotWith("c"))
	h.Clear()
	if h.CanUndo() || h.CanRedo() {
		t.Error("clear should empty both stacks")
	}
}

func TestMakeSnapshotIsDeepCopy(t *testing.T) {
	s := NewStore(model.NewContainer("c", [3]float64{5000, 2000, 2000}), model.DefaultSettings())
	s.Apply(Insert(model.Unit{ID: "u1", Size: model.Size{Length: 100, Width: 100, Height: 100}}))

	snap := MakeSnapshot(s, "before move")
	s.Apply(Move("u1", model.Vec3{X: 1000}))

	if snap.Arrangement.Active[0].Position.X != 0 {
		t.Errorf("snapshot changed with the store: x=%v", snap.Arrangement.Active[0].Position.X)
	}
}
