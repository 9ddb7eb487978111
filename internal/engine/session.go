// Package engine wires the arrangement core into one editing session: the
// placement store, drag machine, camera, undo history, render adapter,
// pallet workspace and the baseline the change-set is computed against.
package engine

import (
	"context"
	"fmt"

	"github.com/piwi3910/TruckLoad/internal/diff"
	"github.com/piwi3910/TruckLoad/internal/geometry"
	"github.com/piwi3910/TruckLoad/internal/interaction"
	"github.com/piwi3910/TruckLoad/internal/model"
	"github.com/piwi3910/TruckLoad/internal/pallet"
	"github.com/piwi3910/TruckLoad/internal/placement"
	"github.com/piwi3910/TruckLoad/internal/render"
)

// Submission is one persistence request. It is built from deep copies, so
// the session may keep changing while the sink works on it. A full
// submission lists every unit and pallet as added; the receiver replaces
// what it holds.
type Submission struct {
	Seq       uint64                         `json:"seq"` // Per-session submission number
	Full      bool                           `json:"full,omitempty"`
	Container model.Container                `json:"container"`
	Version   uint64                         `json:"version"`
	Tuples    []model.Tuple                  `json:"tuples"`
	Units     diff.ChangeSet[diff.UnitState] `json:"units"`
	Pallets   diff.ChangeSet[model.Pallet]   `json:"pallets"`
}

// Sink accepts submissions. Implementations may return before the write
// completes.
type Sink interface {
	Submit(ctx context.Context, sub Submission) error
}

// DeferredSink is a Sink that finishes writes after Submit returns. Outcome
// reports whether submission seq has been written and, if so, its error.
type DeferredSink interface {
	Sink
	Outcome(seq uint64) (done bool, err error)
}

type pendingWrite struct {
	seq  uint64
	full bool
	sink DeferredSink
}

// Session is a single-threaded editing session.
type Session struct {
	settings model.Settings
	store    *placement.Store
	machine  *interaction.Machine
	camera   *interaction.Camera
	history  *placement.History
	render   *render.Adapter
	pallets  *pallet.Workspace

	baselineUnits   []diff.UnitState
	baselinePallets []model.Pallet
	dragBefore      *placement.Snapshot

	seq     uint64
	pending []pendingWrite
	resync  bool // A write failed; the stored state is unknown
}

// NewSession creates an empty session for the container described by
// settings.
func NewSession(settings model.Settings, containerLabel string) *Session {
	settings = settings.Normalize()
	container := settings.ContainerFromSettings(containerLabel)
	store := placement.NewStore(container, settings)

	s := &Session{
		settings: settings,
		store:    store,
		machine:  interaction.NewMachine(store, settings),
		camera:   interaction.NewCamera(container, settings.MinZoom, settings.MaxZoom),
		history:  placement.NewHistory(settings.HistoryDepth),
		render:   render.NewAdapter(),
		pallets:  pallet.NewWorkspace(nil, nil),
	}
	s.render.Attach(store)
	s.markSaved()
	return s
}

func (s *Session) Settings() model.Settings { return s.settings }
func (s *Session) Store() *placement.Store { return s.store }
func (s *Session) Machine() *interaction.Machine { return s.machine }
func (s *Session) Camera() *interaction.Camera { return s.camera }
func (s *Session) History() *placement.History { return s.history }
func (s *Session) Render() *render.Adapter { return s.render }
func (s *Session) Pallets() *pallet.Workspace { return s.pallets }
func (s *Session) Container() model.Container { return s.store.Container() }
func (s *Session) Arrangement() model.Arrangement { return s.store.Snapshot() }
func (s *Session) Stats() model.LoadStats { return model.CalculateLoadStats(s.store.Snapshot()) }
func (s *Session) Baseline() []diff.UnitState { return append([]diff.UnitState(nil), s.baselineUnits...) }
func (s *Session) BaselinePallets() []model.Pallet { return model.CopyPallets(s.baselinePallets) }

// Load replaces the arrangement with an upstream optimizer result. The
// loaded state becomes the baseline and history starts over.
func (s *Session) Load(tuples []model.Tuple) {
	s.store.Load(tuples)
	s.history.Clear()
	s.dragBefore = nil
	s.baselineUnits = diff.UnitStates(s.store.Snapshot())
}

// LoadUnits replaces the arrangement with stored unit states, keeping the
// flags the tuple shape cannot carry. The loaded state becomes the baseline.
func (s *Session) LoadUnits(states []diff.UnitState) {
	a := model.Arrangement{Container: s.store.Container()}
	for _, st := range states {
		u := st.Unit
		u.Dragging = false
		if st.Removed {
			a.Removed = append(a.Removed, u)
		} else {
			a.Active = append(a.Active, u)
		}
	}
	s.store.Reset(a)
	s.history.Clear()
	s.dragBefore = nil
	s.baselineUnits = diff.UnitStates(s.store.Snapshot())
}

// LoadPallets replaces the pallet workspace; the pallets become the baseline.
func (s *Session) LoadPallets(available []model.Content, pallets []model.Pallet) {
	s.pallets = pallet.NewWorkspace(available, pallets)
	s.baselinePallets = s.pallets.Snapshot()
}

// Dispatch applies a command, recording an undo step when it changes the
// arrangement.
func (s *Session) Dispatch(cmd placement.Command) placement.Outcome {
	before := placement.MakeSnapshot(s.store, string(cmd.Kind))
	version := s.store.Version()
	out := s.store.Apply(cmd)
	if out.Applied && cmd.Undoable() && s.store.Version() != version {
		s.history.Push(before)
	}
	return out
}

// PointerDown starts a drag gesture.
func (s *Session) PointerDown(r interaction.Ray) (model.Unit, bool) {
	before := placement.MakeSnapshot(s.store, "drag")
	u, ok := s.machine.PointerDown(r)
	if ok {
		s.dragBefore = &before
	}
	return u, ok
}

// PointerMove feeds one pointer frame to the drag machine.
func (s *Session) PointerMove(r interaction.Ray) interaction.Frame {
	return s.machine.PointerMove(r)
}

// PointerUp ends the gesture; a committed drag becomes one undo step.
func (s *Session) PointerUp() interaction.Outcome {
	out := s.machine.PointerUp()
	if out.State == interaction.Committed && s.dragBefore != nil {
		s.history.Push(*s.dragBefore)
	}
	s.dragBefore = nil
	return out
}

// Undo restores the previous arrangement.
func (s *Session) Undo() bool {
	if s.machine.State() == interaction.Dragging {
		return false
	}
	prev, ok := s.history.Undo(placement.MakeSnapshot(s.store, "undo"))
	if ok {
		s.store.Reset(prev.Arrangement)
	}
	return ok
}

// Redo re-applies an undone arrangement.
func (s *Session) Redo() bool {
	if s.machine.State() == interaction.Dragging {
		return false
	}
	next, ok := s.history.Redo(placement.MakeSnapshot(s.store, "redo"))
	if ok {
		s.store.Reset(next.Arrangement)
	}
	return ok
}

// Transfer moves content between the pool and pallets.
func (s *Session) Transfer(from, to, productID string, quantity int) pallet.TransferResult {
	return s.pallets.Transfer(from, to, productID, quantity)
}

// UnitChanges diffs the units against the baseline.
func (s *Session) UnitChanges() diff.ChangeSet[diff.UnitState] {
	return diff.ComputeChanges[diff.UnitState](diff.UnitPolicy, diff.UnitStates(s.store.Snapshot()), s.baselineUnits)
}

// PalletChanges diffs the pallets against the baseline.
func (s *Session) PalletChanges() diff.ChangeSet[model.Pallet] {
	return diff.ComputeChanges[model.Pallet](diff.PalletPolicy, s.pallets.Snapshot(), s.baselinePallets)
}

// Dirty reports whether anything differs from the baseline or a background
// write has failed since the last full submission.
func (s *Session) Dirty() bool {
	s.reconcile()
	return s.resync || !s.UnitChanges().Empty() || !s.PalletChanges().Empty()
}

// Pending returns the number of background writes not yet confirmed.
func (s *Session) Pending() int {
	s.reconcile()
	return len(s.pending)
}

// Warnings lists broken placement invariants in human-readable form.
// Upstream data or force-placed units can produce them.
func (s *Session) Warnings() []string {
	return geometry.FormatWarnings(geometry.Validate(s.store.Snapshot(), s.store.Tolerance()))
}

// Submission builds the next persistence request: the change-set against
// the baseline, or the full state after a failed background write.
func (s *Session) Submission() Submission {
	s.reconcile()
	sub := Submission{
		Seq:       s.seq + 1,
		Full:      s.resync,
		Container: s.store.Container(),
		Version:   s.store.Version(),
		Tuples:    s.store.Tuples(),
	}
	if sub.Full {
		sub.Units = diff.ChangeSet[diff.UnitState]{Added: diff.UnitStates(s.store.Snapshot())}
		sub.Pallets = diff.ChangeSet[model.Pallet]{Added: s.pallets.Snapshot()}
		return sub
	}
	sub.Units = s.UnitChanges()
	sub.Pallets = s.PalletChanges()
	return sub
}

// Submit hands the next submission to sink and makes the current state the
// baseline. For a DeferredSink the write is tracked; if it later fails the
// session turns dirty again and the next submission carries the full state.
func (s *Session) Submit(ctx context.Context, sink Sink) (Submission, error) {
	sub := s.Submission()
	if err := sink.Submit(ctx, sub); err != nil {
		return sub, fmt.Errorf("submitting version %d: %w", sub.Version, err)
	}
	s.seq = sub.Seq
	s.resync = false
	if d, ok := sink.(DeferredSink); ok {
		s.pending = append(s.pending, pendingWrite{seq: sub.Seq, full: sub.Full, sink: d})
	}
	s.markSaved()
	return sub, nil
}

// reconcile collects finished background writes in submission order.
func (s *Session) reconcile() {
	for len(s.pending) > 0 {
		p := s.pending[0]
		done, err := p.sink.Outcome(p.seq)
		if !done {
			return
		}
		switch {
		case err != nil:
			s.resync = true
		case p.full:
			s.resync = false
		}
		s.pending = s.pending[1:]
	}
}

func (s *Session) markSaved() {
	s.baselineUnits = diff.UnitStates(s.store.Snapshot())
	s.baselinePallets = s.pallets.Snapshot()
}
