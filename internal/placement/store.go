// Package placement owns the arrangement state: the active and removed unit
// collections and the current selection. All mutation goes through
// Store.Apply, which keeps the collision and support invariants.
package placement

import (
	"github.com/google/uuid"

	"github.com/piwi3910/TruckLoad/internal/geometry"
	"github.com/piwi3910/TruckLoad/internal/model"
)

// Store is the placement state. It is not safe for concurrent use; callers
// drive it from a single event loop.
type Store struct {
	container model.Container
	search    geometry.Search

	active    []model.Unit
	removed   []model.Unit
	selection string
	version   uint64

	subscribers map[int]func(Event)
	nextSub     int
	pending     []Event
}

// NewStore creates an empty store for container, using the support tolerance
// and search step from settings.
func NewStore(container model.Container, settings model.Settings) *Store {
	settings = settings.Normalize()
	return &Store{
		container: container,
		search: geometry.Search{
			Step:      settings.SearchStep,
			Tolerance: settings.SupportTolerance,
		},
		subscribers: make(map[int]func(Event)),
	}
}

// Container returns the container the store places units in.
func (s *Store) Container() model.Container { return s.container }

// Tolerance returns the support tolerance in mm.
func (s *Store) Tolerance() float64 { return s.search.Tolerance }

// Version increases whenever an applied command changes state.
func (s *Store) Version() uint64 { return s.version }

// Active returns a copy of the placed units.
func (s *Store) Active() []model.Unit { return model.CopyUnits(s.active) }

// Removed returns a copy of the set-aside units.
func (s *Store) Removed() []model.Unit { return model.CopyUnits(s.removed) }

// Selection returns the selected unit id, or "".
func (s *Store) Selection() string { return s.selection }

// Unit looks up a unit in either collection.
func (s *Store) Unit(id string) (model.Unit, bool) {
	if i := indexOf(s.active, id); i >= 0 {
		return s.active[i], true
	}
	if i := indexOf(s.removed, id); i >= 0 {
		return s.removed[i], true
	}
	return model.Unit{}, false
}

// IsRemoved reports whether id is in the removed collection.
func (s *Store) IsRemoved(id string) bool {
	return indexOf(s.removed, id) >= 0
}

// Snapshot returns a deep copy of the arrangement.
func (s *Store) Snapshot() model.Arrangement {
	return model.Arrangement{
		Container: s.container,
		Active:    model.CopyUnits(s.active),
		Removed:   model.CopyUnits(s.removed),
		Selection: s.selection,
	}
}

// Tuples encodes the arrangement in the outbound wire shape: active units
// first, then removed units with the unplaced sentinel.
func (s *Store) Tuples() []model.Tuple {
	out := make([]model.Tuple, 0, len(s.active)+len(s.removed))
	for _, u := range s.active {
		out = append(out, model.TupleFromUnit(u, false))
	}
	for _, u := range s.removed {
		out = append(out, model.TupleFromUnit(u, true))
	}
	return out
}

// Subscribe registers fn for change events and returns a function that
// unregisters it.
func (s *Store) Subscribe(fn func(Event)) func() {
	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = fn
	return func() { delete(s.subscribers, id) }
}

// Load replaces the arrangement with upstream tuples. Sentinel tuples go to
// removed, the rest to active. Duplicate stable ids get fresh ids so an id
// never appears twice.
func (s *Store) Load(tuples []model.Tuple) {
	active, removed := model.SplitTuples(tuples)
	seen := make(map[string]bool, len(tuples))
	dedupe := func(units []model.Unit) {
		for i := range units {
			for seen[units[i].ID] {
				units[i].ID = uuid.New().String()[:8]
			}
			seen[units[i].ID] = true
		}
	}
	dedupe(active)
	dedupe(removed)

	s.active, s.removed, s.selection = active, removed, ""
	s.emit(Event{Kind: EventReset})
	s.flush()
}

// Reset replaces the state wholesale, e.g. when undoing. A selection that
// no longer names a known unit is cleared.
func (s *Store) Reset(a model.Arrangement) {
	s.active = model.CopyUnits(a.Active)
	s.removed = model.CopyUnits(a.Removed)
	s.selection = a.Selection
	if _, ok := s.Unit(s.selection); !ok {
		s.selection = ""
	}
	s.emit(Event{Kind: EventReset})
	s.flush()
}

// Apply is the single mutation entry point.
func (s *Store) Apply(cmd Command) Outcome {
	var out Outcome
	switch cmd.Kind {
	case CmdInsert:
		out = s.insert(cmd)
	case CmdMove:
		out = s.move(cmd.UnitID, cmd.Position, true)
	case CmdDrag:
		out = s.move(cmd.UnitID, cmd.Position, false)
	case CmdDelete:
		out = s.delete(cmd.UnitID)
	case CmdRestore:
		out = s.restore(cmd.UnitID)
	case CmdRotate:
		out = s.rotate(cmd.UnitID)
	case CmdForcePlace:
		out = s.setFlag(cmd.UnitID, func(u *model.Unit) { u.ForcePlaced = true })
	case CmdUnforce:
		out = s.setFlag(cmd.UnitID, func(u *model.Unit) { u.ForcePlaced = false })
	case CmdSetDragging:
		on := cmd.Dragging
		out = s.setFlag(cmd.UnitID, func(u *model.Unit) { u.Dragging = on })
	case CmdSelect:
		out = s.selectUnit(cmd.UnitID)
	case CmdDeselect:
		out = s.deselect()
	case CmdResettle:
		out = Outcome{Applied: true, Settled: s.resettle()}
	default:
		return rejected(RejectInvalid, model.Unit{})
	}
	if out.Applied {
		s.flush()
	} else {
		s.pending = nil
	}
	return out
}

func (s *Store) insert(cmd Command) Outcome {
	if cmd.Unit == nil {
		return rejected(RejectInvalid, model.Unit{})
	}
	u := *cmd.Unit
	u.Size = u.Size.Sanitize()
	u.Dragging = false
	if u.ID == "" {
		u.ID = uuid.New().String()[:8]
	}
	if _, exists := s.Unit(u.ID); exists {
		return rejected(RejectInvalid, u)
	}
	if !s.container.Contains(u.Box()) {
		return rejected(RejectOutOfBounds, u)
	}
	if obstacle, hit := geometry.Collides(u, s.active); hit {
		out := rejected(RejectCollision, u)
		out.Obstacle = obstacle
		return out
	}
	s.active = append(s.active, u)
	s.emit(Event{Kind: EventAdded, UnitID: u.ID})
	settled := s.resettle()
	u, _ = s.Unit(u.ID)
	return Outcome{Applied: true, Unit: u, Settled: settled}
}

func (s *Store) move(id string, p model.Vec3, commit bool) Outcome {
	i := indexOf(s.active, id)
	if i < 0 {
		return s.notActive(id)
	}
	cand := s.active[i].At(p)
	if !s.container.Contains(cand.Box()) {
		return rejected(RejectOutOfBounds, s.active[i])
	}
	if obstacle, hit := geometry.Collides(cand, s.active); hit {
		out := rejected(RejectCollision, s.active[i])
		out.Obstacle = obstacle
		return out
	}
	s.active[i] = cand
	s.emit(Event{Kind: EventMoved, UnitID: id})
	var settled []string
	if commit {
		settled = s.resettle()
	}
	u, _ := s.Unit(id)
	return Outcome{Applied: true, Unit: u, Settled: settled}
}

func (s *Store) delete(id string) Outcome {
	i := indexOf(s.active, id)
	if i < 0 {
		return s.notActive(id)
	}
	u := s.active[i]
	u.Dragging = false
	s.active = append(s.active[:i:i], s.active[i+1:]...)
	s.removed = append(s.removed, u)
	s.emit(Event{Kind: EventRemoved, UnitID: id})
	return Outcome{Applied: true, Unit: u, Settled: s.resettle()}
}

func (s *Store) restore(id string) Outcome {
	i := indexOf(s.removed, id)
	if i < 0 {
		if j := indexOf(s.active, id); j >= 0 {
			return rejected(RejectInvalid, s.active[j])
		}
		return rejected(RejectNotFound, model.Unit{ID: id})
	}
	u := s.removed[i]
	placed, ok := geometry.FindFreePosition(u, s.active, s.container, s.search)
	if !ok {
		return rejected(RejectNoFreePosition, u)
	}
	s.removed = append(s.removed[:i:i], s.removed[i+1:]...)
	s.active = append(s.active, placed)
	s.emit(Event{Kind: EventRestored, UnitID: id})
	settled := s.resettle()
	u, _ = s.Unit(id)
	return Outcome{Applied: true, Unit: u, Settled: settled}
}

// rotate toggles the orientation in place. Active units are re-checked at
// the unchanged position and the rotation is refused on failure.
func (s *Store) rotate(id string) Outcome {
	if i := indexOf(s.removed, id); i >= 0 {
		s.removed[i].Rotated = !s.removed[i].Rotated
		s.emit(Event{Kind: EventChanged, UnitID: id})
		return Outcome{Applied: true, Unit: s.removed[i]}
	}
	i := indexOf(s.active, id)
	if i < 0 {
		return rejected(RejectNotFound, model.Unit{ID: id})
	}
	cand := s.active[i]
	cand.Rotated = !cand.Rotated
	if !s.container.Contains(cand.Box()) {
		return rejected(RejectOutOfBounds, s.active[i])
	}
	if obstacle, hit := geometry.Collides(cand, s.active); hit {
		out := rejected(RejectCollision, s.active[i])
		out.Obstacle = obstacle
		return out
	}
	s.active[i] = cand
	s.emit(Event{Kind: EventMoved, UnitID: id})
	settled := s.resettle()
	u, _ := s.Unit(id)
	return Outcome{Applied: true, Unit: u, Settled: settled}
}

func (s *Store) setFlag(id string, set func(*model.Unit)) Outcome {
	units := s.active
	i := indexOf(units, id)
	if i < 0 {
		units = s.removed
		i = indexOf(units, id)
	}
	if i < 0 {
		return rejected(RejectNotFound, model.Unit{ID: id})
	}
	before := units[i]
	set(&units[i])
	if units[i] != before {
		s.emit(Event{Kind: EventChanged, UnitID: id})
	}
	return Outcome{Applied: true, Unit: units[i]}
}

func (s *Store) selectUnit(id string) Outcome {
	u, ok := s.Unit(id)
	if !ok {
		return rejected(RejectNotFound, model.Unit{ID: id})
	}
	if s.selection != id {
		s.selection = id
		s.emit(Event{Kind: EventChanged, UnitID: id})
	}
	return Outcome{Applied: true, Unit: u}
}

func (s *Store) deselect() Outcome {
	prev := s.selection
	if prev == "" {
		return Outcome{Applied: true}
	}
	s.selection = ""
	s.emit(Event{Kind: EventChanged, UnitID: prev})
	u, _ := s.Unit(prev)
	return Outcome{Applied: true, Unit: u}
}

// resettle lowers floating active units and queues a move event for each.
func (s *Store) resettle() []string {
	settled, lowered := geometry.ResettleAll(s.active)
	s.active = settled
	for _, id := range lowered {
		s.emit(Event{Kind: EventMoved, UnitID: id})
	}
	return lowered
}

func (s *Store) notActive(id string) Outcome {
	if i := indexOf(s.removed, id); i >= 0 {
		return rejected(RejectInvalid, s.removed[i])
	}
	return rejected(RejectNotFound, model.Unit{ID: id})
}

func (s *Store) emit(e Event) {
	s.pending = append(s.pending, e)
}

// flush bumps the version once and delivers queued events with the unit
// state as of the end of the command.
func (s *Store) flush() {
	if len(s.pending) == 0 {
		return
	}
	s.version++
	events := s.pending
	s.pending = nil
	for _, e := range events {
		e.Version = s.version
		if e.UnitID != "" {
			e.Unit, _ = s.Unit(e.UnitID)
		}
		for _, fn := range s.subscribers {
			fn(e)
		}
	}
}

func indexOf(units []model.Unit, id string) int {
	if id == "" {
		return -1
	}
	for i := range units {
		if units[i].ID == id {
			return i
		}
	}
	return -1
}
