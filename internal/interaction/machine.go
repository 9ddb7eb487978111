// Package interaction turns pointer input into placement commands: a drag
// state machine with ground-plane picking, smoothing, clamping and snapping,
// plus the camera zoom bounds.
package interaction

import (
	"github.com/piwi3910/TruckLoad/internal/geometry"
	"github.com/piwi3910/TruckLoad/internal/model"
	"github.com/piwi3910/TruckLoad/internal/placement"
)

// State is the drag machine state.
type State int

const (
	Idle State = iota
	Dragging
	Committed
	Cancelled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	case Committed:
		return "committed"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// WarnCannotPlace is the transient signal raised for a rejected frame.
const WarnCannotPlace = "cannot place"

// Frame reports one pointer-move while dragging.
type Frame struct {
	UnitID   string
	Target   model.Vec3 // Raw ground-plane target before smoothing
	Position model.Vec3 // Unit position after the frame
	Accepted bool
	Warning  string
	Reason   placement.Rejection
	Obstacle string
}

// Outcome reports the end of a drag gesture. The machine is back in Idle
// when it is returned.
type Outcome struct {
	State   State
	UnitID  string
	Frames  int // Accepted frames
	From    model.Vec3
	To      model.Vec3
	Settled []string
}

// Machine is the drag state machine. It reads the store freely but mutates
// it only through Store.Apply.
type Machine struct {
	store     *placement.Store
	threshold float64
	smoothing float64
	enabled   bool

	state    State
	unitID   string
	grab     model.Vec3 // Unit origin minus the ground hit at pointer-down
	current  model.Vec3 // Smoothed target
	start    model.Vec3
	accepted int
	riders   map[string]bool // Units resting on the dragged one at pointer-down
}

// NewMachine creates an enabled machine driving store.
func NewMachine(store *placement.Store, settings model.Settings) *Machine {
	settings = settings.Normalize()
	return &Machine{
		store:     store,
		threshold: settings.SnapThreshold,
		smoothing: settings.DragSmoothing,
		enabled:   true,
	}
}

// State returns the current state.
func (m *Machine) State() State { return m.state }

// Enabled reports whether pointer-down starts drags.
func (m *Machine) Enabled() bool { return m.enabled }

// SetEnabled turns drag start on or off. A drag in progress is unaffected.
func (m *Machine) SetEnabled(on bool) { m.enabled = on }

// DraggedID returns the unit being dragged, or "".
func (m *Machine) DraggedID() string { return m.unitID }

// PointerDown starts a drag on the nearest active unit under the ray.
func (m *Machine) PointerDown(r Ray) (model.Unit, bool) {
	if !m.enabled || m.state != Idle {
		return model.Unit{}, false
	}
	u, ok := Pick(r, m.store.Active())
	if !ok {
		return model.Unit{}, false
	}
	ground, ok := r.PlaneZ(0)
	if !ok {
		return model.Unit{}, false
	}

	m.unitID = u.ID
	m.grab = model.Vec3{X: u.Position.X - ground.X, Y: u.Position.Y - ground.Y}
	m.current = model.Vec3{X: u.Position.X, Y: u.Position.Y}
	m.start = u.Position
	m.accepted = 0
	m.riders = make(map[string]bool)
	for _, id := range geometry.Riders(m.store.Active(), u.ID, m.store.Tolerance()) {
		m.riders[id] = true
	}
	m.state = Dragging

	m.store.Apply(placement.SetDragging(u.ID, true))
	m.store.Apply(placement.Select(u.ID))
	u, _ = m.store.Unit(u.ID)
	return u, true
}

// PointerMove proposes a new position for the dragged unit. The target is
// smoothed toward the pointer, clamped to the container, snapped, and then
// applied as a transient drag; a rejected frame keeps the previous position.
func (m *Machine) PointerMove(r Ray) Frame {
	if m.state != Dragging {
		return Frame{}
	}
	u, ok := m.store.Unit(m.unitID)
	if !ok || m.store.IsRemoved(m.unitID) {
		return Frame{UnitID: m.unitID, Reason: placement.RejectNotFound, Warning: WarnCannotPlace}
	}
	frame := Frame{UnitID: u.ID, Position: u.Position}

	ground, ok := r.PlaneZ(0)
	if !ok {
		return frame
	}
	frame.Target = model.Vec3{X: ground.X + m.grab.X, Y: ground.Y + m.grab.Y}

	m.current = model.Vec3{
		X: m.current.X + (frame.Target.X-m.current.X)*m.smoothing,
		Y: m.current.Y + (frame.Target.Y-m.current.Y)*m.smoothing,
	}
	container := m.store.Container()
	clamped := container.Clamp(m.current, u.PlacedSize())
	snapped := geometry.Snap(u, clamped, m.obstacles(), container, m.threshold)

	out := m.store.Apply(placement.Drag(u.ID, snapped))
	if !out.Applied {
		frame.Warning = WarnCannotPlace
		frame.Reason = out.Reason
		frame.Obstacle = out.Obstacle
		return frame
	}
	m.accepted++
	frame.Accepted = true
	frame.Position = out.Unit.Position
	return frame
}

// PointerUp ends the gesture. With at least one accepted frame the drag is
// committed and the load resettles; otherwise it is cancelled.
func (m *Machine) PointerUp() Outcome {
	if m.state != Dragging {
		return Outcome{State: Cancelled}
	}
	out := Outcome{State: Cancelled, UnitID: m.unitID, Frames: m.accepted, From: m.start, To: m.start}

	if _, ok := m.store.Unit(m.unitID); ok {
		m.store.Apply(placement.SetDragging(m.unitID, false))
		if m.accepted > 0 && !m.store.IsRemoved(m.unitID) {
			res := m.store.Apply(placement.Resettle())
			out.State = Committed
			out.Settled = res.Settled
		}
		u, _ := m.store.Unit(m.unitID)
		out.To = u.Position
	}
	m.reset()
	return out
}

// obstacles returns the active units the dragged unit snaps and stacks
// against. Its own riders are left out so it never climbs onto them.
func (m *Machine) obstacles() []model.Unit {
	active := m.store.Active()
	out := active[:0]
	for _, u := range active {
		if !m.riders[u.ID] {
			out = append(out, u)
		}
	}
	return out
}

func (m *Machine) reset() {
	m.state = Idle
	m.unitID = ""
	m.grab = model.Vec3{}
	m.current = model.Vec3{}
	m.start = model.Vec3{}
	m.accepted = 0
	m.riders = nil
}

// Rotate toggles the unit's orientation.
func (m *Machine) Rotate(id string) placement.Outcome {
	return m.store.Apply(placement.Rotate(id))
}

// ForcePlace exempts the unit from collision rejection.
func (m *Machine) ForcePlace(id string) placement.Outcome {
	return m.store.Apply(placement.ForcePlace(id))
}

// Unforce clears the collision exemption.
func (m *Machine) Unforce(id string) placement.Outcome {
	return m.store.Apply(placement.Unforce(id))
}

// Delete sets the unit aside. Deleting the unit being dragged ends the drag.
func (m *Machine) Delete(id string) placement.Outcome {
	out := m.store.Apply(placement.Delete(id))
	if out.Applied && m.state == Dragging && id == m.unitID {
		m.reset()
	}
	return out
}

// Restore brings a removed unit back at the first free supported position.
func (m *Machine) Restore(id string) placement.Outcome {
	return m.store.Apply(placement.Restore(id))
}
