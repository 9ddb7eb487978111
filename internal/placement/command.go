package placement

import "github.com/piwi3910/TruckLoad/internal/model"

// CommandKind names a store mutation.
type CommandKind string

const (
	CmdInsert      CommandKind = "insert"
	CmdMove        CommandKind = "move"
	CmdDrag        CommandKind = "drag"
	CmdDelete      CommandKind = "delete"
	CmdRestore     CommandKind = "restore"
	CmdRotate      CommandKind = "rotate"
	CmdForcePlace  CommandKind = "force_place"
	CmdUnforce     CommandKind = "unforce"
	CmdSelect      CommandKind = "select"
	CmdDeselect    CommandKind = "deselect"
	CmdResettle    CommandKind = "resettle"
	CmdSetDragging CommandKind = "set_dragging"
)

// Command is one discrete mutation applied through Store.Apply. Commands are
// plain values so they can be recorded, replayed and sent across the wire.
type Command struct {
	Kind     CommandKind `json:"kind"`
	UnitID   string      `json:"unit,omitempty"`
	Unit     *model.Unit `json:"new_unit,omitempty"` // Insert only
	Position model.Vec3  `json:"position"`           // Move and Drag
	Dragging bool        `json:"dragging,omitempty"` // SetDragging
}

// Insert adds a new unit to the active collection at its current position.
func Insert(u model.Unit) Command {
	return Command{Kind: CmdInsert, UnitID: u.ID, Unit: &u}
}

// Move is a committed move: the unit is placed at p and the load resettles.
func Move(id string, p model.Vec3) Command {
	return Command{Kind: CmdMove, UnitID: id, Position: p}
}

// Drag is a transient per-frame move with no resettle.
func Drag(id string, p model.Vec3) Command {
	return Command{Kind: CmdDrag, UnitID: id, Position: p}
}

func Delete(id string) Command     { return Command{Kind: CmdDelete, UnitID: id} }
func Restore(id string) Command    { return Command{Kind: CmdRestore, UnitID: id} }
func Rotate(id string) Command     { return Command{Kind: CmdRotate, UnitID: id} }
func ForcePlace(id string) Command { return Command{Kind: CmdForcePlace, UnitID: id} }
func Unforce(id string) Command    { return Command{Kind: CmdUnforce, UnitID: id} }
func Select(id string) Command     { return Command{Kind: CmdSelect, UnitID: id} }
func Deselect() Command            { return Command{Kind: CmdDeselect} }
func Resettle() Command            { return Command{Kind: CmdResettle} }

// SetDragging marks or clears the transient dragging flag.
func SetDragging(id string, on bool) Command {
	return Command{Kind: CmdSetDragging, UnitID: id, Dragging: on}
}

// Undoable reports whether the command gets its own undo step. Selection and
// the dragging flag are view state; drag frames are recorded once per gesture.
func (c Command) Undoable() bool {
	switch c.Kind {
	case CmdSelect, CmdDeselect, CmdSetDragging, CmdDrag:
		return false
	}
	return true
}

// Rejection explains why a command was not applied.
type Rejection string

const (
	RejectNone           Rejection = ""
	RejectNotFound       Rejection = "not_found"
	RejectCollision      Rejection = "collision"
	RejectOutOfBounds    Rejection = "out_of_bounds"
	RejectNoFreePosition Rejection = "no_free_position"
	RejectUnsupported    Rejection = "unsupported"
	RejectInvalid        Rejection = "invalid"
)

// Outcome is the result of Store.Apply. Rejected commands leave the store
// untouched.
type Outcome struct {
	Applied  bool       `json:"applied"`
	Reason   Rejection  `json:"reason,omitempty"`
	Unit     model.Unit `json:"unit"`               // Unit after the command
	Obstacle string     `json:"obstacle,omitempty"` // Blocking unit on collision
	Settled  []string   `json:"settled,omitempty"`  // Units lowered by resettling
}

func rejected(reason Rejection, u model.Unit) Outcome {
	return Outcome{Reason: reason, Unit: u}
}
