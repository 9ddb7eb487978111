package engine

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/piwi3910/TruckLoad/internal/interaction"
	"github.com/piwi3910/TruckLoad/internal/placement"
)

// StepKind names a replay step.
type StepKind string

const (
	StepCommand     StepKind = "command"
	StepPointerDown StepKind = "pointer_down"
	StepPointerMove StepKind = "pointer_move"
	StepPointerUp   StepKind = "pointer_up"
	StepUndo        StepKind = "undo"
	StepRedo        StepKind = "redo"
	StepTransfer    StepKind = "transfer"
	StepZoom        StepKind = "zoom"
)

// Step is one scripted user action. Pointer steps use a vertical ray at
// (X, Y), so scripts need no camera.
type Step struct {
	Kind    StepKind           `json:"kind"`
	Command *placement.Command `json:"command,omitempty"`
	X       float64            `json:"x,omitempty"`
	Y       float64            `json:"y,omitempty"`

	From      string  `json:"from,omitempty"`
	To        string  `json:"to,omitempty"`
	ProductID string  `json:"product_id,omitempty"`
	Quantity  int     `json:"quantity,omitempty"`
	Zoom      float64 `json:"zoom,omitempty"`
}

// StepResult reports how one step went.
type StepResult struct {
	Index   int      `json:"index"`
	Kind    StepKind `json:"kind"`
	Applied bool     `json:"applied"`
	Message string   `json:"message,omitempty"`
}

// ParseScript decodes a JSON array of steps.
func ParseScript(r io.Reader) ([]Step, error) {
	var steps []Step
	if err := json.NewDecoder(r).Decode(&steps); err != nil {
		return nil, fmt.Errorf("decoding script: %w", err)
	}
	return steps, nil
}

// Replay runs steps against the session in order. A step that is refused is
// reported and replay continues; only a malformed step stops it.
func (s *Session) Replay(steps []Step) ([]StepResult, error) {
	results := make([]StepResult, 0, len(steps))
	for i, step := range steps {
		res, err := s.runStep(step)
		if err != nil {
			return results, fmt.Errorf("step %d (%s): %w", i, step.Kind, err)
		}
		res.Index = i
		res.Kind = step.Kind
		results = append(results, res)
	}
	return results, nil
}

func (s *Session) runStep(step Step) (StepResult, error) {
	switch step.Kind {
	case StepCommand:
		if step.Command == nil {
			return StepResult{}, fmt.Errorf("missing command")
		}
		out := s.Dispatch(*step.Command)
		return StepResult{Applied: out.Applied, Message: string(out.Reason)}, nil
	case StepPointerDown:
		u, ok := s.PointerDown(interaction.VerticalRay(step.X, step.Y))
		return StepResult{Applied: ok, Message: u.ID}, nil
	case StepPointerMove:
		f := s.PointerMove(interaction.VerticalRay(step.X, step.Y))
		return StepResult{Applied: f.Accepted, Message: f.Warning}, nil
	case StepPointerUp:
		out := s.PointerUp()
		return StepResult{Applied: out.State == interaction.Committed, Message: out.State.String()}, nil
	case StepUndo:
		return StepResult{Applied: s.Undo()}, nil
	case StepRedo:
		return StepResult{Applied: s.Redo()}, nil
	case StepTransfer:
		res := s.Transfer(step.From, step.To, step.ProductID, step.Quantity)
		return StepResult{Applied: res.Applied(), Message: res.Message}, nil
	case StepZoom:
		z := s.camera.SetZoom(step.Zoom)
		return StepResult{Applied: true, Message: fmt.Sprintf("%.2f", z)}, nil
	default:
		return StepResult{}, fmt.Errorf("unknown step kind %q", step.Kind)
	}
}
