package geometry

import (
	"fmt"

	"github.com/piwi3910/TruckLoad/internal/model"
)

// ViolationKind classifies a broken arrangement invariant.
type ViolationKind string

const (
	ViolationOverlap     ViolationKind = "overlap"
	ViolationOutOfBounds ViolationKind = "out_of_bounds"
	ViolationFloating    ViolationKind = "floating"
)

// Violation describes one broken invariant of an arrangement.
type Violation struct {
	Kind    ViolationKind
	UnitID  string
	OtherID string // Second unit for overlaps
	At      model.Vec3
}

// Validate checks the active units of an arrangement: every unit inside the
// container, no overlap between two units that are both free-placed, and
// every raised unit resting on something within tolerance.
func Validate(a model.Arrangement, tolerance float64) []Violation {
	var violations []Violation

	for _, u := range a.Active {
		if !a.Container.Contains(u.Box()) {
			violations = append(violations, Violation{Kind: ViolationOutOfBounds, UnitID: u.ID, At: u.Position})
		}
	}

	for i, u := range a.Active {
		for _, o := range a.Active[i+1:] {
			if u.ForcePlaced || o.ForcePlaced {
				continue
			}
			if Overlaps(u.Box(), o.Box()) {
				violations = append(violations, Violation{Kind: ViolationOverlap, UnitID: u.ID, OtherID: o.ID, At: u.Position})
			}
		}
	}

	floating := Unsupported(a.Active, tolerance)
	byID := make(map[string]model.Unit, len(a.Active))
	for _, u := range a.Active {
		byID[u.ID] = u
	}
	for _, id := range floating {
		violations = append(violations, Violation{Kind: ViolationFloating, UnitID: id, At: byID[id].Position})
	}

	return deduplicateViolations(violations)
}

// deduplicateViolations keeps at most one violation per (kind, unit, other) triple.
func deduplicateViolations(violations []Violation) []Violation {
	type key struct {
		kind  ViolationKind
		unit  string
		other string
	}
	seen := make(map[key]bool)
	var result []Violation

	for _, v := range violations {
		k := key{v.Kind, v.UnitID, v.OtherID}
		if !seen[k] {
			seen[k] = true
			result = append(result, v)
		}
	}
	return result
}

// FormatWarnings produces human-readable messages from violations.
func FormatWarnings(violations []Violation) []string {
	var warnings []string
	for _, v := range violations {
		var msg string
		switch v.Kind {
		case ViolationOverlap:
			msg = fmt.Sprintf("Unit %q overlaps unit %q at (%.0f, %.0f, %.0f)",
				v.UnitID, v.OtherID, v.At.X, v.At.Y, v.At.Z)
		case ViolationOutOfBounds:
			msg = fmt.Sprintf("Unit %q extends outside the container at (%.0f, %.0f, %.0f)",
				v.UnitID, v.At.X, v.At.Y, v.At.Z)
		case ViolationFloating:
			msg = fmt.Sprintf("Unit %q has no support under it at height %.0f mm", v.UnitID, v.At.Z)
		default:
			msg = fmt.Sprintf("Unit %q: %s", v.UnitID, v.Kind)
		}
		warnings = append(warnings, msg)
	}
	return warnings
}
