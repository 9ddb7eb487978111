package model

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// TupleFields is the number of ordered fields in a placement tuple:
// [x, y, z, length, width, height, externalId, weight, stableId].
const TupleFields = 9

// Unplaced is the coordinate the optimizer writes for units it could not place.
const Unplaced = -1.0

// Tuple is one placed unit in the upstream/persistence wire shape.
type Tuple struct {
	X, Y, Z               float64
	Length, Width, Height float64
	ExternalID            string
	Weight                float64
	StableID              string
}

// IsUnplaced reports whether the tuple carries the x=y=z=-1 sentinel.
func (t Tuple) IsUnplaced() bool {
	return t.X == Unplaced && t.Y == Unplaced && t.Z == Unplaced
}

// Unit converts the tuple into a Unit. A missing stable id gets a generated one.
func (t Tuple) Unit() Unit {
	u := NewUnit(t.ExternalID, t.Length, t.Width, t.Height, t.Weight)
	u.Size = u.Size.Sanitize()
	u.Weight = sanitize(u.Weight)
	if t.StableID != "" {
		u.ID = t.StableID
	}
	if !t.IsUnplaced() {
		u.Position = Vec3{X: t.X, Y: t.Y, Z: t.Z}
	}
	return u
}

// TupleFromUnit encodes a unit. Removed units use the unplaced sentinel.
// Length and width are written as placed, so rotation survives the round trip.
func TupleFromUnit(u Unit, removed bool) Tuple {
	s := u.PlacedSize()
	t := Tuple{
		X: u.Position.X, Y: u.Position.Y, Z: u.Position.Z,
		Length: s.Length, Width: s.Width, Height: s.Height,
		ExternalID: u.ExternalID,
		Weight:     u.Weight,
		StableID:   u.ID,
	}
	if removed {
		t.X, t.Y, t.Z = Unplaced, Unplaced, Unplaced
	}
	return t
}

// Values returns the tuple as an ordered slice for encoding.
func (t Tuple) Values() []any {
	return []any{t.X, t.Y, t.Z, t.Length, t.Width, t.Height, t.ExternalID, t.Weight, t.StableID}
}

// MarshalJSON writes the tuple as a nine-element array.
func (t Tuple) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Values())
}

// UnmarshalJSON reads a tuple array. Malformed fields become zero values.
func (t *Tuple) UnmarshalJSON(data []byte) error {
	var raw []any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("tuple is not an array: %w", err)
	}
	*t = ParseTuple(raw)
	return nil
}

// ParseTuple builds a tuple from loosely typed values, coercing missing or
// non-numeric dimensions to zero rather than failing.
func ParseTuple(vals []any) Tuple {
	field := func(i int) any {
		if i < len(vals) {
			return vals[i]
		}
		return nil
	}
	return Tuple{
		X:          CoerceFloat(field(0)),
		Y:          CoerceFloat(field(1)),
		Z:          CoerceFloat(field(2)),
		Length:     CoerceFloat(field(3)),
		Width:      CoerceFloat(field(4)),
		Height:     CoerceFloat(field(5)),
		ExternalID: CoerceString(field(6)),
		Weight:     CoerceFloat(field(7)),
		StableID:   CoerceString(field(8)),
	}
}

// ParseTupleStrings is ParseTuple for text rows (CSV, spreadsheets).
func ParseTupleStrings(row []string) Tuple {
	vals := make([]any, len(row))
	for i, s := range row {
		vals[i] = s
	}
	return ParseTuple(vals)
}

// CoerceFloat converts numbers and numeric strings to float64; anything else is 0.
func CoerceFloat(v any) float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// CoerceString renders ids that may arrive as numbers or strings.
func CoerceString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case json.Number:
		return s.String()
	default:
		return fmt.Sprint(s)
	}
}

// SplitTuples routes tuples into active and removed units.
func SplitTuples(tuples []Tuple) (active, removed []Unit) {
	for _, t := range tuples {
		if t.IsUnplaced() {
			removed = append(removed, t.Unit())
			continue
		}
		active = append(active, t.Unit())
	}
	return active, removed
}
