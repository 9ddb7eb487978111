package diff

import "github.com/piwi3910/TruckLoad/internal/model"

// ContentsPolicy compares pallet contents as an ordered list of
// (product, quantity, priority): loading order is layering.
var ContentsPolicy = OrderedList[model.Content]{
	ID: func(c model.Content) string { return c.ProductID },
	ItemEqual: func(a, b model.Content) bool {
		return a.ProductID == b.ProductID && a.Quantity == b.Quantity && a.Priority == b.Priority
	},
}

// PalletPolicy matches pallets by their correlating key. A matched pallet is
// modified when its label, size or ordered contents differ; the modified
// payload carries the persisted id.
var PalletPolicy = MatchedSet[model.Pallet]{
	Key: func(p model.Pallet) string { return p.Key },
	ID:  func(p model.Pallet) string { return p.ID },
	Equal: func(cur, prev model.Pallet) bool {
		return cur.Label == prev.Label &&
			cur.Size == prev.Size &&
			ContentsPolicy.Equal(cur.Contents, prev.Contents)
	},
	Carry: func(cur, prev model.Pallet) model.Pallet {
		cur = cur.Clone()
		if cur.ID == "" {
			cur.ID = prev.ID
		}
		return cur
	},
}

// UnitState is a unit together with its placement status.
type UnitState struct {
	model.Unit
	Removed bool `json:"removed"`
}

// UnitStates flattens an arrangement into unit states, active first.
func UnitStates(a model.Arrangement) []UnitState {
	out := make([]UnitState, 0, len(a.Active)+len(a.Removed))
	for _, u := range a.Active {
		out = append(out, UnitState{Unit: u})
	}
	for _, u := range a.Removed {
		out = append(out, UnitState{Unit: u, Removed: true})
	}
	return out
}

// Tuple encodes the state in the outbound wire shape.
func (s UnitState) Tuple() model.Tuple {
	return model.TupleFromUnit(s.Unit, s.Removed)
}

// UnitPolicy matches units by stable id; set order is irrelevant. Transient
// view flags (dragging, grouping) never count as changes.
var UnitPolicy = MatchedSet[UnitState]{
	Key: func(s UnitState) string { return s.ID },
	ID:  func(s UnitState) string { return s.ID },
	Equal: func(cur, prev UnitState) bool {
		if cur.Removed != prev.Removed {
			return false
		}
		samePlace := cur.Removed || cur.Position == prev.Position
		return samePlace &&
			cur.PlacedSize() == prev.PlacedSize() &&
			cur.Weight == prev.Weight &&
			cur.Rotated == prev.Rotated &&
			cur.ForcePlaced == prev.ForcePlaced
	},
}
