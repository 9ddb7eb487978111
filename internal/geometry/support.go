package geometry

import (
	"math"
	"sort"

	"github.com/piwi3910/TruckLoad/internal/model"
)

// LowestValidZ returns the lowest z at which box rests without sinking into
// any unit in others whose footprint overlaps it: the highest overlapping
// top face, or the floor. Units whose id equals skipID are ignored.
func LowestValidZ(box model.Box, skipID string, others []model.Unit) float64 {
	z := 0.0
	for _, o := range others {
		if o.ID == skipID {
			continue
		}
		ob := o.Box()
		if FootprintOverlaps(box, ob) {
			z = math.Max(z, ob.Top())
		}
	}
	return z
}

// ResettleAll lowers every unit that floats above its lowest valid z.
// Units are processed in ascending z (ties by id) against the units already
// settled in the pass, so one pass converges. The result keeps the input
// order; lowered lists the ids that moved.
func ResettleAll(units []model.Unit) (settled []model.Unit, lowered []string) {
	settled = model.CopyUnits(units)
	order := make([]int, len(settled))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ua, ub := settled[order[a]], settled[order[b]]
		if ua.Position.Z != ub.Position.Z {
			return ua.Position.Z < ub.Position.Z
		}
		return ua.ID < ub.ID
	})

	done := make([]model.Unit, 0, len(settled))
	for _, idx := range order {
		u := settled[idx]
		lowest := LowestValidZ(u.Box(), u.ID, done)
		if u.Position.Z > lowest {
			u.Position.Z = lowest
			settled[idx] = u
			lowered = append(lowered, u.ID)
		}
		done = append(done, u)
	}
	return settled, lowered
}

// IsSupported reports whether box rests on the floor or on top faces that
// together cover its whole footprint, each within tolerance of box's bottom.
func IsSupported(box model.Box, skipID string, others []model.Unit, tolerance float64) bool {
	z := box.Min.Z
	if z <= tolerance {
		return true
	}
	area := box.FootprintArea()
	if area <= 0 {
		return hasTopNear(z, skipID, others, tolerance)
	}
	var covered float64
	for _, o := range others {
		if o.ID == skipID {
			continue
		}
		ob := o.Box()
		if math.Abs(ob.Top()-z) > tolerance {
			continue
		}
		covered += footprintIntersection(box, ob)
	}
	return covered >= area-1e-6*math.Max(1, area)
}

// Unsupported returns the ids of units above the floor that rest on nothing:
// no other unit's top face lies within tolerance under any part of them.
func Unsupported(units []model.Unit, tolerance float64) []string {
	var ids []string
	for _, u := range units {
		b := u.Box()
		if b.Min.Z <= tolerance {
			continue
		}
		supported := false
		for _, o := range units {
			if o.ID == u.ID {
				continue
			}
			ob := o.Box()
			if math.Abs(ob.Top()-b.Min.Z) <= tolerance && FootprintOverlaps(b, ob) {
				supported = true
				break
			}
		}
		if !supported {
			ids = append(ids, u.ID)
		}
	}
	return ids
}

// Riders returns the ids of units resting on the unit id, directly or
// through other units, in discovery order. A unit rests on another when
// their footprints overlap and its bottom is within tolerance of the top.
func Riders(units []model.Unit, id string, tolerance float64) []string {
	var out []string
	seen := map[string]bool{id: true}
	queue := []string{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		var base model.Box
		found := false
		for _, u := range units {
			if u.ID == cur {
				base, found = u.Box(), true
				break
			}
		}
		if !found {
			continue
		}
		for _, u := range units {
			if seen[u.ID] {
				continue
			}
			b := u.Box()
			if math.Abs(b.Min.Z-base.Top()) <= tolerance && FootprintOverlaps(b, base) {
				seen[u.ID] = true
				out = append(out, u.ID)
				queue = append(queue, u.ID)
			}
		}
	}
	return out
}

func hasTopNear(z float64, skipID string, others []model.Unit, tolerance float64) bool {
	for _, o := range others {
		if o.ID != skipID && math.Abs(o.Box().Top()-z) <= tolerance {
			return true
		}
	}
	return false
}

// Search configures FindFreePosition.
type Search struct {
	Step      float64 // Grid step in mm
	Tolerance float64 // Support tolerance in mm
}

// FindFreePosition searches for the first in-bounds, non-colliding and
// supported position for unit, scanning z (ascending) then x then y. The
// grid is the step lattice plus the floor and every neighbour's far edge
// and top face, so flush slots off the lattice are found too. When nothing
// fits in the unit's orientation the search runs once more rotated 90°.
func FindFreePosition(unit model.Unit, others []model.Unit, container model.Container, s Search) (model.Unit, bool) {
	if s.Step <= 0 {
		s.Step = 50
	}
	candidates := []model.Unit{unit}
	turned := unit
	turned.Rotated = !unit.Rotated
	candidates = append(candidates, turned)

	for _, cand := range candidates {
		if found, ok := scanGrid(cand, others, container, s); ok {
			return found, true
		}
	}
	return unit, false
}

func scanGrid(unit model.Unit, others []model.Unit, container model.Container, s Search) (model.Unit, bool) {
	size := unit.PlacedSize()
	if size.Length > container.Length || size.Width > container.Width || size.Height > container.Height {
		return unit, false
	}

	var xEdges, yEdges, tops []float64
	for _, o := range others {
		if o.ID == unit.ID {
			continue
		}
		ob := o.Box()
		far := ob.Max()
		xEdges = append(xEdges, far.X)
		yEdges = append(yEdges, far.Y)
		tops = append(tops, ob.Top())
	}
	zs := lattice(container.Height-size.Height, s.Step, tops)
	xs := lattice(container.Length-size.Length, s.Step, xEdges)
	ys := lattice(container.Width-size.Width, s.Step, yEdges)

	for _, z := range zs {
		if z > s.Tolerance && !hasTopNear(z, unit.ID, others, s.Tolerance) {
			continue
		}
		for _, x := range xs {
			for _, y := range ys {
				box := model.Box{Min: model.Vec3{X: x, Y: y, Z: z}, Size: size}
				if BoxCollides(box, unit.ID, others) {
					continue
				}
				if !IsSupported(box, unit.ID, others, s.Tolerance) {
					continue
				}
				return unit.At(box.Min), true
			}
		}
	}
	return unit, false
}

// lattice returns the ascending, de-duplicated grid values in [0, limit]:
// multiples of step plus any extra values inside the range.
func lattice(limit, step float64, extra []float64) []float64 {
	const eps = 1e-6
	if limit < -eps {
		return nil
	}
	limit = math.Max(0, limit)
	vals := make([]float64, 0, int(limit/step)+len(extra)+1)
	for v := 0.0; v <= limit+eps; v += step {
		vals = append(vals, math.Min(v, limit))
	}
	for _, e := range extra {
		if e >= -eps && e <= limit+eps {
			vals = append(vals, math.Max(0, math.Min(e, limit)))
		}
	}
	sort.Float64s(vals)
	out := vals[:0]
	for i, v := range vals {
		if i > 0 && v-out[len(out)-1] < eps {
			continue
		}
		out = append(out, v)
	}
	return out
}
