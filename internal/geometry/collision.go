package geometry

import "github.com/piwi3910/TruckLoad/internal/model"

// Overlaps reports whether two boxes share interior volume. Touching faces
// do not overlap.
func Overlaps(a, b model.Box) bool {
	amax, bmax := a.Max(), b.Max()
	return a.Min.X < bmax.X && amax.X > b.Min.X &&
		a.Min.Y < bmax.Y && amax.Y > b.Min.Y &&
		a.Min.Z < bmax.Z && amax.Z > b.Min.Z
}

// FootprintOverlaps reports whether the horizontal projections of two boxes
// share area.
func FootprintOverlaps(a, b model.Box) bool {
	amax, bmax := a.Max(), b.Max()
	return a.Min.X < bmax.X && amax.X > b.Min.X &&
		a.Min.Y < bmax.Y && amax.Y > b.Min.Y
}

// footprintIntersection returns the shared horizontal area of two boxes.
func footprintIntersection(a, b model.Box) float64 {
	amax, bmax := a.Max(), b.Max()
	dx := min(amax.X, bmax.X) - max(a.Min.X, b.Min.X)
	dy := min(amax.Y, bmax.Y) - max(a.Min.Y, b.Min.Y)
	if dx <= 0 || dy <= 0 {
		return 0
	}
	return dx * dy
}

// Collides returns the id of the first unit in others that the subject would
// overlap. Force-placed subjects never collide; force-placed obstacles still
// block other units. A unit is never tested against itself.
func Collides(subject model.Unit, others []model.Unit) (string, bool) {
	if subject.ForcePlaced {
		return "", false
	}
	box := subject.Box()
	for _, o := range others {
		if o.ID == subject.ID {
			continue
		}
		if Overlaps(box, o.Box()) {
			return o.ID, true
		}
	}
	return "", false
}

// BoxCollides is Collides for a bare box that is not yet a unit.
// Units whose id equals skipID are ignored.
func BoxCollides(box model.Box, skipID string, others []model.Unit) bool {
	for _, o := range others {
		if o.ID == skipID {
			continue
		}
		if Overlaps(box, o.Box()) {
			return true
		}
	}
	return false
}
