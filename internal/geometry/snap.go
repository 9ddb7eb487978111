package geometry

import (
	"math"

	"github.com/piwi3910/TruckLoad/internal/model"
)

// snapCandidate is the best adjustment found so far on one axis.
type snapCandidate struct {
	delta float64 // Value to add to the coordinate
	dist  float64
	id    string // Neighbour id; "" for container walls
	found bool
}

// consider keeps the nearest adjustment; equal distances go to the smaller id.
func (c *snapCandidate) consider(delta float64, id string, threshold float64) {
	dist := math.Abs(delta)
	if dist > threshold {
		return
	}
	if !c.found || dist < c.dist || (dist == c.dist && id < c.id) {
		*c = snapCandidate{delta: delta, dist: dist, id: id, found: true}
	}
}

// Snap adjusts a drag target so the unit's edges sit flush against nearby
// neighbour edges or container walls within threshold. Each horizontal axis
// snaps independently; a neighbour only counts on one axis when it is within
// threshold of the unit on the other axis. Z is then the lowest valid z for
// the snapped footprint, so dropping a unit over another stacks it.
func Snap(unit model.Unit, target model.Vec3, others []model.Unit, container model.Container, threshold float64) model.Vec3 {
	size := unit.PlacedSize()
	p := container.Clamp(target, size)

	if threshold > 0 {
		var bestX, bestY snapCandidate
		lo := model.Vec3{X: p.X, Y: p.Y}
		hi := model.Vec3{X: p.X + size.Length, Y: p.Y + size.Width}

		// container walls
		bestX.consider(0-lo.X, "", threshold)
		bestX.consider(container.Length-hi.X, "", threshold)
		bestY.consider(0-lo.Y, "", threshold)
		bestY.consider(container.Width-hi.Y, "", threshold)

		for _, o := range others {
			if o.ID == unit.ID {
				continue
			}
			ob := o.Box()
			omin, omax := ob.Min, ob.Max()

			if rangesNear(lo.Y, hi.Y, omin.Y, omax.Y, threshold) {
				bestX.consider(omin.X-hi.X, o.ID, threshold) // leading edge against its trailing edge
				bestX.consider(omax.X-lo.X, o.ID, threshold) // trailing edge against its leading edge
				bestX.consider(omin.X-lo.X, o.ID, threshold)
				bestX.consider(omax.X-hi.X, o.ID, threshold)
			}
			if rangesNear(lo.X, hi.X, omin.X, omax.X, threshold) {
				bestY.consider(omin.Y-hi.Y, o.ID, threshold)
				bestY.consider(omax.Y-lo.Y, o.ID, threshold)
				bestY.consider(omin.Y-lo.Y, o.ID, threshold)
				bestY.consider(omax.Y-hi.Y, o.ID, threshold)
			}
		}
		if bestX.found {
			p.X += bestX.delta
		}
		if bestY.found {
			p.Y += bestY.delta
		}
		p = container.Clamp(p, size)
	}

	box := model.Box{Min: p, Size: size}
	p.Z = LowestValidZ(box, unit.ID, others)
	return p
}

// rangesNear reports whether [aLo,aHi] and [bLo,bHi] overlap or are
// separated by no more than gap.
func rangesNear(aLo, aHi, bLo, bHi, gap float64) bool {
	return aLo < bHi+gap && aHi > bLo-gap
}
