package interaction

import (
	"math"

	"github.com/piwi3910/TruckLoad/internal/model"
)

// Ray is a pointer ray in container space.
type Ray struct {
	Origin model.Vec3
	Dir    model.Vec3
}

// VerticalRay points straight down at (x, y) from above the container.
// Headless callers and replay scripts use it in place of a camera.
func VerticalRay(x, y float64) Ray {
	return Ray{Origin: model.Vec3{X: x, Y: y, Z: 1e6}, Dir: model.Vec3{Z: -1}}
}

// At returns the point at parameter t along the ray.
func (r Ray) At(t float64) model.Vec3 {
	return r.Origin.Add(r.Dir.Scale(t))
}

// PlaneZ intersects the ray with the horizontal plane at height z.
func (r Ray) PlaneZ(z float64) (model.Vec3, bool) {
	if math.Abs(r.Dir.Z) < 1e-12 {
		return model.Vec3{}, false
	}
	t := (z - r.Origin.Z) / r.Dir.Z
	if t < 0 {
		return model.Vec3{}, false
	}
	p := r.At(t)
	p.Z = z
	return p, true
}

// HitBox returns the entry distance of the ray into b using the slab test.
func (r Ray) HitBox(b model.Box) (float64, bool) {
	lo, hi := b.Min, b.Max()
	tmin, tmax := math.Inf(-1), math.Inf(1)

	slab := func(origin, dir, min, max float64) bool {
		if math.Abs(dir) < 1e-12 {
			return origin >= min && origin <= max
		}
		t1 := (min - origin) / dir
		t2 := (max - origin) / dir
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = math.Max(tmin, t1)
		tmax = math.Min(tmax, t2)
		return tmin <= tmax
	}

	if !slab(r.Origin.X, r.Dir.X, lo.X, hi.X) ||
		!slab(r.Origin.Y, r.Dir.Y, lo.Y, hi.Y) ||
		!slab(r.Origin.Z, r.Dir.Z, lo.Z, hi.Z) {
		return 0, false
	}
	if tmax < 0 {
		return 0, false
	}
	return math.Max(tmin, 0), true
}

// Pick returns the unit whose box the ray enters first.
// Ties go to the smaller id.
func Pick(r Ray, units []model.Unit) (model.Unit, bool) {
	var (
		best  model.Unit
		bestT float64
		found bool
	)
	for _, u := range units {
		t, ok := r.HitBox(u.Box())
		if !ok {
			continue
		}
		if !found || t < bestT || (t == bestT && u.ID < best.ID) {
			best, bestT, found = u, t, true
		}
	}
	return best, found
}
