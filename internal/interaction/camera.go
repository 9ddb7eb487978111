package interaction

import (
	"math"

	"github.com/piwi3910/TruckLoad/internal/model"
)

// Camera is an orbit camera around a target point. Only the zoom bounds
// matter to the engine; the rest turns normalised screen positions into rays.
type Camera struct {
	Target   model.Vec3
	Distance float64 // At zoom 1, mm
	Yaw      float64 // Radians around Z
	Pitch    float64 // Radians above the floor plane
	FOV      float64 // Vertical field of view, radians

	zoom    float64
	minZoom float64
	maxZoom float64
}

// NewCamera frames the container from above the rear corner.
func NewCamera(container model.Container, minZoom, maxZoom float64) *Camera {
	if minZoom <= 0 {
		minZoom = 0.25
	}
	if maxZoom < minZoom {
		maxZoom = minZoom
	}
	maxDim := math.Max(container.Length, math.Max(container.Width, container.Height))
	return &Camera{
		Target:   model.Vec3{X: container.Length / 2, Y: container.Width / 2, Z: 0},
		Distance: maxDim * 1.5,
		Yaw:      -math.Pi / 4,
		Pitch:    math.Pi / 4,
		FOV:      math.Pi / 4,
		zoom:     1,
		minZoom:  minZoom,
		maxZoom:  maxZoom,
	}
}

// Zoom returns the current zoom factor.
func (c *Camera) Zoom() float64 { return c.zoom }

// SetZoom sets the zoom factor clamped to the configured bounds and returns
// the value applied.
func (c *Camera) SetZoom(z float64) float64 {
	if math.IsNaN(z) {
		return c.zoom
	}
	c.zoom = math.Max(c.minZoom, math.Min(c.maxZoom, z))
	return c.zoom
}

// ZoomBy multiplies the zoom factor, e.g. 1.1 per wheel notch.
func (c *Camera) ZoomBy(f float64) float64 {
	return c.SetZoom(c.zoom * f)
}

// Orbit rotates the camera around the target. Pitch stays between the
// floor plane and straight down.
func (c *Camera) Orbit(dYaw, dPitch float64) {
	c.Yaw += dYaw
	c.Pitch = math.Max(0.05, math.Min(math.Pi/2-0.01, c.Pitch+dPitch))
}

// Eye returns the camera position.
func (c *Camera) Eye() model.Vec3 {
	d := c.Distance / c.zoom
	return c.Target.Add(model.Vec3{
		X: d * math.Cos(c.Pitch) * math.Cos(c.Yaw),
		Y: d * math.Cos(c.Pitch) * math.Sin(c.Yaw),
		Z: d * math.Sin(c.Pitch),
	})
}

// Ray returns the pointer ray through normalised screen coordinates
// (nx, ny in [-1, 1], y up) for a viewport of the given aspect ratio.
func (c *Camera) Ray(nx, ny, aspect float64) Ray {
	eye := c.Eye()
	forward := normalize(c.Target.Sub(eye))
	right := normalize(cross(forward, model.Vec3{Z: 1}))
	up := cross(right, forward)

	h := math.Tan(c.FOV / 2)
	dir := forward.
		Add(right.Scale(nx * h * aspect)).
		Add(up.Scale(ny * h))
	return Ray{Origin: eye, Dir: normalize(dir)}
}

func cross(a, b model.Vec3) model.Vec3 {
	return model.Vec3{
		X: a.Y*b.Z - a.Z*b.Y,
		Y: a.Z*b.X - a.X*b.Z,
		Z: a.X*b.Y - a.Y*b.X,
	}
}

func normalize(v model.Vec3) model.Vec3 {
	l := math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
	if l == 0 {
		return v
	}
	return v.Scale(1 / l)
}
