package model

import (
	"math"

	"github.com/google/uuid"
)

// Vec3 is a container-local coordinate in mm. Z points up from the floor.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

// Scale returns v * f.
func (v Vec3) Scale(f float64) Vec3 {
	return Vec3{X: v.X * f, Y: v.Y * f, Z: v.Z * f}
}

// Size holds the extents of a box: length along X, width along Y, height along Z.
type Size struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Volume returns length * width * height.
func (s Size) Volume() float64 {
	return s.Length * s.Width * s.Height
}

// Rotated returns the size turned 90° about the vertical axis.
func (s Size) Rotated() Size {
	return Size{Length: s.Width, Width: s.Length, Height: s.Height}
}

// Sanitize replaces NaN, infinite and negative extents with zero.
func (s Size) Sanitize() Size {
	return Size{
		Length: sanitize(s.Length),
		Width:  sanitize(s.Width),
		Height: sanitize(s.Height),
	}
}

func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// Box is an axis-aligned box: Min corner plus extents.
type Box struct {
	Min  Vec3 `json:"min"`
	Size Size `json:"size"`
}

// Max returns the corner opposite Min.
func (b Box) Max() Vec3 {
	return Vec3{X: b.Min.X + b.Size.Length, Y: b.Min.Y + b.Size.Width, Z: b.Min.Z + b.Size.Height}
}

// Top returns the z coordinate of the top face.
func (b Box) Top() float64 {
	return b.Min.Z + b.Size.Height
}

// FootprintArea returns the horizontal area of the box.
func (b Box) FootprintArea() float64 {
	return b.Size.Length * b.Size.Width
}

// Unit is a single placed cargo box.
type Unit struct {
	ID          string  `json:"id"`          // Stable identity, never a render handle
	ExternalID  string  `json:"external_id"` // Upstream record id
	Position    Vec3    `json:"position"`    // Min corner, mm
	Size        Size    `json:"size"`        // As supplied, before rotation
	Weight      float64 `json:"weight"`      // kg
	Rotated     bool    `json:"rotated"`     // Turned 90° about Z (length/width swapped)
	ForcePlaced bool    `json:"force_placed"`
	Group       string  `json:"group,omitempty"` // UI grouping key only
	Dragging    bool    `json:"-"`
}

// NewUnit creates a unit at the origin with a generated ID.
func NewUnit(externalID string, l, w, h, weight float64) Unit {
	return Unit{
		ID:         uuid.New().String()[:8],
		ExternalID: externalID,
		Size:       Size{Length: l, Width: w, Height: h},
		Weight:     weight,
		Group:      externalID,
	}
}

// PlacedSize returns the effective size considering rotation.
func (u Unit) PlacedSize() Size {
	if u.Rotated {
		return u.Size.Rotated()
	}
	return u.Size
}

// Box returns the placed bounding box of the unit.
func (u Unit) Box() Box {
	return Box{Min: u.Position, Size: u.PlacedSize()}
}

// At returns a copy of the unit moved to p.
func (u Unit) At(p Vec3) Unit {
	u.Position = p
	return u
}

// Container is the fixed-volume truck bed. It is read-only for the engine.
type Container struct {
	Label  string  `json:"label"`
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// NewContainer builds a container from the [length, width, height] triple.
func NewContainer(label string, dims [3]float64) Container {
	return Container{Label: label, Length: dims[0], Width: dims[1], Height: dims[2]}
}

// Size returns the container extents.
func (c Container) Size() Size {
	return Size{Length: c.Length, Width: c.Width, Height: c.Height}
}

// Volume returns the container volume in cubic mm.
func (c Container) Volume() float64 {
	return c.Size().Volume()
}

// Contains reports whether b lies fully inside the container.
func (c Container) Contains(b Box) bool {
	const eps = 1e-6
	max := b.Max()
	return b.Min.X >= -eps && b.Min.Y >= -eps && b.Min.Z >= -eps &&
		max.X <= c.Length+eps && max.Y <= c.Width+eps && max.Z <= c.Height+eps
}

// Clamp keeps an xy position inside the container for a box of size s.
// Z is left untouched.
func (c Container) Clamp(p Vec3, s Size) Vec3 {
	p.X = math.Max(0, math.Min(p.X, c.Length-s.Length))
	p.Y = math.Max(0, math.Min(p.Y, c.Width-s.Width))
	return p
}

// Arrangement is a deep-copied view of the placement state.
type Arrangement struct {
	Container Container `json:"container"`
	Active    []Unit    `json:"active"`
	Removed   []Unit    `json:"removed"`
	Selection string    `json:"selection,omitempty"`
}

// Clone returns a deep copy of the arrangement.
func (a Arrangement) Clone() Arrangement {
	return Arrangement{
		Container: a.Container,
		Active:    CopyUnits(a.Active),
		Removed:   CopyUnits(a.Removed),
		Selection: a.Selection,
	}
}

// CopyUnits returns a copy of units; nil stays nil.
func CopyUnits(units []Unit) []Unit {
	if units == nil {
		return nil
	}
	cp := make([]Unit, len(units))
	copy(cp, units)
	return cp
}
