// Package geometry holds the pure geometric predicates of the load engine:
// volume fit, AABB collision, support/gravity resolution and edge snapping.
// Every function works on plain model records and never mutates its inputs.
package geometry

import (
	"math"

	"github.com/piwi3910/TruckLoad/internal/model"
)

// Fits reports whether content fits inside container either directly or
// rotated 90° about the vertical axis. Height is never rotated.
func Fits(content, container model.Size) bool {
	c := content.Sanitize()
	k := container.Sanitize()
	if c.Height > k.Height {
		return false
	}
	direct := c.Length <= k.Length && c.Width <= k.Width
	rotated := c.Width <= k.Length && c.Length <= k.Width
	return direct || rotated
}

// MaxCount returns how many items of size content still fit in container
// once usedVolume is taken: floor(remaining / itemVolume), clamped to
// [0, requested]. It returns 0 when a single item does not fit at all.
// Zero-volume items occupy nothing, so all requested items fit.
func MaxCount(content, container model.Size, usedVolume float64, requested int) int {
	if requested <= 0 || !Fits(content, container) {
		return 0
	}
	unit := content.Sanitize().Volume()
	if unit == 0 {
		return requested
	}
	used := usedVolume
	if math.IsNaN(used) || used < 0 {
		used = 0
	}
	remaining := container.Sanitize().Volume() - used
	if remaining <= 0 {
		return 0
	}
	n := math.Floor(remaining / unit)
	if n >= float64(requested) {
		return requested
	}
	return int(n)
}
