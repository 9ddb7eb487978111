package importer

import (
	"fmt"
	"math"
	"sort"

	"github.com/yofu/dxf"
	"github.com/yofu/dxf/entity"

	"github.com/piwi3910/TruckLoad/internal/model"
)

// DXFOptions supplies the values a floor plan cannot: every footprint
// becomes a unit of this height and weight standing on the floor.
type DXFOptions struct {
	Height float64
	Weight float64
	// Tolerance is the maximum gap between LINE/ARC endpoints that still
	// chain into one outline.
	Tolerance float64
}

// DefaultDXFOptions returns options for pallet-sized footprints.
func DefaultDXFOptions() DXFOptions {
	return DXFOptions{Height: 1000, Weight: 0, Tolerance: 0.01}
}

type point struct{ X, Y float64 }

type outline []point

func (o outline) bounds() (min, max point) {
	min = point{math.Inf(1), math.Inf(1)}
	max = point{math.Inf(-1), math.Inf(-1)}
	for _, p := range o {
		min.X, min.Y = math.Min(min.X, p.X), math.Min(min.Y, p.Y)
		max.X, max.Y = math.Max(max.X, p.X), math.Max(max.Y, p.Y)
	}
	return min, max
}

// segment is one LINE, or one step of a flattened ARC, waiting to be chained.
type segment struct {
	start point
	end   point
}

// ImportDXF reads a floor plan. Each closed shape (LWPOLYLINE, CIRCLE, or
// chain of connected LINEs/ARCs) becomes one unit whose footprint is the
// shape's bounding box, placed at its drawing coordinates on the floor.
func ImportDXF(path string, opts DXFOptions) ImportResult {
	result := ImportResult{}
	if opts.Tolerance <= 0 {
		opts.Tolerance = 0.01
	}
	if opts.Height <= 0 {
		result.Errors = append(result.Errors, "DXF import needs a positive unit height")
		return result
	}

	drawing, err := dxf.Open(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open DXF file: %v", err))
		return result
	}

	entities := drawing.Entities()
	if len(entities) == 0 {
		result.Errors = append(result.Errors, "DXF file contains no entities")
		return result
	}

	var outlines []outline
	var segments []segment
	for _, ent := range entities {
		switch e := ent.(type) {
		case *entity.LwPolyline:
			o := lwPolylineToOutline(e)
			if len(o) >= 3 {
				outlines = append(outlines, o)
			} else {
				result.Warnings = append(result.Warnings, "Skipped LWPOLYLINE with fewer than 3 vertices")
			}
		case *entity.Circle:
			outlines = append(outlines, circleToOutline(e.Center[0], e.Center[1], e.Radius, 64))
		case *entity.Arc:
			pts := arcToPoints(e, 32)
			for i := 0; i+1 < len(pts); i++ {
				segments = append(segments, segment{start: pts[i], end: pts[i+1]})
			}
		case *entity.Line:
			segments = append(segments, segment{
				start: point{X: e.Start[0], Y: e.Start[1]},
				end:   point{X: e.End[0], Y: e.End[1]},
			})
		}
	}
	outlines = append(outlines, chainSegments(segments, opts.Tolerance)...)

	if len(outlines) == 0 {
		result.Errors = append(result.Errors, "No closed shapes found in DXF file")
		return result
	}

	tuples, warnings := footprintsToTuples(outlines, opts)
	result.Tuples = tuples
	result.Warnings = append(result.Warnings, warnings...)
	return result
}

// footprintsToTuples turns outlines into floor-standing tuples, ordered by
// position (X, then Y) so repeated imports produce the same ids.
func footprintsToTuples(outlines []outline, opts DXFOptions) ([]model.Tuple, []string) {
	type footprint struct{ min, max point }
	var prints []footprint
	var warnings []string
	for _, o := range outlines {
		min, max := o.bounds()
		if max.X-min.X < 0.01 || max.Y-min.Y < 0.01 {
			warnings = append(warnings, fmt.Sprintf("Skipped degenerate shape (%.2f x %.2f mm)", max.X-min.X, max.Y-min.Y))
			continue
		}
		if min.X < 0 || min.Y < 0 {
			warnings = append(warnings, fmt.Sprintf("Shape at (%.0f, %.0f) lies outside the floor origin", min.X, min.Y))
		}
		prints = append(prints, footprint{min, max})
	}
	sort.SliceStable(prints, func(i, j int) bool {
		if prints[i].min.X != prints[j].min.X {
			return prints[i].min.X < prints[j].min.X
		}
		return prints[i].min.Y < prints[j].min.Y
	})

	tuples := make([]model.Tuple, 0, len(prints))
	for i, p := range prints {
		tuples = append(tuples, model.Tuple{
			X:          p.min.X,
			Y:          p.min.Y,
			Length:     p.max.X - p.min.X,
			Width:      p.max.Y - p.min.Y,
			Height:     opts.Height,
			ExternalID: fmt.Sprintf("DXF-%d", i+1),
			Weight:     opts.Weight,
		})
	}
	return tuples, warnings
}

// lwPolylineToOutline converts a DXF LWPOLYLINE entity to an outline.
// Bulge values on vertices produce interpolated arc segments.
func lwPolylineToOutline(lw *entity.LwPolyline) outline {
	var o outline
	for i, v := range lw.Vertices {
		current := point{X: v[0], Y: v[1]}
		bulge := 0.0
		if i < len(lw.Bulges) {
			bulge = lw.Bulges[i]
		}
		if math.Abs(bulge) <= 1e-9 {
			o = append(o, current)
			continue
		}
		n := lw.Vertices[(i+1)%len(lw.Vertices)]
		arc := bulgeArcPoints(current, point{X: n[0], Y: n[1]}, bulge, 32)
		o = append(o, arc[:len(arc)-1]...)
	}
	return o
}

// bulgeArcPoints generates points along an arc defined by two endpoints and a
// DXF bulge factor. The bulge is the tangent of 1/4 the included angle.
func bulgeArcPoints(p1, p2 point, bulge float64, numSegments int) outline {
	dx, dy := p2.X-p1.X, p2.Y-p1.Y
	chord := math.Hypot(dx, dy)
	if chord < 1e-9 {
		return outline{p1, p2}
	}

	sagitta := math.Abs(bulge) * chord / 2
	radius := (chord*chord/(4*sagitta) + sagitta) / 2

	perpX, perpY := -dy/chord, dx/chord
	if bulge > 0 {
		perpX, perpY = -perpX, -perpY
	}
	dist := radius - sagitta
	cx := (p1.X+p2.X)/2 + perpX*dist
	cy := (p1.Y+p2.Y)/2 + perpY*dist

	start := math.Atan2(p1.Y-cy, p1.X-cx)
	end := math.Atan2(p2.Y-cy, p2.X-cx)
	if bulge < 0 && end > start {
		end -= 2 * math.Pi
	}
	if bulge > 0 && end < start {
		end += 2 * math.Pi
	}

	pts := make(outline, 0, numSegments+1)
	for i := 0; i <= numSegments; i++ {
		a := start + float64(i)/float64(numSegments)*(end-start)
		pts = append(pts, point{X: cx + radius*math.Cos(a), Y: cy + radius*math.Sin(a)})
	}
	return pts
}

// circleToOutline approximates a circle as a regular polygon.
func circleToOutline(cx, cy, r float64, numSegments int) outline {
	o := make(outline, numSegments)
	for i := range o {
		a := 2 * math.Pi * float64(i) / float64(numSegments)
		o[i] = point{X: cx + r*math.Cos(a), Y: cy + r*math.Sin(a)}
	}
	return o
}

// arcToPoints flattens a DXF ARC entity (angles in degrees, counter-clockwise).
func arcToPoints(a *entity.Arc, numSegments int) []point {
	start := a.Angle[0] * math.Pi / 180
	end := a.Angle[1] * math.Pi / 180
	if end <= start {
		end += 2 * math.Pi
	}
	return arcPoints(a.Circle.Center[0], a.Circle.Center[1], a.Circle.Radius, start, end, numSegments)
}

func arcPoints(cx, cy, r, start, end float64, numSegments int) []point {
	pts := make([]point, numSegments+1)
	for i := range pts {
		a := start + float64(i)/float64(numSegments)*(end-start)
		pts[i] = point{X: cx + r*math.Cos(a), Y: cy + r*math.Sin(a)}
	}
	return pts
}

// chainSegments connects individual segments into closed outlines.
// Open chains are dropped.
func chainSegments(segs []segment, tolerance float64) []outline {
	used := make([]bool, len(segs))
	var outlines []outline

	for startIdx := range segs {
		if used[startIdx] {
			continue
		}
		chain := []point{segs[startIdx].start, segs[startIdx].end}
		used[startIdx] = true

		for extended := true; extended; {
			extended = false
			tail := chain[len(chain)-1]
			for i, seg := range segs {
				if used[i] {
					continue
				}
				switch {
				case pointsClose(tail, seg.start, tolerance):
					chain = append(chain, seg.end)
				case pointsClose(tail, seg.end, tolerance):
					chain = append(chain, seg.start)
				default:
					continue
				}
				used[i] = true
				extended = true
				break
			}
		}

		if len(chain) < 4 || !pointsClose(chain[0], chain[len(chain)-1], tolerance) {
			continue
		}
		outlines = append(outlines, outline(chain[:len(chain)-1]))
	}

	sort.SliceStable(outlines, func(i, j int) bool {
		return outlineArea(outlines[i]) > outlineArea(outlines[j])
	})
	return outlines
}

func pointsClose(a, b point, tolerance float64) bool {
	return math.Hypot(a.X-b.X, a.Y-b.Y) <= tolerance
}

// outlineArea computes the absolute area of a polygon using the shoelace formula.
func outlineArea(o outline) float64 {
	if len(o) < 3 {
		return 0
	}
	var area float64
	for i := range o {
		j := (i + 1) % len(o)
		area += o[i].X*o[j].Y - o[j].X*o[i].Y
	}
	return math.Abs(area) / 2
}
