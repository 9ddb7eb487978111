package importer

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/yofu/dxf"
)

func rectSegments(x, y, l, w float64) []segment {
	a, b, c, d := point{x, y}, point{x + l, y}, point{x + l, y + w}, point{x, y + w}
	// Mixed directions, as drawn by hand.
	return []segment{{a, b}, {c, b}, {c, d}, {a, d}}
}

func TestChainSegments_ClosedRectangles(t *testing.T) {
	segs := append(rectSegments(0, 0, 1200, 800), rectSegments(2000, 0, 600, 400)...)
	outlines := chainSegments(segs, 0.01)

	if len(outlines) != 2 {
		t.Fatalf("expected 2 outlines, got %d", len(outlines))
	}
	if got := outlineArea(outlines[0]); math.Abs(got-1200*800) > 1e-6 {
		t.Errorf("expected largest outline first, area %f", got)
	}
}

func TestChainSegments_OpenChainDropped(t *testing.T) {
	segs := []segment{{point{0, 0}, point{100, 0}}, {point{100, 0}, point{100, 100}}}
	if outlines := chainSegments(segs, 0.01); len(outlines) != 0 {
		t.Errorf("expected open chain to be dropped, got %d outlines", len(outlines))
	}
}

func TestFootprintsToTuples(t *testing.T) {
	outlines := []outline{
		{{2000, 0}, {2600, 0}, {2600, 400}, {2000, 400}},
		{{0, 0}, {1200, 0}, {1200, 800}, {0, 800}},
		{{5, 5}, {5, 5.001}, {5.001, 5}},
	}
	tuples, warnings := footprintsToTuples(outlines, DXFOptions{Height: 1500, Weight: 20})

	if len(tuples) != 2 {
		t.Fatalf("expected 2 tuples, got %d", len(tuples))
	}
	if len(warnings) != 1 {
		t.Errorf("expected degenerate warning, got %v", warnings)
	}
	first := tuples[0]
	if first.X != 0 || first.Length != 1200 || first.Width != 800 || first.Height != 1500 || first.Z != 0 {
		t.Errorf("unexpected first tuple %+v", first)
	}
	if first.ExternalID != "DXF-1" || tuples[1].ExternalID != "DXF-2" {
		t.Errorf("expected ids in position order, got %q %q", first.ExternalID, tuples[1].ExternalID)
	}
	if tuples[1].X != 2000 || tuples[1].Weight != 20 {
		t.Errorf("unexpected second tuple %+v", tuples[1])
	}
}

func TestBulgeArcPoints_Semicircle(t *testing.T) {
	pts := bulgeArcPoints(point{0, 0}, point{100, 0}, 1, 16)
	for _, p := range pts {
		if r := math.Hypot(p.X-50, p.Y); math.Abs(r-50) > 1e-6 {
			t.Fatalf("point %+v not on the arc (r=%f)", p, r)
		}
	}
}

func TestImportDXF_Drawing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "floor.dxf")
	d := dxf.NewDrawing()
	for _, s := range rectSegments(0, 0, 1200, 800) {
		if _, err := d.Line(s.start.X, s.start.Y, 0, s.end.X, s.end.Y, 0); err != nil {
			t.Fatalf("failed to add line: %v", err)
		}
	}
	if _, err := d.Circle(3000, 500, 0, 300); err != nil {
		t.Fatalf("failed to add circle: %v", err)
	}
	if err := d.SaveAs(path); err != nil {
		t.Fatalf("failed to save drawing: %v", err)
	}

	result := ImportDXF(path, DXFOptions{Height: 1000, Weight: 15})

	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Tuples) != 2 {
		t.Fatalf("expected 2 tuples, got %d", len(result.Tuples))
	}
	rect, drum := result.Tuples[0], result.Tuples[1]
	if rect.Length != 1200 || rect.Width != 800 {
		t.Errorf("unexpected rectangle footprint %+v", rect)
	}
	if math.Abs(drum.X-2700) > 1e-6 || math.Abs(drum.Length-600) > 1e-6 {
		t.Errorf("unexpected circle footprint %+v", drum)
	}
}

func TestImportDXF_Errors(t *testing.T) {
	if r := ImportDXF("/nonexistent/floor.dxf", DefaultDXFOptions()); len(r.Errors) == 0 {
		t.Error("expected error for missing file")
	}
	if r := ImportDXF("floor.dxf", DXFOptions{}); len(r.Errors) == 0 {
		t.Error("expected error for zero height")
	}
}
