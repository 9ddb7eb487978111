// Package export writes load plans: a PDF with top and side views, QR-coded
// unit labels, an Excel manifest and a JSON backup of the whole session.
package export

import (
	"fmt"
	"math"
	"sort"

	"github.com/go-pdf/fpdf"

	"github.com/piwi3910/TruckLoad/internal/model"
	"github.com/piwi3910/TruckLoad/internal/render"
)

// Page layout constants (A4 landscape in mm).
const (
	pageWidth    = 297.0
	pageHeight   = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 15.0
	headerHeight = 12.0
	statsHeight  = 20.0
	drawAreaTop  = marginTop + headerHeight + 5.0
)

// view projects a unit onto a page plane. h is measured upwards on the page
// when up is set (side view), downwards otherwise (top view).
type view struct {
	name   string
	extent func(c model.Container) (w, h float64)
	rect   func(b model.Box) (x, y, w, h float64)
	up     bool
	order  func(a, b model.Unit) bool
}

var topView = view{
	name:   "Top view",
	extent: func(c model.Container) (float64, float64) { return c.Length, c.Width },
	rect: func(b model.Box) (float64, float64, float64, float64) {
		return b.Min.X, b.Min.Y, b.Size.Length, b.Size.Width
	},
	// Lower units first so stacked ones stay visible.
	order: func(a, b model.Unit) bool { return a.Position.Z < b.Position.Z },
}

var sideView = view{
	name:   "Side view",
	extent: func(c model.Container) (float64, float64) { return c.Length, c.Height },
	rect: func(b model.Box) (float64, float64, float64, float64) {
		return b.Min.X, b.Min.Z, b.Size.Length, b.Size.Height
	},
	up: true,
	// Far side first; the near wall (y=0) is drawn last.
	order: func(a, b model.Unit) bool { return a.Position.Y > b.Position.Y },
}

// ExportPDF generates the load plan: a top view and a side view of the
// container followed by a summary page with statistics and warnings.
func ExportPDF(path string, a model.Arrangement, warnings []string) error {
	if len(a.Active) == 0 && len(a.Removed) == 0 {
		return fmt.Errorf("no units to export")
	}
	if a.Container.Length <= 0 || a.Container.Width <= 0 || a.Container.Height <= 0 {
		return fmt.Errorf("container %q has no volume", a.Container.Label)
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, marginBottom)

	colors := unitColors(a.Active)
	for _, v := range []view{topView, sideView} {
		pdf.AddPage()
		renderViewPage(pdf, a, v, colors)
	}

	pdf.AddPage()
	renderSummaryPage(pdf, a, warnings)

	return pdf.OutputFileAndClose(path)
}

// unitColors assigns palette colours by group, as the interactive view does.
func unitColors(units []model.Unit) map[string]render.Color {
	pool := render.NewColorPool(nil)
	colors := make(map[string]render.Color, len(units))
	for _, u := range units {
		colors[u.ID] = pool.Acquire(u.ID, u.Group)
	}
	return colors
}

// renderViewPage draws the container and every active unit in one projection.
func renderViewPage(pdf *fpdf.Fpdf, a model.Arrangement, v view, colors map[string]render.Color) {
	c := a.Container
	stats := model.CalculateLoadStats(a)

	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(marginLeft, marginTop)
	title := fmt.Sprintf("%s: %s (%.0f x %.0f x %.0f mm)", v.name, c.Label, c.Length, c.Width, c.Height)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, headerHeight, title, "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(marginLeft, marginTop+headerHeight)
	line := fmt.Sprintf("Units: %d | Fill: %.1f%% | Weight: %.1f kg | Load length: %.0f mm",
		stats.ActiveCount, stats.FillPercent, stats.TotalWeight, stats.LoadLength)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 5, line, "", 0, "L", false, 0, "")

	drawWidth := pageWidth - marginLeft - marginRight
	drawHeight := pageHeight - drawAreaTop - marginBottom - statsHeight
	extW, extH := v.extent(c)
	scale := math.Min(drawWidth/extW, drawHeight/extH)
	canvasW, canvasH := extW*scale, extH*scale
	offsetX := marginLeft + (drawWidth-canvasW)/2
	offsetY := drawAreaTop

	// Container floor or wall
	pdf.SetFillColor(235, 235, 235)
	pdf.SetDrawColor(100, 100, 100)
	pdf.SetLineWidth(0.5)
	pdf.Rect(offsetX, offsetY, canvasW, canvasH, "FD")

	units := model.CopyUnits(a.Active)
	sort.SliceStable(units, func(i, j int) bool { return v.order(units[i], units[j]) })

	for _, u := range units {
		col := colors[u.ID]
		ux, uy, uw, uh := v.rect(u.Box())
		pw, ph := uw*scale, uh*scale
		px := offsetX + ux*scale
		py := offsetY + uy*scale
		if v.up {
			py = offsetY + canvasH - (uy+uh)*scale
		}

		pdf.SetFillColor(col.R, col.G, col.B)
		pdf.SetDrawColor(30, 30, 30)
		pdf.SetLineWidth(0.3)
		pdf.Rect(px, py, pw, ph, "FD")
		if u.ForcePlaced {
			drawHatchPattern(pdf, px, py, pw, ph)
		}

		if pw > 15 && ph > 8 {
			pdf.SetFont("Helvetica", "", labelFontSize(pw, ph))
			pdf.SetTextColor(0, 0, 0)
			label := unitLabel(u)
			if w := pdf.GetStringWidth(label); w < pw-2 {
				pdf.SetXY(px+(pw-w)/2, py+ph/2-2)
				pdf.CellFormat(w, 4, label, "", 0, "C", false, 0, "")
			}
		}
	}

	drawDimensionAnnotations(pdf, extW, extH, offsetX, offsetY, canvasW, canvasH)
	drawUnitLegend(pdf, units, colors, offsetY+canvasH+5)
}

func unitLabel(u model.Unit) string {
	if u.ExternalID != "" {
		return u.ExternalID
	}
	return u.ID
}

// drawHatchPattern marks force-placed units, whose overlaps were accepted.
func drawHatchPattern(pdf *fpdf.Fpdf, x, y, w, h float64) {
	pdf.SetDrawColor(200, 0, 0)
	pdf.SetLineWidth(0.15)

	spacing := 4.0
	for d := spacing; d < w+h; d += spacing {
		x1 := x + math.Max(0, d-h)
		y1 := y + math.Min(h, d)
		x2 := x + math.Min(w, d)
		y2 := y + math.Max(0, d-w)
		pdf.Line(x1, y1, x2, y2)
	}
}

// drawDimensionAnnotations adds the container extents outside the drawing.
func drawDimensionAnnotations(pdf *fpdf.Fpdf, extW, extH, offsetX, offsetY, canvasW, canvasH float64) {
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(80, 80, 80)

	widthLabel := fmt.Sprintf("%.0f mm", extW)
	wLabelW := pdf.GetStringWidth(widthLabel)
	pdf.SetXY(offsetX+(canvasW-wLabelW)/2, offsetY+canvasH+1)
	pdf.CellFormat(wLabelW, 4, widthLabel, "", 0, "C", false, 0, "")

	heightLabel := fmt.Sprintf("%.0f mm", extH)
	pdf.TransformBegin()
	pdf.TransformRotate(90, offsetX-3, offsetY+canvasH/2)
	hLabelW := pdf.GetStringWidth(heightLabel)
	pdf.SetXY(offsetX-3-hLabelW/2, offsetY+canvasH/2-2)
	pdf.CellFormat(hLabelW, 4, heightLabel, "", 0, "C", false, 0, "")
	pdf.TransformEnd()

	pdf.SetTextColor(0, 0, 0)
}

// drawUnitLegend lists one swatch per group below the drawing.
func drawUnitLegend(pdf *fpdf.Fpdf, units []model.Unit, colors map[string]render.Color, startY float64) {
	if len(units) == 0 {
		return
	}

	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(marginLeft, startY)
	pdf.CellFormat(30, 4, "Groups:", "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	xPos := marginLeft + 32
	maxX := pageWidth - marginRight

	counts, order := groupCounts(units)
	for _, g := range order {
		col := colors[counts[g].first]
		label := fmt.Sprintf("%s (%d)", g, counts[g].n)
		labelW := pdf.GetStringWidth(label) + 6
		if xPos+labelW > maxX {
			startY += 5
			xPos = marginLeft
		}
		pdf.SetFillColor(col.R, col.G, col.B)
		pdf.Rect(xPos, startY+0.5, 3, 3, "F")
		pdf.SetXY(xPos+4, startY)
		pdf.CellFormat(labelW-4, 4, label, "", 0, "L", false, 0, "")
		xPos += labelW + 2
	}
}

type groupCount struct {
	n     int
	first string
}

// groupCounts returns unit counts per group in first-seen order.
func groupCounts(units []model.Unit) (map[string]groupCount, []string) {
	counts := make(map[string]groupCount)
	var order []string
	for _, u := range units {
		g := u.Group
		if g == "" {
			g = unitLabel(u)
		}
		gc, ok := counts[g]
		if !ok {
			gc.first = u.ID
			order = append(order, g)
		}
		gc.n++
		counts[g] = gc
	}
	return counts, order
}

// renderSummaryPage draws the statistics, removed units and warnings.
func renderSummaryPage(pdf *fpdf.Fpdf, a model.Arrangement, warnings []string) {
	stats := model.CalculateLoadStats(a)

	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 10, "Load Plan Summary", "", 0, "L", false, 0, "")

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.5)
	pdf.Line(marginLeft, marginTop+12, pageWidth-marginRight, marginTop+12)

	y := marginTop + 18

	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(100, 7, "Statistics", "", 0, "L", false, 0, "")
	y += 9

	summaryItems := []struct {
		label string
		value string
	}{
		{"Container", fmt.Sprintf("%s (%.0f x %.0f x %.0f mm)", a.Container.Label, a.Container.Length, a.Container.Width, a.Container.Height)},
		{"Units Loaded", fmt.Sprintf("%d", stats.ActiveCount)},
		{"Units Removed", fmt.Sprintf("%d", stats.RemovedCount)},
		{"Volume Fill", fmt.Sprintf("%.1f%%", stats.FillPercent)},
		{"Total Weight", fmt.Sprintf("%.1f kg", stats.TotalWeight)},
		{"Centre of Mass", fmt.Sprintf("(%.0f, %.0f, %.0f) mm", stats.CenterOfMass.X, stats.CenterOfMass.Y, stats.CenterOfMass.Z)},
		{"Load Length", fmt.Sprintf("%.0f mm", stats.LoadLength)},
	}

	pdf.SetFont("Helvetica", "", 10)
	for _, item := range summaryItems {
		pdf.SetXY(marginLeft+5, y)
		pdf.CellFormat(60, 6, item.label+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(120, 6, item.value, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		y += 7
	}

	if len(a.Removed) > 0 {
		y += 6
		pdf.SetFont("Helvetica", "B", 11)
		pdf.SetTextColor(200, 0, 0)
		pdf.SetXY(marginLeft, y)
		pdf.CellFormat(200, 7, "Removed Units", "", 0, "L", false, 0, "")
		y += 8

		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(0, 0, 0)
		for _, u := range a.Removed {
			if y > pageHeight-marginBottom-10 {
				break
			}
			pdf.SetXY(marginLeft+5, y)
			text := fmt.Sprintf("- %s: %.0f x %.0f x %.0f mm, %.1f kg", unitLabel(u), u.Size.Length, u.Size.Width, u.Size.Height, u.Weight)
			pdf.CellFormat(200, 5, text, "", 0, "L", false, 0, "")
			y += 5
		}
	}

	if len(warnings) > 0 {
		y += 6
		pdf.SetFont("Helvetica", "B", 11)
		pdf.SetTextColor(200, 0, 0)
		pdf.SetXY(marginLeft, y)
		pdf.CellFormat(200, 7, "WARNING: Placement Problems", "", 0, "L", false, 0, "")
		y += 8

		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(0, 0, 0)
		for _, w := range warnings {
			if y > pageHeight-marginBottom-10 {
				break
			}
			pdf.SetXY(marginLeft+5, y)
			pdf.CellFormat(250, 5, "- "+w, "", 0, "L", false, 0, "")
			y += 5
		}
	}

	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.SetXY(marginLeft, pageHeight-marginBottom)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 4, "Generated by TruckLoad", "", 0, "C", false, 0, "")
}

// labelFontSize returns an appropriate font size based on the rectangle dimensions.
func labelFontSize(w, h float64) float64 {
	minDim := math.Min(w, h)
	switch {
	case minDim > 40:
		return 8
	case minDim > 20:
		return 7
	default:
		return 6
	}
}
