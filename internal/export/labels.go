package export

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-pdf/fpdf"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/piwi3910/TruckLoad/internal/model"
)

// LabelInfo holds the data encoded into each unit label's QR code.
type LabelInfo struct {
	UnitID     string  `json:"id"`
	ExternalID string  `json:"external_id"`
	Container  string  `json:"container"`
	Length     float64 `json:"length_mm"`
	Width      float64 `json:"width_mm"`
	Height     float64 `json:"height_mm"`
	Weight     float64 `json:"weight_kg"`
	Rotated    bool    `json:"rotated"`
	X          float64 `json:"x_mm"`
	Y          float64 `json:"y_mm"`
	Z          float64 `json:"z_mm"`
	Sequence   int     `json:"seq"` // Loading order, 1-based
}

// Label layout constants for Avery 5160-compatible labels (3 columns, 10 rows per page).
// Each label cell is approximately 66.7mm x 25.4mm on US Letter paper.
const (
	labelPageWidth  = 215.9 // US Letter width in mm
	labelPageHeight = 279.4 // US Letter height in mm
	labelMarginTop  = 12.7  // mm
	labelMarginLeft = 4.8   // mm
	labelWidth      = 66.7  // mm per label
	labelHeight     = 25.4  // mm per label
	labelCols       = 3
	labelRows       = 10
	labelsPerPage   = labelCols * labelRows
	qrSize          = 20.0 // QR code size in mm
	labelPadding    = 2.0  // mm internal padding
)

// ExportLabels generates a PDF of QR-coded labels for every loaded unit, in
// loading order. Each label shows the unit reference, size, weight and
// position, and a QR code carrying the same data as JSON.
func ExportLabels(path string, a model.Arrangement) error {
	labels := CollectLabelInfos(a)
	if len(labels) == 0 {
		return fmt.Errorf("no units loaded to generate labels for")
	}

	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetAutoPageBreak(false, 0)

	for i, label := range labels {
		if i%labelsPerPage == 0 {
			pdf.AddPage()
		}

		posOnPage := i % labelsPerPage
		x := labelMarginLeft + float64(posOnPage%labelCols)*labelWidth
		y := labelMarginTop + float64(posOnPage/labelCols)*labelHeight

		if err := renderLabel(pdf, x, y, label); err != nil {
			return fmt.Errorf("failed to render label for %q: %w", label.UnitID, err)
		}
	}

	return pdf.OutputFileAndClose(path)
}

// renderLabel draws a single label at the given position.
func renderLabel(pdf *fpdf.Fpdf, x, y float64, info LabelInfo) error {
	// Cutting guide
	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.1)
	pdf.Rect(x, y, labelWidth, labelHeight, "D")

	qrData, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal label info: %w", err)
	}
	qrPNG, err := qrcode.Encode(string(qrData), qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("failed to generate QR code: %w", err)
	}

	imgName := fmt.Sprintf("qr_%d_%s", info.Sequence, info.UnitID)
	pdf.RegisterImageOptionsReader(imgName, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(qrPNG))

	qrX := x + labelWidth - qrSize - labelPadding
	qrY := y + (labelHeight-qrSize)/2
	pdf.ImageOptions(imgName, qrX, qrY, qrSize, qrSize, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	textX := x + labelPadding
	textW := labelWidth - qrSize - 3*labelPadding

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(textX, y+labelPadding)
	title := fmt.Sprintf("#%d %s", info.Sequence, info.ExternalID)
	if info.ExternalID == "" {
		title = fmt.Sprintf("#%d %s", info.Sequence, info.UnitID)
	}
	pdf.CellFormat(textW, 4.5, truncate(pdf, title, textW), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	pdf.SetXY(textX, y+labelPadding+5)
	dims := fmt.Sprintf("%.0f x %.0f x %.0f mm, %.1f kg", info.Length, info.Width, info.Height, info.Weight)
	pdf.CellFormat(textW, 3.5, truncate(pdf, dims, textW), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 6)
	pdf.SetTextColor(100, 100, 100)
	pdf.SetXY(textX, y+labelPadding+9)
	pos := fmt.Sprintf("%s @ (%.0f, %.0f, %.0f)", info.Container, info.X, info.Y, info.Z)
	pdf.CellFormat(textW, 3, truncate(pdf, pos, textW), "", 1, "L", false, 0, "")

	if info.Rotated {
		pdf.SetXY(textX, y+labelPadding+12.5)
		pdf.SetFont("Helvetica", "I", 6)
		pdf.SetTextColor(150, 100, 0)
		pdf.CellFormat(textW, 3, "Rotated 90\xb0", "", 0, "L", false, 0, "")
	}

	pdf.SetTextColor(0, 0, 0)
	return nil
}

// truncate shortens s with an ellipsis until it fits w at the current font.
func truncate(pdf *fpdf.Fpdf, s string, w float64) string {
	if pdf.GetStringWidth(s) <= w {
		return s
	}
	for len(s) > 0 && pdf.GetStringWidth(s+"...") > w {
		s = s[:len(s)-1]
	}
	return s + "..."
}

// CollectLabelInfos extracts label data for the active units, ordered for
// loading: front of the container first, then bottom-up, then left to right.
func CollectLabelInfos(a model.Arrangement) []LabelInfo {
	units := loadingOrder(a.Active)
	labels := make([]LabelInfo, 0, len(units))
	for i, u := range units {
		s := u.PlacedSize()
		labels = append(labels, LabelInfo{
			UnitID:     u.ID,
			ExternalID: u.ExternalID,
			Container:  a.Container.Label,
			Length:     s.Length,
			Width:      s.Width,
			Height:     s.Height,
			Weight:     u.Weight,
			Rotated:    u.Rotated,
			X:          u.Position.X,
			Y:          u.Position.Y,
			Z:          u.Position.Z,
			Sequence:   i + 1,
		})
	}
	return labels
}
