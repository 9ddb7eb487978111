package export

import (
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/TruckLoad/internal/model"
)

const (
	sheetLoaded  = "Loaded"
	sheetRemoved = "Removed"
	sheetSummary = "Summary"
)

var manifestHeader = []any{
	"Seq", "ID", "External ID", "X", "Y", "Z",
	"Length", "Width", "Height", "Weight", "Rotated", "Force Placed",
}

// loadingOrder sorts units front to back, then bottom-up, then left to right.
func loadingOrder(units []model.Unit) []model.Unit {
	out := model.CopyUnits(units)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Position, out[j].Position
		if a.X != b.X {
			return a.X < b.X
		}
		if a.Z != b.Z {
			return a.Z < b.Z
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// ExportManifest writes an Excel workbook with the loaded units in loading
// order, the removed units, and a summary sheet.
func ExportManifest(path string, a model.Arrangement) error {
	if len(a.Active) == 0 && len(a.Removed) == 0 {
		return fmt.Errorf("no units to export")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetLoaded); err != nil {
		return fmt.Errorf("failed to name manifest sheet: %w", err)
	}
	for _, name := range []string{sheetRemoved, sheetSummary} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to add sheet %s: %w", name, err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	if err := writeUnitSheet(f, sheetLoaded, loadingOrder(a.Active), bold); err != nil {
		return err
	}
	if err := writeUnitSheet(f, sheetRemoved, a.Removed, bold); err != nil {
		return err
	}
	if err := writeSummarySheet(f, a, bold); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save manifest: %w", err)
	}
	return nil
}

func writeUnitSheet(f *excelize.File, sheet string, units []model.Unit, headerStyle int) error {
	header := manifestHeader
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write %s header: %w", sheet, err)
	}
	if err := f.SetCellStyle(sheet, "A1", "L1", headerStyle); err != nil {
		return fmt.Errorf("failed to style %s header: %w", sheet, err)
	}
	if err := f.SetColWidth(sheet, "B", "C", 16); err != nil {
		return fmt.Errorf("failed to size %s columns: %w", sheet, err)
	}

	for i, u := range units {
		s := u.PlacedSize()
		row := []any{
			i + 1, u.ID, u.ExternalID,
			u.Position.X, u.Position.Y, u.Position.Z,
			s.Length, s.Width, s.Height, u.Weight,
			yesNo(u.Rotated), yesNo(u.ForcePlaced),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+2, err)
		}
	}
	return nil
}

func writeSummarySheet(f *excelize.File, a model.Arrangement, headerStyle int) error {
	stats := model.CalculateLoadStats(a)
	rows := [][]any{
		{"Container", a.Container.Label},
		{"Length (mm)", a.Container.Length},
		{"Width (mm)", a.Container.Width},
		{"Height (mm)", a.Container.Height},
		{"Units loaded", stats.ActiveCount},
		{"Units removed", stats.RemovedCount},
		{"Fill (%)", stats.FillPercent},
		{"Total weight (kg)", stats.TotalWeight},
		{"Removed weight (kg)", stats.RemovedWeight},
		{"Load length (mm)", stats.LoadLength},
		{"Centre of mass X (mm)", stats.CenterOfMass.X},
		{"Centre of mass Y (mm)", stats.CenterOfMass.Y},
		{"Centre of mass Z (mm)", stats.CenterOfMass.Z},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetSummary, cell, &row); err != nil {
			return fmt.Errorf("failed to write summary row %d: %w", i+1, err)
		}
	}
	if err := f.SetCellStyle(sheetSummary, "A1", fmt.Sprintf("A%d", len(rows)), headerStyle); err != nil {
		return fmt.Errorf("failed to style summary: %w", err)
	}
	return f.SetColWidth(sheetSummary, "A", "A", 24)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
