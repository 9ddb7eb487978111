// Package importer reads optimizer results into placement tuples from JSON,
// CSV and Excel files, and floor-plan footprints from DXF drawings. Rows may
// carry a header; columns are then matched by name, case-insensitively.
package importer

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/TruckLoad/internal/model"
)

// ImportResult holds the results of an import operation. Malformed values
// are coerced and reported as warnings; errors mean rows or the whole file
// could not be read.
type ImportResult struct {
	Tuples   []model.Tuple
	Errors   []string
	Warnings []string
}

// ColumnMapping maps tuple fields to their indices in the data.
type ColumnMapping struct {
	X          int
	Y          int
	Z          int
	Length     int
	Width      int
	Height     int
	ExternalID int
	Weight     int
	StableID   int
}

// positional is the wire order [x, y, z, length, width, height, externalId, weight, stableId].
var positional = ColumnMapping{X: 0, Y: 1, Z: 2, Length: 3, Width: 4, Height: 5, ExternalID: 6, Weight: 7, StableID: 8}

// headerAliases maps canonical column names to their accepted aliases (all lowercase).
var headerAliases = map[string][]string{
	"x":           {"x", "pos x", "position x", "pos_x"},
	"y":           {"y", "pos y", "position y", "pos_y"},
	"z":           {"z", "pos z", "position z", "pos_z"},
	"length":      {"length", "l", "len"},
	"width":       {"width", "w"},
	"height":      {"height", "h"},
	"external_id": {"external id", "external_id", "externalid", "ref", "reference", "sku", "article"},
	"weight":      {"weight", "kg", "mass", "weight kg"},
	"stable_id":   {"id", "stable id", "stable_id", "stableid", "unit id", "unit_id"},
}

// DetectCSVDelimiter reads the file content and determines the most likely CSV delimiter.
// It tries comma, semicolon, tab, and pipe. The delimiter that produces the most
// consistent (non-one) column count across lines wins.
func DetectCSVDelimiter(data []byte) rune {
	candidates := []rune{',', ';', '\t', '|'}
	bestDelimiter := ','
	bestScore := 0

	for _, delim := range candidates {
		reader := csv.NewReader(bytes.NewReader(data))
		reader.Comma = delim
		reader.LazyQuotes = true
		reader.FieldsPerRecord = -1

		records, err := reader.ReadAll()
		if err != nil || len(records) < 1 {
			continue
		}
		firstCols := len(records[0])
		if firstCols < 2 {
			continue
		}
		score := 0
		for _, row := range records {
			if len(row) == firstCols {
				score++
			}
		}
		weighted := score*10 + firstCols
		if weighted > bestScore {
			bestScore = weighted
			bestDelimiter = delim
		}
	}
	return bestDelimiter
}

// DetectColumns examines a header row and returns a ColumnMapping.
// Returns the mapping and true if a header was detected, or the positional
// wire mapping and false if no header was found.
func DetectColumns(row []string) (ColumnMapping, bool) {
	mapping := ColumnMapping{X: -1, Y: -1, Z: -1, Length: -1, Width: -1, Height: -1, ExternalID: -1, Weight: -1, StableID: -1}
	fields := map[string]*int{
		"x": &mapping.X, "y": &mapping.Y, "z": &mapping.Z,
		"length": &mapping.Length, "width": &mapping.Width, "height": &mapping.Height,
		"external_id": &mapping.ExternalID, "weight": &mapping.Weight, "stable_id": &mapping.StableID,
	}

	isHeader := false
	for i, cell := range row {
		normalized := strings.ToLower(strings.TrimSpace(cell))
		for role, aliases := range headerAliases {
			for _, alias := range aliases {
				if normalized == alias {
					isHeader = true
					if idx := fields[role]; *idx == -1 {
						*idx = i
					}
				}
			}
		}
	}
	if !isHeader {
		return positional, false
	}
	return mapping, true
}

// getCell safely retrieves a cell value from a row by column index.
// Returns empty string if the index is out of range or negative.
func getCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseNumber coerces a cell to a float. Empty cells are zero without a
// warning; non-numeric cells are zero with one.
func parseNumber(s, field, rowLabel string) (float64, string) {
	if s == "" {
		return 0, ""
	}
	// Decimal commas are common in European spreadsheets.
	normalized := strings.ReplaceAll(s, ",", ".")
	if _, err := strconv.ParseFloat(normalized, 64); err != nil {
		return 0, fmt.Sprintf("%s: Invalid %s '%s', using 0", rowLabel, field, s)
	}
	return model.CoerceFloat(normalized), ""
}

// parseRow extracts a tuple from a row using the given column mapping.
// Returns the tuple, any error message, and any warnings.
func parseRow(row []string, mapping ColumnMapping, rowLabel string) (model.Tuple, string, []string) {
	var warnings []string
	num := func(idx int, field string) float64 {
		v, w := parseNumber(getCell(row, idx), field, rowLabel)
		if w != "" {
			warnings = append(warnings, w)
		}
		return v
	}

	t := model.Tuple{
		X:          num(mapping.X, "x"),
		Y:          num(mapping.Y, "y"),
		Z:          num(mapping.Z, "z"),
		Length:     num(mapping.Length, "length"),
		Width:      num(mapping.Width, "width"),
		Height:     num(mapping.Height, "height"),
		ExternalID: getCell(row, mapping.ExternalID),
		Weight:     num(mapping.Weight, "weight"),
		StableID:   getCell(row, mapping.StableID),
	}
	if t.Length <= 0 && t.Width <= 0 && t.Height <= 0 {
		return model.Tuple{}, fmt.Sprintf("%s: Length, width and height are all missing", rowLabel), warnings
	}
	if t.Length < 0 || t.Width < 0 || t.Height < 0 || t.Weight < 0 {
		warnings = append(warnings, fmt.Sprintf("%s: Negative size or weight treated as 0", rowLabel))
	}
	return t, "", warnings
}

// isEmptyRow returns true if the row has no meaningful content.
func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// ImportFile picks the importer from the file extension.
func ImportFile(path string) ImportResult {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return ImportJSON(path)
	case ".csv", ".txt", ".tsv":
		return ImportCSV(path)
	case ".xlsx", ".xlsm", ".xls":
		return ImportExcel(path)
	case ".dxf":
		return ImportDXF(path, DefaultDXFOptions())
	default:
		return ImportResult{Errors: []string{fmt.Sprintf("Unsupported file type %q", filepath.Ext(path))}}
	}
}

// ImportJSON imports a JSON array of tuples, each an array of up to nine
// values. Unplaced units use the -1 sentinel position.
func ImportJSON(path string) ImportResult {
	f, err := os.Open(path)
	if err != nil {
		return ImportResult{Errors: []string{fmt.Sprintf("Cannot open file: %v", err)}}
	}
	defer f.Close()
	return ImportJSONFromReader(f)
}

// ImportJSONFromReader imports tuples from a JSON reader.
func ImportJSONFromReader(r io.Reader) ImportResult {
	result := ImportResult{}
	var raw []json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read JSON: %v", err))
		return result
	}
	if len(raw) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}
	for i, msg := range raw {
		var t model.Tuple
		if err := json.Unmarshal(msg, &t); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Entry %d: %v", i+1, err))
			continue
		}
		result.Tuples = append(result.Tuples, t)
	}
	return result
}

// ImportCSV imports tuples from a CSV file.
// It automatically detects the delimiter and maps columns by header names.
// Supports comma, semicolon, tab, and pipe delimiters.
func ImportCSV(path string) ImportResult {
	result := ImportResult{}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open file: %v", err))
		return result
	}
	if len(bytes.TrimSpace(data)) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	delimiter := DetectCSVDelimiter(data)
	var warnings []string
	if delimiter != ',' {
		delimName := map[rune]string{';': "semicolon", '\t': "tab", '|': "pipe"}[delimiter]
		warnings = append(warnings, fmt.Sprintf("Detected %s delimiter", delimName))
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return result
	}
	if len(records) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}
	return importFromRows(records, "Line", warnings)
}

// ImportCSVFromReader imports tuples from a CSV reader with a specific delimiter.
func ImportCSVFromReader(reader io.Reader, delimiter rune) ImportResult {
	result := ImportResult{}

	csvReader := csv.NewReader(reader)
	csvReader.Comma = delimiter
	csvReader.LazyQuotes = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return result
	}
	if len(records) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}
	return importFromRows(records, "Line", nil)
}

// ImportExcel imports tuples from the first sheet of an Excel workbook.
func ImportExcel(path string) ImportResult {
	result := ImportResult{}

	f, err := excelize.OpenFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open Excel file: %v", err))
		return result
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		result.Errors = append(result.Errors, "Excel file has no sheets")
		return result
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read Excel data: %v", err))
		return result
	}
	if len(rows) == 0 {
		result.Errors = append(result.Errors, "Sheet is empty")
		return result
	}
	return importFromRows(rows, "Row", nil)
}

// importFromRows is the shared import logic for both CSV and Excel data.
func importFromRows(rows [][]string, rowPrefix string, initialWarnings []string) ImportResult {
	result := ImportResult{Warnings: initialWarnings}
	if len(rows) == 0 {
		result.Errors = append(result.Errors, "No data rows found")
		return result
	}

	mapping, hasHeader := DetectColumns(rows[0])
	startRow := 0
	if hasHeader {
		startRow = 1
		result.Warnings = append(result.Warnings, "Detected header row, skipping")

		missing := []string{}
		if mapping.Length == -1 {
			missing = append(missing, "Length")
		}
		if mapping.Width == -1 {
			missing = append(missing, "Width")
		}
		if mapping.Height == -1 {
			missing = append(missing, "Height")
		}
		if len(missing) > 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("Required columns not found in header: %s", strings.Join(missing, ", ")))
			return result
		}
	} else if len(rows[0]) > positional.Length {
		// An unrecognised header: the first size column is not numeric.
		if _, err := strconv.ParseFloat(strings.TrimSpace(rows[0][positional.Length]), 64); err != nil {
			startRow = 1
			result.Warnings = append(result.Warnings, "Detected header row, skipping")
		}
	}

	for i := startRow; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) {
			continue
		}
		rowLabel := fmt.Sprintf("%s %d", rowPrefix, i+1)
		t, errMsg, warnings := parseRow(row, mapping, rowLabel)
		result.Warnings = append(result.Warnings, warnings...)
		if errMsg != "" {
			result.Errors = append(result.Errors, errMsg)
			continue
		}
		result.Tuples = append(result.Tuples, t)
	}
	return result
}
