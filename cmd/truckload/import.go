package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/piwi3910/TruckLoad/internal/engine"
	"github.com/piwi3910/TruckLoad/internal/importer"
)

var (
	flagDXFHeight float64
	flagDXFWeight float64
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace the stored load with an optimizer result",
	Long: `Import reads placement tuples and replaces the stored arrangement.

Supported formats: JSON (array of tuples), CSV/TSV, Excel (.xlsx) and DXF
floor plans. Tuples are [x, y, z, length, width, height, externalId,
weight, stableId]; a position of -1 marks a unit that did not fit.
Spreadsheet columns may be named in a header row. In a DXF drawing every
closed shape becomes a floor unit of --height and --weight.

Example:
  truckload import plan.json
  truckload import --container "20ft Container" plan.xlsx
  truckload import --height 1200 floor.dxf`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().Float64Var(&flagDXFHeight, "height", 1000, "unit height for DXF footprints (mm)")
	importCmd.Flags().Float64Var(&flagDXFWeight, "weight", 0, "unit weight for DXF footprints (kg)")
}

func runImport(cmd *cobra.Command, args []string) error {
	path := args[0]
	var result importer.ImportResult
	if strings.EqualFold(filepath.Ext(path), ".dxf") {
		opts := importer.DefaultDXFOptions()
		opts.Height, opts.Weight = flagDXFHeight, flagDXFWeight
		result = importer.ImportDXF(path, opts)
	} else {
		result = importer.ImportFile(path)
	}

	for _, w := range result.Warnings {
		logger.Warn("import", "file", path, "warning", w)
	}
	for _, e := range result.Errors {
		logger.Error("import", "file", path, "error", e)
	}
	if len(result.Tuples) == 0 {
		return fmt.Errorf("import %s: no units read (%d errors)", path, len(result.Errors))
	}

	s := engine.NewSession(cfg.Settings, cfg.ContainerLabel)
	s.Load(result.Tuples)

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.Replace(cmd.Context(), s.Container(), s.Baseline()); err != nil {
		return fmt.Errorf("store import: %w", err)
	}
	rememberFile(path)

	stats := s.Stats()
	logger.Info("import stored", "file", path, "units", stats.ActiveCount, "removed", stats.RemovedCount)
	if flagJSON {
		return printJSON(stats)
	}
	fmt.Fprintf(os.Stdout, "Imported %d units into %s (%d did not fit, %.1f%% full)\n",
		stats.ActiveCount, s.Container().Label, stats.RemovedCount, stats.FillPercent)
	for _, w := range s.Warnings() {
		fmt.Println("  !", w)
	}
	return nil
}
