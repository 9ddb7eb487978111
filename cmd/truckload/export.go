package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/piwi3910/TruckLoad/internal/config"
	"github.com/piwi3910/TruckLoad/internal/engine"
	"github.com/piwi3910/TruckLoad/internal/export"
)

var exportCmd = &cobra.Command{
	Use:   "export <pdf|labels|xlsx|backup> <output>",
	Short: "Export the stored load",
	Long: `Export writes the stored load in one of these formats:

  pdf     load plan with top and side views and a summary page
  labels  QR-coded unit labels in loading order
  xlsx    Excel manifest of loaded and removed units
  backup  JSON backup of preferences, container, units and pallets

Example:
  truckload export pdf plan.pdf
  truckload export backup ~/truckload-backup.json`,
	Args: cobra.ExactArgs(2),
	RunE: runExport,
}

var restoreCmd = &cobra.Command{
	Use:   "restore <backup.json>",
	Short: "Replace the stored load and pallets with a backup",
	Args:  cobra.ExactArgs(1),
	RunE:  runRestore,
}

func runExport(cmd *cobra.Command, args []string) error {
	format, out := args[0], args[1]

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()
	s, err := loadSession(cmd.Context(), st)
	if err != nil {
		return err
	}

	a := s.Arrangement()
	switch format {
	case "pdf":
		err = export.ExportPDF(out, a, s.Warnings())
	case "labels":
		err = export.ExportLabels(out, a)
	case "xlsx":
		err = export.ExportManifest(out, a)
	case "backup":
		err = exportBackup(out, s)
	default:
		return fmt.Errorf("unknown export format %q (valid: pdf, labels, xlsx, backup)", format)
	}
	if err != nil {
		return fmt.Errorf("export %s: %w", format, err)
	}
	logger.Info("exported", "format", format, "file", out, "units", len(a.Active))
	return nil
}

func exportBackup(out string, s *engine.Session) error {
	prefs, err := config.LoadAppConfig(config.DefaultAppConfigPath(cfg.Dir))
	if err != nil {
		return fmt.Errorf("read preferences: %w", err)
	}
	return export.ExportAllData(out, export.BackupData{
		Config:    prefs,
		Container: s.Container(),
		Tuples:    s.Store().Tuples(),
		Pallets:   s.Pallets().Snapshot(),
	})
}

func runRestore(cmd *cobra.Command, args []string) error {
	backup, err := export.ImportAllData(args[0])
	if err != nil {
		return err
	}

	settings := cfg.Settings
	c := backup.Container
	if c.Length > 0 && c.Width > 0 && c.Height > 0 {
		settings.Container = [3]float64{c.Length, c.Width, c.Height}
	} else {
		c.Label = cfg.ContainerLabel
	}
	s := engine.NewSession(settings, c.Label)
	s.Load(backup.Tuples)

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	if err := st.Replace(ctx, s.Container(), s.Baseline()); err != nil {
		return fmt.Errorf("restore units: %w", err)
	}
	if err := st.ReplacePallets(ctx, backup.Pallets); err != nil {
		return fmt.Errorf("restore pallets: %w", err)
	}
	if err := config.SaveAppConfig(config.DefaultAppConfigPath(cfg.Dir), backup.Config); err != nil {
		return fmt.Errorf("restore preferences: %w", err)
	}
	logger.Info("backup restored", "file", args[0], "created", backup.CreatedAt,
		"units", len(backup.Tuples), "pallets", len(backup.Pallets))
	return nil
}
