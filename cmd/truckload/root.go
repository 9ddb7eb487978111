package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/piwi3910/TruckLoad/internal/config"
)

// Global flag values.
var (
	flagConfigDir string
	flagContainer string
	flagJSON      bool
)

// cfg and logger are set by PersistentPreRunE for every subcommand.
var (
	cfg    config.Config
	logger = slog.Default()
)

var rootCmd = &cobra.Command{
	Use:   "truckload",
	Short: "TruckLoad plans and edits truck and container loads",
	Long: `TruckLoad keeps a truck or container load in a local database.
Optimizer results are imported as tuples, edited by replaying scripted
drag, rotate, delete and restore steps, and exported as load plans.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "configuration directory (default: ~/.truckload)")
	rootCmd.PersistentFlags().StringVar(&flagContainer, "container", "", "container preset from the inventory, overriding config.yaml")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output as JSON")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(restoreCmd)
	rootCmd.AddCommand(presetsCmd)
}

// setup loads configuration and installs the logger.
func setup(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "version" {
		return nil
	}

	dir := flagConfigDir
	if dir == "" {
		dir = config.DefaultConfigDir()
	}
	v, err := config.Load(dir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg, err = config.Resolve(v, dir)
	if err != nil {
		return fmt.Errorf("resolve config: %w", err)
	}

	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	if flagContainer != "" {
		inv, err := config.LoadInventory(config.DefaultInventoryPath(dir))
		if err != nil {
			return fmt.Errorf("load inventory: %w", err)
		}
		if err := cfg.UseContainerPreset(inv, flagContainer); err != nil {
			return err
		}
	}
	logger.Debug("configuration loaded", "dir", dir, "database", cfg.DatabasePath, "container", cfg.ContainerLabel)
	return nil
}
