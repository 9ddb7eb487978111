package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/piwi3910/TruckLoad/internal/config"
	"github.com/piwi3910/TruckLoad/internal/model"
)

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List or import container and pallet presets",
	Args:  cobra.NoArgs,
	RunE:  runPresetsList,
}

var presetsImportCmd = &cobra.Command{
	Use:   "import <inventory.json>",
	Short: "Merge presets from another inventory file",
	Args:  cobra.ExactArgs(1),
	RunE:  runPresetsImport,
}

var addPalletCmd = &cobra.Command{
	Use:   "add-pallet <preset>",
	Short: "Add an empty pallet from a preset to the stored load",
	Args:  cobra.ExactArgs(1),
	RunE:  runAddPallet,
}

func init() {
	presetsCmd.AddCommand(presetsImportCmd)
	presetsCmd.AddCommand(addPalletCmd)
}

func loadInventory() (model.Inventory, string, error) {
	path := config.DefaultInventoryPath(cfg.Dir)
	inv, err := config.LoadInventory(path)
	if err != nil {
		return model.Inventory{}, path, fmt.Errorf("load inventory: %w", err)
	}
	return inv, path, nil
}

func runPresetsList(cmd *cobra.Command, args []string) error {
	inv, _, err := loadInventory()
	if err != nil {
		return err
	}
	if flagJSON {
		return printJSON(inv)
	}
	fmt.Println("Containers:")
	for _, c := range inv.Containers {
		fmt.Printf("  %-24s %6.0f x %5.0f x %5.0f mm\n", c.Name, c.Length, c.Width, c.Height)
	}
	fmt.Println("Pallets:")
	for _, p := range inv.Pallets {
		fmt.Printf("  %-24s %6.0f x %5.0f mm, load height %.0f mm\n", p.Name, p.Length, p.Width, p.MaxHeight)
	}
	return nil
}

func runPresetsImport(cmd *cobra.Command, args []string) error {
	inv, path, err := loadInventory()
	if err != nil {
		return err
	}
	before := len(inv.Containers) + len(inv.Pallets)
	inv, err = config.ImportInventory(args[0], inv)
	if err != nil {
		return fmt.Errorf("import presets: %w", err)
	}
	if err := config.SaveInventory(path, inv); err != nil {
		return fmt.Errorf("save inventory: %w", err)
	}
	fmt.Printf("Imported %d presets\n", len(inv.Containers)+len(inv.Pallets)-before)
	return nil
}

func runAddPallet(cmd *cobra.Command, args []string) error {
	inv, _, err := loadInventory()
	if err != nil {
		return err
	}
	preset := inv.FindPalletByName(args[0])
	if preset == nil {
		return fmt.Errorf("unknown pallet preset %q", args[0])
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	s, err := loadSession(ctx, st)
	if err != nil {
		return err
	}
	p := preset.ToPallet()
	added := s.Pallets().AddPallet(p.Label, p.Size)
	if _, err := s.Submit(ctx, st); err != nil {
		return err
	}
	logger.Info("pallet added", "preset", preset.Name, "key", added.Key)
	return nil
}
