package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/piwi3910/TruckLoad/internal/model"
)

// DefaultInventoryPath returns the path of the equipment inventory file
// inside configDir.
func DefaultInventoryPath(configDir string) string {
	return filepath.Join(configDir, "inventory.json")
}

// SaveInventory writes the inventory to the specified JSON file.
// It creates parent directories if they do not exist.
func SaveInventory(path string, inv model.Inventory) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(inv, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadInventory reads the inventory from the specified JSON file.
// If the file does not exist, it returns the default inventory and saves it.
func LoadInventory(path string) (model.Inventory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			inv := model.DefaultInventory()
			if saveErr := SaveInventory(path, inv); saveErr != nil {
				return inv, saveErr
			}
			return inv, nil
		}
		return model.Inventory{}, err
	}
	var inv model.Inventory
	if err := json.Unmarshal(data, &inv); err != nil {
		return model.Inventory{}, err
	}
	return inv, nil
}

// ImportInventory merges the presets of the JSON file at path into
// existing. Presets whose name is already present are skipped.
func ImportInventory(path string, existing model.Inventory) (model.Inventory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return existing, err
	}
	var imported model.Inventory
	if err := json.Unmarshal(data, &imported); err != nil {
		return existing, err
	}

	containerNames := make(map[string]bool, len(existing.Containers))
	for _, c := range existing.Containers {
		containerNames[c.Name] = true
	}
	palletNames := make(map[string]bool, len(existing.Pallets))
	for _, p := range existing.Pallets {
		palletNames[p.Name] = true
	}

	for _, c := range imported.Containers {
		if !containerNames[c.Name] {
			existing.Containers = append(existing.Containers, c)
			containerNames[c.Name] = true
		}
	}
	for _, p := range imported.Pallets {
		if !palletNames[p.Name] {
			existing.Pallets = append(existing.Pallets, p)
			palletNames[p.Name] = true
		}
	}
	return existing, nil
}
