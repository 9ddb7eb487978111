package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/piwi3910/TruckLoad/internal/model"
)

// BackupVersion is written into every backup file.
const BackupVersion = "1.0.0"

// BackupData is the top-level structure for a full session backup: the
// preferences, the container and the arrangement as wire tuples, and the
// pallets with their contents.
type BackupData struct {
	Version   string          `json:"version"`
	CreatedAt string          `json:"created_at"`
	Config    model.AppConfig `json:"config"`
	Container model.Container `json:"container"`
	Tuples    []model.Tuple   `json:"tuples"`
	Pallets   []model.Pallet  `json:"pallets"`
}

// ExportAllData writes data to a single JSON file, stamping the version and
// creation time.
func ExportAllData(exportPath string, data BackupData) error {
	data.Version = BackupVersion
	data.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	if data.Tuples == nil {
		data.Tuples = []model.Tuple{}
	}
	if data.Pallets == nil {
		data.Pallets = []model.Pallet{}
	}

	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal backup data: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(exportPath), 0755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}
	if err := os.WriteFile(exportPath, raw, 0644); err != nil {
		return fmt.Errorf("failed to write backup file: %w", err)
	}
	return nil
}

// ImportAllData reads a backup JSON file and returns the contained data.
// The caller is responsible for loading it into a session.
func ImportAllData(importPath string) (BackupData, error) {
	raw, err := os.ReadFile(importPath)
	if err != nil {
		return BackupData{}, fmt.Errorf("failed to read backup file: %w", err)
	}
	var backup BackupData
	if err := json.Unmarshal(raw, &backup); err != nil {
		return BackupData{}, fmt.Errorf("failed to parse backup file: %w", err)
	}
	if backup.Version == "" {
		return BackupData{}, fmt.Errorf("invalid backup file: missing version field")
	}
	if backup.Config.RecentFiles == nil {
		backup.Config.RecentFiles = []string{}
	}
	return backup, nil
}
