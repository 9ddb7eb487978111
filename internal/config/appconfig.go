package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/piwi3910/TruckLoad/internal/model"
)

// DefaultAppConfigPath returns the path of the app preferences file
// inside configDir.
func DefaultAppConfigPath(configDir string) string {
	return filepath.Join(configDir, "preferences.json")
}

// SaveAppConfig persists an AppConfig to the given path as JSON.
// It creates any missing parent directories automatically.
func SaveAppConfig(path string, config model.AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadAppConfig reads an AppConfig from the given path.
// If the file does not exist, it returns DefaultAppConfig with no error.
func LoadAppConfig(path string) (model.AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.DefaultAppConfig(), nil
		}
		return model.AppConfig{}, err
	}
	var config model.AppConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return model.AppConfig{}, err
	}
	if config.RecentFiles == nil {
		config.RecentFiles = []string{}
	}
	return config, nil
}
