// Shared helpers for truckload CLI commands.
package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/piwi3910/TruckLoad/internal/config"
	"github.com/piwi3910/TruckLoad/internal/engine"
	"github.com/piwi3910/TruckLoad/internal/model"
	"github.com/piwi3910/TruckLoad/internal/storage"
)

// openStore opens the configured database. The caller must defer Close.
func openStore() (*storage.Store, error) {
	st, err := storage.Open(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return st, nil
}

// loadSession builds a session from the stored arrangement and pallets.
// The stored container wins over the configured one unless --container
// was given.
func loadSession(ctx context.Context, st *storage.Store) (*engine.Session, error) {
	settings, label := cfg.Settings, cfg.ContainerLabel
	c, ok, err := st.Container(ctx)
	if err != nil {
		return nil, fmt.Errorf("read container: %w", err)
	}
	if ok && flagContainer == "" {
		settings.Container = [3]float64{c.Length, c.Width, c.Height}
		label = c.Label
	}

	units, err := st.Units(ctx)
	if err != nil {
		return nil, fmt.Errorf("read units: %w", err)
	}
	pallets, err := st.Pallets(ctx)
	if err != nil {
		return nil, fmt.Errorf("read pallets: %w", err)
	}

	s := engine.NewSession(settings, label)
	s.LoadUnits(units)
	s.LoadPallets(nil, pallets)
	logger.Debug("session loaded", "container", label, "units", len(units), "pallets", len(pallets))
	return s, nil
}

// rememberFile adds path to the recent files in the app preferences.
// Failures are logged only.
func rememberFile(path string) {
	prefsPath := config.DefaultAppConfigPath(cfg.Dir)
	prefs, err := config.LoadAppConfig(prefsPath)
	if err != nil {
		logger.Warn("reading preferences", "path", prefsPath, "error", err)
		prefs = model.DefaultAppConfig()
	}
	prefs.AddRecentFile(path)
	if err := config.SaveAppConfig(prefsPath, prefs); err != nil {
		logger.Warn("saving preferences", "path", prefsPath, "error", err)
	}
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
