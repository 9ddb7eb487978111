// Package config loads TruckLoad configuration: engine settings, database
// location and log level from config.yaml via Viper, plus the JSON-backed
// app preferences and equipment inventory.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/piwi3910/TruckLoad/internal/model"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	KeyContainerLabel   = "container.label"
	KeyContainerLength  = "container.length"
	KeyContainerWidth   = "container.width"
	KeyContainerHeight  = "container.height"
	KeySnapThreshold    = "snap.threshold"
	KeyDragSmoothing    = "drag.smoothing"
	KeyZoomMin          = "zoom.min"
	KeyZoomMax          = "zoom.max"
	KeySupportTolerance = "support.tolerance"
	KeySearchStep       = "search.step"
	KeyHistoryDepth     = "history.depth"
	KeyDatabasePath     = "database.path"
	KeyLogLevel         = "log.level"

	defaultDatabaseFile = "truckload.db"
)

// defaultConfigYAML is written to config.yaml on first run.
const defaultConfigYAML = `# TruckLoad configuration

container:
  label: Curtainsider 13.6m
  length: 13600
  width: 2450
  height: 2700

snap:
  threshold: 50     # mm

drag:
  smoothing: 0.35   # fraction of the gap closed per frame

zoom:
  min: 0.25
  max: 8

support:
  tolerance: 5      # mm gap still counted as resting

search:
  step: 50          # mm grid step when restoring units

history:
  depth: 50

# database:
#   path: /path/to/truckload.db

log:
  level: info
`

// Config is the resolved runtime configuration.
type Config struct {
	ContainerLabel string
	Settings       model.Settings
	DatabasePath   string
	LogLevel       slog.Level
	Dir            string
}

// DefaultConfigDir returns ~/.truckload.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".truckload")
}

// Load reads config.yaml from configDir. The directory and a default
// config.yaml are created on first run; a missing file is not an error.
func Load(configDir string) (*viper.Viper, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := New()
	v.AddConfigPath(configDir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// New returns a Viper instance with every key defaulted and TRUCKLOAD_*
// environment overrides enabled.
func New() *viper.Viper {
	d := model.DefaultSettings()
	v := viper.New()
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.SetEnvPrefix("truckload")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyContainerLabel, "Curtainsider 13.6m")
	v.SetDefault(KeyContainerLength, d.Container[0])
	v.SetDefault(KeyContainerWidth, d.Container[1])
	v.SetDefault(KeyContainerHeight, d.Container[2])
	v.SetDefault(KeySnapThreshold, d.SnapThreshold)
	v.SetDefault(KeyDragSmoothing, d.DragSmoothing)
	v.SetDefault(KeyZoomMin, d.MinZoom)
	v.SetDefault(KeyZoomMax, d.MaxZoom)
	v.SetDefault(KeySupportTolerance, d.SupportTolerance)
	v.SetDefault(KeySearchStep, d.SearchStep)
	v.SetDefault(KeyHistoryDepth, d.HistoryDepth)
	v.SetDefault(KeyDatabasePath, "")
	v.SetDefault(KeyLogLevel, "info")
	return v
}

// Resolve turns a loaded Viper instance into a Config. Out-of-range
// settings fall back to defaults; an empty database path resolves to
// truckload.db inside configDir.
func Resolve(v *viper.Viper, configDir string) (Config, error) {
	level, err := ParseLevel(v.GetString(KeyLogLevel))
	if err != nil {
		return Config{}, err
	}
	s := model.Settings{
		Container: [3]float64{
			v.GetFloat64(KeyContainerLength),
			v.GetFloat64(KeyContainerWidth),
			v.GetFloat64(KeyContainerHeight),
		},
		SnapThreshold:    v.GetFloat64(KeySnapThreshold),
		DragSmoothing:    v.GetFloat64(KeyDragSmoothing),
		MinZoom:          v.GetFloat64(KeyZoomMin),
		MaxZoom:          v.GetFloat64(KeyZoomMax),
		SupportTolerance: v.GetFloat64(KeySupportTolerance),
		SearchStep:       v.GetFloat64(KeySearchStep),
		HistoryDepth:     v.GetInt(KeyHistoryDepth),
	}

	dbPath := v.GetString(KeyDatabasePath)
	if dbPath == "" {
		dbPath = filepath.Join(configDir, defaultDatabaseFile)
	}
	return Config{
		ContainerLabel: v.GetString(KeyContainerLabel),
		Settings:       s.Normalize(),
		DatabasePath:   dbPath,
		LogLevel:       level,
		Dir:            configDir,
	}, nil
}

// ParseLevel maps debug, info, warn and error to slog levels.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

// UseContainerPreset overrides the container dimensions with a named preset.
func (c *Config) UseContainerPreset(inv model.Inventory, name string) error {
	p := inv.FindContainerByName(name)
	if p == nil {
		return fmt.Errorf("unknown container preset %q", name)
	}
	c.ContainerLabel = p.Name
	c.Settings.Container = [3]float64{p.Length, p.Width, p.Height}
	return nil
}

func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileExt)
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}
