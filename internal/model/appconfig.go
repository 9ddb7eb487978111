package model

// AppConfig holds application-wide preferences persisted between runs.
type AppConfig struct {
	// Defaults applied to new sessions
	DefaultContainer     string  `json:"default_container"` // Preset name
	DefaultSnapThreshold float64 `json:"default_snap_threshold"`
	DefaultDragSmoothing float64 `json:"default_drag_smoothing"`
	DefaultSearchStep    float64 `json:"default_search_step"`

	// Application preferences
	RecentFiles []string `json:"recent_files"`
	LogLevel    string   `json:"log_level"` // "debug", "info", "warn", "error"
}

// maxRecentFiles bounds the recent files list.
const maxRecentFiles = 10

// DefaultAppConfig returns an AppConfig matching DefaultSettings().
func DefaultAppConfig() AppConfig {
	defaults := DefaultSettings()
	return AppConfig{
		DefaultContainer:     "",
		DefaultSnapThreshold: defaults.SnapThreshold,
		DefaultDragSmoothing: defaults.DragSmoothing,
		DefaultSearchStep:    defaults.SearchStep,
		RecentFiles:          []string{},
		LogLevel:             "info",
	}
}

// ApplyToSettings copies the saved defaults into s.
func (c AppConfig) ApplyToSettings(s *Settings) {
	if c.DefaultSnapThreshold > 0 {
		s.SnapThreshold = c.DefaultSnapThreshold
	}
	if c.DefaultDragSmoothing > 0 {
		s.DragSmoothing = c.DefaultDragSmoothing
	}
	if c.DefaultSearchStep > 0 {
		s.SearchStep = c.DefaultSearchStep
	}
}

// AddRecentFile moves path to the front of the recent list.
func (c *AppConfig) AddRecentFile(path string) {
	files := []string{path}
	for _, f := range c.RecentFiles {
		if f != path {
			files = append(files, f)
		}
	}
	if len(files) > maxRecentFiles {
		files = files[:maxRecentFiles]
	}
	c.RecentFiles = files
}
