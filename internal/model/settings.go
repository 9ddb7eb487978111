package model

// Settings holds the tunable values the arrangement engine consumes.
type Settings struct {
	// Container extents [length, width, height] in mm
	Container [3]float64 `json:"container" mapstructure:"container"`

	SnapThreshold    float64 `json:"snap_threshold" mapstructure:"snap_threshold"`       // mm; edges closer than this snap flush
	DragSmoothing    float64 `json:"drag_smoothing" mapstructure:"drag_smoothing"`       // 0..1 fraction of the gap closed per frame
	MinZoom          float64 `json:"min_zoom" mapstructure:"min_zoom"`                   // Camera zoom lower bound
	MaxZoom          float64 `json:"max_zoom" mapstructure:"max_zoom"`                   // Camera zoom upper bound
	SupportTolerance float64 `json:"support_tolerance" mapstructure:"support_tolerance"` // mm gap still counted as resting
	SearchStep       float64 `json:"search_step" mapstructure:"search_step"`             // Grid step for free-position search, mm
	HistoryDepth     int     `json:"history_depth" mapstructure:"history_depth"`         // Undo stack size
}

// MinSearchStep is the finest grid step FindFreePosition accepts, in mm.
const MinSearchStep = 10

// DefaultSettings returns the settings for a standard 13.6 m trailer.
func DefaultSettings() Settings {
	return Settings{
		Container:        [3]float64{13600, 2450, 2700},
		SnapThreshold:    50,
		DragSmoothing:    0.35,
		MinZoom:          0.25,
		MaxZoom:          8,
		SupportTolerance: 5,
		SearchStep:       50,
		HistoryDepth:     50,
	}
}

// Normalize replaces out-of-range values with defaults.
func (s Settings) Normalize() Settings {
	d := DefaultSettings()
	if s.Container[0] <= 0 || s.Container[1] <= 0 || s.Container[2] <= 0 {
		s.Container = d.Container
	}
	if s.SnapThreshold < 0 {
		s.SnapThreshold = 0
	}
	if s.DragSmoothing <= 0 || s.DragSmoothing > 1 {
		s.DragSmoothing = d.DragSmoothing
	}
	if s.MinZoom <= 0 {
		s.MinZoom = d.MinZoom
	}
	if s.MaxZoom < s.MinZoom {
		s.MaxZoom = s.MinZoom
	}
	if s.SupportTolerance < 0 {
		s.SupportTolerance = d.SupportTolerance
	}
	if s.SearchStep <= 0 {
		s.SearchStep = d.SearchStep
	} else if s.SearchStep < MinSearchStep {
		s.SearchStep = MinSearchStep
	}
	if s.HistoryDepth <= 0 {
		s.HistoryDepth = d.HistoryDepth
	}
	return s
}

// ContainerFromSettings builds the container described by the settings.
func (s Settings) ContainerFromSettings(label string) Container {
	return NewContainer(label, s.Container)
}
