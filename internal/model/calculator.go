package model

// LoadStats summarises an arrangement for reports.
type LoadStats struct {
	ActiveCount   int     `json:"active_count"`
	RemovedCount  int     `json:"removed_count"`
	UsedVolume    float64 `json:"used_volume"`    // cubic mm
	TotalVolume   float64 `json:"total_volume"`   // cubic mm
	FillPercent   float64 `json:"fill_percent"`   // UsedVolume / TotalVolume * 100
	TotalWeight   float64 `json:"total_weight"`   // kg of active units
	RemovedWeight float64 `json:"removed_weight"` // kg left off the load
	CenterOfMass  Vec3    `json:"center_of_mass"` // Weighted by unit weight; zero when weightless
	LoadLength    float64 `json:"load_length"`    // Furthest X reached by an active unit
}

// CalculateLoadStats computes volume, weight and balance figures.
func CalculateLoadStats(a Arrangement) LoadStats {
	stats := LoadStats{
		ActiveCount:  len(a.Active),
		RemovedCount: len(a.Removed),
		TotalVolume:  a.Container.Volume(),
	}

	var moment Vec3
	for _, u := range a.Active {
		b := u.Box()
		stats.UsedVolume += b.Size.Volume()
		stats.TotalWeight += u.Weight

		center := Vec3{
			X: b.Min.X + b.Size.Length/2,
			Y: b.Min.Y + b.Size.Width/2,
			Z: b.Min.Z + b.Size.Height/2,
		}
		moment = moment.Add(center.Scale(u.Weight))

		if end := b.Max().X; end > stats.LoadLength {
			stats.LoadLength = end
		}
	}
	for _, u := range a.Removed {
		stats.RemovedWeight += u.Weight
	}

	if stats.TotalVolume > 0 {
		stats.FillPercent = stats.UsedVolume / stats.TotalVolume * 100.0
	}
	if stats.TotalWeight > 0 {
		stats.CenterOfMass = moment.Scale(1 / stats.TotalWeight)
	}
	return stats
}
