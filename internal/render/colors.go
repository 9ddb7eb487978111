package render

// Color is an 8-bit RGB colour.
type Color struct {
	R, G, B int
}

// Palette is the unit colour scheme shared with the PDF load plan.
var Palette = []Color{
	{R: 76, G: 175, B: 80},  // green
	{R: 33, G: 150, B: 243}, // blue
	{R: 255, G: 152, B: 0},  // orange
	{R: 156, G: 39, B: 176}, // purple
	{R: 0, G: 188, B: 212},  // cyan
	{R: 244, G: 67, B: 54},  // red
	{R: 255, G: 235, B: 59}, // yellow
	{R: 121, G: 85, B: 72},  // brown
	{R: 96, G: 125, B: 139}, // blue grey
	{R: 233, G: 30, B: 99},  // pink
}

// ColorPool hands out palette colours per group. Units of one group share a
// colour; a colour returns to the pool when the last unit of its group is
// released. It is owned by the render adapter and never consulted by
// placement logic.
type ColorPool struct {
	palette []Color
	used    []int             // Groups holding each palette entry
	groups  map[string]int    // Group -> palette index
	members map[string]int    // Group -> unit count
	units   map[string]string // Unit id -> group
}

// NewColorPool creates a pool over palette, or Palette when empty.
func NewColorPool(palette []Color) *ColorPool {
	if len(palette) == 0 {
		palette = Palette
	}
	return &ColorPool{
		palette: palette,
		used:    make([]int, len(palette)),
		groups:  make(map[string]int),
		members: make(map[string]int),
		units:   make(map[string]string),
	}
}

// Acquire returns the colour for a unit, allocating one for its group on
// first use. Groups default to the unit id. When every colour is taken the
// least shared one is reused.
func (p *ColorPool) Acquire(unitID, group string) Color {
	if group == "" {
		group = unitID
	}
	if g, ok := p.units[unitID]; ok {
		if g == group {
			return p.palette[p.groups[g]]
		}
		p.Release(unitID)
	}

	idx, ok := p.groups[group]
	if !ok {
		idx = 0
		for i, n := range p.used {
			if n < p.used[idx] {
				idx = i
			}
		}
		p.used[idx]++
		p.groups[group] = idx
	}
	p.members[group]++
	p.units[unitID] = group
	return p.palette[idx]
}

// Release drops a unit's claim on its group colour.
func (p *ColorPool) Release(unitID string) {
	group, ok := p.units[unitID]
	if !ok {
		return
	}
	delete(p.units, unitID)
	p.members[group]--
	if p.members[group] > 0 {
		return
	}
	delete(p.members, group)
	p.used[p.groups[group]]--
	delete(p.groups, group)
}

// InUse returns the number of groups holding a colour.
func (p *ColorPool) InUse() int {
	return len(p.groups)
}

// Reset releases every colour.
func (p *ColorPool) Reset() {
	p.used = make([]int, len(p.palette))
	p.groups = make(map[string]int)
	p.members = make(map[string]int)
	p.units = make(map[string]string)
}
