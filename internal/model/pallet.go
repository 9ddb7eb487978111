package model

import "github.com/google/uuid"

// Content is a product line loaded on a pallet. Order within a pallet is the
// loading order (layering), so Priority and position are meaningful.
type Content struct {
	ProductID string  `json:"product_id"`
	Label     string  `json:"label"`
	Quantity  int     `json:"quantity"`
	Priority  int     `json:"priority"`
	Size      Size    `json:"size"`   // Single item footprint
	Weight    float64 `json:"weight"` // Single item weight, kg
}

// Volume returns the volume taken by all items of the line.
func (c Content) Volume() float64 {
	return c.Size.Sanitize().Volume() * float64(max(c.Quantity, 0))
}

// Pallet is a fit container with ordered contents.
type Pallet struct {
	ID       string    `json:"id,omitempty"` // Persisted id; storage writes the id it is given
	Key      string    `json:"key"`          // Stable correlating key across edits
	Label    string    `json:"label"`
	Size     Size      `json:"size"` // Load area and maximum load height
	Contents []Content `json:"contents"`
}

// NewPallet creates an unsaved pallet with a fresh persisted id and
// correlating key. Deleting it after a save is reported by that id.
func NewPallet(label string, l, w, h float64) Pallet {
	return Pallet{
		ID:       uuid.New().String(),
		Key:      uuid.New().String(),
		Label:    label,
		Size:     Size{Length: l, Width: w, Height: h},
		Contents: []Content{},
	}
}

// UsedVolume returns the volume already taken by contents.
func (p Pallet) UsedVolume() float64 {
	var total float64
	for _, c := range p.Contents {
		total += c.Volume()
	}
	return total
}

// Clone returns a deep copy of the pallet.
func (p Pallet) Clone() Pallet {
	cp := p
	if p.Contents != nil {
		cp.Contents = make([]Content, len(p.Contents))
		copy(cp.Contents, p.Contents)
	}
	return cp
}

// CopyPallets deep-copies a pallet slice.
func CopyPallets(pallets []Pallet) []Pallet {
	if pallets == nil {
		return nil
	}
	cp := make([]Pallet, len(pallets))
	for i, p := range pallets {
		cp[i] = p.Clone()
	}
	return cp
}
