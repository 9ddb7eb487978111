package model

import "github.com/google/uuid"

// ContainerPreset is a reusable truck bed definition.
type ContainerPreset struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// NewContainerPreset creates a ContainerPreset with a generated ID.
func NewContainerPreset(name string, l, w, h float64) ContainerPreset {
	return ContainerPreset{
		ID:     uuid.New().String()[:8],
		Name:   name,
		Length: l,
		Width:  w,
		Height: h,
	}
}

// ToContainer converts the preset into a Container.
func (cp ContainerPreset) ToContainer() Container {
	return NewContainer(cp.Name, [3]float64{cp.Length, cp.Width, cp.Height})
}

// PalletPreset is a reusable pallet definition.
type PalletPreset struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Length    float64 `json:"length"`
	Width     float64 `json:"width"`
	MaxHeight float64 `json:"max_height"` // Maximum load height above the deck
}

// NewPalletPreset creates a PalletPreset with a generated ID.
func NewPalletPreset(name string, l, w, maxHeight float64) PalletPreset {
	return PalletPreset{
		ID:        uuid.New().String()[:8],
		Name:      name,
		Length:    l,
		Width:     w,
		MaxHeight: maxHeight,
	}
}

// ToPallet creates a new empty pallet from the preset.
func (pp PalletPreset) ToPallet() Pallet {
	return NewPallet(pp.Name, pp.Length, pp.Width, pp.MaxHeight)
}

// Inventory holds the saved container and pallet presets.
type Inventory struct {
	Containers []ContainerPreset `json:"containers"`
	Pallets    []PalletPreset    `json:"pallets"`
}

// DefaultInventory returns an inventory populated with common equipment.
func DefaultInventory() Inventory {
	return Inventory{
		Containers: []ContainerPreset{
			NewContainerPreset("Curtainsider 13.6m", 13600, 2450, 2700),
			NewContainerPreset("Box Trailer 12m", 12000, 2400, 2700),
			NewContainerPreset("20ft Container", 5898, 2352, 2393),
			NewContainerPreset("40ft Container", 12032, 2352, 2393),
			NewContainerPreset("7.5t Box Truck", 6100, 2440, 2300),
		},
		Pallets: []PalletPreset{
			NewPalletPreset("EUR 1200x800", 1200, 800, 1500),
			NewPalletPreset("Industrial 1200x1000", 1200, 1000, 1500),
			NewPalletPreset("Half 800x600", 800, 600, 1200),
		},
	}
}

// FindContainerByName returns a pointer to the first container preset with the given name, or nil.
func (inv *Inventory) FindContainerByName(name string) *ContainerPreset {
	for i := range inv.Containers {
		if inv.Containers[i].Name == name {
			return &inv.Containers[i]
		}
	}
	return nil
}

// FindPalletByName returns a pointer to the first pallet preset with the given name, or nil.
func (inv *Inventory) FindPalletByName(name string) *PalletPreset {
	for i := range inv.Pallets {
		if inv.Pallets[i].Name == name {
			return &inv.Pallets[i]
		}
	}
	return nil
}

// ContainerNames returns the preset names in order.
func (inv *Inventory) ContainerNames() []string {
	names := make([]string, len(inv.Containers))
	for i, c := range inv.Containers {
		names[i] = c.Name
	}
	return names
}
