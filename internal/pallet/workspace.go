// Package pallet manages fit candidates: product lines in an available pool
// and on pallets, and transfers between them that respect pallet capacity.
package pallet

import (
	"fmt"

	"github.com/piwi3910/TruckLoad/internal/geometry"
	"github.com/piwi3910/TruckLoad/internal/model"
)

// Pool is the location key of the available pool.
const Pool = ""

// Reason classifies a transfer that moved fewer units than requested.
type Reason string

const (
	ReasonNone     Reason = ""
	ReasonNotFound Reason = "not_found"
	ReasonInvalid  Reason = "invalid"
	ReasonCapacity Reason = "capacity"
)

// TransferResult reports how much of a transfer was applied.
type TransferResult struct {
	Placed    int
	Requested int
	Reason    Reason
	Message   string // User-facing; empty for a complete transfer
}

// Applied reports whether anything moved.
func (r TransferResult) Applied() bool { return r.Placed > 0 }

// Partial reports whether only part of the requested quantity moved.
func (r TransferResult) Partial() bool { return r.Placed > 0 && r.Placed < r.Requested }

// Workspace holds the available pool and the pallets being packed.
type Workspace struct {
	Available []model.Content `json:"available"`
	Pallets   []model.Pallet  `json:"pallets"`
}

// NewWorkspace creates a workspace over deep copies of the inputs.
func NewWorkspace(available []model.Content, pallets []model.Pallet) *Workspace {
	w := &Workspace{Pallets: model.CopyPallets(pallets)}
	if available != nil {
		w.Available = make([]model.Content, len(available))
		copy(w.Available, available)
	}
	return w
}

// Snapshot returns a deep copy of the pallets.
func (w *Workspace) Snapshot() []model.Pallet {
	return model.CopyPallets(w.Pallets)
}

// Pallet looks up a pallet by key.
func (w *Workspace) Pallet(key string) (model.Pallet, bool) {
	if i := w.indexOf(key); i >= 0 {
		return w.Pallets[i], true
	}
	return model.Pallet{}, false
}

// AddPallet appends an empty pallet and returns it.
func (w *Workspace) AddPallet(label string, size model.Size) model.Pallet {
	p := model.NewPallet(label, size.Length, size.Width, size.Height)
	w.Pallets = append(w.Pallets, p)
	return p
}

// RemovePallet deletes a pallet and returns its contents to the pool.
func (w *Workspace) RemovePallet(key string) bool {
	i := w.indexOf(key)
	if i < 0 {
		return false
	}
	for _, c := range w.Pallets[i].Contents {
		w.Available = addLine(w.Available, c, c.Quantity)
	}
	w.Pallets = append(w.Pallets[:i:i], w.Pallets[i+1:]...)
	return true
}

// Reorder moves the content line at index from to index to on a pallet.
// Line order is the loading order, so this is a real change.
func (w *Workspace) Reorder(key string, from, to int) bool {
	i := w.indexOf(key)
	if i < 0 {
		return false
	}
	contents := w.Pallets[i].Contents
	if from < 0 || from >= len(contents) || to < 0 || to >= len(contents) {
		return false
	}
	if from == to {
		return true
	}
	moved := contents[from]
	contents = append(contents[:from:from], contents[from+1:]...)
	contents = append(contents[:to:to], append([]model.Content{moved}, contents[to:]...)...)
	renumber(contents)
	w.Pallets[i].Contents = contents
	return true
}

// Transfer moves quantity items of productID from one location to another.
// Locations are pallet keys or Pool. When only part of the quantity fits
// the maximum fitting count moves; when nothing fits nothing changes.
func (w *Workspace) Transfer(from, to, productID string, quantity int) TransferResult {
	res := TransferResult{Requested: quantity}
	if quantity <= 0 || from == to {
		res.Reason = ReasonInvalid
		res.Message = "Nothing to transfer"
		return res
	}

	src, ok := w.location(from)
	if !ok {
		res.Reason = ReasonNotFound
		res.Message = fmt.Sprintf("Pallet %q not found", from)
		return res
	}
	dst, ok := w.location(to)
	if !ok {
		res.Reason = ReasonNotFound
		res.Message = fmt.Sprintf("Pallet %q not found", to)
		return res
	}
	li := lineIndex(*src, productID)
	if li < 0 {
		res.Reason = ReasonNotFound
		res.Message = fmt.Sprintf("Product %q not found", productID)
		return res
	}
	line := (*src)[li]
	if quantity > line.Quantity {
		quantity = line.Quantity
		res.Requested = quantity
	}

	n := quantity
	if to != Pool {
		p, _ := w.Pallet(to)
		n = geometry.MaxCount(line.Size, p.Size, p.UsedVolume(), quantity)
	}
	if n == 0 {
		res.Reason = ReasonCapacity
		res.Message = fmt.Sprintf("Not enough space: none of the %d items of %s fit on this pallet", quantity, labelOf(line))
		return res
	}

	*dst = addLine(*dst, line, n)
	(*src)[li].Quantity -= n
	if (*src)[li].Quantity <= 0 {
		*src = append((*src)[:li:li], (*src)[li+1:]...)
		renumber(*src)
	}

	res.Placed = n
	if n < quantity {
		res.Reason = ReasonCapacity
		res.Message = fmt.Sprintf("Only %d of %d items of %s fit on this pallet", n, quantity, labelOf(line))
	}
	return res
}

func (w *Workspace) location(key string) (*[]model.Content, bool) {
	if key == Pool {
		return &w.Available, true
	}
	i := w.indexOf(key)
	if i < 0 {
		return nil, false
	}
	return &w.Pallets[i].Contents, true
}

func (w *Workspace) indexOf(key string) int {
	if key == "" {
		return -1
	}
	for i := range w.Pallets {
		if w.Pallets[i].Key == key {
			return i
		}
	}
	return -1
}

func lineIndex(lines []model.Content, productID string) int {
	for i := range lines {
		if lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// addLine adds n items of line to lines, merging with an existing line of
// the same product or appending as the new top layer.
func addLine(lines []model.Content, line model.Content, n int) []model.Content {
	if i := lineIndex(lines, line.ProductID); i >= 0 {
		lines[i].Quantity += n
		return lines
	}
	line.Quantity = n
	line.Priority = len(lines) + 1
	return append(lines, line)
}

// renumber sets priorities to the 1-based loading order.
func renumber(lines []model.Content) {
	for i := range lines {
		lines[i].Priority = i + 1
	}
}

func labelOf(c model.Content) string {
	if c.Label != "" {
		return c.Label
	}
	return c.ProductID
}
