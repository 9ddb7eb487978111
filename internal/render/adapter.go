// Package render is the rendering adapter: it keeps per-unit visual state
// keyed by stable unit id, owns the colour pool and raises a needs-render
// flag from store events so a renderer only redraws when something changed.
// It holds no placement logic and never mutates the store.
package render

import (
	"sort"

	"github.com/piwi3910/TruckLoad/internal/model"
	"github.com/piwi3910/TruckLoad/internal/placement"
)

// Visual is what a renderer needs to draw one active unit.
type Visual struct {
	UnitID   string
	Box      model.Box
	Color    Color
	Selected bool
	Dragging bool
	Forced   bool
}

// Adapter mirrors the active units of a store.
type Adapter struct {
	store   *placement.Store
	pool    *ColorPool
	visuals map[string]Visual
	dirty   bool
	frames  int
	detach  func()
}

// NewAdapter creates an adapter with the default palette.
func NewAdapter() *Adapter {
	return &Adapter{
		pool:    NewColorPool(nil),
		visuals: make(map[string]Visual),
	}
}

// Attach subscribes to store and mirrors its current state. Attaching again
// detaches from the previous store.
func (a *Adapter) Attach(store *placement.Store) {
	a.Detach()
	a.store = store
	a.detach = store.Subscribe(a.handle)
	a.sync()
}

// Detach stops following the store.
func (a *Adapter) Detach() {
	if a.detach != nil {
		a.detach()
		a.detach = nil
	}
}

// Pool exposes the colour pool.
func (a *Adapter) Pool() *ColorPool { return a.pool }

// NeedsRender reports whether a frame should be drawn.
func (a *Adapter) NeedsRender() bool { return a.dirty }

// Invalidate forces the next frame, e.g. after a camera move.
func (a *Adapter) Invalidate() { a.dirty = true }

// Frames returns the number of frames drawn.
func (a *Adapter) Frames() int { return a.frames }

// Visual returns the visual of an active unit.
func (a *Adapter) Visual(id string) (Visual, bool) {
	v, ok := a.visuals[id]
	return v, ok
}

// Frame calls draw with the visuals ordered by id when a render is pending
// and clears the flag. It reports whether draw ran.
func (a *Adapter) Frame(draw func([]Visual)) bool {
	if !a.dirty {
		return false
	}
	vs := make([]Visual, 0, len(a.visuals))
	for _, v := range a.visuals {
		vs = append(vs, v)
	}
	sort.Slice(vs, func(i, j int) bool { return vs[i].UnitID < vs[j].UnitID })
	if draw != nil {
		draw(vs)
	}
	a.dirty = false
	a.frames++
	return true
}

func (a *Adapter) handle(e placement.Event) {
	switch e.Kind {
	case placement.EventReset:
		a.sync()
		return
	case placement.EventRemoved:
		a.pool.Release(e.UnitID)
		delete(a.visuals, e.UnitID)
	case placement.EventChanged:
		a.refreshSelection()
		if _, ok := a.visuals[e.UnitID]; ok {
			a.put(e.Unit)
		}
	default:
		a.put(e.Unit)
	}
	a.dirty = true
}

func (a *Adapter) put(u model.Unit) {
	if a.store != nil && a.store.IsRemoved(u.ID) {
		return
	}
	a.visuals[u.ID] = Visual{
		UnitID:   u.ID,
		Box:      u.Box(),
		Color:    a.pool.Acquire(u.ID, u.Group),
		Selected: a.store != nil && a.store.Selection() == u.ID,
		Dragging: u.Dragging,
		Forced:   u.ForcePlaced,
	}
}

func (a *Adapter) refreshSelection() {
	sel := a.store.Selection()
	for id, v := range a.visuals {
		v.Selected = id == sel
		a.visuals[id] = v
	}
}

func (a *Adapter) sync() {
	a.pool.Reset()
	a.visuals = make(map[string]Visual)
	for _, u := range a.store.Active() {
		a.put(u)
	}
	a.dirty = true
}
