// Package viewport models the client viewport the loader measures cards
// against. Bounds are derived from a card's slot in the layout, never from
// a rendered presentation tree.
package viewport

import (
	"math"
	"sync"
)

// Rect is a card's bounding rectangle relative to the top of the viewport.
type Rect struct {
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
}

// Viewport answers the geometric queries the loader needs.
type Viewport interface {
	// Height is the current viewport height.
	Height() float64
	// Bounds returns the rectangle of the card laid out at slot.
	Bounds(slot int) Rect
}

// GridConfig describes the responsive card grid.
type GridConfig struct {
	Width            float64
	Height           float64
	CardHeight       float64
	Gap              float64
	Top              float64 // offset of the first row from the document top
	MinColumnWidth   float64
	MobileBreakpoint float64
}

// Grid is a headless responsive grid: columns are derived from the width,
// rows from the slot, and everything is shifted by the scroll offset.
type Grid struct {
	mu       sync.RWMutex
	cfg      GridConfig
	scrollY  float64
	onChange func()
}

// NewGrid creates a grid at scroll offset zero.
func NewGrid(cfg GridConfig) *Grid {
	return &Grid{cfg: cfg}
}

// Subscribe registers fn to be called after every scroll or resize.
// Callers wrap fn in a throttle.
func (g *Grid) Subscribe(fn func()) {
	g.mu.Lock()
	g.onChange = fn
	g.mu.Unlock()
}

// Scroll moves the viewport to document offset y.
func (g *Grid) Scroll(y float64) {
	g.mu.Lock()
	g.scrollY = math.Max(0, y)
	fn := g.onChange
	g.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Resize changes the viewport dimensions. Non-positive values keep the
// current dimension.
func (g *Grid) Resize(width, height float64) {
	g.mu.Lock()
	if width > 0 {
		g.cfg.Width = width
	}
	if height > 0 {
		g.cfg.Height = height
	}
	fn := g.onChange
	g.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Report applies a scroll offset and dimensions in one step with a single
// change notification.
func (g *Grid) Report(scrollY, width, height float64) {
	g.mu.Lock()
	g.scrollY = math.Max(0, scrollY)
	if width > 0 {
		g.cfg.Width = width
	}
	if height > 0 {
		g.cfg.Height = height
	}
	fn := g.onChange
	g.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Height returns the viewport height.
func (g *Grid) Height() float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.cfg.Height
}

// State returns the current scroll offset and dimensions.
func (g *Grid) State() (scrollY, width, height float64) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.scrollY, g.cfg.Width, g.cfg.Height
}

// Columns returns the number of grid columns for the current width.
func (g *Grid) Columns() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.columns()
}

func (g *Grid) columns() int {
	c := g.cfg
	if c.Width <= c.MobileBreakpoint || c.MinColumnWidth <= 0 {
		return 1
	}
	n := int((c.Width + c.Gap) / (c.MinColumnWidth + c.Gap))
	if n < 1 {
		n = 1
	}
	return n
}

// Bounds returns the rectangle of the card at slot.
func (g *Grid) Bounds(slot int) Rect {
	g.mu.RLock()
	defer g.mu.RUnlock()
	row := slot / g.columns()
	top := g.cfg.Top + float64(row)*(g.cfg.CardHeight+g.cfg.Gap) - g.scrollY
	return Rect{Top: top, Bottom: top + g.cfg.CardHeight}
}
