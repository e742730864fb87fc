// Package page models the pages of a book and how they pair up into spreads.
package page

import "github.com/pageflip/pageflip/internal/geom"

// Handle identifies the content a host mounts on a page. The engine never looks inside it.
type Handle string

// Density is how a page behaves while it turns.
type Density int

const (
	// Soft pages bend along the fold line.
	Soft Density = iota
	// Hard pages rotate rigidly about the spine, like covers.
	Hard
)

func (d Density) String() string {
	if d == Hard {
		return "hard"
	}
	return "soft"
}

// ParseDensity accepts "soft" and "hard"; anything else is soft.
func ParseDensity(s string) Density {
	if s == "hard" {
		return Hard
	}
	return Soft
}

// Orientation is the half of the spread a page currently occupies.
type Orientation int

const (
	Left Orientation = iota
	Right
)

func (o Orientation) String() string {
	if o == Right {
		return "right"
	}
	return "left"
}

// Mode is the display mode of the book.
type Mode int

const (
	// Landscape shows two pages side by side.
	Landscape Mode = iota
	// Portrait shows a single page.
	Portrait
)

func (m Mode) String() string {
	if m == Portrait {
		return "portrait"
	}
	return "landscape"
}

func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// VisualState is what the renderer needs to draw a page for the current frame.
type VisualState struct {
	// Angle is the soft-fold rotation in radians.
	Angle float64
	// ClipArea is the visible polygon in book-local space. Empty means the full page.
	ClipArea []geom.Point
	// Position is where the page's top-left corner sits, page-local.
	Position geom.Point
	// HardAngle and HardDrawingAngle are rigid rotations in degrees.
	HardAngle        float64
	HardDrawingAngle float64
}

// Page is one page of a book.
type Page struct {
	handle         Handle
	density        Density
	drawingDensity *Density
	orientation    Orientation
	blank          bool
	copied         bool

	State VisualState
}

// New creates a page for handle.
func New(handle Handle, density Density) *Page {
	return &Page{handle: handle, density: density}
}

func (p *Page) Handle() Handle { return p.handle }

// Density is the page's own density.
func (p *Page) Density() Density { return p.density }

// DrawingDensity is the density used for the current frame. It differs from Density only
// while a flip forces a mixed pair to draw hard.
func (p *Page) DrawingDensity() Density {
	if p.drawingDensity != nil {
		return *p.drawingDensity
	}
	return p.density
}

// SetDrawingDensity overrides the drawing density until ClearDrawingDensity.
func (p *Page) SetDrawingDensity(d Density) {
	p.drawingDensity = &d
}

func (p *Page) ClearDrawingDensity() {
	p.drawingDensity = nil
}

func (p *Page) Orientation() Orientation     { return p.orientation }
func (p *Page) SetOrientation(o Orientation) { p.orientation = o }

// IsBlank reports whether p is the synthetic blank filler.
func (p *Page) IsBlank() bool { return p.blank }

// IsCopy reports whether p is a temporary copy made for a single-page flip.
func (p *Page) IsCopy() bool { return p.copied }

// TemporaryCopy returns a page with the same content and density and a fresh visual state.
// Portrait forward flips turn a copy so the original can stay in place underneath.
func (p *Page) TemporaryCopy() *Page {
	return &Page{
		handle:      p.handle,
		density:     p.density,
		orientation: p.orientation,
		blank:       p.blank,
		copied:      true,
	}
}

// ResetState drops any fold geometry so the page draws flat.
func (p *Page) ResetState() {
	p.State = VisualState{}
}
