package render

import (
	"math"

	"github.com/pageflip/pageflip/internal/geom"
	"github.com/pageflip/pageflip/internal/page"
)

// LayerKind distinguishes page content from shadow overlays.
type LayerKind string

const (
	LayerPage   LayerKind = "page"
	LayerShadow LayerKind = "shadow"
)

// Role names the part a layer plays in the frame.
type Role string

const (
	RoleLeft        Role = "left"
	RoleRight       Role = "right"
	RoleBottom      Role = "bottom"
	RoleCompanion   Role = "companion"
	RoleFlipping    Role = "flipping"
	RoleOuterShadow Role = "outer-shadow"
	RoleInnerShadow Role = "inner-shadow"
)

// Layer is one item of a frame in screen space.
type Layer struct {
	Kind    LayerKind
	Role    Role
	Handle  page.Handle
	Blank   bool
	Density page.Density

	// Transform maps page image space, (0,0)-(pageWidth,height), to the screen.
	Transform geom.Matrix2D
	// Shape is the polygon the layer covers before clipping.
	Shape []geom.Point
	// Clip restricts drawing to a polygon. Nil draws the whole shape.
	Clip     []geom.Point
	Gradient *Gradient
}

// Frame is a snapshot of everything to draw for one tick, in painter's order.
type Frame struct {
	Width  float64
	Height float64
	Bounds BoundsRect
	Mode   page.Mode
	RTL    bool
	// Clip bounds the whole frame in portrait mode, hiding the page half off-screen.
	Clip   []geom.Point
	Layers []Layer
}

// canonicalFromPage maps page-local points to left-to-right screen space, before any mirror.
func (r *Render) canonicalFromPage(dir geom.Direction) geom.Matrix2D {
	return geom.Translate(r.rect.Left, r.rect.Top).Multiply(r.bookFromPage(dir))
}

// output maps left-to-right screen space to the screen.
func (r *Render) output() geom.Matrix2D {
	if r.settings.RTL {
		return r.mirror()
	}
	return geom.Identity()
}

// unmirror keeps page content readable in a mirrored book.
func (r *Render) unmirror() geom.Matrix2D {
	if r.settings.RTL {
		return geom.Translate(r.rect.PageWidth, 0).Multiply(geom.Scale(-1, 1))
	}
	return geom.Identity()
}

func (r *Render) screenPolygon(canonical []geom.Point) []geom.Point {
	return r.output().ApplyAll(canonical)
}

// Frame snapshots the current state for drawing.
func (r *Render) Frame() Frame {
	f := Frame{
		Width:  r.containerW,
		Height: r.containerH,
		Bounds: r.rect,
		Mode:   r.mode,
		RTL:    r.settings.RTL,
	}
	if r.mode == page.Portrait {
		f.Clip = r.screenPolygon(r.rect.Polygon())
	}

	hard := r.flipping != nil && r.flipping.DrawingDensity() == page.Hard
	var companion *page.Page
	if hard && r.mode == page.Landscape {
		companion = r.right
		if r.direction == geom.Back {
			companion = r.left
		}
	}

	if r.mode == page.Landscape && r.left != nil && r.left != companion {
		f.Layers = append(f.Layers, r.staticLayer(r.left, RoleLeft, page.Left))
	}
	if r.right != nil && r.right != companion {
		f.Layers = append(f.Layers, r.staticLayer(r.right, RoleRight, page.Right))
	}

	if r.bottom != nil && !(r.mode == page.Portrait && r.direction == geom.Back) {
		if hard {
			f.Layers = r.appendHard(f.Layers, r.bottom, RoleBottom, r.bottom.State.HardDrawingAngle)
		} else {
			f.Layers = append(f.Layers, r.softLayer(r.bottom, RoleBottom))
		}
	}

	if companion != nil {
		angle := r.flipping.State.HardAngle - 180
		if r.direction == geom.Back {
			angle = r.flipping.State.HardAngle + 180
		}
		f.Layers = r.appendHard(f.Layers, companion, RoleCompanion, angle)
	}

	if r.flipping != nil {
		if hard {
			f.Layers = r.appendHard(f.Layers, r.flipping, RoleFlipping, r.flipping.State.HardDrawingAngle)
		} else {
			f.Layers = append(f.Layers, r.softLayer(r.flipping, RoleFlipping))
		}
	}

	if r.shadow != nil && r.flipping != nil && r.settings.MaxShadowOpacity > 0 {
		if hard {
			f.Layers = append(f.Layers, r.hardShadows(r.output())...)
		} else {
			f.Layers = append(f.Layers, r.softShadows(r.output())...)
		}
	}
	return f
}

func (r *Render) pageLayer(p *page.Page, role Role, canonical geom.Matrix2D) Layer {
	m := r.output().Multiply(canonical).Multiply(r.unmirror())
	return Layer{
		Kind:      LayerPage,
		Role:      role,
		Handle:    p.Handle(),
		Blank:     p.IsBlank(),
		Density:   p.DrawingDensity(),
		Transform: m,
		Shape:     m.ApplyAll(r.pageCorners()),
	}
}

func (r *Render) pageCorners() []geom.Point {
	w, h := r.rect.PageWidth, r.rect.Height
	return []geom.Point{{X: 0, Y: 0}, {X: w, Y: 0}, {X: w, Y: h}, {X: 0, Y: h}}
}

// slot places a flat page on its half of the spread, left-to-right.
func (r *Render) slot(o page.Orientation) geom.Matrix2D {
	x := r.rect.Left + r.spineX()
	if o == page.Left {
		x -= r.rect.PageWidth
	}
	return geom.Translate(x, r.rect.Top)
}

func (r *Render) staticLayer(p *page.Page, role Role, o page.Orientation) Layer {
	return r.pageLayer(p, role, r.slot(o))
}

func (r *Render) softLayer(p *page.Page, role Role) Layer {
	pos := r.canonicalFromPage(r.direction).Apply(p.State.Position)
	l := r.pageLayer(p, role, geom.Translate(pos.X, pos.Y).Multiply(geom.Rotate(p.State.Angle)))
	if len(p.State.ClipArea) > 0 {
		l.Clip = r.screenFromPage(r.direction).ApplyAll(p.State.ClipArea)
	}
	return l
}

// appendHard adds p rotated rigidly by degrees about the spine. Pages turned edge-on or
// beyond are not drawn.
func (r *Render) appendHard(layers []Layer, p *page.Page, role Role, degrees float64) []Layer {
	cos := math.Cos(degrees * math.Pi / 180)
	if cos <= 1e-9 {
		return layers
	}
	spine := geom.Pt(r.rect.Left+r.spineX(), 0)
	m := geom.ScaleAbout(cos, 1, spine).Multiply(r.slot(p.Orientation()))
	return append(layers, r.pageLayer(p, role, m))
}
