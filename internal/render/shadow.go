package render

import (
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/pageflip/pageflip/internal/geom"
)

// ShadowData is the shadow cast by the page being turned, in page-local space.
type ShadowData struct {
	geom.Shadow
	Direction geom.Direction
}

// Stop is one colour stop of a shadow gradient.
type Stop struct {
	Offset float64
	Color  colorful.Color
	Alpha  float64
}

// CSS formats the stop colour as an rgba() value.
func (s Stop) CSS() string {
	r, g, b := s.Color.RGB255()
	return fmt.Sprintf("rgba(%d, %d, %d, %.4g)", r, g, b, s.Alpha)
}

// Gradient is a linear gradient between two screen points.
type Gradient struct {
	From  geom.Point
	To    geom.Point
	Stops []Stop
}

// SetShadowData records the shadow for a fold whose shadow line starts at pos (page-local)
// at angle, progress in [0, 100].
func (r *Render) SetShadowData(pos geom.Point, angle, progress float64, dir geom.Direction) {
	r.shadow = &ShadowData{
		Shadow:    geom.ShadowGeometry(pos, angle, r.rect.PageWidth, progress, r.settings.MaxShadowOpacity),
		Direction: dir,
	}
}

// ClearShadow removes the shadow.
func (r *Render) ClearShadow() {
	r.shadow = nil
	r.pageRect = nil
}

// Shadow returns the current shadow, or nil.
func (r *Render) Shadow() *ShadowData { return r.shadow }

func (r *Render) shadowColour() colorful.Color {
	c, err := colorful.Hex(r.shadowColor)
	if err != nil {
		r.log.Warn("parse shadow colour", "colour", r.shadowColor, "error", err)
		return colorful.Color{}
	}
	return c
}

func (r *Render) stops(offsets, alphas []float64) []Stop {
	c := r.shadowColour()
	out := make([]Stop, len(offsets))
	for i := range offsets {
		out[i] = Stop{Offset: offsets[i], Color: c, Alpha: alphas[i]}
	}
	return out
}

// softShadows returns the outer gradient cast on the revealed page and the inner gradient on
// the turning page near the fold.
func (r *Render) softShadows(out geom.Matrix2D) []Layer {
	s := r.shadow
	reach := math.Hypot(r.rect.Width, r.rect.Height)
	origin := r.canonicalFromPage(s.Direction).Apply(s.Pos)
	frame := out.Multiply(geom.Translate(origin.X, origin.Y)).Multiply(geom.Rotate(s.Angle))

	outer := Layer{
		Kind:  LayerShadow,
		Role:  RoleOuterShadow,
		Shape: frame.ApplyAll(strip(0, s.Width, reach)),
		Clip:  r.screenPolygon(r.rect.Polygon()),
		Gradient: &Gradient{
			From:  frame.Apply(geom.Point{}),
			To:    frame.Apply(geom.Pt(s.Width, 0)),
			Stops: r.stops([]float64{0, 1}, []float64{s.Opacity, 0}),
		},
	}

	inner := s.Width * 3 / 4
	layers := []Layer{outer}
	if r.pageRect != nil {
		layers = append(layers, Layer{
			Kind:  LayerShadow,
			Role:  RoleInnerShadow,
			Shape: frame.ApplyAll(strip(-inner, 0, reach)),
			Clip:  r.RectToGlobal(*r.pageRect, s.Direction).Polygon(),
			Gradient: &Gradient{
				From: frame.Apply(geom.Point{}),
				To:   frame.Apply(geom.Pt(-inner, 0)),
				Stops: r.stops(
					[]float64{0.05, 0.15, 0.35, 1},
					[]float64{s.Opacity, 0.05, s.Opacity, 0},
				),
			},
		})
	}
	return layers
}

// hardShadows returns the gradients cast from the spine across the side a hard page is
// turning over.
func (r *Render) hardShadows(out geom.Matrix2D) []Layer {
	s := r.shadow
	p2 := s.Progress * 2
	p := p2
	if p > 100 {
		p = 200 - p
	}
	size := math.Min((100-p)*(2.5*r.rect.PageWidth)/100+20, r.rect.PageWidth)

	spine := r.rect.Left + r.spineX()
	sign := 1.0
	if (s.Direction == geom.Forward && p2 > 100) || (s.Direction == geom.Back && p2 <= 100) {
		sign = -1
	}
	far := spine + sign*size
	shape := out.ApplyAll([]geom.Point{
		{X: spine, Y: r.rect.Top},
		{X: far, Y: r.rect.Top},
		{X: far, Y: r.rect.Top + r.rect.Height},
		{X: spine, Y: r.rect.Top + r.rect.Height},
	})
	from, to := out.Apply(geom.Pt(spine, r.rect.Top)), out.Apply(geom.Pt(far, r.rect.Top))

	return []Layer{
		{
			Kind:     LayerShadow,
			Role:     RoleOuterShadow,
			Shape:    shape,
			Gradient: &Gradient{From: from, To: to, Stops: r.stops([]float64{0, 1}, []float64{s.Opacity, 0})},
		},
		{
			Kind:     LayerShadow,
			Role:     RoleInnerShadow,
			Shape:    shape,
			Gradient: &Gradient{From: from, To: to, Stops: r.stops([]float64{0.05, 1}, []float64{s.Opacity * p / 100, 0})},
		},
	}
}

// strip is a band between x0 and x1 reaching far enough either way along y to cross the
// whole book at any angle.
func strip(x0, x1, reach float64) []geom.Point {
	return []geom.Point{{X: x0, Y: -reach}, {X: x1, Y: -reach}, {X: x1, Y: reach}, {X: x0, Y: reach}}
}
