package render

import (
	"fmt"
	"hash/fnv"
	"image"

	"github.com/gogpu/gg"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/pageflip/pageflip/internal/geom"
	"github.com/pageflip/pageflip/internal/page"
)

// ImageSource resolves page handles to their content images.
type ImageSource interface {
	PageImage(h page.Handle) (image.Image, bool)
}

// ImageSourceFunc adapts a function to ImageSource.
type ImageSourceFunc func(page.Handle) (image.Image, bool)

func (f ImageSourceFunc) PageImage(h page.Handle) (image.Image, bool) { return f(h) }

var background = gg.RGBA{R: 0.93, G: 0.93, B: 0.93, A: 1}

// Rasterize paints a frame into an image the size of the frame's container. Pages without
// an image in src are filled with a flat colour derived from their handle.
func Rasterize(f Frame, src ImageSource) (image.Image, error) {
	w, h := int(f.Width), int(f.Height)
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("rasterize %dx%d frame: empty container", w, h)
	}

	dc := gg.NewContext(w, h)
	defer dc.Close()
	dc.ClearWithColor(background)

	if len(f.Clip) > 0 {
		tracePolygon(dc, f.Clip)
		dc.Clip()
	}

	for _, l := range f.Layers {
		dc.Push()
		if len(l.Clip) > 0 {
			tracePolygon(dc, l.Clip)
			dc.Clip()
		}

		switch l.Kind {
		case LayerPage:
			if img, ok := pageImage(src, l.Handle); ok && !l.Blank {
				layer := image.NewRGBA(image.Rect(0, 0, w, h))
				transformInto(layer, img, l.Transform, f.Bounds.PageWidth, f.Bounds.Height)
				dc.SetFillPattern(dc.CreateImagePattern(gg.ImageBufFromImage(layer), 0, 0, w, h))
			} else {
				dc.SetFillBrush(gg.Solid(paperColour(l.Handle, l.Blank)))
			}
		case LayerShadow:
			if l.Gradient == nil {
				dc.Pop()
				continue
			}
			g := l.Gradient
			brush := gg.NewLinearGradientBrush(g.From.X, g.From.Y, g.To.X, g.To.Y)
			for _, s := range g.Stops {
				brush.AddColorStop(s.Offset, gg.RGBA{R: s.Color.R, G: s.Color.G, B: s.Color.B, A: s.Alpha})
			}
			dc.SetFillBrush(brush)
		}

		tracePolygon(dc, l.Shape)
		err := dc.Fill()
		dc.Pop()
		if err != nil {
			return nil, fmt.Errorf("fill %s layer: %w", l.Role, err)
		}
	}
	return dc.Image(), nil
}

func pageImage(src ImageSource, h page.Handle) (image.Image, bool) {
	if src == nil || h == "" {
		return nil, false
	}
	return src.PageImage(h)
}

func tracePolygon(dc *gg.Context, polygon []geom.Point) {
	dc.ClearPath()
	for i, p := range polygon {
		if i == 0 {
			dc.MoveTo(p.X, p.Y)
			continue
		}
		dc.LineTo(p.X, p.Y)
	}
	dc.ClosePath()
}

// transformInto draws img stretched over the page rectangle and mapped by m into dst.
func transformInto(dst *image.RGBA, img image.Image, m geom.Matrix2D, pageW, pageH float64) {
	b := img.Bounds()
	fit := m.Multiply(geom.Scale(pageW/float64(b.Dx()), pageH/float64(b.Dy()))).
		Multiply(geom.Translate(-float64(b.Min.X), -float64(b.Min.Y)))
	aff := f64.Aff3{fit[0], fit[2], fit[4], fit[1], fit[3], fit[5]}
	draw.BiLinear.Transform(dst, aff, img, b, draw.Over, nil)
}

// paperColour picks a light colour per handle so pages without images stay distinguishable.
func paperColour(h page.Handle, blank bool) gg.RGBA {
	if blank || h == "" {
		return gg.RGBA{R: 1, G: 1, B: 1, A: 1}
	}
	hash := fnv.New32a()
	hash.Write([]byte(h))
	c := colorful.Hsv(float64(hash.Sum32()%360), 0.18, 0.97)
	return gg.RGBA{R: c.R, G: c.G, B: c.B, A: 1}
}
