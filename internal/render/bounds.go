package render

import (
	"github.com/pageflip/pageflip/internal/geom"
	"github.com/pageflip/pageflip/internal/page"
	"github.com/pageflip/pageflip/internal/settings"
)

// BoundsRect is the book's pixel geometry inside its container. Width covers both pages in
// landscape mode and the single page in portrait mode.
type BoundsRect struct {
	Left      float64 `json:"left"`
	Top       float64 `json:"top"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	PageWidth float64 `json:"pageWidth"`
}

// Rect returns the bounds as a plain rectangle.
func (b BoundsRect) Rect() geom.Rect {
	return geom.Rect{X: b.Left, Y: b.Top, Width: b.Width, Height: b.Height}
}

// Polygon returns the bounds corners clockwise from the top left.
func (b BoundsRect) Polygon() []geom.Point {
	return []geom.Point{
		{X: b.Left, Y: b.Top},
		{X: b.Left + b.Width, Y: b.Top},
		{X: b.Left + b.Width, Y: b.Top + b.Height},
		{X: b.Left, Y: b.Top + b.Height},
	}
}

// ComputeBounds centres the book in a containerW x containerH box and picks the display
// mode. Fixed books switch to portrait when two pages do not fit; stretched books when the
// container is narrower than two minimum-width pages. A stretched page never shrinks below
// MinHeight, even if the book then overflows the container.
func ComputeBounds(s settings.Settings, containerW, containerH float64) (BoundsRect, page.Mode) {
	mode := page.Landscape
	pw, ph := s.Width, s.Height

	if s.Size == settings.SizeStretch && containerW > 0 && containerH > 0 {
		if containerW < s.MinWidth*2 && s.UsePortrait {
			mode = page.Portrait
		}
		ratio := s.Ratio()
		pw = containerW / 2
		if mode == page.Portrait {
			pw = containerW
		}
		if s.MaxWidth > 0 && pw > s.MaxWidth {
			pw = s.MaxWidth
		}
		ph = pw * ratio
		if s.MaxHeight > 0 && ph > s.MaxHeight {
			ph = s.MaxHeight
			pw = ph / ratio
		}
		if ph > containerH {
			ph = containerH
			pw = ph / ratio
		}
		if ph < s.MinHeight {
			ph = s.MinHeight
			pw = ph / ratio
		}
	} else if containerW < pw*2 && s.UsePortrait {
		mode = page.Portrait
	}

	width := pw * 2
	if mode == page.Portrait {
		width = pw
	}
	return BoundsRect{
		Left:      containerW/2 - width/2,
		Top:       containerH/2 - ph/2,
		Width:     width,
		Height:    ph,
		PageWidth: pw,
	}, mode
}
