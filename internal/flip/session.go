package flip

import (
	"github.com/pageflip/pageflip/internal/geom"
	"github.com/pageflip/pageflip/internal/page"
)

// session holds the pages taking part in one flip. Pages whose drawing density it forces
// to hard are restored by release, so a coerced page never outlives the flip.
type session struct {
	flipping *page.Page
	bottom   *page.Page
	coerced  []*page.Page
}

// newSession picks the pages for a flip in dir, or returns false when there is nothing to
// turn. In landscape a turning page whose back differs in density from its front is drawn
// hard together with the page it is bound to.
func newSession(pages Pages, mode page.Mode, dir geom.Direction) (*session, bool) {
	s := &session{
		flipping: pages.FlippingPage(dir),
		bottom:   pages.BottomPage(dir),
	}
	if s.flipping == nil || s.bottom == nil {
		return nil, false
	}
	if mode != page.Landscape {
		return s, true
	}

	bound := pages.PrevBy(s.flipping)
	if dir == geom.Back {
		bound = pages.NextBy(s.flipping)
	}
	if bound != nil && bound.Density() != s.flipping.Density() {
		s.coerce(s.flipping, bound)
	}
	return s, true
}

func (s *session) coerce(pages ...*page.Page) {
	for _, p := range pages {
		p.SetDrawingDensity(page.Hard)
		s.coerced = append(s.coerced, p)
	}
}

func (s *session) hard() bool {
	return s.flipping.DrawingDensity() == page.Hard
}

func (s *session) release() {
	for _, p := range s.coerced {
		p.ClearDrawingDensity()
	}
	s.coerced = nil
	s.flipping.ResetState()
	s.bottom.ResetState()
}
