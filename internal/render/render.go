// Package render turns the state of a book into something drawable. It owns the animation
// scheduler, the book's bounds and display mode, conversions between screen, book and page
// coordinates, shadow parameters, and the per-tick scene snapshot that draw commands and
// raster previews are produced from.
package render

import (
	"log/slog"
	"time"

	"github.com/pageflip/pageflip/internal/geom"
	"github.com/pageflip/pageflip/internal/logging"
	"github.com/pageflip/pageflip/internal/page"
	"github.com/pageflip/pageflip/internal/settings"
)

// Option configures a Render.
type Option func(*Render)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(r *Render) { r.log = logging.OrNop(l) }
}

// WithClock sets the clock animations are timed against.
func WithClock(c Clock) Option {
	return func(r *Render) { r.clock = c }
}

// WithShadowColor sets the shadow colour as a hex string.
func WithShadowColor(hex string) Option {
	return func(r *Render) { r.shadowColor = hex }
}

// Render holds the drawable state of one book.
type Render struct {
	settings    settings.Settings
	log         *slog.Logger
	clock       Clock
	sched       *Scheduler
	shadowColor string

	containerW, containerH float64
	rect                   BoundsRect
	mode                   page.Mode
	measured               bool
	onOrientation          func(page.Mode)

	direction geom.Direction

	left, right      *page.Page
	flipping, bottom *page.Page
	pageRect         *geom.RectPoints
	shadow           *ShadowData
}

// New returns a renderer for a book configured by s.
func New(s settings.Settings, opts ...Option) *Render {
	r := &Render{
		settings:    s,
		log:         logging.Nop(),
		clock:       SystemClock{},
		shadowColor: "#000000",
	}
	for _, opt := range opts {
		opt(r)
	}
	r.sched = NewScheduler(r.clock)
	return r
}

// OnOrientationChange registers fn to run whenever the display mode changes.
func (r *Render) OnOrientationChange(fn func(page.Mode)) { r.onOrientation = fn }

// Resize records a new container size and recomputes the bounds. It returns the display
// mode, notifying the orientation callback when the mode changed.
func (r *Render) Resize(containerW, containerH float64) page.Mode {
	r.containerW, r.containerH = containerW, containerH
	return r.update()
}

func (r *Render) update() page.Mode {
	rect, mode := ComputeBounds(r.settings, r.containerW, r.containerH)
	r.rect = rect
	if !r.measured || mode != r.mode {
		prev := r.mode
		r.mode = mode
		r.measured = true
		r.log.Debug("orientation changed", "from", prev, "to", mode, "width", rect.Width, "height", rect.Height)
		if r.onOrientation != nil {
			r.onOrientation(mode)
		}
	}
	return r.mode
}

// Tick recomputes the bounds and advances the running animation to now.
func (r *Render) Tick(now time.Time) {
	r.update()
	r.sched.Tick(now)
}

// StartAnimation runs anim over duration, finishing any animation already running.
func (r *Render) StartAnimation(anim Animation, duration time.Duration, done func()) {
	r.sched.Start(anim, duration, done)
}

// FinishAnimation jumps the running animation, if any, to its end.
func (r *Render) FinishAnimation() { r.sched.Finish() }

// Animating reports whether an animation is running.
func (r *Render) Animating() bool { return r.sched.Active() }

func (r *Render) Rect() BoundsRect            { return r.rect }
func (r *Render) Mode() page.Mode             { return r.mode }
func (r *Render) Settings() settings.Settings { return r.settings }

func (r *Render) Direction() geom.Direction     { return r.direction }
func (r *Render) SetDirection(d geom.Direction) { r.direction = d }

// SetVisible sets the pages drawn statically for the current spread.
func (r *Render) SetVisible(left, right *page.Page) {
	if left != nil {
		left.SetOrientation(page.Left)
	}
	if right != nil {
		right.SetOrientation(page.Right)
	}
	r.left, r.right = left, right
}

// Visible returns the static pages.
func (r *Render) Visible() (left, right *page.Page) { return r.left, r.right }

// SetFlippingPage sets the page being turned, or clears it with nil.
func (r *Render) SetFlippingPage(p *page.Page) {
	if p != nil {
		o := page.Right
		if r.direction == geom.Forward && r.mode != page.Portrait {
			o = page.Left
		}
		p.SetOrientation(o)
	}
	r.flipping = p
}

// SetBottomPage sets the page revealed by the turn, or clears it with nil.
func (r *Render) SetBottomPage(p *page.Page) {
	if p != nil {
		o := page.Right
		if r.direction == geom.Back {
			o = page.Left
		}
		p.SetOrientation(o)
	}
	r.bottom = p
}

// SetPageRect sets the folded rectangle, page-local, the inner soft shadow is clipped to.
func (r *Render) SetPageRect(rect geom.RectPoints) { r.pageRect = &rect }

// spineX is the spine position in book-local space.
func (r *Render) spineX() float64 {
	if r.mode == page.Portrait {
		return 0
	}
	return r.rect.PageWidth
}

// screenFromBook maps book-local points to the screen, mirroring about the book's centre
// line for right-to-left books.
func (r *Render) screenFromBook() geom.Matrix2D {
	m := geom.Translate(r.rect.Left, r.rect.Top)
	if r.settings.RTL {
		m = r.mirror().Multiply(m)
	}
	return m
}

func (r *Render) mirror() geom.Matrix2D {
	return geom.Translate(2*r.rect.Left+r.rect.Width, 0).Multiply(geom.Scale(-1, 1))
}

// bookFromPage maps page-local points of a flip in direction dir to book-local space.
func (r *Render) bookFromPage(dir geom.Direction) geom.Matrix2D {
	m := geom.Translate(r.spineX(), 0)
	if dir == geom.Back {
		m = m.Multiply(geom.Scale(-1, 1))
	}
	return m
}

// ToBook converts a screen point to book-local space.
func (r *Render) ToBook(screen geom.Point) geom.Point {
	return r.screenFromBook().Invert().Apply(screen)
}

// BookToScreen converts a book-local point to the screen.
func (r *Render) BookToScreen(book geom.Point) geom.Point {
	return r.screenFromBook().Apply(book)
}

// ToPage converts a screen point to the page-local space of a flip in direction dir.
func (r *Render) ToPage(screen geom.Point, dir geom.Direction) geom.Point {
	return r.screenFromPage(dir).Invert().Apply(screen)
}

// ToGlobal converts a page-local point of a flip in direction dir to the screen.
func (r *Render) ToGlobal(local geom.Point, dir geom.Direction) geom.Point {
	return r.screenFromPage(dir).Apply(local)
}

// RectToGlobal converts the corners of a page-local rectangle to the screen.
func (r *Render) RectToGlobal(rect geom.RectPoints, dir geom.Direction) geom.RectPoints {
	m := r.screenFromPage(dir)
	return geom.RectPoints{
		TopLeft:     m.Apply(rect.TopLeft),
		TopRight:    m.Apply(rect.TopRight),
		BottomLeft:  m.Apply(rect.BottomLeft),
		BottomRight: m.Apply(rect.BottomRight),
	}
}

func (r *Render) screenFromPage(dir geom.Direction) geom.Matrix2D {
	return r.screenFromBook().Multiply(r.bookFromPage(dir))
}
