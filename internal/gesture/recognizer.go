// Package gesture turns raw pointer sequences into flip controller calls: drags fold the
// page, quick horizontal releases swipe, short presses tap, and vertical drags are left to
// the host to scroll.
package gesture

import (
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/pageflip/pageflip/internal/geom"
	"github.com/pageflip/pageflip/internal/logging"
	"github.com/pageflip/pageflip/internal/render"
	"github.com/pageflip/pageflip/internal/settings"
)

const (
	// foldDistance is how far a pointer travels before a press becomes a drag.
	foldDistance = 5
	// tapTimeout bounds how long a press may last and still count as a tap.
	tapTimeout = time.Second
)

// Axis is the primary direction of a pointer sequence.
type Axis int

const (
	AxisNone Axis = iota
	AxisHorizontal
	AxisVertical
)

func (a Axis) String() string {
	switch a {
	case AxisHorizontal:
		return "horizontal"
	case AxisVertical:
		return "vertical"
	default:
		return "none"
	}
}

// Classify resolves the primary axis of a movement of delta. It stays AxisNone until the
// movement exceeds threshold on either axis; then the sequence is horizontal when the
// horizontal travel beats the vertical travel scaled by tolerance.
func Classify(delta geom.Point, threshold, tolerance float64) Axis {
	dx, dy := math.Abs(delta.X), math.Abs(delta.Y)
	if dx <= threshold && dy <= threshold {
		return AxisNone
	}
	if dx > dy*tolerance {
		return AxisHorizontal
	}
	return AxisVertical
}

// Kind is what a pointer event was recognised as.
type Kind int

const (
	None Kind = iota
	Ignored
	Fold
	Scroll
	Swipe
	Release
	Tap
	Hover
)

func (k Kind) String() string {
	switch k {
	case Ignored:
		return "ignored"
	case Fold:
		return "fold"
	case Scroll:
		return "scroll"
	case Swipe:
		return "swipe"
	case Release:
		return "release"
	case Tap:
		return "tap"
	case Hover:
		return "hover"
	default:
		return "none"
	}
}

// Result tells the host what happened to an event and whether to suppress its default
// handling, such as page scroll.
type Result struct {
	Kind           Kind
	PreventDefault bool
}

// Target is the element a pointer-down landed on.
type Target interface {
	// Interactive reports whether the element handles pointer input itself.
	Interactive() bool
}

// Element is a Target named by its tag.
type Element string

func (e Element) Interactive() bool {
	switch strings.ToLower(string(e)) {
	case "a", "button", "input", "select", "textarea", "label":
		return true
	}
	return false
}

// Event is one pointer sample in screen coordinates.
type Event struct {
	Pos    geom.Point
	Time   time.Time
	Touch  bool
	Target Target
}

// Flipper is what gestures drive; the flip controller implements it.
type Flipper interface {
	Fold(pos geom.Point)
	Flip(pos geom.Point)
	StopMove()
	ShowCorner(pos geom.Point)
	FlipNext(corner geom.Corner) bool
	FlipPrev(corner geom.Corner) bool
}

// Layout locates the book on screen.
type Layout interface {
	Rect() render.BoundsRect
	ToBook(screen geom.Point) geom.Point
}

// track is the state of one pointer sequence, from down to up.
type track struct {
	start   geom.Point
	at      time.Time
	touch   bool
	samples int
	axis    Axis
	folding bool
}

// Option configures a Recognizer.
type Option func(*Recognizer)

func WithLogger(l *slog.Logger) Option {
	return func(r *Recognizer) { r.log = l }
}

// Recognizer classifies pointer sequences for one book.
type Recognizer struct {
	swipe             settings.Swipe
	ignoreInteractive bool
	rtl               bool

	flipper Flipper
	layout  Layout
	log     *slog.Logger

	cur *track
}

// New creates a recognizer driving f.
func New(s settings.Settings, f Flipper, l Layout, opts ...Option) *Recognizer {
	r := &Recognizer{
		swipe:             s.Swipe,
		ignoreInteractive: s.IgnoreInteractive,
		rtl:               s.RTL,
		flipper:           f,
		layout:            l,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = logging.OrNop(r.log)
	return r
}

// Active reports whether a pointer sequence is in progress.
func (r *Recognizer) Active() bool { return r.cur != nil }

// Axis is the primary axis of the sequence in progress.
func (r *Recognizer) Axis() Axis {
	if r.cur == nil {
		return AxisNone
	}
	return r.cur.axis
}

// Down begins a sequence. Presses on interactive elements are left alone when so
// configured.
func (r *Recognizer) Down(ev Event) Result {
	if r.ignoreInteractive && ev.Target != nil && ev.Target.Interactive() {
		r.cur = nil
		return Result{Kind: Ignored}
	}
	r.cur = &track{start: ev.Pos, at: ev.Time, touch: ev.Touch}
	return Result{}
}

// Move continues the sequence. Without one, a mouse move is a hover.
func (r *Recognizer) Move(ev Event) Result {
	t := r.cur
	if t == nil {
		if ev.Touch {
			return Result{}
		}
		return r.Hover(ev.Pos)
	}
	t.samples++

	if t.axis != AxisVertical {
		if axis := Classify(ev.Pos.Sub(t.start), r.swipe.DirectionThreshold, r.swipe.VerticalTolerance); axis != AxisNone {
			t.axis = axis
		}
	}

	switch t.axis {
	case AxisNone:
		return Result{}
	case AxisVertical:
		if t.folding {
			r.log.Debug("gesture scroll cancels fold", "samples", t.samples)
			t.folding = false
			r.flipper.StopMove()
		}
		return Result{Kind: Scroll}
	}

	// Touches wait out the swipe window before folding so a quick swipe never lifts the page.
	if t.touch && !t.folding && ev.Time.Sub(t.at) < r.swipe.Timeout.Duration {
		return Result{PreventDefault: true}
	}
	if !t.folding && ev.Pos.Distance(t.start) <= foldDistance {
		return Result{PreventDefault: true}
	}
	t.folding = true
	r.flipper.Fold(ev.Pos)
	return Result{Kind: Fold, PreventDefault: true}
}

// Up ends the sequence: a swipe flips, a drag is released, a short press taps.
func (r *Recognizer) Up(ev Event) Result {
	t := r.cur
	r.cur = nil
	if t == nil {
		return Result{}
	}

	elapsed := ev.Time.Sub(t.at)
	if t.axis != AxisVertical && r.isSwipe(t, ev.Pos, elapsed) {
		corner := r.cornerAt(t.start)
		next := ev.Pos.X < t.start.X
		if r.rtl {
			next = !next
		}
		r.log.Debug("gesture swipe", "next", next, "corner", corner, "elapsed", elapsed)
		if next {
			r.flipper.FlipNext(corner)
		} else {
			r.flipper.FlipPrev(corner)
		}
		return Result{Kind: Swipe, PreventDefault: true}
	}

	switch {
	case t.axis == AxisVertical:
		return Result{Kind: Scroll}
	case t.folding:
		r.flipper.StopMove()
		return Result{Kind: Release, PreventDefault: true}
	case ev.Pos.Distance(t.start) <= foldDistance && elapsed < tapTimeout:
		r.flipper.Flip(ev.Pos)
		return Result{Kind: Tap}
	}
	return Result{}
}

// Cancel abandons the sequence, releasing any fold.
func (r *Recognizer) Cancel() Result {
	t := r.cur
	r.cur = nil
	if t == nil || !t.folding {
		return Result{}
	}
	r.flipper.StopMove()
	return Result{Kind: Release}
}

// Hover lets a corner curl under a pointer that is not pressed.
func (r *Recognizer) Hover(pos geom.Point) Result {
	if r.cur != nil {
		return Result{}
	}
	r.flipper.ShowCorner(pos)
	return Result{Kind: Hover}
}

func (r *Recognizer) isSwipe(t *track, pos geom.Point, elapsed time.Duration) bool {
	dx := math.Abs(pos.X - t.start.X)
	dy := math.Abs(pos.Y - t.start.Y)
	return dx > r.swipe.Distance && dy < 2*r.swipe.Distance && elapsed < r.swipe.Timeout.Duration
}

func (r *Recognizer) cornerAt(screen geom.Point) geom.Corner {
	if r.layout.ToBook(screen).Y < r.layout.Rect().Height/2 {
		return geom.CornerTop
	}
	return geom.CornerBottom
}
