// Package flip drives page turns: the fold geometry of a gesture, the state machine that
// moves between reading, folding and flipping, and the animations that finish a turn.
package flip

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/pageflip/pageflip/internal/geom"
	"github.com/pageflip/pageflip/internal/logging"
	"github.com/pageflip/pageflip/internal/page"
	"github.com/pageflip/pageflip/internal/render"
	"github.com/pageflip/pageflip/internal/settings"
)

// State is the phase of the flip state machine.
type State int

const (
	Read State = iota
	Flipping
	UserFold
	FoldCorner
)

func (s State) String() string {
	switch s {
	case Flipping:
		return "flipping"
	case UserFold:
		return "user_fold"
	case FoldCorner:
		return "fold_corner"
	default:
		return "read"
	}
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// cornerSize is how far a hovered corner curls, in pixels.
const cornerSize = 50

// Pages is the page collection as seen by the controller.
type Pages interface {
	FlippingPage(dir geom.Direction) *page.Page
	BottomPage(dir geom.Direction) *page.Page
	NextBy(p *page.Page) *page.Page
	PrevBy(p *page.Page) *page.Page
	IsFirstSpread() bool
	IsLastSpread() bool
	CurrentSpreadIndex() int
	SpreadIndexByPage(i int) (int, error)
	SetCurrentSpreadIndex(i int) error
	Show(i int) error
	ShowNext() bool
	ShowPrev() bool
}

// Renderer is the part of the render engine the controller draws through.
type Renderer interface {
	Rect() render.BoundsRect
	Mode() page.Mode
	SetDirection(d geom.Direction)
	ToBook(screen geom.Point) geom.Point
	BookToScreen(book geom.Point) geom.Point
	ToPage(screen geom.Point, dir geom.Direction) geom.Point
	SetFlippingPage(p *page.Page)
	SetBottomPage(p *page.Page)
	SetPageRect(rect geom.RectPoints)
	SetShadowData(pos geom.Point, angle, progress float64, dir geom.Direction)
	ClearShadow()
	StartAnimation(anim render.Animation, duration time.Duration, done func())
	FinishAnimation()
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger for flip diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// OnStateChange registers fn to be called on every state transition.
func OnStateChange(fn func(State)) Option {
	return func(c *Controller) { c.onState = fn }
}

// Controller is the flip state machine. All positions it accepts are screen coordinates.
type Controller struct {
	settings settings.Settings
	render   Renderer
	pages    Pages
	log      *slog.Logger
	onState  func(State)

	state  State
	calc   *Calculation
	sess   *session
	target int // content page a programmatic flip lands on, -1 for the adjacent spread
}

// New creates a controller in the Read state.
func New(s settings.Settings, r Renderer, pages Pages, opts ...Option) *Controller {
	c := &Controller{settings: s, render: r, pages: pages, target: -1}
	for _, opt := range opts {
		opt(c)
	}
	c.log = logging.OrNop(c.log)
	return c
}

func (c *Controller) State() State { return c.state }

// Calculation is the geometry of the gesture in progress, or nil.
func (c *Controller) Calculation() *Calculation { return c.calc }

// Progress is how far the current turn has travelled, in [0, 100].
func (c *Controller) Progress() float64 {
	if c.calc == nil {
		return 0
	}
	return c.calc.Progress()
}

func (c *Controller) setState(s State) {
	if c.state == s {
		return
	}
	c.log.Debug("flip state", "from", c.state, "to", s)
	c.state = s
	if c.onState != nil {
		c.onState(s)
	}
}

// Fold drags the page corner to pos, starting a user fold if none is in progress.
func (c *Controller) Fold(pos geom.Point) {
	if c.state == Flipping {
		return
	}
	if c.state == FoldCorner {
		c.render.FinishAnimation()
	}

	started := false
	if c.calc == nil {
		if !c.start(pos) {
			c.setState(Read)
			return
		}
		started = true
	}
	c.setState(UserFold)
	if !c.do(c.render.ToPage(pos, c.calc.Direction())) && started {
		c.reset()
		c.setState(Read)
	}
}

// Flip turns the page from a click or tap at pos. With DisableFlipByClick only clicks on
// the page corners turn.
func (c *Controller) Flip(pos geom.Point) {
	if c.settings.DisableFlipByClick && !c.IsPointOnCorners(pos) {
		return
	}
	c.flip(pos)
}

// FlipNext animates a forward turn from the given corner.
func (c *Controller) FlipNext(corner geom.Corner) bool {
	rect := c.render.Rect()
	return c.flip(c.render.BookToScreen(geom.Pt(rect.Width-10, cornerY(corner, rect.Height))))
}

// FlipPrev animates a backward turn from the given corner.
func (c *Controller) FlipPrev(corner geom.Corner) bool {
	rect := c.render.Rect()
	return c.flip(c.render.BookToScreen(geom.Pt(10, cornerY(corner, rect.Height))))
}

func cornerY(corner geom.Corner, height float64) float64 {
	if corner == geom.CornerBottom {
		return height - 2
	}
	return 1
}

// FlipToPage animates a single turn that lands on content page i, whatever the number of
// spreads in between. A page on the current spread is shown without a turn.
func (c *Controller) FlipToPage(i int, corner geom.Corner) error {
	if c.state == UserFold {
		return nil
	}
	next, err := c.pages.SpreadIndexByPage(i)
	if err != nil {
		return err
	}
	if c.calc != nil {
		c.render.FinishAnimation()
	}

	current := c.pages.CurrentSpreadIndex()
	if next == current {
		return c.pages.Show(i)
	}

	from, turn := next-1, c.FlipNext
	if next < current {
		from, turn = next+1, c.FlipPrev
	}
	if err := c.pages.SetCurrentSpreadIndex(from); err != nil {
		return fmt.Errorf("flip to page %d: %w", i, err)
	}
	c.target = i
	if !turn(corner) {
		c.target = -1
		return c.pages.SetCurrentSpreadIndex(current)
	}
	return nil
}

// ShowCorner curls the corner under a hovering pointer, and lets it fall back once the
// pointer leaves the corners.
func (c *Controller) ShowCorner(pos geom.Point) {
	if !c.settings.ShowPageCorners || (c.state != Read && c.state != FoldCorner) {
		return
	}

	if !c.IsPointOnCorners(pos) {
		c.setState(Read)
		c.render.FinishAnimation()
		c.StopMove()
		return
	}
	if c.calc != nil || !c.start(pos) {
		return
	}

	c.setState(FoldCorner)
	rect := c.render.Rect()
	pw := rect.PageWidth
	yStart, yDest := 1.0, float64(cornerSize)
	if c.calc.Corner() == geom.CornerBottom {
		yStart, yDest = rect.Height-1, rect.Height-cornerSize
	}
	c.calc.Calc(geom.Pt(pw-1, 1))
	c.animateTo(geom.Pt(pw-1, yStart), geom.Pt(pw-cornerSize, yDest), false, false)
}

// StopMove releases a fold: past the spine the turn completes, otherwise the page falls
// back.
func (c *Controller) StopMove() {
	if c.state == Flipping {
		return
	}
	if c.calc == nil {
		c.setState(Read)
		return
	}
	rect := c.render.Rect()
	pos := c.calc.Position()
	y := 0.0
	if c.calc.Corner() == geom.CornerBottom {
		y = rect.Height
	}

	if c.state != Read {
		c.setState(Flipping)
	}
	if pos.X <= 0 {
		c.animateTo(pos, geom.Pt(-rect.PageWidth, y), true, true)
	} else {
		c.animateTo(pos, geom.Pt(rect.PageWidth, y), false, true)
	}
}

// Cancel completes any running animation and drops the gesture in progress, returning to
// Read.
func (c *Controller) Cancel() {
	c.render.FinishAnimation()
	c.target = -1
	c.reset()
	c.setState(Read)
}

// IsPointOnCorners reports whether pos is inside the book near one of its four corners.
func (c *Controller) IsPointOnCorners(pos geom.Point) bool {
	rect := c.render.Rect()
	reach := math.Hypot(rect.PageWidth, rect.Height) / 5
	p := c.render.ToBook(pos)

	return p.X > 0 && p.Y > 0 && p.X < rect.Width && p.Y < rect.Height &&
		(p.X < reach || p.X > rect.Width-reach) &&
		(p.Y < reach || p.Y > rect.Height-reach)
}

func (c *Controller) flip(pos geom.Point) bool {
	if c.calc != nil {
		c.render.FinishAnimation()
	}
	if !c.start(pos) {
		c.setState(Read)
		return false
	}

	c.setState(Flipping)
	rect := c.render.Rect()
	margin := rect.Height / 10
	yStart, yDest := margin, 0.0
	if c.calc.Corner() == geom.CornerBottom {
		yStart, yDest = rect.Height-margin, rect.Height
	}

	start := geom.Pt(rect.PageWidth-margin, yStart)
	c.calc.Calc(start)
	c.animateTo(start, geom.Pt(-rect.PageWidth, yDest), true, true)
	return true
}

// start prepares a gesture at pos. It reports false when there is no page to turn that
// way or the book is not laid out yet.
func (c *Controller) start(pos geom.Point) bool {
	c.reset()
	rect := c.render.Rect()
	if rect.PageWidth <= 0 || rect.Height <= 0 {
		return false
	}

	p := c.render.ToBook(pos)
	dir := c.directionAt(p, rect)
	corner := geom.CornerTop
	if p.Y >= rect.Height/2 {
		corner = geom.CornerBottom
	}

	if (dir == geom.Forward && c.pages.IsLastSpread()) || (dir == geom.Back && c.pages.IsFirstSpread()) {
		return false
	}
	sess, ok := newSession(c.pages, c.render.Mode(), dir)
	if !ok {
		return false
	}

	c.sess = sess
	c.render.SetDirection(dir)
	c.calc = NewCalculation(dir, corner, rect.PageWidth, rect.Height)
	c.log.Debug("flip start", "direction", dir, "corner", corner, "hard", sess.hard())
	return true
}

func (c *Controller) directionAt(p geom.Point, rect render.BoundsRect) geom.Direction {
	if c.render.Mode() == page.Portrait {
		if p.X <= rect.Width/5 {
			return geom.Back
		}
	} else if p.X < rect.Width/2 {
		return geom.Back
	}
	return geom.Forward
}

// do folds the page to pagePos and pushes the result to the renderer.
func (c *Controller) do(pagePos geom.Point) bool {
	if c.calc == nil {
		return false
	}
	if !c.calc.Calc(pagePos) {
		c.log.Debug("degenerate fold", "x", pagePos.X, "y", pagePos.Y)
		return false
	}

	dir := c.calc.Direction()
	progress := c.calc.Progress()

	hardAngle := 90 * (200 - 2*progress) / 100
	if dir == geom.Back {
		hardAngle = -hardAngle
	}
	drawingAngle := hardAngle
	if dir == geom.Forward && c.render.Mode() == page.Portrait {
		drawingAngle = hardAngle - 180
	}

	c.sess.bottom.State = page.VisualState{
		ClipArea: c.calc.BottomClipArea(),
		Position: c.calc.BottomPagePosition(),
	}
	c.sess.flipping.State = page.VisualState{
		Angle:            c.calc.Angle(),
		ClipArea:         c.calc.FlippingClipArea(),
		Position:         c.calc.ActiveCorner(),
		HardAngle:        hardAngle,
		HardDrawingAngle: drawingAngle,
	}

	c.render.SetPageRect(c.calc.Rect())
	c.render.SetBottomPage(c.sess.bottom)
	c.render.SetFlippingPage(c.sess.flipping)

	start, ok := c.calc.ShadowStart()
	angle, aok := c.calc.ShadowAngle()
	if ok && aok {
		c.render.SetShadowData(start, angle, progress, dir)
	} else {
		c.render.ClearShadow()
	}
	return true
}

// duration scales the flip duration for paths shorter than a thousand pixels.
func (c *Controller) duration(steps int) time.Duration {
	d := c.settings.FlipDuration.Duration
	if steps >= 1000 {
		return d
	}
	return time.Duration(float64(steps) / 1000 * float64(d))
}

// animateTo moves the corner along the straight path from start to dest. A turned flip
// shows the adjacent spread at the end; reset returns the controller to Read.
func (c *Controller) animateTo(start, dest geom.Point, turned, reset bool) {
	anim := render.AnimationFunc(func(t float64) {
		c.do(geom.Lerp(start, dest, t))
	})
	c.render.StartAnimation(anim, c.duration(geom.PathSteps(start, dest)), func() {
		c.finish(turned, reset)
	})
}

func (c *Controller) finish(turned, reset bool) {
	if turned && c.calc != nil {
		c.turn(c.calc.Direction())
	}
	if reset {
		c.reset()
		c.setState(Read)
	}
}

func (c *Controller) turn(dir geom.Direction) {
	target := c.target
	c.target = -1
	if target >= 0 {
		if err := c.pages.Show(target); err != nil {
			c.log.Warn("flip target", "page", target, "err", err)
		}
		return
	}
	if dir == geom.Back {
		c.pages.ShowPrev()
	} else {
		c.pages.ShowNext()
	}
}

// reset drops the gesture and clears the turning pages from the renderer.
func (c *Controller) reset() {
	if c.sess != nil {
		c.sess.release()
		c.sess = nil
	}
	c.calc = nil
	c.render.SetBottomPage(nil)
	c.render.SetFlippingPage(nil)
	c.render.ClearShadow()
}
