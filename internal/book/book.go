// Package book is the public face of the page-flip engine. A Book owns one page
// collection, its renderer, flip controller and gesture recognizer, and is driven by
// the host through Tick and pointer events. A Book is not safe for concurrent use.
package book

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pageflip/pageflip/internal/flip"
	"github.com/pageflip/pageflip/internal/geom"
	"github.com/pageflip/pageflip/internal/gesture"
	"github.com/pageflip/pageflip/internal/logging"
	"github.com/pageflip/pageflip/internal/page"
	"github.com/pageflip/pageflip/internal/render"
	"github.com/pageflip/pageflip/internal/settings"
)

var (
	ErrDestroyed = errors.New("book destroyed")
	ErrNotLoaded = errors.New("book not loaded")
)

// Container is the element the book is laid out in.
type Container interface {
	Size() (width, height float64)
}

// Size is a Container of fixed dimensions.
type Size struct {
	Width  float64
	Height float64
}

func (s Size) Size() (float64, float64) { return s.Width, s.Height }

// PageSource describes one page to load.
type PageSource struct {
	Handle  page.Handle
	Density page.Density
}

// Option configures a Book.
type Option func(*Book)

func WithLogger(l *slog.Logger) Option {
	return func(b *Book) { b.log = l }
}

// WithClock replaces the wall clock animations are timed against.
func WithClock(c render.Clock) Option {
	return func(b *Book) { b.clock = c }
}

// WithShadowColor sets the colour of page shadows as a hex string.
func WithShadowColor(hex string) Option {
	return func(b *Book) { b.shadowColor = hex }
}

// Book is a single page-flip instance.
type Book struct {
	settings    settings.Settings
	container   Container
	log         *slog.Logger
	clock       render.Clock
	shadowColor string

	render   *render.Render
	pages    *page.Collection
	ctrl     *flip.Controller
	gestures *gesture.Recognizer

	events    observers
	page      int
	destroyed bool
}

// New validates s and creates an unloaded book laid out in c.
func New(c Container, s settings.Settings, opts ...Option) (*Book, error) {
	if c == nil {
		return nil, fmt.Errorf("new book: %w: no container", settings.ErrInvalidDimensions)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("new book: %w", err)
	}

	b := &Book{settings: s, container: c, clock: render.SystemClock{}}
	for _, opt := range opts {
		opt(b)
	}
	b.log = logging.OrNop(b.log)

	ropts := []render.Option{render.WithLogger(b.log), render.WithClock(b.clock)}
	if b.shadowColor != "" {
		ropts = append(ropts, render.WithShadowColor(b.shadowColor))
	}
	b.render = render.New(s, ropts...)
	b.render.OnOrientationChange(b.orientationChanged)
	return b, nil
}

// --- Loading ---

// Load lays out soft pages for handles. A non-empty blank is used as the filler page when
// the cover layout needs one.
func (b *Book) Load(handles []page.Handle, blank page.Handle) error {
	sources := make([]PageSource, len(handles))
	for i, h := range handles {
		sources[i] = PageSource{Handle: h, Density: page.Soft}
	}
	return b.LoadPages(sources, blank)
}

// LoadPages lays out pages and shows the configured start page. Reloading replaces the
// current pages and cancels any flip in progress.
func (b *Book) LoadPages(sources []PageSource, blank page.Handle) error {
	if b.destroyed {
		return ErrDestroyed
	}

	pages := make([]*page.Page, len(sources))
	for i, src := range sources {
		pages[i] = page.New(src.Handle, src.Density)
	}
	var filler *page.Page
	if blank != "" {
		filler = page.New(blank, page.Soft)
	}
	col, err := page.NewCollection(pages, filler, b.settings.ShowCover)
	if err != nil {
		return fmt.Errorf("load pages: %w", err)
	}
	if _, err := col.SpreadIndexByPage(b.settings.StartPage); err != nil {
		return fmt.Errorf("load pages: start page: %w", err)
	}

	if b.ctrl != nil {
		b.ctrl.Cancel()
		b.pages = nil
	}

	mode := b.render.Resize(b.container.Size())
	col.SetMode(mode)
	col.SetPresenter(b.render)
	_ = col.Show(b.settings.StartPage)
	col.OnPageChange(b.pageChanged)

	b.pages = col
	b.page = col.CurrentPageIndex()
	b.ctrl = flip.New(b.settings, b.render, col,
		flip.WithLogger(b.log),
		flip.OnStateChange(b.stateChanged),
	)
	b.gestures = gesture.New(b.settings, b.ctrl, b.render, gesture.WithLogger(b.log))

	b.log.Info("book loaded", "pages", col.PageCount(), "mode", mode, "page", b.page)
	b.emit(EventInit)
	return nil
}

func (b *Book) ready() error {
	if b.destroyed {
		return ErrDestroyed
	}
	if b.pages == nil {
		return ErrNotLoaded
	}
	return nil
}

// --- Events ---

// On subscribes fn to e. The returned function unsubscribes it.
func (b *Book) On(e Event, fn Listener) func() {
	if b.destroyed {
		return func() {}
	}
	return b.events.on(e, fn)
}

func (b *Book) emit(e Event) {
	data := EventData{Event: e, Page: b.page, Mode: b.render.Mode()}
	if b.ctrl != nil {
		data.State = b.ctrl.State()
	}
	b.events.emit(data)
}

func (b *Book) pageChanged(i int) {
	if i == b.page {
		return
	}
	b.page = i
	b.emit(EventFlip)
}

func (b *Book) stateChanged(flip.State) {
	b.emit(EventState)
}

func (b *Book) orientationChanged(mode page.Mode) {
	if b.pages == nil {
		return
	}
	b.log.Debug("book orientation", "mode", mode)
	b.ctrl.Cancel()
	b.pages.SetMode(mode)
	b.pages.Refresh()
	b.emit(EventOrientation)
}

// --- Navigation ---

// Next shows the next spread without animation. It does nothing on the last spread.
func (b *Book) Next() error {
	if err := b.ready(); err != nil {
		return err
	}
	b.ctrl.Cancel()
	b.pages.ShowNext()
	return nil
}

// Previous shows the previous spread without animation.
func (b *Book) Previous() error {
	if err := b.ready(); err != nil {
		return err
	}
	b.ctrl.Cancel()
	b.pages.ShowPrev()
	return nil
}

// GoTo shows page i without animation. An out-of-range page leaves the book unchanged.
func (b *Book) GoTo(i int) error {
	if err := b.ready(); err != nil {
		return err
	}
	if _, err := b.pages.SpreadIndexByPage(i); err != nil {
		return fmt.Errorf("go to: %w", err)
	}
	b.ctrl.Cancel()
	if err := b.pages.Show(i); err != nil {
		return fmt.Errorf("go to: %w", err)
	}
	return nil
}

// FlipNext animates a turn to the next spread, from the top corner unless given.
func (b *Book) FlipNext(corner ...geom.Corner) error {
	if err := b.ready(); err != nil {
		return err
	}
	b.ctrl.FlipNext(cornerOf(corner))
	return nil
}

// FlipPrev animates a turn to the previous spread.
func (b *Book) FlipPrev(corner ...geom.Corner) error {
	if err := b.ready(); err != nil {
		return err
	}
	b.ctrl.FlipPrev(cornerOf(corner))
	return nil
}

// FlipTo animates a single turn that lands on page i.
func (b *Book) FlipTo(i int, corner ...geom.Corner) error {
	if err := b.ready(); err != nil {
		return err
	}
	if err := b.ctrl.FlipToPage(i, cornerOf(corner)); err != nil {
		return fmt.Errorf("flip to: %w", err)
	}
	return nil
}

func cornerOf(corner []geom.Corner) geom.Corner {
	if len(corner) > 0 {
		return corner[0]
	}
	return geom.CornerTop
}

// --- Introspection ---

// CurrentPageIndex is the current content page, 0 before loading.
func (b *Book) CurrentPageIndex() int { return b.page }

// PageCount is the number of content pages, 0 before loading.
func (b *Book) PageCount() int {
	if b.pages == nil {
		return 0
	}
	return b.pages.PageCount()
}

func (b *Book) OrientationMode() page.Mode { return b.render.Mode() }

// FlipProgress is how far the current turn has travelled, in [0, 100].
func (b *Book) FlipProgress() float64 {
	if b.ctrl == nil {
		return 0
	}
	return b.ctrl.Progress()
}

func (b *Book) State() flip.State {
	if b.ctrl == nil {
		return flip.Read
	}
	return b.ctrl.State()
}

func (b *Book) Bounds() render.BoundsRect    { return b.render.Rect() }
func (b *Book) Settings() settings.Settings  { return b.settings }
func (b *Book) Destroyed() bool              { return b.destroyed }
func (b *Book) Collection() *page.Collection { return b.pages }

// --- Frame loop ---

// Tick re-measures the container and advances the running animation to now.
func (b *Book) Tick(now time.Time) error {
	if err := b.ready(); err != nil {
		return err
	}
	b.render.Resize(b.container.Size())
	b.render.Tick(now)
	return nil
}

// Resize re-measures the container immediately.
func (b *Book) Resize() error {
	if b.destroyed {
		return ErrDestroyed
	}
	b.render.Resize(b.container.Size())
	return nil
}

// Frame is a snapshot of what to draw.
func (b *Book) Frame() (render.Frame, error) {
	if err := b.ready(); err != nil {
		return render.Frame{}, err
	}
	return b.render.Frame(), nil
}

// Commands compiles the current frame to JSON draw commands.
func (b *Book) Commands() (string, error) {
	f, err := b.Frame()
	if err != nil {
		return "", err
	}
	return render.DrawCommandsToJSON(render.CompileDrawCommands(f, b.log))
}

// --- Pointer input ---

func (b *Book) PointerDown(ev gesture.Event) gesture.Result {
	if b.ready() != nil {
		return gesture.Result{}
	}
	return b.gestures.Down(ev)
}

func (b *Book) PointerMove(ev gesture.Event) gesture.Result {
	if b.ready() != nil {
		return gesture.Result{}
	}
	return b.gestures.Move(ev)
}

func (b *Book) PointerUp(ev gesture.Event) gesture.Result {
	if b.ready() != nil {
		return gesture.Result{}
	}
	return b.gestures.Up(ev)
}

func (b *Book) PointerCancel() gesture.Result {
	if b.ready() != nil {
		return gesture.Result{}
	}
	return b.gestures.Cancel()
}

func (b *Book) PointerHover(pos geom.Point) gesture.Result {
	if b.ready() != nil {
		return gesture.Result{}
	}
	return b.gestures.Hover(pos)
}

// --- Teardown ---

// Destroy completes any running animation and detaches every listener. Later calls fail
// with ErrDestroyed.
func (b *Book) Destroy() {
	if b.destroyed {
		return
	}
	if b.ctrl != nil {
		b.gestures.Cancel()
		b.ctrl.Cancel()
	}
	b.events.clear()
	b.render.OnOrientationChange(nil)
	if b.pages != nil {
		b.pages.OnPageChange(nil)
		b.pages.SetPresenter(nil)
	}
	b.destroyed = true
	b.log.Debug("book destroyed")
}
