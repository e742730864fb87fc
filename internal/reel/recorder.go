// Package reel records page flips as image sequences. A Recorder drives a book on a
// virtual clock that advances one frame period per step, so the output does not depend on
// how fast frames are rasterized.
package reel

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math"
	"time"

	"github.com/pageflip/pageflip/internal/book"
	"github.com/pageflip/pageflip/internal/flip"
	"github.com/pageflip/pageflip/internal/geom"
	"github.com/pageflip/pageflip/internal/gesture"
	"github.com/pageflip/pageflip/internal/logging"
	"github.com/pageflip/pageflip/internal/manifest"
	"github.com/pageflip/pageflip/internal/render"
)

var ErrNotSettled = errors.New("flip did not settle")

// dragDuration is how long a scripted drag takes from press to release.
const dragDuration = 400 * time.Millisecond

// Clock is a manually advanced clock.
type Clock struct{ now time.Time }

func (c *Clock) Now() time.Time          { return c.now }
func (c *Clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// Sink receives frame i of the recording.
type Sink func(i int, img image.Image) error

type Option func(*Recorder)

func WithLogger(l *slog.Logger) Option {
	return func(r *Recorder) { r.log = l }
}

// WithImages draws page content from src.
func WithImages(src render.ImageSource) Option {
	return func(r *Recorder) { r.images = src }
}

// Recorder turns book actions into frames.
type Recorder struct {
	book   *book.Book
	clock  *Clock
	step   time.Duration
	settle time.Duration
	images render.ImageSource
	sink   Sink
	log    *slog.Logger
	frames int
}

// NewRecorder loads m into a width x height book recorded at fps frames per second.
func NewRecorder(m *manifest.Manifest, width, height float64, fps int, sink Sink, opts ...Option) (*Recorder, error) {
	if fps <= 0 {
		return nil, fmt.Errorf("new recorder: fps must be positive, got %d", fps)
	}
	r := &Recorder{
		clock:  &Clock{now: time.Unix(0, 0)},
		step:   time.Second / time.Duration(fps),
		settle: m.Settings.FlipDuration.Duration + time.Second,
		sink:   sink,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = logging.OrNop(r.log)

	b, err := book.New(book.Size{Width: width, Height: height}, m.Settings,
		book.WithClock(r.clock), book.WithLogger(r.log))
	if err != nil {
		return nil, fmt.Errorf("new recorder: %w", err)
	}
	if err := b.LoadPages(m.Sources(), m.BlankHandle()); err != nil {
		return nil, fmt.Errorf("new recorder: %w", err)
	}
	r.book = b
	return r, nil
}

func (r *Recorder) Book() *book.Book { return r.book }

// Frames is the number of frames captured so far.
func (r *Recorder) Frames() int { return r.frames }

// Capture rasterizes the current frame into the sink.
func (r *Recorder) Capture() error {
	f, err := r.book.Frame()
	if err != nil {
		return err
	}
	img, err := render.Rasterize(f, r.images)
	if err != nil {
		return fmt.Errorf("frame %d: %w", r.frames, err)
	}
	if err := r.sink(r.frames, img); err != nil {
		return fmt.Errorf("frame %d: %w", r.frames, err)
	}
	r.frames++
	return nil
}

// advance moves the clock one frame, ticks the book and captures.
func (r *Recorder) advance() error {
	r.clock.Advance(r.step)
	if err := r.book.Tick(r.clock.Now()); err != nil {
		return err
	}
	return r.Capture()
}

// framesIn is the number of whole frame periods in d, rounded to the nearest frame.
func (r *Recorder) framesIn(d time.Duration) int {
	return int(math.Round(float64(d) / float64(r.step)))
}

// Wait records d of the book as it is.
func (r *Recorder) Wait(d time.Duration) error {
	for range r.framesIn(d) {
		if err := r.advance(); err != nil {
			return err
		}
	}
	return nil
}

// Settle records until the running flip has finished.
func (r *Recorder) Settle() error {
	limit := r.framesIn(r.settle)
	for n := 0; r.book.State() != flip.Read; n++ {
		if n > limit {
			return fmt.Errorf("%w: still %s after %d frames", ErrNotSettled, r.book.State(), n)
		}
		if err := r.advance(); err != nil {
			return err
		}
	}
	return nil
}

// FlipNext records an animated turn to the next spread.
func (r *Recorder) FlipNext() error {
	if err := r.book.FlipNext(); err != nil {
		return err
	}
	return r.Settle()
}

// FlipPrev records an animated turn to the previous spread.
func (r *Recorder) FlipPrev() error {
	if err := r.book.FlipPrev(); err != nil {
		return err
	}
	return r.Settle()
}

// GoTo records an animated turn that lands on page i.
func (r *Recorder) GoTo(i int) error {
	if err := r.book.FlipTo(i); err != nil {
		return err
	}
	return r.Settle()
}

// Drag records a pointer pressed at (x0, y0), dragged to (x1, y1) and released, in
// container pixels.
func (r *Recorder) Drag(x0, y0, x1, y1 float64) error {
	r.book.PointerDown(gesture.Event{Pos: geom.Pt(x0, y0), Time: r.clock.Now()})
	steps := max(int(dragDuration/r.step), 1)
	for i := 1; i <= steps; i++ {
		t := float64(i) / float64(steps)
		pos := geom.Lerp(geom.Pt(x0, y0), geom.Pt(x1, y1), t)
		if err := r.advance(); err != nil {
			return err
		}
		r.book.PointerMove(gesture.Event{Pos: pos, Time: r.clock.Now()})
	}
	r.book.PointerUp(gesture.Event{Pos: geom.Pt(x1, y1), Time: r.clock.Now()})
	return r.Settle()
}

// Range records page from shown still, then one turn at a time until page to is on
// screen or the book runs out of spreads.
func (r *Recorder) Range(from, to int) error {
	if err := r.book.GoTo(from); err != nil {
		return err
	}
	if err := r.Capture(); err != nil {
		return err
	}
	for i := 0; i < r.book.PageCount(); i++ {
		if r.showing(to) {
			return nil
		}
		before := r.book.CurrentPageIndex()
		var err error
		if to > before {
			err = r.FlipNext()
		} else {
			err = r.FlipPrev()
		}
		if err != nil {
			return err
		}
		if r.book.CurrentPageIndex() == before {
			r.log.Warn("range stopped", "page", before, "target", to)
			return nil
		}
	}
	return nil
}

// showing reports whether page i is in the current spread.
func (r *Recorder) showing(i int) bool {
	pages := r.book.Collection()
	want, err := pages.SpreadIndexByPage(i)
	return err == nil && want == pages.CurrentSpreadIndex()
}
