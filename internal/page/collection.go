package page

import (
	"errors"
	"fmt"
	"slices"

	"github.com/pageflip/pageflip/internal/geom"
)

var (
	ErrInvalidPage   = errors.New("invalid page")
	ErrInvalidSpread = errors.New("invalid spread")
	ErrNoPages       = errors.New("no pages")
)

// Spread is the display slots visible together: one slot, or a left/right pair.
type Spread []int

// Presenter receives the pages to draw statically for the current spread. Either may be nil.
type Presenter interface {
	SetVisible(left, right *Page)
}

// Collection owns the pages of a book in display order and tracks which spread is shown.
//
// Display slots include the blank filler when there is one; page indexes handed to and
// returned from the collection are content indexes and never refer to the blank.
type Collection struct {
	pages     []*Page
	blankSlot int // -1 without a blank filler
	count     int

	landscape []Spread
	portrait  []Spread

	mode    Mode
	current int
	page    int
	side    int

	presenter Presenter
	onPage    func(int)
}

// NewCollection lays out pages into spreads. With showCover the first page is shown alone
// and the last page closes the book alone; an odd count of three or more then gets blank
// inserted as the right half of the next-to-last spread. A nil blank is replaced by an
// empty synthetic page.
func NewCollection(pages []*Page, blank *Page, showCover bool) (*Collection, error) {
	if len(pages) == 0 {
		return nil, ErrNoPages
	}

	c := &Collection{blankSlot: -1, count: len(pages)}
	c.pages = slices.Clone(pages)

	// The filler only pads a cover book with an odd count of at least three: it keeps the
	// back cover alone on the right. A lone page is the cover itself, and without a cover
	// the trailing single page already stands alone. See DESIGN.md, blank filler.
	n := len(pages)
	if showCover && n%2 == 1 && n >= 3 {
		if blank == nil {
			blank = New("", Soft)
		}
		blank.blank = true
		c.blankSlot = n - 1
		c.pages = slices.Insert(c.pages, c.blankSlot, blank)
	}

	c.landscape = landscapeSpreads(c.pages, showCover)
	for slot, p := range c.pages {
		if !p.blank {
			c.portrait = append(c.portrait, Spread{slot})
		}
	}
	return c, nil
}

func landscapeSpreads(pages []*Page, showCover bool) []Spread {
	var spreads []Spread
	start := 0
	if showCover {
		pages[0].density = Hard
		spreads = append(spreads, Spread{0})
		start = 1
	}
	for i := start; i < len(pages); i += 2 {
		if i+1 < len(pages) {
			spreads = append(spreads, Spread{i, i + 1})
			continue
		}
		pages[i].density = Hard
		spreads = append(spreads, Spread{i})
	}
	return spreads
}

// SetPresenter sets where visible pages are pushed on every show.
func (c *Collection) SetPresenter(p Presenter) { c.presenter = p }

// OnPageChange registers the callback notified with the content index after every show.
func (c *Collection) OnPageChange(fn func(int)) { c.onPage = fn }

// PageCount is the number of content pages.
func (c *Collection) PageCount() int { return c.count }

// CurrentPageIndex is the content index of the page last shown.
func (c *Collection) CurrentPageIndex() int { return c.page }

// CurrentSpreadIndex indexes Spreads(Mode()).
func (c *Collection) CurrentSpreadIndex() int { return c.current }

func (c *Collection) Mode() Mode { return c.mode }

// SetMode switches the spread table. Call Show afterwards to re-resolve the spread.
func (c *Collection) SetMode(m Mode) { c.mode = m }

// Spreads returns the spread table for mode. Callers must not modify it.
func (c *Collection) Spreads(m Mode) []Spread {
	if m == Portrait {
		return c.portrait
	}
	return c.landscape
}

func (c *Collection) spreads() []Spread { return c.Spreads(c.mode) }

// BlankSlot is the display slot of the blank filler, or -1.
func (c *Collection) BlankSlot() int { return c.blankSlot }

// Slot returns the page in display slot i.
func (c *Collection) Slot(i int) *Page { return c.pages[i] }

// Page returns the page with content index i.
func (c *Collection) Page(i int) (*Page, error) {
	if i < 0 || i >= c.count {
		return nil, fmt.Errorf("%w: %d of %d", ErrInvalidPage, i, c.count)
	}
	return c.pages[c.slotOf(i)], nil
}

func (c *Collection) slotOf(page int) int {
	if c.blankSlot >= 0 && page >= c.blankSlot {
		return page + 1
	}
	return page
}

func (c *Collection) pageOf(slot int) int {
	if c.blankSlot >= 0 && slot > c.blankSlot {
		return slot - 1
	}
	return slot
}

// SpreadIndexByPage returns the spread of the active table holding content page i.
func (c *Collection) SpreadIndexByPage(i int) (int, error) {
	if i < 0 || i >= c.count {
		return 0, fmt.Errorf("%w: %d of %d", ErrInvalidPage, i, c.count)
	}
	slot := c.slotOf(i)
	for idx, s := range c.spreads() {
		if slices.Contains(s, slot) {
			return idx, nil
		}
	}
	return 0, fmt.Errorf("%w: page %d has no spread", ErrInvalidPage, i)
}

// SetCurrentSpreadIndex moves the current spread without pushing pages to the presenter.
// Programmatic flips use it to start a turn from next to the target spread.
func (c *Collection) SetCurrentSpreadIndex(i int) error {
	if i < 0 || i >= len(c.spreads()) {
		return fmt.Errorf("%w: %d of %d", ErrInvalidSpread, i, len(c.spreads()))
	}
	c.current = i
	return nil
}

// Show makes content page i current. Out-of-range pages are rejected and leave the
// collection unchanged.
func (c *Collection) Show(i int) error {
	idx, err := c.SpreadIndexByPage(i)
	if err != nil {
		return err
	}
	c.current = idx
	c.side = slices.Index(c.spreads()[idx], c.slotOf(i))
	c.showSpread(i)
	return nil
}

// Refresh re-resolves the current page in the active table, after a mode change.
func (c *Collection) Refresh() {
	_ = c.Show(c.page)
}

// ShowNext advances one spread. It reports false at the last spread.
func (c *Collection) ShowNext() bool {
	if c.current >= len(c.spreads())-1 {
		return false
	}
	c.current++
	c.showSpread(c.sidePage())
	return true
}

// ShowPrev goes back one spread. It reports false at the first spread.
func (c *Collection) ShowPrev() bool {
	if c.current <= 0 {
		return false
	}
	c.current--
	c.showSpread(c.sidePage())
	return true
}

// sidePage is the content page on the remembered side of the current spread, falling back
// to the other half when that side is missing or blank.
func (c *Collection) sidePage() int {
	s := c.spreads()[c.current]
	slot := s[min(c.side, len(s)-1)]
	if slot == c.blankSlot {
		slot = s[0]
		if slot == c.blankSlot {
			slot = s[len(s)-1]
		}
	}
	return c.pageOf(slot)
}

func (c *Collection) showSpread(page int) {
	s := c.spreads()[c.current]
	if c.presenter != nil {
		switch {
		case len(s) == 2:
			c.presenter.SetVisible(c.pages[s[0]], c.pages[s[1]])
		case c.mode == Landscape && s[0] == len(c.pages)-1 && len(c.landscape) > 1:
			c.presenter.SetVisible(c.pages[s[0]], nil)
		default:
			c.presenter.SetVisible(nil, c.pages[s[0]])
		}
	}
	c.page = page
	if c.onPage != nil {
		c.onPage(page)
	}
}

// IsLastSpread reports whether the current spread is the final one.
func (c *Collection) IsLastSpread() bool { return c.current >= len(c.spreads())-1 }

// IsFirstSpread reports whether the current spread is the first one.
func (c *Collection) IsFirstSpread() bool { return c.current <= 0 }

// FlippingPage returns the page lifted by a flip in direction dir from the current spread,
// or nil when there is nothing to flip to. In portrait mode a forward flip lifts a temporary
// copy of the current page.
func (c *Collection) FlippingPage(dir geom.Direction) *Page {
	if c.mode == Portrait {
		if dir == geom.Forward {
			return c.pages[c.portrait[c.current][0]].TemporaryCopy()
		}
		if c.current == 0 {
			return nil
		}
		return c.pages[c.portrait[c.current-1][0]]
	}

	s := c.adjacent(dir)
	if s == nil {
		return nil
	}
	if dir == geom.Forward {
		return c.pages[s[0]]
	}
	return c.pages[s[len(s)-1]]
}

// BottomPage returns the page revealed underneath a flip in direction dir, or nil.
func (c *Collection) BottomPage(dir geom.Direction) *Page {
	if c.mode == Portrait {
		if dir == geom.Back {
			return c.pages[c.portrait[c.current][0]]
		}
		if c.current+1 >= len(c.portrait) {
			return nil
		}
		return c.pages[c.portrait[c.current+1][0]]
	}

	s := c.adjacent(dir)
	if s == nil {
		return nil
	}
	if dir == geom.Forward {
		return c.pages[s[len(s)-1]]
	}
	return c.pages[s[0]]
}

func (c *Collection) adjacent(dir geom.Direction) Spread {
	i := c.current + 1
	if dir == geom.Back {
		i = c.current - 1
	}
	if i < 0 || i >= len(c.landscape) {
		return nil
	}
	return c.landscape[i]
}

// CurrentSpread returns the pages of the current spread in display order.
func (c *Collection) CurrentSpread() []*Page {
	s := c.spreads()[c.current]
	out := make([]*Page, len(s))
	for i, slot := range s {
		out[i] = c.pages[slot]
	}
	return out
}

// NextBy returns the page after p in display order, or nil.
func (c *Collection) NextBy(p *Page) *Page {
	i := slices.Index(c.pages, p)
	if i < 0 || i >= len(c.pages)-1 {
		return nil
	}
	return c.pages[i+1]
}

// PrevBy returns the page before p in display order, or nil.
func (c *Collection) PrevBy(p *Page) *Page {
	i := slices.Index(c.pages, p)
	if i <= 0 {
		return nil
	}
	return c.pages[i-1]
}
