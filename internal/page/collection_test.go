package page

import (
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/pageflip/pageflip/internal/geom"
)

func makePages(n int) []*Page {
	pages := make([]*Page, n)
	for i := range pages {
		pages[i] = New(Handle(fmt.Sprintf("p%d", i)), Soft)
	}
	return pages
}

type recorder struct {
	left, right *Page
	calls       int
}

func (r *recorder) SetVisible(left, right *Page) {
	r.left, r.right = left, right
	r.calls++
}

func mustCollection(t *testing.T, n int, showCover bool) *Collection {
	t.Helper()
	c, err := NewCollection(makePages(n), nil, showCover)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestSpreadCount(t *testing.T) {
	for n := 1; n <= 40; n++ {
		c := mustCollection(t, n, true)

		slots := n
		if c.BlankSlot() >= 0 {
			slots++
		}
		want := 1 + (slots-1+1)/2
		if got := len(c.Spreads(Landscape)); got != want {
			t.Errorf("n=%d: %d landscape spreads, want %d", n, got, want)
		}
		if hasBlank := c.BlankSlot() >= 0; hasBlank != (n%2 == 1 && n >= 3) {
			t.Errorf("n=%d: blank filler present = %v", n, hasBlank)
		}
		if got := len(c.Spreads(Portrait)); got != n {
			t.Errorf("n=%d: %d portrait spreads, want %d", n, got, n)
		}
	}
}

func TestNoFillerWithoutCover(t *testing.T) {
	for _, n := range []int{1, 3, 5, 9} {
		c := mustCollection(t, n, false)
		if c.BlankSlot() >= 0 {
			t.Errorf("n=%d: blank filler at slot %d without a cover", n, c.BlankSlot())
		}
		spreads := c.Spreads(Landscape)
		if last := spreads[len(spreads)-1]; len(last) != 1 || last[0] != n-1 {
			t.Errorf("n=%d: last spread = %v, want [%d]", n, last, n-1)
		}
	}
}

func TestLandscapePairing(t *testing.T) {
	for _, showCover := range []bool{true, false} {
		for n := 1; n <= 15; n++ {
			t.Run(fmt.Sprintf("cover=%v/n=%d", showCover, n), func(t *testing.T) {
				c := mustCollection(t, n, showCover)
				spreads := c.Spreads(Landscape)

				// Every display slot appears exactly once, in order.
				var flat []int
				for _, s := range spreads {
					flat = append(flat, s...)
				}
				for i, slot := range flat {
					if slot != i {
						t.Fatalf("spreads %v are not in display order", spreads)
					}
				}

				if showCover {
					if len(spreads[0]) != 1 || c.Slot(0).Density() != Hard {
						t.Errorf("cover spread %v density %v", spreads[0], c.Slot(0).Density())
					}
				}
				for i, s := range spreads {
					if len(s) == 1 && i > 0 && c.Slot(s[0]).Density() != Hard {
						t.Errorf("single spread %v is not hard", s)
					}
					if len(s) == 2 && i == len(spreads)-1 && c.BlankSlot() == s[1] {
						t.Errorf("blank filler ends the book: %v", spreads)
					}
				}
				if b := c.BlankSlot(); b >= 0 {
					next := spreads[len(spreads)-2]
					if len(next) != 2 || next[1] != b {
						t.Errorf("blank slot %d is not the right half of %v", b, next)
					}
				}
			})
		}
	}
}

func TestSevenPagesWithCover(t *testing.T) {
	c := mustCollection(t, 7, true)
	want := []Spread{{0}, {1, 2}, {3, 4}, {5, 6}, {7}}
	if got := c.Spreads(Landscape); !slices.EqualFunc(got, want, slices.Equal) {
		t.Fatalf("spreads = %v, want %v", got, want)
	}
	if c.BlankSlot() != 6 {
		t.Errorf("blank slot = %d, want 6", c.BlankSlot())
	}
	last, _ := c.Page(6)
	if last != c.Slot(7) || last.Density() != Hard {
		t.Errorf("content page 6 should be the hard back cover in slot 7")
	}
}

func TestShowRoundTrip(t *testing.T) {
	for _, mode := range []Mode{Landscape, Portrait} {
		for _, n := range []int{1, 2, 7, 8} {
			c := mustCollection(t, n, true)
			c.SetMode(mode)
			for p := 0; p < n; p++ {
				if err := c.Show(p); err != nil {
					t.Fatalf("%v n=%d Show(%d): %v", mode, n, p, err)
				}
				if got := c.CurrentPageIndex(); got != p {
					t.Errorf("%v n=%d Show(%d) current = %d", mode, n, p, got)
				}
				pg, _ := c.Page(p)
				if pg.IsBlank() {
					t.Errorf("content page %d resolved to the blank filler", p)
				}
			}
		}
	}
}

func TestShowInvalidLeavesState(t *testing.T) {
	c := mustCollection(t, 6, true)
	var rec recorder
	c.SetPresenter(&rec)
	if err := c.Show(3); err != nil {
		t.Fatal(err)
	}
	calls := rec.calls

	for _, p := range []int{-1, 6, 100} {
		if err := c.Show(p); !errors.Is(err, ErrInvalidPage) {
			t.Errorf("Show(%d) error = %v, want ErrInvalidPage", p, err)
		}
	}
	if c.CurrentPageIndex() != 3 || rec.calls != calls {
		t.Errorf("invalid Show changed state: page %d, %d presenter calls", c.CurrentPageIndex(), rec.calls)
	}
}

func TestNextThenPrev(t *testing.T) {
	for _, mode := range []Mode{Landscape, Portrait} {
		for _, n := range []int{6, 7, 9} {
			c := mustCollection(t, n, true)
			c.SetMode(mode)
			for p := 0; p < n; p++ {
				if err := c.Show(p); err != nil {
					t.Fatal(err)
				}
				spread := c.CurrentSpreadIndex()
				if c.IsLastSpread() {
					continue
				}
				if !c.ShowNext() {
					t.Fatalf("ShowNext from page %d failed", p)
				}
				if !c.ShowPrev() {
					t.Fatalf("ShowPrev failed")
				}
				if c.CurrentPageIndex() != p || c.CurrentSpreadIndex() != spread {
					t.Errorf("%v n=%d: next/prev from page %d landed on page %d spread %d",
						mode, n, p, c.CurrentPageIndex(), c.CurrentSpreadIndex())
				}
			}
		}
	}
}

func TestShowBounds(t *testing.T) {
	c := mustCollection(t, 4, true)
	if err := c.Show(0); err != nil {
		t.Fatal(err)
	}
	if c.ShowPrev() {
		t.Error("ShowPrev on the first spread moved")
	}
	if err := c.Show(3); err != nil {
		t.Fatal(err)
	}
	if c.ShowNext() {
		t.Error("ShowNext on the last spread moved")
	}
}

func TestPresenterSlots(t *testing.T) {
	c := mustCollection(t, 6, true)
	var rec recorder
	c.SetPresenter(&rec)
	var notified []int
	c.OnPageChange(func(p int) { notified = append(notified, p) })

	_ = c.Show(0)
	if rec.left != nil || rec.right != c.Slot(0) {
		t.Errorf("cover should show on the right")
	}
	_ = c.Show(2)
	if rec.left != c.Slot(1) || rec.right != c.Slot(2) {
		t.Errorf("pair not shown left/right")
	}
	_ = c.Show(5)
	if rec.left != c.Slot(5) || rec.right != nil {
		t.Errorf("back cover should show on the left")
	}
	if !slices.Equal(notified, []int{0, 2, 5}) {
		t.Errorf("notified %v", notified)
	}

	c.SetMode(Portrait)
	c.Refresh()
	if rec.left != nil || rec.right != c.Slot(5) || c.CurrentPageIndex() != 5 {
		t.Errorf("portrait refresh showed %v/%v", rec.left, rec.right)
	}
}

func TestFlippingAndBottomPages(t *testing.T) {
	c := mustCollection(t, 6, true)
	_ = c.Show(1) // spread [1,2]

	tests := []struct {
		dir              geom.Direction
		flipping, bottom int
	}{
		{geom.Forward, 3, 4},
		{geom.Back, 0, 0},
	}
	for _, tt := range tests {
		if got := c.FlippingPage(tt.dir); got != c.Slot(tt.flipping) {
			t.Errorf("FlippingPage(%v) = %v, want slot %d", tt.dir, got.Handle(), tt.flipping)
		}
		if got := c.BottomPage(tt.dir); got != c.Slot(tt.bottom) {
			t.Errorf("BottomPage(%v) = %v, want slot %d", tt.dir, got.Handle(), tt.bottom)
		}
	}

	_ = c.Show(3) // spread [3,4]
	if got := c.FlippingPage(geom.Back); got != c.Slot(2) {
		t.Errorf("back flipping = %v, want p2", got.Handle())
	}
	if got := c.BottomPage(geom.Back); got != c.Slot(1) {
		t.Errorf("back bottom = %v, want p1", got.Handle())
	}

	_ = c.Show(5)
	if c.FlippingPage(geom.Forward) != nil || c.BottomPage(geom.Forward) != nil {
		t.Error("forward flip from the last spread has pages")
	}
}

func TestPortraitFlippingPages(t *testing.T) {
	c := mustCollection(t, 5, true)
	c.SetMode(Portrait)
	_ = c.Show(2)

	fwd := c.FlippingPage(geom.Forward)
	cur, _ := c.Page(2)
	if !fwd.IsCopy() || fwd == cur || fwd.Handle() != cur.Handle() {
		t.Errorf("portrait forward flipping page should be a copy of the current page")
	}
	if next, _ := c.Page(3); c.BottomPage(geom.Forward) != next {
		t.Error("portrait forward bottom is not the next page")
	}
	if prev, _ := c.Page(1); c.FlippingPage(geom.Back) != prev {
		t.Error("portrait back flipping is not the previous page")
	}
	if c.BottomPage(geom.Back) != cur {
		t.Error("portrait back bottom is not the current page")
	}

	_ = c.Show(0)
	if c.FlippingPage(geom.Back) != nil {
		t.Error("portrait back flip from the first page has a page")
	}
}

func TestNextByPrevBy(t *testing.T) {
	c := mustCollection(t, 5, true)
	if got := c.NextBy(c.Slot(3)); got != c.Slot(4) || !got.IsBlank() {
		t.Errorf("NextBy(p3) should be the blank filler")
	}
	if c.PrevBy(c.Slot(0)) != nil || c.NextBy(c.Slot(5)) != nil {
		t.Error("NextBy/PrevBy past the ends")
	}
	if c.NextBy(New("stranger", Soft)) != nil {
		t.Error("NextBy of a foreign page")
	}
}

func TestDrawingDensity(t *testing.T) {
	p := New("x", Soft)
	p.SetDrawingDensity(Hard)
	if p.DrawingDensity() != Hard || p.Density() != Soft {
		t.Fatal("override not applied")
	}
	p.ClearDrawingDensity()
	if p.DrawingDensity() != Soft {
		t.Error("override not cleared")
	}
}

func TestSetCurrentSpreadIndex(t *testing.T) {
	c := mustCollection(t, 6, true)
	if err := c.SetCurrentSpreadIndex(4); !errors.Is(err, ErrInvalidSpread) {
		t.Errorf("SetCurrentSpreadIndex(4) = %v", err)
	}
	if err := c.SetCurrentSpreadIndex(2); err != nil || c.CurrentSpreadIndex() != 2 {
		t.Errorf("SetCurrentSpreadIndex(2) = %v", err)
	}
}

func TestNoPages(t *testing.T) {
	if _, err := NewCollection(nil, nil, true); !errors.Is(err, ErrNoPages) {
		t.Errorf("NewCollection(nil) = %v", err)
	}
}
