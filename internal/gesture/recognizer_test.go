package gesture

import (
	"fmt"
	"testing"
	"time"

	"github.com/pageflip/pageflip/internal/geom"
	"github.com/pageflip/pageflip/internal/render"
	"github.com/pageflip/pageflip/internal/settings"
)

type recorder struct {
	calls []string
}

func (r *recorder) Fold(pos geom.Point) { r.calls = append(r.calls, "fold") }
func (r *recorder) Flip(pos geom.Point) {
	r.calls = append(r.calls, fmt.Sprintf("flip %v,%v", pos.X, pos.Y))
}
func (r *recorder) StopMove()                 { r.calls = append(r.calls, "stop") }
func (r *recorder) ShowCorner(pos geom.Point) { r.calls = append(r.calls, "corner") }
func (r *recorder) FlipNext(c geom.Corner) bool {
	r.calls = append(r.calls, "next "+c.String())
	return true
}
func (r *recorder) FlipPrev(c geom.Corner) bool {
	r.calls = append(r.calls, "prev "+c.String())
	return true
}

func (r *recorder) last() string {
	if len(r.calls) == 0 {
		return ""
	}
	return r.calls[len(r.calls)-1]
}

func (r *recorder) count(call string) int {
	n := 0
	for _, c := range r.calls {
		if c == call {
			n++
		}
	}
	return n
}

// layout is a book at the screen origin, 800x600.
type layout struct{}

func (layout) Rect() render.BoundsRect {
	return render.BoundsRect{Width: 800, Height: 600, PageWidth: 400}
}
func (layout) ToBook(p geom.Point) geom.Point { return p }

var t0 = time.Unix(1000, 0)

func at(ms int) time.Time { return t0.Add(time.Duration(ms) * time.Millisecond) }

func newRecognizer(mutate func(*settings.Settings)) (*Recognizer, *recorder) {
	s := settings.Default()
	if mutate != nil {
		mutate(&s)
	}
	rec := &recorder{}
	return New(s, rec, layout{}), rec
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		delta geom.Point
		want  Axis
	}{
		{"horizontal drag", geom.Pt(40, 5), AxisHorizontal},
		{"leftward drag", geom.Pt(-40, 5), AxisHorizontal},
		{"below threshold", geom.Pt(8, 9), AxisNone},
		{"vertical drag", geom.Pt(5, 40), AxisVertical},
		{"diagonal within tolerance", geom.Pt(25, 20), AxisVertical},
		{"diagonal beyond tolerance", geom.Pt(30, 20), AxisHorizontal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.delta, 10, 1.3); got != tt.want {
				t.Errorf("Classify(%v) = %v, want %v", tt.delta, got, tt.want)
			}
		})
	}
}

func TestHorizontalDragFolds(t *testing.T) {
	r, rec := newRecognizer(nil)

	r.Down(Event{Pos: geom.Pt(700, 100), Time: at(0)})
	res := r.Move(Event{Pos: geom.Pt(660, 105), Time: at(400)})
	if r.Axis() != AxisHorizontal {
		t.Fatalf("Axis() = %v, want horizontal", r.Axis())
	}
	if res.Kind != Fold || !res.PreventDefault {
		t.Errorf("Move = %+v, want a fold that prevents default", res)
	}

	r.Move(Event{Pos: geom.Pt(500, 120), Time: at(500)})
	res = r.Up(Event{Pos: geom.Pt(500, 120), Time: at(600)})
	if res.Kind != Release {
		t.Errorf("Up = %+v, want release", res)
	}
	if got := rec.count("fold"); got != 2 {
		t.Errorf("folds = %d, want 2", got)
	}
	if rec.last() != "stop" {
		t.Errorf("last call = %q, want stop", rec.last())
	}
}

func TestSwipe(t *testing.T) {
	tests := []struct {
		name string
		rtl  bool
		dx   float64
		y    float64
		want string
	}{
		{"left swipe turns forward", false, -150, 100, "next top"},
		{"right swipe turns back", false, 150, 500, "prev bottom"},
		{"right-to-left book reverses", true, -150, 100, "prev top"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, rec := newRecognizer(func(s *settings.Settings) { s.RTL = tt.rtl })
			start := geom.Pt(400, tt.y)
			end := geom.Pt(400+tt.dx, tt.y+10)

			r.Down(Event{Pos: start, Time: at(0), Touch: true})
			r.Move(Event{Pos: geom.Lerp(start, end, 0.5), Time: at(60), Touch: true})
			res := r.Up(Event{Pos: end, Time: at(120), Touch: true})

			if res.Kind != Swipe {
				t.Fatalf("Up = %+v, want swipe", res)
			}
			if rec.last() != tt.want {
				t.Errorf("calls = %v, want last %q", rec.calls, tt.want)
			}
			if rec.count("fold") != 0 || rec.count("stop") != 0 {
				t.Errorf("touch swipe folded the page: %v", rec.calls)
			}
		})
	}
}

func TestSlowDragIsNotSwipe(t *testing.T) {
	r, rec := newRecognizer(nil)
	r.Down(Event{Pos: geom.Pt(600, 100), Time: at(0)})
	r.Move(Event{Pos: geom.Pt(450, 100), Time: at(200)})
	res := r.Up(Event{Pos: geom.Pt(450, 100), Time: at(300)})
	if res.Kind != Release || rec.last() != "stop" {
		t.Errorf("Up = %+v, calls %v", res, rec.calls)
	}
}

func TestVerticalCancelsFold(t *testing.T) {
	r, rec := newRecognizer(nil)
	r.Down(Event{Pos: geom.Pt(700, 100), Time: at(0)})
	r.Move(Event{Pos: geom.Pt(670, 100), Time: at(100)})
	if rec.count("fold") != 1 {
		t.Fatalf("calls = %v, want one fold", rec.calls)
	}

	res := r.Move(Event{Pos: geom.Pt(665, 200), Time: at(200)})
	if res.Kind != Scroll || res.PreventDefault {
		t.Errorf("Move = %+v, want scroll", res)
	}
	if rec.last() != "stop" {
		t.Errorf("calls = %v, want fold released", rec.calls)
	}

	r.Move(Event{Pos: geom.Pt(600, 210), Time: at(300)})
	if res := r.Up(Event{Pos: geom.Pt(600, 210), Time: at(400)}); res.Kind != Scroll {
		t.Errorf("Up = %+v, want scroll", res)
	}
	if rec.count("fold") != 1 || rec.count("stop") != 1 {
		t.Errorf("calls = %v after scroll", rec.calls)
	}
}

func TestTap(t *testing.T) {
	r, rec := newRecognizer(nil)
	r.Down(Event{Pos: geom.Pt(700, 300), Time: at(0)})
	r.Move(Event{Pos: geom.Pt(702, 301), Time: at(50)})
	res := r.Up(Event{Pos: geom.Pt(702, 301), Time: at(100)})
	if res.Kind != Tap || rec.last() != "flip 702,301" {
		t.Errorf("Up = %+v, calls %v", res, rec.calls)
	}

	r.Down(Event{Pos: geom.Pt(700, 300), Time: at(0)})
	if res := r.Up(Event{Pos: geom.Pt(700, 300), Time: at(5000)}); res.Kind != None {
		t.Errorf("long press = %+v, want none", res)
	}
}

func TestInteractiveTarget(t *testing.T) {
	r, rec := newRecognizer(nil)
	if res := r.Down(Event{Pos: geom.Pt(700, 300), Time: at(0), Target: Element("A")}); res.Kind != Ignored {
		t.Errorf("Down on a link = %+v, want ignored", res)
	}
	if r.Active() {
		t.Error("sequence started on an interactive element")
	}
	r.Up(Event{Pos: geom.Pt(700, 300), Time: at(50)})
	if len(rec.calls) != 0 {
		t.Errorf("calls = %v", rec.calls)
	}

	r, _ = newRecognizer(func(s *settings.Settings) { s.IgnoreInteractive = false })
	if res := r.Down(Event{Pos: geom.Pt(700, 300), Time: at(0), Target: Element("button")}); res.Kind == Ignored {
		t.Error("Down ignored with IgnoreInteractive off")
	}
	if Element("div").Interactive() {
		t.Error("div is interactive")
	}
}

func TestHover(t *testing.T) {
	r, rec := newRecognizer(nil)
	if res := r.Move(Event{Pos: geom.Pt(790, 10), Time: at(0)}); res.Kind != Hover {
		t.Errorf("mouse move without a press = %+v, want hover", res)
	}
	if res := r.Move(Event{Pos: geom.Pt(790, 10), Time: at(0), Touch: true}); res.Kind != None {
		t.Errorf("touch move without a press = %+v", res)
	}
	r.Down(Event{Pos: geom.Pt(790, 10), Time: at(0)})
	if res := r.Hover(geom.Pt(790, 10)); res.Kind != None {
		t.Errorf("hover while pressed = %+v", res)
	}
	if rec.count("corner") != 1 {
		t.Errorf("calls = %v, want one corner", rec.calls)
	}
}

func TestCancel(t *testing.T) {
	r, rec := newRecognizer(nil)
	if res := r.Cancel(); res.Kind != None {
		t.Errorf("Cancel without a sequence = %+v", res)
	}
	r.Down(Event{Pos: geom.Pt(700, 100), Time: at(0)})
	r.Move(Event{Pos: geom.Pt(640, 100), Time: at(300)})
	if res := r.Cancel(); res.Kind != Release || rec.last() != "stop" {
		t.Errorf("Cancel = %+v, calls %v", res, rec.calls)
	}
	if r.Active() {
		t.Error("sequence still active after cancel")
	}
}
