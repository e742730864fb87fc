package reel

import (
	"context"
	"errors"
	"image"
	"strings"
	"testing"
	"time"

	"github.com/pageflip/pageflip/internal/manifest"
)

// smallBook is a 6 page book of 100x150 pages, landscape in a 240x180 container.
func smallBook() *manifest.Manifest {
	m := manifest.NewSample("reel", 6)
	m.Settings.Width, m.Settings.Height = 100, 150
	m.Settings.FlipDuration.Duration = 300 * time.Millisecond
	for i := range m.Pages {
		m.Pages[i].Density = "soft"
	}
	return m
}

type memory struct{ frames []image.Image }

func (m *memory) sink(i int, img image.Image) error {
	m.frames = append(m.frames, img)
	return nil
}

func newTestRecorder(t *testing.T) (*Recorder, *memory) {
	t.Helper()
	mem := &memory{}
	r, err := NewRecorder(smallBook(), 240, 180, 30, mem.sink)
	if err != nil {
		t.Fatal(err)
	}
	return r, mem
}

func TestNewRecorderRejectsFPS(t *testing.T) {
	if _, err := NewRecorder(smallBook(), 240, 180, 0, (&memory{}).sink); err == nil {
		t.Error("accepted 0 fps")
	}
}

func TestFlipNextRecordsFrames(t *testing.T) {
	r, mem := newTestRecorder(t)
	if err := r.FlipNext(); err != nil {
		t.Fatal(err)
	}
	if got := r.Book().CurrentPageIndex(); got != 1 {
		t.Errorf("page = %d, want 1", got)
	}
	if len(mem.frames) == 0 {
		t.Fatal("no frames recorded")
	}
	if r.Frames() != len(mem.frames) {
		t.Errorf("Frames() = %d, sink saw %d", r.Frames(), len(mem.frames))
	}
	if b := mem.frames[0].Bounds(); b.Dx() != 240 || b.Dy() != 180 {
		t.Errorf("frame size = %v", b)
	}
}

func TestWait(t *testing.T) {
	tests := []struct {
		fps  int
		d    time.Duration
		want int
	}{
		{30, time.Second, 30},
		{30, 500 * time.Millisecond, 15},
		{60, time.Second, 60},
		{60, 3 * time.Second, 180},
		{24, time.Second, 24},
		{30, 0, 0},
	}
	for _, tt := range tests {
		mem := &memory{}
		r, err := NewRecorder(smallBook(), 240, 180, tt.fps, mem.sink)
		if err != nil {
			t.Fatal(err)
		}
		if err := r.Wait(tt.d); err != nil {
			t.Fatal(err)
		}
		if len(mem.frames) != tt.want {
			t.Errorf("Wait(%s) at %d fps: frames = %d, want %d", tt.d, tt.fps, len(mem.frames), tt.want)
		}
	}
}

func TestRange(t *testing.T) {
	tests := []struct {
		from, to int
		want     int
	}{
		{0, 3, 3},
		{5, 1, 1},
		{2, 2, 2},
	}
	for _, tt := range tests {
		r, _ := newTestRecorder(t)
		if err := r.Range(tt.from, tt.to); err != nil {
			t.Fatalf("Range(%d, %d): %v", tt.from, tt.to, err)
		}
		if !r.showing(tt.want) {
			t.Errorf("Range(%d, %d) ended on page %d", tt.from, tt.to, r.Book().CurrentPageIndex())
		}
	}

	r, _ := newTestRecorder(t)
	if err := r.Range(40, 1); err == nil {
		t.Error("Range accepted a missing start page")
	}
}

func TestDrag(t *testing.T) {
	r, _ := newTestRecorder(t)
	// Book bounds are 200x150 centred in 240x180: x 20..220, y 15..165.
	if err := r.Drag(210, 25, 40, 40); err != nil {
		t.Fatal(err)
	}
	if got := r.Book().CurrentPageIndex(); got != 1 {
		t.Errorf("page after drag = %d, want 1", got)
	}
}

func TestRunScript(t *testing.T) {
	r, mem := newTestRecorder(t)
	script := `
		book.flipNext();
		book.wait(100);
		if (book.page !== 1) { throw new Error("page " + book.page); }
		book.goTo(book.pageCount - 1);
		log("done", book.frames);
	`
	if err := RunScript(context.Background(), r, script); err != nil {
		t.Fatal(err)
	}
	if got := r.Book().CurrentPageIndex(); got != 5 {
		t.Errorf("page = %d, want 5", got)
	}
	if len(mem.frames) == 0 {
		t.Error("no frames recorded")
	}
}

func TestRunScriptErrors(t *testing.T) {
	r, _ := newTestRecorder(t)
	if err := RunScript(context.Background(), r, `book.goTo(99)`); err == nil || !strings.Contains(err.Error(), "run script") {
		t.Errorf("goTo(99) = %v", err)
	}
	if err := RunScript(context.Background(), r, `book.flipNext(`); err == nil {
		t.Error("syntax error not reported")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := RunScript(ctx, r, `for (;;) {}`); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("endless script = %v", err)
	}
}
