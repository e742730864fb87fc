package render

import (
	"testing"
	"time"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func TestSchedulerTick(t *testing.T) {
	clock := newFakeClock()
	s := NewScheduler(clock)

	var frames []float64
	done := 0
	s.Start(AnimationFunc(func(t float64) { frames = append(frames, t) }), time.Second, func() { done++ })

	s.Tick(clock.now)
	clock.Advance(250 * time.Millisecond)
	s.Tick(clock.now)
	clock.Advance(time.Second)
	if !s.Tick(clock.now) {
		t.Fatal("Tick reported no animation")
	}

	want := []float64{0, 0.25, 1}
	if len(frames) != len(want) {
		t.Fatalf("frames = %v, want %v", frames, want)
	}
	for i := range want {
		if frames[i] != want[i] {
			t.Errorf("frames[%d] = %v, want %v", i, frames[i], want[i])
		}
	}
	if done != 1 || s.Active() {
		t.Errorf("done = %d, active = %v", done, s.Active())
	}
	if s.Tick(clock.now) {
		t.Error("Tick after completion ran an animation")
	}
}

func TestSchedulerStartFinishesPrevious(t *testing.T) {
	clock := newFakeClock()
	s := NewScheduler(clock)

	var order []string
	s.Start(AnimationFunc(func(t float64) {
		if t == 1 {
			order = append(order, "first:1")
		}
	}), time.Second, func() { order = append(order, "first:done") })
	s.Start(AnimationFunc(func(float64) {}), time.Second, func() { order = append(order, "second:done") })

	if len(order) != 2 || order[0] != "first:1" || order[1] != "first:done" {
		t.Fatalf("order = %v", order)
	}
	if !s.Active() {
		t.Fatal("second animation not running")
	}
	s.Finish()
	if order[len(order)-1] != "second:done" {
		t.Errorf("order = %v", order)
	}
}

func TestSchedulerHookMayStartNext(t *testing.T) {
	clock := newFakeClock()
	s := NewScheduler(clock)

	ran := false
	s.Start(AnimationFunc(func(float64) {}), 0, func() {
		s.Start(AnimationFunc(func(float64) { ran = true }), time.Second, nil)
	})
	s.Tick(clock.now)
	if !s.Active() {
		t.Fatal("animation started from a completion hook was dropped")
	}
	s.Tick(clock.now)
	if !ran {
		t.Error("chained animation never ticked")
	}
}
