package render

import "time"

// Clock tells the scheduler when an animation starts.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Animation is a time-parameterised effect. Frame is called with t in [0, 1], and always with
// exactly 1 before the animation's completion hook runs.
type Animation interface {
	Frame(t float64)
}

// AnimationFunc adapts a function to Animation.
type AnimationFunc func(t float64)

func (f AnimationFunc) Frame(t float64) { f(t) }

type running struct {
	anim     Animation
	start    time.Time
	duration time.Duration
	done     func()
}

// Scheduler runs at most one animation at a time, advanced by Tick.
type Scheduler struct {
	clock  Clock
	active *running
}

// NewScheduler returns a scheduler timing animations against clock.
func NewScheduler(clock Clock) *Scheduler {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Scheduler{clock: clock}
}

// Start runs anim over duration. An animation already running is finished first, so its
// last frame and completion hook run before anim starts.
func (s *Scheduler) Start(anim Animation, duration time.Duration, done func()) {
	s.Finish()
	s.active = &running{anim: anim, start: s.clock.Now(), duration: duration, done: done}
}

// Finish jumps the running animation to its end and runs its completion hook.
func (s *Scheduler) Finish() {
	a := s.active
	if a == nil {
		return
	}
	// Cleared first: the hook may start the next animation.
	s.active = nil
	a.anim.Frame(1)
	if a.done != nil {
		a.done()
	}
}

// Active reports whether an animation is running.
func (s *Scheduler) Active() bool { return s.active != nil }

// Tick advances the running animation to now. It reports whether an animation ran.
func (s *Scheduler) Tick(now time.Time) bool {
	a := s.active
	if a == nil {
		return false
	}
	elapsed := now.Sub(a.start)
	if elapsed >= a.duration {
		s.Finish()
		return true
	}
	t := 0.0
	if elapsed > 0 {
		t = float64(elapsed) / float64(a.duration)
	}
	a.anim.Frame(t)
	return true
}
