package book

import (
	"github.com/pageflip/pageflip/internal/flip"
	"github.com/pageflip/pageflip/internal/page"
)

// Event names a book notification.
type Event string

const (
	// EventFlip fires when the current page changes.
	EventFlip Event = "flip"
	// EventInit fires once pages are loaded and laid out.
	EventInit Event = "init"
	// EventOrientation fires when the book switches between one and two page display.
	EventOrientation Event = "orientationChanged"
	// EventState fires on every flip state transition.
	EventState Event = "stateChanged"
)

// EventData is the payload of an event. Page and Mode are current for every event; State
// is the new state for EventState.
type EventData struct {
	Event Event      `json:"event"`
	Page  int        `json:"page"`
	Mode  page.Mode  `json:"mode"`
	State flip.State `json:"state"`
}

// Listener receives book events.
type Listener func(EventData)

type subscription struct {
	id int
	fn Listener
}

// observers holds the listeners of one book.
type observers struct {
	next int
	subs map[Event][]subscription
}

func (o *observers) on(e Event, fn Listener) func() {
	if o.subs == nil {
		o.subs = make(map[Event][]subscription)
	}
	o.next++
	id := o.next
	o.subs[e] = append(o.subs[e], subscription{id: id, fn: fn})

	return func() {
		subs := o.subs[e]
		for i, s := range subs {
			if s.id == id {
				o.subs[e] = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}
}

func (o *observers) emit(data EventData) {
	// Listeners may unsubscribe while being called.
	subs := append([]subscription(nil), o.subs[data.Event]...)
	for _, s := range subs {
		s.fn(data)
	}
}

func (o *observers) clear() {
	o.subs = nil
}
