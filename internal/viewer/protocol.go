package viewer

import (
	"encoding/json"

	"github.com/pageflip/pageflip/internal/flip"
	"github.com/pageflip/pageflip/internal/page"
)

type Message struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId,omitempty"`
	ClientID  string          `json:"clientId,omitempty"`
	Seq       int64           `json:"seq,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

const (
	// Connection
	TypeWelcome = "welcome"
	TypeViewers = "viewers"
	TypeError   = "error"

	// Client input, accepted from controllers only
	TypePointerDown   = "pointer.down"
	TypePointerMove   = "pointer.move"
	TypePointerUp     = "pointer.up"
	TypePointerCancel = "pointer.cancel"
	TypePointerHover  = "pointer.hover"
	TypeNavNext       = "nav.next"
	TypeNavPrev       = "nav.prev"
	TypeNavGoto       = "nav.goto"
	TypeResize        = "resize"

	// Book output, broadcast to everyone
	TypeFrame       = "frame"
	TypeFlip        = "flip"
	TypeOrientation = "orientation"
	TypeState       = "state"
)

type WelcomePayload struct {
	SessionID  string `json:"sessionId"`
	BookID     string `json:"bookId"`
	ClientID   string `json:"clientId"`
	Controller bool   `json:"controller"`
}

type ViewersPayload struct {
	Count       int `json:"count"`
	Controllers int `json:"controllers"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// PointerPayload is a pointer position in container pixels. Target names the element
// under the pointer ("a", "button", ...) so interactive elements can be ignored.
type PointerPayload struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Touch  bool    `json:"touch,omitempty"`
	Target string  `json:"target,omitempty"`
}

// NavPayload carries the flip options of a nav.* message. Animate flips the page
// instead of jumping to it, from the bottom corner when Bottom is set.
type NavPayload struct {
	Page    int  `json:"page,omitempty"`
	Animate bool `json:"animate,omitempty"`
	Bottom  bool `json:"bottom,omitempty"`
}

type ResizePayload struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// FramePayload is a compiled frame together with the book state it shows.
type FramePayload struct {
	Commands  json.RawMessage `json:"commands"`
	Page      int             `json:"page"`
	PageCount int             `json:"pageCount"`
	Mode      page.Mode       `json:"mode"`
	State     flip.State      `json:"state"`
	Progress  float64         `json:"progress"`
}

type FlipPayload struct {
	Page int `json:"page"`
}

type OrientationPayload struct {
	Mode page.Mode `json:"mode"`
}

type StatePayload struct {
	State flip.State `json:"state"`
}

func newMessage(typ string, payload interface{}) *Message {
	msg := &Message{Type: typ}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return errorMessage("marshal " + typ)
		}
		msg.Payload = data
	}
	return msg
}

func errorMessage(text string) *Message {
	data, _ := json.Marshal(ErrorPayload{Message: text})
	return &Message{Type: TypeError, Payload: data}
}
