package viewer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pageflip/pageflip/internal/book"
	"github.com/pageflip/pageflip/internal/geom"
	"github.com/pageflip/pageflip/internal/gesture"
	"github.com/pageflip/pageflip/internal/logging"
	"github.com/pageflip/pageflip/internal/manifest"
	"github.com/pageflip/pageflip/internal/render"
)

var ErrSessionClosed = errors.New("session closed")

const (
	defaultTickRate    = 60
	defaultIdleTimeout = 10 * time.Minute
	defaultWidth       = 1200
	defaultHeight      = 800
)

type input struct {
	client *Client
	msg    *Message
}

type snapshot struct {
	frame render.Frame
	err   error
}

// SessionOption configures a Session.
type SessionOption func(*Session)

func WithTickRate(hz int) SessionOption {
	return func(s *Session) {
		if hz > 0 {
			s.tickEvery = time.Second / time.Duration(hz)
		}
	}
}

// WithIdleTimeout closes a session that has had no clients for d.
func WithIdleTimeout(d time.Duration) SessionOption {
	return func(s *Session) { s.idleTimeout = d }
}

func WithClock(c render.Clock) SessionOption {
	return func(s *Session) { s.clock = c }
}

func WithLogger(l *slog.Logger) SessionOption {
	return func(s *Session) { s.log = l }
}

// WithContainer sets the container size the book is laid out in until a client resizes it.
func WithContainer(width, height float64) SessionOption {
	return func(s *Session) {
		s.container.Width, s.container.Height = width, height
	}
}

// Session is one live book shared by every client watching it. The Book is owned by the
// goroutine running Run; everything else talks to it through channels.
type Session struct {
	ID     string
	BookID string

	log         *slog.Logger
	clock       render.Clock
	tickEvery   time.Duration
	idleTimeout time.Duration

	book      *book.Book
	container *book.Size
	clients   *roster
	idleSince time.Time
	last      []byte

	join      chan *Client
	leave     chan *Client
	input     chan input
	snapshots chan chan snapshot
	done      chan struct{}
}

// NewSession loads m into a fresh book. Run must be called for the session to serve
// clients.
func NewSession(id string, m *manifest.Manifest, opts ...SessionOption) (*Session, error) {
	s := &Session{
		ID:          id,
		BookID:      m.ID,
		clock:       render.SystemClock{},
		tickEvery:   time.Second / defaultTickRate,
		idleTimeout: defaultIdleTimeout,
		container:   &book.Size{Width: defaultWidth, Height: defaultHeight},
		clients:     newRoster(),
		join:        make(chan *Client),
		leave:       make(chan *Client),
		input:       make(chan input, 16),
		snapshots:   make(chan chan snapshot),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = logging.OrNop(s.log).With("session", id, "book", m.ID)

	b, err := book.New(s.container, m.Settings, book.WithClock(s.clock), book.WithLogger(s.log))
	if err != nil {
		return nil, fmt.Errorf("new session: %w", err)
	}
	if err := b.LoadPages(m.Sources(), m.BlankHandle()); err != nil {
		return nil, fmt.Errorf("new session: %w", err)
	}
	s.book = b
	s.idleSince = s.clock.Now()

	b.On(book.EventFlip, func(e book.EventData) {
		s.clients.broadcast(newMessage(TypeFlip, FlipPayload{Page: e.Page}))
	})
	b.On(book.EventOrientation, func(e book.EventData) {
		s.clients.broadcast(newMessage(TypeOrientation, OrientationPayload{Mode: e.Mode}))
	})
	b.On(book.EventState, func(e book.EventData) {
		s.clients.broadcast(newMessage(TypeState, StatePayload{State: e.State}))
	})
	return s, nil
}

// Run ticks the book and serves clients until ctx is cancelled or the session has been
// idle for the idle timeout.
func (s *Session) Run(ctx context.Context) {
	ticker := time.NewTicker(s.tickEvery)
	defer func() {
		ticker.Stop()
		s.close()
	}()

	s.log.Info("session started")
	for {
		select {
		case c := <-s.join:
			s.add(c)
		case c := <-s.leave:
			s.remove(c)
		case in := <-s.input:
			s.apply(in.client, in.msg)
		case reply := <-s.snapshots:
			f, err := s.book.Frame()
			reply <- snapshot{frame: f, err: err}
		case <-ticker.C:
			if !s.tick(s.clock.Now()) {
				s.log.Info("session idle")
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (s *Session) Done() <-chan struct{} { return s.done }

// Join attaches c. It reports false when the session has closed.
func (s *Session) Join(c *Client) bool {
	select {
	case s.join <- c:
		return true
	case <-s.done:
		return false
	}
}

func (s *Session) Leave(c *Client) {
	select {
	case s.leave <- c:
	case <-s.done:
	}
}

// Submit queues a client message. It reports false when the session has closed.
func (s *Session) Submit(ctx context.Context, c *Client, msg *Message) bool {
	select {
	case s.input <- input{client: c, msg: msg}:
		return true
	case <-s.done:
		return false
	case <-ctx.Done():
		return false
	}
}

// Snapshot returns the frame currently on screen.
func (s *Session) Snapshot(ctx context.Context) (render.Frame, error) {
	reply := make(chan snapshot, 1)
	select {
	case s.snapshots <- reply:
	case <-s.done:
		return render.Frame{}, ErrSessionClosed
	case <-ctx.Done():
		return render.Frame{}, ctx.Err()
	}
	select {
	case r := <-reply:
		return r.frame, r.err
	case <-ctx.Done():
		return render.Frame{}, ctx.Err()
	}
}

// --- Owned by the Run goroutine ---

func (s *Session) add(c *Client) {
	s.clients.add(c)
	c.Send(newMessage(TypeWelcome, WelcomePayload{
		SessionID:  s.ID,
		BookID:     s.BookID,
		ClientID:   c.ID,
		Controller: c.Controller,
	}))
	if msg := s.frameMessage(); msg != nil {
		c.Send(msg)
	}
	s.clients.broadcast(s.clients.viewersMessage())
	s.log.Info("client joined", "client", c.ID, "controller", c.Controller)
}

func (s *Session) remove(c *Client) {
	if !s.clients.remove(c) {
		return
	}
	if s.clients.len() == 0 {
		s.idleSince = s.clock.Now()
	}
	s.clients.broadcast(s.clients.viewersMessage())
	s.log.Info("client left", "client", c.ID)
}

// tick advances the book and publishes the frame if it changed. It reports false once the
// session has been idle too long.
func (s *Session) tick(now time.Time) bool {
	if s.clients.len() == 0 && s.idleTimeout > 0 && now.Sub(s.idleSince) >= s.idleTimeout {
		return false
	}
	if err := s.book.Tick(now); err != nil {
		s.log.Error("tick book", "error", err)
		return false
	}
	s.publish()
	return true
}

func (s *Session) apply(c *Client, msg *Message) {
	if !c.Controller {
		c.Send(errorMessage("spectators cannot send input"))
		return
	}
	if err := s.handle(msg); err != nil {
		s.log.Debug("client input", "client", c.ID, "type", msg.Type, "error", err)
		c.Send(errorMessage(err.Error()))
		return
	}
	s.publish()
}

func (s *Session) handle(msg *Message) error {
	switch msg.Type {
	case TypePointerDown, TypePointerMove, TypePointerUp:
		var p PointerPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return fmt.Errorf("invalid pointer payload: %w", err)
		}
		ev := s.pointerEvent(p)
		switch msg.Type {
		case TypePointerDown:
			s.book.PointerDown(ev)
		case TypePointerMove:
			s.book.PointerMove(ev)
		default:
			s.book.PointerUp(ev)
		}
		return nil

	case TypePointerHover:
		var p PointerPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return fmt.Errorf("invalid pointer payload: %w", err)
		}
		s.book.PointerHover(geom.Pt(p.X, p.Y))
		return nil

	case TypePointerCancel:
		s.book.PointerCancel()
		return nil

	case TypeNavNext, TypeNavPrev, TypeNavGoto:
		var p NavPayload
		if len(msg.Payload) > 0 {
			if err := json.Unmarshal(msg.Payload, &p); err != nil {
				return fmt.Errorf("invalid nav payload: %w", err)
			}
		}
		return s.navigate(msg.Type, p)

	case TypeResize:
		var p ResizePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return fmt.Errorf("invalid resize payload: %w", err)
		}
		if p.Width <= 0 || p.Height <= 0 {
			return fmt.Errorf("invalid container size %gx%g", p.Width, p.Height)
		}
		s.container.Width, s.container.Height = p.Width, p.Height
		return s.book.Resize()

	default:
		return fmt.Errorf("unknown message type %q", msg.Type)
	}
}

func (s *Session) navigate(typ string, p NavPayload) error {
	corner := geom.CornerTop
	if p.Bottom {
		corner = geom.CornerBottom
	}
	switch {
	case typ == TypeNavNext && p.Animate:
		return s.book.FlipNext(corner)
	case typ == TypeNavNext:
		return s.book.Next()
	case typ == TypeNavPrev && p.Animate:
		return s.book.FlipPrev(corner)
	case typ == TypeNavPrev:
		return s.book.Previous()
	case p.Animate:
		return s.book.FlipTo(p.Page, corner)
	default:
		return s.book.GoTo(p.Page)
	}
}

func (s *Session) pointerEvent(p PointerPayload) gesture.Event {
	ev := gesture.Event{Pos: geom.Pt(p.X, p.Y), Time: s.clock.Now(), Touch: p.Touch}
	if p.Target != "" {
		ev.Target = gesture.Element(p.Target)
	}
	return ev
}

// publish broadcasts the current frame when its draw commands changed since the last one.
func (s *Session) publish() {
	if s.clients.len() == 0 {
		return
	}
	commands, err := s.book.Commands()
	if err != nil {
		s.log.Error("compile frame", "error", err)
		return
	}
	if string(s.last) == commands {
		return
	}
	s.last = []byte(commands)
	s.clients.broadcast(s.buildFrame(commands))
}

func (s *Session) frameMessage() *Message {
	commands, err := s.book.Commands()
	if err != nil {
		s.log.Error("compile frame", "error", err)
		return nil
	}
	s.last = []byte(commands)
	return s.buildFrame(commands)
}

func (s *Session) buildFrame(commands string) *Message {
	return newMessage(TypeFrame, FramePayload{
		Commands:  json.RawMessage(commands),
		Page:      s.book.CurrentPageIndex(),
		PageCount: s.book.PageCount(),
		Mode:      s.book.OrientationMode(),
		State:     s.book.State(),
		Progress:  s.book.FlipProgress(),
	})
}

func (s *Session) close() {
	s.book.Destroy()
	s.clients.closeAll()
	close(s.done)
	s.log.Info("session closed")
}
