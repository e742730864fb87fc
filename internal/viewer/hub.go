package viewer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/pageflip/pageflip/internal/manifest"
	"github.com/pageflip/pageflip/internal/typeid"
)

var ErrSessionNotFound = errors.New("session not found")

// Hub owns the live sessions. Each session runs in its own goroutine and is dropped from
// the hub when it closes.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	opts     []SessionOption

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewHub creates a hub whose sessions are built with opts.
func NewHub(opts ...SessionOption) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		sessions: make(map[string]*Session),
		opts:     opts,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Open starts a new session showing m.
func (h *Hub) Open(m *manifest.Manifest) (*Session, error) {
	if h.ctx.Err() != nil {
		return nil, ErrSessionClosed
	}
	s, err := NewSession(typeid.NewSessionID(), m, h.opts...)
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}

	h.mu.Lock()
	h.sessions[s.ID] = s
	h.mu.Unlock()

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		s.Run(h.ctx)

		h.mu.Lock()
		delete(h.sessions, s.ID)
		h.mu.Unlock()
	}()

	slog.Info("session opened", "session", s.ID, "book", m.ID)
	return s, nil
}

func (h *Hub) Get(id string) (*Session, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	s, ok := h.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

// Len is the number of live sessions.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Stop closes every session and waits for their goroutines to exit.
func (h *Hub) Stop() {
	h.cancel()
	h.wg.Wait()
	slog.Info("hub stopped")
}
