package viewer

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/gorilla/mux"

	"github.com/pageflip/pageflip/internal/auth"
	"github.com/pageflip/pageflip/internal/typeid"
)

// TokenValidator resolves a controller token to the session it controls.
type TokenValidator interface {
	Validate(token string) (string, error)
}

// Handler upgrades /ws/sessions/{sessionId} requests into session clients. Requests that
// carry a valid controller token for the session may drive it; the rest spectate.
type Handler struct {
	hub     *Hub
	tokens  TokenValidator
	origins []string
}

func NewHandler(hub *Hub, tokens TokenValidator, origins []string) *Handler {
	return &Handler{hub: hub, tokens: tokens, origins: origins}
}

func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]
	s, err := h.hub.Get(sessionID)
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	controller := false
	if token := auth.TokenFromRequest(r); token != "" {
		id, err := h.tokens.Validate(token)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		if id != sessionID {
			http.Error(w, "token does not control this session", http.StatusForbidden)
			return
		}
		controller = true
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.origins,
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	client := NewClient(conn, typeid.NewClientID(), sessionID, controller)
	if !s.Join(client) {
		conn.Close(websocket.StatusGoingAway, ErrSessionClosed.Error())
		return
	}

	ctx := r.Context()
	go client.WritePump(ctx)
	client.ReadPump(ctx, s)
}

// StatusFor maps session errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrSessionClosed):
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}
