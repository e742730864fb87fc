package library

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/pageflip/pageflip/internal/auth"
	"github.com/pageflip/pageflip/internal/manifest"
	"github.com/pageflip/pageflip/internal/settings"
	"github.com/pageflip/pageflip/internal/viewer"
)

const maxManifestSize = 1 << 20

// SessionOpener starts live sessions on a book.
type SessionOpener interface {
	Open(m *manifest.Manifest) (*viewer.Session, error)
}

// TokenIssuer signs controller tokens for sessions.
type TokenIssuer interface {
	Issue(sessionID string) (*auth.Grant, error)
}

type Handler struct {
	service  *Service
	sessions SessionOpener
	tokens   TokenIssuer
}

func NewHandler(service *Service, sessions SessionOpener, tokens TokenIssuer) *Handler {
	return &Handler{service: service, sessions: sessions, tokens: tokens}
}

// SessionResponse tells the creator of a session how to drive it.
type SessionResponse struct {
	SessionID string    `json:"sessionId"`
	BookID    string    `json:"bookId"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Socket    string    `json:"socket"`
	Snapshot  string    `json:"snapshot"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.List())
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	m, err := h.service.Get(mux.Vars(r)["bookId"])
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// Create handles POST /books with a JSON manifest body.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxManifestSize)
	m, err := manifest.Decode(r.Body, settings.FormatJSON)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	m, err = h.service.Create(m)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m.Summary())
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(mux.Vars(r)["bookId"]); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// OpenSession handles POST /books/{bookId}/sessions. The caller receives the controller
// token; anyone else joining the session spectates.
func (h *Handler) OpenSession(w http.ResponseWriter, r *http.Request) {
	m, err := h.service.Get(mux.Vars(r)["bookId"])
	if err != nil {
		handleServiceError(w, err)
		return
	}

	s, err := h.sessions.Open(m)
	if err != nil {
		slog.Error("open session failed", "error", err, "book", m.ID)
		writeJSON(w, viewer.StatusFor(err), map[string]string{"error": "could not open session"})
		return
	}

	grant, err := h.tokens.Issue(s.ID)
	if err != nil {
		slog.Error("issue token failed", "error", err, "session", s.ID)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	writeJSON(w, http.StatusCreated, SessionResponse{
		SessionID: s.ID,
		BookID:    m.ID,
		Token:     grant.Token,
		ExpiresAt: grant.ExpiresAt,
		Socket:    "/ws/sessions/" + s.ID,
		Snapshot:  "/sessions/" + s.ID + "/snapshot.png",
	})
}

func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, ErrExists):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "book already exists"})
	case errors.Is(err, manifest.ErrNoPages), errors.Is(err, manifest.ErrDuplicatePage),
		errors.Is(err, manifest.ErrBadDensity):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		slog.Error("service error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
