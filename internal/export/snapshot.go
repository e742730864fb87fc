package export

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/pageflip/pageflip/internal/manifest"
	"github.com/pageflip/pageflip/internal/render"
	"github.com/pageflip/pageflip/internal/viewer"
)

const snapshotTimeout = 5 * time.Second

// Sessions finds live sessions.
type Sessions interface {
	Get(id string) (*viewer.Session, error)
}

// Books finds book manifests.
type Books interface {
	Get(bookID string) (*manifest.Manifest, error)
}

// Handler renders what a live session currently shows.
type Handler struct {
	sessions Sessions
	books    Books
	images   func(m *manifest.Manifest) render.ImageSource
}

// NewHandler creates a snapshot handler. images builds the page image source for a book;
// nil draws every page plain.
func NewHandler(sessions Sessions, books Books, images func(m *manifest.Manifest) render.ImageSource) *Handler {
	return &Handler{sessions: sessions, books: books, images: images}
}

// Snapshot handles GET /sessions/{sessionId}/snapshot.png.
func (h *Handler) Snapshot(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Get(mux.Vars(r)["sessionId"])
	if err != nil {
		http.Error(w, "session not found", viewer.StatusFor(err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), snapshotTimeout)
	defer cancel()
	frame, err := s.Snapshot(ctx)
	if err != nil {
		status := viewer.StatusFor(err)
		if errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
		slog.Error("snapshot session", "error", err, "session", s.ID)
		http.Error(w, "snapshot failed", status)
		return
	}

	var src render.ImageSource
	if h.images != nil {
		if m, err := h.books.Get(s.BookID); err == nil {
			src = h.images(m)
		}
	}

	img, err := render.Rasterize(frame, src)
	if err != nil {
		slog.Error("rasterize snapshot", "error", err, "session", s.ID)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		slog.Error("encode snapshot", "error", err, "session", s.ID)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Write(buf.Bytes())
}
