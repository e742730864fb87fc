package asset

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/pageflip/pageflip/internal/typeid"
)

const maxUploadSize = 10 << 20 // 10MB

// acceptedTypes are the page image formats Save can decode.
var acceptedTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
}

// UploadResponse describes a stored page image. Aspect is width over height, so a manifest
// author can size the book to the artwork.
type UploadResponse struct {
	ID     string  `json:"id"`
	URL    string  `json:"url"`
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Aspect float64 `json:"aspect"`
	Name   string  `json:"name"`
}

// Handler serves page image upload and retrieval endpoints.
type Handler struct {
	store *Store
}

// NewHandler creates a handler over store.
func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

// Upload handles POST /assets/upload (multipart form with a "file" field).
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "page image too large (max 10MB)", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	mediaType, _, _ := mime.ParseMediaType(header.Header.Get("Content-Type"))
	if !acceptedTypes[mediaType] {
		http.Error(w, "page images must be PNG or JPEG", http.StatusBadRequest)
		return
	}

	id, img, err := h.store.Save(file)
	if err != nil {
		slog.Warn("save page image", "name", header.Filename, "error", err)
		http.Error(w, "invalid image", http.StatusBadRequest)
		return
	}

	b := img.Bounds()
	resp := UploadResponse{
		ID:     id,
		URL:    fmt.Sprintf("/assets/%s.png", id),
		Width:  b.Dx(),
		Height: b.Dy(),
		Name:   header.Filename,
	}
	if b.Dy() > 0 {
		resp.Aspect = float64(b.Dx()) / float64(b.Dy())
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}

// Serve returns an http.Handler for GET /assets/{id}.png. Anything that is not an asset id
// is a 404; stored files never change, so responses are cached indefinitely.
func (h *Handler) Serve() http.Handler {
	fs := http.FileServer(http.Dir(h.store.Dir()))
	return http.StripPrefix("/assets/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := path.Clean(r.URL.Path)
		id, ok := strings.CutSuffix(name, ".png")
		if !ok || typeid.Validate(id, typeid.PrefixAsset) != nil {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		fs.ServeHTTP(w, r)
	}))
}
