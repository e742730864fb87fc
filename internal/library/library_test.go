package library

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/pageflip/pageflip/internal/auth"
	"github.com/pageflip/pageflip/internal/manifest"
	"github.com/pageflip/pageflip/internal/viewer"
)

const atlas = `title = "Atlas"

[[pages]]
id = "cover"
density = "hard"

[[pages]]
id = "map"
`

const journal = `{"title": "Journal", "pages": [{"id": "p1"}, {"id": "p2"}, {"id": "p3"}]}`

func newTestService(t *testing.T) (*Service, string) {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "atlas.toml"), []byte(atlas), 0644); err != nil {
		t.Fatal(err)
	}
	s, err := NewService(dir)
	if err != nil {
		t.Fatal(err)
	}
	return s, dir
}

func TestServiceCatalogue(t *testing.T) {
	s, dir := newTestService(t)
	if got := s.List(); len(got) != 1 || got[0].ID != "atlas" || got[0].Pages != 2 {
		t.Fatalf("List = %+v", got)
	}

	m, err := manifest.Decode(strings.NewReader(journal), "json")
	if err != nil {
		t.Fatal(err)
	}
	created, err := s.Create(m)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(created.ID, "book_") {
		t.Errorf("generated id %q", created.ID)
	}
	if _, err := s.Create(created); !errors.Is(err, ErrExists) {
		t.Errorf("second Create = %v, want ErrExists", err)
	}

	// Created books survive a reload.
	reloaded, err := NewService(dir)
	if err != nil {
		t.Fatal(err)
	}
	got, err := reloaded.Get(created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "Journal" || len(got.Pages) != 3 {
		t.Errorf("reloaded = %+v", got)
	}

	if err := s.Delete(created.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after Delete = %v", err)
	}
	if err := s.Delete(created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete = %v", err)
	}
}

func TestSeed(t *testing.T) {
	s, dir := newTestService(t)
	s.Seed(manifest.NewSample("sample", 6))
	if s.Len() != 2 {
		t.Fatalf("Len = %d", s.Len())
	}
	if _, err := os.Stat(filepath.Join(dir, "sample.json")); !os.IsNotExist(err) {
		t.Errorf("seeded book was written to disk: %v", err)
	}
}

func newTestRouter(t *testing.T) (*mux.Router, *auth.Service, *viewer.Hub) {
	t.Helper()
	s, _ := newTestService(t)
	hub := viewer.NewHub()
	t.Cleanup(hub.Stop)
	tokens := auth.NewService("secret", time.Hour)
	h := NewHandler(s, hub, tokens)

	r := mux.NewRouter()
	r.HandleFunc("/books", h.List).Methods("GET")
	r.HandleFunc("/books", h.Create).Methods("POST")
	r.HandleFunc("/books/{bookId}", h.Get).Methods("GET")
	r.HandleFunc("/books/{bookId}", h.Delete).Methods("DELETE")
	r.HandleFunc("/books/{bookId}/sessions", h.OpenSession).Methods("POST")
	return r, tokens, hub
}

func TestHandlers(t *testing.T) {
	r, _, _ := newTestRouter(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"list", "GET", "/books", "", http.StatusOK},
		{"get", "GET", "/books/atlas", "", http.StatusOK},
		{"get missing", "GET", "/books/nope", "", http.StatusNotFound},
		{"create", "POST", "/books", `{"id": "diary", "pages": [{"id": "a"}]}`, http.StatusCreated},
		{"create duplicate", "POST", "/books", `{"id": "atlas", "pages": [{"id": "a"}]}`, http.StatusConflict},
		{"create without pages", "POST", "/books", `{"id": "empty", "pages": []}`, http.StatusBadRequest},
		{"create bad density", "POST", "/books", `{"pages": [{"id": "a", "density": "stiff"}]}`, http.StatusBadRequest},
		{"delete", "DELETE", "/books/diary", "", http.StatusNoContent},
		{"delete missing", "DELETE", "/books/diary", "", http.StatusNotFound},
		{"session on missing book", "POST", "/books/nope/sessions", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.want, rec.Body)
			}
		})
	}
}

func TestOpenSession(t *testing.T) {
	r, tokens, hub := newTestRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("POST", "/books/atlas/sessions", nil))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	var resp SessionResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}

	if resp.BookID != "atlas" || resp.Socket != "/ws/sessions/"+resp.SessionID {
		t.Errorf("response = %+v", resp)
	}
	if _, err := hub.Get(resp.SessionID); err != nil {
		t.Errorf("session not running: %v", err)
	}
	if id, err := tokens.Validate(resp.Token); err != nil || id != resp.SessionID {
		t.Errorf("token controls %q, %v", id, err)
	}
}
