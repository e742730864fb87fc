package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pageflip/pageflip/internal/asset"
	"github.com/pageflip/pageflip/internal/auth"
	"github.com/pageflip/pageflip/internal/config"
	"github.com/pageflip/pageflip/internal/library"
	"github.com/pageflip/pageflip/internal/manifest"
	"github.com/pageflip/pageflip/internal/viewer"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	books, err := library.NewService(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	books.Seed(manifest.NewSample("sample", 6))
	hub := viewer.NewHub()
	t.Cleanup(hub.Stop)

	s := &server{
		cfg:    &config.Config{AllowedOrigins: "http://localhost:5173"},
		books:  books,
		assets: asset.NewStore(t.TempDir()),
		tokens: auth.NewService("secret", time.Hour),
		hub:    hub,
	}
	return s.routes()
}

func do(t *testing.T, h http.Handler, method, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRoutes(t *testing.T) {
	h := newTestServer(t)

	if rec := do(t, h, "GET", "/health", ""); rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "ok") {
		t.Fatalf("health = %d %s", rec.Code, rec.Body)
	}
	if rec := do(t, h, "GET", "/books/sample", ""); rec.Code != http.StatusOK {
		t.Fatalf("get book = %d", rec.Code)
	}

	rec := do(t, h, "POST", "/books/sample/sessions", "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("open session = %d %s", rec.Code, rec.Body)
	}
	var sess library.SessionResponse
	if err := json.NewDecoder(rec.Body).Decode(&sess); err != nil {
		t.Fatal(err)
	}

	if rec := do(t, h, "GET", sess.Snapshot, ""); rec.Code != http.StatusOK {
		t.Errorf("snapshot = %d", rec.Code)
	}
	if rec := do(t, h, "POST", "/sessions/"+sess.SessionID+"/token", sess.Token); rec.Code != http.StatusOK {
		t.Errorf("refresh token = %d", rec.Code)
	}
	if rec := do(t, h, "POST", "/sessions/"+sess.SessionID+"/token", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("refresh without token = %d", rec.Code)
	}
	if rec := do(t, h, "GET", "/assets/asset_missing.png", ""); rec.Code != http.StatusNotFound {
		t.Errorf("missing asset = %d", rec.Code)
	}
}
