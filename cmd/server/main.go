package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/pageflip/pageflip/internal/asset"
	"github.com/pageflip/pageflip/internal/auth"
	"github.com/pageflip/pageflip/internal/config"
	"github.com/pageflip/pageflip/internal/export"
	"github.com/pageflip/pageflip/internal/library"
	"github.com/pageflip/pageflip/internal/manifest"
	mw "github.com/pageflip/pageflip/internal/middleware"
	"github.com/pageflip/pageflip/internal/render"
	"github.com/pageflip/pageflip/internal/viewer"
)

type server struct {
	cfg    *config.Config
	books  *library.Service
	assets *asset.Store
	tokens *auth.Service
	hub    *viewer.Hub
}

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	books, err := library.NewService(cfg.BookDir)
	if err != nil {
		slog.Error("load books", "error", err)
		os.Exit(1)
	}
	if books.Len() == 0 {
		slog.Info("no books found, seeding sample", "dir", cfg.BookDir)
		books.Seed(manifest.NewSample("sample", 12))
	}

	hub := viewer.NewHub(viewer.WithTickRate(cfg.TickRate), viewer.WithLogger(slog.Default()))

	srv := &server{
		cfg:    cfg,
		books:  books,
		assets: asset.NewStore(cfg.AssetDir),
		tokens: auth.NewService(cfg.TokenSecret, cfg.TokenTTL),
		hub:    hub,
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      srv.routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")
		hub.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpSrv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr, "books", books.Len())
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func (s *server) routes() http.Handler {
	bookHandler := library.NewHandler(s.books, s.hub, s.tokens)
	assetHandler := asset.NewHandler(s.assets)
	exportHandler := export.NewHandler(s.hub, s.books, func(m *manifest.Manifest) render.ImageSource {
		return s.assets.Pages(m.Assets())
	})
	tokenHandler := auth.NewHandler(s.tokens)
	wsHandler := viewer.NewHandler(s.hub, s.tokens, s.cfg.Origins())

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(s.cfg.CORSOrigins()))

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Books
	r.HandleFunc("/books", bookHandler.List).Methods("GET")
	r.HandleFunc("/books", bookHandler.Create).Methods("POST", "OPTIONS")
	r.HandleFunc("/books/{bookId}", bookHandler.Get).Methods("GET")
	r.HandleFunc("/books/{bookId}", bookHandler.Delete).Methods("DELETE", "OPTIONS")
	r.HandleFunc("/books/{bookId}/sessions", bookHandler.OpenSession).Methods("POST", "OPTIONS")

	// Live sessions
	r.HandleFunc("/sessions/{sessionId}/snapshot.png", exportHandler.Snapshot).Methods("GET")
	r.Handle("/sessions/{sessionId}/token", s.tokens.ControllerOnly(http.HandlerFunc(tokenHandler.Refresh))).Methods("POST", "OPTIONS")
	r.HandleFunc("/ws/sessions/{sessionId}", wsHandler.ServeWS)

	// Page images
	r.HandleFunc("/assets/upload", assetHandler.Upload).Methods("POST", "OPTIONS")
	r.PathPrefix("/assets/").Handler(assetHandler.Serve()).Methods("GET")

	return r
}
