// Package server assembles the HTTP surface: middleware stack, public
// share routes, the authenticated API, websocket events, and static
// screenshot files.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/flowdeckhq/flowdeck/internal/annotation"
	"github.com/flowdeckhq/flowdeck/internal/api"
	"github.com/flowdeckhq/flowdeck/internal/auth"
	"github.com/flowdeckhq/flowdeck/internal/db"
	"github.com/flowdeckhq/flowdeck/internal/events"
	"github.com/flowdeckhq/flowdeck/internal/search"
	"github.com/flowdeckhq/flowdeck/internal/session"
	"github.com/flowdeckhq/flowdeck/internal/share"
	"github.com/flowdeckhq/flowdeck/internal/storage"
	"github.com/flowdeckhq/flowdeck/internal/store"
	"github.com/flowdeckhq/flowdeck/internal/vision"
)

// Config holds server configuration.
type Config struct {
	Port     int
	FilesDir string // directory the local screenshot store serves from
	AllowAll bool   // allow all CORS origins (dev mode)
}

// Server wires every feature package behind one router.
type Server struct {
	cfg        Config
	db         *db.DB
	store      *store.Store
	sessions   *session.Manager
	files      storage.Store
	analyzer   vision.Provider
	index      *search.Index
	hub        *events.Hub
	tokens     *auth.Store
	router     chi.Router
	httpServer *http.Server
}

// New creates a server with all dependencies. The analyzer and index
// may be nil; the affected endpoints degrade rather than the whole
// server refusing to start.
func New(cfg Config, database *db.DB, st *store.Store, sessions *session.Manager, files storage.Store, analyzer vision.Provider, index *search.Index, hub *events.Hub) *Server {
	s := &Server{
		cfg:      cfg,
		db:       database,
		store:    st,
		sessions: sessions,
		files:    files,
		analyzer: analyzer,
		index:    index,
		hub:      hub,
		tokens:   auth.NewStore(database),
	}

	s.router = s.buildRouter()
	return s
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS
	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	// Health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Shared project views resolve their own tokens, so they sit
	// outside the auth middleware.
	share.RegisterPublicRoutes(r, share.NewStore(s.db), s.store)

	// Uploaded screenshots.
	if s.cfg.FilesDir != "" {
		fileServer := http.StripPrefix("/files/", http.FileServer(http.Dir(s.cfg.FilesDir)))
		r.Get("/files/*", fileServer.ServeHTTP)
	}

	// Everything else requires a token once any token exists.
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(s.tokens))

		handlers := api.NewHandlers(s.store, s.sessions, s.files, s.analyzer, s.index)
		handlers.RegisterRoutes(r)

		annotation.RegisterRoutes(r, annotation.NewStore(s.db))
		share.RegisterRoutes(r, share.NewStore(s.db), s.store)
		s.registerTokenRoutes(r)
		s.hub.RegisterRoutes(r)
	})

	return r
}

// Router returns the chi router, mainly for tests.
func (s *Server) Router() chi.Router { return s.router }

// Start begins listening on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("flowdeck server listening on %s", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
