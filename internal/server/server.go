// Package server provides the HTTP API for docsy.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/docsy/internal/config"
	"github.com/hyperjump/docsy/internal/indexer"
	"github.com/hyperjump/docsy/internal/search"
	"github.com/hyperjump/docsy/internal/storage"
	"github.com/hyperjump/docsy/internal/vector"
)

// WatchService manages inbox directories at runtime. *watcher.Watcher implements it.
type WatchService interface {
	Directories() []string
	AddDirectory(path string, syncExisting bool) error
	RemoveDirectory(path string) error
}

// Server is the HTTP server for the docsy API.
type Server struct {
	engine      *search.Engine
	indexer     *indexer.Indexer
	status      storage.StatusStore // optional
	vectorIndex vector.VectorIndex
	config      *config.Config
	configPath  string
	configMu    sync.Mutex
	watch       WatchService // optional
	logger      *zap.Logger
	server      *http.Server
}

// NewServer creates a server with the given dependencies. status and watch may
// be nil; the endpoints that need them then answer 501. When configPath is set,
// watch directory changes are persisted to it.
func NewServer(
	engine *search.Engine,
	idx *indexer.Indexer,
	status storage.StatusStore,
	vectorIndex vector.VectorIndex,
	cfg *config.Config,
	logger *zap.Logger,
	watch WatchService,
	configPath string,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		engine:      engine,
		indexer:     idx,
		status:      status,
		vectorIndex: vectorIndex,
		config:      cfg,
		configPath:  configPath,
		watch:       watch,
		logger:      logger,
	}
}

// Router returns the API routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/embeddings", s.handleIndexDocument)
		r.Delete("/embeddings", s.handleDeleteDocument)
		r.Delete("/notebooks/{id}/embeddings", s.handleDeleteNotebook)
		r.Post("/search", s.handleSearch)
		r.Post("/context", s.handleTurnContext)
		r.Post("/citations/render", s.handleRenderCitations)
		r.Get("/documents/{id}/status", s.handleDocumentStatus)
		r.Get("/notebooks/{id}/status", s.handleNotebookStatus)
		r.Get("/status", s.handleStatus)

		r.Get("/watch/directories", s.handleWatchDirectoriesList)
		r.Post("/watch/directories", s.handleWatchDirectoriesAdd)
		r.Delete("/watch/directories", s.handleWatchDirectoriesRemove)
	})
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
