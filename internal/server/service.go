// Package server exposes the archive query intents over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/thebtf/archivable/internal/config"
	gormdb "github.com/thebtf/archivable/internal/db/gorm"
)

// DefaultHTTPTimeout bounds every request when the config leaves it unset.
const DefaultHTTPTimeout = 30 * time.Second

// Service is the archive HTTP API.
type Service struct {
	startTime time.Time
	cfg       *config.Config
	store     *gormdb.Store
	entries   *gormdb.EntryStore
	comments  *gormdb.CommentStore
	router    *chi.Mux
	server    *http.Server
	wg        sync.WaitGroup
}

// New creates the service and its routes. The store must already be migrated.
func New(cfg *config.Config, store *gormdb.Store) *Service {
	s := &Service{
		startTime: time.Now(),
		cfg:       cfg,
		store:     store,
		entries:   gormdb.NewEntryStore(store, cfg.ArchiveOptions(gormdb.EntryTable)...),
		comments:  gormdb.NewCommentStore(store, cfg.ArchiveOptions(gormdb.CommentTable)...),
		router:    chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// Handler returns the HTTP handler serving all routes.
func (s *Service) Handler() http.Handler {
	return s.router
}

// setupMiddleware configures HTTP middleware.
func (s *Service) setupMiddleware() {
	timeout := s.cfg.HTTP.Timeout
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}

	s.router.Use(RequestID)
	s.router.Use(AccessLog)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(timeout))
	s.router.Use(middleware.RealIP)
	s.router.Use(SecurityHeaders)
}

// setupRoutes configures HTTP routes.
func (s *Service) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/api/health", s.handleHealth)

	s.router.Route("/api/entries", func(r chi.Router) {
		mountArchive(r, s, func(*http.Request) (*gormdb.ArchiveStore[gormdb.Entry], error) {
			return s.entries.ArchiveStore, nil
		})
		r.Get("/{id}", s.handleGetEntry)
	})

	s.router.Route("/api/comments", func(r chi.Router) {
		mountArchive(r, s, s.commentScope)
		r.Get("/{id}", s.handleGetComment)
	})
}

// Start starts the HTTP server in the background.
func (s *Service) Start() error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.HTTP.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("HTTP server error")
		}
	}()

	log.Info().
		Int("port", s.cfg.HTTP.Port).
		Str("dialect", s.store.Dialect().Name()).
		Msg("Archive API started")

	return nil
}

// Shutdown stops the HTTP server and waits for it to exit.
func (s *Service) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	err := s.server.Shutdown(ctx)
	s.wg.Wait()

	log.Info().
		Dur("uptime", time.Since(s.startTime)).
		Msg("Archive API stopped")
	return err
}
