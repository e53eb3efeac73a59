// Package api provides the HTTP API server and handlers for the Daybook application.
package api

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/daybookapp/daybook-server/internal/composer"
	"github.com/daybookapp/daybook-server/internal/config"
	"github.com/daybookapp/daybook-server/internal/generator"
	"github.com/daybookapp/daybook-server/internal/index"
	"github.com/daybookapp/daybook-server/internal/mdns"
	"github.com/daybookapp/daybook-server/internal/mirror"
	"github.com/daybookapp/daybook-server/internal/ratelimit"
	"github.com/daybookapp/daybook-server/internal/repository"
	"github.com/daybookapp/daybook-server/internal/sse"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	cfg        *config.Config
	repo       *repository.Repository
	composer   *composer.Composer
	generator  *generator.Client
	mirror     *mirror.Store
	sseManager *sse.Manager
	sseHandler *sse.Handler
	limiter    *ratelimit.KeyedRateLimiter
	router     *chi.Mux
	api        huma.API
	logger     *slog.Logger

	navMu          sync.Mutex
	navigator      index.DayNavigator
	unsubscribeNav func()
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(cfg *config.Config, repo *repository.Repository, comp *composer.Composer, gen *generator.Client, mirrorStore *mirror.Store, sseManager *sse.Manager, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:        cfg,
		repo:       repo,
		composer:   comp,
		generator:  gen,
		mirror:     mirrorStore,
		sseManager: sseManager,
		sseHandler: sse.NewHandler(sseManager, logger),
		limiter:    ratelimit.New(cfg.Generator.RPS, cfg.Generator.Burst),
		router:     chi.NewRouter(),
		logger:     logger,
	}

	s.setupMiddleware()
	s.api = humachi.New(s.router, huma.DefaultConfig("Daybook API", mdns.ServerVersion))
	s.setupRoutes()

	// Keep the day cursor's list current on every mutation so reads of
	// the navigation state stay pure.
	s.unsubscribeNav = repo.OnChange(func(repository.Change) {
		s.navMu.Lock()
		s.navigator.Refresh(s.repo.Snapshot())
		s.navMu.Unlock()
	})

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close releases handler-owned resources.
func (s *Server) Close() {
	s.unsubscribeNav()
	s.limiter.Stop()
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))

	// The diary page may be served from a different origin during
	// development (e.g. vite on :5173), so keep CORS open on the LAN.
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	// Typed operations go through huma so they land in the OpenAPI doc.
	s.registerHealthRoutes()
	s.registerCalendarRoutes()
	s.registerStatsRoutes()

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Route("/entries", func(r chi.Router) {
			r.Get("/", s.handleListEntries)
			r.Post("/", s.handleSaveEntry)
			r.Get("/recent", s.handleRecentEntries)
			r.Get("/{id}", s.handleGetEntry)
			r.Delete("/{id}", s.handleDeleteEntry)
		})

		r.Get("/days/{date}", s.handleEntriesForDate)

		// Day cursor for the slideshow view.
		r.Route("/nav", func(r chi.Router) {
			r.Get("/", s.handleNavCurrent)
			r.Post("/select/{date}", s.handleNavSelect)
			r.Post("/prev", s.handleNavPrev)
			r.Post("/next", s.handleNavNext)
			r.Post("/clear", s.handleNavClear)
		})

		r.Route("/map", func(r chi.Router) {
			r.Get("/markers", s.handleMarkers)
			r.Get("/paths", s.handlePaths)
			r.Get("/hashtags", s.handleHashtags)
			r.Get("/searches", s.handleRecentSearches)
			r.Delete("/searches", s.handleClearSearches)
		})

		r.Route("/composer", func(r chi.Router) {
			r.Get("/", s.handleComposerState)
			r.Post("/new", s.handleComposerNew)
			r.Post("/edit/{id}", s.handleComposerEdit)
			r.Patch("/draft", s.handleComposerDraft)
			r.Post("/photos", s.handleComposerAttach)
			r.Delete("/photos/{index}", s.handleComposerRemovePhoto)
			r.Post("/representative/{index}", s.handleComposerSetRepresentative)
			r.Post("/commit", s.handleComposerCommit)
			r.Post("/reset", s.handleComposerReset)
		})

		r.With(RateLimitMiddleware(s.limiter, s.logger)).
			Post("/generate", s.handleGenerate)

		r.Get("/events", s.sseHandler.ServeHTTP)
	})
}
