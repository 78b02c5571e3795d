// Package server exposes portfolios and their performance over a JSON REST API.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/etnz/performance"
	"github.com/etnz/performance/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

// Config holds server configuration
type Config struct {
	Addr     string
	Log      zerolog.Logger
	Store    store.Store
	Composer *performance.Composer
	// Origins allowed by CORS, all when empty.
	Origins []string
}

// Server represents the HTTP server
type Server struct {
	router   *chi.Mux
	server   *http.Server
	log      zerolog.Logger
	store    store.Store
	composer *performance.Composer
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		log:      cfg.Log.With().Str("component", "server").Logger(),
		store:    cfg.Store,
		composer: cfg.Composer,
	}

	s.setupMiddleware(cfg.Origins)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) setupMiddleware(origins []string) {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api/portfolios", func(r chi.Router) {
		r.Get("/", s.handleListPortfolios)
		r.Post("/", s.handleCreatePortfolio)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetPortfolio)
			r.Put("/", s.handleRenamePortfolio)
			r.Delete("/", s.handleDeletePortfolio)
			r.Get("/performance", s.handlePerformance)

			r.Route("/holdings", func(r chi.Router) {
				r.Get("/", s.handleListHoldings)
				r.Post("/", s.handleAddHolding)

				r.Route("/{hid}", func(r chi.Router) {
					r.Get("/", s.handleGetHolding)
					r.Put("/", s.handleUpdateHolding)
					r.Delete("/", s.handleRemoveHolding)
					r.Get("/transactions", s.handleListTransactions)
					r.Post("/transactions", s.handleAddTransaction)
				})
			})
		})
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
