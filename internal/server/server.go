// Package server provides the HTTP server and routing for the lotto engine.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/aristath/lotto/internal/config"
	"github.com/aristath/lotto/internal/database"
	"github.com/aristath/lotto/internal/events"
	"github.com/aristath/lotto/internal/metrics"
	"github.com/aristath/lotto/internal/modules/history"
	"github.com/aristath/lotto/internal/worker"
)

// Config holds server dependencies
type Config struct {
	Log       zerolog.Logger
	Config    *config.Config
	HistoryDB *database.DB
	History   *history.Service
	Worker    *worker.Worker
	Bus       *events.Bus
	Metrics   *metrics.Metrics
}

// Server represents the HTTP server
type Server struct {
	router  *chi.Mux
	server  *http.Server
	log     zerolog.Logger
	cfg     *config.Config
	metrics *metrics.Metrics

	system   *SystemHandlers
	history  *HistoryHandlers
	generate *GenerateHandlers
	tools    *ToolHandlers
	stream   *EventsStreamHandler
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	log := cfg.Log.With().Str("component", "server").Logger()

	s := &Server{
		router:   chi.NewRouter(),
		log:      log,
		cfg:      cfg.Config,
		metrics:  cfg.Metrics,
		system:   NewSystemHandlers(cfg.History, cfg.HistoryDB, cfg.Log),
		history:  NewHistoryHandlers(cfg.History, cfg.Log),
		generate: NewGenerateHandlers(cfg.History, cfg.Worker, cfg.Config.CORSOrigins, cfg.Log),
		tools:    NewToolHandlers(cfg.History, cfg.Metrics, cfg.OptimizerSeed(), cfg.Log),
		stream:   NewEventsStreamHandler(cfg.Bus, cfg.Log),
	}

	s.setupMiddleware(cfg.Config.DevMode, cfg.Config.CORSOrigins)
	s.setupRoutes()

	// No write deadline: streams and generations outlive one, and the API
	// group and the worker bound their own work
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Config.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return s
}

// OptimizerSeed returns the configured seed, 0 when unset
func (c Config) OptimizerSeed() int64 {
	if c.Config == nil {
		return 0
	}
	return c.Config.OptimizerSeed
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool, origins []string) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.metrics.Middleware)

	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Handle("/metrics", s.metrics.Handler())

	s.router.Route("/api", func(r chi.Router) {
		// Streaming routes and generations live outside the request timeout
		r.Get("/events/stream", s.stream.ServeHTTP)
		s.generate.RegisterRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))

			s.system.RegisterRoutes(r)
			s.history.RegisterRoutes(r)
			s.tools.RegisterRoutes(r)
		})
	})
}

// Router exposes the configured handler
func (s *Server) Router() http.Handler {
	return s.router
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	}, s.log)
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
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
