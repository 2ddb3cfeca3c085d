// Package server provides HTTP server management and lifecycle handling
// for the rxprice API: router setup, middleware configuration, route
// management, and graceful shutdown.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rxpricedb/rxprice-api/config"
	"github.com/rxpricedb/rxprice-api/handlers"
	"github.com/rxpricedb/rxprice-api/interfaces"
	"github.com/rxpricedb/rxprice-api/logging"
	"github.com/rxpricedb/rxprice-api/metrics"
	"github.com/rxpricedb/rxprice-api/resolver"
	"github.com/rxpricedb/rxprice-api/viewer"
)

// Server represents the HTTP server
type Server struct {
	server     *http.Server
	router     chi.Router
	controller *viewer.Controller
	validator  interfaces.DataValidator
	checker    interfaces.HealthChecker
	resolver   *resolver.Client
	config     *config.Config
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config, controller *viewer.Controller, validator interfaces.DataValidator, checker interfaces.HealthChecker, resolverClient *resolver.Client) *Server {
	router := chi.NewRouter()

	server := &Server{
		server: &http.Server{
			Handler:      router,
			Addr:         cfg.Address + ":" + cfg.Port,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		router:     router,
		controller: controller,
		validator:  validator,
		checker:    checker,
		resolver:   resolverClient,
		config:     cfg,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures all middleware
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(BlockDirectAccessMiddleware) // Put BEFORE RealIPMiddleware to see original RemoteAddr
	s.router.Use(RealIPMiddleware)
	s.router.Use(logging.LoggingMiddleware(logging.DefaultLoggingService.Logger))
	s.router.Use(metrics.Middleware)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	s.router.Use(middleware.RedirectSlashes)
	s.router.Use(middleware.Recoverer)
	s.router.Use(RequestSizeMiddleware(s.config))
	s.router.Use(RateLimitHandler)
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/database/{pageNumber}", handlers.ServePagedRecords(s.controller, s.validator))
	s.router.Get("/database", handlers.ServeAllRecords(s.controller))
	s.router.Get("/records/{rxcui}", handlers.FindRecord(s.controller, s.validator))
	s.router.Get("/browse", handlers.Browse(s.controller, s.validator))
	s.router.Get("/stats", handlers.StatsHandler(s.controller))
	s.router.Get("/resolve", handlers.ResolveName(s.resolver, s.validator))
	s.router.Post("/refresh", handlers.RefreshHandler(s.controller))
	s.router.Get("/health", handlers.HealthCheckHandler(s.checker))
	s.router.Handle("/metrics", promhttp.Handler())
}

// Start starts the server
func (s *Server) Start() error {
	// Start profiling server if in development mode
	if s.config.Env == "dev" {
		s.startProfilingServer()
	}

	logging.Info(fmt.Sprintf("Starting server at: %s:%s", s.config.Address, s.config.Port))
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down server...")

	if err := s.server.Shutdown(ctx); err != nil {
		logging.Error("Server forced to shutdown", "error", err)
		// If graceful shutdown fails, force close
		if err := s.server.Close(); err != nil {
			logging.Error("Server close error", "error", err)
			return err
		}
	}

	logging.Info("Server shutdown complete")
	return nil
}

// Router exposes the configured router, mainly for tests.
func (s *Server) Router() chi.Router {
	return s.router
}

// startProfilingServer starts the pprof profiling server in development mode
func (s *Server) startProfilingServer() {
	go func() {
		logging.Info("Profiling server started at http://localhost:6060/debug/pprof/")
		if err := http.ListenAndServe("localhost:6060", nil); err != nil {
			logging.Error("Profiling server failed", "error", err)
		}
	}()
}
