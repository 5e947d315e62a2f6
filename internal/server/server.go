package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/rosterapi/roster/internal/handler"
	"github.com/rosterapi/roster/internal/openapi"
	"github.com/rosterapi/roster/internal/router"
	"github.com/rosterapi/roster/internal/server/middleware"
	"github.com/rosterapi/roster/internal/service"
	"github.com/rosterapi/roster/internal/storage"
)

// Config holds the HTTP server configuration.
type Config struct {
	Host            string
	Port            int
	BasePath        string
	ShutdownTimeout time.Duration
	CORSOrigins     []string
	RateLimitMax    int
	RateLimitWindow time.Duration
	Version         string
}

// DefaultConfig returns a Config with sensible production defaults.
func DefaultConfig() Config {
	return Config{
		Host:            "0.0.0.0",
		Port:            8080,
		BasePath:        "/api/v1",
		ShutdownTimeout: 30 * time.Second,
		CORSOrigins:     []string{"*"},
		RateLimitMax:    100,
		RateLimitWindow: time.Hour,
		Version:         "dev",
	}
}

// Server is the top-level HTTP server for the student API. It owns the outer
// Chi router, the ordered API route table, the store, and the auth service.
type Server struct {
	cfg        Config
	router     chi.Router
	store      *storage.Store
	authSvc    *service.AuthService
	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a new Server, wires up all routes and middleware, and returns
// it ready to listen. Call ListenAndServe to start accepting connections.
func New(cfg Config, store *storage.Store, authSvc *service.AuthService, logger *slog.Logger) *Server {
	s := &Server{
		cfg:     cfg,
		store:   store,
		authSvc: authSvc,
		logger:  logger,
	}
	s.setupRouter()
	return s
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// --- Global middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(s.logger))
	r.Use(middleware.Recover(s.logger))
	r.Use(chimw.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders: []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		MaxAge:         300,
	}))
	r.Use(chimw.Compress(5))

	// --- Infrastructure probes (no auth required) ---
	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)
	r.Get("/openapi.json", s.handleOpenAPI)

	// --- API route table ---
	// Middleware run in registration order: the rate limiter sees every
	// request, the authenticator everything but login. Route order matters:
	// a linear first-match-wins scan means specific patterns must precede
	// placeholder patterns that would shadow them.
	api := router.New(s.cfg.BasePath)
	api.Use(middleware.RateLimit(s.cfg.RateLimitMax, s.cfg.RateLimitWindow))
	api.Use(middleware.Authenticate(s.authSvc))

	authHandler := handler.NewAuthHandler(s.authSvc)
	studentHandler := handler.NewStudentHandler(s.store, s.logger)
	systemHandler := handler.NewSystemHandler(s.cfg.Version)

	api.Handle("POST", "/auth/login", authHandler.Login)
	api.Handle("GET", "/students", studentHandler.List)
	api.Handle("GET", "/students/{id}", studentHandler.Get)
	api.Handle("POST", "/students", studentHandler.Create)
	api.Handle("PUT", "/students/{id}", studentHandler.Update)
	api.Handle("DELETE", "/students/{id}", studentHandler.Delete)
	api.Handle("GET", "/health", systemHandler.Health)
	api.Handle("GET", "/", systemHandler.Index)

	r.Mount(s.cfg.BasePath, api)

	s.router = r
}

// handleHealthz is a liveness probe. Returns 200 if the process is running.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// handleReadyz is a readiness probe. Returns 200 when the database is
// reachable, or 503 otherwise.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	httpStatus := http.StatusOK

	if err := s.store.Ping(r.Context()); err != nil {
		status = "degraded: " + err.Error()
		httpStatus = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	json.NewEncoder(w).Encode(map[string]string{"status": status})
}

// handleOpenAPI serves the generated OpenAPI document.
func (s *Server) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	doc := openapi.Generate(s.cfg.BasePath, s.cfg.Version)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(doc)
}

// ListenAndServe starts the HTTP server and blocks until a SIGINT or SIGTERM
// is received. It then performs a graceful shutdown, draining in-flight
// requests before returning.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", addr, "base_path", s.cfg.BasePath)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server listen: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutdown signal received, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}

// Router returns the underlying Chi router, useful for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ServeHTTP implements http.Handler, delegating to the router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
