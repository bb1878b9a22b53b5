package apiserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/moolen/remedy/internal/governor"
	"github.com/moolen/remedy/internal/logging"
	"github.com/moolen/remedy/internal/status"
	"github.com/prometheus/client_golang/prometheus"
)

// ReadinessChecker is an interface for checking component readiness
type ReadinessChecker interface {
	IsReady() bool
}

// NoOpReadinessChecker is a ReadinessChecker that always returns true.
// Use this when no readiness checking is needed.
type NoOpReadinessChecker struct{}

// IsReady always returns true for the no-op checker.
func (n *NoOpReadinessChecker) IsReady() bool {
	return true
}

// Server exposes the agent's read-only status surface over HTTP: the
// status snapshot, the incident feed, Prometheus metrics, and the
// health/readiness probes. It never mutates agent state.
type Server struct {
	port             int
	server           *http.Server
	logger           *logging.Logger
	router           *http.ServeMux
	store            *status.Store
	governor         *governor.Governor
	registry         *prometheus.Registry
	readinessChecker ReadinessChecker
}

// New creates an API server reading from the given status store and
// governor. The registry backs the /metrics endpoint; pass the same
// registry the agent's metrics are registered on.
func New(port int, store *status.Store, gov *governor.Governor, registry *prometheus.Registry, readinessChecker ReadinessChecker) *Server {
	s := &Server{
		port:             port,
		logger:           logging.GetLogger("api"),
		router:           http.NewServeMux(),
		store:            store,
		governor:         gov,
		registry:         registry,
		readinessChecker: readinessChecker,
	}

	// Register all routes and handlers
	s.registerHandlers()

	// Configure HTTP server with CORS middleware and timeouts
	s.configureHTTPServer(port)

	return s
}

// configureHTTPServer creates the HTTP server with CORS middleware and
// appropriate timeouts
func (s *Server) configureHTTPServer(port int) {
	// Use router with CORS middleware as the main handler
	handler := s.corsMiddleware(s.router)

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// Start implements the lifecycle.Component interface.
// Starts the HTTP server and begins listening for requests.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting API server on port %d", s.port)

	// Check context isn't already cancelled
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	// Start HTTP server in a goroutine
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP server error: %v", err)
		}
	}()

	s.logger.Info("API server started and listening on port %d", s.port)
	return nil
}

// Stop implements the lifecycle.Component interface.
// Gracefully stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping API server...")

	done := make(chan error, 1)
	go func() {
		// Gracefully shutdown server
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		done <- s.server.Shutdown(shutdownCtx)
	}()

	select {
	case err := <-done:
		if err != nil {
			s.logger.Error("HTTP server shutdown error: %v", err)
			return err
		}
		s.logger.Info("API server stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("API server shutdown timeout")
		return ctx.Err()
	}
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status": "healthy",
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = WriteJSON(w, response)
}

// handleReady handles readiness check requests
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	// Check readiness if checker is available
	ready := s.readinessChecker != nil && s.readinessChecker.IsReady()

	response := map[string]interface{}{
		"ready": ready,
	}

	if ready {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	_ = WriteJSON(w, response)
}

// GetPort returns the port the server is listening on
func (s *Server) GetPort() int {
	return s.port
}

// IsRunning checks if the server is running
func (s *Server) IsRunning() bool {
	return s.server != nil
}

// Name implements the lifecycle.Component interface.
// Returns the human-readable name of the API server component.
func (s *Server) Name() string {
	return "API Server"
}
