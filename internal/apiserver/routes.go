package apiserver

import (
	"net/http"

	"github.com/moolen/remedy/internal/governor"
	"github.com/moolen/remedy/internal/status"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// registerHandlers registers all HTTP handlers
func (s *Server) registerHandlers() {
	// Status API
	s.router.HandleFunc("/api/status", s.withMethod(http.MethodGet, s.handleStatus))
	s.router.HandleFunc("/api/incidents", s.withMethod(http.MethodGet, s.handleIncidents))

	// Prometheus metrics
	if s.registry != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}

	// Health and readiness endpoints
	s.router.HandleFunc("/health", s.handleHealth)
	s.router.HandleFunc("/ready", s.handleReady)
}

// statusResponse is the /api/status payload: the loop's snapshot plus
// the governor's current occupancy.
type statusResponse struct {
	status.Snapshot
	Governor governor.Stats `json:"governor"`
}

// handleStatus returns the full agent state: counters, recent issues
// and actions, the bounded incident feed, and governor stats.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	response := statusResponse{
		Snapshot: s.store.Snapshot(),
		Governor: s.governor.Stats(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = WriteJSON(w, response)
}

// handleIncidents returns the incident feed, optionally filtered by the
// since query parameter (Unix seconds or a human-readable date).
func (s *Server) handleIncidents(w http.ResponseWriter, r *http.Request) {
	since, err := parseSince(r.URL.Query().Get("since"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	incidents := s.store.IncidentsSince(since)
	if incidents == nil {
		incidents = []status.IncidentEntry{}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = WriteJSON(w, incidents)
}
