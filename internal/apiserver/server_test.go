package apiserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/moolen/remedy/internal/governor"
	"github.com/moolen/remedy/internal/models"
	"github.com/moolen/remedy/internal/status"
	"github.com/prometheus/client_golang/prometheus"
)

type mockReadinessChecker struct {
	ready bool
}

func (m *mockReadinessChecker) IsReady() bool {
	return m.ready
}

func newTestServer(ready bool) (*Server, *status.Store, *governor.Governor) {
	registry := prometheus.NewRegistry()
	store := status.NewStore(status.NewMetrics(registry))
	gov := governor.New(governor.Limits{MaxActionsPerHour: 10, Cooldown: time.Minute})
	server := New(8090, store, gov, registry, &mockReadinessChecker{ready: ready})
	return server, store, gov
}

func serveRequest(server *Server, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	rr := httptest.NewRecorder()
	server.server.Handler.ServeHTTP(rr, req)
	return rr
}

// TestServerRoutes verifies all registered endpoints respond.
func TestServerRoutes(t *testing.T) {
	server, _, _ := newTestServer(true)

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
	}{
		{"health check", http.MethodGet, "/health", http.StatusOK},
		{"readiness check", http.MethodGet, "/ready", http.StatusOK},
		{"status endpoint", http.MethodGet, "/api/status", http.StatusOK},
		{"incidents endpoint", http.MethodGet, "/api/incidents", http.StatusOK},
		{"metrics endpoint", http.MethodGet, "/metrics", http.StatusOK},
		{"not found", http.MethodGet, "/nonexistent", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serveRequest(server, tt.method, tt.path)
			if rr.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rr.Code)
			}
		})
	}
}

// TestServerMethodEnforcement verifies the API endpoints reject
// non-GET methods.
func TestServerMethodEnforcement(t *testing.T) {
	server, _, _ := newTestServer(true)

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
	}{
		{"GET status allowed", http.MethodGet, "/api/status", http.StatusOK},
		{"POST status not allowed", http.MethodPost, "/api/status", http.StatusMethodNotAllowed},
		{"PUT status not allowed", http.MethodPut, "/api/status", http.StatusMethodNotAllowed},
		{"DELETE incidents not allowed", http.MethodDelete, "/api/incidents", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serveRequest(server, tt.method, tt.path)
			if rr.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rr.Code)
			}
		})
	}
}

// TestServerReadinessCheck verifies /ready reflects the checker state.
func TestServerReadinessCheck(t *testing.T) {
	tests := []struct {
		name       string
		ready      bool
		wantStatus int
	}{
		{"ready", true, http.StatusOK},
		{"not ready", false, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, _, _ := newTestServer(tt.ready)

			rr := serveRequest(server, http.MethodGet, "/ready")
			if rr.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rr.Code)
			}

			var resp map[string]interface{}
			if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to unmarshal response: %v", err)
			}
			if ready, ok := resp["ready"].(bool); !ok || ready != tt.ready {
				t.Errorf("expected ready=%v, got %v", tt.ready, resp["ready"])
			}
		})
	}
}

// TestHandleStatus verifies /api/status carries the loop counters and
// governor occupancy.
func TestHandleStatus(t *testing.T) {
	server, store, gov := newTestServer(true)

	store.SetConfig(true, []string{"prod"})
	store.SetStatus(status.StateRunning)
	store.RecordCheck([]models.IssueRecord{
		models.RecordIssue(models.CrashLoopBackOff{
			PodName:       "web-1",
			PodNamespace:  "prod",
			ContainerName: "app",
			Restarts:      7,
			At:            time.Now(),
		}),
	})
	if !gov.Approve("delete:prod/web-1") {
		t.Fatalf("expected approval to succeed")
	}

	rr := serveRequest(server, http.MethodGet, "/api/status")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var resp struct {
		Status         string               `json:"status"`
		ChecksTotal    int64                `json:"checks_total"`
		IssuesDetected int64                `json:"issues_detected"`
		DryRun         bool                 `json:"dry_run"`
		Namespaces     []string             `json:"namespaces"`
		RecentIssues   []models.IssueRecord `json:"recent_issues"`
		Governor       governor.Stats       `json:"governor"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}

	if resp.Status != "running" {
		t.Errorf("expected status running, got %s", resp.Status)
	}
	if resp.ChecksTotal != 1 {
		t.Errorf("expected 1 check, got %d", resp.ChecksTotal)
	}
	if resp.IssuesDetected != 1 {
		t.Errorf("expected 1 issue, got %d", resp.IssuesDetected)
	}
	if !resp.DryRun {
		t.Errorf("expected dry_run true")
	}
	if len(resp.RecentIssues) != 1 || resp.RecentIssues[0].Pod != "web-1" {
		t.Errorf("unexpected recent issues: %+v", resp.RecentIssues)
	}
	if resp.Governor.ActionsInWindow != 1 {
		t.Errorf("expected 1 action in window, got %d", resp.Governor.ActionsInWindow)
	}
	if resp.Governor.MaxActionsPerHour != 10 {
		t.Errorf("expected cap 10, got %d", resp.Governor.MaxActionsPerHour)
	}
}

// TestHandleIncidents verifies the since filter in both formats.
func TestHandleIncidents(t *testing.T) {
	server, store, _ := newTestServer(true)

	old := time.Now().Add(-2 * time.Hour)
	recent := time.Now().Add(-5 * time.Minute)
	store.RecordIncident(models.Incident{ID: "incident-old", Timestamp: old, Report: "old report"})
	store.RecordIncident(models.Incident{ID: "incident-new", Timestamp: recent, Report: "new report"})

	fetch := func(t *testing.T, path string) []status.IncidentEntry {
		t.Helper()
		rr := serveRequest(server, http.MethodGet, path)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
		}
		var entries []status.IncidentEntry
		if err := json.Unmarshal(rr.Body.Bytes(), &entries); err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
		return entries
	}

	t.Run("no filter returns all", func(t *testing.T) {
		entries := fetch(t, "/api/incidents")
		if len(entries) != 2 {
			t.Errorf("expected 2 incidents, got %d", len(entries))
		}
	})

	t.Run("unix since filters old entries", func(t *testing.T) {
		since := time.Now().Add(-time.Hour).Unix()
		entries := fetch(t, "/api/incidents?since="+strconv.FormatInt(since, 10))
		if len(entries) != 1 || entries[0].ID != "incident-new" {
			t.Errorf("unexpected entries: %+v", entries)
		}
	})

	t.Run("human readable since", func(t *testing.T) {
		entries := fetch(t, "/api/incidents?since=1+hour+ago")
		if len(entries) != 1 || entries[0].ID != "incident-new" {
			t.Errorf("unexpected entries: %+v", entries)
		}
	})

	t.Run("invalid since rejected", func(t *testing.T) {
		rr := serveRequest(server, http.MethodGet, "/api/incidents?since=not-a-date")
		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rr.Code)
		}
	})
}

// TestHandleIncidentsEmpty verifies an empty feed serializes as a JSON
// array, not null.
func TestHandleIncidentsEmpty(t *testing.T) {
	server, _, _ := newTestServer(true)

	rr := serveRequest(server, http.MethodGet, "/api/incidents")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if body := strings.TrimSpace(rr.Body.String()); body != "[]" {
		t.Errorf("expected empty array, got %s", body)
	}
}

// TestCORSMiddleware verifies CORS headers and preflight handling.
func TestCORSMiddleware(t *testing.T) {
	server, _, _ := newTestServer(true)

	t.Run("headers present", func(t *testing.T) {
		rr := serveRequest(server, http.MethodGet, "/api/status")
		if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "*" {
			t.Errorf("expected wildcard origin, got %q", got)
		}
	})

	t.Run("preflight short-circuits", func(t *testing.T) {
		rr := serveRequest(server, http.MethodOptions, "/api/status")
		if rr.Code != http.StatusNoContent {
			t.Errorf("expected status 204, got %d", rr.Code)
		}
	})
}

// TestParseSince covers both accepted formats and the error cases.
func TestParseSince(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantError bool
		validate  func(*testing.T, time.Time)
	}{
		{"empty means no filter", "", false, func(t *testing.T, ts time.Time) {
			if !ts.IsZero() {
				t.Errorf("expected zero time, got %v", ts)
			}
		}},
		{"unix seconds", "1609459200", false, func(t *testing.T, ts time.Time) {
			if ts.Unix() != 1609459200 {
				t.Errorf("expected 1609459200, got %d", ts.Unix())
			}
		}},
		{"negative unix", "-1", true, nil},
		{"human readable yesterday", "yesterday", false, func(t *testing.T, ts time.Time) {
			if ts.IsZero() || !ts.Before(time.Now()) {
				t.Errorf("expected a past time, got %v", ts)
			}
		}},
		{"garbage", "not-a-date-or-number", true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseSince(tt.input)
			if tt.wantError && err == nil {
				t.Errorf("expected error, got nil")
			}
			if !tt.wantError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.wantError && tt.validate != nil {
				tt.validate(t, result)
			}
		})
	}
}
