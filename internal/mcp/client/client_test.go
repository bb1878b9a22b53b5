package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

type recordingLogger struct {
	messages []string
}

func (l *recordingLogger) Info(msg string, args ...interface{}) {
	l.messages = append(l.messages, fmt.Sprintf(msg, args...))
}

func TestGetStatus(t *testing.T) {
	lastCheck := time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/status" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(StatusResponse{
			Status:         "running",
			LastCheck:      &lastCheck,
			ChecksTotal:    42,
			IssuesDetected: 3,
			ActionsTaken:   2,
			DryRun:         true,
			Namespaces:     []string{"prod", "staging"},
			RecentIssues: []IssueRecord{
				{Kind: "crash_loop", Severity: "critical", Pod: "web-1", Namespace: "prod"},
			},
			Governor: GovernorStats{ActionsInWindow: 2, MaxActionsPerHour: 10},
		})
	}))
	defer srv.Close()

	c := NewAgentClient(srv.URL)
	resp, err := c.GetStatus()
	if err != nil {
		t.Fatalf("GetStatus failed: %v", err)
	}

	if resp.Status != "running" {
		t.Errorf("Expected status running, got %s", resp.Status)
	}
	if resp.ChecksTotal != 42 {
		t.Errorf("Expected 42 checks, got %d", resp.ChecksTotal)
	}
	if !resp.DryRun {
		t.Error("Expected dry_run true")
	}
	if resp.LastCheck == nil || !resp.LastCheck.Equal(lastCheck) {
		t.Errorf("Last check not preserved: %v", resp.LastCheck)
	}
	if len(resp.RecentIssues) != 1 || resp.RecentIssues[0].Kind != "crash_loop" {
		t.Errorf("Unexpected recent issues: %+v", resp.RecentIssues)
	}
	if resp.Governor.MaxActionsPerHour != 10 {
		t.Errorf("Expected governor cap 10, got %d", resp.Governor.MaxActionsPerHour)
	}
}

func TestGetStatusServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewAgentClient(srv.URL)
	_, err := c.GetStatus()
	if err == nil {
		t.Fatal("Expected error for 500 response")
	}
	if !strings.Contains(err.Error(), "500") {
		t.Errorf("Error should mention status code: %v", err)
	}
}

func TestGetIncidents(t *testing.T) {
	var gotSince string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/incidents" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		gotSince = r.URL.Query().Get("since")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]Incident{
			{ID: "a1b2c3d4", Timestamp: time.Now().UTC(), Report: "# Incident Report"},
		})
	}))
	defer srv.Close()

	c := NewAgentClient(srv.URL)
	incidents, err := c.GetIncidents("2 hours ago")
	if err != nil {
		t.Fatalf("GetIncidents failed: %v", err)
	}

	if gotSince != "2 hours ago" {
		t.Errorf("since not forwarded, got %q", gotSince)
	}
	if len(incidents) != 1 || incidents[0].ID != "a1b2c3d4" {
		t.Errorf("Unexpected incidents: %+v", incidents)
	}
}

func TestGetIncidentsNoFilter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.RawQuery != "" {
			t.Errorf("Expected no query string, got %q", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte("[]"))
	}))
	defer srv.Close()

	c := NewAgentClient(srv.URL)
	incidents, err := c.GetIncidents("")
	if err != nil {
		t.Fatalf("GetIncidents failed: %v", err)
	}
	if len(incidents) != 0 {
		t.Errorf("Expected no incidents, got %d", len(incidents))
	}
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	}))
	defer srv.Close()

	c := NewAgentClient(srv.URL)
	if err := c.Ping(); err != nil {
		t.Errorf("Ping failed: %v", err)
	}

	srv.Close()
	if err := c.Ping(); err == nil {
		t.Error("Expected ping error after server shutdown")
	}
}

func TestPingWithRetryEventualSuccess(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	logger := &recordingLogger{}
	c := NewAgentClient(srv.URL)
	c.SetRetrySchedule(5, time.Millisecond)

	if err := c.PingWithRetry(logger); err != nil {
		t.Fatalf("PingWithRetry failed: %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("Expected 3 probes, got %d", got)
	}
	if len(logger.messages) != 2 {
		t.Errorf("Expected 2 retry messages, got %d: %v", len(logger.messages), logger.messages)
	}
}

func TestPingWithRetryExhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewAgentClient(srv.URL)
	c.SetRetrySchedule(2, time.Millisecond)

	err := c.PingWithRetry(nil)
	if err == nil {
		t.Fatal("Expected error when agent never answers")
	}
	if !strings.Contains(err.Error(), "after 2 attempts") {
		t.Errorf("Error should mention attempt count: %v", err)
	}
}
