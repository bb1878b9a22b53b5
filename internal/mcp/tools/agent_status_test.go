package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/moolen/remedy/internal/mcp/client"
)

func TestSummarizeStatus(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	lastCheck := now.Add(-30 * time.Second)

	resp := &client.StatusResponse{
		Status:         "running",
		StartedAt:      now.Add(-2 * time.Hour),
		LastCheck:      &lastCheck,
		ChecksTotal:    240,
		IssuesDetected: 5,
		ActionsTaken:   4,
		DryRun:         false,
		Namespaces:     []string{"prod"},
		RecentIssues: []client.IssueRecord{
			{Kind: "crash_loop", Pod: "web-1", Namespace: "prod"},
			{Kind: "oom_killed", Pod: "worker-1", Namespace: "prod"},
			{Kind: "crash_loop", Pod: "web-2", Namespace: "prod"},
		},
		Governor: client.GovernorStats{ActionsInWindow: 4, MaxActionsPerHour: 10, ResourcesInCooldown: 1},
	}

	out := summarizeStatus(resp, now)

	if out.Status != "running" {
		t.Errorf("Expected status running, got %s", out.Status)
	}
	if out.UptimeSeconds != 7200 {
		t.Errorf("Expected uptime 7200s, got %d", out.UptimeSeconds)
	}
	if out.LastCheck != "2026-03-14T11:59:30Z" {
		t.Errorf("Unexpected last check: %s", out.LastCheck)
	}
	if len(out.RecentIssueKinds) != 2 {
		t.Fatalf("Expected 2 issue kinds, got %d", len(out.RecentIssueKinds))
	}
	// Sorted by count descending
	if out.RecentIssueKinds[0].Kind != "crash_loop" || out.RecentIssueKinds[0].Count != 2 {
		t.Errorf("Unexpected top issue kind: %+v", out.RecentIssueKinds[0])
	}
	if out.RecentIssueKinds[1].Kind != "oom_killed" || out.RecentIssueKinds[1].Count != 1 {
		t.Errorf("Unexpected second issue kind: %+v", out.RecentIssueKinds[1])
	}
	if out.Governor.ActionsInWindow != 4 {
		t.Errorf("Governor stats not carried over: %+v", out.Governor)
	}
}

func TestSummarizeStatusNeverChecked(t *testing.T) {
	resp := &client.StatusResponse{
		Status: "initializing",
	}

	out := summarizeStatus(resp, time.Now())

	if out.LastCheck != "never" {
		t.Errorf("Expected last check never, got %s", out.LastCheck)
	}
	if out.UptimeSeconds != 0 {
		t.Errorf("Expected zero uptime for zero start time, got %d", out.UptimeSeconds)
	}
	if len(out.RecentIssueKinds) != 0 {
		t.Errorf("Expected no issue kinds, got %+v", out.RecentIssueKinds)
	}
}

func TestSummarizeStatusTiesSortByKind(t *testing.T) {
	resp := &client.StatusResponse{
		RecentIssues: []client.IssueRecord{
			{Kind: "pod_pending"},
			{Kind: "image_pull_error"},
		},
	}

	out := summarizeStatus(resp, time.Now())

	if len(out.RecentIssueKinds) != 2 {
		t.Fatalf("Expected 2 issue kinds, got %d", len(out.RecentIssueKinds))
	}
	if out.RecentIssueKinds[0].Kind != "image_pull_error" {
		t.Errorf("Ties should sort alphabetically, got %s first", out.RecentIssueKinds[0].Kind)
	}
}

func TestAgentStatusToolExecute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(client.StatusResponse{
			Status:      "running",
			ChecksTotal: 7,
		})
	}))
	defer srv.Close()

	tool := NewAgentStatusTool(client.NewAgentClient(srv.URL))
	result, err := tool.Execute(context.Background(), json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	out, ok := result.(*AgentStatusOutput)
	if !ok {
		t.Fatalf("Expected *AgentStatusOutput, got %T", result)
	}
	if out.Status != "running" || out.ChecksTotal != 7 {
		t.Errorf("Unexpected output: %+v", out)
	}
}

func TestAgentStatusToolExecuteAgentDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	tool := NewAgentStatusTool(client.NewAgentClient(srv.URL))
	if _, err := tool.Execute(context.Background(), nil); err == nil {
		t.Error("Expected error when agent is unavailable")
	}
}
