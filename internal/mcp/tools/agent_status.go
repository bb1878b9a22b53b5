package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/moolen/remedy/internal/mcp/client"
)

// AgentStatusTool implements the agent_status MCP tool.
type AgentStatusTool struct {
	client *client.AgentClient
}

// NewAgentStatusTool creates a new agent status tool.
func NewAgentStatusTool(client *client.AgentClient) *AgentStatusTool {
	return &AgentStatusTool{
		client: client,
	}
}

// AgentStatusInput represents the input for the agent_status tool.
// The tool takes no parameters; unknown fields are ignored.
type AgentStatusInput struct{}

// IssueKindCount is the number of recent issues of one kind.
type IssueKindCount struct {
	Kind  string `json:"kind"`
	Count int    `json:"count"`
}

// AgentStatusOutput summarizes the agent's state for an assistant.
type AgentStatusOutput struct {
	Status           string               `json:"status"`
	DryRun           bool                 `json:"dry_run"`
	UptimeSeconds    int64                `json:"uptime_seconds"`
	LastCheck        string               `json:"last_check"`
	ChecksTotal      int64                `json:"checks_total"`
	IssuesDetected   int64                `json:"issues_detected"`
	ActionsTaken     int64                `json:"actions_taken"`
	Namespaces       []string             `json:"namespaces"`
	RecentIssueKinds []IssueKindCount     `json:"recent_issue_kinds,omitempty"`
	Governor         client.GovernorStats `json:"governor"`
}

// Execute runs the agent_status tool.
func (t *AgentStatusTool) Execute(ctx context.Context, input json.RawMessage) (interface{}, error) {
	var params AgentStatusInput
	if len(input) > 0 {
		if err := json.Unmarshal(input, &params); err != nil {
			return nil, fmt.Errorf("invalid input: %w", err)
		}
	}

	resp, err := t.client.GetStatus()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch agent status: %w", err)
	}

	return summarizeStatus(resp, time.Now()), nil
}

// summarizeStatus condenses a status snapshot into the tool output.
func summarizeStatus(resp *client.StatusResponse, now time.Time) *AgentStatusOutput {
	out := &AgentStatusOutput{
		Status:         resp.Status,
		DryRun:         resp.DryRun,
		LastCheck:      "never",
		ChecksTotal:    resp.ChecksTotal,
		IssuesDetected: resp.IssuesDetected,
		ActionsTaken:   resp.ActionsTaken,
		Namespaces:     resp.Namespaces,
		Governor:       resp.Governor,
	}

	if !resp.StartedAt.IsZero() {
		uptime := now.Sub(resp.StartedAt)
		if uptime > 0 {
			out.UptimeSeconds = int64(uptime.Seconds())
		}
	}

	if resp.LastCheck != nil {
		out.LastCheck = resp.LastCheck.UTC().Format(time.RFC3339)
	}

	counts := make(map[string]int)
	for _, issue := range resp.RecentIssues {
		counts[issue.Kind]++
	}
	for kind, count := range counts {
		out.RecentIssueKinds = append(out.RecentIssueKinds, IssueKindCount{Kind: kind, Count: count})
	}
	sort.Slice(out.RecentIssueKinds, func(i, j int) bool {
		a, b := out.RecentIssueKinds[i], out.RecentIssueKinds[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Kind < b.Kind
	})

	return out
}
