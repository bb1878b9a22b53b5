package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/moolen/remedy/internal/mcp/client"
)

const (
	defaultIncidentLimit = 10
	maxIncidentLimit     = 20
)

// RecentIncidentsTool implements the recent_incidents MCP tool.
type RecentIncidentsTool struct {
	client *client.AgentClient
}

// NewRecentIncidentsTool creates a new recent incidents tool.
func NewRecentIncidentsTool(client *client.AgentClient) *RecentIncidentsTool {
	return &RecentIncidentsTool{
		client: client,
	}
}

// RecentIncidentsInput represents the input for the recent_incidents tool.
type RecentIncidentsInput struct {
	Since string `json:"since,omitempty"`
	Limit int    `json:"limit,omitempty"` // default 10, max 20
}

// RecentIncidentsOutput represents the output of the recent_incidents tool.
type RecentIncidentsOutput struct {
	Incidents []client.Incident `json:"incidents"`
	Count     int               `json:"count"`
}

// Execute runs the recent_incidents tool.
func (t *RecentIncidentsTool) Execute(ctx context.Context, input json.RawMessage) (interface{}, error) {
	var params RecentIncidentsInput
	if len(input) > 0 {
		if err := json.Unmarshal(input, &params); err != nil {
			return nil, fmt.Errorf("invalid input: %w", err)
		}
	}
	limit := normalizeLimit(params.Limit, defaultIncidentLimit, maxIncidentLimit)

	incidents, err := t.client.GetIncidents(params.Since)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch incidents: %w", err)
	}

	selected := selectRecentIncidents(incidents, limit)
	return &RecentIncidentsOutput{
		Incidents: selected,
		Count:     len(selected),
	}, nil
}

// selectRecentIncidents returns the newest incidents first, capped at limit.
func selectRecentIncidents(incidents []client.Incident, limit int) []client.Incident {
	sorted := make([]client.Incident, len(incidents))
	copy(sorted, incidents)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.After(sorted[j].Timestamp)
	})

	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}
