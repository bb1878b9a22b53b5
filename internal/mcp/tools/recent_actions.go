package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/moolen/remedy/internal/mcp/client"
)

const (
	defaultActionLimit = 20
	maxActionLimit     = 50
)

// RecentActionsTool implements the recent_actions MCP tool.
type RecentActionsTool struct {
	client *client.AgentClient
}

// NewRecentActionsTool creates a new recent actions tool.
func NewRecentActionsTool(client *client.AgentClient) *RecentActionsTool {
	return &RecentActionsTool{
		client: client,
	}
}

// RecentActionsInput represents the input for the recent_actions tool.
type RecentActionsInput struct {
	Namespace string `json:"namespace,omitempty"`
	Limit     int    `json:"limit,omitempty"` // default 20, max 50
}

// RecentActionsOutput represents the output of the recent_actions tool.
type RecentActionsOutput struct {
	Actions   []client.ActionRecord `json:"actions"`
	Count     int                   `json:"count"`
	Succeeded int                   `json:"succeeded"`
	Failed    int                   `json:"failed"`
}

// Execute runs the recent_actions tool.
func (t *RecentActionsTool) Execute(ctx context.Context, input json.RawMessage) (interface{}, error) {
	var params RecentActionsInput
	if len(input) > 0 {
		if err := json.Unmarshal(input, &params); err != nil {
			return nil, fmt.Errorf("invalid input: %w", err)
		}
	}
	limit := normalizeLimit(params.Limit, defaultActionLimit, maxActionLimit)

	resp, err := t.client.GetStatus()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch agent status: %w", err)
	}

	return filterActions(resp.RecentActions, params.Namespace, limit), nil
}

// filterActions returns the newest matching actions first, capped at
// limit, with a success tally over the returned set.
func filterActions(actions []client.ActionRecord, namespace string, limit int) *RecentActionsOutput {
	matched := make([]client.ActionRecord, 0, len(actions))
	for _, action := range actions {
		if namespace != "" && action.Namespace != namespace {
			continue
		}
		matched = append(matched, action)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].Timestamp.After(matched[j].Timestamp)
	})
	if len(matched) > limit {
		matched = matched[:limit]
	}

	out := &RecentActionsOutput{
		Actions: matched,
		Count:   len(matched),
	}
	for _, action := range matched {
		if action.Success {
			out.Succeeded++
		} else {
			out.Failed++
		}
	}
	return out
}
