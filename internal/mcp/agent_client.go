package mcp

import "github.com/moolen/remedy/internal/mcp/client"

// Re-export types and client
type AgentClient = client.AgentClient
type StatusResponse = client.StatusResponse
type IssueRecord = client.IssueRecord
type ActionRecord = client.ActionRecord
type Incident = client.Incident
type GovernorStats = client.GovernorStats

// NewAgentClient creates a new remedy API client
func NewAgentClient(baseURL string) *AgentClient {
	return client.NewAgentClient(baseURL)
}
