package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/moolen/remedy/internal/mcp/client"
	"github.com/moolen/remedy/internal/mcp/tools"
)

// Tool defines the interface for our tool implementations
type Tool interface {
	Execute(ctx context.Context, input json.RawMessage) (interface{}, error)
}

// AgentServer wraps the mcp-go server with remedy-specific logic
type AgentServer struct {
	mcpServer   *server.MCPServer
	agentClient *AgentClient
	tools       map[string]Tool
	version     string
}

// ServerOptions configures the remedy MCP server
type ServerOptions struct {
	AgentURL string
	Version  string
	Logger   client.Logger // Optional logger for retry messages

	// PingRetries and PingDelay override the startup probe schedule.
	// Zero values keep the client defaults.
	PingRetries int
	PingDelay   time.Duration
}

// NewAgentServer creates a new remedy MCP server
func NewAgentServer(agentURL, version string) (*AgentServer, error) {
	return NewAgentServerWithOptions(ServerOptions{
		AgentURL: agentURL,
		Version:  version,
	})
}

// NewAgentServerWithOptions creates a new remedy MCP server
func NewAgentServerWithOptions(opts ServerOptions) (*AgentServer, error) {
	// Test connection to the agent with retry logic for container startup
	agentClient := NewAgentClient(opts.AgentURL)
	agentClient.SetRetrySchedule(opts.PingRetries, opts.PingDelay)
	if err := agentClient.PingWithRetry(opts.Logger); err != nil {
		return nil, fmt.Errorf("failed to connect to remedy API: %w", err)
	}

	// Create mcp-go server with capabilities
	mcpServer := server.NewMCPServer(
		"Remedy MCP Server",
		opts.Version,
		server.WithToolCapabilities(false), // No tool subscription for now
		server.WithLogging(),               // Enable logging capability
	)

	s := &AgentServer{
		mcpServer:   mcpServer,
		agentClient: agentClient,
		tools:       make(map[string]Tool),
		version:     opts.Version,
	}

	// Register tools
	s.registerTools()

	// Register prompts
	s.registerPrompts()

	return s, nil
}

func (s *AgentServer) registerTools() {
	// Register agent_status tool
	s.registerTool(
		"agent_status",
		"Get the remediation agent's current state: loop health, check counters, watched namespaces, recent issue kinds, and the safety governor's action budget",
		tools.NewAgentStatusTool(s.agentClient),
		map[string]interface{}{
			"type":       "object",
			"properties": map[string]interface{}{},
		},
	)

	// Register recent_incidents tool
	s.registerTool(
		"recent_incidents",
		"Get recent incident reports (detected issue, AI analysis, and action outcome), newest first",
		tools.NewRecentIncidentsTool(s.agentClient),
		map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"since": map[string]interface{}{
					"type":        "string",
					"description": "Optional: only include incidents newer than this time (Unix seconds or natural language like '2 hours ago')",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Optional: max incidents to return (default 10, max 20)",
				},
			},
		},
	)

	// Register recent_actions tool
	s.registerTool(
		"recent_actions",
		"Get recently executed healing actions with success/failure tallies, newest first",
		tools.NewRecentActionsTool(s.agentClient),
		map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"namespace": map[string]interface{}{
					"type":        "string",
					"description": "Optional: filter by Kubernetes namespace",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Optional: max actions to return (default 20, max 50)",
				},
			},
		},
	)
}

func (s *AgentServer) registerTool(name, description string, tool Tool, inputSchema map[string]interface{}) {
	// Store tool reference
	s.tools[name] = tool

	// Marshal schema to JSON
	schemaJSON, err := json.Marshal(inputSchema)
	if err != nil {
		// This should never happen with well-formed schemas
		panic(fmt.Sprintf("Failed to marshal schema for tool %s: %v", name, err))
	}

	// Create mcp.Tool definition with raw schema
	mcpTool := mcp.NewToolWithRawSchema(name, description, schemaJSON)

	// Register with mcp-go server using adapter
	s.mcpServer.AddTool(mcpTool, s.createToolHandler(tool))
}

func (s *AgentServer) createToolHandler(tool Tool) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		// Marshal arguments to JSON for our existing tool interface
		args, err := json.Marshal(request.Params.Arguments)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid arguments: %v", err)), nil
		}

		// Execute tool with our existing interface
		result, err := tool.Execute(ctx, args)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Tool execution failed: %v", err)), nil
		}

		// Format result as JSON text
		resultJSON, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to format result: %v", err)), nil
		}

		return mcp.NewToolResultText(string(resultJSON)), nil
	}
}

func (s *AgentServer) registerPrompts() {
	// Register incident review prompt
	incidentReviewPrompt := mcp.Prompt{
		Name:        "incident_review",
		Description: "Review recent automated remediation activity and judge whether it was appropriate",
		Arguments: []mcp.PromptArgument{
			{Name: "since", Description: "Optional time window start (Unix seconds or natural language)", Required: false},
			{Name: "namespace", Description: "Optional Kubernetes namespace to focus on", Required: false},
		},
	}

	s.mcpServer.AddPrompt(incidentReviewPrompt, func(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		// Get arguments (mcp-go provides them as map[string]string)
		since := request.Params.Arguments["since"]
		namespace := request.Params.Arguments["namespace"]

		// Build prompt message
		text := "Review the remediation agent's recent activity. Use the agent_status, recent_incidents, and recent_actions tools, then summarize what was detected, what was done, and whether any action looks wrong or risky."
		if since != "" {
			text += fmt.Sprintf(" Limit the review to incidents since %s.", since)
		}
		if namespace != "" {
			text += fmt.Sprintf(" Focus on namespace: %s", namespace)
		}

		// Build prompt messages
		messages := []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: text,
				},
			},
		}

		return &mcp.GetPromptResult{
			Description: "Remediation incident review workflow",
			Messages:    messages,
		}, nil
	})

	// Register loop health triage prompt
	loopHealthPrompt := mcp.Prompt{
		Name:        "loop_health_triage",
		Description: "Diagnose why the remediation loop is unhealthy or inactive",
		Arguments: []mcp.PromptArgument{
			{Name: "symptoms", Description: "Optional brief description of what looks wrong", Required: false},
		},
	}

	s.mcpServer.AddPrompt(loopHealthPrompt, func(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		symptoms := request.Params.Arguments["symptoms"]

		// Build prompt message
		text := "Check whether the remediation loop is healthy. Use agent_status to inspect the loop state, check counters, and the governor budget; use recent_actions to spot repeated failures. Explain the most likely cause if the loop is stalled, erroring, or rate limited."
		if symptoms != "" {
			text += fmt.Sprintf(" Reported symptoms: %s", symptoms)
		}

		// Build prompt messages
		messages := []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: text,
				},
			},
		}

		return &mcp.GetPromptResult{
			Description: "Remediation loop health triage workflow",
			Messages:    messages,
		}, nil
	})
}

// GetMCPServer returns the underlying mcp-go server for transport setup
func (s *AgentServer) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}
