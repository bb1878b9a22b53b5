package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Logger is the minimal logging surface the client needs for retry
// messages. *logging.Logger satisfies it; nil disables logging.
type Logger interface {
	Info(msg string, args ...interface{})
}

// AgentClient handles communication with the remedy status API.
type AgentClient struct {
	baseURL       string
	httpClient    *http.Client
	retryAttempts int
	retryDelay    time.Duration
}

// NewAgentClient creates a new remedy API client.
func NewAgentClient(baseURL string) *AgentClient {
	return &AgentClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		retryAttempts: 5,
		retryDelay:    2 * time.Second,
	}
}

// SetRetrySchedule overrides how often and how patiently PingWithRetry
// probes the agent. Values <= 0 keep the current setting.
func (c *AgentClient) SetRetrySchedule(attempts int, delay time.Duration) {
	if attempts > 0 {
		c.retryAttempts = attempts
	}
	if delay > 0 {
		c.retryDelay = delay
	}
}

// GetStatus fetches the agent's full status snapshot.
func (c *AgentClient) GetStatus() (*StatusResponse, error) {
	url := fmt.Sprintf("%s/api/status", c.baseURL)
	resp, err := c.httpClient.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to query status: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("status API returned status %d: %s", resp.StatusCode, string(body))
	}

	var result StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode status response: %w", err)
	}

	return &result, nil
}

// GetIncidents fetches incident reports. since is optional and accepts
// whatever the API accepts: Unix seconds or a natural-language time.
func (c *AgentClient) GetIncidents(since string) ([]Incident, error) {
	q := url.Values{}
	if since != "" {
		q.Set("since", since)
	}

	url := fmt.Sprintf("%s/api/incidents", c.baseURL)
	if encoded := q.Encode(); encoded != "" {
		url += "?" + encoded
	}

	resp, err := c.httpClient.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to query incidents: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("incidents API returned status %d: %s", resp.StatusCode, string(body))
	}

	var result []Incident
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode incidents response: %w", err)
	}

	return result, nil
}

// Ping checks if the remedy API is reachable.
func (c *AgentClient) Ping() error {
	url := fmt.Sprintf("%s/health", c.baseURL)
	resp, err := c.httpClient.Get(url)
	if err != nil {
		return fmt.Errorf("remedy API unreachable at %s: %w", c.baseURL, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("remedy API health check failed with status %d", resp.StatusCode)
	}

	return nil
}

// PingWithRetry pings the agent until it answers, retrying on the
// configured schedule. The agent and the MCP server usually start
// together, so the first probes often race the agent's listener.
func (c *AgentClient) PingWithRetry(logger Logger) error {
	var lastErr error
	for attempt := 1; attempt <= c.retryAttempts; attempt++ {
		lastErr = c.Ping()
		if lastErr == nil {
			return nil
		}
		if attempt < c.retryAttempts {
			if logger != nil {
				logger.Info("Agent not ready (attempt %d/%d), retrying in %s: %v", attempt, c.retryAttempts, c.retryDelay, lastErr)
			}
			time.Sleep(c.retryDelay)
		}
	}
	return fmt.Errorf("agent unreachable after %d attempts: %w", c.retryAttempts, lastErr)
}
