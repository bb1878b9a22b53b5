package client

import "time"

// StatusResponse mirrors the payload of GET /api/status.
type StatusResponse struct {
	Status         string         `json:"status"`
	StartedAt      time.Time      `json:"started_at"`
	LastCheck      *time.Time     `json:"last_check"`
	ChecksTotal    int64          `json:"checks_total"`
	IssuesDetected int64          `json:"issues_detected"`
	ActionsTaken   int64          `json:"actions_taken"`
	DryRun         bool           `json:"dry_run"`
	Namespaces     []string       `json:"namespaces"`
	RecentIssues   []IssueRecord  `json:"recent_issues"`
	RecentActions  []ActionRecord `json:"recent_actions"`
	Incidents      []Incident     `json:"incidents"`
	Governor       GovernorStats  `json:"governor"`
}

// IssueRecord is one detected issue as reported by the agent.
type IssueRecord struct {
	Kind       string    `json:"kind"`
	Severity   string    `json:"severity"`
	Pod        string    `json:"pod"`
	Namespace  string    `json:"namespace"`
	Container  string    `json:"container,omitempty"`
	DetectedAt time.Time `json:"detected_at"`
	Details    []Detail  `json:"details,omitempty"`
}

// Detail is a single kind-specific attribute of an issue.
type Detail struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ActionRecord is one executed (or attempted) healing action.
type ActionRecord struct {
	Timestamp time.Time `json:"timestamp"`
	IssueType string    `json:"issue_type"`
	Pod       string    `json:"pod"`
	Namespace string    `json:"namespace"`
	Action    string    `json:"action"`
	Success   bool      `json:"success"`
	DryRun    bool      `json:"dry_run"`
	Message   string    `json:"message,omitempty"`
}

// Incident is one incident report entry from GET /api/incidents.
type Incident struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Report    string    `json:"report"`
}

// GovernorStats describes the safety governor's current budget.
type GovernorStats struct {
	ActionsInWindow     int `json:"actions_in_window"`
	MaxActionsPerHour   int `json:"max_actions_per_hour"`
	ResourcesInCooldown int `json:"resources_in_cooldown"`
}
