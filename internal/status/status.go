// Package status is the shared run-time state of the agent: counters,
// bounded feeds of recent issues, actions, and incidents, and the
// Prometheus mirror of the counters. The control loop is the only
// writer; the HTTP API and the MCP tools read point-in-time snapshots.
package status

import (
	"sync"
	"time"

	"github.com/moolen/remedy/internal/models"
)

// State is the coarse agent lifecycle phase shown on the dashboard.
type State string

const (
	StateInitializing State = "initializing"
	StateRunning      State = "running"
	StateError        State = "error"
	StateStopped      State = "stopped"
)

const (
	recentIssuesLimit  = 50
	recentActionsLimit = 50
	incidentsLimit     = 20

	// reportTruncateAt bounds the report text carried per incident on
	// the status surface; the file sink keeps the full text.
	reportTruncateAt = 2000
)

// ActionEntry is one row of the recent-actions feed.
type ActionEntry struct {
	Timestamp time.Time         `json:"timestamp"`
	IssueKind models.IssueKind  `json:"issue_type"`
	Pod       string            `json:"pod"`
	Namespace string            `json:"namespace"`
	Action    models.ActionKind `json:"action"`
	Success   bool              `json:"success"`
	DryRun    bool              `json:"dry_run"`
	Message   string            `json:"message,omitempty"`
}

// IncidentEntry is one row of the incident feed.
type IncidentEntry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Report    string    `json:"report"`
}

// Snapshot is a point-in-time copy of the full state.
type Snapshot struct {
	Status         State                `json:"status"`
	StartedAt      time.Time            `json:"started_at"`
	LastCheck      *time.Time           `json:"last_check"`
	ChecksTotal    int64                `json:"checks_total"`
	IssuesDetected int64                `json:"issues_detected"`
	ActionsTaken   int64                `json:"actions_taken"`
	DryRun         bool                 `json:"dry_run"`
	Namespaces     []string             `json:"namespaces"`
	RecentIssues   []models.IssueRecord `json:"recent_issues"`
	RecentActions  []ActionEntry        `json:"recent_actions"`
	Incidents      []IncidentEntry      `json:"incidents"`
}

// Store owns the mutable state behind a single mutex.
type Store struct {
	mu             sync.Mutex
	status         State
	startedAt      time.Time
	lastCheck      *time.Time
	checksTotal    int64
	issuesDetected int64
	actionsTaken   int64
	dryRun         bool
	namespaces     []string
	recentIssues   []models.IssueRecord
	recentActions  []ActionEntry
	incidents      []IncidentEntry

	metrics *Metrics
	now     func() time.Time
}

// NewStore creates a Store. metrics may be nil when no Prometheus
// registry is wired (tests).
func NewStore(metrics *Metrics) *Store {
	return &Store{
		status:  StateInitializing,
		metrics: metrics,
		now:     time.Now,
	}
}

// SetConfig records the run configuration. Called again on policy
// reload to refresh the namespace set; the start time is kept from the
// first call.
func (s *Store) SetConfig(dryRun bool, namespaces []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dryRun = dryRun
	s.namespaces = append([]string(nil), namespaces...)
	if s.startedAt.IsZero() {
		s.startedAt = s.now().UTC()
	}
}

// SetStatus moves the agent into a new lifecycle phase.
func (s *Store) SetStatus(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = state
}

// RecordCheck accounts one completed classification pass and feeds the
// issues it found into the recent-issues ring.
func (s *Store) RecordCheck(issues []models.IssueRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	s.lastCheck = &now
	s.checksTotal++
	s.issuesDetected += int64(len(issues))

	s.recentIssues = append(s.recentIssues, issues...)
	if len(s.recentIssues) > recentIssuesLimit {
		s.recentIssues = s.recentIssues[len(s.recentIssues)-recentIssuesLimit:]
	}

	if s.metrics != nil {
		s.metrics.ChecksTotal.Inc()
		s.metrics.IssuesDetected.Add(float64(len(issues)))
	}
}

// RecordAction accounts one action result, successful or not.
func (s *Store) RecordAction(issue models.IssueRecord, result models.ActionResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.actionsTaken++
	s.recentActions = append(s.recentActions, ActionEntry{
		Timestamp: s.now().UTC(),
		IssueKind: issue.Kind,
		Pod:       issue.Pod,
		Namespace: issue.Namespace,
		Action:    result.Action,
		Success:   result.Success,
		DryRun:    result.DryRun,
		Message:   result.Message,
	})
	if len(s.recentActions) > recentActionsLimit {
		s.recentActions = s.recentActions[len(s.recentActions)-recentActionsLimit:]
	}

	if s.metrics != nil {
		s.metrics.ActionsTaken.Inc()
		if !result.Success {
			s.metrics.ActionFailures.Inc()
		}
	}
}

// RecordIncident feeds one incident into the bounded incident feed,
// truncating the report text for the wire.
func (s *Store) RecordIncident(incident models.Incident) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.incidents = append(s.incidents, IncidentEntry{
		ID:        incident.ID,
		Timestamp: incident.Timestamp,
		Report:    truncateReport(incident.Report),
	})
	if len(s.incidents) > incidentsLimit {
		s.incidents = s.incidents[len(s.incidents)-incidentsLimit:]
	}
}

// RecordOracleFallback counts an analysis answered by the deterministic
// default.
func (s *Store) RecordOracleFallback() {
	if s.metrics != nil {
		s.metrics.OracleFallbacks.Inc()
	}
}

// ObserveTick records the duration of one full check cycle.
func (s *Store) ObserveTick(d time.Duration) {
	if s.metrics != nil {
		s.metrics.TickDuration.Observe(d.Seconds())
	}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Status:         s.status,
		StartedAt:      s.startedAt,
		ChecksTotal:    s.checksTotal,
		IssuesDetected: s.issuesDetected,
		ActionsTaken:   s.actionsTaken,
		DryRun:         s.dryRun,
		Namespaces:     append([]string(nil), s.namespaces...),
		RecentIssues:   append([]models.IssueRecord(nil), s.recentIssues...),
		RecentActions:  append([]ActionEntry(nil), s.recentActions...),
		Incidents:      append([]IncidentEntry(nil), s.incidents...),
	}
	if s.lastCheck != nil {
		t := *s.lastCheck
		snap.LastCheck = &t
	}
	return snap
}

// IncidentsSince returns the incident feed entries at or after the
// given time, oldest first.
func (s *Store) IncidentsSince(since time.Time) []IncidentEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []IncidentEntry
	for _, entry := range s.incidents {
		if !entry.Timestamp.Before(since) {
			out = append(out, entry)
		}
	}
	return out
}

func truncateReport(report string) string {
	runes := []rune(report)
	if len(runes) <= reportTruncateAt {
		return report
	}
	return string(runes[:reportTruncateAt])
}
