// Package report assembles handled issues into incidents: a rendered
// markdown report, a bounded in-memory history, and a file sink for
// durable per-incident report files.
package report

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/moolen/remedy/internal/models"
)

// DefaultHistorySize bounds the in-memory incident history.
const DefaultHistorySize = 100

// Reporter renders reports and keeps the incident history. The history
// is append-only with oldest-first eviction once the cap is reached.
type Reporter struct {
	mu        sync.Mutex
	incidents []models.Incident
	limit     int
	version   string
	now       func() time.Time
}

// New creates a Reporter. The version string is stamped into every
// report; historySize <= 0 selects DefaultHistorySize.
func New(version string, historySize int) *Reporter {
	if historySize <= 0 {
		historySize = DefaultHistorySize
	}
	return &Reporter{
		limit:   historySize,
		version: version,
		now:     time.Now,
	}
}

// Report renders the incident report for one handled issue, records the
// incident in the history, and returns it.
func (r *Reporter) Report(issue models.Issue, analysis models.Analysis, result models.ActionResult) models.Incident {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().UTC()
	incident := models.Incident{
		ID:        uuid.New().String(),
		Timestamp: now,
		Issue:     models.RecordIssue(issue),
		Analysis:  analysis,
		Result:    result,
		Report:    r.render(issue, analysis, result, now),
	}

	r.incidents = append(r.incidents, incident)
	if len(r.incidents) > r.limit {
		r.incidents = r.incidents[len(r.incidents)-r.limit:]
	}

	return incident
}

// Incidents returns a copy of the history, oldest first.
func (r *Reporter) Incidents() []models.Incident {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]models.Incident, len(r.incidents))
	copy(out, r.incidents)
	return out
}

func (r *Reporter) render(issue models.Issue, analysis models.Analysis, result models.ActionResult, now time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Incident Report\n")
	fmt.Fprintf(&b, "**Generated:** %s\n", now.Format(time.RFC3339))
	fmt.Fprintf(&b, "**Agent Version:** %s\n\n", r.version)

	fmt.Fprintf(&b, "## Issue Detected\n")
	fmt.Fprintf(&b, "- **Type:** %s\n", issue.Kind())
	fmt.Fprintf(&b, "- **Severity:** %s\n", issue.Severity())
	fmt.Fprintf(&b, "- **Resource:** %s\n", valueOrNA(issue.Pod()))
	fmt.Fprintf(&b, "- **Namespace:** %s\n", valueOrNA(issue.Namespace()))
	fmt.Fprintf(&b, "- **Container:** %s\n", valueOrNA(issue.Container()))
	fmt.Fprintf(&b, "- **Detected At:** %s\n", issue.DetectedAt().Format(time.RFC3339))
	for _, detail := range issue.Details() {
		fmt.Fprintf(&b, "- **%s:** %s\n", detailTitle(detail.Key), detail.Value)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "## AI Analysis\n")
	fmt.Fprintf(&b, "- **Root Cause:** %s\n", valueOrNA(analysis.RootCause))
	fmt.Fprintf(&b, "- **Recommended Action:** %s\n", valueOrNA(analysis.RecommendedAction))
	fmt.Fprintf(&b, "- **Risk Level:** %s\n", valueOrNA(string(analysis.RiskLevel)))
	fmt.Fprintf(&b, "- **Explanation:** %s\n\n", valueOrNA(analysis.Explanation))

	fmt.Fprintf(&b, "## Action Taken\n")
	fmt.Fprintf(&b, "```json\n%s\n```\n\n", marshalResult(result))

	fmt.Fprintf(&b, "## Resolution Status\n")
	fmt.Fprintf(&b, "**Result:** %s\n", resolution(result.Success))
	fmt.Fprintf(&b, "**Dry Run:** %s\n", yesNo(result.DryRun))

	return b.String()
}

func marshalResult(result models.ActionResult) string {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Sprintf("%+v", result)
	}
	return string(data)
}

func valueOrNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func resolution(success bool) string {
	if success {
		return "Successful"
	}
	return "Failed"
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

// detailTitle renders a snake_case detail key as a report label:
// "restart_count" becomes "Restart Count".
func detailTitle(key string) string {
	parts := strings.Split(key, "_")
	for i, part := range parts {
		if part == "" {
			continue
		}
		parts[i] = strings.ToUpper(part[:1]) + part[1:]
	}
	return strings.Join(parts, " ")
}
