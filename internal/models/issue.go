package models

import (
	"strconv"
	"time"
)

func itoa32(v int32) string {
	return strconv.FormatInt(int64(v), 10)
}

// IssueKind identifies the class of abnormal pod condition.
type IssueKind string

const (
	// IssueHighRestartCount is emitted when a container restarts more often than the configured threshold
	IssueHighRestartCount IssueKind = "high_restart_count"
	// IssueOOMKilled is emitted when a container's last termination was an OOM kill
	IssueOOMKilled IssueKind = "oom_killed"
	// IssueCrashLoopBackOff is emitted when a container is waiting in CrashLoopBackOff
	IssueCrashLoopBackOff IssueKind = "crash_loop_backoff"
	// IssuePodNotRunning is emitted when a pod phase is neither Running nor Succeeded
	IssuePodNotRunning IssueKind = "pod_not_running"
)

// Severity classifies how urgent an issue is.
type Severity string

const (
	// SeverityWarning marks conditions that degrade a workload but leave it serving
	SeverityWarning Severity = "warning"
	// SeverityCritical marks conditions where a workload is failing outright
	SeverityCritical Severity = "critical"
)

// Detail is a single kind-specific attribute of an issue, ordered for
// deterministic report rendering.
type Detail struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Issue is a classified abnormal condition observed on a pod at a point
// in time. Each kind is its own variant carrying only the fields that
// apply to it; values are immutable once created and are discarded after
// the control loop has handled them.
type Issue interface {
	// Kind returns the issue class
	Kind() IssueKind
	// Severity returns warning or critical
	Severity() Severity
	// Pod returns the affected pod name
	Pod() string
	// Namespace returns the pod's namespace
	Namespace() string
	// Container returns the affected container, or "" for pod-level issues
	Container() string
	// DetectedAt returns the classification time
	DetectedAt() time.Time
	// Details returns kind-specific attributes in render order
	Details() []Detail
}

// HighRestartCount reports a container restarting more often than the
// configured threshold.
type HighRestartCount struct {
	PodName       string
	PodNamespace  string
	ContainerName string
	Restarts      int32
	At            time.Time
}

func (i HighRestartCount) Kind() IssueKind       { return IssueHighRestartCount }
func (i HighRestartCount) Severity() Severity    { return SeverityWarning }
func (i HighRestartCount) Pod() string           { return i.PodName }
func (i HighRestartCount) Namespace() string     { return i.PodNamespace }
func (i HighRestartCount) Container() string     { return i.ContainerName }
func (i HighRestartCount) DetectedAt() time.Time { return i.At }
func (i HighRestartCount) Details() []Detail {
	return []Detail{{Key: "restart_count", Value: itoa32(i.Restarts)}}
}

// OOMKilled reports a container whose last termination reason was OOMKilled.
type OOMKilled struct {
	PodName       string
	PodNamespace  string
	ContainerName string
	At            time.Time
}

func (i OOMKilled) Kind() IssueKind       { return IssueOOMKilled }
func (i OOMKilled) Severity() Severity    { return SeverityCritical }
func (i OOMKilled) Pod() string           { return i.PodName }
func (i OOMKilled) Namespace() string     { return i.PodNamespace }
func (i OOMKilled) Container() string     { return i.ContainerName }
func (i OOMKilled) DetectedAt() time.Time { return i.At }
func (i OOMKilled) Details() []Detail     { return nil }

// CrashLoopBackOff reports a container currently waiting in CrashLoopBackOff.
type CrashLoopBackOff struct {
	PodName       string
	PodNamespace  string
	ContainerName string
	Restarts      int32
	At            time.Time
}

func (i CrashLoopBackOff) Kind() IssueKind       { return IssueCrashLoopBackOff }
func (i CrashLoopBackOff) Severity() Severity    { return SeverityCritical }
func (i CrashLoopBackOff) Pod() string           { return i.PodName }
func (i CrashLoopBackOff) Namespace() string     { return i.PodNamespace }
func (i CrashLoopBackOff) Container() string     { return i.ContainerName }
func (i CrashLoopBackOff) DetectedAt() time.Time { return i.At }
func (i CrashLoopBackOff) Details() []Detail {
	return []Detail{{Key: "restart_count", Value: itoa32(i.Restarts)}}
}

// PodNotRunning reports a pod whose phase is neither Running nor Succeeded.
type PodNotRunning struct {
	PodName      string
	PodNamespace string
	Phase        string
	Reason       string
	At           time.Time
}

func (i PodNotRunning) Kind() IssueKind       { return IssuePodNotRunning }
func (i PodNotRunning) Severity() Severity    { return SeverityWarning }
func (i PodNotRunning) Pod() string           { return i.PodName }
func (i PodNotRunning) Namespace() string     { return i.PodNamespace }
func (i PodNotRunning) Container() string     { return "" }
func (i PodNotRunning) DetectedAt() time.Time { return i.At }
func (i PodNotRunning) Details() []Detail {
	reason := i.Reason
	if reason == "" {
		reason = "Unknown"
	}
	return []Detail{
		{Key: "phase", Value: i.Phase},
		{Key: "reason", Value: reason},
	}
}

// IssueRecord is the flattened, serializable snapshot of an Issue used at
// the status and persistence boundaries.
type IssueRecord struct {
	Kind       IssueKind `json:"kind"`
	Severity   Severity  `json:"severity"`
	Pod        string    `json:"pod"`
	Namespace  string    `json:"namespace"`
	Container  string    `json:"container,omitempty"`
	DetectedAt time.Time `json:"detected_at"`
	Details    []Detail  `json:"details,omitempty"`
}

// RecordIssue flattens an Issue variant into its serializable record.
func RecordIssue(issue Issue) IssueRecord {
	return IssueRecord{
		Kind:       issue.Kind(),
		Severity:   issue.Severity(),
		Pod:        issue.Pod(),
		Namespace:  issue.Namespace(),
		Container:  issue.Container(),
		DetectedAt: issue.DetectedAt(),
		Details:    issue.Details(),
	}
}
