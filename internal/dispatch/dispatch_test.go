package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/moolen/remedy/internal/models"
)

type stubResolver struct {
	deployment string
	calls      int
}

func (r *stubResolver) OwnerDeployment(ctx context.Context, namespace, pod string) string {
	r.calls++
	return r.deployment
}

// unknownIssue is an issue kind the dispatcher has no mapping for.
type unknownIssue struct{}

func (unknownIssue) Kind() models.IssueKind    { return models.IssueKind("node_pressure") }
func (unknownIssue) Severity() models.Severity { return models.SeverityWarning }
func (unknownIssue) Pod() string               { return "web-1" }
func (unknownIssue) Namespace() string         { return "prod" }
func (unknownIssue) Container() string         { return "" }
func (unknownIssue) DetectedAt() time.Time     { return time.Time{} }
func (unknownIssue) Details() []models.Detail  { return nil }

var testParams = Params{MemoryIncrease: "256Mi", CPUIncrease: "200m"}

func TestDispatchOOMKilled(t *testing.T) {
	resolver := &stubResolver{deployment: "web"}
	d := New(resolver)

	issue := models.OOMKilled{PodName: "web-7c9f8d-x2z1", PodNamespace: "prod", ContainerName: "web"}
	action, ok := d.Dispatch(context.Background(), issue, testParams)
	if !ok {
		t.Fatal("Dispatch() returned no action")
	}

	limits, ok := action.(models.IncreaseResourceLimits)
	if !ok {
		t.Fatalf("action type = %T, want IncreaseResourceLimits", action)
	}
	if limits.Name != "web" || limits.Namespace != "prod" {
		t.Errorf("target = %s/%s, want prod/web", limits.Namespace, limits.Name)
	}
	if limits.MemoryLimit != "256Mi" || limits.CPULimit != "200m" {
		t.Errorf("limits = %s/%s, want 256Mi/200m", limits.MemoryLimit, limits.CPULimit)
	}
	if resolver.calls != 1 {
		t.Errorf("owner resolver called %d times, want 1", resolver.calls)
	}
}

func TestDispatchDeletePod(t *testing.T) {
	resolver := &stubResolver{deployment: "web"}
	d := New(resolver)

	for _, issue := range []models.Issue{
		models.HighRestartCount{PodName: "web-7c9f8d-x2z1", PodNamespace: "prod", Restarts: 5},
		models.CrashLoopBackOff{PodName: "web-7c9f8d-x2z1", PodNamespace: "prod", Restarts: 2},
	} {
		action, ok := d.Dispatch(context.Background(), issue, testParams)
		if !ok {
			t.Fatalf("Dispatch(%s) returned no action", issue.Kind())
		}
		del, ok := action.(models.DeletePod)
		if !ok {
			t.Fatalf("action type = %T, want DeletePod", action)
		}
		if del.Name != "web-7c9f8d-x2z1" || del.Namespace != "prod" {
			t.Errorf("target = %s/%s, want prod/web-7c9f8d-x2z1", del.Namespace, del.Name)
		}
	}

	// Pod-targeted actions never need owner resolution.
	if resolver.calls != 0 {
		t.Errorf("owner resolver called %d times, want 0", resolver.calls)
	}
}

func TestDispatchPodNotRunning(t *testing.T) {
	d := New(&stubResolver{deployment: "batch"})

	issue := models.PodNotRunning{PodName: "batch-1", PodNamespace: "prod", Phase: "Pending"}
	action, ok := d.Dispatch(context.Background(), issue, testParams)
	if !ok {
		t.Fatal("Dispatch() returned no action")
	}

	restart, ok := action.(models.RestartDeployment)
	if !ok {
		t.Fatalf("action type = %T, want RestartDeployment", action)
	}
	if restart.Name != "batch" || restart.Namespace != "prod" {
		t.Errorf("target = %s/%s, want prod/batch", restart.Namespace, restart.Name)
	}
}

func TestDispatchUnmappedKind(t *testing.T) {
	d := New(&stubResolver{deployment: "web"})

	action, ok := d.Dispatch(context.Background(), unknownIssue{}, testParams)
	if ok || action != nil {
		t.Errorf("Dispatch() = %v, %v; want nil, false", action, ok)
	}
}
