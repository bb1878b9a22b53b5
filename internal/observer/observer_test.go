package observer

import (
	"context"
	"fmt"
	"testing"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/kubernetes/fake"
	k8stesting "k8s.io/client-go/testing"

	"github.com/moolen/remedy/internal/models"
)

// TestSnapshot verifies that pod objects are flattened into PodStatus
// snapshots including per-container restart and state details.
func TestSnapshot(t *testing.T) {
	crashing := &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{Name: "web-7c9f8d-x2z1", Namespace: "prod"},
		Status: corev1.PodStatus{
			Phase: corev1.PodRunning,
			ContainerStatuses: []corev1.ContainerStatus{
				{
					Name:         "web",
					RestartCount: 5,
					State: corev1.ContainerState{
						Waiting: &corev1.ContainerStateWaiting{Reason: "CrashLoopBackOff"},
					},
					LastTerminationState: corev1.ContainerState{
						Terminated: &corev1.ContainerStateTerminated{Reason: "OOMKilled"},
					},
				},
			},
		},
	}
	pending := &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{Name: "batch-1", Namespace: "prod"},
		Status: corev1.PodStatus{
			Phase:  corev1.PodPending,
			Reason: "Unschedulable",
		},
	}
	other := &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{Name: "api-1", Namespace: "staging"},
		Status:     corev1.PodStatus{Phase: corev1.PodRunning},
	}

	obs := New(fake.NewSimpleClientset(crashing, pending, other))

	snapshots, err := obs.Snapshot(context.Background(), "prod")
	if err != nil {
		t.Fatalf("Snapshot() failed: %v", err)
	}
	if len(snapshots) != 2 {
		t.Fatalf("Snapshot() returned %d pods, want 2", len(snapshots))
	}

	byName := map[string]models.PodStatus{}
	for _, s := range snapshots {
		byName[s.Name] = s
	}

	web, ok := byName["web-7c9f8d-x2z1"]
	if !ok {
		t.Fatal("Snapshot() missing pod web-7c9f8d-x2z1")
	}
	if web.Namespace != "prod" || web.Phase != "Running" {
		t.Errorf("unexpected pod snapshot: %+v", web)
	}
	if len(web.Containers) != 1 {
		t.Fatalf("got %d container states, want 1", len(web.Containers))
	}
	container := web.Containers[0]
	if container.Name != "web" || container.RestartCount != 5 {
		t.Errorf("unexpected container state: %+v", container)
	}
	if container.LastTerminationReason != "OOMKilled" {
		t.Errorf("LastTerminationReason = %q, want %q", container.LastTerminationReason, "OOMKilled")
	}
	if container.WaitingReason != "CrashLoopBackOff" {
		t.Errorf("WaitingReason = %q, want %q", container.WaitingReason, "CrashLoopBackOff")
	}

	batch, ok := byName["batch-1"]
	if !ok {
		t.Fatal("Snapshot() missing pod batch-1")
	}
	if batch.Phase != "Pending" || batch.Reason != "Unschedulable" {
		t.Errorf("unexpected pod snapshot: %+v", batch)
	}
	if len(batch.Containers) != 0 {
		t.Errorf("got %d container states, want 0", len(batch.Containers))
	}
}

// TestSnapshotListError verifies that a failing pod list surfaces as a
// transport error instead of a partial snapshot.
func TestSnapshotListError(t *testing.T) {
	clientset := fake.NewSimpleClientset()
	clientset.PrependReactor("list", "pods", func(action k8stesting.Action) (bool, runtime.Object, error) {
		return true, nil, fmt.Errorf("connection refused")
	})

	obs := New(clientset)

	_, err := obs.Snapshot(context.Background(), "prod")
	if err == nil {
		t.Fatal("Snapshot() succeeded, want error")
	}
	if !models.IsTransportError(err) {
		t.Errorf("Snapshot() error = %v, want transport error", err)
	}
}

// TestPodLogs verifies that log content comes back as a plain string.
// The fake clientset serves a fixed body for log subresource requests.
func TestPodLogs(t *testing.T) {
	pod := &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{Name: "web-1", Namespace: "prod"},
	}
	obs := New(fake.NewSimpleClientset(pod))

	logs := obs.PodLogs(context.Background(), "prod", "web-1", 50)
	if logs != "fake logs" {
		t.Errorf("PodLogs() = %q, want %q", logs, "fake logs")
	}

	// Zero tail lines falls back to the default tail.
	logs = obs.PodLogs(context.Background(), "prod", "web-1", 0)
	if logs != "fake logs" {
		t.Errorf("PodLogs() with zero tail = %q, want %q", logs, "fake logs")
	}
}

// TestOwnerDeployment verifies the pod -> ReplicaSet -> Deployment chain
// and that resolved owners stay cached after the chain disappears.
func TestOwnerDeployment(t *testing.T) {
	pod := &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Name:      "web-7c9f8d-x2z1",
			Namespace: "prod",
			OwnerReferences: []metav1.OwnerReference{
				{APIVersion: "apps/v1", Kind: "ReplicaSet", Name: "web-7c9f8d"},
			},
		},
	}
	rs := &appsv1.ReplicaSet{
		ObjectMeta: metav1.ObjectMeta{
			Name:      "web-7c9f8d",
			Namespace: "prod",
			OwnerReferences: []metav1.OwnerReference{
				{APIVersion: "apps/v1", Kind: "Deployment", Name: "web"},
			},
		},
	}

	clientset := fake.NewSimpleClientset(pod, rs)
	obs := New(clientset)
	ctx := context.Background()

	if got := obs.OwnerDeployment(ctx, "prod", "web-7c9f8d-x2z1"); got != "web" {
		t.Errorf("OwnerDeployment() = %q, want %q", got, "web")
	}

	// Remove the ReplicaSet; the cached resolution must survive.
	if err := clientset.AppsV1().ReplicaSets("prod").Delete(ctx, "web-7c9f8d", metav1.DeleteOptions{}); err != nil {
		t.Fatalf("failed to delete replicaset: %v", err)
	}
	if got := obs.OwnerDeployment(ctx, "prod", "web-7c9f8d-x2z1"); got != "web" {
		t.Errorf("OwnerDeployment() after RS delete = %q, want cached %q", got, "web")
	}
}

// TestOwnerDeploymentFallback verifies the name-based fallback when the
// ownership chain cannot be walked.
func TestOwnerDeploymentFallback(t *testing.T) {
	obs := New(fake.NewSimpleClientset())

	// Pod does not exist, so the lookup falls back to suffix stripping.
	if got := obs.OwnerDeployment(context.Background(), "prod", "web-7c9f8d-x2z1"); got != "web" {
		t.Errorf("OwnerDeployment() = %q, want %q", got, "web")
	}
}

func TestStripPodSuffix(t *testing.T) {
	tests := []struct {
		pod  string
		want string
	}{
		{"web-7c9f8d-x2z1", "web"},
		{"checkout-api-5b9c6d7f8-abcde", "checkout-api"},
		{"standalone-pod", "standalone-pod"},
		{"db", "db"},
	}

	for _, tt := range tests {
		if got := stripPodSuffix(tt.pod); got != tt.want {
			t.Errorf("stripPodSuffix(%q) = %q, want %q", tt.pod, got, tt.want)
		}
	}
}
