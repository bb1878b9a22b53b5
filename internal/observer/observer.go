// Package observer provides read-only views of cluster state: pod status
// snapshots for the classifier, recent pod logs for the reasoning oracle,
// and owning-deployment resolution for the dispatcher. Nothing in this
// package mutates the cluster.
package observer

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"

	"github.com/moolen/remedy/internal/logging"
	"github.com/moolen/remedy/internal/models"
)

const ownerCacheSize = 512

// Observer answers the control loop's read-only queries against the
// cluster API.
type Observer struct {
	client     kubernetes.Interface
	ownerCache *lru.Cache[string, ownerEntry]
	logger     *logging.Logger
}

// New creates an Observer on top of the given clientset.
func New(client kubernetes.Interface) *Observer {
	cache, _ := lru.New[string, ownerEntry](ownerCacheSize)
	return &Observer{
		client:     client,
		ownerCache: cache,
		logger:     logging.GetLogger("observer"),
	}
}

// Snapshot returns the current pod status snapshots for one namespace.
// A transport-level failure comes back as a models.TransportError; the
// caller logs it and skips the namespace for this tick.
func (o *Observer) Snapshot(ctx context.Context, namespace string) ([]models.PodStatus, error) {
	pods, err := o.client.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, &models.TransportError{Op: "list pods", Namespace: namespace, Err: err}
	}

	snapshots := make([]models.PodStatus, 0, len(pods.Items))
	for i := range pods.Items {
		pod := &pods.Items[i]

		status := models.PodStatus{
			Name:      pod.Name,
			Namespace: pod.Namespace,
			Phase:     string(pod.Status.Phase),
			Reason:    pod.Status.Reason,
		}

		for _, cs := range pod.Status.ContainerStatuses {
			state := models.ContainerState{
				Name:         cs.Name,
				RestartCount: cs.RestartCount,
			}
			if cs.LastTerminationState.Terminated != nil {
				state.LastTerminationReason = cs.LastTerminationState.Terminated.Reason
			}
			if cs.State.Waiting != nil {
				state.WaitingReason = cs.State.Waiting.Reason
			}
			status.Containers = append(status.Containers, state)
		}

		snapshots = append(snapshots, status)
	}

	return snapshots, nil
}
