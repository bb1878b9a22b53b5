// Package dispatch maps classified issues to remediation actions. The
// mapping is deterministic and ignores the oracle's analysis entirely;
// the only external input is owning-deployment resolution for actions
// that target a deployment rather than a pod.
package dispatch

import (
	"context"

	"github.com/moolen/remedy/internal/models"
)

// OwnerResolver resolves the deployment owning a pod.
type OwnerResolver interface {
	OwnerDeployment(ctx context.Context, namespace, pod string) string
}

// Params carries the policy-configured parameters for dispatched actions.
type Params struct {
	// MemoryIncrease is the memory limit applied on OOM kills, e.g. "256Mi".
	MemoryIncrease string

	// CPUIncrease is the cpu limit applied on OOM kills, e.g. "200m".
	CPUIncrease string
}

// Dispatcher derives actions from issues.
type Dispatcher struct {
	owners OwnerResolver
}

// New creates a Dispatcher using the given owner resolution.
func New(owners OwnerResolver) *Dispatcher {
	return &Dispatcher{owners: owners}
}

// Dispatch returns the remediation action for an issue, or (nil, false)
// when the issue kind has no mapped action.
func (d *Dispatcher) Dispatch(ctx context.Context, issue models.Issue, params Params) (models.Action, bool) {
	switch issue.Kind() {
	case models.IssueOOMKilled:
		return models.IncreaseResourceLimits{
			Name:        d.owners.OwnerDeployment(ctx, issue.Namespace(), issue.Pod()),
			Namespace:   issue.Namespace(),
			MemoryLimit: params.MemoryIncrease,
			CPULimit:    params.CPUIncrease,
		}, true

	case models.IssueHighRestartCount, models.IssueCrashLoopBackOff:
		return models.DeletePod{
			Name:      issue.Pod(),
			Namespace: issue.Namespace(),
		}, true

	case models.IssuePodNotRunning:
		return models.RestartDeployment{
			Name:      d.owners.OwnerDeployment(ctx, issue.Namespace(), issue.Pod()),
			Namespace: issue.Namespace(),
		}, true

	default:
		return nil, false
	}
}
