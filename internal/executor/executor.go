// Package executor performs approved remediations against the cluster.
// Every action passes the safety gate first; an approved action is then
// either simulated (dry-run) or applied with the narrowest possible
// mutation for its kind. All outcomes, including denials and failures,
// come back as a uniform ActionResult so the reporter and the status
// surface never special-case.
package executor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/kubernetes"

	"github.com/moolen/remedy/internal/logging"
	"github.com/moolen/remedy/internal/models"
)

// restartedAtAnnotation is the pod-template annotation kubectl uses for
// rolling restarts; patching it triggers a new rollout.
const restartedAtAnnotation = "kubectl.kubernetes.io/restartedAt"

// Approver gates every action. Implemented by governor.Governor.
type Approver interface {
	Approve(resourceKey string) bool
}

// Config fixes the executor's mode and bounds.
type Config struct {
	// DryRun simulates every action instead of mutating the cluster.
	DryRun bool

	// MaxReplicas caps scale targets. Zero disables the clamp.
	MaxReplicas int32
}

// Executor applies remediation actions.
type Executor struct {
	client      kubernetes.Interface
	approver    Approver
	dryRun      bool
	maxReplicas atomic.Int32
	logger      *logging.Logger
}

// New creates an Executor on top of the given clientset and safety gate.
func New(client kubernetes.Interface, approver Approver, cfg Config) *Executor {
	e := &Executor{
		client:   client,
		approver: approver,
		dryRun:   cfg.DryRun,
		logger:   logging.GetLogger("executor"),
	}
	e.maxReplicas.Store(cfg.MaxReplicas)
	return e
}

// SetMaxReplicas swaps the scale clamp, used on policy reload.
func (e *Executor) SetMaxReplicas(limit int32) {
	e.maxReplicas.Store(limit)
}

// DryRun reports whether the executor simulates actions.
func (e *Executor) DryRun() bool {
	return e.dryRun
}

// Execute runs one action. The safety gate is consulted first: a denial
// returns a failed result without touching the cluster. In dry-run mode
// the approval is still recorded, then the intended change is described
// instead of applied.
func (e *Executor) Execute(ctx context.Context, action models.Action) models.ActionResult {
	if !e.approver.Approve(action.ResourceKey()) {
		return models.ActionResult{
			Success:  false,
			Action:   action.Kind(),
			Resource: action.Resource(),
			Error:    models.SafetyDenialMessage,
		}
	}

	if e.dryRun {
		msg := "[DRY RUN] Would " + action.Describe()
		e.logger.Info("%s", msg)
		return models.ActionResult{
			Success:  true,
			DryRun:   true,
			Action:   action.Kind(),
			Resource: action.Resource(),
			Message:  msg,
		}
	}

	var (
		msg string
		err error
	)
	switch a := action.(type) {
	case models.DeletePod:
		msg, err = e.deletePod(ctx, a)
	case models.RestartDeployment:
		msg, err = e.restartDeployment(ctx, a)
	case models.IncreaseResourceLimits:
		msg, err = e.increaseResourceLimits(ctx, a)
	case models.ScaleDeployment:
		msg, err = e.scaleDeployment(ctx, a)
	default:
		err = fmt.Errorf("unsupported action kind %q", action.Kind())
	}

	if err != nil {
		mutErr := &models.MutationError{Action: action.Kind(), Resource: action.Resource(), Err: err}
		e.logger.ErrorWithErr("Remediation failed", mutErr)
		return models.ActionResult{
			Success:  false,
			Action:   action.Kind(),
			Resource: action.Resource(),
			Error:    failureReason(err),
		}
	}

	e.logger.Info("%s", msg)
	return models.ActionResult{
		Success:  true,
		Action:   action.Kind(),
		Resource: action.Resource(),
		Message:  msg,
	}
}

func (e *Executor) deletePod(ctx context.Context, a models.DeletePod) (string, error) {
	err := e.client.CoreV1().Pods(a.Namespace).Delete(ctx, a.Name, metav1.DeleteOptions{})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Deleted pod %s/%s (controller will recreate it)", a.Namespace, a.Name), nil
}

func (e *Executor) restartDeployment(ctx context.Context, a models.RestartDeployment) (string, error) {
	patch, err := json.Marshal(map[string]any{
		"spec": map[string]any{
			"template": map[string]any{
				"metadata": map[string]any{
					"annotations": map[string]string{
						restartedAtAnnotation: time.Now().UTC().Format(time.RFC3339),
					},
				},
			},
		},
	})
	if err != nil {
		return "", err
	}

	_, err = e.client.AppsV1().Deployments(a.Namespace).
		Patch(ctx, a.Name, types.MergePatchType, patch, metav1.PatchOptions{})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Restarted deployment %s/%s", a.Namespace, a.Name), nil
}

func (e *Executor) increaseResourceLimits(ctx context.Context, a models.IncreaseResourceLimits) (string, error) {
	memory, err := resource.ParseQuantity(a.MemoryLimit)
	if err != nil {
		return "", fmt.Errorf("invalid memory limit %q: %w", a.MemoryLimit, err)
	}
	cpu, err := resource.ParseQuantity(a.CPULimit)
	if err != nil {
		return "", fmt.Errorf("invalid cpu limit %q: %w", a.CPULimit, err)
	}

	deployments := e.client.AppsV1().Deployments(a.Namespace)
	deployment, err := deployments.Get(ctx, a.Name, metav1.GetOptions{})
	if err != nil {
		return "", err
	}

	// Requests are raised to the same values so a small preexisting
	// limit can never end up below its request.
	for i := range deployment.Spec.Template.Spec.Containers {
		c := &deployment.Spec.Template.Spec.Containers[i]
		if c.Resources.Limits == nil {
			c.Resources.Limits = corev1.ResourceList{}
		}
		if c.Resources.Requests == nil {
			c.Resources.Requests = corev1.ResourceList{}
		}
		c.Resources.Limits[corev1.ResourceMemory] = memory
		c.Resources.Limits[corev1.ResourceCPU] = cpu
		c.Resources.Requests[corev1.ResourceMemory] = memory
		c.Resources.Requests[corev1.ResourceCPU] = cpu
	}

	if _, err := deployments.Update(ctx, deployment, metav1.UpdateOptions{}); err != nil {
		return "", err
	}
	return fmt.Sprintf("Increased resource limits for %s/%s", a.Namespace, a.Name), nil
}

func (e *Executor) scaleDeployment(ctx context.Context, a models.ScaleDeployment) (string, error) {
	replicas := a.Replicas
	if limit := e.maxReplicas.Load(); limit > 0 && replicas > limit {
		e.logger.Warn("Clamping scale target for %s/%s from %d to %d replicas",
			a.Namespace, a.Name, replicas, limit)
		replicas = limit
	}

	patch := fmt.Sprintf(`{"spec":{"replicas":%d}}`, replicas)
	_, err := e.client.AppsV1().Deployments(a.Namespace).
		Patch(ctx, a.Name, types.MergePatchType, []byte(patch), metav1.PatchOptions{})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Scaled %s/%s to %d replicas", a.Namespace, a.Name, replicas), nil
}

// failureReason maps a mutation failure to the text carried in the
// ActionResult: the API-reported status reason when there is one, the
// plain error message otherwise.
func failureReason(err error) string {
	var statusErr *apierrors.StatusError
	if errors.As(err, &statusErr) {
		if reason := statusErr.Status().Reason; reason != "" && reason != metav1.StatusReasonUnknown {
			return string(reason)
		}
	}
	return err.Error()
}
