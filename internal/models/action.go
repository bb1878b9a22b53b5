package models

import "fmt"

// ActionKind identifies a remediation operation.
type ActionKind string

const (
	// ActionDeletePod deletes a pod so its controller recreates it
	ActionDeletePod ActionKind = "delete_pod"
	// ActionRestartDeployment triggers a rolling restart of a deployment
	ActionRestartDeployment ActionKind = "restart_deployment"
	// ActionIncreaseResourceLimits raises memory/cpu limits on a deployment
	ActionIncreaseResourceLimits ActionKind = "increase_resource_limits"
	// ActionScaleDeployment sets a deployment's replica count
	ActionScaleDeployment ActionKind = "scale_deployment"
)

// Action is a concrete remediation operation with a resolved target.
// Each kind is its own variant carrying only the parameters that apply
// to it; the executor dispatches on the concrete type.
type Action interface {
	// Kind returns the operation class
	Kind() ActionKind
	// ResourceKey returns the safety-governor key, format "kind:namespace/name"
	ResourceKey() string
	// Resource returns the target as "namespace/name"
	Resource() string
	// Describe returns the intended change in human-readable form
	Describe() string
}

// DeletePod removes a pod; its owning controller recreates it.
type DeletePod struct {
	Name      string
	Namespace string
}

func (a DeletePod) Kind() ActionKind { return ActionDeletePod }
func (a DeletePod) ResourceKey() string {
	return fmt.Sprintf("delete:%s/%s", a.Namespace, a.Name)
}
func (a DeletePod) Resource() string { return a.Namespace + "/" + a.Name }
func (a DeletePod) Describe() string {
	return fmt.Sprintf("delete pod %s/%s", a.Namespace, a.Name)
}

// RestartDeployment patches the pod template restart annotation to force
// a rolling restart.
type RestartDeployment struct {
	Name      string
	Namespace string
}

func (a RestartDeployment) Kind() ActionKind { return ActionRestartDeployment }
func (a RestartDeployment) ResourceKey() string {
	return fmt.Sprintf("restart:%s/%s", a.Namespace, a.Name)
}
func (a RestartDeployment) Resource() string { return a.Namespace + "/" + a.Name }
func (a RestartDeployment) Describe() string {
	return fmt.Sprintf("restart deployment %s/%s", a.Namespace, a.Name)
}

// IncreaseResourceLimits sets memory and cpu limits (and requests, kept
// equal to the limits) on every container of a deployment.
type IncreaseResourceLimits struct {
	Name        string
	Namespace   string
	MemoryLimit string
	CPULimit    string
}

func (a IncreaseResourceLimits) Kind() ActionKind { return ActionIncreaseResourceLimits }
func (a IncreaseResourceLimits) ResourceKey() string {
	return fmt.Sprintf("limits:%s/%s", a.Namespace, a.Name)
}
func (a IncreaseResourceLimits) Resource() string { return a.Namespace + "/" + a.Name }
func (a IncreaseResourceLimits) Describe() string {
	return fmt.Sprintf("increase resources for deployment %s/%s to memory=%s, cpu=%s",
		a.Namespace, a.Name, a.MemoryLimit, a.CPULimit)
}

// ScaleDeployment sets a deployment's replica count.
type ScaleDeployment struct {
	Name      string
	Namespace string
	Replicas  int32
}

func (a ScaleDeployment) Kind() ActionKind { return ActionScaleDeployment }
func (a ScaleDeployment) ResourceKey() string {
	return fmt.Sprintf("scale:%s/%s", a.Namespace, a.Name)
}
func (a ScaleDeployment) Resource() string { return a.Namespace + "/" + a.Name }
func (a ScaleDeployment) Describe() string {
	return fmt.Sprintf("scale deployment %s/%s to %d replicas", a.Namespace, a.Name, a.Replicas)
}

// ActionResult is the uniform outcome shape shared by every action kind,
// live or dry-run, success or failure.
type ActionResult struct {
	// Success is false for denials and execution failures
	Success bool `json:"success"`

	// DryRun marks results that describe an intended change without a cluster call
	DryRun bool `json:"dry_run"`

	// Action is the operation class this result belongs to
	Action ActionKind `json:"action"`

	// Resource is the target as "namespace/name"
	Resource string `json:"resource"`

	// Message describes the performed (or simulated) change on success
	Message string `json:"message,omitempty"`

	// Error carries the denial or failure reason when Success is false
	Error string `json:"error,omitempty"`
}
