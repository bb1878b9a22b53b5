package models

// ContainerState is the classifier-relevant slice of a container's status.
type ContainerState struct {
	// Name is the container name
	Name string `json:"name"`

	// RestartCount is the container's cumulative restart count
	RestartCount int32 `json:"restart_count"`

	// LastTerminationReason is the reason of the last terminated state,
	// e.g. "OOMKilled", or "" if the container never terminated
	LastTerminationReason string `json:"last_termination_reason,omitempty"`

	// WaitingReason is the current waiting reason, e.g. "CrashLoopBackOff",
	// or "" if the container is not waiting
	WaitingReason string `json:"waiting_reason,omitempty"`
}

// PodStatus is a read-only snapshot of one pod's health, taken by the
// observer and consumed by the classifier. It carries only the fields
// classification rules inspect.
type PodStatus struct {
	// Name is the pod name
	Name string `json:"name"`

	// Namespace is the pod's namespace
	Namespace string `json:"namespace"`

	// Phase is the pod phase (Pending, Running, Succeeded, Failed, Unknown)
	Phase string `json:"phase"`

	// Reason is the pod-level status reason, e.g. "Evicted", if any
	Reason string `json:"reason,omitempty"`

	// Containers are the per-container states
	Containers []ContainerState `json:"containers"`
}
