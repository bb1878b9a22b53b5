package config

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-version"
	"k8s.io/apimachinery/pkg/api/resource"
)

// PolicySchemaVersion is the schema version written into new policy files.
const PolicySchemaVersion = "v1"

// supportedSchemaMajor is the highest schema major this build understands.
// Files with a newer major are rejected rather than half-parsed.
const supportedSchemaMajor = 1

var minSchemaVersion = version.Must(version.NewVersion("1.0"))

// PolicyFile is the remediation policy: which namespaces to watch, what
// counts as an issue, how aggressively to heal, and the safety limits.
// It is hot-reloadable at runtime, see PolicyWatcher.
//
// Example YAML structure:
//
//	schema_version: v1
//	namespaces: []            # empty means all namespaces
//	excluded_namespaces:
//	  - kube-system
//	  - kube-public
//	  - istio-system
//	detection:
//	  restart_threshold: 3
//	healing:
//	  oom_memory_increase: 256Mi
//	  oom_cpu_increase: 200m
//	  scale_up_increment: 1
//	  max_replicas: 10
//	safety:
//	  max_actions_per_hour: 20
//	  cooldown_seconds: 60
type PolicyFile struct {
	// SchemaVersion is the explicit policy schema version (e.g., "v1")
	SchemaVersion string `yaml:"schema_version"`

	// Namespaces restricts observation to this set; empty means all
	Namespaces []string `yaml:"namespaces"`

	// ExcludedNamespaces are never observed, even when listed above
	ExcludedNamespaces []string `yaml:"excluded_namespaces"`

	// Detection holds the classifier thresholds
	Detection DetectionPolicy `yaml:"detection"`

	// Healing holds the per-action resource deltas
	Healing HealingPolicy `yaml:"healing"`

	// Safety holds the governor limits
	Safety SafetyPolicy `yaml:"safety"`
}

// DetectionPolicy holds the classifier thresholds.
type DetectionPolicy struct {
	// RestartThreshold: a container restarting strictly more often than
	// this emits a HighRestartCount issue
	RestartThreshold int32 `yaml:"restart_threshold"`
}

// HealingPolicy holds the per-action resource deltas.
type HealingPolicy struct {
	// OOMMemoryIncrease is the memory limit applied after an OOM kill
	OOMMemoryIncrease string `yaml:"oom_memory_increase"`

	// OOMCPUIncrease is the cpu limit applied after an OOM kill
	OOMCPUIncrease string `yaml:"oom_cpu_increase"`

	// ScaleUpIncrement is how many replicas a scale-up adds
	ScaleUpIncrement int32 `yaml:"scale_up_increment"`

	// MaxReplicas caps any scale target
	MaxReplicas int32 `yaml:"max_replicas"`
}

// SafetyPolicy holds the governor limits.
type SafetyPolicy struct {
	// MaxActionsPerHour is the cluster-wide approval cap in a trailing hour
	MaxActionsPerHour int `yaml:"max_actions_per_hour"`

	// CooldownSeconds is the minimum gap between approvals per resource key
	CooldownSeconds int `yaml:"cooldown_seconds"`
}

// DefaultPolicy returns the policy written into a fresh policy file.
func DefaultPolicy() *PolicyFile {
	return &PolicyFile{
		SchemaVersion:      PolicySchemaVersion,
		Namespaces:         []string{},
		ExcludedNamespaces: []string{"kube-system", "kube-public", "istio-system"},
		Detection: DetectionPolicy{
			RestartThreshold: 3,
		},
		Healing: HealingPolicy{
			OOMMemoryIncrease: "256Mi",
			OOMCPUIncrease:    "200m",
			ScaleUpIncrement:  1,
			MaxReplicas:       10,
		},
		Safety: SafetyPolicy{
			MaxActionsPerHour: 20,
			CooldownSeconds:   60,
		},
	}
}

// Validate checks that the policy is well-formed. Returns descriptive
// errors for validation failures.
func (f *PolicyFile) Validate() error {
	if err := f.validateSchemaVersion(); err != nil {
		return err
	}

	if f.Detection.RestartThreshold < 0 {
		return NewConfigError("detection.restart_threshold must be non-negative")
	}

	if _, err := resource.ParseQuantity(f.Healing.OOMMemoryIncrease); err != nil {
		return NewConfigError(fmt.Sprintf("healing.oom_memory_increase %q is not a valid quantity", f.Healing.OOMMemoryIncrease))
	}
	if _, err := resource.ParseQuantity(f.Healing.OOMCPUIncrease); err != nil {
		return NewConfigError(fmt.Sprintf("healing.oom_cpu_increase %q is not a valid quantity", f.Healing.OOMCPUIncrease))
	}

	if f.Healing.ScaleUpIncrement < 1 {
		return NewConfigError("healing.scale_up_increment must be at least 1")
	}
	if f.Healing.MaxReplicas < 1 {
		return NewConfigError("healing.max_replicas must be at least 1")
	}

	if f.Safety.MaxActionsPerHour < 1 {
		return NewConfigError("safety.max_actions_per_hour must be at least 1")
	}
	if f.Safety.CooldownSeconds < 0 {
		return NewConfigError("safety.cooldown_seconds must be non-negative")
	}

	for i, ns := range f.Namespaces {
		if ns == "" {
			return NewConfigError(fmt.Sprintf("namespaces[%d] must not be empty", i))
		}
	}

	return nil
}

// validateSchemaVersion parses schema_version and rejects files outside
// the supported range. Older minors within the same major are accepted
// for forward compatibility of defaults.
func (f *PolicyFile) validateSchemaVersion() error {
	if f.SchemaVersion == "" {
		return NewConfigError("schema_version is required")
	}

	v, err := version.NewVersion(strings.TrimPrefix(f.SchemaVersion, "v"))
	if err != nil {
		return NewConfigError(fmt.Sprintf("invalid schema_version %q: %v", f.SchemaVersion, err))
	}

	if v.LessThan(minSchemaVersion) {
		return NewConfigError(fmt.Sprintf("schema_version %q is older than the minimum supported %s", f.SchemaVersion, minSchemaVersion))
	}
	if v.Segments()[0] > supportedSchemaMajor {
		return NewConfigError(fmt.Sprintf("schema_version %q is newer than this build supports (major %d)", f.SchemaVersion, supportedSchemaMajor))
	}

	return nil
}

// Excluded reports whether a namespace is in the excluded set.
func (f *PolicyFile) Excluded(namespace string) bool {
	for _, ns := range f.ExcludedNamespaces {
		if ns == namespace {
			return true
		}
	}
	return false
}
