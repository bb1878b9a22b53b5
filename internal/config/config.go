package config

import "time"

// Config holds the operational configuration for the agent, assembled
// from CLI flags and environment. Remediation policy (thresholds, healing
// deltas, safety limits) lives in the policy file instead, see policy.go.
type Config struct {
	// APIPort is the port the status API server listens on
	APIPort int

	// LogLevel is the logging level (debug, info, warn, error)
	LogLevel string

	// CheckInterval is the pause between control-loop ticks
	CheckInterval time.Duration

	// DryRun simulates all remediations without touching the cluster
	DryRun bool

	// PolicyPath is the path to the YAML remediation policy file
	PolicyPath string

	// ReportDir is the directory incident reports are written to
	ReportDir string

	// OracleProvider selects the reasoning oracle ("gemini", "anthropic",
	// or "" for none)
	OracleProvider string

	// OracleModel overrides the provider's default model when non-empty
	OracleModel string

	// OracleTimeout bounds a single oracle call
	OracleTimeout time.Duration

	// TracingEnabled indicates whether OpenTelemetry tracing is enabled
	TracingEnabled bool

	// TracingEndpoint is the OTLP gRPC endpoint for trace export
	TracingEndpoint string

	// TracingTLSCAPath is the path to the CA certificate for TLS verification
	TracingTLSCAPath string
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.APIPort < 1 || c.APIPort > 65535 {
		return NewConfigError("APIPort must be between 1 and 65535")
	}

	if c.CheckInterval < time.Second {
		return NewConfigError("CheckInterval must be at least 1s")
	}

	if c.PolicyPath == "" {
		return NewConfigError("PolicyPath must not be empty")
	}

	if c.ReportDir == "" {
		return NewConfigError("ReportDir must not be empty")
	}

	switch c.OracleProvider {
	case "", "gemini", "anthropic":
	default:
		return NewConfigError("OracleProvider must be one of: gemini, anthropic")
	}

	if c.OracleTimeout <= 0 {
		return NewConfigError("OracleTimeout must be positive")
	}

	if c.TracingEnabled && c.TracingEndpoint == "" {
		return NewConfigError("TracingEndpoint must be set when tracing is enabled")
	}

	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	message string
}

// NewConfigError creates a new configuration error
func NewConfigError(message string) *ConfigError {
	return &ConfigError{message: message}
}

// Error returns the error message
func (e *ConfigError) Error() string {
	return e.message
}
