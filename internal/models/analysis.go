package models

// RiskLevel grades how risky the recommended remediation is.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// ValidRiskLevel reports whether s is one of low, medium, high.
func ValidRiskLevel(s string) bool {
	switch RiskLevel(s) {
	case RiskLow, RiskMedium, RiskHigh:
		return true
	}
	return false
}

// Analysis is the advisory root-cause explanation for an issue, produced
// by the reasoning oracle or its deterministic fallback. It never
// influences action selection.
type Analysis struct {
	// RootCause is the oracle's (or fallback's) explanation of what went wrong
	RootCause string `json:"root_cause"`

	// RecommendedAction is advisory; the dispatcher ignores it
	RecommendedAction string `json:"recommended_action"`

	// RiskLevel is low, medium, or high
	RiskLevel RiskLevel `json:"risk_level"`

	// Explanation is free-form supporting detail
	Explanation string `json:"explanation"`

	// Fallback is true when the oracle was unavailable or unparseable
	Fallback bool `json:"fallback,omitempty"`
}
