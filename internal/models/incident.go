package models

import "time"

// Incident pairs a handled issue with its analysis, action outcome, and
// the rendered report text. Incidents are kept in a bounded in-memory
// history and written to one report file each; there is no durable
// dedupe across restarts.
type Incident struct {
	// ID is a unique identifier (UUID)
	ID string `json:"id"`

	// Timestamp is when the incident was assembled
	Timestamp time.Time `json:"timestamp"`

	// Issue is the flattened record of the classified condition
	Issue IssueRecord `json:"issue"`

	// Analysis is the advisory root-cause explanation (possibly fallback)
	Analysis Analysis `json:"analysis"`

	// Result is the action outcome; zero-valued when no action was mapped
	Result ActionResult `json:"result"`

	// Report is the rendered report text
	Report string `json:"report"`
}
