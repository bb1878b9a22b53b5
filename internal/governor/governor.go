// Package governor is the safety gate in front of every remediation.
// Two independent checks must pass before an action is approved: a
// cluster-wide rate limit over a trailing one-hour window, and a
// per-resource cooldown. Approvals are recorded atomically with the
// decision, so a dry-run consumes exactly the same capacity as a live
// action. Denials record nothing.
package governor

import (
	"sync"
	"time"

	"github.com/moolen/remedy/internal/logging"
)

// rateWindow is the trailing window the rate limit is computed over.
const rateWindow = time.Hour

// Limits are the configured safety bounds.
type Limits struct {
	// MaxActionsPerHour caps approvals inside the trailing window,
	// across all resources.
	MaxActionsPerHour int

	// Cooldown is the minimum gap between two approvals for the same
	// resource key.
	Cooldown time.Duration
}

// Governor owns the rate ledger and the cooldown map. No other
// component reads or writes them.
type Governor struct {
	mu        sync.Mutex
	limits    Limits
	approvals []time.Time
	lastByKey map[string]time.Time
	now       func() time.Time
	logger    *logging.Logger
}

// New creates a Governor with the given limits.
func New(limits Limits) *Governor {
	return &Governor{
		limits:    limits,
		lastByKey: make(map[string]time.Time),
		now:       time.Now,
		logger:    logging.GetLogger("governor"),
	}
}

// SetLimits swaps the safety bounds, used on policy reload. Recorded
// approvals keep counting against the new limits.
func (g *Governor) SetLimits(limits Limits) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.limits = limits
}

// Approve runs both gates for a resource key, in the form
// "kind:namespace/name". On approval the timestamp is recorded into the
// ledger and the cooldown map before returning; a denial records
// nothing and leaves all state untouched.
func (g *Governor) Approve(resourceKey string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	g.prune(now)

	if len(g.approvals) >= g.limits.MaxActionsPerHour {
		g.logger.Warn("Rate limit reached: %d/%d actions in the last hour",
			len(g.approvals), g.limits.MaxActionsPerHour)
		return false
	}

	if last, ok := g.lastByKey[resourceKey]; ok {
		if elapsed := now.Sub(last); elapsed < g.limits.Cooldown {
			remaining := g.limits.Cooldown - elapsed
			g.logger.Info("Cooldown active for %s: %ds remaining",
				resourceKey, int(remaining.Seconds()))
			return false
		}
	}

	g.approvals = append(g.approvals, now)
	g.lastByKey[resourceKey] = now
	return true
}

// prune drops ledger entries that fell out of the trailing window.
// Callers hold the mutex.
func (g *Governor) prune(now time.Time) {
	cutoff := now.Add(-rateWindow)
	kept := g.approvals[:0]
	for _, t := range g.approvals {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	g.approvals = kept
}

// Stats is a read-only snapshot of governor occupancy.
type Stats struct {
	// ActionsInWindow is the number of approvals inside the trailing hour.
	ActionsInWindow int `json:"actions_in_window"`

	// MaxActionsPerHour is the configured cap.
	MaxActionsPerHour int `json:"max_actions_per_hour"`

	// ResourcesInCooldown is the number of resource keys currently
	// inside their cooldown.
	ResourcesInCooldown int `json:"resources_in_cooldown"`
}

// Stats reports current occupancy for the status surface.
func (g *Governor) Stats() Stats {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	g.prune(now)

	cooling := 0
	for _, last := range g.lastByKey {
		if now.Sub(last) < g.limits.Cooldown {
			cooling++
		}
	}

	return Stats{
		ActionsInWindow:     len(g.approvals),
		MaxActionsPerHour:   g.limits.MaxActionsPerHour,
		ResourcesInCooldown: cooling,
	}
}
