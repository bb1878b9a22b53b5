// Package classifier turns pod status snapshots into typed issues. The
// rules are independent and side-effect free: one pod can emit several
// issues in a single pass, and a standing condition re-emits on every
// pass. Suppression of repeated remediation is the safety governor's
// job, not the classifier's.
package classifier

import (
	"time"

	"github.com/moolen/remedy/internal/models"
)

// Rules holds the thresholds the detection rules are parameterized on.
type Rules struct {
	// RestartThreshold is the restart count a container must exceed
	// (strictly) to raise a HighRestartCount issue.
	RestartThreshold int32
}

// Classify applies the detection rules to the given snapshots and
// returns the issues found, in snapshot order. The now timestamp is
// stamped onto every issue so identical inputs produce identical output.
func Classify(snapshots []models.PodStatus, rules Rules, now time.Time) []models.Issue {
	var issues []models.Issue

	for _, pod := range snapshots {
		for _, cs := range pod.Containers {
			if cs.RestartCount > rules.RestartThreshold {
				issues = append(issues, models.HighRestartCount{
					PodName:       pod.Name,
					PodNamespace:  pod.Namespace,
					ContainerName: cs.Name,
					Restarts:      cs.RestartCount,
					At:            now,
				})
			}

			if cs.LastTerminationReason == "OOMKilled" {
				issues = append(issues, models.OOMKilled{
					PodName:       pod.Name,
					PodNamespace:  pod.Namespace,
					ContainerName: cs.Name,
					At:            now,
				})
			}

			if cs.WaitingReason == "CrashLoopBackOff" {
				issues = append(issues, models.CrashLoopBackOff{
					PodName:       pod.Name,
					PodNamespace:  pod.Namespace,
					ContainerName: cs.Name,
					Restarts:      cs.RestartCount,
					At:            now,
				})
			}
		}

		if pod.Phase != "Running" && pod.Phase != "Succeeded" {
			issues = append(issues, models.PodNotRunning{
				PodName:      pod.Name,
				PodNamespace: pod.Namespace,
				Phase:        pod.Phase,
				Reason:       pod.Reason,
				At:           now,
			})
		}
	}

	return issues
}
