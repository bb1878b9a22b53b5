package observer

import (
	"context"
	"strings"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

const ownerCacheTTL = 5 * time.Minute

type ownerEntry struct {
	deployment string
	expiresAt  time.Time
}

// OwnerDeployment resolves the deployment owning a pod by following the
// pod -> ReplicaSet -> Deployment ownership chain. Results are cached.
// When the chain cannot be walked (missing objects, bare pods, transport
// errors) the deployment name is recovered by stripping the replica-set
// and pod hash suffixes from the pod name.
func (o *Observer) OwnerDeployment(ctx context.Context, namespace, pod string) string {
	cacheKey := namespace + "/" + pod
	if entry, ok := o.ownerCache.Get(cacheKey); ok && time.Now().Before(entry.expiresAt) {
		return entry.deployment
	}

	deployment, ok := o.resolveOwner(ctx, namespace, pod)
	if !ok {
		deployment = stripPodSuffix(pod)
		o.logger.Debug("Owner lookup for %s/%s fell back to name %q", namespace, pod, deployment)
	}

	o.ownerCache.Add(cacheKey, ownerEntry{
		deployment: deployment,
		expiresAt:  time.Now().Add(ownerCacheTTL),
	})
	return deployment
}

func (o *Observer) resolveOwner(ctx context.Context, namespace, pod string) (string, bool) {
	podObj, err := o.client.CoreV1().Pods(namespace).Get(ctx, pod, metav1.GetOptions{})
	if err != nil {
		return "", false
	}

	for _, owner := range podObj.OwnerReferences {
		if owner.Kind != "ReplicaSet" {
			continue
		}

		rs, err := o.client.AppsV1().ReplicaSets(namespace).Get(ctx, owner.Name, metav1.GetOptions{})
		if err != nil {
			return "", false
		}

		for _, rsOwner := range rs.OwnerReferences {
			if rsOwner.Kind == "Deployment" {
				return rsOwner.Name, true
			}
		}
	}

	return "", false
}

// stripPodSuffix drops the trailing replica-set hash and pod hash from a
// generated pod name: "web-7c9f8d-x2z1" -> "web". Names without both
// suffix segments are returned unchanged.
func stripPodSuffix(pod string) string {
	parts := strings.Split(pod, "-")
	if len(parts) > 2 {
		return strings.Join(parts[:len(parts)-2], "-")
	}
	return pod
}
