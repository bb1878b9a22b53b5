// Package kube builds the cluster client the agent observes and
// remediates through.
package kube

import (
	"fmt"
	"os"
	"path/filepath"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/moolen/remedy/internal/logging"
)

// NewClient returns a Kubernetes clientset, preferring in-cluster config
// and falling back to a kubeconfig file (KUBECONFIG, then ~/.kube/config).
func NewClient() (kubernetes.Interface, error) {
	config, err := buildClientConfig()
	if err != nil {
		return nil, err
	}

	clientset, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes client: %w", err)
	}

	return clientset, nil
}

func buildClientConfig() (*rest.Config, error) {
	logger := logging.GetLogger("kube")

	// Try in-cluster config first
	config, err := rest.InClusterConfig()
	if err == nil {
		logger.Debug("Using in-cluster configuration")
		return config, nil
	}

	// Fall back to kubeconfig
	kubeconfig := os.Getenv("KUBECONFIG")
	if kubeconfig == "" {
		if home, err := os.UserHomeDir(); err == nil {
			kubeconfig = filepath.Join(home, ".kube", "config")
		}
	}

	config, err = clientcmd.BuildConfigFromFlags("", kubeconfig)
	if err != nil {
		return nil, fmt.Errorf("failed to build client config: %w", err)
	}

	logger.Debug("Using kubeconfig %s", kubeconfig)
	return config, nil
}
