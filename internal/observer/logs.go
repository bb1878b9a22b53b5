package observer

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/utils/ptr"
)

// DefaultLogTail is the number of log lines handed to the reasoning
// oracle when the caller does not say otherwise.
const DefaultLogTail int64 = 50

// PodLogs returns the last tailLines of a pod's logs as one string. The
// boundary contract is string-in, string-out: any failure is rendered
// into the returned text instead of an error, so an unreadable pod can
// never stall issue handling.
func (o *Observer) PodLogs(ctx context.Context, namespace, pod string, tailLines int64) string {
	if tailLines <= 0 {
		tailLines = DefaultLogTail
	}

	req := o.client.CoreV1().Pods(namespace).GetLogs(pod, &corev1.PodLogOptions{
		TailLines: ptr.To(tailLines),
	})

	stream, err := req.Stream(ctx)
	if err != nil {
		o.logger.Debug("Log fetch for %s/%s failed: %v", namespace, pod, err)
		return fmt.Sprintf("Error fetching logs: %v", err)
	}
	defer stream.Close()

	var b strings.Builder
	scanner := bufio.NewScanner(stream)
	for scanner.Scan() {
		b.WriteString(scanner.Text())
		b.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		o.logger.Debug("Log stream for %s/%s broke: %v", namespace, pod, err)
		return fmt.Sprintf("Error fetching logs: %v", err)
	}

	return strings.TrimRight(b.String(), "\n")
}
