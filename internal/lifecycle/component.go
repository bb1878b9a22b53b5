package lifecycle

import "context"

// Component is the contract for everything the agent runs: the tracing
// provider, the API server, the control loop. The manager starts
// components in dependency order and stops them in reverse.
type Component interface {
	// Start initializes and starts the component. The context can
	// signal shutdown or carry deadlines. Returns an error if
	// initialization fails.
	Start(ctx context.Context) error

	// Stop gracefully stops the component. In-flight work should
	// complete within the context deadline. A Stop error never
	// prevents other components from stopping.
	Stop(ctx context.Context) error

	// Name returns the human-readable name used in logs.
	Name() string
}
