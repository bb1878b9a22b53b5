package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/moolen/remedy/internal/apiserver"
	"github.com/moolen/remedy/internal/config"
	"github.com/moolen/remedy/internal/controller"
	"github.com/moolen/remedy/internal/dispatch"
	"github.com/moolen/remedy/internal/executor"
	"github.com/moolen/remedy/internal/governor"
	"github.com/moolen/remedy/internal/kube"
	"github.com/moolen/remedy/internal/lifecycle"
	"github.com/moolen/remedy/internal/logging"
	"github.com/moolen/remedy/internal/observer"
	"github.com/moolen/remedy/internal/oracle"
	"github.com/moolen/remedy/internal/report"
	"github.com/moolen/remedy/internal/status"
	"github.com/moolen/remedy/internal/tracing"
)

var (
	apiPort            int
	checkInterval      time.Duration
	dryRun             bool
	policyPath         string
	reportDir          string
	oracleProvider     string
	oracleModel        string
	oracleTimeout      time.Duration
	tracingEnabled     bool
	tracingEndpoint    string
	tracingTLSCAPath   string
	tracingTLSInsecure bool
)

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Start the remediation agent",
	Long: `Start the remediation agent: a control loop that observes pods,
classifies unhealthy conditions, analyzes them with the configured AI
oracle (falling back to deterministic analyses), and executes healing
actions behind rate limits and cooldowns.

The agent serves its status API on --api-port and writes an incident
report per executed action to --report-dir.`,
	Run: runAgent,
}

func init() {
	agentCmd.Flags().IntVar(&apiPort, "api-port", 8080, "Port the status API server listens on")
	agentCmd.Flags().DurationVar(&checkInterval, "check-interval", 30*time.Second, "Pause between check cycles")
	agentCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Simulate healing actions without touching the cluster")
	agentCmd.Flags().StringVar(&policyPath, "policy", "policy.yaml", "Path to the remediation policy YAML file (created with defaults if missing)")
	agentCmd.Flags().StringVar(&reportDir, "report-dir", getEnv("REMEDY_REPORT_DIR", "reports"), "Directory incident reports are written to")
	agentCmd.Flags().StringVar(&oracleProvider, "oracle", getEnv("ORACLE_PROVIDER", ""),
		"Reasoning oracle provider: gemini (needs GEMINI_API_KEY) or anthropic (needs ANTHROPIC_API_KEY). Empty runs with deterministic analyses only")
	agentCmd.Flags().StringVar(&oracleModel, "oracle-model", getEnv("AGENT_MODEL", ""),
		"Override the oracle provider's default model")
	agentCmd.Flags().DurationVar(&oracleTimeout, "oracle-timeout", 30*time.Second, "Timeout for a single oracle call")
	agentCmd.Flags().BoolVar(&tracingEnabled, "tracing-enabled", false, "Enable OpenTelemetry tracing (default: false)")
	agentCmd.Flags().StringVar(&tracingEndpoint, "tracing-endpoint", "", "OTLP gRPC endpoint for traces (e.g., otel-collector:4317)")
	agentCmd.Flags().StringVar(&tracingTLSCAPath, "tracing-tls-ca", "", "Path to CA certificate for TLS verification (optional)")
	agentCmd.Flags().BoolVar(&tracingTLSInsecure, "tracing-tls-insecure", false, "Skip TLS certificate verification (insecure, use only for testing)")
}

func runAgent(cmd *cobra.Command, args []string) {
	cfg := &config.Config{
		APIPort:          apiPort,
		CheckInterval:    checkInterval,
		DryRun:           dryRun,
		PolicyPath:       policyPath,
		ReportDir:        reportDir,
		OracleProvider:   oracleProvider,
		OracleModel:      oracleModel,
		OracleTimeout:    oracleTimeout,
		TracingEnabled:   tracingEnabled,
		TracingEndpoint:  tracingEndpoint,
		TracingTLSCAPath: tracingTLSCAPath,
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		HandleError(err, "Configuration error")
	}

	// Setup logging
	if err := setupLog(logLevelFlags); err != nil {
		HandleError(err, "Failed to setup logging")
	}
	logger := logging.GetLogger("agent")

	logger.Info("Starting Remedy v%s", Version)
	logger.Debug("Configuration loaded: APIPort=%d CheckInterval=%s DryRun=%v", cfg.APIPort, cfg.CheckInterval, cfg.DryRun)

	manager := lifecycle.NewManager()

	// Create default policy file if it doesn't exist
	created, err := config.EnsurePolicyFile(cfg.PolicyPath)
	if err != nil {
		HandleError(err, "Policy file error")
	}
	if created {
		logger.Info("Created default policy file: %s", cfg.PolicyPath)
	}

	// Initialize tracing provider
	tracingCfg := tracing.Config{
		Enabled:     cfg.TracingEnabled,
		Endpoint:    cfg.TracingEndpoint,
		TLSCAPath:   cfg.TracingTLSCAPath,
		TLSInsecure: tracingTLSInsecure,
	}
	tracingProvider, err := tracing.New(tracingCfg)
	if err != nil {
		logger.Warn("Failed to initialize tracing (continuing without tracing): %v", err)
		tracingProvider = nil
	}

	// Register tracing provider (no dependencies)
	if tracingProvider != nil {
		if err := manager.Register(tracingProvider); err != nil {
			HandleError(err, "Tracing registration error")
		}
	}

	var tracer trace.Tracer = otel.Tracer("controller")
	if tracingProvider != nil {
		tracer = tracingProvider.GetTracer("controller")
	}

	// Build the cluster client
	client, err := kube.NewClient()
	if err != nil {
		HandleError(err, "Kubernetes client error")
	}
	logger.Info("Kubernetes client created")

	// Assemble the pipeline
	registry := prometheus.NewRegistry()
	store := status.NewStore(status.NewMetrics(registry))
	obs := observer.New(client)
	oracleAdapter := oracle.New(oracle.Config{
		Provider: cfg.OracleProvider,
		Model:    cfg.OracleModel,
		Timeout:  cfg.OracleTimeout,
	})
	gov := governor.New(governor.Limits{})
	exec := executor.New(client, gov, executor.Config{DryRun: cfg.DryRun})
	reporter := report.New(Version, report.DefaultHistorySize)
	sink := report.NewFileSink(cfg.ReportDir)

	ctrl := controller.New(controller.Deps{
		Observer:   obs,
		Oracle:     oracleAdapter,
		Dispatcher: dispatch.New(obs),
		Governor:   gov,
		Executor:   exec,
		Reporter:   reporter,
		Sink:       sink,
		Store:      store,
		Tracer:     tracer,
	}, cfg.CheckInterval)

	// The policy watcher pushes the initial policy and every valid
	// reload into the running loop. Limits apply from the next tick.
	policyWatcher, err := config.NewPolicyWatcher(config.PolicyWatcherConfig{FilePath: cfg.PolicyPath}, func(policy *config.PolicyFile) error {
		if err := ctrl.ApplyPolicy(policy); err != nil {
			return err
		}
		store.SetConfig(cfg.DryRun, policy.Namespaces)
		return nil
	})
	if err != nil {
		HandleError(err, "Policy watcher error")
	}

	apiComponent := apiserver.New(cfg.APIPort, store, gov, registry, ctrl)
	logger.Info("API server component created")

	// Register components: the loop starts before the API server and
	// stops after it, so shutdown drains requests against a live store.
	if err := manager.Register(ctrl); err != nil {
		HandleError(err, "Controller registration error")
	}
	if err := manager.Register(apiComponent, ctrl); err != nil {
		HandleError(err, "API server registration error")
	}

	logger.Info("All components registered")
	ctx, cancel := context.WithCancel(context.Background())

	// Load the policy before the first tick
	if err := policyWatcher.Start(ctx); err != nil {
		HandleError(err, "Policy load error")
	}

	if err := manager.Start(ctx); err != nil {
		HandleError(err, "Startup error")
	}

	logger.Info("Agent started successfully")
	if cfg.DryRun {
		logger.Info("Running in dry-run mode, no cluster mutations will be made")
	}

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Wait for shutdown signal
	<-sigChan
	logger.Info("Shutdown signal received, gracefully shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := manager.Stop(shutdownCtx); err != nil {
		logger.Error("Error during shutdown: %v", err)
	}

	policyWatcher.Stop()

	logger.Info("Shutdown complete")
}
