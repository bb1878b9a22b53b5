// Package controller drives the remediation loop: observe pod health,
// classify issues, analyze each one, dispatch and execute a healing
// action, and report the incident. One cycle runs per tick; issues
// within a tick are handled strictly sequentially.
package controller

import (
	"context"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/moolen/remedy/internal/classifier"
	"github.com/moolen/remedy/internal/config"
	"github.com/moolen/remedy/internal/dispatch"
	"github.com/moolen/remedy/internal/executor"
	"github.com/moolen/remedy/internal/governor"
	"github.com/moolen/remedy/internal/logging"
	"github.com/moolen/remedy/internal/models"
	"github.com/moolen/remedy/internal/observer"
	"github.com/moolen/remedy/internal/oracle"
	"github.com/moolen/remedy/internal/report"
	"github.com/moolen/remedy/internal/status"
)

// logTailLines is how many recent log lines accompany an issue into the
// oracle prompt.
const logTailLines = 50

// Deps bundles the pipeline stages the loop drives.
type Deps struct {
	Observer   *observer.Observer
	Oracle     *oracle.Adapter
	Dispatcher *dispatch.Dispatcher
	Governor   *governor.Governor
	Executor   *executor.Executor
	Reporter   *report.Reporter
	Sink       *report.FileSink
	Store      *status.Store
	Tracer     trace.Tracer
}

// Controller is the agent's control loop, a lifecycle.Component. It
// owns the policy snapshot the pipeline stages read each tick.
type Controller struct {
	observer   *observer.Observer
	oracle     *oracle.Adapter
	dispatcher *dispatch.Dispatcher
	governor   *governor.Governor
	executor   *executor.Executor
	reporter   *report.Reporter
	sink       *report.FileSink
	store      *status.Store
	tracer     trace.Tracer
	logger     *logging.Logger

	interval time.Duration

	policyMu sync.RWMutex
	policy   *config.PolicyFile

	running atomic.Bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// New creates the controller. ApplyPolicy must deliver a policy before
// the first tick does any work; wire it as the policy watcher callback.
func New(deps Deps, interval time.Duration) *Controller {
	return &Controller{
		observer:   deps.Observer,
		oracle:     deps.Oracle,
		dispatcher: deps.Dispatcher,
		governor:   deps.Governor,
		executor:   deps.Executor,
		reporter:   deps.Reporter,
		sink:       deps.Sink,
		store:      deps.Store,
		tracer:     deps.Tracer,
		logger:     logging.GetLogger("controller"),
		interval:   interval,
		stopCh:     make(chan struct{}),
	}
}

// ApplyPolicy installs a new policy snapshot and pushes the safety and
// healing limits into the governor and executor. Satisfies
// config.PolicyReloadCallback; safe to call while the loop is running,
// the next tick picks it up.
func (c *Controller) ApplyPolicy(policy *config.PolicyFile) error {
	c.governor.SetLimits(governor.Limits{
		MaxActionsPerHour: policy.Safety.MaxActionsPerHour,
		Cooldown:          time.Duration(policy.Safety.CooldownSeconds) * time.Second,
	})
	c.executor.SetMaxReplicas(policy.Healing.MaxReplicas)

	c.policyMu.Lock()
	c.policy = policy
	c.policyMu.Unlock()

	c.logger.Info("Policy applied: restart_threshold=%d max_actions_per_hour=%d cooldown=%ds",
		policy.Detection.RestartThreshold, policy.Safety.MaxActionsPerHour, policy.Safety.CooldownSeconds)
	return nil
}

func (c *Controller) currentPolicy() *config.PolicyFile {
	c.policyMu.RLock()
	defer c.policyMu.RUnlock()
	return c.policy
}

// Start implements the lifecycle.Component interface.
// Runs the first check cycle immediately, then one per interval.
func (c *Controller) Start(ctx context.Context) error {
	c.logger.Info("Starting remediation loop (interval: %s, dry_run: %v)", c.interval, c.executor.DryRun())
	c.store.SetStatus(status.StateRunning)
	c.running.Store(true)

	c.wg.Add(1)
	go c.run(ctx)

	return nil
}

// Stop implements the lifecycle.Component interface.
// Interrupts the inter-tick sleep promptly but lets an in-flight cycle
// finish so no mutation is aborted midway.
func (c *Controller) Stop(ctx context.Context) error {
	c.logger.Info("Stopping remediation loop...")
	c.running.Store(false)
	close(c.stopCh)

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.store.SetStatus(status.StateStopped)
		c.logger.Info("Remediation loop stopped")
		return nil
	case <-ctx.Done():
		c.logger.Warn("Remediation loop shutdown timeout, a cycle is still in flight")
		return ctx.Err()
	}
}

// Name implements the lifecycle.Component interface
func (c *Controller) Name() string {
	return "Remediation Loop"
}

// IsReady implements the apiserver.ReadinessChecker interface. The
// agent is ready while the loop is running.
func (c *Controller) IsReady() bool {
	return c.running.Load()
}

func (c *Controller) run(ctx context.Context) {
	defer c.wg.Done()

	// First cycle runs immediately; afterwards the ticker paces the loop
	c.tick()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.tick()
		case <-c.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// tick runs one full observe/classify/analyze/heal cycle. Cluster and
// oracle calls run on a background-derived context so a shutdown signal
// never aborts a mutation in flight. A panic is contained to the tick.
func (c *Controller) tick() {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Recovered from panic in check cycle: %v\n%s", r, debug.Stack())
			c.store.SetStatus(status.StateError)
		}
	}()

	policy := c.currentPolicy()
	if policy == nil {
		c.logger.Warn("No policy loaded yet, skipping check cycle")
		return
	}

	start := time.Now()
	ctx, span := c.tracer.Start(context.Background(), "loop.tick")
	defer span.End()

	issues := c.observe(ctx, policy)

	records := make([]models.IssueRecord, 0, len(issues))
	for _, issue := range issues {
		records = append(records, models.RecordIssue(issue))
	}
	c.store.RecordCheck(records)

	if len(issues) == 0 {
		c.logger.Info("All healthy, no issues detected")
		c.store.ObserveTick(time.Since(start))
		return
	}

	c.logger.Warn("Found %d issue(s)", len(issues))
	span.SetAttributes(attribute.Int("issues.count", len(issues)))

	for _, issue := range issues {
		c.handleIssue(ctx, policy, issue)
	}

	c.store.ObserveTick(time.Since(start))
}

// observe snapshots every configured namespace and classifies the
// results. A namespace whose listing fails is logged and skipped; the
// cycle continues with the rest.
func (c *Controller) observe(ctx context.Context, policy *config.PolicyFile) []models.Issue {
	ctx, span := c.tracer.Start(ctx, "loop.observe")
	defer span.End()

	excluded := make(map[string]bool, len(policy.ExcludedNamespaces))
	for _, ns := range policy.ExcludedNamespaces {
		excluded[ns] = true
	}

	namespaces := policy.Namespaces
	if len(namespaces) == 0 {
		namespaces = []string{metav1.NamespaceAll}
	}

	rules := classifier.Rules{RestartThreshold: policy.Detection.RestartThreshold}

	var issues []models.Issue
	for _, ns := range namespaces {
		ns = strings.TrimSpace(ns)
		if excluded[ns] {
			continue
		}

		if ns == metav1.NamespaceAll {
			c.logger.Info("Checking all namespaces")
		} else {
			c.logger.Info("Checking namespace: %s", ns)
		}

		snapshots, err := c.observer.Snapshot(ctx, ns)
		if err != nil {
			c.logger.Warn("Skipping namespace %q this cycle: %v", ns, err)
			continue
		}

		// An all-namespace listing still honors the exclusion set
		kept := make([]models.PodStatus, 0, len(snapshots))
		for _, snapshot := range snapshots {
			if excluded[snapshot.Namespace] {
				continue
			}
			kept = append(kept, snapshot)
		}

		issues = append(issues, classifier.Classify(kept, rules, time.Now())...)
	}

	return issues
}

// handleIssue runs one issue through analysis, dispatch, execution and
// reporting. Unmapped issue kinds are logged and produce no report.
func (c *Controller) handleIssue(ctx context.Context, policy *config.PolicyFile, issue models.Issue) {
	record := models.RecordIssue(issue)

	ctx, span := c.tracer.Start(ctx, "loop.handleIssue",
		trace.WithAttributes(
			attribute.String("issue.kind", string(record.Kind)),
			attribute.String("issue.namespace", record.Namespace),
			attribute.String("issue.pod", record.Pod),
		),
	)
	defer span.End()

	c.logger.Info("Processing: %s on %s/%s", record.Kind, record.Namespace, record.Pod)

	var logs string
	if record.Pod != "" {
		logs = c.observer.PodLogs(ctx, record.Namespace, record.Pod, logTailLines)
	}

	analysis := c.analyze(ctx, issue, logs)
	c.logger.Info("Analysis root cause: %s", analysis.RootCause)

	action, ok := c.dispatcher.Dispatch(ctx, issue, dispatch.Params{
		MemoryIncrease: policy.Healing.OOMMemoryIncrease,
		CPUIncrease:    policy.Healing.OOMCPUIncrease,
	})
	if !ok {
		c.logger.Info("No healing action mapped for issue type: %s", record.Kind)
		return
	}

	result := c.execute(ctx, action)

	incident := c.reporter.Report(issue, analysis, result)
	if _, err := c.sink.Write(incident); err != nil {
		c.logger.Warn("Could not save report: %v", err)
	}

	c.store.RecordAction(record, result)
	c.store.RecordIncident(incident)

	message := result.Message
	if message == "" {
		message = result.Error
	}
	c.logger.Info("Result: %s", message)
}

func (c *Controller) analyze(ctx context.Context, issue models.Issue, logs string) models.Analysis {
	ctx, span := c.tracer.Start(ctx, "loop.analyze")
	defer span.End()

	analysis := c.oracle.Analyze(ctx, issue, logs)
	if analysis.Fallback {
		c.store.RecordOracleFallback()
	}
	return analysis
}

func (c *Controller) execute(ctx context.Context, action models.Action) models.ActionResult {
	ctx, span := c.tracer.Start(ctx, "loop.execute",
		trace.WithAttributes(attribute.String("action.resource", action.ResourceKey())),
	)
	defer span.End()

	return c.executor.Execute(ctx, action)
}
