// Package oracle obtains an advisory root-cause analysis for an issue
// from an LLM provider. The analysis is strictly advisory: action
// selection never depends on it, and every failure mode (no provider,
// call error, timeout, unparseable response) degrades to a deterministic
// default analysis instead of blocking remediation.
package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/moolen/remedy/internal/logging"
	"github.com/moolen/remedy/internal/models"
)

// DefaultHealingAction is the recommended_action of every fallback
// analysis. Downstream it signals "no oracle advice, rule-based healing
// applies".
const DefaultHealingAction = "apply_default_healing"

const explanationUnavailable = "AI analysis unavailable; applying rule-based healing."

const promptTemplate = "You are an expert Kubernetes SRE. Analyze the following issue and " +
	"provide a structured JSON response with keys: root_cause, recommended_action, " +
	"risk_level (low/medium/high), and explanation.\n\n" +
	"Issue Data:\n%s\n\n" +
	"Recent Pod Logs:\n%s\n\n" +
	"Respond ONLY with valid JSON."

// Adapter turns issues into analyses. The provider capability is
// resolved once at construction: either a working provider is present,
// or every Analyze call returns the fallback.
type Adapter struct {
	provider Provider
	timeout  time.Duration
	logger   *logging.Logger
}

// New resolves the configured provider and returns an adapter. A
// provider that cannot be constructed is logged and left absent; the
// adapter still works, answering with fallback analyses.
func New(cfg Config) *Adapter {
	a := &Adapter{
		timeout: cfg.Timeout,
		logger:  logging.GetLogger("oracle"),
	}
	if a.timeout <= 0 {
		a.timeout = DefaultTimeout
	}

	provider, err := buildProvider(cfg)
	if err != nil {
		a.logger.Warn("Reasoning oracle disabled: %v", err)
		return a
	}
	if provider == nil {
		a.logger.Info("No reasoning oracle configured, using deterministic analyses")
		return a
	}

	a.provider = provider
	a.logger.Info("Reasoning oracle ready: provider=%s", provider.Name())
	return a
}

// NewWithProvider builds an adapter around an existing provider. Used
// by tests and by callers that construct providers themselves.
func NewWithProvider(p Provider, timeout time.Duration) *Adapter {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Adapter{
		provider: p,
		timeout:  timeout,
		logger:   logging.GetLogger("oracle"),
	}
}

// Available reports whether a provider was resolved at construction.
func (a *Adapter) Available() bool {
	return a.provider != nil
}

// Analyze returns the oracle's analysis for an issue, or the
// deterministic fallback. It never returns an error and never takes
// longer than the configured timeout plus parsing time.
func (a *Adapter) Analyze(ctx context.Context, issue models.Issue, logs string) models.Analysis {
	if a.provider == nil {
		a.logger.Info("AI analysis unavailable, returning default analysis")
		return Fallback(issue.Kind(), explanationUnavailable)
	}

	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	text, err := a.provider.Generate(callCtx, buildPrompt(issue, logs))
	if err != nil {
		stage := "generate"
		if errors.Is(err, context.DeadlineExceeded) {
			stage = "timeout"
		}
		oerr := &models.OracleError{Stage: stage, Err: err}
		a.logger.Warn("Analysis via %s failed: %v", a.provider.Name(), oerr)
		return Fallback(issue.Kind(), fmt.Sprintf("AI analysis error: %v. Applying rule-based healing.", err))
	}

	analysis, err := parseAnalysis(text)
	if err != nil {
		oerr := &models.OracleError{Stage: "parse", Err: err}
		a.logger.Warn("Analysis via %s unparseable: %v", a.provider.Name(), oerr)
		return Fallback(issue.Kind(), fmt.Sprintf("AI analysis error: %v. Applying rule-based healing.", err))
	}

	a.logger.Info("Oracle analysis for %s/%s: %s", issue.Namespace(), issue.Pod(), analysis.RootCause)
	return analysis
}

// Fallback is the deterministic default analysis applied whenever the
// oracle cannot produce one.
func Fallback(kind models.IssueKind, explanation string) models.Analysis {
	return models.Analysis{
		RootCause:         fmt.Sprintf("Detected %s issue", kind),
		RecommendedAction: DefaultHealingAction,
		RiskLevel:         models.RiskMedium,
		Explanation:       explanation,
		Fallback:          true,
	}
}

func buildPrompt(issue models.Issue, logs string) string {
	data, err := json.MarshalIndent(models.RecordIssue(issue), "", "  ")
	if err != nil {
		data = []byte(fmt.Sprintf("%s issue on pod %s/%s", issue.Kind(), issue.Namespace(), issue.Pod()))
	}
	return fmt.Sprintf(promptTemplate, data, logs)
}

// parseAnalysis extracts the structured analysis from the model's text,
// stripping an optional markdown code fence first.
func parseAnalysis(text string) (models.Analysis, error) {
	text = stripCodeFence(strings.TrimSpace(text))

	var analysis models.Analysis
	if err := json.Unmarshal([]byte(text), &analysis); err != nil {
		return models.Analysis{}, err
	}
	if !models.ValidRiskLevel(string(analysis.RiskLevel)) {
		return models.Analysis{}, fmt.Errorf("invalid risk_level %q", analysis.RiskLevel)
	}
	return analysis, nil
}

// stripCodeFence unwraps ```-fenced content: the first line (which may
// carry a language tag) and the closing fence are dropped.
func stripCodeFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	if idx := strings.Index(text, "\n"); idx >= 0 {
		text = text[idx+1:]
	}
	if idx := strings.LastIndex(text, "```"); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}
