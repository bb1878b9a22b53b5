package oracle

import (
	"context"
	"fmt"
	"time"

	"github.com/moolen/remedy/internal/models"
)

// Provider names accepted in configuration.
const (
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
)

// DefaultTimeout bounds a single oracle call.
const DefaultTimeout = 30 * time.Second

// Provider is a single-shot completion backend. Implementations must
// honor context cancellation.
type Provider interface {
	// Name returns the provider name for logging and display.
	Name() string

	// Generate sends one prompt and returns the model's text response.
	Generate(ctx context.Context, prompt string) (string, error)
}

// Config selects and parameterizes the oracle provider.
type Config struct {
	// Provider is "gemini", "anthropic", or "" to run without an oracle.
	Provider string

	// Model overrides the provider's default model identifier.
	Model string

	// Timeout bounds each oracle call. Zero means DefaultTimeout.
	Timeout time.Duration
}

// buildProvider resolves the configured provider, or (nil, nil) when no
// oracle is configured. Construction failures (missing API key, client
// setup) come back as an OracleError.
func buildProvider(cfg Config) (Provider, error) {
	switch cfg.Provider {
	case "":
		return nil, nil
	case ProviderGemini:
		return newGeminiProvider(cfg.Model)
	case ProviderAnthropic:
		return newAnthropicProvider(cfg.Model)
	default:
		return nil, &models.OracleError{
			Stage: "client",
			Err:   fmt.Errorf("unknown provider %q", cfg.Provider),
		}
	}
}
