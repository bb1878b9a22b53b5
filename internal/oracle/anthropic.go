package oracle

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/moolen/remedy/internal/models"
)

// DefaultAnthropicModel is used when no model override is configured.
const DefaultAnthropicModel = "claude-sonnet-4-5"

// maxResponseTokens caps the analysis response size.
const maxResponseTokens = 4096

type anthropicProvider struct {
	client anthropic.Client
	model  string
}

func newAnthropicProvider(model string) (*anthropicProvider, error) {
	// The SDK reads ANTHROPIC_API_KEY itself; checking here keeps the
	// no-key case a construction failure instead of a per-call one.
	if os.Getenv("ANTHROPIC_API_KEY") == "" {
		return nil, &models.OracleError{
			Stage: "client",
			Err:   fmt.Errorf("ANTHROPIC_API_KEY not set"),
		}
	}
	if model == "" {
		model = DefaultAnthropicModel
	}

	return &anthropicProvider{client: anthropic.NewClient(), model: model}, nil
}

func (p *anthropicProvider) Name() string { return ProviderAnthropic }

func (p *anthropicProvider) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: maxResponseTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", err
	}

	var parts []string
	for i := range resp.Content {
		block := &resp.Content[i]
		if block.Type == "text" {
			parts = append(parts, block.Text)
		}
	}
	return strings.Join(parts, ""), nil
}
