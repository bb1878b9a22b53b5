package oracle

import (
	"context"
	"fmt"
	"os"

	"google.golang.org/genai"

	"github.com/moolen/remedy/internal/models"
)

// DefaultGeminiModel is used when no model override is configured.
const DefaultGeminiModel = "gemini-2.0-flash"

type geminiProvider struct {
	client *genai.Client
	model  string
}

func newGeminiProvider(model string) (*geminiProvider, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, &models.OracleError{
			Stage: "client",
			Err:   fmt.Errorf("GEMINI_API_KEY not set"),
		}
	}
	if model == "" {
		model = DefaultGeminiModel
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, &models.OracleError{Stage: "client", Err: err}
	}

	return &geminiProvider{client: client, model: model}, nil
}

func (p *geminiProvider) Name() string { return ProviderGemini }

func (p *geminiProvider) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(prompt), nil)
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("empty model response")
	}
	return resp.Text(), nil
}
