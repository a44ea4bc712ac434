package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"google.golang.org/genai"

	"github.com/desertthunder/musicagent/internal/metrics"
	"github.com/desertthunder/musicagent/internal/shared"
)

// GeminiClient generates completions with Google's Gemini API.
type GeminiClient struct {
	client *genai.Client
	model  string
	logger *log.Logger
}

// NewGeminiClient creates a [GeminiClient]. The API key is required.
func NewGeminiClient(ctx context.Context, apiKey, model string, logger *log.Logger) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: gemini api key", shared.ErrMissingCredentials)
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GeminiClient{client: client, model: model, logger: shared.WithLogger(logger, "component", "gemini")}, nil
}

// Generate implements [Generator].
func (c *GeminiClient) Generate(ctx context.Context, prompt string) (out string, err error) {
	defer func(start time.Time) { metrics.ObserveLLM("gemini", start, err) }(time.Now())

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("%w: gemini generate: %v", shared.ErrAPIRequest, err)
	}

	out = resp.Text()
	c.logger.Debug("generate", "model", c.model, "prompt_bytes", len(prompt), "response", out)
	return out, nil
}
