package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/musicagent/internal/metrics"
	"github.com/desertthunder/musicagent/internal/shared"
)

// OllamaClient calls a local Ollama server's /api/generate endpoint without streaming.
type OllamaClient struct {
	endpoint string
	model    string
	client   *http.Client
	logger   *log.Logger
}

// NewOllamaClient creates an [OllamaClient]. Empty arguments fall back to the local defaults.
func NewOllamaClient(endpoint, model string, logger *log.Logger) *OllamaClient {
	if endpoint == "" {
		endpoint = "http://localhost:11434"
	}
	if model == "" {
		model = "llama3.2"
	}

	return &OllamaClient{
		endpoint: strings.TrimRight(endpoint, "/"),
		model:    model,
		client:   &http.Client{Timeout: 2 * time.Minute},
		logger:   shared.WithLogger(logger, "component", "ollama"),
	}
}

// SetHTTPClient replaces the HTTP client (used by tests)
func (c *OllamaClient) SetHTTPClient(client *http.Client) {
	c.client = client
}

type ollamaGenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaGenerateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Generate implements [Generator].
func (c *OllamaClient) Generate(ctx context.Context, prompt string) (out string, err error) {
	defer func(start time.Time) { metrics.ObserveLLM("ollama", start, err) }(time.Now())

	body, err := json.Marshal(ollamaGenerateRequest{Model: c.model, Prompt: prompt})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: ollama request failed: %v", shared.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("%w: ollama returned status %d: %s", shared.ErrAPIRequest, resp.StatusCode, string(msg))
	}

	var result ollamaGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	c.logger.Debug("generate", "model", c.model, "prompt_bytes", len(prompt), "response", result.Response)
	return result.Response, nil
}
