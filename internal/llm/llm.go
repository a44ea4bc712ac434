// Package llm talks to the language model that resolves intents, entities and counts.
//
// Every provider satisfies [Generator]. The agent treats answers as untrusted
// text: callers parse them and fall back to defaults when parsing fails.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/musicagent/internal/shared"
)

// Generator produces a completion for a single prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a function to [Generator].
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// New builds the configured provider wrapped with its timeout and rate limit.
func New(ctx context.Context, cfg shared.LLMConfig, logger *log.Logger) (Generator, error) {
	timeout, err := cfg.TimeoutDuration()
	if err != nil {
		return nil, err
	}

	var g Generator
	switch cfg.Provider {
	case shared.ProviderOllama:
		g = NewOllamaClient(cfg.Host, cfg.Model, logger)
	case shared.ProviderGemini:
		g, err = NewGeminiClient(ctx, cfg.APIKey, cfg.Model, logger)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: unknown llm provider %q", shared.ErrInvalidConfig, cfg.Provider)
	}

	g = WithTimeout(g, timeout)
	if cfg.RequestsPerSecond > 0 {
		g = WithRateLimit(g, rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), max(cfg.Burst, 1)))
	}
	return g, nil
}

// WithTimeout bounds every call to g by d. An expired deadline is reported as [shared.ErrTimeout].
func WithTimeout(g Generator, d time.Duration) Generator {
	if d <= 0 {
		return g
	}
	return GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()

		out, err := g.Generate(ctx, prompt)
		if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: generate exceeded %s", shared.ErrTimeout, d)
		}
		return out, err
	})
}

// WithRateLimit waits on limiter before each call to g.
func WithRateLimit(g Generator, limiter *rate.Limiter) Generator {
	return GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		if err := limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limiter: %w", err)
		}
		return g.Generate(ctx, prompt)
	})
}
