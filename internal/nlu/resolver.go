// Package nlu turns free-form messages into intents, entities and positional selections.
//
// The language model does the understanding; this package renders the
// prompts, parses the answers and degrades to fixed defaults whenever an
// answer is missing or unusable. Only [Resolver.ResolveRange] fails, and only
// for references no default can repair.
package nlu

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"strings"
	"text/template"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/musicagent/internal/llm"
	"github.com/desertthunder/musicagent/internal/metrics"
	"github.com/desertthunder/musicagent/internal/shared"
)

// DefaultCount is used when the count of a positional reference cannot be resolved.
const DefaultCount = 1

var (
	ErrNoDirection = errors.New("positional reference names neither the first nor the last items")
	ErrNoCount     = errors.New("positional reference selects no items")
)

//go:embed prompts/*.txt
var promptFiles embed.FS

var prompts = template.Must(template.ParseFS(promptFiles, "prompts/*.txt"))

// Resolver resolves messages through a [llm.Generator].
type Resolver struct {
	gen    llm.Generator
	logger *log.Logger
}

// NewResolver creates a [Resolver].
func NewResolver(gen llm.Generator, logger *log.Logger) *Resolver {
	return &Resolver{gen: gen, logger: shared.WithLogger(logger, "component", "nlu")}
}

// Resolve returns the intent and entities of text. Any failure yields
// ([Unrecognized], empty [Entities]).
func (r *Resolver) Resolve(ctx context.Context, text string) (Intent, Entities) {
	intent, entities, err := r.resolve(ctx, text)
	if err != nil {
		r.logger.Warn("could not resolve message", "text", text, "error", err)
		metrics.IntentsTotal.WithLabelValues(Unrecognized.String()).Inc()
		return Unrecognized, Entities{}
	}

	r.logger.Debug("resolved message", "intent", intent, "entities", entities.Map())
	metrics.IntentsTotal.WithLabelValues(intent.String()).Inc()
	return intent, entities
}

func (r *Resolver) resolve(ctx context.Context, text string) (Intent, Entities, error) {
	answer, err := r.ask(ctx, "intent.txt", text)
	if err != nil {
		return Unrecognized, Entities{}, err
	}
	intent, err := parseIntent(answer)
	if err != nil {
		return Unrecognized, Entities{}, err
	}

	answer, err = r.ask(ctx, "entities.txt", text)
	if err != nil {
		return Unrecognized, Entities{}, err
	}
	entities, err := parseEntities(answer)
	if err != nil {
		return Unrecognized, Entities{}, err
	}
	return intent, entities, nil
}

// ResolveCount returns how many items text refers to, or [DefaultCount] when it cannot tell.
//
// Zero or negative answers are returned as given; callers decide what they mean.
func (r *Resolver) ResolveCount(ctx context.Context, text string) int {
	answer, err := r.ask(ctx, "count.txt", text)
	if err == nil {
		var n int
		if n, err = parseCount(answer); err == nil {
			return n
		}
	}
	r.logger.Warn("could not resolve count, using default", "text", text, "default", DefaultCount, "error", err)
	return DefaultCount
}

// ResolveRange selects the first or last items of names that text refers to.
//
// The direction is checked before the model is asked for a count. It fails
// with [ErrNoDirection] or [ErrNoCount] when the reference cannot select anything.
func (r *Resolver) ResolveRange(ctx context.Context, text string, names []string) ([]string, error) {
	if DirectionOf(text) == NoDirection {
		return nil, ErrNoDirection
	}
	count := r.ResolveCount(ctx, text)
	if count <= 0 {
		return nil, ErrNoCount
	}
	return SelectRange(text, names, count), nil
}

func (r *Resolver) ask(ctx context.Context, prompt, text string) (string, error) {
	var buf bytes.Buffer
	if err := prompts.ExecuteTemplate(&buf, prompt, struct{ Input string }{Input: text}); err != nil {
		return "", err
	}
	return r.gen.Generate(ctx, buf.String())
}

// Direction is the end of a list a positional reference counts from.
type Direction int

const (
	NoDirection Direction = iota
	FromStart
	FromEnd
)

// DirectionOf looks for the words "first" and "last" in text. "first" wins when both occur.
func DirectionOf(text string) Direction {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "first"):
		return FromStart
	case strings.Contains(lower, "last"):
		return FromEnd
	}
	return NoDirection
}

// SelectRange returns the first or last count names, as directed by text.
//
// A count at or above len(names) selects the whole list. A count of zero or
// less, or text naming no direction, selects nothing.
func SelectRange(text string, names []string, count int) []string {
	if count <= 0 {
		return nil
	}
	count = min(count, len(names))

	switch DirectionOf(text) {
	case FromStart:
		return append([]string(nil), names[:count]...)
	case FromEnd:
		return append([]string(nil), names[len(names)-count:]...)
	}
	return nil
}
