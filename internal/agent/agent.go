// Package agent routes each utterance of a conversation to the playlist, catalog
// and recommendation operations it asks for.
//
// An utterance starting with "/" is an explicit command and is parsed
// locally. Anything else goes through the language model for an intent and
// its entities. Either way exactly one handler runs and the turn always ends
// with a [Response]: expected outcomes such as a missing playlist get a
// specific message and every other failure gets a generic apology.
package agent

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/musicagent/internal/catalog"
	"github.com/desertthunder/musicagent/internal/metrics"
	"github.com/desertthunder/musicagent/internal/models"
	"github.com/desertthunder/musicagent/internal/nlu"
	"github.com/desertthunder/musicagent/internal/playlists"
	"github.com/desertthunder/musicagent/internal/recommend"
	"github.com/desertthunder/musicagent/internal/shared"
)

// SongSource finds songs matching a free-text description, such as a Spotify playlist search.
type SongSource interface {
	SearchSongs(ctx context.Context, description string, limit int) ([]models.Song, error)
}

// Resolver understands natural language. [nlu.Resolver] implements it.
type Resolver interface {
	Resolve(ctx context.Context, text string) (nlu.Intent, nlu.Entities)
	ResolveRange(ctx context.Context, text string, names []string) ([]string, error)
}

// Options wires an [Agent].
type Options struct {
	Playlists   *playlists.Store
	Catalog     *catalog.Client
	Resolver    Resolver
	Recommender *recommend.Engine
	// Source backs /playlist <description>. It may be nil.
	Source        SongSource
	MaxCandidates int
	Logger        *log.Logger
}

// Agent handles conversation turns. It holds no per-conversation state, so
// one Agent serves any number of sessions.
type Agent struct {
	playlists   *playlists.Store
	catalog     *catalog.Client
	resolver    Resolver
	recommender *recommend.Engine
	source      SongSource
	limit       int
	logger      *log.Logger
	pick        func(n int) int
}

// New creates an [Agent].
func New(opts Options) *Agent {
	return &Agent{
		playlists:   opts.Playlists,
		catalog:     opts.Catalog,
		resolver:    opts.Resolver,
		recommender: opts.Recommender,
		source:      opts.Source,
		limit:       opts.MaxCandidates,
		logger:      shared.WithLogger(opts.Logger, "component", "router"),
		pick:        rand.IntN,
	}
}

// turn carries per-utterance bookkeeping.
type turn struct {
	sess    *Session
	route   string
	mutated bool
}

// Greet is the first message of a session.
func (a *Agent) Greet(sess *Session) Response {
	if sess.LoggedIn() {
		return textf("Welcome back, %s! What can I help you with?", sess.Username())
	}
	return Response{Text: msgWelcome + "\n" + msgNotLoggedIn}
}

// Handle runs one utterance to completion and never fails: faults are logged
// and answered with a generic message.
func (a *Agent) Handle(ctx context.Context, sess *Session, text string) (resp Response) {
	start := time.Now()
	t := &turn{sess: sess, route: "intent"}
	outcome := "ok"

	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("handler panicked", "session", sess.ID, "panic", r, "stack", string(debug.Stack()))
			resp, outcome = Response{Text: msgApology}, "panic"
		}
		metrics.TurnsTotal.WithLabelValues(t.route, outcome).Inc()
		metrics.TurnDuration.WithLabelValues(t.route).Observe(time.Since(start).Seconds())
	}()

	resp, err := a.dispatch(ctx, t, strings.TrimSpace(text))
	if err != nil {
		outcome = outcomeLabel(err)
		resp = Response{Text: a.render(sess, err)}
	}

	if t.mutated {
		a.refresh(ctx, sess)
	}

	a.logger.Debug("turn", "session", sess.ID, "user", sess.Username(), "route", t.route,
		"outcome", outcome, "state", sess.State(), "elapsed", time.Since(start))
	return resp
}

func (a *Agent) dispatch(ctx context.Context, t *turn, text string) (Response, error) {
	sess := t.sess
	if text == "" {
		return Response{Text: msgFallback}, nil
	}

	if sess.State() == AwaitingChoice {
		if payload, ok := numericChoice(text, sess.candidates); ok {
			text = payload
		} else if !isChoiceCommand(text) {
			sess.clearChoice()
		}
	}

	if strings.HasPrefix(text, "/") {
		t.route = "command"
		inv, err := parseCommand(text, a.playlistNames(sess))
		if err != nil {
			return Response{}, err
		}
		return a.runCommand(ctx, t, inv)
	}

	if !sess.LoggedIn() {
		return Response{}, shared.ErrNotLoggedIn
	}

	intent, entities := a.resolver.Resolve(ctx, text)
	entities.Input = text
	return a.runIntent(ctx, t, intent, entities)
}

// numericChoice maps "2" to the second candidate's payload.
func numericChoice(text string, candidates []Candidate) (string, bool) {
	n, err := strconv.Atoi(strings.TrimSuffix(text, "."))
	if err != nil || n < 1 || n > len(candidates) {
		return "", false
	}
	return candidates[n-1].Payload, true
}

func isChoiceCommand(text string) bool {
	word, _, _ := strings.Cut(strings.TrimPrefix(text, "/"), " ")
	switch lookupCommand(word) {
	case CmdSelect, CmdRecommendAdd, CmdDone:
		return strings.HasPrefix(text, "/")
	}
	return false
}

// refresh reloads the session's user after a mutation so its view matches the store.
func (a *Agent) refresh(ctx context.Context, sess *Session) {
	if !sess.LoggedIn() {
		return
	}
	user, err := a.playlists.Load(ctx, sess.Username())
	if err != nil {
		a.logger.Warn("could not refresh session view", "user", sess.Username(), "error", err)
		return
	}
	sess.User = user
}

func (a *Agent) playlistNames(sess *Session) []string {
	if !sess.LoggedIn() {
		return nil
	}
	return sess.User.PlaylistNames()
}

// userError is an expected outcome with the exact text to show for it.
type userError struct {
	kind error
	text string
}

func (e *userError) Error() string { return e.text }
func (e *userError) Unwrap() error { return e.kind }

func notFoundf(format string, args ...any) error {
	return &userError{kind: shared.ErrNotFound, text: fmt.Sprintf(format, args...)}
}

func existsf(format string, args ...any) error {
	return &userError{kind: shared.ErrAlreadyExists, text: fmt.Sprintf(format, args...)}
}

func missingf(format string, args ...any) error {
	return &userError{kind: shared.ErrMissingArgument, text: fmt.Sprintf(format, args...)}
}

// explain replaces a store NotFound or AlreadyExists with a specific message and passes every other error through.
func explain(err error, notFound, exists string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, shared.ErrNotFound) && notFound != "":
		return &userError{kind: shared.ErrNotFound, text: notFound}
	case errors.Is(err, shared.ErrAlreadyExists) && exists != "":
		return &userError{kind: shared.ErrAlreadyExists, text: exists}
	}
	return err
}

// render turns a handler error into user-facing text. Only expected outcomes are described.
func (a *Agent) render(sess *Session, err error) string {
	var ue *userError
	if errors.As(err, &ue) {
		return ue.text
	}
	if usage, ok := shared.AsUsageError(err); ok {
		return "Usage: " + usage.Syntax
	}

	switch {
	case errors.Is(err, shared.ErrNotLoggedIn):
		return msgNotLoggedIn
	case errors.Is(err, shared.ErrNotFound):
		return "Sorry, I couldn't find that."
	case errors.Is(err, shared.ErrAlreadyExists):
		return "That already exists."
	case errors.Is(err, shared.ErrMissingArgument):
		return "I need a bit more information to do that."
	}

	a.logger.Error("turn failed", "session", sess.ID, "user", sess.Username(), "error", err)
	return msgApology
}

func outcomeLabel(err error) string {
	switch {
	case errors.Is(err, shared.ErrUsage):
		return "usage"
	case errors.Is(err, shared.ErrNotLoggedIn):
		return "not_logged_in"
	case errors.Is(err, shared.ErrNotFound):
		return "not_found"
	case errors.Is(err, shared.ErrAlreadyExists):
		return "already_exists"
	case errors.Is(err, shared.ErrMissingArgument):
		return "missing_argument"
	}
	return "error"
}
