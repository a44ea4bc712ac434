package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/desertthunder/musicagent/internal/agent"
	"github.com/desertthunder/musicagent/internal/metrics"
	"github.com/desertthunder/musicagent/internal/shared"
)

const maxBodyBytes = 64 << 10

// Conversation answers turns. [agent.Agent] implements it.
type Conversation interface {
	Greet(sess *agent.Session) agent.Response
	Handle(ctx context.Context, sess *agent.Session, text string) agent.Response
}

type sessionEntry struct {
	mu       sync.Mutex
	sess     *agent.Session
	lastSeen time.Time
}

// Sessions holds the open conversations of the HTTP transport.
type Sessions struct {
	mu      sync.Mutex
	entries map[string]*sessionEntry
	now     func() time.Time
}

// NewSessions creates an empty registry.
func NewSessions() *Sessions {
	return &Sessions{entries: make(map[string]*sessionEntry), now: time.Now}
}

func (s *Sessions) create() *sessionEntry {
	e := &sessionEntry{sess: agent.NewSession(shared.GenerateID()), lastSeen: s.now()}

	s.mu.Lock()
	s.entries[e.sess.ID] = e
	s.mu.Unlock()

	metrics.ActiveSessions.Inc()
	return e
}

func (s *Sessions) get(id string) (*sessionEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if ok {
		e.lastSeen = s.now()
	}
	return e, ok
}

func (s *Sessions) remove(id string) bool {
	s.mu.Lock()
	_, ok := s.entries[id]
	delete(s.entries, id)
	s.mu.Unlock()

	if ok {
		metrics.ActiveSessions.Dec()
	}
	return ok
}

// Len reports the number of open sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Expire removes sessions idle for longer than ttl and returns how many were removed.
func (s *Sessions) Expire(ttl time.Duration) int {
	cutoff := s.now().Add(-ttl)

	s.mu.Lock()
	var stale []string
	for id, e := range s.entries {
		if e.lastSeen.Before(cutoff) {
			stale = append(stale, id)
		}
	}
	s.mu.Unlock()

	n := 0
	for _, id := range stale {
		if s.remove(id) {
			n++
		}
	}
	return n
}

// Sweep calls [Sessions.Expire] every interval until ctx is done.
func (s *Sessions) Sweep(ctx context.Context, interval, ttl time.Duration, logger *log.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Expire(ttl); n > 0 {
				logger.Debug("expired idle sessions", "count", n)
			}
		}
	}
}

// ChatHandler serves the Chat API.
type ChatHandler struct {
	conv     Conversation
	sessions *Sessions
	logger   *log.Logger
	mux      *http.ServeMux
}

type createSessionRequest struct {
	Username string `json:"username"`
}

type messageRequest struct {
	Text string `json:"text"`
}

type sessionResponse struct {
	ID         string            `json:"id"`
	Username   string            `json:"username,omitempty"`
	State      string            `json:"state"`
	Candidates []agent.Candidate `json:"candidates,omitempty"`
}

type turnResponse struct {
	Session  sessionResponse `json:"session"`
	Response agent.Response  `json:"response"`
}

// NewChatHandler creates a [ChatHandler] answering through conv.
func NewChatHandler(conv Conversation, sessions *Sessions, logger *log.Logger) *ChatHandler {
	h := &ChatHandler{
		conv:     conv,
		sessions: sessions,
		logger:   shared.WithLogger(logger, "component", "chat"),
		mux:      http.NewServeMux(),
	}
	h.mux.HandleFunc("POST /api/sessions", h.create)
	h.mux.HandleFunc("GET /api/sessions/{id}", h.show)
	h.mux.HandleFunc("POST /api/sessions/{id}/messages", h.message)
	h.mux.HandleFunc("DELETE /api/sessions/{id}", h.end)
	return h
}

func (h *ChatHandler) Routes() []string {
	return []string{
		"POST /api/sessions",
		"GET /api/sessions/{id}",
		"POST /api/sessions/{id}/messages",
		"DELETE /api/sessions/{id}",
	}
}

func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *ChatHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	e := h.sessions.create()
	e.mu.Lock()
	defer e.mu.Unlock()

	var resp agent.Response
	if username := strings.TrimSpace(req.Username); username != "" {
		resp = h.conv.Handle(r.Context(), e.sess, "/login "+username)
	} else {
		resp = h.conv.Greet(e.sess)
	}

	h.logger.Info("session started", "id", e.sess.ID, "user", e.sess.Username())
	writeJSON(w, http.StatusCreated, turnResponse{Session: describe(e.sess), Response: resp})
}

func (h *ChatHandler) show(w http.ResponseWriter, r *http.Request) {
	e, ok := h.sessions.get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	writeJSON(w, http.StatusOK, describe(e.sess))
}

func (h *ChatHandler) message(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	e, ok := h.sessions.get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	var req messageRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	out := e.turn(r.Context(), h.conv, req.Text)
	if out.Response.Stop {
		h.sessions.remove(id)
		h.logger.Info("session ended", "id", id)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *ChatHandler) end(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !h.sessions.remove(id) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	h.logger.Info("session ended", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

// turn runs one message under the session lock.
func (e *sessionEntry) turn(ctx context.Context, conv Conversation, text string) turnResponse {
	e.mu.Lock()
	defer e.mu.Unlock()

	resp := conv.Handle(ctx, e.sess, text)
	return turnResponse{Session: describe(e.sess), Response: resp}
}

func describe(sess *agent.Session) sessionResponse {
	return sessionResponse{
		ID:         sess.ID,
		Username:   sess.Username(),
		State:      sess.State().String(),
		Candidates: sess.Candidates(),
	}
}

// decodeBody reads an optional JSON body into v. An empty body leaves v untouched.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return errors.New("invalid request body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// Routes builds the full HTTP surface: the Chat API plus /metrics and /healthz.
func Routes(conv Conversation, sessions *Sessions, logger *log.Logger) *BasicRouter {
	router := NewBasicRouter()
	router.Use(Recover(logger), Logging(logger), Metrics())

	router.Handler(NewChatHandler(conv, sessions, logger))
	router.Handle(http.MethodGet, "/metrics", promhttp.Handler())
	router.Handle(http.MethodGet, "/healthz", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "sessions": sessions.Len()})
	}))
	return router
}
