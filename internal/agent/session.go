package agent

import (
	"github.com/desertthunder/musicagent/internal/models"
	"github.com/desertthunder/musicagent/internal/recommend"
)

// State is where a session is in the conversation.
type State int

const (
	// AwaitingCommand is the default state.
	AwaitingCommand State = iota
	// AwaitingChoice follows a response that offered candidates. The next
	// message may pick one; anything else abandons the choice.
	AwaitingChoice
)

func (s State) String() string {
	switch s {
	case AwaitingChoice:
		return "awaiting_choice"
	default:
		return "awaiting_command"
	}
}

// Session is one conversation. It is not safe for concurrent use; the
// transport must deliver a session's turns one at a time.
type Session struct {
	ID   string
	User *models.User

	state      State
	candidates []Candidate
	pool       *recommend.Pool
}

// NewSession starts a logged-out session.
func NewSession(id string) *Session {
	return &Session{ID: id}
}

func (s *Session) State() State { return s.state }

// Candidates returns the choices currently on offer.
func (s *Session) Candidates() []Candidate {
	return append([]Candidate(nil), s.candidates...)
}

func (s *Session) LoggedIn() bool { return s.User != nil }

// Username is empty while logged out.
func (s *Session) Username() string {
	if s.User == nil {
		return ""
	}
	return s.User.Username
}

// offer moves the session into [AwaitingChoice] with candidates.
func (s *Session) offer(candidates []Candidate) {
	s.state = AwaitingChoice
	s.candidates = candidates
}

// clearChoice drops candidates and any recommendation pool.
func (s *Session) clearChoice() {
	s.state = AwaitingCommand
	s.candidates = nil
	s.pool = nil
}

func (s *Session) candidateFor(payload string) (Candidate, bool) {
	for _, c := range s.candidates {
		if c.Payload == payload {
			return c, true
		}
	}
	return Candidate{}, false
}

func (s *Session) logout() {
	s.clearChoice()
	s.User = nil
}
