package agent

import (
	"fmt"

	"github.com/desertthunder/musicagent/internal/models"
)

// Response is the outcome of one turn. Transports render Text and, when present, Candidates as selectable options.
type Response struct {
	Text       string      `json:"text"`
	Candidates []Candidate `json:"candidates,omitempty"`
	// Stop asks the transport to end the conversation.
	Stop bool `json:"stop,omitempty"`
}

// Candidate is one selectable option. Sending Payload back as a message selects it.
type Candidate struct {
	Label   string       `json:"label"`
	Payload string       `json:"payload"`
	Song    *models.Song `json:"song,omitempty"`
}

func textf(format string, args ...any) Response {
	return Response{Text: fmt.Sprintf(format, args...)}
}

const (
	msgWelcome     = "Hello, I'm MusicAgent. What can I help you with?"
	msgGoodbye     = "It was nice talking to you. Bye!"
	msgNotLoggedIn = "You are not logged in. Please login or register by using /login or /register."
	msgFallback    = "Sorry, I didn't get that."
	msgApology     = "Sorry, something went wrong on my side. Please try again in a moment."
	msgChooseOne   = "Multiple songs found. Please select one:"
	msgRecommend   = "Here are some songs you might like. Select them one at a time and pick Done when you have added all the songs you want:"
	msgNoRecs      = "No recommendations were found for %s."
	msgThanks      = "You're welcome!"
	doneLabel      = "Done"
)
