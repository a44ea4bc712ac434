package agent

import (
	"fmt"

	"github.com/desertthunder/musicagent/internal/models"
)

// MaxCandidates bounds how many matches a choice offers.
const MaxCandidates = 5

// ResolutionKind is the outcome of [Disambiguate].
type ResolutionKind int

const (
	NotFound ResolutionKind = iota
	Resolved
	MultipleChoice
)

func (k ResolutionKind) String() string {
	switch k {
	case Resolved:
		return "resolved"
	case MultipleChoice:
		return "multiple_choice"
	default:
		return "not_found"
	}
}

// Resolution describes what to do with a list of matches.
type Resolution struct {
	Kind       ResolutionKind
	Song       models.Song // set when Kind is Resolved
	Candidates []Candidate // set when Kind is MultipleChoice
	Total      int         // number of matches before capping
}

// Disambiguate picks the only match, reports none, or offers the first limit
// matches as candidates whose payloads select the song for playlist.
// A non-positive limit means [MaxCandidates].
func Disambiguate(matches []models.Song, playlist string, limit int) Resolution {
	if limit <= 0 {
		limit = MaxCandidates
	}

	switch len(matches) {
	case 0:
		return Resolution{Kind: NotFound}
	case 1:
		return Resolution{Kind: Resolved, Song: matches[0], Total: 1}
	}

	n := min(len(matches), limit)
	candidates := make([]Candidate, n)
	for i, m := range matches[:n] {
		candidates[i] = songCandidate(CmdSelect, m, playlist)
	}
	return Resolution{Kind: MultipleChoice, Candidates: candidates, Total: len(matches)}
}

// songCandidate encodes song and playlist into a payload for cmd.
func songCandidate(cmd Command, song models.Song, playlist string) Candidate {
	return Candidate{
		Label:   song.String(),
		Payload: fmt.Sprintf("/%s %s to %s", cmd.Name(), song.String(), playlist),
		Song:    &song,
	}
}
