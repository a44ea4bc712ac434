package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/musicagent/internal/agent"
)

var _ list.DefaultItem = candidateItem{}

// candidateItem wraps [agent.Candidate] to implement [list.DefaultItem].
type candidateItem struct {
	index     int
	candidate agent.Candidate
}

func (i candidateItem) FilterValue() string { return i.candidate.Label }
func (i candidateItem) Title() string       { return fmt.Sprintf("%d. %s", i.index+1, i.candidate.Label) }
func (i candidateItem) Description() string {
	song := i.candidate.Song
	if song == nil {
		return ""
	}

	var parts []string
	if song.Album != "" {
		parts = append(parts, song.Album)
	}
	if song.Year > 0 {
		parts = append(parts, fmt.Sprint(song.Year))
	}
	if len(song.Genres) > 0 {
		parts = append(parts, strings.Join(song.Genres, ", "))
	}
	return strings.Join(parts, " • ")
}

func candidateItems(candidates []agent.Candidate) []list.Item {
	items := make([]list.Item, len(candidates))
	for i, c := range candidates {
		items[i] = candidateItem{index: i, candidate: c}
	}
	return items
}
