package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Song is one catalog track. Playlists hold copies, never references into the catalog.
type Song struct {
	Title  string `json:"title"`
	Artist string `json:"artist,omitempty"`
	Album  string `json:"album,omitempty"`
	Year   int    `json:"year,omitempty"`
	Genres Genres `json:"genre,omitempty"`
}

// SongKey identifies a song for recommendation purposes. Comparison is case-sensitive.
type SongKey struct {
	Artist string
	Title  string
}

// Key returns the (artist, title) identity of s.
func (s Song) Key() SongKey {
	return SongKey{Artist: s.Artist, Title: s.Title}
}

// Validate requires a non-blank title.
func (s Song) Validate() error {
	if strings.TrimSpace(s.Title) == "" {
		return errors.New("song title is required")
	}
	return nil
}

// HasGenre reports whether s is tagged with genre, ignoring case.
func (s Song) HasGenre(genre string) bool {
	return slices.ContainsFunc(s.Genres, func(g string) bool { return strings.EqualFold(g, genre) })
}

func (s Song) String() string {
	if s.Artist == "" {
		return s.Title
	}
	return fmt.Sprintf("%s by %s", s.Title, s.Artist)
}

// Genres is a list of genre names. In JSON it may be written as a single string or a list.
type Genres []string

// UnmarshalJSON accepts null, "rock" or ["rock", "pop"].
func (g *Genres) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*g = nil
		return nil
	}

	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		if one = strings.TrimSpace(one); one == "" {
			*g = nil
		} else {
			*g = Genres{one}
		}
		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("genre must be a string or a list of strings: %w", err)
	}

	out := make(Genres, 0, len(many))
	for _, name := range many {
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, name)
		}
	}
	*g = out
	return nil
}

// SongList is an ordered sequence of songs. Order is insertion order and duplicate titles are allowed.
type SongList struct {
	songs []Song
}

// NewSongList copies songs into a new list.
func NewSongList(songs ...Song) SongList {
	return SongList{songs: slices.Clone(songs)}
}

func (l SongList) Len() int { return len(l.songs) }

// All returns a copy of the songs in order.
func (l SongList) All() []Song { return slices.Clone(l.songs) }

// Titles returns the song titles in order.
func (l SongList) Titles() []string {
	titles := make([]string, len(l.songs))
	for i, s := range l.songs {
		titles[i] = s.Title
	}
	return titles
}

// ContainsTitle reports whether any song's title matches title, ignoring case.
func (l SongList) ContainsTitle(title string) bool {
	_, ok := l.FindByTitle(title)
	return ok
}

// FindByTitle returns the first song whose title matches title, ignoring case.
func (l SongList) FindByTitle(title string) (Song, bool) {
	i := slices.IndexFunc(l.songs, func(s Song) bool { return strings.EqualFold(s.Title, title) })
	if i < 0 {
		return Song{}, false
	}
	return l.songs[i], true
}

// ContainsKey reports whether a song with exactly this (artist, title) identity is present.
func (l SongList) ContainsKey(key SongKey) bool {
	return slices.ContainsFunc(l.songs, func(s Song) bool { return s.Key() == key })
}

// Append adds song at the end.
func (l *SongList) Append(song Song) {
	l.songs = append(l.songs, song)
}

// RemoveByTitle deletes every song whose title matches title, ignoring case, and returns how many were removed.
func (l *SongList) RemoveByTitle(title string) int {
	before := len(l.songs)
	l.songs = slices.DeleteFunc(l.songs, func(s Song) bool { return strings.EqualFold(s.Title, title) })
	return before - len(l.songs)
}

// Clone returns an independent copy.
func (l SongList) Clone() SongList {
	out := SongList{songs: make([]Song, len(l.songs))}
	for i, s := range l.songs {
		s.Genres = slices.Clone(s.Genres)
		out.songs[i] = s
	}
	return out
}

func (l SongList) MarshalJSON() ([]byte, error) {
	if l.songs == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l.songs)
}

func (l *SongList) UnmarshalJSON(data []byte) error {
	var songs []Song
	if err := json.Unmarshal(data, &songs); err != nil {
		return err
	}
	l.songs = songs
	return nil
}
