package models

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Playlist is a named ordered collection of songs.
type Playlist struct {
	Name  string   `json:"name"`
	Songs SongList `json:"songs"`
}

// Clone returns an independent copy of p.
func (p Playlist) Clone() Playlist {
	return Playlist{Name: p.Name, Songs: p.Songs.Clone()}
}

// User is the persisted owner of a set of playlists. Playlist names are unique within a user and case-sensitive.
type User struct {
	Username  string     `json:"username"`
	Email     string     `json:"email,omitempty"`
	Playlists []Playlist `json:"playlists"`
}

// NewUser returns a user without playlists.
func NewUser(username, email string) *User {
	return &User{Username: username, Email: email, Playlists: []Playlist{}}
}

// Key implements [Document].
func (u *User) Key() string { return u.Username }

// Validate implements [Document].
func (u *User) Validate() error {
	if strings.TrimSpace(u.Username) == "" {
		return errors.New("username is required")
	}

	seen := make(map[string]struct{}, len(u.Playlists))
	for _, p := range u.Playlists {
		if _, dup := seen[p.Name]; dup {
			return fmt.Errorf("duplicate playlist name %q", p.Name)
		}
		seen[p.Name] = struct{}{}
	}
	return nil
}

// Playlist returns a pointer to the named playlist so callers can mutate it in place.
func (u *User) Playlist(name string) (*Playlist, bool) {
	i := u.indexOf(name)
	if i < 0 {
		return nil, false
	}
	return &u.Playlists[i], true
}

// HasPlaylist reports whether name exists.
func (u *User) HasPlaylist(name string) bool {
	return u.indexOf(name) >= 0
}

// PlaylistNames lists names in creation order.
func (u *User) PlaylistNames() []string {
	names := make([]string, len(u.Playlists))
	for i, p := range u.Playlists {
		names[i] = p.Name
	}
	return names
}

// AddPlaylist appends an empty playlist. It returns false when the name is taken.
func (u *User) AddPlaylist(name string) bool {
	if u.HasPlaylist(name) {
		return false
	}
	u.Playlists = append(u.Playlists, Playlist{Name: name})
	return true
}

// RemovePlaylist deletes the named playlist. It returns false when it did not exist.
func (u *User) RemovePlaylist(name string) bool {
	i := u.indexOf(name)
	if i < 0 {
		return false
	}
	u.Playlists = slices.Delete(u.Playlists, i, i+1)
	return true
}

// Clone deep-copies u so a mutation can be attempted without touching the original.
func (u *User) Clone() *User {
	out := &User{Username: u.Username, Email: u.Email, Playlists: make([]Playlist, len(u.Playlists))}
	for i, p := range u.Playlists {
		out.Playlists[i] = p.Clone()
	}
	return out
}

func (u *User) indexOf(name string) int {
	return slices.IndexFunc(u.Playlists, func(p Playlist) bool { return p.Name == name })
}
