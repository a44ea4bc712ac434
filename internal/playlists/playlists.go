// Package playlists owns users' named playlists and persists every change immediately.
//
// Each mutation locks the username, reloads the stored document, applies the
// change to that fresh copy and overwrites the whole document. If any step
// fails the stored document is left as it was and the caller receives no
// partially-applied state.
package playlists

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/musicagent/internal/models"
	"github.com/desertthunder/musicagent/internal/shared"
)

// UserStore is the backing store for user documents.
type UserStore interface {
	models.DocumentStore[*models.User]
	Create(ctx context.Context, user *models.User) error
}

// Options configure a [Store].
type Options struct {
	// AutoProvision creates an empty user on the first Login for an unknown username.
	AutoProvision bool
}

// Store is the playlist store.
type Store struct {
	users  UserStore
	opts   Options
	logger *log.Logger
	locks  keyedMutex
}

// NewStore creates a [Store] backed by users.
func NewStore(users UserStore, opts Options, logger *log.Logger) *Store {
	return &Store{users: users, opts: opts, logger: shared.WithLogger(logger, "component", "playlists")}
}

// Login loads username. Unknown users are created when auto-provisioning is enabled.
func (s *Store) Login(ctx context.Context, username string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("%w: username", shared.ErrMissingArgument)
	}

	user, err := s.Load(ctx, username)
	if err == nil || !errors.Is(err, shared.ErrNotFound) || !s.opts.AutoProvision {
		return user, err
	}

	s.logger.Info("provisioning user", "username", username)
	return s.Register(ctx, username, "")
}

// Register creates a new user and fails with [shared.ErrAlreadyExists] if the username is taken.
func (s *Store) Register(ctx context.Context, username, email string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("%w: username", shared.ErrMissingArgument)
	}

	user := models.NewUser(username, strings.TrimSpace(email))
	if err := s.users.Create(ctx, user); err != nil {
		return nil, s.storeError("register", username, err)
	}
	s.logger.Info("registered user", "username", username)
	return user, nil
}

// Load reads the persisted document for username.
func (s *Store) Load(ctx context.Context, username string) (*models.User, error) {
	user, err := s.users.Find(ctx, username)
	if err != nil {
		return nil, s.storeError("load", username, err)
	}
	return user, nil
}

// CreatePlaylist adds an empty playlist. Names are case-sensitive.
func (s *Store) CreatePlaylist(ctx context.Context, username, name string) (*models.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: playlist name", shared.ErrMissingArgument)
	}

	return s.mutate(ctx, username, "create_playlist", func(u *models.User) error {
		if !u.AddPlaylist(name) {
			return fmt.Errorf("%w: playlist %s", shared.ErrAlreadyExists, name)
		}
		return nil
	})
}

// CreatePlaylistWithSongs adds a playlist already holding songs in one write.
func (s *Store) CreatePlaylistWithSongs(ctx context.Context, username, name string, songs []models.Song) (*models.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: playlist name", shared.ErrMissingArgument)
	}

	return s.mutate(ctx, username, "create_playlist", func(u *models.User) error {
		if !u.AddPlaylist(name) {
			return fmt.Errorf("%w: playlist %s", shared.ErrAlreadyExists, name)
		}
		p, _ := u.Playlist(name)
		for _, song := range songs {
			p.Songs.Append(song)
		}
		return nil
	})
}

// DeletePlaylist removes the named playlist.
func (s *Store) DeletePlaylist(ctx context.Context, username, name string) (*models.User, error) {
	return s.mutate(ctx, username, "delete_playlist", func(u *models.User) error {
		if !u.RemovePlaylist(name) {
			return playlistNotFound(name)
		}
		return nil
	})
}

// AddSong appends a copy of song to the playlist. Duplicate titles are allowed.
func (s *Store) AddSong(ctx context.Context, username, playlist string, song models.Song) (*models.User, error) {
	if err := song.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	return s.mutate(ctx, username, "add_song", func(u *models.User) error {
		p, ok := u.Playlist(playlist)
		if !ok {
			return playlistNotFound(playlist)
		}
		p.Songs.Append(song)
		return nil
	})
}

// AddSongs appends several songs in one write.
func (s *Store) AddSongs(ctx context.Context, username, playlist string, songs []models.Song) (*models.User, error) {
	return s.mutate(ctx, username, "add_songs", func(u *models.User) error {
		p, ok := u.Playlist(playlist)
		if !ok {
			return playlistNotFound(playlist)
		}
		for _, song := range songs {
			p.Songs.Append(song)
		}
		return nil
	})
}

// RemoveSong deletes every song in the playlist whose title matches ignoring case and reports how many went.
//
// Removing a title that is not present is not an error; the count is zero.
func (s *Store) RemoveSong(ctx context.Context, username, playlist, title string) (*models.User, int, error) {
	return s.RemoveSongs(ctx, username, playlist, []string{title})
}

// RemoveSongs removes every song matching any of titles in one write.
func (s *Store) RemoveSongs(ctx context.Context, username, playlist string, titles []string) (*models.User, int, error) {
	removed := 0
	user, err := s.mutate(ctx, username, "remove_song", func(u *models.User) error {
		p, ok := u.Playlist(playlist)
		if !ok {
			return playlistNotFound(playlist)
		}
		for _, title := range titles {
			removed += p.Songs.RemoveByTitle(title)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return user, removed, nil
}

// GetPlaylist returns a copy of the named playlist.
func (s *Store) GetPlaylist(ctx context.Context, username, name string) (models.Playlist, error) {
	user, err := s.Load(ctx, username)
	if err != nil {
		return models.Playlist{}, err
	}
	p, ok := user.Playlist(name)
	if !ok {
		return models.Playlist{}, playlistNotFound(name)
	}
	return p.Clone(), nil
}

// ListPlaylists returns the user's playlists in creation order.
func (s *Store) ListPlaylists(ctx context.Context, username string) ([]models.Playlist, error) {
	user, err := s.Load(ctx, username)
	if err != nil {
		return nil, err
	}
	return user.Clone().Playlists, nil
}

// mutate runs apply against a fresh copy of the user's document under the user's lock and persists the result.
func (s *Store) mutate(ctx context.Context, username, op string, apply func(*models.User) error) (*models.User, error) {
	unlock := s.locks.Lock(username)
	defer unlock()

	user, err := s.Load(ctx, username)
	if err != nil {
		return nil, err
	}

	if err := apply(user); err != nil {
		s.logger.Debug("mutation rejected", "op", op, "username", username, "reason", err)
		return nil, err
	}

	if err := s.users.Upsert(ctx, user); err != nil {
		return nil, s.storeError(op, username, err)
	}

	s.logger.Debug("mutation persisted", "op", op, "username", username)
	return user, nil
}

// storeError passes expected outcomes through and marks everything else as a store failure.
func (s *Store) storeError(op, username string, err error) error {
	switch {
	case errors.Is(err, shared.ErrNotFound), errors.Is(err, shared.ErrAlreadyExists):
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	}
	s.logger.Error("store operation failed", "op", op, "username", username, "error", err)
	return fmt.Errorf("%w: %s: %v", shared.ErrStoreFailure, op, err)
}

func playlistNotFound(name string) error {
	return fmt.Errorf("%w: playlist %s", shared.ErrNotFound, name)
}

// keyedMutex hands out one mutex per key. Entries are dropped when no holder or waiter remains.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refLock
}

type refLock struct {
	sync.Mutex
	refs int
}

// Lock blocks until key is free and returns the matching unlock func.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*refLock)
	}
	l, ok := k.locks[key]
	if !ok {
		l = &refLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		k.mu.Lock()
		if l.refs--; l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
