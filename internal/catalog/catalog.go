// Package catalog answers read-only song lookups for the agent.
//
// Lookups return zero, one or many songs in catalog order; deciding what to do
// with several matches is the caller's job.
package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/musicagent/internal/models"
	"github.com/desertthunder/musicagent/internal/shared"
)

// Store is the backing store the client reads from. [repositories.SongRepository] implements it.
type Store interface {
	models.SongFinder
	Albums(ctx context.Context, artist string) ([]string, error)
}

// Client performs catalog lookups.
type Client struct {
	store  Store
	limit  int
	logger *log.Logger
}

// NewClient creates a catalog [Client]. A zero limit uses the store default.
func NewClient(store Store, limit int, logger *log.Logger) *Client {
	return &Client{store: store, limit: limit, logger: shared.WithLogger(logger, "component", "catalog")}
}

// Search matches title as a case-insensitive substring, optionally restricted
// to songs whose artist contains artist.
func (c *Client) Search(ctx context.Context, title, artist string) ([]models.Song, error) {
	title = shared.CollapseSpaces(title)
	if title == "" {
		return nil, fmt.Errorf("%w: song title", shared.ErrMissingArgument)
	}
	return c.find(ctx, models.SongFilter{TitleContains: title, ArtistContains: shared.CollapseSpaces(artist)})
}

// Exact returns the first song whose title (and artist, when given) match ignoring case.
func (c *Client) Exact(ctx context.Context, title, artist string) (models.Song, error) {
	songs, err := c.find(ctx, models.SongFilter{
		Title:  shared.CollapseSpaces(title),
		Artist: shared.CollapseSpaces(artist),
		Limit:  1,
	})
	if err != nil {
		return models.Song{}, err
	}
	if len(songs) == 0 {
		return models.Song{}, fmt.Errorf("%w: song %q", shared.ErrNotFound, title)
	}
	return songs[0], nil
}

// ByArtist lists the artist's songs.
func (c *Client) ByArtist(ctx context.Context, artist string) ([]models.Song, error) {
	artist = shared.CollapseSpaces(artist)
	if artist == "" {
		return nil, fmt.Errorf("%w: artist", shared.ErrMissingArgument)
	}
	return c.find(ctx, models.SongFilter{Artist: artist})
}

// ByArtistGenre lists the artist's songs tagged with genre.
func (c *Client) ByArtistGenre(ctx context.Context, artist, genre string) ([]models.Song, error) {
	return c.find(ctx, models.SongFilter{Artist: artist, Genre: genre})
}

// Albums returns the artist's distinct albums, or [shared.ErrNotFound] when there are none.
func (c *Client) Albums(ctx context.Context, artist string) ([]string, error) {
	albums, err := c.store.Albums(ctx, shared.CollapseSpaces(artist))
	if err != nil {
		c.logger.Error("album lookup failed", "artist", artist, "error", err)
		return nil, fmt.Errorf("%w: %v", shared.ErrStoreFailure, err)
	}
	if len(albums) == 0 {
		return nil, fmt.Errorf("%w: albums by %q", shared.ErrNotFound, artist)
	}
	return albums, nil
}

// Release finds the song and checks that its release year is known.
func (c *Client) Release(ctx context.Context, title, artist string) (models.Song, error) {
	song, err := c.Exact(ctx, title, artist)
	if err != nil {
		return models.Song{}, err
	}
	if song.Year <= 0 {
		return models.Song{}, fmt.Errorf("%w: release year of %q", shared.ErrNotFound, song.Title)
	}
	return song, nil
}

func (c *Client) find(ctx context.Context, filter models.SongFilter) ([]models.Song, error) {
	if filter.Limit == 0 {
		filter.Limit = c.limit
	}

	songs, err := c.store.FindSongs(ctx, filter)
	if err != nil {
		c.logger.Error("catalog query failed", "filter", fmt.Sprintf("%+v", filter), "error", err)
		return nil, fmt.Errorf("%w: %v", shared.ErrStoreFailure, err)
	}

	c.logger.Debug("catalog query", "title", filter.Title+filter.TitleContains, "artist", filter.Artist+filter.ArtistContains,
		"genre", filter.Genre, "matches", len(songs))
	return songs, nil
}

// Describe renders songs as a numbered list, one "i. title by artist" per line.
func Describe(songs []models.Song) string {
	var b strings.Builder
	for i, s := range songs {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s)
	}
	return strings.TrimSuffix(b.String(), "\n")
}
