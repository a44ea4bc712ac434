// Package recommend suggests catalog songs that fit a playlist.
//
// A pool is seeded once from the playlist's most frequent artists and genres
// and then drained batch by batch as the user accepts suggestions. Seeding
// again is only needed when the user starts over or switches playlists.
package recommend

import (
	"context"
	"fmt"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/musicagent/internal/metrics"
	"github.com/desertthunder/musicagent/internal/models"
	"github.com/desertthunder/musicagent/internal/shared"
)

const (
	// TopArtists and TopGenres bound the seed criteria; each (artist, genre) pair yields at most one song.
	TopArtists = 3
	TopGenres  = 3

	DefaultPreviewSize = 5
)

// Catalog is the lookup the engine seeds from.
type Catalog interface {
	ByArtistGenre(ctx context.Context, artist, genre string) ([]models.Song, error)
}

// Engine builds and drains recommendation pools.
type Engine struct {
	catalog     Catalog
	previewSize int
	logger      *log.Logger
}

// NewEngine creates an [Engine]. A non-positive previewSize uses [DefaultPreviewSize].
func NewEngine(catalog Catalog, previewSize int, logger *log.Logger) *Engine {
	if previewSize <= 0 {
		previewSize = DefaultPreviewSize
	}
	return &Engine{catalog: catalog, previewSize: previewSize, logger: shared.WithLogger(logger, "component", "recommend")}
}

// Pool is the ranked set of suggestions for one playlist.
//
// The exclusion set only grows: a song suggested once, or seen in the
// playlist, is never suggested again from this pool.
type Pool struct {
	Playlist    string
	songs       []models.Song
	seen        map[models.SongKey]struct{}
	previewSize int
}

// Batch returns the next songs to show, at most the preview size.
func (p *Pool) Batch() []models.Song {
	return slices.Clone(p.songs[:min(len(p.songs), p.previewSize)])
}

// Exhausted reports whether nothing is left to suggest.
func (p *Pool) Exhausted() bool { return len(p.songs) == 0 }

// Len is the number of songs still waiting to be suggested or accepted.
func (p *Pool) Len() int { return len(p.songs) }

// Excludes reports whether key can no longer be suggested as a new song.
func (p *Pool) Excludes(key models.SongKey) bool {
	_, ok := p.seen[key]
	return ok
}

// Seed ranks the playlist's artists and genres and picks one unseen catalog song per (artist, genre) pair.
//
// A playlist that yields nothing returns an exhausted pool, not an error.
// Catalog failures are returned.
func (e *Engine) Seed(ctx context.Context, playlist models.Playlist) (*Pool, error) {
	songs := playlist.Songs.All()

	var artists, genres []string
	pool := &Pool{Playlist: playlist.Name, seen: make(map[models.SongKey]struct{}), previewSize: e.previewSize}
	for _, s := range songs {
		pool.seen[s.Key()] = struct{}{}
		if s.Artist != "" {
			artists = append(artists, s.Artist)
		}
		genres = append(genres, s.Genres...)
	}

	topArtists := rankTop(artists, TopArtists)
	topGenres := rankTop(genres, TopGenres)

	for _, artist := range topArtists {
		for _, genre := range topGenres {
			matches, err := e.catalog.ByArtistGenre(ctx, artist, genre)
			if err != nil {
				metrics.RecommendationsTotal.WithLabelValues("seed", "error").Inc()
				return nil, fmt.Errorf("failed to seed recommendations for %s/%s: %w", artist, genre, err)
			}

			for _, m := range matches {
				if pool.Excludes(m.Key()) {
					continue
				}
				pool.seen[m.Key()] = struct{}{}
				pool.songs = append(pool.songs, m)
				break
			}
		}
	}

	e.logger.Debug("seeded pool", "playlist", playlist.Name, "artists", topArtists, "genres", topGenres, "songs", len(pool.songs))
	metrics.RecommendationsTotal.WithLabelValues("seed", resultLabel(pool)).Inc()
	return pool, nil
}

// Advance drops every pooled song now present in the playlist and returns the pool for the next batch.
//
// The pool is not reseeded.
func (e *Engine) Advance(pool *Pool, playlist models.Playlist) *Pool {
	for _, s := range playlist.Songs.All() {
		pool.seen[s.Key()] = struct{}{}
	}
	pool.songs = slices.DeleteFunc(pool.songs, func(s models.Song) bool {
		return playlist.Songs.ContainsKey(s.Key())
	})

	e.logger.Debug("advanced pool", "playlist", pool.Playlist, "remaining", len(pool.songs))
	metrics.RecommendationsTotal.WithLabelValues("advance", resultLabel(pool)).Inc()
	return pool
}

// rankTop returns the n most frequent values. Ties keep the order in which values first appeared.
func rankTop(values []string, n int) []string {
	counts := make(map[string]int)
	var order []string
	for _, v := range values {
		if counts[v] == 0 {
			order = append(order, v)
		}
		counts[v]++
	}

	slices.SortStableFunc(order, func(a, b string) int { return counts[b] - counts[a] })
	return order[:min(n, len(order))]
}

func resultLabel(p *Pool) string {
	if p.Exhausted() {
		return "empty"
	}
	return "ok"
}
