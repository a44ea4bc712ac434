package tasks

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/musicagent/internal/models"
	"github.com/desertthunder/musicagent/internal/shared"
)

// SongCacher stores catalog songs in bulk. It reports how many were new.
//
// [repositories.SongCacheAdapter] implements it.
type SongCacher interface {
	CacheSongs(ctx context.Context, songs []models.Song) (int, error)
}

// PlaylistSource reads a user's playlists. [playlists.Store] implements it.
type PlaylistSource interface {
	ListPlaylists(ctx context.Context, username string) ([]models.Playlist, error)
}

// Engine runs batch jobs against the catalog and the playlist store.
// Either dependency may be nil when the caller only needs the other job.
type Engine struct {
	cacher    SongCacher
	playlists PlaylistSource
	logger    *log.Logger
}

// NewEngine creates an [Engine].
func NewEngine(cacher SongCacher, playlists PlaylistSource, logger *log.Logger) *Engine {
	return &Engine{cacher: cacher, playlists: playlists, logger: shared.WithLogger(logger, "component", "tasks")}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
		// Channel full, skip this update
	}
}
