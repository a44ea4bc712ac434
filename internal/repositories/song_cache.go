package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/desertthunder/musicagent/internal/models"
)

// SongCacheAdapter implements tasks.SongCacher on top of [SongRepository].
//
// A batch is written in one transaction. Songs already in the catalog
// (same title and artist) are skipped rather than treated as failures.
type SongCacheAdapter struct {
	db *sql.DB
}

// NewSongCacheAdapter creates a new SongCacheAdapter sharing the repository's connection
func NewSongCacheAdapter(repo *SongRepository) *SongCacheAdapter {
	return &SongCacheAdapter{db: repo.db}
}

// CacheSongs inserts songs and returns how many were new.
func (a *SongCacheAdapter) CacheSongs(ctx context.Context, songs []models.Song) (int, error) {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	inserted := 0
	for _, song := range songs {
		ok, err := insertSong(ctx, tx, song)
		if err != nil {
			return 0, fmt.Errorf("failed to cache song %q: %w", song.Title, err)
		}
		if ok {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit song batch: %w", err)
	}
	return inserted, nil
}
