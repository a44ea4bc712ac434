package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/musicagent/internal/metrics"
	"github.com/desertthunder/musicagent/internal/models"
	"github.com/desertthunder/musicagent/internal/shared"
)

// SongRepository is the SQLite song catalog. It implements [models.SongFinder].
type SongRepository struct {
	db *sql.DB
}

// NewSongRepository creates a new [SongRepository] with the given database connection
func NewSongRepository(db *sql.DB) *SongRepository {
	return &SongRepository{db: db}
}

// Insert adds song to the catalog. It reports false without error when a song
// with the same title and artist is already present.
func (r *SongRepository) Insert(ctx context.Context, song models.Song) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	inserted, err := insertSong(ctx, tx, song)
	if err != nil || !inserted {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit song: %w", err)
	}
	return true, nil
}

func insertSong(ctx context.Context, tx *sql.Tx, song models.Song) (bool, error) {
	if err := song.Validate(); err != nil {
		return false, fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(ctx, tx, "songs")
	if err != nil {
		return false, fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	result, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO songs (id, seq, title, artist, album, year, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, sequence, song.Title, song.Artist, song.Album, song.Year, time.Now().UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert song: %w", err)
	}

	if n, err := result.RowsAffected(); err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	} else if n == 0 {
		return false, nil
	}

	for i, genre := range song.Genres {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO song_genres (song_id, position, genre) VALUES (?, ?, ?)", id, i, genre,
		); err != nil {
			return false, fmt.Errorf("failed to insert genre: %w", err)
		}
	}
	return true, nil
}

// FindSongs implements [models.SongFinder]. Results are in catalog (import) order.
func (r *SongRepository) FindSongs(ctx context.Context, filter models.SongFilter) (songs []models.Song, err error) {
	defer func(start time.Time) { metrics.ObserveStore("find_songs", start, err) }(time.Now())

	var (
		where []string
		args  []any
	)

	if filter.Title != "" {
		where = append(where, "s.title = ? COLLATE NOCASE")
		args = append(args, filter.Title)
	}
	if filter.TitleContains != "" {
		where = append(where, `s.title LIKE ? ESCAPE '\'`)
		args = append(args, likePattern(filter.TitleContains))
	}
	if filter.Artist != "" {
		where = append(where, "s.artist = ? COLLATE NOCASE")
		args = append(args, filter.Artist)
	}
	if filter.ArtistContains != "" {
		where = append(where, `s.artist LIKE ? ESCAPE '\'`)
		args = append(args, likePattern(filter.ArtistContains))
	}
	if filter.Genre != "" {
		where = append(where, "EXISTS (SELECT 1 FROM song_genres g WHERE g.song_id = s.id AND g.genre = ? COLLATE NOCASE)")
		args = append(args, filter.Genre)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	query := "SELECT s.id, s.title, s.artist, s.album, s.year FROM songs s"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY s.seq ASC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query songs: %w", err)
	}

	var ids []string
	for rows.Next() {
		var (
			id   string
			song models.Song
		)
		if err := rows.Scan(&id, &song.Title, &song.Artist, &song.Album, &song.Year); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan song: %w", err)
		}
		ids = append(ids, id)
		songs = append(songs, song)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	rows.Close()

	if len(ids) == 0 {
		return songs, nil
	}

	genres, err := r.genresFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i, id := range ids {
		songs[i].Genres = genres[id]
	}
	return songs, nil
}

// genresFor loads genres for the given song ids, keeping their stored order.
func (r *SongRepository) genresFor(ctx context.Context, ids []string) (map[string]models.Genres, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT song_id, genre FROM song_genres WHERE song_id IN ("+placeholders+") ORDER BY song_id, position",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query genres: %w", err)
	}
	defer rows.Close()

	genres := make(map[string]models.Genres, len(ids))
	for rows.Next() {
		var id, genre string
		if err := rows.Scan(&id, &genre); err != nil {
			return nil, fmt.Errorf("failed to scan genre: %w", err)
		}
		genres[id] = append(genres[id], genre)
	}
	return genres, rows.Err()
}

// Albums returns the distinct non-empty album names for artist, in catalog order.
func (r *SongRepository) Albums(ctx context.Context, artist string) (albums []string, err error) {
	defer func(start time.Time) { metrics.ObserveStore("artist_albums", start, err) }(time.Now())

	rows, err := r.db.QueryContext(ctx, `
		SELECT album, MIN(seq) AS first_seq FROM songs
		WHERE artist = ? COLLATE NOCASE AND album <> ''
		GROUP BY album COLLATE NOCASE
		ORDER BY first_seq ASC`, artist)
	if err != nil {
		return nil, fmt.Errorf("failed to query albums: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			album string
			seq   int
		)
		if err := rows.Scan(&album, &seq); err != nil {
			return nil, fmt.Errorf("failed to scan album: %w", err)
		}
		albums = append(albums, album)
	}
	return albums, rows.Err()
}

// Count returns the number of songs in the catalog.
func (r *SongRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM songs").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count songs: %w", err)
	}
	return n, nil
}
