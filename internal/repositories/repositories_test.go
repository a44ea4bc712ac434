package repositories

import (
	"context"
	"database/sql"
	"errors"
	"slices"
	"testing"

	"github.com/desertthunder/musicagent/internal/models"
	"github.com/desertthunder/musicagent/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(shared.InMemory)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func seedSongs(t *testing.T, repo *SongRepository, songs ...models.Song) {
	t.Helper()
	for _, s := range songs {
		if _, err := repo.Insert(context.Background(), s); err != nil {
			t.Fatalf("failed to insert %q: %v", s.Title, err)
		}
	}
}

func TestNextSequence(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	first, err := NextSequence(ctx, db, "songs")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := NextSequence(ctx, db, "songs")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second != first+1 {
		t.Errorf("expected consecutive sequences, got %d then %d", first, second)
	}

	if _, err := NextSequence(ctx, db, "missing"); err == nil {
		t.Error("expected error for a table without a sequence")
	}
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Upsert then Find", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t))

		user := models.NewUser("erik", "erik@example.com")
		user.AddPlaylist("rock")
		p, _ := user.Playlist("rock")
		p.Songs.Append(models.Song{Title: "Bohemian Rhapsody", Artist: "Queen", Genres: models.Genres{"rock"}})

		if err := repo.Upsert(ctx, user); err != nil {
			t.Fatalf("failed to upsert user: %v", err)
		}

		got, err := repo.Find(ctx, "erik")
		if err != nil {
			t.Fatalf("failed to find user: %v", err)
		}

		if got.Email != "erik@example.com" {
			t.Errorf("expected email erik@example.com, got %s", got.Email)
		}
		rock, ok := got.Playlist("rock")
		if !ok || rock.Songs.Len() != 1 {
			t.Fatalf("expected rock playlist with 1 song, got %+v", got.Playlists)
		}
		if song, _ := rock.Songs.FindByTitle("bohemian rhapsody"); song.Artist != "Queen" {
			t.Errorf("expected Queen, got %s", song.Artist)
		}
	})

	t.Run("Upsert overwrites the whole document", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t))

		user := models.NewUser("erik", "")
		user.AddPlaylist("a")
		user.AddPlaylist("b")
		if err := repo.Upsert(ctx, user); err != nil {
			t.Fatalf("failed to upsert user: %v", err)
		}

		user.RemovePlaylist("a")
		if err := repo.Upsert(ctx, user); err != nil {
			t.Fatalf("failed to upsert user: %v", err)
		}

		got, err := repo.Find(ctx, "erik")
		if err != nil {
			t.Fatalf("failed to find user: %v", err)
		}
		if !slices.Equal(got.PlaylistNames(), []string{"b"}) {
			t.Errorf("expected only playlist b, got %v", got.PlaylistNames())
		}
	})

	t.Run("Find missing user", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t))

		_, err := repo.Find(ctx, "nobody")
		if !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Create rejects duplicates", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t))

		if err := repo.Create(ctx, models.NewUser("erik", "")); err != nil {
			t.Fatalf("failed to create user: %v", err)
		}
		err := repo.Create(ctx, models.NewUser("erik", "other@example.com"))
		if !errors.Is(err, shared.ErrAlreadyExists) {
			t.Errorf("expected ErrAlreadyExists, got %v", err)
		}
	})

	t.Run("Validation", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t))

		if err := repo.Upsert(ctx, &models.User{}); err == nil {
			t.Error("expected validation error for empty username")
		}
	})

	t.Run("List", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t))
		for _, name := range []string{"zoe", "adam"} {
			if err := repo.Create(ctx, models.NewUser(name, "")); err != nil {
				t.Fatalf("failed to create user: %v", err)
			}
		}

		users, err := repo.List(ctx)
		if err != nil {
			t.Fatalf("failed to list users: %v", err)
		}
		if len(users) != 2 || users[0].Username != "adam" {
			t.Errorf("expected users ordered by name, got %+v", users)
		}
	})

	t.Run("Closed database", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewUserRepository(db)
		db.Close()

		if _, err := repo.Find(ctx, "erik"); err == nil || errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected a store error, got %v", err)
		}
		if err := repo.Upsert(ctx, models.NewUser("erik", "")); err == nil {
			t.Error("expected error writing to closed database")
		}
	})
}

func TestSongRepository(t *testing.T) {
	ctx := context.Background()
	catalog := []models.Song{
		{Title: "Bohemian Rhapsody", Artist: "Queen", Album: "A Night at the Opera", Year: 1975, Genres: models.Genres{"rock", "progressive rock"}},
		{Title: "Don't Stop Me Now", Artist: "Queen", Album: "Jazz", Year: 1978, Genres: models.Genres{"rock"}},
		{Title: "Bohemian Like You", Artist: "The Dandy Warhols", Album: "Thirteen Tales", Year: 2000, Genres: models.Genres{"indie"}},
		{Title: "Under Pressure", Artist: "Queen", Album: "Hot Space", Year: 1982, Genres: models.Genres{"pop"}},
		{Title: "100%_Pure", Artist: "Test", Genres: nil},
	}

	t.Run("Insert de-duplicates by title and artist", func(t *testing.T) {
		repo := NewSongRepository(setupTestDB(t))

		ok, err := repo.Insert(ctx, catalog[0])
		if err != nil || !ok {
			t.Fatalf("expected first insert to succeed, got %v %v", ok, err)
		}
		ok, err = repo.Insert(ctx, catalog[0])
		if err != nil || ok {
			t.Fatalf("expected duplicate to be skipped, got %v %v", ok, err)
		}

		if n, _ := repo.Count(ctx); n != 1 {
			t.Errorf("expected 1 song, got %d", n)
		}
	})

	t.Run("Insert rejects blank titles", func(t *testing.T) {
		repo := NewSongRepository(setupTestDB(t))
		if _, err := repo.Insert(ctx, models.Song{Artist: "x"}); err == nil {
			t.Error("expected validation error")
		}
	})

	t.Run("FindSongs", func(t *testing.T) {
		repo := NewSongRepository(setupTestDB(t))
		seedSongs(t, repo, catalog...)

		tt := []struct {
			name   string
			filter models.SongFilter
			want   []string
		}{
			{name: "title substring ignores case", filter: models.SongFilter{TitleContains: "bohemian"}, want: []string{"Bohemian Rhapsody", "Bohemian Like You"}},
			{name: "substring with artist", filter: models.SongFilter{TitleContains: "bohemian", Artist: "queen"}, want: []string{"Bohemian Rhapsody"}},
			{name: "artist substring", filter: models.SongFilter{TitleContains: "bohemian", ArtistContains: "UEE"}, want: []string{"Bohemian Rhapsody"}},
			{name: "artist substring is not exact artist", filter: models.SongFilter{Artist: "quee"}, want: nil},
			{name: "exact title", filter: models.SongFilter{Title: "under pressure"}, want: []string{"Under Pressure"}},
			{name: "artist and genre", filter: models.SongFilter{Artist: "Queen", Genre: "ROCK"}, want: []string{"Bohemian Rhapsody", "Don't Stop Me Now"}},
			{name: "wildcards are literal", filter: models.SongFilter{TitleContains: "%_"}, want: []string{"100%_Pure"}},
			{name: "limit", filter: models.SongFilter{Artist: "Queen", Limit: 1}, want: []string{"Bohemian Rhapsody"}},
			{name: "no match", filter: models.SongFilter{TitleContains: "zzz"}, want: nil},
		}

		for _, tc := range tt {
			t.Run(tc.name, func(t *testing.T) {
				songs, err := repo.FindSongs(ctx, tc.filter)
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				var got []string
				for _, s := range songs {
					got = append(got, s.Title)
				}
				if !slices.Equal(got, tc.want) {
					t.Errorf("got %v, want %v", got, tc.want)
				}
			})
		}
	})

	t.Run("FindSongs loads genres in order", func(t *testing.T) {
		repo := NewSongRepository(setupTestDB(t))
		seedSongs(t, repo, catalog...)

		songs, err := repo.FindSongs(ctx, models.SongFilter{Title: "Bohemian Rhapsody"})
		if err != nil || len(songs) != 1 {
			t.Fatalf("expected one song, got %v %v", songs, err)
		}
		if !slices.Equal(songs[0].Genres, models.Genres{"rock", "progressive rock"}) {
			t.Errorf("unexpected genres %v", songs[0].Genres)
		}
		if songs[0].Year != 1975 {
			t.Errorf("expected year 1975, got %d", songs[0].Year)
		}
	})

	t.Run("Albums", func(t *testing.T) {
		repo := NewSongRepository(setupTestDB(t))
		seedSongs(t, repo, catalog...)
		seedSongs(t, repo, models.Song{Title: "Love of My Life", Artist: "Queen", Album: "a night at the opera"})

		albums, err := repo.Albums(ctx, "queen")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !slices.Equal(albums, []string{"A Night at the Opera", "Jazz", "Hot Space"}) {
			t.Errorf("unexpected albums %v", albums)
		}
	})

	t.Run("SongCacheAdapter", func(t *testing.T) {
		repo := NewSongRepository(setupTestDB(t))
		cache := NewSongCacheAdapter(repo)

		n, err := cache.CacheSongs(ctx, catalog[:2])
		if err != nil || n != 2 {
			t.Fatalf("expected 2 inserted, got %d %v", n, err)
		}
		n, err = cache.CacheSongs(ctx, catalog[:3])
		if err != nil || n != 1 {
			t.Fatalf("expected 1 new song, got %d %v", n, err)
		}

		if _, err := cache.CacheSongs(ctx, []models.Song{{Title: ""}}); err == nil {
			t.Error("expected error for invalid song")
		}
		if total, _ := repo.Count(ctx); total != 3 {
			t.Errorf("failed batch should roll back, got %d songs", total)
		}
	})
}
