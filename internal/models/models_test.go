package models

import (
	"encoding/json"
	"slices"
	"testing"
)

func TestGenres(t *testing.T) {
	tt := []struct {
		name string
		in   string
		want Genres
	}{
		{name: "single string", in: `{"title":"a","genre":"rock"}`, want: Genres{"rock"}},
		{name: "list", in: `{"title":"a","genre":["rock"," pop "]}`, want: Genres{"rock", "pop"}},
		{name: "null", in: `{"title":"a","genre":null}`, want: nil},
		{name: "empty string", in: `{"title":"a","genre":""}`, want: nil},
		{name: "missing", in: `{"title":"a"}`, want: nil},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			var s Song
			if err := json.Unmarshal([]byte(tc.in), &s); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !slices.Equal(s.Genres, tc.want) {
				t.Errorf("got %v, want %v", s.Genres, tc.want)
			}
		})
	}

	t.Run("rejects numbers", func(t *testing.T) {
		var s Song
		if err := json.Unmarshal([]byte(`{"title":"a","genre":5}`), &s); err == nil {
			t.Error("expected error for numeric genre")
		}
	})
}

func TestSong(t *testing.T) {
	s := Song{Title: "Bohemian Rhapsody", Artist: "Queen", Genres: Genres{"Rock"}}

	if !s.HasGenre("rock") {
		t.Error("genre match should ignore case")
	}
	if s.String() != "Bohemian Rhapsody by Queen" {
		t.Errorf("unexpected String(): %s", s.String())
	}
	if (Song{Title: "  "}).Validate() == nil {
		t.Error("blank title should not validate")
	}
	if s.Key() == (Song{Title: "bohemian rhapsody", Artist: "Queen"}).Key() {
		t.Error("song identity should be case-sensitive")
	}
}

func TestSongList(t *testing.T) {
	t.Run("Append keeps insertion order and duplicates", func(t *testing.T) {
		var l SongList
		l.Append(Song{Title: "A"})
		l.Append(Song{Title: "B"})
		l.Append(Song{Title: "A"})

		if got := l.Titles(); !slices.Equal(got, []string{"A", "B", "A"}) {
			t.Errorf("unexpected titles %v", got)
		}
	})

	t.Run("RemoveByTitle removes every case-insensitive match", func(t *testing.T) {
		l := NewSongList(Song{Title: "Hey"}, Song{Title: "Jude"}, Song{Title: "HEY"})

		if n := l.RemoveByTitle("hey"); n != 2 {
			t.Errorf("expected 2 removed, got %d", n)
		}
		if l.ContainsTitle("Hey") {
			t.Error("no song titled hey should remain")
		}
		if l.Len() != 1 {
			t.Errorf("expected 1 song left, got %d", l.Len())
		}
	})

	t.Run("FindByTitle", func(t *testing.T) {
		l := NewSongList(Song{Title: "Yesterday", Artist: "The Beatles"})

		s, ok := l.FindByTitle("YESTERDAY")
		if !ok || s.Artist != "The Beatles" {
			t.Errorf("expected to find Yesterday, got %+v %v", s, ok)
		}
		if _, ok := l.FindByTitle("Today"); ok {
			t.Error("did not expect a match")
		}
		if !l.ContainsKey(SongKey{Artist: "The Beatles", Title: "Yesterday"}) {
			t.Error("expected key match")
		}
	})

	t.Run("Clone is independent", func(t *testing.T) {
		l := NewSongList(Song{Title: "A", Genres: Genres{"rock"}})
		c := l.Clone()
		c.Append(Song{Title: "B"})
		c.songs[0].Genres[0] = "jazz"

		if l.Len() != 1 || l.songs[0].Genres[0] != "rock" {
			t.Error("mutating the clone changed the original")
		}
	})

	t.Run("JSON encodes as an array", func(t *testing.T) {
		p := Playlist{Name: "rock"}
		data, err := json.Marshal(p)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(data) != `{"name":"rock","songs":[]}` {
			t.Errorf("unexpected json %s", data)
		}

		var back Playlist
		if err := json.Unmarshal([]byte(`{"name":"rock","songs":[{"title":"A","artist":"B"}]}`), &back); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if back.Songs.Len() != 1 {
			t.Errorf("expected 1 song, got %d", back.Songs.Len())
		}
	})
}

func TestUser(t *testing.T) {
	t.Run("playlist names are unique and case-sensitive", func(t *testing.T) {
		u := NewUser("erik", "")
		if !u.AddPlaylist("rock") {
			t.Fatal("first add should succeed")
		}
		if u.AddPlaylist("rock") {
			t.Error("second add of the same name should fail")
		}
		if !u.AddPlaylist("Rock") {
			t.Error("names differing in case are distinct")
		}
		if err := u.Validate(); err != nil {
			t.Errorf("unexpected validation error: %v", err)
		}
	})

	t.Run("RemovePlaylist", func(t *testing.T) {
		u := NewUser("erik", "")
		u.AddPlaylist("a")
		u.AddPlaylist("b")

		if !u.RemovePlaylist("a") || u.RemovePlaylist("a") {
			t.Error("remove should succeed once")
		}
		if !slices.Equal(u.PlaylistNames(), []string{"b"}) {
			t.Errorf("unexpected names %v", u.PlaylistNames())
		}
	})

	t.Run("Clone", func(t *testing.T) {
		u := NewUser("erik", "e@example.com")
		u.AddPlaylist("rock")

		c := u.Clone()
		p, _ := c.Playlist("rock")
		p.Songs.Append(Song{Title: "A"})

		orig, _ := u.Playlist("rock")
		if orig.Songs.Len() != 0 {
			t.Error("mutating the clone changed the original")
		}
	})

	t.Run("Validate", func(t *testing.T) {
		if (&User{}).Validate() == nil {
			t.Error("empty username should fail")
		}
		u := &User{Username: "x", Playlists: []Playlist{{Name: "a"}, {Name: "a"}}}
		if u.Validate() == nil {
			t.Error("duplicate playlist names should fail")
		}
	})
}
